package packaging

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Open Packaging Convention part names and types used by .nupkg archives.
const (
	ContentTypesPart       = "[Content_Types].xml"
	RelationshipsPart      = "_rels/.rels"
	CorePropertiesFolder   = "package/services/metadata/core-properties/"
	ManifestRelationType   = "http://schemas.microsoft.com/packaging/2010/07/manifest"
	CorePropertiesRelation = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"

	contentTypesNamespace   = "http://schemas.openxmlformats.org/package/2006/content-types"
	relationshipsNamespace  = "http://schemas.openxmlformats.org/package/2006/relationships"
	corePropertiesNamespace = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"

	relationshipContentType   = "application/vnd.openxmlformats-package.relationships+xml"
	corePropertiesContentType = "application/vnd.openxmlformats-package.core-properties+xml"
	defaultContentType        = "application/octet"

	// CreatorName is written as the last modifier of every package.
	CreatorName = "gonugetizer"
)

type contentTypes struct {
	XMLName   xml.Name              `xml:"Types"`
	Xmlns     string                `xml:"xmlns,attr"`
	Defaults  []contentTypeDefault  `xml:"Default"`
	Overrides []contentTypeOverride `xml:"Override,omitempty"`
}

type contentTypeDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type contentTypeOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type relationships struct {
	XMLName       xml.Name       `xml:"Relationships"`
	Xmlns         string         `xml:"xmlns,attr"`
	Relationships []relationship `xml:"Relationship"`
}

type relationship struct {
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
	ID     string `xml:"Id,attr"`
}

type coreProperties struct {
	XMLName        xml.Name `xml:"coreProperties"`
	Xmlns          string   `xml:"xmlns,attr"`
	XmlnsDC        string   `xml:"xmlns:dc,attr"`
	XmlnsDCTerms   string   `xml:"xmlns:dcterms,attr"`
	XmlnsXSI       string   `xml:"xmlns:xsi,attr"`
	Creator        string   `xml:"dc:creator,omitempty"`
	Description    string   `xml:"dc:description,omitempty"`
	Identifier     string   `xml:"dc:identifier,omitempty"`
	Version        string   `xml:"version,omitempty"`
	Keywords       string   `xml:"keywords,omitempty"`
	LastModifiedBy string   `xml:"lastModifiedBy,omitempty"`
}

// relationshipID returns an OPC relationship id. Ids must start with a letter.
func relationshipID() string {
	return "R" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
}

// corePropertiesPartName returns a fresh .psmdcp part name.
func corePropertiesPartName() string {
	return CorePropertiesFolder + strings.ReplaceAll(uuid.NewString(), "-", "") + ".psmdcp"
}

// buildContentTypes registers a default content type per extension and an
// override for every part without one. Output is sorted.
func buildContentTypes(parts []string) *contentTypes {
	ct := &contentTypes{
		Xmlns: contentTypesNamespace,
		Defaults: []contentTypeDefault{
			{Extension: "rels", ContentType: relationshipContentType},
			{Extension: "psmdcp", ContentType: corePropertiesContentType},
		},
	}

	seen := map[string]bool{"rels": true, "psmdcp": true}
	var extensions, bare []string
	for _, p := range parts {
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
		switch {
		case ext == "":
			bare = append(bare, p)
		case !seen[ext]:
			seen[ext] = true
			extensions = append(extensions, ext)
		}
	}
	sort.Strings(extensions)
	sort.Strings(bare)

	for _, ext := range extensions {
		ct.Defaults = append(ct.Defaults, contentTypeDefault{Extension: ext, ContentType: defaultContentType})
	}
	for _, p := range bare {
		ct.Overrides = append(ct.Overrides, contentTypeOverride{PartName: "/" + p, ContentType: defaultContentType})
	}
	return ct
}

func buildRelationships(manifestPart, corePropsPart string) *relationships {
	return &relationships{
		Xmlns: relationshipsNamespace,
		Relationships: []relationship{
			{Type: ManifestRelationType, Target: "/" + manifestPart, ID: relationshipID()},
			{Type: CorePropertiesRelation, Target: "/" + corePropsPart, ID: relationshipID()},
		},
	}
}

func buildCoreProperties(metadata PackageMetadata) *coreProperties {
	props := &coreProperties{
		Xmlns:          corePropertiesNamespace,
		XmlnsDC:        "http://purl.org/dc/elements/1.1/",
		XmlnsDCTerms:   "http://purl.org/dc/terms/",
		XmlnsXSI:       "http://www.w3.org/2001/XMLSchema-instance",
		Creator:        strings.Join(metadata.Authors, ", "),
		Description:    metadata.Description,
		Identifier:     metadata.ID,
		Keywords:       strings.Join(metadata.Tags, " "),
		LastModifiedBy: CreatorName,
	}
	if metadata.Version != nil {
		props.Version = metadata.Version.ToFullString()
	}
	return props
}

// writeXMLPart adds an XML part to the archive.
func writeXMLPart(zw *zip.Writer, name string, modified time.Time, v any) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return nil
}

// writeOPCParts writes the relationships, core properties and content types
// parts. parts lists every other entry already in the archive.
func writeOPCParts(zw *zip.Writer, metadata PackageMetadata, manifestPart string, parts []string, modified time.Time) error {
	corePart := corePropertiesPartName()

	if err := writeXMLPart(zw, RelationshipsPart, modified, buildRelationships(manifestPart, corePart)); err != nil {
		return err
	}
	if err := writeXMLPart(zw, corePart, modified, buildCoreProperties(metadata)); err != nil {
		return err
	}

	all := append([]string{manifestPart}, parts...)
	return writeXMLPart(zw, ContentTypesPart, modified, buildContentTypes(all))
}
