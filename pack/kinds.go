package pack

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Well known item kinds.
const (
	KindLib                = "Lib"
	KindSymbols            = "Symbols"
	KindDoc                = "Doc"
	KindTool               = "Tool"
	KindContent            = "Content"
	KindNone               = "None"
	KindDependency         = "Dependency"
	KindFrameworkReference = "FrameworkReference"
	KindMetadata           = "Metadata"
	KindBuild              = "Build"
	KindRuntimes           = "Runtimes"
)

// KindDefinition maps a kind to its package folder. An empty folder means
// items of the kind are not packaged under a folder of their own.
type KindDefinition struct {
	Name              string `json:"name" yaml:"name" mapstructure:"name"`
	PackageFolder     string `json:"packageFolder" yaml:"packageFolder" mapstructure:"packageFolder"`
	FrameworkSpecific bool   `json:"frameworkSpecific" yaml:"frameworkSpecific" mapstructure:"frameworkSpecific"`
}

// KindTable is an ordered set of kind definitions. Lookups are
// case-sensitive.
type KindTable struct {
	order  []string
	byName map[string]KindDefinition
}

// NewKindTable builds a table from defs. A later definition with the same
// name replaces the earlier one but keeps its position.
func NewKindTable(defs ...KindDefinition) *KindTable {
	t := &KindTable{byName: make(map[string]KindDefinition, len(defs))}
	for _, d := range defs {
		if _, ok := t.byName[d.Name]; !ok {
			t.order = append(t.order, d.Name)
		}
		t.byName[d.Name] = d
	}
	return t
}

// DefaultKinds returns the built-in kind table. Build and Runtimes are left
// out on purpose and fall back to inference.
func DefaultKinds() *KindTable {
	return NewKindTable(
		KindDefinition{Name: KindLib, PackageFolder: "lib", FrameworkSpecific: true},
		KindDefinition{Name: KindSymbols, PackageFolder: "symbols", FrameworkSpecific: true},
		KindDefinition{Name: KindDoc, PackageFolder: "lib", FrameworkSpecific: true},
		KindDefinition{Name: KindTool, PackageFolder: "tools", FrameworkSpecific: true},
		KindDefinition{Name: KindContent, PackageFolder: "contentFiles", FrameworkSpecific: true},
		KindDefinition{Name: KindNone},
		KindDefinition{Name: KindDependency, FrameworkSpecific: true},
		KindDefinition{Name: KindFrameworkReference, FrameworkSpecific: true},
		KindDefinition{Name: KindMetadata},
	)
}

// Lookup returns the definition registered for kind.
func (t *KindTable) Lookup(kind string) (KindDefinition, bool) {
	d, ok := t.byName[kind]
	return d, ok
}

// Classify returns the package folder for kind and whether its files are
// placed per target framework. Unknown kinds get a folder named after the
// lowercased kind and are framework specific; None never gets a folder.
func (t *KindTable) Classify(kind string) (folder string, frameworkSpecific bool) {
	if d, ok := t.Lookup(kind); ok {
		return d.PackageFolder, d.FrameworkSpecific
	}
	if kind == KindNone {
		return "", false
	}
	return strings.ToLower(kind), true
}

// Definitions returns the table in declaration order.
func (t *KindTable) Definitions() []KindDefinition {
	defs := make([]KindDefinition, 0, len(t.order))
	for _, name := range t.order {
		defs = append(defs, t.byName[name])
	}
	return defs
}

// Len returns the number of definitions.
func (t *KindTable) Len() int {
	return len(t.order)
}

type kindFile struct {
	Kinds []KindDefinition `yaml:"kinds"`
}

// ReadKinds decodes a kind table document. Both a bare list and a mapping
// with a "kinds" list are accepted, in YAML or JSON.
func ReadKinds(r io.Reader) (*KindTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read kinds: %w", err)
	}

	var defs []KindDefinition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		var doc kindFile
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode kinds: %w", err)
		}
		defs = doc.Kinds
	}

	for i, d := range defs {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("kind definition %d has no name", i)
		}
	}
	return NewKindTable(defs...), nil
}
