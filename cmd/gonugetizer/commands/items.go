package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/willibrandon/gonugetizer/pack"
	"gopkg.in/yaml.v3"
)

// ItemsFile is the input of assign and pack: the items a build would hand
// over, plus optional package metadata. JSON is accepted as well since it
// is a subset of YAML.
//
//	package:
//	  Id: Sample
//	  Version: 1.0.0
//	items:
//	  - spec: bin/Sample.dll
//	    metadata: {Kind: Lib, TargetFrameworkMoniker: ".NETFramework,Version=v4.5"}
//
// A bare list of items is accepted too.
type ItemsFile struct {
	Package map[string]string `yaml:"package"`
	Items   []pack.Item       `yaml:"items"`
}

// LoadItems reads an items file. Items without FullPath get one resolved
// against the directory of the file, so relative specs work from anywhere.
func LoadItems(path string) (*ItemsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse items %s: %w", path, err)
	}

	file := &ItemsFile{}
	if len(root.Content) > 0 {
		doc := root.Content[0]
		if doc.Kind == yaml.SequenceNode {
			err = doc.Decode(&file.Items)
		} else {
			err = doc.Decode(file)
		}
		if err != nil {
			return nil, fmt.Errorf("parse items %s: %w", path, err)
		}
	}

	base := filepath.Dir(path)
	for i, item := range file.Items {
		if item.ItemSpec == "" {
			return nil, fmt.Errorf("parse items %s: item %d has no spec", path, i)
		}
		if !item.Has(pack.MetadataFullPath) && !filepath.IsAbs(item.ItemSpec) {
			file.Items[i] = item.With(pack.MetadataFullPath, filepath.Join(base, filepath.FromSlash(item.ItemSpec)))
		}
	}
	return file, nil
}
