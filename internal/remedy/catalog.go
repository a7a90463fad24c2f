// Package remedy holds the localized disease, remedy and medicine text for every
// label the classifier can emit.
package remedy

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v2"
)

const (
	DefaultLanguage = "en"

	noRemedy   = "No remedy info available."
	noMedicine = "N/A"
)

//go:embed remedies.yaml
var defaultCatalog []byte

type Record struct {
	Disease  string `yaml:"disease" json:"disease"`
	Remedy   string `yaml:"remedy" json:"remedy"`
	Medicine string `yaml:"medicine" json:"medicine"`
}

// Fallback is returned for any (label, language) pair the catalog has no entry for.
func Fallback(label string) Record {
	return Record{
		Disease:  label,
		Remedy:   noRemedy,
		Medicine: noMedicine,
	}
}

// Catalog is read-only once constructed and safe for concurrent lookups.
type Catalog struct {
	entries map[string]map[string]Record
}

func New(entries map[string]map[string]Record) *Catalog {
	copied := make(map[string]map[string]Record, len(entries))
	for label, langs := range entries {
		byLang := make(map[string]Record, len(langs))
		for lang, rec := range langs {
			byLang[lang] = rec
		}
		copied[label] = byLang
	}
	return &Catalog{entries: copied}
}

func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open remedy catalog: %w", err)
	}
	defer f.Close()

	return Load(f)
}

func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read remedy catalog: %w", err)
	}

	var entries map[string]map[string]Record
	if err := yaml.UnmarshalStrict(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse remedy catalog: %w", err)
	}

	return New(entries), nil
}

func (c *Catalog) Lookup(label, lang string) Record {
	if rec, ok := c.entries[label][lang]; ok {
		return rec
	}
	return Fallback(label)
}

func (c *Catalog) Labels() []string {
	labels := make([]string, 0, len(c.entries))
	for label := range c.entries {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Missing reports every "label/lang" pair that would be answered with the fallback.
func (c *Catalog) Missing(labels, langs []string) []string {
	var gaps []string
	for _, label := range labels {
		for _, lang := range langs {
			if _, ok := c.entries[label][lang]; !ok {
				gaps = append(gaps, label+"/"+lang)
			}
		}
	}
	return gaps
}
