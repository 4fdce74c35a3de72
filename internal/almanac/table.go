package almanac

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed almanac.yaml
var almanacYAML []byte

type entry struct {
	Saint   string `yaml:"saint"`
	Proverb string `yaml:"proverb"`
}

// Table holds saints and proverbs keyed by "MM-DD".
type Table struct {
	Defaults entry            `yaml:"defaults"`
	Days     map[string]entry `yaml:"days"`
}

// LoadTable parses a YAML almanac table.
func LoadTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse almanac table: %w", err)
	}
	if t.Defaults.Saint == "" {
		t.Defaults.Saint = DefaultSaint
	}
	if t.Defaults.Proverb == "" {
		t.Defaults.Proverb = DefaultProverb
	}
	return &t, nil
}

// DefaultTable returns the embedded table.
func DefaultTable() *Table {
	t, err := LoadTable(almanacYAML)
	if err != nil {
		panic(err) // embedded at build time
	}
	return t
}

// Lookup returns saint and proverb for month/day, falling back field by field to the defaults.
func (t *Table) Lookup(month, day int) (saint, proverb string) {
	e := t.Days[fmt.Sprintf("%02d-%02d", month, day)]
	saint, proverb = e.Saint, e.Proverb
	if saint == "" {
		saint = t.Defaults.Saint
	}
	if proverb == "" {
		proverb = t.Defaults.Proverb
	}
	return saint, proverb
}
