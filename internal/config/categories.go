package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CategoryFile is the yaml file defining what to classify for and how many
// matches each scan should collect.
type CategoryFile struct {
	Categories []CategoryEntry `yaml:"categories"`
}

type CategoryEntry struct {
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	TargetPositive int    `yaml:"target_positive"`
	TargetNegative int    `yaml:"target_negative"`
}

// LoadCategoryFile reads and validates the categories file. Validation runs
// here, before any classifier call is ever made.
func LoadCategoryFile(path string) (*CategoryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}
	var cf CategoryFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse categories yaml: %w", err)
	}
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Validate checks the category set as a whole.
func (cf *CategoryFile) Validate() error {
	if len(cf.Categories) == 0 {
		return fmt.Errorf("categories file defines no categories")
	}
	seen := make(map[string]bool, len(cf.Categories))
	for i, c := range cf.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("category #%d has an empty name", i+1)
		}
		if seen[name] {
			return fmt.Errorf("duplicate category name %q", name)
		}
		seen[name] = true
		if strings.TrimSpace(c.Description) == "" {
			return fmt.Errorf("category %q has no description", name)
		}
		if c.TargetPositive < 0 || c.TargetNegative < 0 {
			return fmt.Errorf("category %q has negative targets (%d positive, %d negative)",
				name, c.TargetPositive, c.TargetNegative)
		}
	}
	return nil
}

// AppendCategory adds a category to the file if one with the same name is
// not already present.
func AppendCategory(path string, entry CategoryEntry) error {
	entry.Name = strings.TrimSpace(entry.Name)
	if entry.Name == "" || strings.TrimSpace(entry.Description) == "" {
		return fmt.Errorf("category needs a name and a description")
	}

	var cf CategoryFile
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cf); err != nil {
			return fmt.Errorf("parse existing categories: %w", err)
		}
	}
	for _, c := range cf.Categories {
		if strings.EqualFold(strings.TrimSpace(c.Name), entry.Name) {
			return nil // already exists
		}
	}
	cf.Categories = append(cf.Categories, entry)

	data, err := yaml.Marshal(&cf)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
