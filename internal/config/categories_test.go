package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCategoriesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "categories.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadCategoryFile(t *testing.T) {
	path := writeCategoriesFile(t, `
categories:
  - name: toxic
    description: insults or demeans another person
    target_positive: 10
    target_negative: 5
  - name: spam
    description: unsolicited advertising
    target_positive: 3
    target_negative: 3
`)
	cf, err := LoadCategoryFile(path)
	if err != nil {
		t.Fatalf("LoadCategoryFile: %v", err)
	}
	if len(cf.Categories) != 2 {
		t.Fatalf("categories = %d, want 2", len(cf.Categories))
	}
	first := cf.Categories[0]
	if first.Name != "toxic" || first.TargetPositive != 10 || first.TargetNegative != 5 {
		t.Errorf("first category = %+v, want toxic 10/5", first)
	}
}

func TestLoadCategoryFileMissing(t *testing.T) {
	if _, err := LoadCategoryFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file must error")
	}
}

func TestCategoryFileValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"empty set", `categories: []`, "no categories"},
		{"empty name", "categories:\n  - description: d", "empty name"},
		{"missing description", "categories:\n  - name: x", "no description"},
		{"duplicate name", "categories:\n  - name: x\n    description: d\n  - name: x\n    description: e", "duplicate"},
		{"negative target", "categories:\n  - name: x\n    description: d\n    target_positive: -1", "negative targets"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCategoriesFile(t, tt.content)
			_, err := LoadCategoryFile(path)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestAppendCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")

	entry := CategoryEntry{Name: "toxic", Description: "insults", TargetPositive: 5, TargetNegative: 5}
	if err := AppendCategory(path, entry); err != nil {
		t.Fatalf("AppendCategory: %v", err)
	}
	// Appending the same name again (any case) is a no-op.
	if err := AppendCategory(path, CategoryEntry{Name: "TOXIC", Description: "other"}); err != nil {
		t.Fatalf("AppendCategory duplicate: %v", err)
	}
	if err := AppendCategory(path, CategoryEntry{Name: "spam", Description: "ads"}); err != nil {
		t.Fatalf("AppendCategory second: %v", err)
	}

	cf, err := LoadCategoryFile(path)
	if err != nil {
		t.Fatalf("LoadCategoryFile: %v", err)
	}
	if len(cf.Categories) != 2 {
		t.Fatalf("categories = %d, want 2", len(cf.Categories))
	}
	if cf.Categories[0].Description != "insults" {
		t.Errorf("duplicate append overwrote the original description: %q", cf.Categories[0].Description)
	}
}

func TestAppendCategoryRejectsBlank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	if err := AppendCategory(path, CategoryEntry{Name: " ", Description: "d"}); err == nil {
		t.Error("blank name must be rejected")
	}
	if err := AppendCategory(path, CategoryEntry{Name: "x", Description: ""}); err == nil {
		t.Error("blank description must be rejected")
	}
}
