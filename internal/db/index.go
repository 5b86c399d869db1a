package db

import (
	"errors"
	"fmt"
	"strings"
)

// IndexDefinition is everything sent when a search index is created.
type IndexDefinition struct {
	Name     string
	Mappings map[string]any // type name -> mapping fragment
	Settings map[string]any
}

// Body returns the create request body. Settings are included only when set.
func (idx *IndexDefinition) Body() map[string]any {
	mappings := idx.Mappings
	if mappings == nil {
		mappings = map[string]any{}
	}
	body := map[string]any{"mappings": mappings}
	if len(idx.Settings) > 0 {
		body["settings"] = idx.Settings
	}
	return body
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIndexName(idx.Name) {
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	}
	for typ := range idx.Mappings {
		if typ == "" {
			return errors.New("mapping type name is required")
		}
	}
	return nil
}

// IsValidIndexName reports whether s is usable as a search index name:
// lower-case, no path or wildcard characters, not starting with -, _ or +.
func IsValidIndexName(s string) bool {
	if s == "" || s == "." || s == ".." || len(s) > 255 {
		return false
	}
	if strings.ContainsAny(s[:1], "-_+") {
		return false
	}
	for _, r := range s {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == '-' || r == '.' || r == '+'
		if !isLower && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
