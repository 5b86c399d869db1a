package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_Simple(t *testing.T) {
	idx := NewIndex("blog").
		Mapping("Article", map[string]any{"properties": map[string]any{}}).
		Mapping("Comment", map[string]any{"_parent": map[string]any{"type": "Article"}}).
		MustBuild()

	if idx.Name != "blog" {
		t.Errorf("name = %q, want blog", idx.Name)
	}
	if len(idx.Mappings) != 2 {
		t.Fatalf("mappings count = %d, want 2", len(idx.Mappings))
	}
	if idx.Settings != nil {
		t.Errorf("settings = %v, want nil", idx.Settings)
	}
	body := idx.Body()
	if _, ok := body["settings"]; ok {
		t.Error("body must not carry empty settings")
	}
	if _, ok := body["mappings"]; !ok {
		t.Error("body must carry mappings")
	}
}

func TestIndexBuilder_Settings(t *testing.T) {
	idx := NewIndex("blog").
		Mappings(map[string]any{"Article": map[string]any{}}).
		Shards(3).
		Replicas(0).
		MustBuild()

	if idx.Settings["number_of_shards"] != 3 {
		t.Errorf("shards = %v, want 3", idx.Settings["number_of_shards"])
	}
	if idx.Settings["number_of_replicas"] != 0 {
		t.Errorf("replicas = %v, want 0", idx.Settings["number_of_replicas"])
	}
	if _, ok := idx.Body()["settings"]; !ok {
		t.Error("body must carry settings")
	}
}

func TestIndexBuilder_SkipsUnsetSettings(t *testing.T) {
	idx := NewIndex("blog").Shards(0).Replicas(-1).MustBuild()
	if len(idx.Settings) != 0 {
		t.Errorf("expected no settings, got %v", idx.Settings)
	}
}

func TestIndexBuilder_EmptyMappingsBody(t *testing.T) {
	idx := NewIndex("blog").MustBuild()
	m, ok := idx.Body()["mappings"].(map[string]any)
	if !ok || len(m) != 0 {
		t.Errorf("expected empty mappings object, got %v", idx.Body()["mappings"])
	}
}

func TestIndexBuilder_Invalid(t *testing.T) {
	tests := []struct {
		name string
	}{
		{""},
		{"Blog"},
		{"_blog"},
		{"-blog"},
		{"blog posts"},
		{"blog/x"},
		{".."},
	}
	for _, tc := range tests {
		if _, err := NewIndex(tc.name).Build(); err == nil {
			t.Errorf("expected error for %q", tc.name)
		}
	}
}

func TestIndexBuilder_MustBuildPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewIndex("").MustBuild()
}

func TestIsValidIndexName(t *testing.T) {
	for _, s := range []string{"blog", "blog-2024.01", "a_b", "x+y", "0"} {
		if !IsValidIndexName(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if IsValidIndexName(strings.Repeat("a", 256)) {
		t.Error("expected overlong name to be invalid")
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx := NewIndex("blog").
		Mapping("Comment", nil).
		Mapping("Article", nil).
		Shards(1).
		MustBuild()

	got := idx.String()
	want := "PUT blog MAPPINGS [Article,Comment] number_of_shards=1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
