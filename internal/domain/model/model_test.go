package model

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/searchsync/internal/domain"
	"github.com/kailas-cloud/searchsync/internal/domain/record"
)

func TestTypeTags(t *testing.T) {
	base := Type{Name: "Post", Base: true}
	if got := base.TypeTags(); !reflect.DeepEqual(got, []string{"", "Post"}) {
		t.Errorf("base tags: %v", got)
	}
	if !base.MatchesTag("") || !base.MatchesTag("Post") || base.MatchesTag("Video") {
		t.Error("base type tag matching is wrong")
	}

	sub := Type{Name: "Video"}
	if got := sub.TypeTags(); !reflect.DeepEqual(got, []string{"Video"}) {
		t.Errorf("subtype tags: %v", got)
	}
	if sub.MatchesTag("") {
		t.Error("subtype must not match untagged records")
	}
}

func TestStorageCollection(t *testing.T) {
	if c := (Type{Name: "Article"}).StorageCollection(); c != "article" {
		t.Errorf("expected article, got %q", c)
	}
	if c := (Type{Name: "Video", Collection: "posts"}).StorageCollection(); c != "posts" {
		t.Errorf("expected posts, got %q", c)
	}
}

func TestRelationProjection(t *testing.T) {
	if (Relation{Fields: Attrs("name")}).Projection() != SingleField {
		t.Error("one field must be SingleField")
	}
	if (Relation{Fields: Attrs("name", "email")}).Projection() != MultiField {
		t.Error("two fields must be MultiField")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		wantErr bool
	}{
		{"valid", Type{Name: "Article", Fields: Attrs("title", "body")}, false},
		{"bad name", Type{Name: "has space"}, true},
		{"reserved id", Type{Name: "Article", Fields: Attrs("id")}, true},
		{"duplicate field", Type{Name: "Article", Fields: Attrs("title", "title")}, true},
		{"empty field", Type{Name: "Article", Fields: Attrs("")}, true},
		{
			"relation collides with field",
			Type{Name: "Article", Fields: Attrs("author"), Relations: []Relation{{Name: "author", Fields: Attrs("name")}}},
			true,
		},
		{"relation without fields", Type{Name: "Article", Relations: []Relation{{Name: "author"}}}, true},
		{"relation bad kind", Type{Name: "Article", Relations: []Relation{{Name: "a", Kind: 9, Fields: Attrs("x")}}}, true},
		{
			"embedded valid",
			Type{Name: "Comment", Fields: Attrs("text"), EmbeddedIn: &Embedding{"Article", "comments", "article"}},
			false,
		},
		{"embedded incomplete", Type{Name: "Comment", EmbeddedIn: &Embedding{ParentType: "Article"}}, true},
		{"embedded in itself", Type{Name: "Comment", EmbeddedIn: &Embedding{"Comment", "replies", "comment"}}, true},
		{
			"embedded field collides with fk",
			Type{Name: "Comment", Fields: Attrs("article_id"), EmbeddedIn: &Embedding{"Article", "comments", "article"}},
			true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.typ.Validate()
			if tc.wantErr && !errors.Is(err, domain.ErrInvalidSchema) {
				t.Errorf("expected ErrInvalidSchema, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseRelationKind(t *testing.T) {
	if k, err := ParseRelationKind("many"); err != nil || k != ToMany {
		t.Errorf("many: %v %v", k, err)
	}
	if k, err := ParseRelationKind(""); err != nil || k != ToOne {
		t.Errorf("default: %v %v", k, err)
	}
	if _, err := ParseRelationKind("few"); !errors.Is(err, domain.ErrInvalidSchema) {
		t.Errorf("expected ErrInvalidSchema, got %v", err)
	}
	if ToMany.String() != "many" {
		t.Errorf("unexpected String: %s", ToMany)
	}
}

func TestPathAccessor(t *testing.T) {
	rec := record.New("1", "", map[string]any{
		"stats": map[string]any{"views": 10},
		"flat":  "x",
	})

	v, err := PathAccessor("stats.views")(&rec)
	if err != nil || v != 10 {
		t.Errorf("expected 10, got %v (%v)", v, err)
	}
	if _, err := PathAccessor("stats.likes")(&rec); err == nil {
		t.Error("expected error for missing key")
	}
	if _, err := PathAccessor("flat.deeper")(&rec); err == nil {
		t.Error("expected error for non-object")
	}
}

func TestBuiltinAccessor(t *testing.T) {
	parent := record.New("p1", "", nil)
	child := record.NewEmbedded(&parent, "comments", "c1", "Comment", nil)

	tag, _ := BuiltinAccessor(BuiltinTypeTag)
	if v, _ := tag(&child); v != "Comment" {
		t.Errorf("type_tag: %v", v)
	}
	pid, _ := BuiltinAccessor(BuiltinParentID)
	if v, _ := pid(&child); v != "p1" {
		t.Errorf("parent_id: %v", v)
	}
	if _, err := pid(&parent); err == nil {
		t.Error("parent_id on top-level record must fail")
	}
	emb, _ := BuiltinAccessor(BuiltinEmbedded)
	if v, _ := emb(&child); v != true {
		t.Errorf("embedded: %v", v)
	}
	if _, err := BuiltinAccessor("nope"); !errors.Is(err, domain.ErrInvalidSchema) {
		t.Errorf("expected ErrInvalidSchema, got %v", err)
	}
}
