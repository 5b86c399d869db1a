package bulk

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/searchsync/internal/domain/document"
)

func TestFragment_TopLevel(t *testing.T) {
	doc := document.New()
	doc.Set("id", "1")
	doc.Set("title", "Hi")

	got, err := Fragment(Action{Index: "blog", Type: "Article", ID: "1"}, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"index":{"_index":"blog","_type":"Article","_id":"1","refresh":true}}` + "\n" +
		`{"id":"1","title":"Hi"}` + "\n"
	if string(got) != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestFragment_WithParent(t *testing.T) {
	doc := map[string]any{"id": "c1"}

	got, err := Fragment(Action{Index: "blog", Type: "Comment", ID: "c1", Parent: "1"}, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	head := strings.SplitN(string(got), "\n", 2)[0]
	want := `{"index":{"_index":"blog","_type":"Comment","_id":"c1","_parent":"1","refresh":true}}`
	if head != want {
		t.Errorf("got %s, want %s", head, want)
	}
}

func TestFragment_DocumentStaysOnOneLine(t *testing.T) {
	got, err := Fragment(Action{Index: "i", Type: "T", ID: "1"}, rawJSON("{\n  \"a\": 1,\r\n  \"b\": 2\r}"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(got), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected exactly two lines, got %d: %q", len(lines), got)
	}
}

// rawJSON marshals to itself, including any newlines.
type rawJSON string

func (r rawJSON) MarshalJSON() ([]byte, error) { return []byte(r), nil }

func TestCollapseNewlines(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"abc", "abc"},
		{"a\nb", "a b"},
		{"a\r\nb", "a b"},
		{"a\rb", "a b"},
		{"a\n\nb", "a  b"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := string(CollapseNewlines([]byte(tc.in))); got != tc.want {
			t.Errorf("CollapseNewlines(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuilder_KeepsAppendOrder(t *testing.T) {
	b := NewBuilder()
	for _, id := range []string{"3", "1", "2", "1"} {
		if err := b.Append(Action{Index: "i", Type: "T", ID: id}, map[string]any{"id": id}); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	if b.Len() != 4 {
		t.Fatalf("expected 4 actions, got %d", b.Len())
	}
	if b.Size() != len(b.Bytes()) {
		t.Errorf("size mismatch: %d vs %d", b.Size(), len(b.Bytes()))
	}

	lines := strings.Split(strings.TrimSuffix(string(b.Bytes()), "\n"), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected 8 lines, got %d", len(lines))
	}
	var ids []string
	for i := 1; i < len(lines); i += 2 {
		ids = append(ids, lines[i])
	}
	want := []string{`{"id":"3"}`, `{"id":"1"}`, `{"id":"2"}`, `{"id":"1"}`}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("line %d: got %s, want %s", i, ids[i], want[i])
		}
	}
}
