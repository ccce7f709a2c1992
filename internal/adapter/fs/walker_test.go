package fs

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func relPaths(t *testing.T, root string, w *Walker) []string {
	t.Helper()
	files, err := w.Walk(root)
	if err != nil {
		t.Fatal(err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		t.Fatal(err)
	}
	var out []string
	for _, f := range files {
		rel, err := filepath.Rel(abs, f.Path)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestWalkerIncludesAndExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "doc1.pdf", "%PDF")
	writeFile(t, root, "notes/fever.md", "# Fever")
	writeFile(t, root, "notes/readme.txt", "text")
	writeFile(t, root, "notes/image.png", "png")
	writeFile(t, root, ".rag/index.db", "db")
	writeFile(t, root, "archive/old.txt", "old")

	w := NewWalker(
		[]string{"**/*.pdf", "**/*.md", "**/*.txt"},
		[]string{"**/.rag/**", "archive/**"},
	)

	got := relPaths(t, root, w)
	want := []string{"doc1.pdf", "notes/fever.md", "notes/readme.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Walk() = %v, want %v", got, want)
	}
}

func TestWalkerDefaultIncludesEverything(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")
	writeFile(t, root, "b/c.bin", "c")

	got := relPaths(t, root, NewWalker(nil, nil))
	want := []string{"a.txt", "b/c.bin"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Walk() = %v, want %v", got, want)
	}
}

func TestWalkerReportsSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "12345")

	files, err := NewWalker(nil, nil).Walk(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Size != 5 || files[0].ModTime == 0 {
		t.Errorf("unexpected file info: %+v", files)
	}
}

func TestWalkerMissingRoot(t *testing.T) {
	if _, err := NewWalker(nil, nil).Walk(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing root")
	}
}
