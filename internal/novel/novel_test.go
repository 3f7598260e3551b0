package novel_test

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/MrWong99/scriptvox/internal/novel"
)

func TestLoadFromReader(t *testing.T) {
	t.Parallel()

	input := "\ufeff  朝が来た。 \n\n「おはよう」\r\n太郎は言った。"
	n, err := novel.LoadFromReader(strings.NewReader(input), "/books/01_start.txt")
	if err != nil {
		t.Fatalf("LoadFromReader: unexpected error: %v", err)
	}
	want := []string{"朝が来た。", "", "「おはよう」", "太郎は言った。"}
	if got := n.Lines(); !slices.Equal(got, want) {
		t.Errorf("Lines = %q, want %q", got, want)
	}
	if n.Stem != "01_start" {
		t.Errorf("Stem = %q, want 01_start", n.Stem)
	}
	for i, s := range n.Sentences {
		if s.Narrator != nil {
			t.Errorf("sentence %d pre-attributed", i)
		}
	}
}

func TestLoadFromReader_LongLine(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("あ", 100_000)
	n, err := novel.LoadFromReader(strings.NewReader(long), "long.txt")
	if err != nil {
		t.Fatalf("LoadFromReader: unexpected error: %v", err)
	}
	if len(n.Sentences) != 1 || n.Sentences[0].Text != long {
		t.Error("long line not read intact")
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "chapter.txt")
	if err := os.WriteFile(path, []byte("一行目\n二行目\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := novel.Load(path)
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if len(n.Sentences) != 2 || n.Path != path {
		t.Errorf("novel = %+v", n)
	}

	if _, err := novel.Load(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNaturalCompare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"2.txt", "10.txt", -1},
		{"10.txt", "2.txt", 1},
		{"ch1.txt", "ch1.txt", 0},
		{"ch2-3.txt", "ch2-10.txt", -1},
		{"a.txt", "b.txt", -1},
		{"07.txt", "7.txt", 1},
		{"abc", "ab", 1},
		{"第2話.txt", "第10話.txt", -1},
		{"99999999999999999999999.txt", "100000000000000000000000.txt", -1},
	}
	for _, tc := range tests {
		if got := novel.NaturalCompare(tc.a, tc.b); got != tc.want {
			t.Errorf("NaturalCompare(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestListCorpus(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"10.txt", "2.txt", "1.txt", "notes.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "3.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := novel.ListCorpus(dir, "")
	if err != nil {
		t.Fatalf("ListCorpus: unexpected error: %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	if want := []string{"1.txt", "2.txt", "10.txt"}; !slices.Equal(names, want) {
		t.Errorf("ListCorpus = %v, want %v", names, want)
	}

	single, err := novel.ListCorpus(filepath.Join(dir, "2.txt"), "")
	if err != nil || len(single) != 1 {
		t.Errorf("single file: %v, %v", single, err)
	}

	if _, err := novel.ListCorpus(filepath.Join(dir, "missing"), ""); err == nil {
		t.Error("expected error for missing path")
	}
}
