package roster_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/scriptvox/internal/roster"
)

const snapshotYAML = `
narrators:
  - name: 田中太郎
    aliases: [太郎, タロ]
    gender: 男性
    portrait: 主人公の高校生
  - name: 佐藤花子
    gender: female
`

func TestLoadFromReader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantErr   bool
		wantCount int
	}{
		{name: "valid snapshot", input: snapshotYAML, wantCount: 2},
		{name: "empty document", input: "", wantCount: 0},
		{name: "empty list", input: "narrators: []\n", wantCount: 0},
		{name: "unknown field", input: "narrators:\n  - name: A\n    age: 12\n", wantErr: true},
		{name: "unknown top-level key", input: "characters: []\n", wantErr: true},
		{name: "malformed yaml", input: "narrators: [\n", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r, err := roster.LoadFromReader(strings.NewReader(tc.input))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFromReader: unexpected error: %v", err)
			}
			if len(r) != tc.wantCount {
				t.Errorf("got %d narrators, want %d", len(r), tc.wantCount)
			}
		})
	}
}

func TestLoadFromReader_NormalisesGender(t *testing.T) {
	t.Parallel()

	r, err := roster.LoadFromReader(strings.NewReader(snapshotYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: unexpected error: %v", err)
	}
	if r[0].Gender != roster.GenderMale {
		t.Errorf("Gender = %q, want male", r[0].Gender)
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "roster.yaml")
	want := roster.Roster{
		{Name: "田中太郎", Aliases: []string{"太郎"}, Gender: roster.GenderMale, Portrait: "主人公"},
		{Name: "佐藤花子", Gender: roster.GenderFemale},
	}
	if err := roster.SaveFile(path, want); err != nil {
		t.Fatalf("SaveFile: unexpected error: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	got, err := roster.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "田中太郎" || got[0].Aliases[0] != "太郎" || got[1].Gender != roster.GenderFemale {
		t.Errorf("round trip = %+v", got)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := roster.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "roster: open snapshot") {
		t.Errorf("err = %v, want open error", err)
	}
}
