package utils

import (
	"path/filepath"
	"testing"
)

func TestSourcePaths(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		input    string
		root     string
		wantRoot string
		wantRel  string
		wantErr  bool
	}{
		{"default root", filepath.Join(dir, "main.rasm"), "", dir, "main.rasm", false},
		{"explicit root", filepath.Join(dir, "src", "main.rasm"), dir, dir, "src/main.rasm", false},
		{"uncleaned input", filepath.Join(dir, "src", "..", "main.rasm"), dir, dir, "main.rasm", false},
		{"outside root", filepath.Join(dir, "main.rasm"), filepath.Join(dir, "src"), "", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root, rel, err := SourcePaths(tc.input, tc.root)
			if (err != nil) != tc.wantErr {
				t.Fatalf("SourcePaths() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if root != tc.wantRoot || rel != tc.wantRel {
				t.Errorf("SourcePaths() = %q, %q; want %q, %q", root, rel, tc.wantRoot, tc.wantRel)
			}
		})
	}
}
