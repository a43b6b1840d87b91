package vfs

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDisk_Write(t *testing.T) {
	tests := []struct {
		name         string
		filename     string
		data         []byte
		initialUsed  int
		expectError  bool
		expectedKey  string
		expectedUsed int
	}{
		{
			name:         "Valid write",
			filename:     "main.rasm",
			data:         []byte{1, 2, 3},
			expectedKey:  "main.rasm",
			expectedUsed: 3,
		},
		{
			name:         "Nested path is normalized",
			filename:     "./lib/io/../std.rasm",
			data:         []byte{1},
			expectedKey:  "lib/std.rasm",
			expectedUsed: 1,
		},
		{
			name:        "Invalid filename special chars",
			filename:    "test!.rasm",
			data:        []byte{1},
			expectError: true,
		},
		{
			name:        "Invalid filename path traversal",
			filename:    "../passwd",
			data:        []byte{1},
			expectError: true,
		},
		{
			name:        "Invalid absolute path",
			filename:    "/etc/passwd",
			data:        []byte{1},
			expectError: true,
		},
		{
			name:        "Quota exceeded",
			filename:    "big.bin",
			data:        make([]byte, MaxDiskBytes+1),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDisk()
			d.UsedBytes = tt.initialUsed
			err := d.Write(tt.filename, tt.data)

			if (err != nil) != tt.expectError {
				t.Fatalf("Write() error = %v, expectError %v", err, tt.expectError)
			}
			if tt.expectError {
				return
			}
			if d.UsedBytes != tt.expectedUsed {
				t.Errorf("UsedBytes = %d, expected %d", d.UsedBytes, tt.expectedUsed)
			}
			stored, ok := d.Files[tt.expectedKey]
			if !ok {
				t.Fatalf("File %s not found in map (have %v)", tt.expectedKey, d.List())
			}
			if !reflect.DeepEqual(stored.Data, tt.data) {
				t.Errorf("Stored data = %v, expected %v", stored.Data, tt.data)
			}
			if stored.Created.IsZero() || stored.Modified.IsZero() {
				t.Errorf("Timestamps not set: Created=%v, Modified=%v", stored.Created, stored.Modified)
			}
		})
	}
}

func TestDisk_Read(t *testing.T) {
	d := NewDisk()
	data := []byte{10, 20, 30}
	if err := d.Write("src/test.rasm", data); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		filename  string
		expectErr error
	}{
		{"Read existing file", "src/test.rasm", nil},
		{"Read with dot prefix", "./src/test.rasm", nil},
		{"Read non-existent file", "missing.rasm", ErrFileNotFound},
		{"Read invalid filename", "../passwd", ErrInvalidFilename},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Read(tt.filename)
			if !errors.Is(err, tt.expectErr) {
				t.Fatalf("Read() error = %v, want %v", err, tt.expectErr)
			}
			if tt.expectErr == nil && !reflect.DeepEqual(got, data) {
				t.Errorf("Read() got = %v, want %v", got, data)
			}
		})
	}
}

func TestDisk_UpdateFileSize(t *testing.T) {
	d := NewDisk()
	filename := "update.rasm"

	if err := d.Write(filename, []byte{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("Initial Write failed: %v", err)
	}
	created := d.Files[filename].Created

	time.Sleep(1 * time.Millisecond)

	if err := d.Write(filename, []byte{1, 2, 3, 4, 5, 6, 7}); err != nil {
		t.Fatalf("Update (larger) failed: %v", err)
	}
	if d.UsedBytes != 7 {
		t.Errorf("UsedBytes after larger update = %d, expected 7", d.UsedBytes)
	}
	entry := d.Files[filename]
	if !entry.Created.Equal(created) {
		t.Error("Created time should not change on update")
	}
	if !entry.Modified.After(entry.Created) {
		t.Error("Modified time should be after Created time after update")
	}

	if err := d.Write(filename, []byte{1, 2}); err != nil {
		t.Fatalf("Update (smaller) failed: %v", err)
	}
	if d.UsedBytes != 2 {
		t.Errorf("UsedBytes after smaller update = %d, expected 2", d.UsedBytes)
	}
}

func TestDisk_DeepCopy(t *testing.T) {
	d := NewDisk()
	data := []byte{1, 2, 3}
	if err := d.Write("mutable.rasm", data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data[0] = 99

	readData, err := d.Read("mutable.rasm")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if readData[0] == 99 {
		t.Error("Write did not perform a deep copy; mutation of source affected stored data")
	}
}

func TestDisk_ListAndDelete(t *testing.T) {
	d := NewDisk()
	for _, name := range []string{"b.rasm", "lib/a.rasm", "a.rasm"} {
		if err := d.Write(name, []byte{1}); err != nil {
			t.Fatal(err)
		}
	}

	expected := []string{"a.rasm", "b.rasm", "lib/a.rasm"}
	if list := d.List(); !reflect.DeepEqual(list, expected) {
		t.Errorf("List = %v, expected %v", list, expected)
	}

	if err := d.Delete("b.rasm"); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if d.UsedBytes != 2 {
		t.Errorf("UsedBytes after delete = %d, expected 2", d.UsedBytes)
	}
	if err := d.Delete("missing.rasm"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Delete missing file error = %v, expected ErrFileNotFound", err)
	}
}

func TestDisk_Persistence(t *testing.T) {
	tempDir := t.TempDir()

	d := NewDisk()
	d.Write("out/main.rbc", []byte{'a'})
	d.Write("lib.rbc", []byte{'b'})
	if !d.Dirty || !d.DirtyFiles["out/main.rbc"] {
		t.Error("written files should be dirty")
	}

	if err := d.PersistTo(tempDir); err != nil {
		t.Fatalf("PersistTo failed: %v", err)
	}
	if len(d.DirtyFiles) != 0 || d.Dirty {
		t.Errorf("disk should be clean after persist, dirty = %v", d.DirtyFiles)
	}

	got, err := os.ReadFile(filepath.Join(tempDir, "out", "main.rbc"))
	if err != nil || string(got) != "a" {
		t.Errorf("out/main.rbc = %q, %v", got, err)
	}

	d.Delete("lib.rbc")
	if err := d.PersistTo(tempDir); err != nil {
		t.Fatalf("PersistTo failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "lib.rbc")); !os.IsNotExist(err) {
		t.Error("lib.rbc should have been deleted")
	}
}

func TestDisk_LoadFrom(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"main.rasm":          "NOP",
		"lib/io.rasm":        "RET",
		"notes.txt":          "ignored",
		".git/config.rasm":   "ignored",
		"lib/bad name!.rasm": "ignored",
		"lib/deep/util.RASM": "NOP",
	}
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	d := NewDisk()
	if err := d.LoadFrom(dir, SourceExt); err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	expected := []string{"lib/deep/util.RASM", "lib/io.rasm", "main.rasm"}
	if list := d.List(); !reflect.DeepEqual(list, expected) {
		t.Errorf("List = %v, expected %v", list, expected)
	}
	if d.Dirty {
		t.Error("loaded files should not be dirty")
	}
}

func TestDisk_Resolve(t *testing.T) {
	d := NewDisk()
	for name, content := range map[string]string{
		"main.rasm":        "main",
		"lib/io.rasm":      "io",
		"lib/main.rasm":    "lib main",
		"std/math.rasm":    "math",
		"vendor/math.rasm": "other math",
		"lib/io.rbc":       "output",
	} {
		if err := d.Write(name, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name      string
		from      string
		target    string
		quoted    bool
		wantPath  string
		wantName  string
		expectErr error
	}{
		{"quoted relative to includer", "lib/io.rasm", "main.rasm", true, "lib/main.rasm", "main", nil},
		{"quoted falls back to root", "lib/io.rasm", "std/math.rasm", true, "std/math.rasm", "math", nil},
		{"quoted from root", "main.rasm", "lib/io.rasm", true, "lib/io.rasm", "io", nil},
		{"quoted parent directory", "lib/io.rasm", "../std/math.rasm", true, "std/math.rasm", "math", nil},
		{"quoted missing", "main.rasm", "nope.rasm", true, "", "", ErrFileNotFound},
		{"bare name", "main.rasm", "io", false, "lib/io.rasm", "io", nil},
		{"bare name missing", "main.rasm", "net", false, "", "", ErrFileNotFound},
		{"bare name ambiguous", "main.rasm", "math", false, "", "", ErrAmbiguous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := d.Resolve(tt.from, tt.target, tt.quoted)
			if !errors.Is(err, tt.expectErr) {
				t.Fatalf("Resolve() error = %v, want %v", err, tt.expectErr)
			}
			if tt.expectErr != nil {
				return
			}
			if src.Path != tt.wantPath || src.Name != tt.wantName {
				t.Errorf("Resolve() = %s (%s), want %s (%s)", src.Path, src.Name, tt.wantPath, tt.wantName)
			}
		})
	}
}
