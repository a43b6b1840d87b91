package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/luminous-foundation/rasm/pkg/asm"
)

// MaxDiskBytes caps the total size of a loaded source tree (16MB).
const MaxDiskBytes = 16 << 20

// SourceExt is the extension of assembly sources. Bare module names only
// resolve to files with this extension.
const SourceExt = ".rasm"

// validPath accepts slash-separated relative paths of plain segments.
var validPath = regexp.MustCompile(`^[a-zA-Z0-9_\-]+(\.[a-zA-Z0-9_\-]+)*(/[a-zA-Z0-9_\-]+(\.[a-zA-Z0-9_\-]+)*)*$`)

var (
	ErrFileNotFound    = errors.New("file not found")
	ErrInvalidFilename = errors.New("invalid filename")
	ErrQuotaExceeded   = errors.New("disk quota exceeded")
	ErrAmbiguous       = errors.New("ambiguous module name")
)

type FileEntry struct {
	Data     []byte
	Created  time.Time
	Modified time.Time
}

// Disk is an in-memory source tree keyed by slash-separated relative path.
// It resolves include directives for the assembler and collects outputs
// before they are persisted.
type Disk struct {
	Mu         sync.RWMutex
	Files      map[string]*FileEntry
	DirtyFiles map[string]bool
	UsedBytes  int
	Dirty      bool
}

func NewDisk() *Disk {
	return &Disk{
		Files:      make(map[string]*FileEntry),
		DirtyFiles: make(map[string]bool),
	}
}

// Clean normalizes name into a disk key and validates it.
func Clean(name string) (string, error) {
	p := path.Clean(filepath.ToSlash(name))
	p = strings.TrimPrefix(p, "./")
	if !validPath.MatchString(p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return p, nil
}

// Write stores a copy of data under filename, replacing any previous
// content.
func (d *Disk) Write(filename string, data []byte) error {
	key, err := Clean(filename)
	if err != nil {
		return err
	}

	d.Mu.Lock()
	defer d.Mu.Unlock()

	oldSize := 0
	entry := d.Files[key]
	if entry != nil {
		oldSize = len(entry.Data)
	}
	if d.UsedBytes-oldSize+len(data) > MaxDiskBytes {
		return ErrQuotaExceeded
	}

	if entry == nil {
		entry = &FileEntry{Created: time.Now()}
		d.Files[key] = entry
	}
	entry.Data = append([]byte(nil), data...)
	entry.Modified = time.Now()

	d.DirtyFiles[key] = true
	d.UsedBytes += len(data) - oldSize
	d.Dirty = true
	return nil
}

func (d *Disk) Read(filename string) ([]byte, error) {
	key, err := Clean(filename)
	if err != nil {
		return nil, err
	}

	d.Mu.RLock()
	defer d.Mu.RUnlock()

	entry, ok := d.Files[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, key)
	}
	return entry.Data, nil
}

func (d *Disk) Delete(filename string) error {
	key, err := Clean(filename)
	if err != nil {
		return err
	}

	d.Mu.Lock()
	defer d.Mu.Unlock()

	entry, ok := d.Files[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrFileNotFound, key)
	}
	d.UsedBytes -= len(entry.Data)
	delete(d.Files, key)

	// Removed from the host on the next PersistTo.
	d.DirtyFiles[key] = true
	d.Dirty = true
	return nil
}

// List returns every path on the disk, sorted.
func (d *Disk) List() []string {
	d.Mu.RLock()
	defer d.Mu.RUnlock()

	keys := make([]string, 0, len(d.Files))
	for k := range d.Files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadFrom walks dir recursively and loads every file whose extension is
// one of exts (all files when exts is empty). Loaded files are not dirty.
// Files whose relative path is not a valid disk path are skipped.
func (d *Disk) LoadFrom(dir string, exts ...string) error {
	return filepath.WalkDir(dir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if p != dir && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !hasExt(p, exts) {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		key, err := Clean(rel)
		if err != nil {
			return nil
		}
		raw, err := os.ReadFile(p)
		if err != nil {
			return err
		}

		fileEntry := &FileEntry{Data: raw, Created: time.Now(), Modified: time.Now()}
		if info, err := entry.Info(); err == nil {
			fileEntry.Created = info.ModTime()
			fileEntry.Modified = info.ModTime()
		}

		d.Mu.Lock()
		defer d.Mu.Unlock()
		if d.UsedBytes+len(raw) > MaxDiskBytes {
			return ErrQuotaExceeded
		}
		d.Files[key] = fileEntry
		d.UsedBytes += len(raw)
		return nil
	})
}

func hasExt(p string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	for _, ext := range exts {
		if strings.EqualFold(filepath.Ext(p), ext) {
			return true
		}
	}
	return false
}

// PersistTo writes every dirty file under dir, creating directories as
// needed, and removes files deleted since the last persist. It returns the
// first error encountered.
func (d *Disk) PersistTo(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Snapshot under the lock, then do the I/O without it.
	d.Mu.Lock()
	snapshot := make(map[string][]byte)
	var deleted []string
	for name := range d.DirtyFiles {
		if entry, ok := d.Files[name]; ok {
			snapshot[name] = append([]byte(nil), entry.Data...)
		} else {
			deleted = append(deleted, name)
		}
		delete(d.DirtyFiles, name)
	}
	d.Dirty = false
	d.Mu.Unlock()

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, name := range deleted {
		if err := os.Remove(filepath.Join(dir, filepath.FromSlash(name))); err != nil && !os.IsNotExist(err) {
			keep(err)
		}
	}

	for name, data := range snapshot {
		full := filepath.Join(dir, filepath.FromSlash(name))
		err := os.MkdirAll(filepath.Dir(full), 0755)
		if err == nil {
			err = os.WriteFile(full, data, 0644)
		}
		if err != nil {
			d.Mu.Lock()
			d.DirtyFiles[name] = true
			d.Dirty = true
			d.Mu.Unlock()
			keep(err)
		}
	}
	return firstErr
}

// Resolve implements asm.Resolver. A quoted target is a path, tried first
// relative to the directory of from and then relative to the disk root. A
// bare target is a module name matching any source file with that base name.
func (d *Disk) Resolve(from, target string, quoted bool) (asm.Source, error) {
	var key string
	var err error
	if quoted {
		key, err = d.resolvePath(from, target)
	} else {
		key, err = d.resolveName(target)
	}
	if err != nil {
		return asm.Source{}, err
	}

	data, err := d.Read(key)
	if err != nil {
		return asm.Source{}, err
	}
	base := path.Base(key)
	return asm.Source{
		Name: strings.TrimSuffix(base, path.Ext(base)),
		Path: key,
		Data: data,
	}, nil
}

func (d *Disk) resolvePath(from, target string) (string, error) {
	candidates := []string{path.Join(path.Dir(filepath.ToSlash(from)), target), target}

	d.Mu.RLock()
	defer d.Mu.RUnlock()
	for _, c := range candidates {
		key, err := Clean(c)
		if err != nil {
			continue
		}
		if _, ok := d.Files[key]; ok {
			return key, nil
		}
	}
	if _, err := Clean(target); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w: %s", ErrFileNotFound, target)
}

func (d *Disk) resolveName(name string) (string, error) {
	d.Mu.RLock()
	defer d.Mu.RUnlock()

	var matches []string
	for key := range d.Files {
		base := path.Base(key)
		if path.Ext(base) == SourceExt && strings.TrimSuffix(base, SourceExt) == name {
			matches = append(matches, key)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: no module named %s", ErrFileNotFound, name)
	case 1:
		return matches[0], nil
	}
	sort.Strings(matches)
	return "", fmt.Errorf("%w: %s matches %s", ErrAmbiguous, name, strings.Join(matches, ", "))
}
