package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const defaultFileMode fs.FileMode = 0o644

var (
	// ErrInvalidPath indicates a name that is absolute or escapes the root.
	ErrInvalidPath = errors.New("path must be relative to the project root")
)

// FileSystem is the file access capability used by the rewriter and the
// artifact generator. Names are slash-separated and relative to a root.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
	Exists(name string) (bool, error)
}

// DirFileSystem operates on files below a root directory on disk.
// Writes go through a temporary sibling file and a rename so readers never
// observe a partially written file.
type DirFileSystem struct {
	root string
}

// NewDirFileSystem returns a FileSystem rooted at dir.
func NewDirFileSystem(dir string) *DirFileSystem {
	return &DirFileSystem{root: dir}
}

// ReadFile returns the content of name below the root.
func (d *DirFileSystem) ReadFile(name string) ([]byte, error) {
	full, err := d.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Exists reports whether name is a regular file below the root.
func (d *DirFileSystem) Exists(name string) (bool, error) {
	full, err := d.resolve(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", name)
	}
	return true, nil
}

// WriteFile atomically replaces name with data, keeping the mode of an
// existing file.
func (d *DirFileSystem) WriteFile(name string, data []byte) error {
	full, err := d.resolve(name)
	if err != nil {
		return err
	}

	mode := defaultFileMode
	if info, err := os.Stat(full); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(full)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, full); err != nil {
		cleanup()
		return err
	}
	return nil
}

func (d *DirFileSystem) resolve(name string) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(clean)), nil
}

// MemoryFileSystem keeps files in-memory and guards access with a RWMutex.
// Read and write failures can be injected per path.
type MemoryFileSystem struct {
	mu         sync.RWMutex
	files      map[string][]byte
	writes     map[string]int
	readFails  map[string]error
	writeFails map[string]error
}

// NewMemoryFileSystem initialises a file system holding a copy of files.
func NewMemoryFileSystem(files map[string]string) *MemoryFileSystem {
	m := &MemoryFileSystem{
		files:      make(map[string][]byte, len(files)),
		writes:     make(map[string]int),
		readFails:  make(map[string]error),
		writeFails: make(map[string]error),
	}
	for name, content := range files {
		m.files[path.Clean(name)] = []byte(content)
	}
	return m
}

// FailRead makes every subsequent read of name return err.
func (m *MemoryFileSystem) FailRead(name string, err error) {
	m.mu.Lock()
	m.readFails[path.Clean(name)] = err
	m.mu.Unlock()
}

// FailWrite makes every subsequent write of name return err.
func (m *MemoryFileSystem) FailWrite(name string, err error) {
	m.mu.Lock()
	m.writeFails[path.Clean(name)] = err
	m.mu.Unlock()
}

// ReadFile returns a copy of the content of name.
func (m *MemoryFileSystem) ReadFile(name string) ([]byte, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.readFails[clean]; err != nil {
		return nil, &fs.PathError{Op: "read", Path: clean, Err: err}
	}
	data, ok := m.files[clean]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: clean, Err: fs.ErrNotExist}
	}
	return cloneBytes(data), nil
}

// WriteFile stores a copy of data as name.
func (m *MemoryFileSystem) WriteFile(name string, data []byte) error {
	clean, err := cleanName(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writeFails[clean]; err != nil {
		return &fs.PathError{Op: "write", Path: clean, Err: err}
	}
	m.files[clean] = cloneBytes(data)
	m.writes[clean]++
	return nil
}

// Exists reports whether name is held in memory.
func (m *MemoryFileSystem) Exists(name string) (bool, error) {
	clean, err := cleanName(name)
	if err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.files[clean]
	return ok, nil
}

// Content returns the current content of name and whether it exists.
func (m *MemoryFileSystem) Content(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[path.Clean(name)]
	return string(data), ok
}

// Writes reports how many successful writes name has received.
func (m *MemoryFileSystem) Writes(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.writes[path.Clean(name)]
}

// DryRunFileSystem reads through to a base file system and records writes
// without applying them.
type DryRunFileSystem struct {
	base FileSystem

	mu      sync.Mutex
	pending map[string][]byte
}

// NewDryRunFileSystem wraps base so that no write reaches it.
func NewDryRunFileSystem(base FileSystem) *DryRunFileSystem {
	return &DryRunFileSystem{base: base, pending: make(map[string][]byte)}
}

// ReadFile reads name from the wrapped file system.
func (d *DryRunFileSystem) ReadFile(name string) ([]byte, error) {
	return d.base.ReadFile(name)
}

// Exists checks name on the wrapped file system.
func (d *DryRunFileSystem) Exists(name string) (bool, error) {
	return d.base.Exists(name)
}

// WriteFile records name as pending and discards data.
func (d *DryRunFileSystem) WriteFile(name string, data []byte) error {
	clean, err := cleanName(name)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.pending[clean] = cloneBytes(data)
	d.mu.Unlock()
	return nil
}

// Pending returns the sorted names of files that would have been written.
func (d *DryRunFileSystem) Pending() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.pending))
	for name := range d.pending {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cleanName(name string) (string, error) {
	if name == "" || path.IsAbs(name) || filepath.IsAbs(name) {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidPath)
	}
	clean := path.Clean(filepath.ToSlash(name))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidPath)
	}
	return clean, nil
}

func cloneBytes(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)
	return out
}
