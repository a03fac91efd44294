package source

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrFileNotFound is returned by LoadFromDisk when the path cannot be read.
var ErrFileNotFound = errors.New("source: file not found")

// Manager owns every Buffer loaded during one compilation and is the
// authority used to break @import cycles (see pkg/directive).
type Manager struct {
	buffers map[string]*Buffer
}

// NewManager constructs an empty Manager.
func NewManager() *Manager {
	return &Manager{buffers: make(map[string]*Buffer)}
}

// LoadFromDisk reads path, registers the resulting Buffer under its
// absolute path, and returns it. A previously-loaded absolute path returns
// the cached Buffer rather than re-reading the file.
func (m *Manager) LoadFromDisk(path string) (*Buffer, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, ErrFileNotFound
	}
	if existing, ok := m.buffers[abs]; ok {
		return existing, nil
	}
	bytes, err := os.ReadFile(abs)
	if err != nil {
		return nil, ErrFileNotFound
	}
	buf := NewBuffer(abs, bytes)
	m.buffers[abs] = buf
	return buf, nil
}

// LoadFromMemory always succeeds, registering a Buffer under the given tag.
func (m *Manager) LoadFromMemory(bytes []byte, name string) *Buffer {
	buf := NewBuffer(name, bytes)
	m.buffers[name] = buf
	return buf
}

// Has reports whether the given absolute path has already been loaded.
func (m *Manager) Has(absPath string) bool {
	_, ok := m.buffers[absPath]
	return ok
}

// Map is a generic offset-keyed map from AST nodes (or any comparable key)
// to the Range of source they were parsed from, mirroring sexp.SourceMap[T].
type Map[T comparable] struct {
	mapping map[T]Range
}

// NewMap constructs an empty source map.
func NewMap[T comparable]() *Map[T] {
	return &Map[T]{mapping: make(map[T]Range)}
}

// Put records the source range a node was parsed from.
func (m *Map[T]) Put(key T, r Range) { m.mapping[key] = r }

// Get returns the range recorded for key, and whether one was found.
func (m *Map[T]) Get(key T) (Range, bool) {
	r, ok := m.mapping[key]
	return r, ok
}
