package filesystem

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// memoryFileInfo implements fs.FileInfo for in-memory files
type memoryFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (f *memoryFileInfo) Name() string       { return f.name }
func (f *memoryFileInfo) Size() int64        { return f.size }
func (f *memoryFileInfo) Mode() fs.FileMode  { return f.mode }
func (f *memoryFileInfo) ModTime() time.Time { return f.modTime }
func (f *memoryFileInfo) IsDir() bool        { return f.isDir }
func (f *memoryFileInfo) Sys() interface{}   { return nil }

// memoryFile implements File for in-memory files
type memoryFile struct {
	absPath string
	content []byte
	info    fs.FileInfo
	relPath string
}

func (f *memoryFile) Path() string         { return f.absPath }
func (f *memoryFile) RelativePath() string { return f.relPath }
func (f *memoryFile) Info() FileInfo       { return f.info }

// MemoryFileSystem implements Provider in memory. Relative paths are taken
// relative to the root given at construction.
type MemoryFileSystem struct {
	mu    sync.RWMutex
	files map[string]*memoryFile
	root  string
}

// NewMemoryFileSystem creates a new in-memory filesystem.
// The root path is normalized to use forward slashes.
func NewMemoryFileSystem(root string) *MemoryFileSystem {
	root = path.Clean(filepath.ToSlash(root))
	mfs := &MemoryFileSystem{
		files: make(map[string]*memoryFile),
		root:  root,
	}
	mfs.files[root] = newMemoryDir(root)
	return mfs
}

func newMemoryDir(abs string) *memoryFile {
	return &memoryFile{
		absPath: abs,
		info: &memoryFileInfo{
			name:    path.Base(abs),
			mode:    0755 | fs.ModeDir,
			modTime: time.Now(),
			isDir:   true,
		},
	}
}

func (mfs *MemoryFileSystem) abs(p string) string {
	p = filepath.ToSlash(p)
	if !path.IsAbs(p) {
		p = path.Join(mfs.root, p)
	}
	return path.Clean(p)
}

// AddFile adds a file to the in-memory filesystem
func (mfs *MemoryFileSystem) AddFile(filePath string, content string) {
	mfs.AddFileWithTime(filePath, content, time.Now())
}

// AddFileWithTime adds a file with a specific modification time
func (mfs *MemoryFileSystem) AddFileWithTime(filePath string, content string, modTime time.Time) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	absPath := mfs.abs(filePath)
	mfs.files[absPath] = &memoryFile{
		absPath: absPath,
		content: []byte(content),
		info: &memoryFileInfo{
			name:    path.Base(absPath),
			size:    int64(len(content)),
			mode:    0644,
			modTime: modTime,
		},
	}
	for dir := path.Dir(absPath); dir != "/" && dir != "."; dir = path.Dir(dir) {
		if _, exists := mfs.files[dir]; exists {
			break
		}
		mfs.files[dir] = newMemoryDir(dir)
	}
}

func (mfs *MemoryFileSystem) ReadFile(filePath string) ([]byte, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	file, exists := mfs.files[mfs.abs(filePath)]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ftmgmt.ErrFileNotFound, filePath)
	}
	if file.info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	return file.content, nil
}

func (mfs *MemoryFileSystem) Stat(statPath string) (FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	file, exists := mfs.files[mfs.abs(statPath)]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ftmgmt.ErrFileNotFound, statPath)
	}
	return file.info, nil
}

func (mfs *MemoryFileSystem) Exists(p string) bool {
	_, err := mfs.Stat(p)
	return err == nil
}

func (mfs *MemoryFileSystem) Walk(root string, fn func(File, error) error) error {
	mfs.mu.RLock()
	base := mfs.abs(root)
	var entries []*memoryFile
	for p, f := range mfs.files {
		if p == base || base == "/" || strings.HasPrefix(p, base+"/") {
			entries = append(entries, f)
		}
	}
	mfs.mu.RUnlock()

	if len(entries) == 0 {
		return fmt.Errorf("%w: %s", ftmgmt.ErrFileNotFound, root)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].absPath < entries[j].absPath
	})

	for _, entry := range entries {
		rel := strings.TrimPrefix(strings.TrimPrefix(entry.absPath, base), "/")
		if rel == "" {
			rel = "."
		}
		visit := &memoryFile{absPath: entry.absPath, info: entry.info, relPath: rel}

		var callbackErr error
		func() {
			defer func() {
				if r := recover(); r != nil {
					callbackErr = fmt.Errorf("walk callback panicked at %s: %v", entry.absPath, r)
				}
			}()
			callbackErr = fn(visit, nil)
		}()
		if callbackErr != nil {
			return callbackErr
		}
	}
	return nil
}
