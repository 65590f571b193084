package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

func TestOSFileSystem_ReadFile(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "visits.csv")
	expected := "a,1\nb,2"
	os.WriteFile(filePath, []byte(expected), 0644)

	fs := NewOSFileSystem()

	data, err := fs.ReadFile(filePath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != expected {
		t.Errorf("ReadFile() = %q, want %q", string(data), expected)
	}
}

func TestOSFileSystem_ReadFile_Missing(t *testing.T) {
	fs := NewOSFileSystem()

	_, err := fs.ReadFile(filepath.Join(t.TempDir(), "nonexistent"))
	if !errors.Is(err, ftmgmt.ErrFileNotFound) {
		t.Errorf("ReadFile(nonexistent) error = %v, want ErrFileNotFound", err)
	}
}

func TestOSFileSystem_StatExists(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "a.fits")
	os.WriteFile(filePath, []byte("x"), 0644)

	fs := NewOSFileSystem()

	info, err := fs.Stat(filePath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.IsDir() || info.Size() != 1 {
		t.Errorf("Stat() = dir %v size %d, want file of size 1", info.IsDir(), info.Size())
	}
	if !fs.Exists(dir) || !fs.Exists(filePath) {
		t.Error("Exists() = false for existing paths")
	}
	if fs.Exists(filepath.Join(dir, "b.fits")) {
		t.Error("Exists(missing) = true")
	}
	if _, err := fs.Stat(filepath.Join(dir, "b.fits")); !errors.Is(err, ftmgmt.ErrFileNotFound) {
		t.Errorf("Stat(missing) error = %v, want ErrFileNotFound", err)
	}
}

func TestOSFileSystem_Walk(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "raw"), 0755)
	os.WriteFile(filepath.Join(dir, "raw", "b.fits"), nil, 0644)
	os.WriteFile(filepath.Join(dir, "a.fits.gz"), nil, 0644)
	os.WriteFile(filepath.Join(dir, "readme.md"), nil, 0644)

	got, err := CollectDataFiles(NewOSFileSystem(), []string{dir})
	if err != nil {
		t.Fatalf("CollectDataFiles() error = %v", err)
	}
	want := []string{filepath.Join(dir, "a.fits.gz"), filepath.Join(dir, "raw", "b.fits")}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("CollectDataFiles() = %v, want %v", got, want)
	}
}

func TestOSFileSystem_WalkCallbackError(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.fits"), nil, 0644)

	stop := errors.New("stop")
	err := NewOSFileSystem().Walk(dir, func(File, error) error { return stop })
	if !errors.Is(err, stop) {
		t.Errorf("Walk() error = %v, want stop", err)
	}
}
