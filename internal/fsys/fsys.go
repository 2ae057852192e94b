// Package fsys implements core.Filesystem on the local disk.
package fsys

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/rdogmartin/gallerymeta/core"
)

// OS is the local filesystem. Temp files are created in TempDir, or next to
// the target file when TempDir is empty so Replace stays a same-volume
// rename.
type OS struct {
	TempDir string
}

var _ core.Filesystem = OS{}

func (OS) Open(path string) (core.ReadSeekCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (OS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Stat returns size and timestamps. The creation time is the platform birth
// time where available, else the modification time.
func (OS) Stat(path string) (core.FileStat, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return core.FileStat{}, err
	}
	mod := fi.ModTime()
	created := birthTime(fi)
	if created.IsZero() {
		created = mod
	}
	return core.FileStat{Size: fi.Size(), CreatedAt: created, ModifiedAt: mod}, nil
}

func (OS) OpenReadWrite(path string) (core.ReadWriteSeekCloser, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// CreateTemp creates a uniquely named scratch file for path.
func (o OS) CreateTemp(path string) (core.TempFile, error) {
	dir := o.TempDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	name := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create temp for %s: %w", path, err)
	}
	return f, nil
}

// Replace moves src over dst, keeping dst's permission bits.
func (OS) Replace(src, dst string) error {
	if fi, err := os.Stat(dst); err == nil {
		_ = os.Chmod(src, fi.Mode().Perm())
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("replace %s: %w", dst, err)
	}
	return nil
}

func (OS) Remove(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

var zeroTime time.Time
