package git

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"

	billy "github.com/go-git/go-billy/v5"
)

var (
	// ErrTooManyFiles is returned when a clone creates more files than allowed
	ErrTooManyFiles = errors.New("repository exceeds the file count limit")

	// ErrTooLarge is returned when a clone writes more bytes than allowed
	ErrTooLarge = errors.New("repository exceeds the size limit")
)

type fsUsage struct {
	files atomic.Int64
	bytes atomic.Int64
}

// LimitedFs wraps a billy.Filesystem and caps the number of files created and
// the total bytes written through it. Chrooted views share the caps.
type LimitedFs struct {
	Fs            billy.Filesystem
	MaxFiles      int64
	TotalFileSize int64

	once  sync.Once
	usage *fsUsage
}

var _ billy.Filesystem = (*LimitedFs)(nil)

func (f *LimitedFs) counters() *fsUsage {
	f.once.Do(func() {
		if f.usage == nil {
			f.usage = &fsUsage{}
		}
	})
	return f.usage
}

func (f *LimitedFs) addFile() error {
	if f.counters().files.Add(1) > f.MaxFiles {
		return ErrTooManyFiles
	}
	return nil
}

func (f *LimitedFs) wrap(file billy.File, err error) (billy.File, error) {
	if err != nil {
		return nil, err
	}
	return &limitedFile{File: file, fs: f}, nil
}

// Create implements billy.Basic
func (f *LimitedFs) Create(filename string) (billy.File, error) {
	return f.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

// Open implements billy.Basic
func (f *LimitedFs) Open(filename string) (billy.File, error) {
	return f.Fs.Open(filename)
}

// OpenFile implements billy.Basic
func (f *LimitedFs) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&os.O_CREATE != 0 {
		if _, err := f.Fs.Lstat(filename); errors.Is(err, os.ErrNotExist) {
			if err := f.addFile(); err != nil {
				return nil, err
			}
		}
	}
	return f.wrap(f.Fs.OpenFile(filename, flag, perm))
}

// Stat implements billy.Basic
func (f *LimitedFs) Stat(filename string) (os.FileInfo, error) {
	return f.Fs.Stat(filename)
}

// Rename implements billy.Basic
func (f *LimitedFs) Rename(oldpath, newpath string) error {
	return f.Fs.Rename(oldpath, newpath)
}

// Remove implements billy.Basic
func (f *LimitedFs) Remove(filename string) error {
	return f.Fs.Remove(filename)
}

// Join implements billy.Basic
func (f *LimitedFs) Join(elem ...string) string {
	return f.Fs.Join(elem...)
}

// TempFile implements billy.TempFile
func (f *LimitedFs) TempFile(dir, prefix string) (billy.File, error) {
	if err := f.addFile(); err != nil {
		return nil, err
	}
	return f.wrap(f.Fs.TempFile(dir, prefix))
}

// ReadDir implements billy.Dir
func (f *LimitedFs) ReadDir(path string) ([]os.FileInfo, error) {
	return f.Fs.ReadDir(path)
}

// MkdirAll implements billy.Dir
func (f *LimitedFs) MkdirAll(filename string, perm os.FileMode) error {
	return f.Fs.MkdirAll(filename, perm)
}

// Lstat implements billy.Symlink
func (f *LimitedFs) Lstat(filename string) (os.FileInfo, error) {
	return f.Fs.Lstat(filename)
}

// Symlink implements billy.Symlink
func (f *LimitedFs) Symlink(target, link string) error {
	if err := f.addFile(); err != nil {
		return err
	}
	return f.Fs.Symlink(target, link)
}

// Readlink implements billy.Symlink
func (f *LimitedFs) Readlink(link string) (string, error) {
	return f.Fs.Readlink(link)
}

// Chroot implements billy.Chroot
func (f *LimitedFs) Chroot(path string) (billy.Filesystem, error) {
	sub, err := f.Fs.Chroot(path)
	if err != nil {
		return nil, err
	}
	return &LimitedFs{
		Fs:            sub,
		MaxFiles:      f.MaxFiles,
		TotalFileSize: f.TotalFileSize,
		usage:         f.counters(),
	}, nil
}

// Root implements billy.Chroot
func (f *LimitedFs) Root() string {
	return f.Fs.Root()
}

// Capabilities reports the capabilities of the wrapped filesystem.
func (f *LimitedFs) Capabilities() billy.Capability {
	return billy.Capabilities(f.Fs)
}

type limitedFile struct {
	billy.File
	fs *LimitedFs
}

func (l *limitedFile) Write(p []byte) (int, error) {
	if l.fs.counters().bytes.Add(int64(len(p))) > l.fs.TotalFileSize {
		return 0, ErrTooLarge
	}
	return l.File.Write(p)
}
