package storage

import (
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"golang.org/x/sys/unix"
)

type DiskStorage struct {
	// BasePath is a directory that is writable by the current process
	BasePath string
	dirs     cmap.ConcurrentMap[string, bool]
}

func NewDiskStorage(basePath string) (*DiskStorage, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}
	s := &DiskStorage{
		BasePath: absPath,
		dirs:     cmap.New[bool](),
	}
	if err = s.createDir(absPath); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DiskStorage) createDir(dir string) error {
	if s.dirs.Has(dir) {
		return nil
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return err
	}
	s.dirs.Set(dir, true)
	return nil
}

// getFullPath never escapes BasePath
func (s *DiskStorage) getFullPath(name string) string {
	return filepath.Join(s.BasePath, filepath.FromSlash(path.Clean("/"+name)))
}

func (s *DiskStorage) Save(name, mimeType string, reader io.Reader) (int64, error) {
	fileName := s.getFullPath(name)
	if err := s.createDir(filepath.Dir(fileName)); err != nil {
		return 0, err
	}
	file, err := os.Create(fileName)
	if err != nil {
		return 0, err
	}
	result, err := io.Copy(file, reader)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// Partial files are not kept
		_ = os.Remove(fileName)
		return 0, err
	}
	return result, nil
}

// Serve handles byte-ranges and responds with 404 for missing blobs
func (s *DiskStorage) Serve(name string, request *http.Request, writer http.ResponseWriter) {
	http.ServeFile(writer, request, s.getFullPath(name))
}

func (s *DiskStorage) Delete(name string) error {
	return os.Remove(s.getFullPath(name))
}

func (s *DiskStorage) List(visit func(name string, modified time.Time) error) error {
	return filepath.WalkDir(s.BasePath, func(fullPath string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.BasePath, fullPath)
		if err != nil {
			return err
		}
		return visit(filepath.ToSlash(rel), info.ModTime())
	})
}

func (s *DiskStorage) GetFreeSpace() uint64 {
	var stat unix.Statfs_t
	if err := unix.Statfs(s.BasePath, &stat); err != nil {
		return 0
	}
	return stat.Bavail * uint64(stat.Bsize)
}

func (s *DiskStorage) Kind() string {
	return "disk"
}
