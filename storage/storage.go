package storage

import (
	"campus/config"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlobStore persists uploaded binaries. Names are flat keys generated by
// NewBlobName, the reference handed out to clients is RefFor(name).
type BlobStore interface {
	Save(name, mimeType string, reader io.Reader) (int64, error)
	Serve(name string, request *http.Request, writer http.ResponseWriter)
	Delete(name string) error
	// List calls visit for every stored blob, stopping at the first error
	List(visit func(name string, modified time.Time) error) error
	GetFreeSpace() uint64
	Kind() string
}

var (
	defaultStorage BlobStore
)

func Init() {
	if config.S3_BUCKET != "" {
		s3Storage, err := NewS3Storage(S3Config{
			Bucket:     config.S3_BUCKET,
			Region:     config.S3_REGION,
			Endpoint:   config.S3_ENDPOINT,
			Key:        config.S3_KEY,
			Secret:     config.S3_SECRET,
			Prefix:     config.S3_PREFIX,
			PresignFor: time.Duration(config.S3_PRESIGN_MINUTES) * time.Minute,
		})
		if err != nil {
			panic(err)
		}
		log.Printf("Storage: S3 bucket %s", config.S3_BUCKET)
		Use(s3Storage)
		return
	}
	diskStorage, err := NewDiskStorage(config.UPLOADS_DIR)
	if err != nil {
		panic(err)
	}
	log.Printf("Storage: disk %s", diskStorage.BasePath)
	Use(diskStorage)
}

// Use replaces the default storage
func Use(s BlobStore) {
	defaultStorage = s
}

func GetDefaultStorage() BlobStore {
	if defaultStorage == nil {
		panic("no storage available")
	}
	return defaultStorage
}

// NewBlobName returns a unique name keeping the (sanitized) extension of originalName
func NewBlobName(originalName string) string {
	return uuid.NewString() + cleanExt(originalName)
}

// ThumbNameFor returns the name of the JPEG thumbnail stored next to name
func ThumbNameFor(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + "_thumb.jpg"
}

// RefFor returns the reference stored in the DB for a blob, e.g. /uploads/<uuid>.png
func RefFor(name string) string {
	return config.UPLOADS_URL_PREFIX + "/" + name
}

// NameFrom is the reverse of RefFor
func NameFrom(ref string) (string, bool) {
	name, ok := strings.CutPrefix(ref, config.UPLOADS_URL_PREFIX+"/")
	if !ok || name == "" || strings.Contains(name, "..") {
		return "", false
	}
	return name, true
}

func cleanExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, c := range ext[1:] {
		if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') {
			return ""
		}
	}
	return ext
}

type countingReader struct {
	io.Reader
	n int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	r.n += int64(n)
	return n, err
}
