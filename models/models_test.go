package models

import (
	"campus/db"
	"campus/storage"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

// setupTestDB points db.Instance at a fresh SQLite file and the default
// storage at a temporary directory
func setupTestDB(t *testing.T) *storage.DiskStorage {
	t.Helper()
	dir := t.TempDir()
	db.Instance = db.Open(sqlite.Open(db.SQLiteDSN(filepath.Join(dir, "test.db"))))
	Init()
	t.Cleanup(func() {
		if sqlDB, err := db.Instance.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	disk, err := storage.NewDiskStorage(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	storage.Use(disk)
	return disk
}

// storedFiles lists the blob names currently kept by disk
func storedFiles(t *testing.T, disk *storage.DiskStorage) []string {
	t.Helper()
	names := []string{}
	require.NoError(t, disk.List(func(name string, _ time.Time) error {
		names = append(names, name)
		return nil
	}))
	return names
}

func mustAsset(t *testing.T, name string) Asset {
	t.Helper()
	asset, err := AssetCreate(AssetFields{Name: name, Quantity: 1}, nil)
	require.NoError(t, err)
	return asset
}

func mustStaff(t *testing.T, name string) Staff {
	t.Helper()
	staff, err := StaffCreate(StaffFields{Name: name})
	require.NoError(t, err)
	return staff
}

// failingStorage rejects every write
type failingStorage struct {
	storage.BlobStore
}

func (failingStorage) Save(name, mimeType string, reader io.Reader) (int64, error) {
	return 0, errors.New("storage offline")
}
