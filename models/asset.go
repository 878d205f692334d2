package models

import (
	"bytes"
	"campus/config"
	"campus/db"
	"campus/storage"
	"campus/utils"
	"io"
	"log"
	"strings"

	"gorm.io/gorm"
)

type Asset struct {
	ID           uint64  `gorm:"primaryKey;column:asset_id" json:"asset_id"`
	CreatedAt    int64   `json:"-"`
	UpdatedAt    int64   `json:"-"`
	Name         string  `gorm:"type:varchar(200);not null" json:"name"`
	Type         string  `gorm:"type:varchar(100)" json:"type"`
	Quantity     int     `gorm:"not null;default:0" json:"quantity"`
	Condition    string  `gorm:"type:varchar(100)" json:"condition"`
	Location     string  `gorm:"type:varchar(200)" json:"location"`
	PurchaseDate *Date   `gorm:"type:date" json:"purchase_date"`
	ImageRef     *string `gorm:"type:varchar(500)" json:"image_ref"` // can be null
	ThumbRef     *string `gorm:"type:varchar(500)" json:"thumb_ref"` // only set for decodable images
	Width        uint16  `json:"width,omitempty"`
	Height       uint16  `json:"height,omitempty"`
	ThumbWidth   uint16  `json:"thumb_width,omitempty"`
	ThumbHeight  uint16  `json:"thumb_height,omitempty"`
	ThumbSize    int64   `json:"-"`
}

// AssetFields are the scalar fields replaced on every update
type AssetFields struct {
	Name         string
	Type         string
	Quantity     int
	Condition    string
	Location     string
	PurchaseDate *Date
}

type ImageUpload struct {
	Name     string // Original file name, only the extension is kept
	MimeType string
	Reader   io.Reader
}

type ImageAction uint8

const (
	ImageKeep ImageAction = iota
	ImageReplace
	ImageClear
)

// ImageChange tells AssetUpdate what to do with the stored image.
// The zero value keeps it.
type ImageChange struct {
	Action ImageAction
	Upload *ImageUpload
}

func KeepImage() ImageChange {
	return ImageChange{Action: ImageKeep}
}

func ReplaceImage(upload *ImageUpload) ImageChange {
	return ImageChange{Action: ImageReplace, Upload: upload}
}

func ClearImage() ImageChange {
	return ImageChange{Action: ImageClear}
}

func (f *AssetFields) applyTo(a *Asset) {
	a.Name = strings.TrimSpace(f.Name)
	a.Type = f.Type
	a.Quantity = f.Quantity
	a.Condition = f.Condition
	a.Location = f.Location
	a.PurchaseDate = f.PurchaseDate
}

type storedImage struct {
	ImageRef *string
	ThumbRef *string
	Thumb    utils.ImageThumbConverted
}

// applyTo points a at the stored image, or at nothing for the zero value
func (img *storedImage) applyTo(a *Asset) {
	a.ImageRef, a.ThumbRef = img.ImageRef, img.ThumbRef
	a.Width, a.Height = img.Thumb.OldX, img.Thumb.OldY
	a.ThumbWidth, a.ThumbHeight = img.Thumb.NewX, img.Thumb.NewY
	a.ThumbSize = img.Thumb.ThumbSize
}

// saveImage writes the upload (and a thumbnail for decodable images) to the
// default storage. Nothing is left behind on failure.
func saveImage(upload *ImageUpload) (img storedImage, err error) {
	store := storage.GetDefaultStorage()
	name := storage.NewBlobName(upload.Name)
	makeThumb := config.THUMB_SIZE > 0 && strings.HasPrefix(upload.MimeType, "image/")

	var original bytes.Buffer
	reader := upload.Reader
	if makeThumb {
		reader = io.TeeReader(upload.Reader, &original)
	}
	if _, err = store.Save(name, upload.MimeType, reader); err != nil {
		return img, err
	}
	ref := storage.RefFor(name)
	img.ImageRef = &ref
	if !makeThumb {
		return img, nil
	}

	var thumb bytes.Buffer
	converted, err := utils.CreateThumb(uint(config.THUMB_SIZE), &original, &thumb)
	if err != nil {
		log.Printf("Image %s: no thumbnail: %v", name, err)
		return img, nil
	}
	thumbName := storage.ThumbNameFor(name)
	if _, err = store.Save(thumbName, "image/jpeg", &thumb); err != nil {
		deleteImages(img.ImageRef)
		return storedImage{}, err
	}
	thumbRef := storage.RefFor(thumbName)
	img.ThumbRef = &thumbRef
	img.Thumb = converted
	return img, nil
}

// deleteImages removes blobs that are no longer referenced. Failures are only logged.
func deleteImages(refs ...*string) {
	for _, ref := range refs {
		if ref == nil {
			continue
		}
		name, ok := storage.NameFrom(*ref)
		if !ok {
			log.Printf("Image %s: not a storage reference", *ref)
			continue
		}
		if err := storage.GetDefaultStorage().Delete(name); err != nil {
			log.Printf("Image %s: delete error: %v", name, err)
		}
	}
}

// ReferencedBlobs returns the storage names of every image and thumbnail an asset points to
func ReferencedBlobs() (map[string]bool, error) {
	var assets []Asset
	err := db.Instance.Select("image_ref", "thumb_ref").
		Where("image_ref IS NOT NULL OR thumb_ref IS NOT NULL").
		Find(&assets).Error
	if err != nil {
		return nil, err
	}
	names := map[string]bool{}
	for _, asset := range assets {
		for _, ref := range []*string{asset.ImageRef, asset.ThumbRef} {
			if ref == nil {
				continue
			}
			if name, ok := storage.NameFrom(*ref); ok {
				names[name] = true
			}
		}
	}
	return names, nil
}

func AssetList() ([]Asset, error) {
	assets := []Asset{}
	err := db.Instance.Order("asset_id").Find(&assets).Error
	return assets, err
}

func AssetGet(id uint64) (asset Asset, err error) {
	err = notFound(db.Instance.First(&asset, id).Error)
	return
}

// AssetCreate stores the optional image before the record, so a storage
// failure never leaves a record pointing at a missing blob.
func AssetCreate(fields AssetFields, upload *ImageUpload) (Asset, error) {
	asset := Asset{}
	fields.applyTo(&asset)
	if upload != nil {
		img, err := saveImage(upload)
		if err != nil {
			return Asset{}, err
		}
		img.applyTo(&asset)
	}
	if err := db.Instance.Create(&asset).Error; err != nil {
		deleteImages(asset.ImageRef, asset.ThumbRef)
		return Asset{}, err
	}
	return asset, nil
}

// AssetUpdate replaces all scalar fields. The image is only touched when
// change says so; a replaced or cleared image is deleted after the commit.
func AssetUpdate(id uint64, fields AssetFields, change ImageChange) (Asset, error) {
	var img storedImage
	if change.Action == ImageReplace {
		if change.Upload == nil {
			change.Action = ImageKeep
		} else {
			var err error
			if img, err = saveImage(change.Upload); err != nil {
				return Asset{}, err
			}
		}
	}
	var asset Asset
	var oldImage, oldThumb *string
	err := db.Instance.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&asset, id).Error; err != nil {
			return notFound(err)
		}
		oldImage, oldThumb = asset.ImageRef, asset.ThumbRef
		fields.applyTo(&asset)
		switch change.Action {
		case ImageReplace:
			img.applyTo(&asset)
		case ImageClear:
			(&storedImage{}).applyTo(&asset)
		}
		return tx.Save(&asset).Error
	})
	if err != nil {
		deleteImages(img.ImageRef, img.ThumbRef)
		return Asset{}, err
	}
	if change.Action != ImageKeep {
		deleteImages(oldImage, oldThumb)
	}
	return asset, nil
}

// AssetDelete refuses to delete an asset that is currently assigned
func AssetDelete(id uint64) error {
	var asset Asset
	err := db.Instance.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&asset, id).Error; err != nil {
			return notFound(err)
		}
		var assigned int64
		if err := tx.Model(&Assignment{}).Where("asset_id = ?", id).Count(&assigned).Error; err != nil {
			return err
		}
		if assigned > 0 {
			return ErrReferenced
		}
		return tx.Delete(&asset).Error
	})
	if err != nil {
		return parentDeleteError(err)
	}
	deleteImages(asset.ImageRef, asset.ThumbRef)
	return nil
}
