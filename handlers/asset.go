package handlers

import (
	"campus/config"
	"campus/models"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const assetImageField = "image"

// AssetRequest is accepted as multipart form (with an optional "image" file), url-encoded form or JSON
type AssetRequest struct {
	Name         string `form:"name" json:"name" binding:"required"`
	Type         string `form:"type" json:"type"`
	Quantity     int    `form:"quantity" json:"quantity" binding:"min=0"`
	Condition    string `form:"condition" json:"condition"`
	Location     string `form:"location" json:"location"`
	PurchaseDate string `form:"purchase_date" json:"purchase_date"`
	RemoveImage  bool   `form:"remove_image" json:"remove_image"`
}

func (r *AssetRequest) fields() (f models.AssetFields, err error) {
	f = models.AssetFields{
		Name:      r.Name,
		Type:      r.Type,
		Quantity:  r.Quantity,
		Condition: r.Condition,
		Location:  r.Location,
	}
	if r.PurchaseDate != "" {
		date, err := models.ParseDate(r.PurchaseDate)
		if err != nil {
			return f, err
		}
		f.PurchaseDate = &date
	}
	return f, nil
}

func bindAssetRequest(c *gin.Context) (fields models.AssetFields, r AssetRequest, ok bool) {
	limit := int64(config.MAX_UPLOAD_MB) << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	if err := c.ShouldBind(&r); err != nil {
		badRequest(c, err)
		return fields, r, false
	}
	fields, err := r.fields()
	if err != nil {
		badRequest(c, err)
		return fields, r, false
	}
	return fields, r, true
}

// imageUpload returns the uploaded image, or nil when the request has none.
// The caller closes the returned file.
func imageUpload(c *gin.Context) (*models.ImageUpload, multipart.File, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return nil, nil, nil
	}
	header, err := c.FormFile(assetImageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return &models.ImageUpload{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Reader:   file,
	}, file, nil
}

func AssetList(c *gin.Context) {
	assets, err := models.AssetList()
	if err != nil {
		respondError(c, err, "Asset", "fetching assets")
		return
	}
	c.JSON(http.StatusOK, assets)
}

func AssetGet(c *gin.Context) {
	id, ok := parseID(c, "Asset")
	if !ok {
		return
	}
	asset, err := models.AssetGet(id)
	if err != nil {
		respondError(c, err, "Asset", "fetching asset")
		return
	}
	c.JSON(http.StatusOK, asset)
}

func AssetCreate(c *gin.Context) {
	fields, _, ok := bindAssetRequest(c)
	if !ok {
		return
	}
	upload, file, err := imageUpload(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if file != nil {
		defer file.Close()
	}
	asset, err := models.AssetCreate(fields, upload)
	if err != nil {
		respondError(c, err, "Asset", "creating asset")
		return
	}
	c.JSON(http.StatusCreated, asset)
}

// AssetUpdate replaces all fields. The image is replaced only when a new one
// is uploaded, cleared only when remove_image is set, and kept otherwise.
func AssetUpdate(c *gin.Context) {
	id, ok := parseID(c, "Asset")
	if !ok {
		return
	}
	fields, r, ok := bindAssetRequest(c)
	if !ok {
		return
	}
	upload, file, err := imageUpload(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if file != nil {
		defer file.Close()
	}
	change := models.KeepImage()
	if upload != nil {
		change = models.ReplaceImage(upload)
	} else if r.RemoveImage {
		change = models.ClearImage()
	}
	asset, err := models.AssetUpdate(id, fields, change)
	if err != nil {
		respondError(c, err, "Asset", "updating asset")
		return
	}
	c.JSON(http.StatusOK, asset)
}

func AssetDelete(c *gin.Context) {
	id, ok := parseID(c, "Asset")
	if !ok {
		return
	}
	if err := models.AssetDelete(id); err != nil {
		respondError(c, err, "Asset", "deleting asset")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{"Asset deleted successfully"})
}
