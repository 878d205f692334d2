package handlers

import (
	"campus/db"
	"campus/storage"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ImageFetch serves a stored image by the path in its image_ref
func ImageFetch(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("path"), "/")
	if name == "" || strings.Contains(name, "..") {
		c.JSON(http.StatusNotFound, Response{"Image not found"})
		return
	}
	storage.GetDefaultStorage().Serve(name, c.Request, c.Writer)
}

func Health(c *gin.Context) {
	sqlDB, err := db.Instance.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		log.Printf("Health check, DB error: %v", err)
		c.JSON(http.StatusInternalServerError, Response{"Database unavailable"})
		return
	}
	store := storage.GetDefaultStorage()
	c.JSON(http.StatusOK, gin.H{
		"database":   db.Instance.Dialector.Name(),
		"storage":    store.Kind(),
		"free_space": store.GetFreeSpace(),
	})
}
