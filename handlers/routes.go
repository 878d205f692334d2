package handlers

import (
	"campus/config"
	"campus/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

func Register(router *gin.Engine) {
	api := router.Group(config.API_PREFIX)
	// Assets
	api.GET("/assets", AssetList)
	api.GET("/assets/:id", AssetGet)
	api.POST("/assets", AssetCreate)
	api.PUT("/assets/:id", AssetUpdate)
	api.DELETE("/assets/:id", AssetDelete)
	// Staff
	api.GET("/staff", StaffList)
	api.GET("/staff/:id", StaffGet)
	api.POST("/staff", StaffCreate)
	api.PUT("/staff/:id", StaffUpdate)
	api.DELETE("/staff/:id", StaffDelete)
	// Assignments
	api.GET("/assignments", AssignmentList)
	api.GET("/assignments/:id", AssignmentGet)
	api.POST("/assignments", AssignmentCreate)
	api.PUT("/assignments/:id", AssignmentUpdate)
	api.DELETE("/assignments/:id", AssignmentDelete)

	// Uploaded images, image_ref values point here. Blob names are never reused.
	imageCache := utils.CacheFor(utils.CacheWeek)
	router.GET(config.UPLOADS_URL_PREFIX+"/*path", imageCache, ImageFetch)
	router.HEAD(config.UPLOADS_URL_PREFIX+"/*path", imageCache, ImageFetch)
	// Misc
	router.GET("/health", Health)
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Campus Asset Management Backend is running!")
	})
}
