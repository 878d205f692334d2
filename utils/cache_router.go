package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	CacheNoCache = 0
	CacheCustom  = -1
	CacheWeek    = 7 * 86400
)

// CacheRouter sets the cache-control header for everything behind it.
// Handlers may still override the header (CacheCustom leaves it alone).
type CacheRouter struct {
	CacheTime int // defaults to CacheNoCache = 0
}

func (cr *CacheRouter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if cr.CacheTime != CacheCustom {
			c.Header("cache-control", cacheControl(cr.CacheTime))
		}
		c.Next()
	}
}

// CacheFor overrides the router default for a single route
func CacheFor(seconds int) gin.HandlerFunc {
	return (&CacheRouter{CacheTime: seconds}).Handler()
}

func cacheControl(seconds int) string {
	if seconds <= CacheNoCache {
		return "no-cache"
	}
	return "private, max-age=" + strconv.Itoa(seconds)
}
