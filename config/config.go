package config

import (
	"os"
	"strconv"
	"strings"
)

var (
	TLS_DOMAINS        = ""          // e.g. "assets.example.edu,example2.com"
	MYSQL_DSN          = ""          // MySQL will be used if this is set
	SQLITE_FILE        = "campus.db" // SQLite will be used if MYSQL_DSN is not configured
	BIND_ADDRESS       = "0.0.0.0:8080"
	API_PREFIX         = "" // e.g. "/api"
	DEBUG_MODE         = false
	UPLOADS_DIR        = "uploads"  // Local directory for uploaded images (disk storage)
	UPLOADS_URL_PREFIX = "/uploads" // Path prefix stored in image_ref and served by the router
	THUMB_SIZE         = 640        // Max width/height of generated thumbnails, 0 disables them
	MAX_UPLOAD_MB      = 16
	// S3 storage is used instead of UPLOADS_DIR when S3_BUCKET is set
	S3_BUCKET          = ""
	S3_REGION          = "us-east-1"
	S3_ENDPOINT        = "" // Custom endpoint for S3 compatible services (MinIO, etc)
	S3_KEY             = ""
	S3_SECRET          = ""
	S3_PREFIX          = "" // Key prefix inside the bucket
	S3_PRESIGN_MINUTES = 60
	// Unreferenced blobs older than the grace period are removed on this schedule (with seconds), "off" disables it
	CLEANUP_SCHEDULE      = "0 30 3 * * *"
	CLEANUP_GRACE_MINUTES = 60
)

func init() {
	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvString("API_PREFIX", &API_PREFIX)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvString("UPLOADS_DIR", &UPLOADS_DIR)
	readEnvString("UPLOADS_URL_PREFIX", &UPLOADS_URL_PREFIX)
	readEnvInt("THUMB_SIZE", &THUMB_SIZE)
	readEnvInt("MAX_UPLOAD_MB", &MAX_UPLOAD_MB)
	readEnvString("S3_BUCKET", &S3_BUCKET)
	readEnvString("S3_REGION", &S3_REGION)
	readEnvString("S3_ENDPOINT", &S3_ENDPOINT)
	readEnvString("S3_KEY", &S3_KEY)
	readEnvString("S3_SECRET", &S3_SECRET)
	readEnvString("S3_PREFIX", &S3_PREFIX)
	readEnvInt("S3_PRESIGN_MINUTES", &S3_PRESIGN_MINUTES)
	readEnvString("CLEANUP_SCHEDULE", &CLEANUP_SCHEDULE)
	readEnvInt("CLEANUP_GRACE_MINUTES", &CLEANUP_GRACE_MINUTES)

	UPLOADS_URL_PREFIX = "/" + strings.Trim(UPLOADS_URL_PREFIX, "/")
	API_PREFIX = strings.TrimRight(API_PREFIX, "/")
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = f
}
