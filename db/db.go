package db

import (
	"campus/config"
	"log"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var Instance *gorm.DB

// Init connects to MySQL when config.MYSQL_DSN is set, to the SQLite
// file in config.SQLITE_FILE otherwise.
func Init() {
	if config.MYSQL_DSN != "" {
		log.Printf("Using MySQL database")
		Instance = Open(mysql.Open(config.MYSQL_DSN))
		return
	}
	log.Printf("Using SQLite database: %s", config.SQLITE_FILE)
	Instance = Open(sqlite.Open(SQLiteDSN(config.SQLITE_FILE)))
}

func Open(dialector gorm.Dialector) *gorm.DB {
	logLevel := logger.Warn
	if config.DEBUG_MODE {
		logLevel = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 logger.Default.LogMode(logLevel),
	})
	if err != nil || db == nil {
		panic(err)
	}
	return db
}

// SQLiteDSN adds the connection options needed for assignment writes:
// immediate transactions serialize writers, foreign keys enforce
// ON DELETE RESTRICT and the busy timeout makes waiting writers block
// instead of failing.
func SQLiteDSN(file string) string {
	sep := "?"
	if strings.Contains(file, "?") {
		sep = "&"
	}
	return file + sep + "_txlock=immediate&_foreign_keys=on&_busy_timeout=5000"
}

// IsMySQL reports whether row level locking (SELECT ... FOR UPDATE) is available
func IsMySQL(tx *gorm.DB) bool {
	return tx.Dialector.Name() == "mysql"
}
