package db

import (
	"log"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"podbrief/internal/jobs"
)

// Connect opens the database and migrates the job tables. A MySQL DSN
// (user:pass@tcp(host)/db) selects the mysql driver; anything else is
// treated as a sqlite path.
func Connect(dsn string) *gorm.DB {
	var (
		gdb *gorm.DB
		err error
	)
	if strings.Contains(dsn, "@tcp(") {
		gdb, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	} else {
		gdb, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	if err := gdb.AutoMigrate(&jobs.Job{}, &jobs.Transcript{}, &jobs.Summary{}); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	return gdb
}
