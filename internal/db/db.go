package db

import (
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Connect opens the ledger database. MySQL-shaped DSNs (user:pass@tcp(...)/db)
// use the mysql driver; anything else is treated as a sqlite path, which
// defaults to an in-memory database so the demo keeps all state in process.
func Connect(dsn string) (*gorm.DB, error) {
	if strings.Contains(dsn, "@tcp(") {
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
}
