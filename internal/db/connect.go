// Package db provides GORM connection and migration helpers for Depot.
package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Options holds connection settings for the Depot database.
type Options struct {
	Driver   string // sqlite (default) or mysql
	Path     string // sqlite file path
	Host     string // mysql host
	Port     int    // mysql port
	User     string // mysql user
	Password string // mysql password
	Database string // mysql database name
}

// DSN builds the driver-specific data source name.
func DSN(opts Options) string {
	if opts.Driver == DriverMySQL {
		cred := opts.User
		if opts.Password != "" {
			cred += ":" + opts.Password
		}
		return fmt.Sprintf("%s@tcp(%s:%d)/%s?parseTime=true", cred, opts.Host, opts.Port, opts.Database)
	}
	if opts.Path == "" {
		return "depot.db"
	}
	return opts.Path
}

// Connect opens a GORM connection using the configured driver.
func Connect(opts Options) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	switch opts.Driver {
	case DriverMySQL:
		db, err := gorm.Open(mysql.Open(DSN(opts)), cfg)
		if err != nil {
			return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", opts.Host, opts.Port, opts.Database, err)
		}
		return db, nil
	case DriverSQLite, "":
		db, err := gorm.Open(sqlite.Open(DSN(opts)), cfg)
		if err != nil {
			return nil, fmt.Errorf("db: open %s: %w", DSN(opts), err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("db: unknown driver %q", opts.Driver)
	}
}
