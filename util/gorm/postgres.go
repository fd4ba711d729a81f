package gorm

import (
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DefaultConfig = &gorm.Config{Logger: LogrusLogger}

// NewPostgres opens a connection with the package defaults and
// verifies it with a ping before handing it out.
func NewPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), DefaultConfig)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "unwrap")
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping")
	}

	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
