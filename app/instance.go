package app

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"rateable/core/reaction"
	"rateable/core/stats"
	"rateable/core/vote"

	gormutil "rateable/util/gorm"
)

// Instance wires the reaction engine into a host application:
// explicit construction instead of framework service registration.
type Instance struct {
	version string
	config  *Config

	db      *gorm.DB
	storage *reaction.SQLStorage
}

func Create(version string, config *Config) *Instance {
	if config.Logging.Level != "" {
		if level, err := logrus.ParseLevel(config.Logging.Level); err != nil {
			logrus.Warnf("invalid log level %s", config.Logging.Level)
		} else {
			logrus.SetLevel(level)
		}
	}

	return &Instance{
		version: version,
		config:  config,
	}
}

func (app *Instance) Version() string {
	return app.version
}

func (app *Instance) GetDatabase() (*gorm.DB, error) {
	if app.db != nil {
		return app.db, nil
	}

	db, err := gormutil.NewPostgres(app.config.Database)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	app.db = db
	return db, nil
}

func (app *Instance) GetStorage(ctx context.Context) (*reaction.SQLStorage, error) {
	if app.storage != nil {
		return app.storage, nil
	}

	db, err := app.GetDatabase()
	if err != nil {
		return nil, err
	}

	storage := (*reaction.SQLStorage)(db)
	if err := storage.Init(ctx); err != nil {
		return nil, errors.Wrap(err, "init storage")
	}

	app.storage = storage
	return storage, nil
}

func (app *Instance) GetVotes(ctx context.Context, mode vote.Mode, identity vote.Identity) (*vote.Default, error) {
	storage, err := app.GetStorage(ctx)
	if err != nil {
		return nil, err
	}

	if mode.Kind == reaction.Star && mode.MaxPoint == 0 {
		mode.MaxPoint = app.maxPoint()
	}

	return vote.New(&vote.Context{
		Storage:  storage,
		Identity: identity,
		Mode:     mode,
	}), nil
}

func (app *Instance) GetStats(ctx context.Context, identity vote.Identity) (*stats.Default, error) {
	storage, err := app.GetStorage(ctx)
	if err != nil {
		return nil, err
	}

	return stats.New(&stats.Context{
		Storage:  storage,
		Identity: identity,
		MaxPoint: app.maxPoint(),
	}), nil
}

func (app *Instance) Close() error {
	if app.db == nil {
		return nil
	}

	return gormutil.Close(app.db)
}

func (app *Instance) maxPoint() int {
	if app.config.Rating.MaxPoint > 0 {
		return app.config.Rating.MaxPoint
	}

	return vote.DefaultMaxPoint
}
