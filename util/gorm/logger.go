package gorm

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var LogrusLogger logger.Interface = logrusLogger{
	slowThreshold: 200 * time.Millisecond,
}

type logrusLogger struct {
	slowThreshold time.Duration
}

func (l logrusLogger) LogMode(logger.LogLevel) logger.Interface {
	return l
}

func (l logrusLogger) Info(ctx context.Context, format string, args ...interface{}) {
	logrus.WithContext(ctx).Infof(format, args...)
}

func (l logrusLogger) Warn(ctx context.Context, format string, args ...interface{}) {
	logrus.WithContext(ctx).Warnf(format, args...)
}

func (l logrusLogger) Error(ctx context.Context, format string, args ...interface{}) {
	logrus.WithContext(ctx).Errorf(format, args...)
}

func (l logrusLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	sql, rows := fc()
	elapsed := time.Since(begin)
	entry := logrus.WithContext(ctx).WithFields(logrus.Fields{
		"rows":    rows,
		"elapsed": elapsed,
	})

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		entry.Errorf("%s: %v", sql, err)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		entry.Warnf("slow query: %s", sql)
	default:
		entry.Trace(sql)
	}
}
