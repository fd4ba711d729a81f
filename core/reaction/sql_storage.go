package reaction

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	null "gopkg.in/guregu/null.v3"
	"gorm.io/gorm"
)

type SQLStorage gorm.DB

func (s *SQLStorage) Unmask() *gorm.DB {
	return (*gorm.DB)(s)
}

func (s *SQLStorage) Init(ctx context.Context) error {
	return s.Unmask().WithContext(ctx).AutoMigrate(new(Reaction))
}

// Upsert runs in a transaction holding an advisory lock on the scope
// key. A unique index cannot serve here since repeatable star rows
// legitimately duplicate the (subject, user, kind) tuple.
func (s *SQLStorage) Upsert(ctx context.Context, key SubjectKey, userID int64, kind Kind, score float64) error {
	return s.Unmask().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec( /* language=SQL */ `select pg_advisory_xact_lock(hashtext(?))`,
			scopeKey(key, userID, kind)).Error; err != nil {
			return errors.Wrap(err, "acquire scope lock")
		}

		row := new(Reaction)
		err := tx.
			Where("subject_type = ? and subject_id = ? and user_id = ? and kind = ?",
				key.Type, key.ID, userID, kind).
			Order("id asc").
			First(row).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = &Reaction{
				Subject: key,
				UserID:  null.IntFrom(userID),
				Kind:    kind,
				Score:   score,
			}

			return errors.Wrap(tx.Create(row).Error, "create")
		} else if err != nil {
			return errors.Wrap(err, "find")
		}

		return errors.Wrap(tx.Model(row).Update("score", score).Error, "update")
	})
}

func (s *SQLStorage) Insert(ctx context.Context, row *Reaction) error {
	return errors.Wrap(s.Unmask().WithContext(ctx).Create(row).Error, "create")
}

func (s *SQLStorage) Delete(ctx context.Context, key SubjectKey, userID int64, kind Kind, score ...float64) (int64, error) {
	tx := s.Unmask().WithContext(ctx).
		Where("subject_type = ? and subject_id = ? and user_id = ? and kind = ?",
			key.Type, key.ID, userID, kind)
	if len(score) > 0 {
		tx = tx.Where("score = ?", score[0])
	}

	tx = tx.Delete(new(Reaction))
	return tx.RowsAffected, errors.Wrap(tx.Error, "delete")
}

func (s *SQLStorage) Exists(ctx context.Context, key SubjectKey, userID int64, kind Kind, score float64) (bool, error) {
	var exists bool
	return exists, errors.Wrap(s.Unmask().WithContext(ctx).Raw( /* language=SQL */ `
		select exists(
		  select 1 from ratings
		  where subject_type = ? and subject_id = ? and user_id = ? and kind = ? and score = ?
		)`,
		key.Type, key.ID, userID, kind, score).
		Scan(&exists).
		Error, "exists")
}

func (s *SQLStorage) Count(ctx context.Context, key SubjectKey, kind Kind, score ...float64) (int64, error) {
	var count int64
	tx := s.Unmask().WithContext(ctx).
		Model(new(Reaction)).
		Where("subject_type = ? and subject_id = ? and kind = ?", key.Type, key.ID, kind)
	if len(score) > 0 {
		tx = tx.Where("score = ?", score[0])
	}

	return count, errors.Wrap(tx.Count(&count).Error, "count")
}

func (s *SQLStorage) Sum(ctx context.Context, key SubjectKey, kind Kind, userID ...int64) (null.Float, error) {
	return s.aggregate(ctx, "sum", key, kind, userID)
}

func (s *SQLStorage) Avg(ctx context.Context, key SubjectKey, kind Kind, userID ...int64) (null.Float, error) {
	return s.aggregate(ctx, "avg", key, kind, userID)
}

func (s *SQLStorage) aggregate(ctx context.Context, fn string, key SubjectKey, kind Kind, userID []int64) (null.Float, error) {
	var value sql.NullFloat64
	tx := s.Unmask().WithContext(ctx).
		Model(new(Reaction)).
		Select(fn + "(score)").
		Where("subject_type = ? and subject_id = ? and kind = ?", key.Type, key.ID, kind)
	if len(userID) > 0 {
		tx = tx.Where("user_id = ?", userID[0])
	}

	if err := tx.Scan(&value).Error; err != nil {
		return null.Float{}, errors.Wrap(err, fn)
	}

	return null.NewFloat(value.Float64, value.Valid), nil
}

func (s *SQLStorage) List(ctx context.Context, key SubjectKey, kind ...Kind) ([]Reaction, error) {
	rows := make([]Reaction, 0)
	tx := s.Unmask().WithContext(ctx).
		Where("subject_type = ? and subject_id = ?", key.Type, key.ID)
	if len(kind) > 0 {
		tx = tx.Where("kind = ?", kind[0])
	}

	return rows, errors.Wrap(tx.Order("id asc").Find(&rows).Error, "list")
}

func scopeKey(key SubjectKey, userID int64, kind Kind) string {
	return strings.Join([]string{
		key.String(),
		strconv.FormatInt(userID, 10),
		string(kind),
	}, "+")
}
