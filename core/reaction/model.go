package reaction

import (
	"context"
	"strconv"
	"time"

	null "gopkg.in/guregu/null.v3"
)

// Kind discriminates star ratings from binary like votes.
// Both share the same table partitioned by this column.
type Kind string

const (
	Star Kind = "star"
	Like Kind = "like"
)

// Like-kind rows only ever hold one of these two scores.
const (
	Liked    float64 = 1
	Disliked float64 = 0
)

// SubjectKey identifies the reacted-to entity without the store
// knowing its concrete type.
type SubjectKey struct {
	Type string `gorm:"column:subject_type;not null;index:ratings_subject_idx"`
	ID   int64  `gorm:"column:subject_id;not null;index:ratings_subject_idx"`
}

func (k SubjectKey) String() string {
	return k.Type + "+" + strconv.FormatInt(k.ID, 10)
}

// Rateable is the capability any entity must supply to receive
// reactions.
type Rateable interface {
	SubjectKey() SubjectKey
}

// Subject is a plain SubjectKey carrier for callers which have no
// domain entity at hand.
type Subject SubjectKey

func (s Subject) SubjectKey() SubjectKey {
	return SubjectKey(s)
}

type Reaction struct {
	ID        int64      `gorm:"primaryKey;autoIncrement"`
	Subject   SubjectKey `gorm:"embedded"`
	UserID    null.Int   `gorm:"index"`
	Kind      Kind       `gorm:"not null;index"`
	Score     float64    `gorm:"not null;type:decimal(8,2)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Reaction) TableName() string {
	return "ratings"
}

type Storage interface {
	// Upsert converges concurrent writers for the same
	// (key, user, kind) to a single row holding the last score.
	Upsert(ctx context.Context, key SubjectKey, userID int64, kind Kind, score float64) error

	// Insert unconditionally creates a new row. An invalid UserID is
	// stored as NULL.
	Insert(ctx context.Context, row *Reaction) error

	// Delete removes matching rows, optionally filtered by score.
	// Deleting nothing is not an error.
	Delete(ctx context.Context, key SubjectKey, userID int64, kind Kind, score ...float64) (int64, error)

	Exists(ctx context.Context, key SubjectKey, userID int64, kind Kind, score float64) (bool, error)

	Count(ctx context.Context, key SubjectKey, kind Kind, score ...float64) (int64, error)

	// Sum and Avg return an invalid null.Float when no rows match.
	// Callers must not coerce that to zero.
	Sum(ctx context.Context, key SubjectKey, kind Kind, userID ...int64) (null.Float, error)
	Avg(ctx context.Context, key SubjectKey, kind Kind, userID ...int64) (null.Float, error)

	List(ctx context.Context, key SubjectKey, kind ...Kind) ([]Reaction, error)
}
