package vote

import (
	"context"

	"github.com/pkg/errors"
	null "gopkg.in/guregu/null.v3"

	"rateable/core/reaction"
)

var (
	// ErrNoIdentity means a verb needed an acting user and neither an
	// explicit id nor the Identity resolver produced one.
	ErrNoIdentity = errors.New("no identity")

	// ErrInvalidScore means the score is outside the mode's domain.
	ErrInvalidScore = errors.New("invalid score")

	// ErrWrongMode means the verb is not defined for the configured mode.
	ErrWrongMode = errors.New("wrong mode")
)

// Identity resolves the current acting user when a verb receives no
// explicit user id. Implementations must be pure lookups.
type Identity interface {
	CurrentUserID(ctx context.Context) (null.Int, error)
}

// StaticIdentity always resolves to a fixed user.
type StaticIdentity int64

func (id StaticIdentity) CurrentUserID(ctx context.Context) (null.Int, error) {
	return null.IntFrom(int64(id)), nil
}

// Anonymous never resolves a user.
type Anonymous struct{}

func (Anonymous) CurrentUserID(ctx context.Context) (null.Int, error) {
	return null.Int{}, nil
}

type Uniqueness uint8

const (
	// OncePerUser keeps at most one row per (subject, user, kind);
	// repeated votes overwrite the score in place.
	OncePerUser Uniqueness = iota

	// Repeatable inserts a new row on every vote.
	Repeatable
)

type Dislike uint8

const (
	// DeleteRow models "no longer liked" as row removal. There is no
	// stored dislike state in this representation.
	DeleteRow Dislike = iota

	// ZeroScore models dislike as an explicit score-0 row, updated in
	// the same row partition a like created.
	ZeroScore
)

const DefaultMaxPoint = 5

// Mode selects one of the coexisting reaction behaviors instead of
// duplicating near-identical policy types per behavior.
type Mode struct {
	Kind       reaction.Kind
	Uniqueness Uniqueness
	Dislike    Dislike
	MaxPoint   int
}

// LikeOnly is the delete-based like variant: like/unlike/toggle,
// absence of a row means neutral.
func LikeOnly() Mode {
	return Mode{Kind: reaction.Like, Uniqueness: OncePerUser, Dislike: DeleteRow}
}

// LikeDislike is the score-based variant: toggling a liked subject
// records an explicit dislike rather than neutrality.
func LikeDislike() Mode {
	return Mode{Kind: reaction.Like, Uniqueness: OncePerUser, Dislike: ZeroScore}
}

// Star is the repeatable rating variant: every vote accumulates.
func Star() Mode {
	return Mode{Kind: reaction.Star, Uniqueness: Repeatable, MaxPoint: DefaultMaxPoint}
}

// StarOnce keeps a single star row per user per subject.
func StarOnce() Mode {
	return Mode{Kind: reaction.Star, Uniqueness: OncePerUser, MaxPoint: DefaultMaxPoint}
}

func (m Mode) maxPoint() int {
	if m.MaxPoint > 0 {
		return m.MaxPoint
	}

	return DefaultMaxPoint
}

// CheckScore validates a star score against the mode's range before
// any store call.
func (m Mode) CheckScore(score float64) error {
	if score < 0 || score > float64(m.maxPoint()) {
		return ErrInvalidScore
	}

	return nil
}

type Context struct {
	reaction.Storage
	Identity Identity
	Mode     Mode
}
