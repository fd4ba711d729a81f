package vote

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	null "gopkg.in/guregu/null.v3"

	"rateable/core/reaction"
)

// Default implements the reaction verbs for a single Mode on top of
// the reaction store. Every verb accepts an optional trailing user id
// which bypasses the Identity resolver entirely.
type Default struct {
	*Context
}

func New(ctx *Context) *Default {
	return &Default{Context: ctx}
}

func (v *Default) Like(ctx context.Context, subject reaction.Rateable, userID ...int64) error {
	if v.Mode.Kind != reaction.Like {
		return ErrWrongMode
	}

	id, err := v.requireUser(ctx, userID)
	if err != nil {
		return err
	}

	return errors.Wrap(v.Upsert(ctx, subject.SubjectKey(), id, reaction.Like, reaction.Liked), "like")
}

// Dislike records an explicit negative vote. It updates the same row
// partition a like created: the upsert is scoped by kind, not by a
// separate dislike kind.
func (v *Default) Dislike(ctx context.Context, subject reaction.Rateable, userID ...int64) error {
	if v.Mode.Kind != reaction.Like || v.Mode.Dislike != ZeroScore {
		return ErrWrongMode
	}

	id, err := v.requireUser(ctx, userID)
	if err != nil {
		return err
	}

	return errors.Wrap(v.Upsert(ctx, subject.SubjectKey(), id, reaction.Like, reaction.Disliked), "dislike")
}

// Unlike deletes the liked row, returning the user to neutral.
// Unliking a subject the user never liked is a no-op.
func (v *Default) Unlike(ctx context.Context, subject reaction.Rateable, userID ...int64) error {
	if v.Mode.Kind != reaction.Like || v.Mode.Dislike != DeleteRow {
		return ErrWrongMode
	}

	id, err := v.requireUser(ctx, userID)
	if err != nil {
		return err
	}

	deleted, err := v.Delete(ctx, subject.SubjectKey(), id, reaction.Like, reaction.Liked)
	if err != nil {
		return errors.Wrap(err, "unlike")
	}

	if deleted == 0 {
		logrus.WithFields(logrus.Fields{
			"subject": subject.SubjectKey(),
			"user":    id,
		}).Debug("unlike: nothing to delete")
	}

	return nil
}

func (v *Default) ToggleLike(ctx context.Context, subject reaction.Rateable, userID ...int64) error {
	if v.Mode.Kind != reaction.Like {
		return ErrWrongMode
	}

	id, err := v.requireUser(ctx, userID)
	if err != nil {
		return err
	}

	liked, err := v.Exists(ctx, subject.SubjectKey(), id, reaction.Like, reaction.Liked)
	if err != nil {
		return errors.Wrap(err, "check liked")
	}

	log := logrus.WithFields(logrus.Fields{
		"subject": subject.SubjectKey(),
		"user":    id,
	})

	if liked {
		if v.Mode.Dislike == ZeroScore {
			log.Debug("toggle: dislike")
			return v.Dislike(ctx, subject, id)
		}

		log.Debug("toggle: unlike")
		return v.Unlike(ctx, subject, id)
	}

	log.Debug("toggle: like")
	return v.Like(ctx, subject, id)
}

func (v *Default) IsLiked(ctx context.Context, subject reaction.Rateable, userID ...int64) (bool, error) {
	if v.Mode.Kind != reaction.Like {
		return false, ErrWrongMode
	}

	id, err := v.requireUser(ctx, userID)
	if err != nil {
		return false, err
	}

	return v.Exists(ctx, subject.SubjectKey(), id, reaction.Like, reaction.Liked)
}

func (v *Default) IsDisliked(ctx context.Context, subject reaction.Rateable, userID ...int64) (bool, error) {
	if v.Mode.Kind != reaction.Like || v.Mode.Dislike != ZeroScore {
		return false, ErrWrongMode
	}

	id, err := v.requireUser(ctx, userID)
	if err != nil {
		return false, err
	}

	return v.Exists(ctx, subject.SubjectKey(), id, reaction.Like, reaction.Disliked)
}

// Rate inserts a new star row on every call. Anonymous callers are
// allowed: the row keeps a NULL user id.
func (v *Default) Rate(ctx context.Context, subject reaction.Rateable, score float64, userID ...int64) error {
	if v.Mode.Kind != reaction.Star || v.Mode.Uniqueness != Repeatable {
		return ErrWrongMode
	}

	if err := v.Mode.CheckScore(score); err != nil {
		return err
	}

	id, err := v.resolve(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "resolve identity")
	}

	row := &reaction.Reaction{
		Subject: subject.SubjectKey(),
		UserID:  id,
		Kind:    reaction.Star,
		Score:   score,
	}

	return errors.Wrap(v.Insert(ctx, row), "rate")
}

// RateOnce keeps at most one star row per user per subject; repeated
// calls overwrite the score.
func (v *Default) RateOnce(ctx context.Context, subject reaction.Rateable, score float64, userID ...int64) error {
	if v.Mode.Kind != reaction.Star || v.Mode.Uniqueness != OncePerUser {
		return ErrWrongMode
	}

	if err := v.Mode.CheckScore(score); err != nil {
		return err
	}

	id, err := v.requireUser(ctx, userID)
	if err != nil {
		return err
	}

	return errors.Wrap(v.Upsert(ctx, subject.SubjectKey(), id, reaction.Star, score), "rate once")
}

func (v *Default) resolve(ctx context.Context, userID []int64) (null.Int, error) {
	if len(userID) > 0 {
		return null.IntFrom(userID[0]), nil
	}

	if v.Identity == nil {
		return null.Int{}, nil
	}

	return v.Identity.CurrentUserID(ctx)
}

func (v *Default) requireUser(ctx context.Context, userID []int64) (int64, error) {
	id, err := v.resolve(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "resolve identity")
	}

	if !id.Valid {
		return 0, ErrNoIdentity
	}

	return id.Int64, nil
}
