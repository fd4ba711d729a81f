package stats

import (
	"context"

	"github.com/pkg/errors"
	null "gopkg.in/guregu/null.v3"

	"rateable/core/reaction"
	"rateable/core/vote"
)

// Default derives reportable statistics from the store's query
// primitives. Reads run with the store's default consistency; no
// aggregate errors on empty data.
type Default struct {
	*Context
}

func New(ctx *Context) *Default {
	return &Default{Context: ctx}
}

func (c *Default) TotalVotes(ctx context.Context, subject reaction.Rateable, kind reaction.Kind) (int64, error) {
	return c.Count(ctx, subject.SubjectKey(), kind)
}

func (c *Default) TotalLiked(ctx context.Context, subject reaction.Rateable) (int64, error) {
	return c.Count(ctx, subject.SubjectKey(), reaction.Like, reaction.Liked)
}

func (c *Default) TotalDisliked(ctx context.Context, subject reaction.Rateable) (int64, error) {
	return c.Count(ctx, subject.SubjectKey(), reaction.Like, reaction.Disliked)
}

func (c *Default) SumRating(ctx context.Context, subject reaction.Rateable) (null.Float, error) {
	return c.Sum(ctx, subject.SubjectKey(), reaction.Star)
}

func (c *Default) AverageRating(ctx context.Context, subject reaction.Rateable) (null.Float, error) {
	return c.Avg(ctx, subject.SubjectKey(), reaction.Star)
}

func (c *Default) UserSumRating(ctx context.Context, subject reaction.Rateable, userID ...int64) (null.Float, error) {
	id, err := c.requireUser(ctx, userID)
	if err != nil {
		return null.Float{}, err
	}

	return c.Sum(ctx, subject.SubjectKey(), reaction.Star, id)
}

func (c *Default) UserAverageRating(ctx context.Context, subject reaction.Rateable, userID ...int64) (null.Float, error) {
	id, err := c.requireUser(ctx, userID)
	if err != nil {
		return null.Float{}, err
	}

	return c.Avg(ctx, subject.SubjectKey(), reaction.Star, id)
}

// RatingPercent returns sum * 100 / (count * maxPoint), saturating to
// 0 when the denominator is zero.
func (c *Default) RatingPercent(ctx context.Context, subject reaction.Rateable) (float64, error) {
	key := subject.SubjectKey()
	count, err := c.Count(ctx, key, reaction.Star)
	if err != nil {
		return 0, errors.Wrap(err, "count")
	}

	sum, err := c.Sum(ctx, key, reaction.Star)
	if err != nil {
		return 0, errors.Wrap(err, "sum")
	}

	denominator := count * int64(c.maxPoint())
	if denominator <= 0 || !sum.Valid {
		return 0, nil
	}

	return sum.Float64 * 100 / float64(denominator), nil
}

// RateStats collects the star aggregates in one call. The user
// average stays null when no acting user resolves.
func (c *Default) RateStats(ctx context.Context, subject reaction.Rateable, userID ...int64) (*RateStats, error) {
	key := subject.SubjectKey()
	bundle := new(RateStats)

	var err error
	if bundle.AvgRating, err = c.Avg(ctx, key, reaction.Star); err != nil {
		return nil, errors.Wrap(err, "avg")
	}

	if bundle.Sum, err = c.Sum(ctx, key, reaction.Star); err != nil {
		return nil, errors.Wrap(err, "sum")
	}

	if bundle.TotalVotes, err = c.Count(ctx, key, reaction.Star); err != nil {
		return nil, errors.Wrap(err, "count")
	}

	if bundle.Percentage, err = c.RatingPercent(ctx, subject); err != nil {
		return nil, errors.Wrap(err, "percent")
	}

	user, err := c.resolve(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve identity")
	}

	if user.Valid {
		if bundle.UserAvgRating, err = c.Avg(ctx, key, reaction.Star, user.Int64); err != nil {
			return nil, errors.Wrap(err, "user avg")
		}
	}

	return bundle, nil
}

// LikeStats collects the like-kind aggregates in one call.
func (c *Default) LikeStats(ctx context.Context, subject reaction.Rateable, userID ...int64) (*LikeStats, error) {
	key := subject.SubjectKey()
	bundle := new(LikeStats)

	var err error
	if bundle.TotalVotes, err = c.Count(ctx, key, reaction.Like); err != nil {
		return nil, errors.Wrap(err, "count")
	}

	if bundle.TotalLikes, err = c.Count(ctx, key, reaction.Like, reaction.Liked); err != nil {
		return nil, errors.Wrap(err, "count likes")
	}

	if bundle.TotalDislikes, err = c.Count(ctx, key, reaction.Like, reaction.Disliked); err != nil {
		return nil, errors.Wrap(err, "count dislikes")
	}

	user, err := c.resolve(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve identity")
	}

	if user.Valid {
		if bundle.IsLiked, err = c.Exists(ctx, key, user.Int64, reaction.Like, reaction.Liked); err != nil {
			return nil, errors.Wrap(err, "liked")
		}

		if bundle.IsDisliked, err = c.Exists(ctx, key, user.Int64, reaction.Like, reaction.Disliked); err != nil {
			return nil, errors.Wrap(err, "disliked")
		}
	}

	return bundle, nil
}

func (c *Default) Snapshot(ctx context.Context, subject reaction.Rateable, userID ...int64) (*Snapshot, error) {
	rating, err := c.RateStats(ctx, subject, userID...)
	if err != nil {
		return nil, err
	}

	likes, err := c.LikeStats(ctx, subject, userID...)
	if err != nil {
		return nil, err
	}

	return &Snapshot{Rating: *rating, Likes: *likes}, nil
}

func (c *Default) resolve(ctx context.Context, userID []int64) (null.Int, error) {
	if len(userID) > 0 {
		return null.IntFrom(userID[0]), nil
	}

	if c.Identity == nil {
		return null.Int{}, nil
	}

	return c.Identity.CurrentUserID(ctx)
}

func (c *Default) requireUser(ctx context.Context, userID []int64) (int64, error) {
	id, err := c.resolve(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "resolve identity")
	}

	if !id.Valid {
		return 0, vote.ErrNoIdentity
	}

	return id.Int64, nil
}
