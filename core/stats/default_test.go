package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	null "gopkg.in/guregu/null.v3"

	"rateable/core/reaction"
	"rateable/core/stats"
	"rateable/core/vote"
	gormutil "rateable/util/gorm"
)

type post int64

func (p post) SubjectKey() reaction.SubjectKey {
	return reaction.SubjectKey{Type: "posts", ID: int64(p)}
}

func TestCalculator(t *testing.T) {
	ctx, cancel := getContext()
	defer cancel()

	db := gormutil.NewTestDatabase(t)
	defer db.Close()

	storage := (*reaction.SQLStorage)(db.DB)
	assert.Nil(t, storage.Init(ctx))

	calculator := stats.New(&stats.Context{
		Storage:  storage,
		Identity: vote.StaticIdentity(1),
		MaxPoint: 5,
	})

	subject := post(1)

	// no data: null sentinels and zero counts, never errors
	sum, err := calculator.SumRating(ctx, subject)
	assert.Nil(t, err)
	assert.False(t, sum.Valid)

	avg, err := calculator.AverageRating(ctx, subject)
	assert.Nil(t, err)
	assert.False(t, avg.Valid)

	total, err := calculator.TotalVotes(ctx, subject, reaction.Star)
	assert.Nil(t, err)
	assert.Equal(t, int64(0), total)

	percent, err := calculator.RatingPercent(ctx, subject)
	assert.Nil(t, err)
	assert.Equal(t, float64(0), percent)

	votes := vote.New(&vote.Context{
		Storage:  storage,
		Identity: vote.StaticIdentity(1),
		Mode:     vote.Star(),
	})

	assert.Nil(t, votes.Rate(ctx, subject, 3))
	assert.Nil(t, votes.Rate(ctx, subject, 5))
	assert.Nil(t, votes.Rate(ctx, subject, 4, 2))

	total, err = calculator.TotalVotes(ctx, subject, reaction.Star)
	assert.Nil(t, err)
	assert.Equal(t, int64(3), total)

	sum, err = calculator.SumRating(ctx, subject)
	assert.Nil(t, err)
	assert.Equal(t, null.FloatFrom(12), sum)

	avg, err = calculator.AverageRating(ctx, subject)
	assert.Nil(t, err)
	assert.Equal(t, null.FloatFrom(4), avg)

	userAvg, err := calculator.UserAverageRating(ctx, subject)
	assert.Nil(t, err)
	assert.Equal(t, null.FloatFrom(4), userAvg)

	userSum, err := calculator.UserSumRating(ctx, subject, 2)
	assert.Nil(t, err)
	assert.Equal(t, null.FloatFrom(4), userSum)

	percent, err = calculator.RatingPercent(ctx, subject)
	assert.Nil(t, err)
	assert.Equal(t, float64(80), percent)

	bundle, err := calculator.RateStats(ctx, subject)
	assert.Nil(t, err)
	assert.Equal(t, null.FloatFrom(4), bundle.AvgRating)
	assert.Equal(t, null.FloatFrom(4), bundle.UserAvgRating)
	assert.Equal(t, int64(3), bundle.TotalVotes)
	assert.Equal(t, float64(80), bundle.Percentage)
	assert.Equal(t, null.FloatFrom(12), bundle.Sum)
}

func TestCalculator_Likes(t *testing.T) {
	ctx, cancel := getContext()
	defer cancel()

	db := gormutil.NewTestDatabase(t)
	defer db.Close()

	storage := (*reaction.SQLStorage)(db.DB)
	assert.Nil(t, storage.Init(ctx))

	votes := vote.New(&vote.Context{
		Storage:  storage,
		Identity: vote.StaticIdentity(1),
		Mode:     vote.LikeDislike(),
	})

	subject := post(2)

	assert.Nil(t, votes.Like(ctx, subject))
	assert.Nil(t, votes.Like(ctx, subject, 2))
	assert.Nil(t, votes.Dislike(ctx, subject, 3))

	calculator := stats.New(&stats.Context{
		Storage:  storage,
		Identity: vote.StaticIdentity(1),
		MaxPoint: 5,
	})

	likes, err := calculator.TotalLiked(ctx, subject)
	assert.Nil(t, err)
	assert.Equal(t, int64(2), likes)

	dislikes, err := calculator.TotalDisliked(ctx, subject)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), dislikes)

	bundle, err := calculator.LikeStats(ctx, subject)
	assert.Nil(t, err)
	assert.Equal(t, int64(3), bundle.TotalVotes)
	assert.Equal(t, int64(2), bundle.TotalLikes)
	assert.Equal(t, int64(1), bundle.TotalDislikes)
	assert.True(t, bundle.IsLiked)
	assert.False(t, bundle.IsDisliked)

	bundle, err = calculator.LikeStats(ctx, subject, 3)
	assert.Nil(t, err)
	assert.False(t, bundle.IsLiked)
	assert.True(t, bundle.IsDisliked)

	snapshot, err := calculator.Snapshot(ctx, subject)
	assert.Nil(t, err)
	assert.Equal(t, int64(3), snapshot.Likes.TotalVotes)
	assert.Equal(t, int64(0), snapshot.Rating.TotalVotes)
	assert.False(t, snapshot.Rating.Sum.Valid)

	// anonymous consumers get aggregate numbers without per-user state
	anonymous := stats.New(&stats.Context{
		Storage:  storage,
		Identity: vote.Anonymous{},
		MaxPoint: 5,
	})

	bundle, err = anonymous.LikeStats(ctx, subject)
	assert.Nil(t, err)
	assert.Equal(t, int64(2), bundle.TotalLikes)
	assert.False(t, bundle.IsLiked)
	assert.False(t, bundle.IsDisliked)

	_, err = anonymous.UserSumRating(ctx, subject)
	assert.Equal(t, vote.ErrNoIdentity, err)
}

func TestCalculator_Percent(t *testing.T) {
	ctx, cancel := getContext()
	defer cancel()

	db := gormutil.NewTestDatabase(t)
	defer db.Close()

	storage := (*reaction.SQLStorage)(db.DB)
	assert.Nil(t, storage.Init(ctx))

	votes := vote.New(&vote.Context{
		Storage:  storage,
		Identity: vote.StaticIdentity(1),
		Mode:     vote.Star(),
	})

	subject := post(3)
	assert.Nil(t, votes.Rate(ctx, subject, 5))

	// an unset max point falls back to the default scale
	calculator := stats.New(&stats.Context{
		Storage:  storage,
		Identity: vote.StaticIdentity(1),
	})

	percent, err := calculator.RatingPercent(ctx, subject)
	assert.Nil(t, err)
	assert.Equal(t, float64(100), percent)

	// no votes at all saturates to 0 instead of dividing by zero
	percent, err = calculator.RatingPercent(ctx, post(4))
	assert.Nil(t, err)
	assert.Equal(t, float64(0), percent)
}

func getContext() (context.Context, func()) {
	return context.WithTimeout(context.Background(), time.Minute)
}
