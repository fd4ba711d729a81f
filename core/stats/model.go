package stats

import (
	null "gopkg.in/guregu/null.v3"

	"rateable/core/reaction"
	"rateable/core/vote"
)

// RateStats bundles the star-rating aggregates of one subject.
// Sum and averages stay null when no rows exist.
type RateStats struct {
	AvgRating     null.Float `json:"avg_rating"`
	UserAvgRating null.Float `json:"user_avg_rating"`
	TotalVotes    int64      `json:"total_votes"`
	Percentage    float64    `json:"percentage"`
	Sum           null.Float `json:"sum"`
}

// LikeStats bundles the like-kind aggregates of one subject. The
// per-user flags stay false when no acting user resolves.
type LikeStats struct {
	TotalVotes    int64 `json:"total_votes"`
	TotalLikes    int64 `json:"total_likes"`
	TotalDislikes int64 `json:"total_dislikes"`
	IsLiked       bool  `json:"is_liked"`
	IsDisliked    bool  `json:"is_disliked"`
}

// Snapshot is the single-call statistics view across both kinds.
type Snapshot struct {
	Rating RateStats `json:"rating"`
	Likes  LikeStats `json:"likes"`
}

type Context struct {
	reaction.Storage
	Identity vote.Identity

	// MaxPoint is the star scale used by RatingPercent.
	// Zero falls back to vote.DefaultMaxPoint.
	MaxPoint int
}

func (c *Context) maxPoint() int {
	if c.MaxPoint > 0 {
		return c.MaxPoint
	}

	return vote.DefaultMaxPoint
}
