package models

import (
	"math"
	"time"
)

// Progress status values
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// CompletionThreshold is the minimum percent score that marks a level completed
const CompletionThreshold = 60

// LevelProgress is the denormalized per-user, per-group, per-level aggregate
// of familiarity buckets used for fast dashboard reads. It is a derived view:
// the familiarity store and lesson content remain the sources of truth.
type LevelProgress struct {
	ID          int64
	UserID      int64
	GroupID     string
	Level       int
	TotalWords  int
	Buckets     [6]int
	Score       int
	Status      string
	CompletedAt *time.Time
	LastUpdated time.Time
}

// BucketSum returns the total across all six buckets; after a refresh it
// always equals TotalWords
func (p *LevelProgress) BucketSum() int {
	sum := 0
	for _, n := range p.Buckets {
		sum += n
	}
	return sum
}

// NormalizeScore converts a raw score to an integer percent. Values at or
// below 1.1 are treated as fractions and scaled; everything is clamped
// into [0, 100].
func NormalizeScore(raw float64) int {
	if raw <= 1.1 {
		raw *= 100
	}
	score := int(math.Round(raw))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// StatusForScore maps a percent score onto the completion status
func StatusForScore(score int) string {
	if score >= CompletionThreshold {
		return StatusCompleted
	}
	return StatusInProgress
}
