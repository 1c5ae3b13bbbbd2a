package models

import (
	"math"
	"time"
)

// Familiarity bounds; every stored value is clamped into this range
const (
	MinFamiliarity = 0.0
	MaxFamiliarity = 5.0
)

// Familiarity is a per-user record of how well the user knows one word.
// The level is stored as a float because grading applies half-point deltas.
type Familiarity struct {
	ID           int64
	UserID       int64
	WordHash     string
	Familiarity  float64
	SeenCount    int
	CorrectCount int
	Comment      string
	UnlockedAt   time.Time
	UpdatedAt    time.Time
}

// Bucket maps the familiarity level onto the 0..5 dashboard buckets
func (f *Familiarity) Bucket() int {
	return FamiliarityBucket(f.Familiarity)
}

// FamiliarityBucket floors a familiarity level into a 0..5 bucket
func FamiliarityBucket(level float64) int {
	b := int(math.Floor(level))
	if b < 0 {
		return 0
	}
	if b > 5 {
		return 5
	}
	return b
}

// ClampFamiliarity forces a level into the legal range
func ClampFamiliarity(level float64) float64 {
	if level < MinFamiliarity {
		return MinFamiliarity
	}
	if level > MaxFamiliarity {
		return MaxFamiliarity
	}
	return level
}
