package models

import (
	"sort"
	"time"
)

// LevelUnlock records which word identities were introduced to a user
// when a lesson level was started
type LevelUnlock struct {
	ID         int64
	UserID     int64
	Language   string
	Level      int
	WordHashes []string
	UnlockedAt time.Time
}

// SameWordSet reports whether the stored set matches the given hashes,
// ignoring order and duplicates
func (u *LevelUnlock) SameWordSet(hashes []string) bool {
	return equalSets(u.WordHashes, hashes)
}

func equalSets(a, b []string) bool {
	as := dedupeSorted(a)
	bs := dedupeSorted(b)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func dedupeSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
