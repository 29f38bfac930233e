// Package digest holds the classified output of one run and the
// tiering rule that partitions entries into top picks and quick looks.
package digest

import (
	"sort"
	"time"

	"github.com/kevinmichaelchen/trend-digest/internal/models"
)

// Tier classifies a digest entry.
type Tier string

const (
	// TierTop entries get full summaries in the report and are the
	// only ones broadcast to webhooks.
	TierTop Tier = "top"
	// TierQuick entries appear as compact bullet lines.
	TierQuick Tier = "quick"
)

// Entry is one repository plus its summary and tier.
type Entry struct {
	Repo    models.Repo
	Summary models.Summary
	Tier    Tier
}

// Digest is the full classified output of one run.
type Digest struct {
	Date     time.Time
	Language string
	Since    string
	Source   string
	Entries  []Entry
}

// TopPicks returns the top-tier entries in their digest order.
func (d *Digest) TopPicks() []Entry {
	return d.byTier(TierTop)
}

// QuickLooks returns the quick-tier entries in their digest order.
func (d *Digest) QuickLooks() []Entry {
	return d.byTier(TierQuick)
}

func (d *Digest) byTier(t Tier) []Entry {
	var out []Entry
	for _, e := range d.Entries {
		if e.Tier == t {
			out = append(out, e)
		}
	}
	return out
}

// TotalStars sums cumulative stars across all entries.
func (d *Digest) TotalStars() int {
	var n int
	for _, e := range d.Entries {
		n += e.Repo.Stars
	}
	return n
}

// TotalStarsGained sums the per-period star figures. Zero when the
// entries came from the search fallback.
func (d *Digest) TotalStarsGained() int {
	var n int
	for _, e := range d.Entries {
		n += e.Repo.StarsGained
	}
	return n
}

// AssignTiers partitions entries: the topN by stars gained become
// TierTop, the rest TierQuick. When no entry has a positive
// stars-gained figure (the search fallback reports none), listing
// order decides instead. This is a digest-level decision taken after
// all entries are summarized.
//
// Top picks are then reordered by score, breaking ties on stars
// gained; quick looks keep their listing order.
func AssignTiers(entries []Entry, topN int) []Entry {
	if topN < 0 {
		topN = 0
	}

	anyGained := false
	for _, e := range entries {
		if e.Repo.StarsGained > 0 {
			anyGained = true
			break
		}
	}

	// Rank indices rather than entries so listing order survives for
	// the quick tier.
	rank := make([]int, len(entries))
	for i := range rank {
		rank[i] = i
	}
	if anyGained {
		sort.SliceStable(rank, func(i, j int) bool {
			return entries[rank[i]].Repo.StarsGained > entries[rank[j]].Repo.StarsGained
		})
	}

	top := make(map[int]bool, topN)
	for i := 0; i < len(rank) && i < topN; i++ {
		top[rank[i]] = true
	}

	var topPicks, quickLooks []Entry
	for i, e := range entries {
		if top[i] {
			e.Tier = TierTop
			topPicks = append(topPicks, e)
		} else {
			e.Tier = TierQuick
			quickLooks = append(quickLooks, e)
		}
	}

	sort.SliceStable(topPicks, func(i, j int) bool {
		if topPicks[i].Summary.Score != topPicks[j].Summary.Score {
			return topPicks[i].Summary.Score > topPicks[j].Summary.Score
		}
		return topPicks[i].Repo.StarsGained > topPicks[j].Repo.StarsGained
	})

	return append(topPicks, quickLooks...)
}
