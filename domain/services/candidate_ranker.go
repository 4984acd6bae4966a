package services

import (
	"sort"

	"studybuddy-backend/domain/core/entities"
)

// RankedCandidate pairs a candidate profile with its computed score
type RankedCandidate struct {
	Profile *entities.Profile
	Score   MatchScore
}

// MatchFilters narrows a ranked candidate list after scoring. Filters
// combine with AND semantics; zero values leave a dimension unfiltered.
type MatchFilters struct {
	SameUniversity     bool
	SameCourse         bool
	SharedInterest     bool
	SharedAvailability bool
}

// CandidateRanker orders candidate profiles by compatibility with a viewer
type CandidateRanker struct {
	scorer *CompatibilityScorer
}

// NewCandidateRanker creates a candidate ranker
func NewCandidateRanker(scorer *CompatibilityScorer) *CandidateRanker {
	return &CandidateRanker{scorer: scorer}
}

// Rank scores every candidate against the viewer and returns them in
// descending score order. Equal scores keep their input order, so the same
// candidate pool always ranks the same way. The viewer's own profile,
// excluded IDs, and nil entries are skipped.
func (r *CandidateRanker) Rank(viewer *entities.Profile, pool []*entities.Profile, exclude map[string]bool) []RankedCandidate {
	ranked := make([]RankedCandidate, 0, len(pool))
	for _, candidate := range pool {
		if candidate == nil {
			continue
		}
		if viewer != nil && candidate.ID().Equals(viewer.ID()) {
			continue
		}
		if exclude[candidate.ID().String()] {
			continue
		}
		ranked = append(ranked, RankedCandidate{
			Profile: candidate,
			Score:   r.scorer.Score(viewer, candidate),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.Score > ranked[j].Score.Score
	})

	return ranked
}

// Filter applies post-ranking predicates, preserving rank order
func (r *CandidateRanker) Filter(viewer *entities.Profile, ranked []RankedCandidate, filters MatchFilters) []RankedCandidate {
	if viewer == nil {
		if filters.SameUniversity || filters.SameCourse || filters.SharedInterest || filters.SharedAvailability {
			return []RankedCandidate{}
		}
		return ranked
	}

	filtered := make([]RankedCandidate, 0, len(ranked))
	for _, rc := range ranked {
		if filters.SameUniversity {
			if viewer.University() == "" || rc.Profile.University() != viewer.University() {
				continue
			}
		}
		if filters.SameCourse {
			if viewer.CourseCode() == "" || rc.Profile.CourseCode() != viewer.CourseCode() {
				continue
			}
		}
		if filters.SharedInterest && len(intersect(viewer.Interests(), rc.Profile.Interests())) == 0 {
			continue
		}
		if filters.SharedAvailability && len(intersect(viewer.AvailabilitySlots(), rc.Profile.AvailabilitySlots())) == 0 {
			continue
		}
		filtered = append(filtered, rc)
	}
	return filtered
}

// Page returns a fixed-size window over the ranked list without reordering.
// Page numbers start at 1; out-of-range pages return an empty slice.
func (r *CandidateRanker) Page(ranked []RankedCandidate, page, pageSize int) []RankedCandidate {
	if page < 1 || pageSize < 1 {
		return []RankedCandidate{}
	}
	start := (page - 1) * pageSize
	if start >= len(ranked) {
		return []RankedCandidate{}
	}
	end := start + pageSize
	if end > len(ranked) {
		end = len(ranked)
	}
	return ranked[start:end]
}
