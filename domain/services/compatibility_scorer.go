package services

import (
	"fmt"
	"math"
	"strings"

	"studybuddy-backend/domain/core/entities"
)

// Scoring weights. Course and university matches dominate because two people
// at the same campus in the same unit can actually study together.
const (
	courseMatchWeight        = 2.0
	universityMatchWeight    = 2.0
	sharedInterestWeight     = 1.5
	sharedGoalWeight         = 1.5
	sharedAvailabilityWeight = 1.25

	maxReasons         = 4
	maxInterestReasons = 3

	fallbackReason = "General compatibility"
)

// MatchScore is the result of comparing two profiles
type MatchScore struct {
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// CompatibilityScorer computes a symmetric match score between two profiles
type CompatibilityScorer struct{}

// NewCompatibilityScorer creates a compatibility scorer
func NewCompatibilityScorer() *CompatibilityScorer {
	return &CompatibilityScorer{}
}

// Score compares a viewer's profile against a candidate's. Either profile
// may be nil, in which case the score is zero with no reasons.
func (s *CompatibilityScorer) Score(viewer, candidate *entities.Profile) MatchScore {
	if viewer == nil || candidate == nil {
		return MatchScore{Score: 0, Reasons: []string{}}
	}

	var score float64
	reasons := make([]string, 0, maxReasons)

	sameUniversity := viewer.University() != "" &&
		candidate.University() != "" &&
		viewer.University() == candidate.University()
	if sameUniversity {
		score += universityMatchWeight
		reasons = append(reasons, fmt.Sprintf("Same university: %s", viewer.University()))
	}

	sameCourse := viewer.CourseCode() != "" &&
		viewer.CourseCode() == candidate.CourseCode()
	if sameCourse {
		score += courseMatchWeight
		reasons = append(reasons, fmt.Sprintf("Same course: %s", viewer.CourseCode()))
	}

	sharedInterests := intersect(viewer.Interests(), candidate.Interests())
	score += float64(len(sharedInterests)) * sharedInterestWeight
	for i, interest := range sharedInterests {
		if i >= maxInterestReasons {
			break
		}
		reasons = append(reasons, fmt.Sprintf("Shared interest: %s", interest))
	}

	sharedGoals := intersect(viewer.AcademicGoals(), candidate.AcademicGoals())
	score += float64(len(sharedGoals)) * sharedGoalWeight

	sharedSlots := intersect(viewer.AvailabilitySlots(), candidate.AvailabilitySlots())
	if len(sharedSlots) > 0 {
		score += float64(len(sharedSlots)) * sharedAvailabilityWeight
		reasons = append(reasons, "Overlapping availability")
	}

	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	if len(reasons) == 0 {
		reasons = append(reasons, fallbackReason)
	}

	return MatchScore{
		Score:   roundToTenth(score),
		Reasons: reasons,
	}
}

// intersect returns the elements of a that also appear in b, preserving
// a's order. Comparison is case-sensitive on trimmed values.
func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	set := make(map[string]bool, len(b))
	for _, item := range b {
		item = strings.TrimSpace(item)
		if item != "" {
			set[item] = true
		}
	}

	var shared []string
	seen := make(map[string]bool, len(a))
	for _, item := range a {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] || !set[item] {
			continue
		}
		seen[item] = true
		shared = append(shared, item)
	}
	return shared
}

func roundToTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
