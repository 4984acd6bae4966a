package entities

import (
	"strings"
	"time"

	"studybuddy-backend/domain/core/valueobjects"
	pkgerrors "studybuddy-backend/pkg/errors"
)

// Profile is the read model of a student as the matching core sees it.
// The onboarding flow owns writes; the core only ever reads these fields,
// so the entity exposes no mutators beyond reconstruction.
type Profile struct {
	id                valueobjects.UserID
	displayName       string
	university        string
	courseLabel       string
	major             string
	interests         []string
	academicGoals     []string
	availabilitySlots []string
	createdAt         time.Time
	updatedAt         time.Time
}

// NewProfile creates a profile for a newly onboarded user
func NewProfile(id valueobjects.UserID, displayName string) (*Profile, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewInvalidArgumentError("profile requires a user ID")
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = "Student"
	}

	now := time.Now()
	return &Profile{
		id:          id,
		displayName: displayName,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructProfile rebuilds a profile from repository data
func ReconstructProfile(
	id valueobjects.UserID,
	displayName, university, courseLabel, major string,
	interests, academicGoals, availabilitySlots []string,
	createdAt, updatedAt time.Time,
) (*Profile, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewInvalidArgumentError("profile requires a user ID")
	}
	if displayName == "" {
		displayName = "Student"
	}

	return &Profile{
		id:                id,
		displayName:       displayName,
		university:        university,
		courseLabel:       courseLabel,
		major:             major,
		interests:         dedupe(interests),
		academicGoals:     dedupe(academicGoals),
		availabilitySlots: dedupe(availabilitySlots),
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}, nil
}

// ID returns the subject user's ID
func (p *Profile) ID() valueobjects.UserID {
	return p.id
}

// DisplayName returns the human-facing name
func (p *Profile) DisplayName() string {
	return p.displayName
}

// University returns the university name, empty if unset
func (p *Profile) University() string {
	return p.university
}

// CourseLabel returns the full course label, e.g. "FIT2004 Algorithms"
func (p *Profile) CourseLabel() string {
	return p.courseLabel
}

// CourseCode returns the primary course-code token: the first
// whitespace-delimited token of the course label.
func (p *Profile) CourseCode() string {
	fields := strings.Fields(p.courseLabel)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Major returns the declared major, empty if unset
func (p *Profile) Major() string {
	return p.major
}

// Interests returns the interest set
func (p *Profile) Interests() []string {
	return copyStrings(p.interests)
}

// AcademicGoals returns the academic goal set
func (p *Profile) AcademicGoals() []string {
	return copyStrings(p.academicGoals)
}

// AvailabilitySlots returns the study availability set
func (p *Profile) AvailabilitySlots() []string {
	return copyStrings(p.availabilitySlots)
}

// CreatedAt returns when the profile was created
func (p *Profile) CreatedAt() time.Time {
	return p.createdAt
}

// UpdatedAt returns when the profile was last updated
func (p *Profile) UpdatedAt() time.Time {
	return p.updatedAt
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// dedupe removes duplicates while preserving first-seen order
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
