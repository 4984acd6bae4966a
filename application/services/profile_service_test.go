package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "studybuddy-backend/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestProfileService_UpsertProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("creates on first write", func(t *testing.T) {
		f := newFixtures(t)
		svc := NewProfileService(f.profiles, f.logger)

		profile, err := svc.UpsertProfile(ctx, "alice", ProfileUpdate{
			DisplayName: strPtr("Alice"),
			University:  strPtr("Monash"),
			CourseLabel: strPtr("FIT2004 Algorithms"),
			Interests:   []string{"Basketball"},
		})
		require.NoError(t, err)

		assert.Equal(t, "Alice", profile.DisplayName())
		assert.Equal(t, "FIT2004", profile.CourseCode())
		assert.Equal(t, []string{"Basketball"}, profile.Interests())
	})

	t.Run("partial update keeps unset fields", func(t *testing.T) {
		f := newFixtures(t)
		svc := NewProfileService(f.profiles, f.logger)

		_, err := svc.UpsertProfile(ctx, "alice", ProfileUpdate{
			DisplayName: strPtr("Alice"),
			University:  strPtr("Monash"),
			Interests:   []string{"Basketball", "Chess"},
		})
		require.NoError(t, err)

		profile, err := svc.UpsertProfile(ctx, "alice", ProfileUpdate{
			CourseLabel: strPtr("FIT3171 Databases"),
		})
		require.NoError(t, err)

		assert.Equal(t, "Alice", profile.DisplayName())
		assert.Equal(t, "Monash", profile.University())
		assert.Equal(t, "FIT3171", profile.CourseCode())
		assert.Equal(t, []string{"Basketball", "Chess"}, profile.Interests())
	})

	t.Run("empty slice clears, nil slice keeps", func(t *testing.T) {
		f := newFixtures(t)
		svc := NewProfileService(f.profiles, f.logger)

		_, err := svc.UpsertProfile(ctx, "alice", ProfileUpdate{
			Interests: []string{"Basketball"},
		})
		require.NoError(t, err)

		profile, err := svc.UpsertProfile(ctx, "alice", ProfileUpdate{
			Interests: []string{},
		})
		require.NoError(t, err)
		assert.Empty(t, profile.Interests())
	})

	t.Run("defaults the display name", func(t *testing.T) {
		f := newFixtures(t)
		svc := NewProfileService(f.profiles, f.logger)

		profile, err := svc.UpsertProfile(ctx, "alice", ProfileUpdate{})
		require.NoError(t, err)
		assert.Equal(t, "Student", profile.DisplayName())
	})
}

func TestProfileService_GetProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixtures(t)
	f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
	svc := NewProfileService(f.profiles, f.logger)

	profile, err := svc.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.DisplayName())

	_, err = svc.GetProfile(ctx, "ghost")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.GetProfile(ctx, "  ")
	assert.True(t, apperrors.IsInvalidArgument(err))
}
