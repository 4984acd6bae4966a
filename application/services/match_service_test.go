package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy-backend/domain/core/entities"
	domainservices "studybuddy-backend/domain/services"
	apperrors "studybuddy-backend/pkg/errors"
)

func newMatchService(f *fixtures) *MatchService {
	ranker := domainservices.NewCandidateRanker(domainservices.NewCompatibilityScorer())
	return NewMatchService(f.profiles, f.connections, ranker, f.logger)
}

func TestMatchService_Suggestions(t *testing.T) {
	ctx := context.Background()

	t.Run("ranks candidates and never suggests the viewer", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004 Algorithms")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004 Algorithms")
		f.seedProfile(t, "carol", "Carol", "RMIT", "COSC1107 Computing Theory")
		svc := newMatchService(f)

		suggestions, total, err := svc.Suggestions(ctx, "alice", domainservices.MatchFilters{}, 1, 20)
		require.NoError(t, err)
		require.Len(t, suggestions, 2)
		assert.Equal(t, 2, total)

		// Bob shares university and course, so he ranks above carol
		assert.Equal(t, "bob", suggestions[0].Profile.ID().String())
		assert.Equal(t, "carol", suggestions[1].Profile.ID().String())
		assert.Greater(t, suggestions[0].Score, suggestions[1].Score)
		assert.Contains(t, suggestions[0].Reasons, "Same university: Monash")
	})

	t.Run("accepted connections disappear, pending ones are annotated", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
		f.seedProfile(t, "carol", "Carol", "Monash", "FIT2004")
		connSvc := newConnectionService(f)
		svc := newMatchService(f)

		// alice <-> bob accepted, alice -> carol pending
		_, err := connSvc.RequestConnection(ctx, "alice", "bob")
		require.NoError(t, err)
		_, err = connSvc.RequestConnection(ctx, "bob", "alice")
		require.NoError(t, err)
		_, err = connSvc.RequestConnection(ctx, "alice", "carol")
		require.NoError(t, err)

		suggestions, _, err := svc.Suggestions(ctx, "alice", domainservices.MatchFilters{}, 1, 20)
		require.NoError(t, err)
		require.Len(t, suggestions, 1)

		assert.Equal(t, "carol", suggestions[0].Profile.ID().String())
		assert.Equal(t, entities.ViewerStatusOutgoingPending, suggestions[0].ConnectionStatus)
	})

	t.Run("filters narrow the pool", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004 Algorithms")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT3171 Databases")
		f.seedProfile(t, "carol", "Carol", "Monash", "FIT2004 Algorithms and Data Structures")
		svc := newMatchService(f)

		suggestions, total, err := svc.Suggestions(ctx, "alice", domainservices.MatchFilters{SameCourse: true}, 1, 20)
		require.NoError(t, err)
		require.Len(t, suggestions, 1)
		assert.Equal(t, 1, total)
		assert.Equal(t, "carol", suggestions[0].Profile.ID().String())
	})

	t.Run("paging slices the ranked list", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
		f.seedProfile(t, "carol", "Carol", "Monash", "FIT2004")
		f.seedProfile(t, "dave", "Dave", "Monash", "FIT2004")
		svc := newMatchService(f)

		first, total, err := svc.Suggestions(ctx, "alice", domainservices.MatchFilters{}, 1, 2)
		require.NoError(t, err)
		second, _, err := svc.Suggestions(ctx, "alice", domainservices.MatchFilters{}, 2, 2)
		require.NoError(t, err)

		require.Len(t, first, 2)
		require.Len(t, second, 1)
		assert.Equal(t, 3, total)
		assert.NotEqual(t, first[0].Profile.ID(), second[0].Profile.ID())
	})

	t.Run("unknown viewer is rejected", func(t *testing.T) {
		f := newFixtures(t)
		svc := newMatchService(f)

		_, _, err := svc.Suggestions(ctx, "ghost", domainservices.MatchFilters{}, 1, 20)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestMatchService_ScoreAgainst(t *testing.T) {
	ctx := context.Background()
	f := newFixtures(t)
	f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004 Algorithms")
	f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004 Algorithms and Data Structures")
	svc := newMatchService(f)

	score, err := svc.ScoreAgainst(ctx, "alice", "bob")
	require.NoError(t, err)

	// Same university and same course code
	assert.InDelta(t, 4.0, score.Score, 0.001)
	assert.Contains(t, score.Reasons, "Same course: FIT2004")

	_, err = svc.ScoreAgainst(ctx, "alice", "ghost")
	assert.True(t, apperrors.IsNotFound(err))
}
