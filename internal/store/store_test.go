package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ahietala/whodunit/internal/db"
	"github.com/ahietala/whodunit/internal/game"
	"github.com/ahietala/whodunit/internal/mystery"
	"github.com/ahietala/whodunit/internal/oracle"
	"github.com/ahietala/whodunit/internal/store"
)

func testSession(t *testing.T) *game.Session {
	t.Helper()
	c, err := oracle.NewScripted(3).GenerateCase(context.Background(), mystery.LanguageJA)
	require.NoError(t, err)
	now := time.Date(2026, 2, 21, 10, 0, 0, 0, time.UTC)
	return &game.Session{
		ID:                 "session-1",
		Status:             game.StatusPlaying,
		Language:           mystery.LanguageJA,
		Case:               c,
		QuestionsRemaining: game.MaxQuestions,
		History:            []game.Exchange{},
		UnlockedEvidence:   []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// sessionStores builds one store of each backend so every test covers both.
func sessionStores(t *testing.T) map[string]game.SessionStore {
	t.Helper()
	dbs, err := db.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, dbs.Close())
	})
	return map[string]game.SessionStore{
		"sqlite": store.NewSQLiteStore(dbs),
		"memory": store.NewMemoryStore(),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			session := testSession(t)
			require.NoError(t, s.Put(context.Background(), session))

			loaded, err := s.Get(context.Background(), session.ID)
			require.NoError(t, err)
			require.Equal(t, session.ID, loaded.ID)
			require.Equal(t, session.Status, loaded.Status)
			require.Equal(t, session.Case, loaded.Case)
			require.Equal(t, session.QuestionsRemaining, loaded.QuestionsRemaining)
		})
	}
}

func TestStorePutOverwrites(t *testing.T) {
	for name, s := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			session := testSession(t)
			require.NoError(t, s.Put(context.Background(), session))

			session.Status = game.StatusGuessing
			session.QuestionsRemaining = 0
			session.History = append(session.History, game.Exchange{
				Question: "q",
				Answer:   "a",
				AskedAt:  session.UpdatedAt,
			})
			require.NoError(t, s.Put(context.Background(), session))

			loaded, err := s.Get(context.Background(), session.ID)
			require.NoError(t, err)
			require.Equal(t, game.StatusGuessing, loaded.Status)
			require.Equal(t, 0, loaded.QuestionsRemaining)
			require.Len(t, loaded.History, 1)
		})
	}
}

func TestStoreGetUnknown(t *testing.T) {
	for name, s := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(context.Background(), "missing")
			require.ErrorIs(t, err, game.ErrSessionNotFound)
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, s := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			session := testSession(t)
			require.NoError(t, s.Put(context.Background(), session))
			require.NoError(t, s.Delete(context.Background(), session.ID))

			_, err := s.Get(context.Background(), session.ID)
			require.ErrorIs(t, err, game.ErrSessionNotFound)

			// Deleting an unknown id is not an error.
			require.NoError(t, s.Delete(context.Background(), "missing"))
		})
	}
}

func TestStoreCopiesOnGet(t *testing.T) {
	for name, s := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			session := testSession(t)
			require.NoError(t, s.Put(context.Background(), session))

			first, err := s.Get(context.Background(), session.ID)
			require.NoError(t, err)
			first.Status = game.StatusEnded
			first.UnlockedEvidence = append(first.UnlockedEvidence, "e1")

			second, err := s.Get(context.Background(), session.ID)
			require.NoError(t, err)
			require.Equal(t, game.StatusPlaying, second.Status)
			require.Empty(t, second.UnlockedEvidence)
		})
	}
}
