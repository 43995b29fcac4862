package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memonize/memonize/internal/domain/entities"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "memonize.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleState() *entities.PersistedState {
	showEmoji := false
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return &entities.PersistedState{
		CategoryProgress: map[string]*entities.CategoryProgress{
			"places": {CategoryID: "places", PrimingCompleted: true, EncodingCount: 3, RetrievalAccuracy: 80},
		},
		UserMnemonics: map[int]*entities.UserMnemonic{
			8: {Number: 8, Mnemonic: "8 looks like a snowman", CreatedAt: created},
		},
		QuizHistory: []entities.QuizResult{
			{Timestamp: created, Phase: entities.PhaseRetrieval, CategoryID: "places", TotalQuestions: 10, CorrectAnswers: 8, TimeSpentMs: 60000},
		},
		SpeedRecords: []entities.SpeedRecord{
			{Timestamp: created, Count: 20, TimeMs: 60000, Mode: entities.SpeedSprint},
		},
		LongestStreak: 12,
		ShowEmoji:     &showEmoji,
		Language:      "en",
	}
}

func TestLocalStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	state := sampleState()

	require.NoError(t, store.SaveState("user-1", state))

	loaded, err := store.LoadState("user-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, state.CategoryProgress, loaded.CategoryProgress)
	assert.Equal(t, state.UserMnemonics, loaded.UserMnemonics)
	assert.Equal(t, state.QuizHistory, loaded.QuizHistory)
	assert.Equal(t, state.SpeedRecords, loaded.SpeedRecords)
	assert.Equal(t, 12, loaded.LongestStreak)
	require.NotNil(t, loaded.ShowEmoji)
	assert.False(t, *loaded.ShowEmoji)
	assert.Equal(t, "en", loaded.Language)
}

func TestLocalStore_MissingUser(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.LoadState("nobody")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLocalStore_OverwriteKeepsLatest(t *testing.T) {
	store := newTestStore(t)

	first := sampleState()
	require.NoError(t, store.SaveState("user-1", first))

	second := sampleState()
	second.LongestStreak = 30
	require.NoError(t, store.SaveState("user-1", second))

	loaded, err := store.LoadState("user-1")
	require.NoError(t, err)
	assert.Equal(t, 30, loaded.LongestStreak)
}

func TestLocalStore_UsersAreIsolated(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveState("user-1", sampleState()))

	loaded, err := store.LoadState("user-2")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLocalStore_Delete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveState("user-1", sampleState()))
	require.NoError(t, store.DeleteState("user-1"))

	loaded, err := store.LoadState("user-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
