package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memonize/memonize/internal/catalog"
	"github.com/memonize/memonize/internal/domain/entities"
	"github.com/memonize/memonize/internal/repository"
)

// fakeClock drives the debounced sync with virtual time. Advance fires
// every timer whose deadline has passed, in scheduling order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	fn       func()
	stopped  bool
	fired    bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, deadline: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.deadline.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// memLocal is an in-memory LocalStore.
type memLocal struct {
	mu     sync.Mutex
	states map[string]*entities.PersistedState
	saves  int
	err    error
}

func newMemLocal() *memLocal {
	return &memLocal{states: make(map[string]*entities.PersistedState)}
}

func (m *memLocal) SaveState(userID string, state *entities.PersistedState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.states[userID] = state
	m.saves++
	return nil
}

func (m *memLocal) LoadState(userID string) (*entities.PersistedState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	return m.states[userID], nil
}

// memRemote is an in-memory RemoteStore recording every push.
type memRemote struct {
	mu      sync.Mutex
	blobs   map[string]*entities.ProgressBlob
	pushes  []*entities.ProgressBlob
	saveErr error
	loadErr error
}

func newMemRemote() *memRemote {
	return &memRemote{blobs: make(map[string]*entities.ProgressBlob)}
}

func (m *memRemote) SaveProgress(_ context.Context, userID string, blob *entities.ProgressBlob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.blobs[userID] = blob
	m.pushes = append(m.pushes, blob)
	return nil
}

func (m *memRemote) LoadProgress(_ context.Context, userID string) (*entities.ProgressBlob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}
	blob, ok := m.blobs[userID]
	if !ok {
		return nil, repository.ErrProgressNotFound
	}
	return blob, nil
}

func (m *memRemote) pushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pushes)
}

func (m *memRemote) lastPush() *entities.ProgressBlob {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.pushes) == 0 {
		return nil
	}
	return m.pushes[len(m.pushes)-1]
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)
	return cat
}

type engineFixture struct {
	engine *Engine
	clock  *fakeClock
	local  *memLocal
	remote *memRemote
}

func newFixture(t *testing.T, userID string) *engineFixture {
	t.Helper()

	clock := newFakeClock()
	local := newMemLocal()
	remote := newMemRemote()
	eng := New(testCatalog(t), userID, local, remote, nil, Options{Clock: clock})
	return &engineFixture{engine: eng, clock: clock, local: local, remote: remote}
}

func TestEngine_Defaults(t *testing.T) {
	f := newFixture(t, "user-1")

	assert.Equal(t, entities.PhasePriming, f.engine.Phase())
	assert.True(t, f.engine.ShowEmoji())
	assert.Equal(t, "fr", f.engine.Language())

	current, longest := f.engine.Streaks()
	assert.Zero(t, current)
	assert.Zero(t, longest)

	progress := f.engine.AllCategoryProgress()
	assert.Len(t, progress, 10)
	for id, record := range progress {
		assert.Equal(t, id, record.CategoryID)
		assert.False(t, record.PrimingCompleted)
		assert.Zero(t, record.EncodingCount)
		assert.Nil(t, record.LastPracticed)
	}
}

func TestEngine_SetPhase(t *testing.T) {
	f := newFixture(t, "user-1")

	require.NoError(t, f.engine.SetPhase(entities.PhaseRetrieval))
	assert.Equal(t, entities.PhaseRetrieval, f.engine.Phase())

	err := f.engine.SetPhase(entities.Phase("cramming"))
	require.Error(t, err)
	assert.Equal(t, entities.PhaseRetrieval, f.engine.Phase())
}

func TestEngine_MarkPrimingComplete(t *testing.T) {
	f := newFixture(t, "user-1")

	require.NoError(t, f.engine.MarkPrimingComplete("places"))

	record, err := f.engine.CategoryProgress("places")
	require.NoError(t, err)
	assert.True(t, record.PrimingCompleted)

	// Idempotent: a second call keeps the flag set.
	require.NoError(t, f.engine.MarkPrimingComplete("places"))
	record, err = f.engine.CategoryProgress("places")
	require.NoError(t, err)
	assert.True(t, record.PrimingCompleted)

	err = f.engine.MarkPrimingComplete("galaxies")
	assert.ErrorIs(t, err, catalog.ErrCategoryNotFound)
}

func TestEngine_UpdateCategoryProgress(t *testing.T) {
	f := newFixture(t, "user-1")

	accuracy := 85.0
	require.NoError(t, f.engine.UpdateCategoryProgress("people", entities.CategoryProgressUpdate{
		RetrievalAccuracy: &accuracy,
	}))

	record, err := f.engine.CategoryProgress("people")
	require.NoError(t, err)
	assert.Equal(t, 85.0, record.RetrievalAccuracy)
	assert.False(t, record.PrimingCompleted) // untouched fields stay
	require.NotNil(t, record.LastPracticed)
	assert.Equal(t, f.clock.Now(), *record.LastPracticed)
}

func TestEngine_SetMnemonic(t *testing.T) {
	f := newFixture(t, "user-1")

	require.NoError(t, f.engine.SetMnemonic(8, "a snowman"))
	assert.Equal(t, "a snowman", f.engine.Mnemonic(8))

	// Whitespace-only text is rejected and the stored value survives.
	err := f.engine.SetMnemonic(8, "   ")
	assert.ErrorIs(t, err, ErrEmptyMnemonic)
	assert.Equal(t, "a snowman", f.engine.Mnemonic(8))

	// Overwriting with real text works.
	require.NoError(t, f.engine.SetMnemonic(8, "an hourglass"))
	assert.Equal(t, "an hourglass", f.engine.Mnemonic(8))

	err = f.engine.SetMnemonic(101, "out of range")
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)

	assert.Equal(t, "", f.engine.Mnemonic(9))
}

func TestEngine_MnemonicCount(t *testing.T) {
	f := newFixture(t, "user-1")

	require.NoError(t, f.engine.SetMnemonic(1, "one"))
	require.NoError(t, f.engine.SetMnemonic(5, "five"))
	require.NoError(t, f.engine.SetMnemonic(11, "eleven"))

	assert.Equal(t, 2, f.engine.MnemonicCount(1, 10))
	assert.Equal(t, 1, f.engine.MnemonicCount(11, 20))
	assert.Equal(t, 0, f.engine.MnemonicCount(21, 30))
}

func TestEngine_Streaks(t *testing.T) {
	f := newFixture(t, "user-1")

	for i := 0; i < 5; i++ {
		f.engine.UpdateStreak(true)
	}
	current, longest := f.engine.Streaks()
	assert.Equal(t, 5, current)
	assert.Equal(t, 5, longest)

	f.engine.UpdateStreak(false)
	current, longest = f.engine.Streaks()
	assert.Equal(t, 0, current)
	assert.Equal(t, 5, longest)

	for i := 0; i < 3; i++ {
		f.engine.UpdateStreak(true)
	}
	f.engine.ResetStreak()
	current, longest = f.engine.Streaks()
	assert.Equal(t, 0, current)
	assert.Equal(t, 5, longest) // longest never shrinks
}

func TestEngine_BestSpeed(t *testing.T) {
	f := newFixture(t, "user-1")

	f.engine.AddSpeedRecord(entities.SpeedRecord{Count: 20, TimeMs: 60000, Mode: entities.SpeedSprint})
	f.engine.AddSpeedRecord(entities.SpeedRecord{Count: 25, TimeMs: 58000, Mode: entities.SpeedSprint})
	f.engine.AddSpeedRecord(entities.SpeedRecord{Count: 90, TimeMs: 60000, Mode: entities.SpeedRapidFire})

	best := f.engine.BestSpeed(entities.SpeedSprint)
	require.NotNil(t, best)
	// 25 correct in 58s beats 20 in 60s on rate even though both drills
	// ran about a minute.
	assert.Equal(t, 25, best.Count)

	assert.Nil(t, f.engine.BestSpeed(entities.SpeedFullTable))
}

func TestEngine_BestSpeedTieGoesToLatest(t *testing.T) {
	f := newFixture(t, "user-1")

	f.engine.AddSpeedRecord(entities.SpeedRecord{Count: 10, TimeMs: 30000, Mode: entities.SpeedSprint})
	f.clock.Advance(time.Minute)
	f.engine.AddSpeedRecord(entities.SpeedRecord{Count: 20, TimeMs: 60000, Mode: entities.SpeedSprint})

	best := f.engine.BestSpeed(entities.SpeedSprint)
	require.NotNil(t, best)
	assert.Equal(t, 20, best.Count)
}

func TestEngine_QuizHistoryAppendOnly(t *testing.T) {
	f := newFixture(t, "user-1")

	f.engine.AddQuizResult(entities.QuizResult{
		Phase:          entities.PhaseRetrieval,
		CategoryID:     "places",
		TotalQuestions: 10,
		CorrectAnswers: 8,
		TimeSpentMs:    45000,
	})
	f.engine.AddQuizResult(entities.QuizResult{
		Phase:          entities.PhaseInterleaving,
		TotalQuestions: 10,
		CorrectAnswers: 6,
		TimeSpentMs:    52000,
	})

	history := f.engine.QuizHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "places", history[0].CategoryID)
	assert.Equal(t, "", history[1].CategoryID) // mixed quiz
	assert.Equal(t, f.clock.Now(), history[0].Timestamp)

	// The returned slice is a copy.
	history[0].CorrectAnswers = 0
	assert.Equal(t, 8, f.engine.QuizHistory()[0].CorrectAnswers)
}

func TestEngine_TogglesAndLanguage(t *testing.T) {
	f := newFixture(t, "user-1")

	assert.False(t, f.engine.ToggleShowEmoji())
	assert.False(t, f.engine.ShowEmoji())
	assert.True(t, f.engine.ToggleShowEmoji())

	f.engine.SetLanguage("en")
	assert.Equal(t, "en", f.engine.Language())
}

func TestEngine_ResetProgress(t *testing.T) {
	f := newFixture(t, "user-1")

	require.NoError(t, f.engine.MarkPrimingComplete("places"))
	require.NoError(t, f.engine.SetMnemonic(3, "a bird"))
	f.engine.AddQuizResult(entities.QuizResult{TotalQuestions: 5, CorrectAnswers: 5})
	f.engine.UpdateStreak(true)
	f.engine.SetLanguage("en")
	f.engine.ToggleShowEmoji()

	f.engine.ResetProgress()

	record, err := f.engine.CategoryProgress("places")
	require.NoError(t, err)
	assert.False(t, record.PrimingCompleted)
	assert.Equal(t, "", f.engine.Mnemonic(3))
	assert.Empty(t, f.engine.QuizHistory())

	current, longest := f.engine.Streaks()
	assert.Zero(t, current)
	assert.Zero(t, longest)

	// Preferences survive a progress reset.
	assert.Equal(t, "en", f.engine.Language())
	assert.False(t, f.engine.ShowEmoji())
}

func TestEngine_RestoresLocalState(t *testing.T) {
	clock := newFakeClock()
	local := newMemLocal()

	first := New(testCatalog(t), "user-1", local, nil, nil, Options{Clock: clock})
	require.NoError(t, first.MarkPrimingComplete("places"))
	require.NoError(t, first.SetMnemonic(8, "a snowman"))
	first.UpdateStreak(true)
	first.UpdateStreak(true)
	first.SetLanguage("en")

	second := New(testCatalog(t), "user-1", local, nil, nil, Options{Clock: clock})

	record, err := second.CategoryProgress("places")
	require.NoError(t, err)
	assert.True(t, record.PrimingCompleted)
	assert.Equal(t, "a snowman", second.Mnemonic(8))
	assert.Equal(t, "en", second.Language())

	// Session fields start fresh after a restart.
	current, longest := second.Streaks()
	assert.Zero(t, current)
	assert.Equal(t, 2, longest)
	assert.Equal(t, entities.PhasePriming, second.Phase())
}

func TestEngine_RestoreSurvivesLocalFailure(t *testing.T) {
	clock := newFakeClock()
	local := newMemLocal()
	local.err = errors.New("disk gone")

	eng := New(testCatalog(t), "user-1", local, nil, nil, Options{Clock: clock})

	// Defaults are intact and mutations still work.
	assert.True(t, eng.ShowEmoji())
	require.NoError(t, eng.MarkPrimingComplete("places"))
}

func TestEngine_LoadFromRemote(t *testing.T) {
	f := newFixture(t, "user-1")

	require.NoError(t, f.engine.MarkPrimingComplete("places"))
	require.NoError(t, f.engine.SetMnemonic(8, "a snowman"))
	f.engine.UpdateStreak(true)
	require.NoError(t, f.engine.SetPhase(entities.PhaseEncoding))
	f.engine.SetLanguage("en")
	f.clock.Advance(2 * DefaultSyncDebounce)
	require.Equal(t, 1, f.remote.pushCount())

	f.engine.ResetProgress()
	require.NoError(t, f.engine.SetPhase(entities.PhasePriming))
	record, err := f.engine.CategoryProgress("places")
	require.NoError(t, err)
	require.False(t, record.PrimingCompleted)

	require.NoError(t, f.engine.LoadFromRemote(context.Background()))

	record, err = f.engine.CategoryProgress("places")
	require.NoError(t, err)
	assert.True(t, record.PrimingCompleted)
	assert.Equal(t, "a snowman", f.engine.Mnemonic(8))
	assert.Equal(t, entities.PhaseEncoding, f.engine.Phase())
	current, _ := f.engine.Streaks()
	assert.Equal(t, 1, current)
	// Language is local-only and never clobbered by a remote load.
	assert.Equal(t, "en", f.engine.Language())
}

func TestEngine_LoadFromRemote_MissingBlobKeepsDefaults(t *testing.T) {
	f := newFixture(t, "fresh-user")

	require.NoError(t, f.engine.LoadFromRemote(context.Background()))

	assert.True(t, f.engine.ShowEmoji())
	assert.Equal(t, entities.PhasePriming, f.engine.Phase())
}

func TestEngine_LoadFromRemote_PartialBlobDefaultsFieldByField(t *testing.T) {
	f := newFixture(t, "user-1")

	f.remote.blobs["user-1"] = &entities.ProgressBlob{
		LongestStreak: 7,
		CurrentStreak: 9, // corrupt: longest must cover current
		CurrentPhase:  entities.Phase("bogus"),
	}

	require.NoError(t, f.engine.LoadFromRemote(context.Background()))

	current, longest := f.engine.Streaks()
	assert.Equal(t, 9, current)
	assert.Equal(t, 9, longest)
	assert.True(t, f.engine.ShowEmoji()) // absent pointer falls back to default
	assert.Equal(t, entities.PhasePriming, f.engine.Phase())
	assert.Len(t, f.engine.AllCategoryProgress(), 10)
}

func TestEngine_LoadFromRemote_FailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, "user-1")

	require.NoError(t, f.engine.SetMnemonic(8, "a snowman"))
	f.remote.loadErr = errors.New("network down")

	err := f.engine.LoadFromRemote(context.Background())
	require.Error(t, err)
	assert.Equal(t, "a snowman", f.engine.Mnemonic(8))
}
