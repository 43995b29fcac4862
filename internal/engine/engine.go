// Package engine owns all mutable learning-progress state for one user:
// per-category progress, personal mnemonics, quiz and speed histories, and
// the answer streak. Every mutation is applied in memory synchronously,
// written to local durable storage immediately, and pushed to the remote
// store after a debounce window. Remote failures never roll back or block
// local state; the app keeps working fully offline.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/memonize/memonize/internal/catalog"
	"github.com/memonize/memonize/internal/domain/entities"
)

var ErrEmptyMnemonic = errors.New("mnemonic text is empty")

const (
	// DefaultSyncDebounce is the quiet period after the last mutation
	// before a remote push fires.
	DefaultSyncDebounce = time.Second

	// remoteCallTimeout bounds a single remote save.
	remoteCallTimeout = 10 * time.Second

	defaultShowEmoji = true
	defaultLanguage  = "fr"
)

// RemoteStore is the authenticated document store holding one serialized
// progress blob per user, last writer wins.
type RemoteStore interface {
	SaveProgress(ctx context.Context, userID string, blob *entities.ProgressBlob) error
	LoadProgress(ctx context.Context, userID string) (*entities.ProgressBlob, error)
}

// LocalStore persists the long-lived slice of engine state between app
// restarts. LoadState returns (nil, nil) when no state has been saved yet.
type LocalStore interface {
	SaveState(userID string, state *entities.PersistedState) error
	LoadState(userID string) (*entities.PersistedState, error)
}

// Options tunes an Engine. Zero values select production defaults.
type Options struct {
	Clock        Clock         // nil means the system clock
	SyncDebounce time.Duration // 0 means DefaultSyncDebounce
}

// Engine is the single source of truth for one user's learning state.
// Construct one per user and pass it to consumers; it holds no globals.
type Engine struct {
	catalog *catalog.Catalog
	local   LocalStore
	remote  RemoteStore
	logger  *zap.Logger
	clock   Clock

	userID   string
	debounce time.Duration

	mu               sync.Mutex
	currentPhase     entities.Phase
	categoryProgress map[string]*entities.CategoryProgress
	userMnemonics    map[int]*entities.UserMnemonic
	quizHistory      []entities.QuizResult
	speedRecords     []entities.SpeedRecord
	currentStreak    int
	longestStreak    int
	showEmoji        bool
	language         string

	syncTimer Timer
}

// New creates an engine for userID, restoring any previously persisted
// local state. An empty userID means no authenticated user: local behavior
// is unchanged but remote syncs become no-ops.
func New(cat *catalog.Catalog, userID string, local LocalStore, remote RemoteStore, logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.SyncDebounce <= 0 {
		opts.SyncDebounce = DefaultSyncDebounce
	}

	e := &Engine{
		catalog:  cat,
		local:    local,
		remote:   remote,
		logger:   logger,
		clock:    opts.Clock,
		userID:   userID,
		debounce: opts.SyncDebounce,
	}
	e.resetToDefaultsLocked()
	e.restoreLocal()

	return e
}

// resetToDefaultsLocked puts every state field back to its zero default.
func (e *Engine) resetToDefaultsLocked() {
	e.currentPhase = entities.DefaultPhase
	e.categoryProgress = e.defaultCategoryProgress()
	e.userMnemonics = make(map[int]*entities.UserMnemonic)
	e.quizHistory = nil
	e.speedRecords = nil
	e.currentStreak = 0
	e.longestStreak = 0
	e.showEmoji = defaultShowEmoji
	e.language = defaultLanguage
}

func (e *Engine) defaultCategoryProgress() map[string]*entities.CategoryProgress {
	progress := make(map[string]*entities.CategoryProgress)
	for _, cat := range e.catalog.Categories() {
		progress[cat.ID] = entities.NewCategoryProgress(cat.ID)
	}
	return progress
}

// restoreLocal loads the persisted slice of state saved by a previous run.
// A missing or unreadable snapshot leaves the defaults in place.
func (e *Engine) restoreLocal() {
	if e.local == nil {
		return
	}

	state, err := e.local.LoadState(e.userID)
	if err != nil {
		e.logger.Warn("failed to restore local state",
			zap.String("user_id", e.userID),
			zap.Error(err),
		)
		return
	}
	if state == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.applyPersistedLocked(state)
}

// applyPersistedLocked merges a persisted snapshot over the defaults,
// falling back field by field when a field is absent.
func (e *Engine) applyPersistedLocked(state *entities.PersistedState) {
	if state.CategoryProgress != nil {
		e.categoryProgress = e.normalizeCategoryProgress(state.CategoryProgress)
	}
	if state.UserMnemonics != nil {
		e.userMnemonics = state.UserMnemonics
	}
	if state.QuizHistory != nil {
		e.quizHistory = state.QuizHistory
	}
	if state.SpeedRecords != nil {
		e.speedRecords = state.SpeedRecords
	}
	e.longestStreak = state.LongestStreak
	if state.ShowEmoji != nil {
		e.showEmoji = *state.ShowEmoji
	}
	if state.Language != "" {
		e.language = state.Language
	}
}

// normalizeCategoryProgress guarantees a record for every known category,
// even when the loaded snapshot predates a category or misses some.
func (e *Engine) normalizeCategoryProgress(loaded map[string]*entities.CategoryProgress) map[string]*entities.CategoryProgress {
	progress := e.defaultCategoryProgress()
	for id, record := range loaded {
		if _, known := progress[id]; known && record != nil {
			record.CategoryID = id
			progress[id] = record
		}
	}
	return progress
}

// UserID returns the id passed at construction, empty when unauthenticated.
func (e *Engine) UserID() string {
	return e.userID
}

// Catalog returns the immutable recall table the engine was built over.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Phase returns the current phase pointer used by navigation.
func (e *Engine) Phase() entities.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentPhase
}

// SetPhase moves the current phase pointer and schedules a sync.
func (e *Engine) SetPhase(phase entities.Phase) error {
	if !phase.Valid() {
		return fmt.Errorf("unknown phase %q", phase)
	}

	e.mutate(func() {
		e.currentPhase = phase
	})
	return nil
}

// CategoryProgress returns a copy of the record for one category.
func (e *Engine) CategoryProgress(categoryID string) (entities.CategoryProgress, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, ok := e.categoryProgress[categoryID]
	if !ok {
		return entities.CategoryProgress{}, fmt.Errorf("category %q: %w", categoryID, catalog.ErrCategoryNotFound)
	}
	return *record, nil
}

// AllCategoryProgress returns a copy of every category record.
func (e *Engine) AllCategoryProgress() map[string]entities.CategoryProgress {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]entities.CategoryProgress, len(e.categoryProgress))
	for id, record := range e.categoryProgress {
		out[id] = *record
	}
	return out
}

// MarkPrimingComplete flags the category as primed. The operation is
// idempotent; repeated calls keep the flag set and still schedule a sync.
func (e *Engine) MarkPrimingComplete(categoryID string) error {
	if _, err := e.catalog.CategoryByID(categoryID); err != nil {
		return err
	}

	e.mutate(func() {
		e.categoryProgress[categoryID].PrimingCompleted = true
	})
	return nil
}

// UpdateCategoryProgress merges the non-nil fields of update into the
// category's record and stamps the last-practiced time.
func (e *Engine) UpdateCategoryProgress(categoryID string, update entities.CategoryProgressUpdate) error {
	if _, err := e.catalog.CategoryByID(categoryID); err != nil {
		return err
	}

	e.mutate(func() {
		record := e.categoryProgress[categoryID]
		if update.PrimingCompleted != nil {
			record.PrimingCompleted = *update.PrimingCompleted
		}
		if update.EncodingCount != nil {
			record.EncodingCount = *update.EncodingCount
		}
		if update.RetrievalAccuracy != nil {
			record.RetrievalAccuracy = *update.RetrievalAccuracy
		}
		now := e.clock.Now()
		record.LastPracticed = &now
	})
	return nil
}

// SetMnemonic saves a personal memory hook for a number, overwriting any
// previous one. Text that trims to empty is rejected and the stored
// mnemonic stays untouched.
func (e *Engine) SetMnemonic(number int, text string) error {
	if _, err := e.catalog.ItemByNumber(number); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMnemonic
	}

	e.mutate(func() {
		e.userMnemonics[number] = &entities.UserMnemonic{
			Number:    number,
			Mnemonic:  text,
			CreatedAt: e.clock.Now(),
		}
	})
	return nil
}

// Mnemonic returns the stored mnemonic for a number, or "" when none.
func (e *Engine) Mnemonic(number int) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if m, ok := e.userMnemonics[number]; ok {
		return m.Mnemonic
	}
	return ""
}

// MnemonicCount returns how many numbers within [from,to] carry a
// personal mnemonic. The delivery layer uses it to keep a category's
// encoding count in step.
func (e *Engine) MnemonicCount(from, to int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0
	for number := range e.userMnemonics {
		if number >= from && number <= to {
			count++
		}
	}
	return count
}

// AddQuizResult appends a timestamped entry to the quiz history. The
// history is append-only and unbounded; retention is a documented product
// decision, not something the engine trims silently.
func (e *Engine) AddQuizResult(result entities.QuizResult) {
	e.mutate(func() {
		result.Timestamp = e.clock.Now()
		e.quizHistory = append(e.quizHistory, result)
	})
}

// QuizHistory returns a copy of the full quiz history in insertion order.
func (e *Engine) QuizHistory() []entities.QuizResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]entities.QuizResult(nil), e.quizHistory...)
}

// AddSpeedRecord appends a timestamped entry to the speed drill history.
func (e *Engine) AddSpeedRecord(record entities.SpeedRecord) {
	e.mutate(func() {
		record.Timestamp = e.clock.Now()
		e.speedRecords = append(e.speedRecords, record)
	})
}

// SpeedRecords returns a copy of the speed history in insertion order.
func (e *Engine) SpeedRecords() []entities.SpeedRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]entities.SpeedRecord(nil), e.speedRecords...)
}

// BestSpeed returns the record for mode with the highest rate of correct
// answers per unit time, or nil when the mode has no records. Ties go to
// the most recently recorded entry.
func (e *Engine) BestSpeed(mode entities.SpeedMode) *entities.SpeedRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	var best *entities.SpeedRecord
	for i := range e.speedRecords {
		record := &e.speedRecords[i]
		if record.Mode != mode {
			continue
		}
		if best == nil || record.Rate() >= best.Rate() {
			best = record
		}
	}
	if best == nil {
		return nil
	}

	out := *best
	return &out
}

// UpdateStreak advances or resets the consecutive-correct counter. The
// longest streak only ever grows.
func (e *Engine) UpdateStreak(wasCorrect bool) {
	e.mutate(func() {
		if wasCorrect {
			e.currentStreak++
			if e.currentStreak > e.longestStreak {
				e.longestStreak = e.currentStreak
			}
			return
		}
		e.currentStreak = 0
	})
}

// ResetStreak zeroes the current streak without touching the longest one
// and without scheduling a sync.
func (e *Engine) ResetStreak() {
	e.mu.Lock()
	e.currentStreak = 0
	state := e.persistedStateLocked()
	e.mu.Unlock()

	e.saveLocal(state)
}

// Streaks returns the current and longest streak.
func (e *Engine) Streaks() (current, longest int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentStreak, e.longestStreak
}

// ShowEmoji reports the emoji display preference.
func (e *Engine) ShowEmoji() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.showEmoji
}

// ToggleShowEmoji flips the emoji display preference.
func (e *Engine) ToggleShowEmoji() bool {
	var enabled bool
	e.mutate(func() {
		e.showEmoji = !e.showEmoji
		enabled = e.showEmoji
	})
	return enabled
}

// Language returns the interface language preference.
func (e *Engine) Language() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.language
}

// SetLanguage stores the interface language preference. It is a local
// preference only and is not part of the remote blob.
func (e *Engine) SetLanguage(lang string) {
	e.mu.Lock()
	e.language = lang
	state := e.persistedStateLocked()
	e.mu.Unlock()

	e.saveLocal(state)
}

// ResetProgress restores every progress field to its zero default: all
// category records, mnemonics, both histories, and both streak counters.
func (e *Engine) ResetProgress() {
	e.mutate(func() {
		e.categoryProgress = e.defaultCategoryProgress()
		e.userMnemonics = make(map[int]*entities.UserMnemonic)
		e.quizHistory = nil
		e.speedRecords = nil
		e.currentStreak = 0
		e.longestStreak = 0
	})
}

// mutate applies fn under the lock, persists the resulting state locally,
// and schedules a debounced remote sync. Local persistence and the sync
// schedule never fail the mutation itself.
func (e *Engine) mutate(fn func()) {
	e.mu.Lock()
	fn()
	state := e.persistedStateLocked()
	e.scheduleSyncLocked()
	e.mu.Unlock()

	e.saveLocal(state)
}

func (e *Engine) saveLocal(state *entities.PersistedState) {
	if e.local == nil {
		return
	}
	if err := e.local.SaveState(e.userID, state); err != nil {
		e.logger.Warn("failed to persist local state",
			zap.String("user_id", e.userID),
			zap.Error(err),
		)
	}
}

// persistedStateLocked snapshots the long-lived fields written to local
// storage. Session fields (current streak, current phase) stay out.
func (e *Engine) persistedStateLocked() *entities.PersistedState {
	showEmoji := e.showEmoji
	return &entities.PersistedState{
		CategoryProgress: copyCategoryProgress(e.categoryProgress),
		UserMnemonics:    copyMnemonics(e.userMnemonics),
		QuizHistory:      append([]entities.QuizResult(nil), e.quizHistory...),
		SpeedRecords:     append([]entities.SpeedRecord(nil), e.speedRecords...),
		LongestStreak:    e.longestStreak,
		ShowEmoji:        &showEmoji,
		Language:         e.language,
	}
}

func copyCategoryProgress(in map[string]*entities.CategoryProgress) map[string]*entities.CategoryProgress {
	out := make(map[string]*entities.CategoryProgress, len(in))
	for id, record := range in {
		clone := *record
		out[id] = &clone
	}
	return out
}

func copyMnemonics(in map[int]*entities.UserMnemonic) map[int]*entities.UserMnemonic {
	out := make(map[int]*entities.UserMnemonic, len(in))
	for number, m := range in {
		clone := *m
		out[number] = &clone
	}
	return out
}
