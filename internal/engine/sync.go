package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/memonize/memonize/internal/domain/entities"
	"github.com/memonize/memonize/internal/repository"
)

// scheduleSyncLocked arms the debounce timer for a remote push. A timer
// armed by an earlier mutation is canceled first, so any burst of
// mutations inside the quiet period collapses into a single outbound
// write carrying the state as of fire time.
func (e *Engine) scheduleSyncLocked() {
	if e.remote == nil || e.userID == "" {
		return
	}

	if e.syncTimer != nil {
		e.syncTimer.Stop()
	}
	e.syncTimer = e.clock.AfterFunc(e.debounce, e.pushRemote)
}

// pushRemote serializes the full progress surface and writes it to the
// remote store. Failures are logged and dropped: local state is already
// durable and stays authoritative, and the next mutation re-arms the sync.
func (e *Engine) pushRemote() {
	e.mu.Lock()
	e.syncTimer = nil
	blob := e.snapshotLocked()
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), remoteCallTimeout)
	defer cancel()

	if err := e.remote.SaveProgress(ctx, e.userID, blob); err != nil {
		e.logger.Warn("remote sync failed",
			zap.String("user_id", e.userID),
			zap.Error(err),
		)
		return
	}

	e.logger.Debug("progress synced to remote", zap.String("user_id", e.userID))
}

// Flush pushes any pending sync immediately. Call it on shutdown so the
// last debounce window is not lost.
func (e *Engine) Flush() {
	e.mu.Lock()
	pending := e.syncTimer != nil
	if pending {
		e.syncTimer.Stop()
		e.syncTimer = nil
	}
	e.mu.Unlock()

	if pending && e.remote != nil && e.userID != "" {
		e.pushRemote()
	}
}

// Snapshot returns the full progress surface as a blob, the structure
// both stores serialize.
func (e *Engine) Snapshot() *entities.ProgressBlob {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() *entities.ProgressBlob {
	showEmoji := e.showEmoji
	return &entities.ProgressBlob{
		CategoryProgress: copyCategoryProgress(e.categoryProgress),
		UserMnemonics:    copyMnemonics(e.userMnemonics),
		QuizHistory:      append([]entities.QuizResult(nil), e.quizHistory...),
		SpeedRecords:     append([]entities.SpeedRecord(nil), e.speedRecords...),
		CurrentStreak:    e.currentStreak,
		LongestStreak:    e.longestStreak,
		ShowEmoji:        &showEmoji,
		CurrentPhase:     e.currentPhase,
		UpdatedAt:        e.clock.Now(),
	}
}

// LoadFromRemote fetches the persisted blob for the engine's user and
// wholesale replaces local state with it, falling back to defaults for
// any field absent from the blob. A missing blob is not an error: the
// defaults simply stay. On adapter failure local state is left untouched
// and the error is returned for the caller to report.
func (e *Engine) LoadFromRemote(ctx context.Context) error {
	if e.remote == nil || e.userID == "" {
		return nil
	}

	blob, err := e.remote.LoadProgress(ctx, e.userID)
	if err != nil {
		if errors.Is(err, repository.ErrProgressNotFound) {
			return nil
		}
		e.logger.Warn("failed to load progress from remote",
			zap.String("user_id", e.userID),
			zap.Error(err),
		)
		return err
	}

	e.mu.Lock()
	e.applyBlobLocked(blob)
	state := e.persistedStateLocked()
	e.mu.Unlock()

	e.saveLocal(state)
	return nil
}

// applyBlobLocked replaces every piece of state with the remote values,
// defaulting field by field when the blob omits something. Partial blobs
// never fail the load.
func (e *Engine) applyBlobLocked(blob *entities.ProgressBlob) {
	// Language is a local preference and not part of the remote blob.
	language := e.language
	e.resetToDefaultsLocked()
	e.language = language

	if blob == nil {
		return
	}
	if blob.CategoryProgress != nil {
		e.categoryProgress = e.normalizeCategoryProgress(blob.CategoryProgress)
	}
	if blob.UserMnemonics != nil {
		e.userMnemonics = blob.UserMnemonics
	}
	if blob.QuizHistory != nil {
		e.quizHistory = blob.QuizHistory
	}
	if blob.SpeedRecords != nil {
		e.speedRecords = blob.SpeedRecords
	}
	e.currentStreak = blob.CurrentStreak
	e.longestStreak = blob.LongestStreak
	if e.longestStreak < e.currentStreak {
		e.longestStreak = e.currentStreak
	}
	if blob.ShowEmoji != nil {
		e.showEmoji = *blob.ShowEmoji
	}
	if blob.CurrentPhase.Valid() {
		e.currentPhase = blob.CurrentPhase
	}
}
