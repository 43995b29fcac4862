package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/memonize/memonize/internal/domain/entities"
	"github.com/memonize/memonize/internal/quiz"
	"github.com/memonize/memonize/internal/storage"
)

// startChoiceSession begins a multiple choice run: a category quiz for the
// retrieval phase or a whole-table one for interleaving.
func (h *Handler) startChoiceSession(chatID int64, userID string, phase entities.Phase, categoryID string) error {
	h.replaceSession(chatID)

	total := h.training.QuizLength
	if total <= 0 {
		total = 10
	}

	session := &storage.Session{
		Kind:       storage.SessionQuiz,
		Phase:      phase,
		CategoryID: categoryID,
		Total:      total,
		StartedAt:  time.Now(),
	}
	h.sessions.Store(chatID, session)

	return h.askNextQuestion(chatID, userID, session)
}

// askNextQuestion generates and sends the next multiple choice question of
// a quiz or speed session.
func (h *Handler) askNextQuestion(chatID int64, userID string, session *storage.Session) error {
	pool := h.catalog.Items()
	if session.CategoryID != "" {
		pool = h.catalog.ItemsByCategory(session.CategoryID)
	}
	if len(pool) == 0 {
		return fmt.Errorf("question pool for category %q: %w", session.CategoryID, quiz.ErrPoolTooSmall)
	}

	target := pool[h.rng.Intn(len(pool))]

	mode := quiz.ModeNumberToWord
	if h.rng.Intn(2) == 1 {
		mode = quiz.ModeWordToNumber
	}

	q := quiz.MultipleChoice(h.rng, target, pool, mode, quiz.DefaultOptionCount)
	session.Mode = mode
	session.Current = &q
	h.sessions.Store(chatID, session)

	var prompt string
	if mode == quiz.ModeWordToNumber {
		prompt = fmt.Sprintf("Which number is <b>%s</b>?", q.Prompt)
	} else {
		prompt = fmt.Sprintf("What is the word for <b>%s</b>?", q.Prompt)
	}
	if session.Total > 0 && session.Kind == storage.SessionQuiz {
		prompt = fmt.Sprintf("<b>%d/%d</b> · %s", session.Asked+1, session.Total, prompt)
	}

	msg := newHTMLMessage(chatID, prompt)
	msg.ReplyMarkup = buildAnswerKeyboard(&q)
	h.send(msg)
	return nil
}

// handleChoiceAnswer scores one answered question and either continues the
// session or closes it out.
func (h *Handler) handleChoiceAnswer(chatID int64, userID string, session *storage.Session, index int) error {
	q := session.Current
	if q == nil || index < 0 || index >= len(q.Options) {
		return nil
	}

	eng := h.engines.Get(userID)
	correct := index == q.CorrectIndex
	eng.UpdateStreak(correct)

	session.Asked++
	if correct {
		session.Correct++
		h.send(newHTMLMessage(chatID, "✅ Right!"))
	} else {
		h.send(newHTMLMessage(chatID, fmt.Sprintf("❌ It was <b>%s</b> (%d. %s).", q.CorrectAnswer, q.Target.Number, q.Target.Word)))
	}

	if session.Kind == storage.SessionSpeed {
		if !session.Deadline.IsZero() && time.Now().After(session.Deadline) {
			return h.finishSpeedDrill(chatID, userID, session, session.Deadline.Sub(session.StartedAt))
		}
		if session.Total > 0 && session.Asked >= session.Total {
			return h.finishSpeedDrill(chatID, userID, session, time.Since(session.StartedAt))
		}
		return h.askNextQuestion(chatID, userID, session)
	}

	if session.Asked >= session.Total {
		return h.finishQuiz(chatID, userID, session)
	}
	return h.askNextQuestion(chatID, userID, session)
}

// finishQuiz records the quiz result and, for category quizzes, the fresh
// retrieval accuracy.
func (h *Handler) finishQuiz(chatID int64, userID string, session *storage.Session) error {
	h.sessions.Delete(chatID)

	eng := h.engines.Get(userID)
	eng.AddQuizResult(entities.QuizResult{
		Phase:          session.Phase,
		CategoryID:     session.CategoryID,
		TotalQuestions: session.Asked,
		CorrectAnswers: session.Correct,
		TimeSpentMs:    time.Since(session.StartedAt).Milliseconds(),
	})

	accuracy := float64(session.Correct) / float64(session.Asked) * 100
	if session.CategoryID != "" {
		if err := eng.UpdateCategoryProgress(session.CategoryID, entities.CategoryProgressUpdate{
			RetrievalAccuracy: &accuracy,
		}); err != nil {
			return err
		}
	}

	current, longest := eng.Streaks()
	text := fmt.Sprintf(
		"<b>Quiz finished</b>\n\n🎯 %d of %d correct (%.0f%%)\n🔥 Streak: %d (best %d)",
		session.Correct, session.Asked, accuracy, current, longest,
	)
	h.send(newHTMLMessage(chatID, text))
	return nil
}

// finishSpeedDrill records the drill and announces a new personal record.
func (h *Handler) finishSpeedDrill(chatID int64, userID string, session *storage.Session, elapsed time.Duration) error {
	h.sessions.Delete(chatID)

	eng := h.engines.Get(userID)
	record := entities.SpeedRecord{
		Count:  session.Correct,
		TimeMs: elapsed.Milliseconds(),
		Mode:   session.SpeedMode,
	}

	previous := eng.BestSpeed(session.SpeedMode)
	eng.AddSpeedRecord(record)

	text := fmt.Sprintf("%s\n\n<b>%s:</b> %d correct in %.0fs",
		msgTimeUp, speedModeLabels[session.SpeedMode], record.Count, elapsed.Seconds())
	if previous == nil || record.Rate() > previous.Rate() {
		text += "\n\n🏆 New personal record!"
	}
	h.send(newHTMLMessage(chatID, text))
	return nil
}

// handleNeighborsAnswer checks a "before, after" text answer.
func (h *Handler) handleNeighborsAnswer(chatID int64, userID string, session *storage.Session, text string) error {
	q := session.Neighbors
	if q == nil {
		h.sessions.Delete(chatID)
		return nil
	}

	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		h.send(newHTMLMessage(chatID, msgNeighborsFormat))
		return nil
	}

	h.sessions.Delete(chatID)

	eng := h.engines.Get(userID)
	correct := q.Check(parts[0], parts[1])
	eng.UpdateStreak(correct)
	eng.AddQuizResult(entities.QuizResult{
		Phase:          session.Phase,
		TotalQuestions: 1,
		CorrectAnswers: boolToInt(correct),
		TimeSpentMs:    time.Since(session.StartedAt).Milliseconds(),
	})

	if correct {
		h.send(newHTMLMessage(chatID, "✅ Both right! The table is settling in."))
	} else {
		h.send(newHTMLMessage(chatID, fmt.Sprintf(
			"❌ Around <b>%d. %s</b> sit <b>%s</b> and <b>%s</b>.",
			q.Target.Number, q.Target.Word, q.PrevWord, q.NextWord,
		)))
	}
	return nil
}

// handleOddOneOutAnswer checks a picked item against the odd one.
func (h *Handler) handleOddOneOutAnswer(chatID int64, userID string, session *storage.Session, number int) error {
	q := session.OddOneOut
	if q == nil {
		h.sessions.Delete(chatID)
		return nil
	}

	h.sessions.Delete(chatID)

	eng := h.engines.Get(userID)
	correct := number == q.OddItem.Number
	eng.UpdateStreak(correct)
	eng.AddQuizResult(entities.QuizResult{
		Phase:          session.Phase,
		TotalQuestions: 1,
		CorrectAnswers: boolToInt(correct),
		TimeSpentMs:    time.Since(session.StartedAt).Milliseconds(),
	})

	lang := eng.Language()
	if correct {
		h.send(newHTMLMessage(chatID, fmt.Sprintf(
			"✅ Exactly. <b>%s</b> does not belong to %s.",
			q.OddItem.Word, categoryName(q.MainCategory, lang),
		)))
	} else {
		h.send(newHTMLMessage(chatID, fmt.Sprintf(
			"❌ The odd one was <b>%d. %s</b>; the rest are from %s.",
			q.OddItem.Number, q.OddItem.Word, categoryName(q.MainCategory, lang),
		)))
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
