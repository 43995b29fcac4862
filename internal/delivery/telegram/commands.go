package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/memonize/memonize/internal/domain/entities"
	"github.com/memonize/memonize/internal/quiz"
	"github.com/memonize/memonize/internal/storage"
)

// phasesHandler shows the six training phases with the current one marked.
func (h *Handler) phasesHandler(userID string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		eng := h.engines.Get(userID)
		current := eng.Phase()

		var sb strings.Builder
		sb.WriteString("<b>Training phases</b>\n\n")
		for _, phase := range entities.Phases {
			if phase == current {
				sb.WriteString("➡️ ")
			}
			sb.WriteString(phaseLabels[phase])
			sb.WriteString("\n\n")
		}
		sb.WriteString("Tap a phase to make it your current one.")

		msg := newHTMLMessage(chatID, sb.String())
		msg.ReplyMarkup = buildPhaseKeyboard(current)
		h.send(msg)
		return nil
	}
}

// categoriesHandler shows the category overview with progress markers.
func (h *Handler) categoriesHandler(userID string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		eng := h.engines.Get(userID)
		lang := eng.Language()
		progress := eng.AllCategoryProgress()

		var sb strings.Builder
		sb.WriteString("<b>Categories</b>\n\n")
		for _, cat := range h.catalog.Categories() {
			sb.WriteString(categoryOverviewLine(cat, progress[cat.ID], lang))
			sb.WriteString("\n")
		}
		sb.WriteString("\nTap a category to browse its ten words.")

		msg := newHTMLMessage(chatID, sb.String())
		msg.ReplyMarkup = buildCategoryListKeyboard(h.catalog.Categories(), lang)
		h.send(msg)
		return nil
	}
}

// mnemonicHandler saves or shows a personal mnemonic.
// "/mnemonic 8 looks like a snowman" saves, "/mnemonic 8" shows.
func (h *Handler) mnemonicHandler(userID, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		fields := strings.Fields(args)
		if len(fields) == 0 {
			h.send(newHTMLMessage(chatID, msgUseMnemonic))
			return nil
		}

		number, err := strconv.Atoi(fields[0])
		if err != nil {
			h.send(newHTMLMessage(chatID, msgIncorrectNumber))
			return nil
		}

		item, err := h.catalog.ItemByNumber(number)
		if err != nil {
			h.send(newHTMLMessage(chatID, msgIncorrectNumber))
			return nil
		}

		eng := h.engines.Get(userID)

		text := strings.TrimSpace(strings.TrimPrefix(args, fields[0]))
		if text == "" {
			stored := eng.Mnemonic(number)
			reply := fmt.Sprintf("%s\n\n<b>Hint:</b> %s", itemLine(*item, eng.ShowEmoji()), item.Hint)
			if stored != "" {
				reply += fmt.Sprintf("\n<b>Your mnemonic:</b> %s", stored)
			} else {
				reply += "\n\nNo mnemonic yet. Save one with /mnemonic " + fields[0] + " your idea"
			}
			h.send(newHTMLMessage(chatID, reply))
			return nil
		}

		if err := eng.SetMnemonic(number, text); err != nil {
			h.send(newHTMLMessage(chatID, msgEmptyMnemonic))
			return nil
		}

		// Keep the category's encoding count in step with the saved hooks.
		cat, err := h.catalog.CategoryOf(number)
		if err != nil {
			return err
		}
		count := eng.MnemonicCount(cat.StartNum, cat.EndNum)
		if err := eng.UpdateCategoryProgress(cat.ID, entities.CategoryProgressUpdate{EncodingCount: &count}); err != nil {
			return err
		}

		reply := fmt.Sprintf("Saved for <b>%d. %s</b>: %s\n\n%d/10 mnemonics in %s.",
			item.Number, item.Word, text, count, categoryName(*cat, eng.Language()))
		h.send(newHTMLMessage(chatID, reply))
		return nil
	}
}

// tableHandler shows one page of the full reference table.
func (h *Handler) tableHandler(userID string, page int) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		eng := h.engines.Get(userID)
		items := h.catalog.Items()
		totalPages := (len(items) + itemsPerPage - 1) / itemsPerPage

		msg := newHTMLMessage(chatID, tablePage(items, page, totalPages, eng.ShowEmoji()))
		if kb := buildTableKeyboard(page, totalPages); kb != nil {
			msg.ReplyMarkup = kb
		}
		h.send(msg)
		return nil
	}
}

// itemHandler shows one number in detail.
func (h *Handler) itemHandler(userID, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		number, err := strconv.Atoi(strings.TrimSpace(args))
		if err != nil {
			h.send(newHTMLMessage(chatID, msgIncorrectNumber))
			return nil
		}

		item, err := h.catalog.ItemByNumber(number)
		if err != nil {
			h.send(newHTMLMessage(chatID, msgIncorrectNumber))
			return nil
		}

		cat, err := h.catalog.CategoryOf(number)
		if err != nil {
			return err
		}

		eng := h.engines.Get(userID)
		h.send(newHTMLMessage(chatID, itemCard(*item, *cat, eng.Mnemonic(number), eng.ShowEmoji(), eng.Language())))
		return nil
	}
}

// quizHandler starts a category quiz, or a mixed one when no category given.
func (h *Handler) quizHandler(userID, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		categoryID := strings.TrimSpace(strings.ToLower(args))
		if categoryID != "" {
			if _, err := h.catalog.CategoryByID(categoryID); err != nil {
				h.send(newHTMLMessage(chatID, msgUnknownCategory))
				return nil
			}
		}

		phase := entities.PhaseRetrieval
		if categoryID == "" {
			phase = entities.PhaseInterleaving
		}
		return h.startChoiceSession(chatID, userID, phase, categoryID)
	}
}

// mixedHandler starts a whole-table quiz for the interleaving phase.
func (h *Handler) mixedHandler(userID string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		return h.startChoiceSession(chatID, userID, entities.PhaseInterleaving, "")
	}
}

// neighborsHandler asks for the words around a random number.
func (h *Handler) neighborsHandler(userID string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		h.replaceSession(chatID)

		q, err := quiz.Neighbors(h.rng, h.catalog)
		if err != nil {
			return err
		}

		h.sessions.Store(chatID, &storage.Session{
			Kind:      storage.SessionNeighbors,
			Phase:     entities.PhaseInterleaving,
			Neighbors: &q,
			Total:     1,
			StartedAt: time.Now(),
		})

		text := fmt.Sprintf(
			"🔀 <b>Neighbors</b>\n\nWhich words sit right before and right after <b>%d. %s</b>?\n\n%s",
			q.Target.Number, q.Target.Word, msgNeighborsFormat,
		)
		h.send(newHTMLMessage(chatID, text))
		return nil
	}
}

// oddOneOutHandler shows four items, one from a different category.
func (h *Handler) oddOneOutHandler(userID string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		h.replaceSession(chatID)

		q, err := quiz.OddOneOut(h.rng, h.catalog)
		if err != nil {
			return err
		}

		h.sessions.Store(chatID, &storage.Session{
			Kind:      storage.SessionOddOneOut,
			Phase:     entities.PhaseInterleaving,
			OddOneOut: &q,
			Total:     1,
			StartedAt: time.Now(),
		})

		msg := newHTMLMessage(chatID, "🕵️ <b>Odd one out</b>\n\nThree of these words share a category. Which one does not belong?")
		msg.ReplyMarkup = buildOddOneOutKeyboard(&q)
		h.send(msg)
		return nil
	}
}

// speedHandler starts a timed drill.
func (h *Handler) speedHandler(userID string, mode entities.SpeedMode) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		h.replaceSession(chatID)

		now := time.Now()
		session := &storage.Session{
			Kind:      storage.SessionSpeed,
			Phase:     entities.PhaseOverlearning,
			SpeedMode: mode,
			StartedAt: now,
		}

		var intro string
		switch mode {
		case entities.SpeedSprint:
			session.Deadline = now.Add(h.training.SprintDuration)
			intro = fmt.Sprintf("⚡ <b>Sprint</b> — as many right answers as you can in %d seconds. Go!", int(h.training.SprintDuration.Seconds()))
		case entities.SpeedRapidFire:
			session.Deadline = now.Add(h.training.RapidDuration)
			intro = fmt.Sprintf("⚡ <b>Rapid fire</b> — %d seconds on the clock. Go!", int(h.training.RapidDuration.Seconds()))
		case entities.SpeedFullTable:
			session.Total = len(h.catalog.Items())
			intro = "⚡ <b>Full table</b> — all 100 numbers, one after another. The clock stops when you finish."
		}

		h.sessions.Store(chatID, session)
		h.send(newHTMLMessage(chatID, intro))

		return h.askNextQuestion(chatID, userID, session)
	}
}

// bestHandler shows the best speed record per drill variant.
func (h *Handler) bestHandler(userID string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		eng := h.engines.Get(userID)

		var sb strings.Builder
		sb.WriteString("<b>🏆 Speed records</b>\n\n")

		any := false
		for _, mode := range []entities.SpeedMode{entities.SpeedSprint, entities.SpeedRapidFire, entities.SpeedFullTable} {
			best := eng.BestSpeed(mode)
			if best == nil {
				continue
			}
			any = true
			sb.WriteString(fmt.Sprintf("<b>%s:</b> %d correct in %.0fs\n",
				speedModeLabels[mode], best.Count, float64(best.TimeMs)/1000))
		}
		if !any {
			sb.WriteString("No records yet. Run your first drill with /sprint.")
		}

		h.send(newHTMLMessage(chatID, sb.String()))
		return nil
	}
}

// progressHandler shows the overall progress screen.
func (h *Handler) progressHandler(userID string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		eng := h.engines.Get(userID)
		h.send(newHTMLMessage(chatID, progressOverview(eng, eng.Language())))
		return nil
	}
}

// streakHandler shows the current and longest answer streak.
func (h *Handler) streakHandler(userID string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		eng := h.engines.Get(userID)
		current, longest := eng.Streaks()
		h.send(newHTMLMessage(chatID, fmt.Sprintf("🔥 <b>Streak:</b> %d\n🏅 <b>Longest:</b> %d", current, longest)))
		return nil
	}
}

// languageHandler shows the language choice keyboard.
func (h *Handler) languageHandler(userID string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		msg := newHTMLMessage(chatID, "Choose the interface language:")
		msg.ReplyMarkup = buildLanguageKeyboard()
		h.send(msg)
		return nil
	}
}

// emojiHandler toggles emoji in item cards.
func (h *Handler) emojiHandler(userID string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		eng := h.engines.Get(userID)
		if eng.ToggleShowEmoji() {
			h.send(newHTMLMessage(chatID, "Emoji are back in the item cards. 🎉"))
		} else {
			h.send(newHTMLMessage(chatID, "Emoji hidden. Words only from now on."))
		}
		return nil
	}
}

// resetHandler asks for confirmation before wiping progress.
func (h *Handler) resetHandler(userID string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		msg := newHTMLMessage(chatID, "⚠️ This wipes all your progress: category records, mnemonics, history and streaks. Are you sure?")
		msg.ReplyMarkup = buildResetKeyboard()
		h.send(msg)
		return nil
	}
}

// textHandler routes plain text: a neighbors answer when that session is
// running, a bare number as an item lookup, anything else to help.
func (h *Handler) textHandler(userID, text string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		session := h.sessions.Get(chatID)
		if session != nil && session.Kind == storage.SessionNeighbors {
			return h.handleNeighborsAnswer(chatID, userID, session, text)
		}

		if number, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
			return h.itemHandler(userID, strconv.Itoa(number))(ctx, chatID)
		}

		h.send(newHTMLMessage(chatID, msgUnknownCommand))
		return nil
	}
}

// replaceSession discards a running practice session, telling the user.
func (h *Handler) replaceSession(chatID int64) {
	if h.sessions.Get(chatID) != nil {
		h.sessions.Delete(chatID)
		h.logger.Debug("practice session replaced", zap.Int64("chat_id", chatID))
	}
}
