package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/memonize/memonize/internal/domain/entities"
	"github.com/memonize/memonize/internal/storage"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	userID := strconv.FormatInt(cb.From.ID, 10)
	chatID := cb.Message.Chat.ID

	data := decodeCallback(cb.Data)

	switch data.Action {
	case actionCategory:
		h.handleCategoryCallback(cb, userID, data)

	case actionPhase:
		if len(data.Params) == 1 {
			eng := h.engines.Get(userID)
			if err := eng.SetPhase(entities.Phase(data.Params[0])); err == nil {
				h.send(newHTMLMessage(chatID, msgPhaseSet))
			}
		}

	case actionTable:
		h.handleTableCallback(cb, userID, data)

	case actionAnswer:
		if len(data.Params) == 1 {
			index, err := strconv.Atoi(data.Params[0])
			session := h.sessions.Get(chatID)
			if err == nil && session != nil &&
				(session.Kind == storage.SessionQuiz || session.Kind == storage.SessionSpeed) {
				_ = h.withErrorHandling(func(ctx context.Context, chatID int64) error {
					return h.handleChoiceAnswer(chatID, userID, session, index)
				})(ctx, chatID)
			}
		}

	case actionOdd:
		if len(data.Params) == 1 {
			number, err := strconv.Atoi(data.Params[0])
			session := h.sessions.Get(chatID)
			if err == nil && session != nil && session.Kind == storage.SessionOddOneOut {
				_ = h.withErrorHandling(func(ctx context.Context, chatID int64) error {
					return h.handleOddOneOutAnswer(chatID, userID, session, number)
				})(ctx, chatID)
			}
		}

	case actionLanguage:
		if len(data.Params) == 1 {
			h.engines.Get(userID).SetLanguage(data.Params[0])
			h.send(newHTMLMessage(chatID, msgLanguageSet))
		}

	case actionQuiz:
		if len(data.Params) == 1 {
			_ = h.withErrorHandling(func(ctx context.Context, chatID int64) error {
				return h.startChoiceSession(chatID, userID, entities.PhaseRetrieval, data.Params[0])
			})(ctx, chatID)
		}

	case actionReset:
		h.handleResetCallback(cb, userID, data)

	default:
		h.logger.Debug("unknown callback action", zap.String("data", cb.Data))
	}

	// Remove the user's "clock".
	answer := tgbotapi.NewCallback(cb.ID, "")
	if _, err := h.bot.Request(answer); err != nil {
		h.logger.Error("callback answer error", zap.Error(err))
	}
}

func (h *Handler) handleCategoryCallback(cb *tgbotapi.CallbackQuery, userID string, data callbackData) {
	chatID := cb.Message.Chat.ID
	if len(data.Params) < 2 {
		return
	}

	eng := h.engines.Get(userID)

	switch data.Params[0] {
	case categoryDone:
		categoryID := data.Params[1]
		if err := eng.MarkPrimingComplete(categoryID); err != nil {
			h.logger.Warn("failed to mark priming complete",
				zap.String("category_id", categoryID),
				zap.Error(err),
			)
			return
		}
		h.send(newHTMLMessage(chatID, msgPrimingDone))

	case categoryPage:
		if len(data.Params) != 3 {
			return
		}
		categoryID := data.Params[1]
		page, err := strconv.Atoi(data.Params[2])
		if err != nil || page < 0 {
			return
		}

		cat, err := h.catalog.CategoryByID(categoryID)
		if err != nil {
			return
		}

		items := h.catalog.ItemsByCategory(categoryID)
		totalPages := (len(items) + itemsPerPage - 1) / itemsPerPage
		if totalPages == 0 || page >= totalPages {
			return
		}

		text := categoryPageText(*cat, items, page, totalPages, eng.ShowEmoji(), eng.Language())
		edit := tgbotapi.NewEditMessageText(chatID, cb.Message.MessageID, text)
		edit.ParseMode = tgbotapi.ModeHTML
		kb := buildCategoryPageKeyboard(categoryID, page, totalPages)
		edit.ReplyMarkup = &kb
		h.send(edit)
	}
}

func (h *Handler) handleTableCallback(cb *tgbotapi.CallbackQuery, userID string, data callbackData) {
	chatID := cb.Message.Chat.ID
	if len(data.Params) != 1 {
		return
	}

	page, err := strconv.Atoi(data.Params[0])
	if err != nil || page < 0 {
		return
	}

	items := h.catalog.Items()
	totalPages := (len(items) + itemsPerPage - 1) / itemsPerPage
	if page >= totalPages {
		return
	}

	eng := h.engines.Get(userID)
	edit := tgbotapi.NewEditMessageText(chatID, cb.Message.MessageID, tablePage(items, page, totalPages, eng.ShowEmoji()))
	edit.ParseMode = tgbotapi.ModeHTML
	if kb := buildTableKeyboard(page, totalPages); kb != nil {
		edit.ReplyMarkup = kb
	}
	h.send(edit)
}

func (h *Handler) handleResetCallback(cb *tgbotapi.CallbackQuery, userID string, data callbackData) {
	chatID := cb.Message.Chat.ID
	if len(data.Params) != 1 {
		return
	}

	switch data.Params[0] {
	case resetConfirm:
		h.sessions.Delete(chatID)
		h.engines.Get(userID).ResetProgress()
		h.send(newHTMLMessage(chatID, msgResetDone))

	case resetCancel:
		h.send(newHTMLMessage(chatID, msgResetCancelled))
	}
}
