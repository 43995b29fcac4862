package telegram

import (
	"context"
	"math/rand"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/memonize/memonize/internal/catalog"
	"github.com/memonize/memonize/internal/config"
	"github.com/memonize/memonize/internal/domain/entities"
	"github.com/memonize/memonize/internal/storage"
)

type Handler struct {
	bot      *tgbotapi.BotAPI
	logger   *zap.Logger
	catalog  *catalog.Catalog
	engines  *storage.EngineRegistry
	sessions *storage.SessionStorage
	training config.Training
	rng      *rand.Rand
}

func NewHandler(
	bot *tgbotapi.BotAPI,
	logger *zap.Logger,
	cat *catalog.Catalog,
	engines *storage.EngineRegistry,
	sessions *storage.SessionStorage,
	training config.Training,
	rng *rand.Rand,
) *Handler {
	return &Handler{
		bot:      bot,
		logger:   logger,
		catalog:  cat,
		engines:  engines,
		sessions: sessions,
		training: training,
		rng:      rng,
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	userID := strconv.FormatInt(update.Message.From.ID, 10)
	chatID := update.Message.Chat.ID

	if update.Message.IsCommand() {
		switch update.Message.Command() {
		case "start":
			h.send(newHTMLMessage(chatID, msgWelcome))

		case "help":
			h.send(newHTMLMessage(chatID, msgHelp))

		case "phases":
			_ = h.withErrorHandling(h.phasesHandler(userID))(ctx, chatID)

		case "categories":
			_ = h.withErrorHandling(h.categoriesHandler(userID))(ctx, chatID)

		case "mnemonic":
			_ = h.withErrorHandling(h.mnemonicHandler(userID, update.Message.CommandArguments()))(ctx, chatID)

		case "table":
			_ = h.withErrorHandling(h.tableHandler(userID, 0))(ctx, chatID)

		case "item":
			_ = h.withErrorHandling(h.itemHandler(userID, update.Message.CommandArguments()))(ctx, chatID)

		case "quiz":
			_ = h.withErrorHandling(h.quizHandler(userID, update.Message.CommandArguments()))(ctx, chatID)

		case "mixed":
			_ = h.withErrorHandling(h.mixedHandler(userID))(ctx, chatID)

		case "neighbors":
			_ = h.withErrorHandling(h.neighborsHandler(userID))(ctx, chatID)

		case "oddoneout":
			_ = h.withErrorHandling(h.oddOneOutHandler(userID))(ctx, chatID)

		case "sprint":
			_ = h.withErrorHandling(h.speedHandler(userID, entities.SpeedSprint))(ctx, chatID)

		case "rapid":
			_ = h.withErrorHandling(h.speedHandler(userID, entities.SpeedRapidFire))(ctx, chatID)

		case "fulltable":
			_ = h.withErrorHandling(h.speedHandler(userID, entities.SpeedFullTable))(ctx, chatID)

		case "best":
			_ = h.withErrorHandling(h.bestHandler(userID))(ctx, chatID)

		case "progress":
			_ = h.withErrorHandling(h.progressHandler(userID))(ctx, chatID)

		case "streak":
			_ = h.withErrorHandling(h.streakHandler(userID))(ctx, chatID)

		case "language":
			_ = h.withErrorHandling(h.languageHandler(userID))(ctx, chatID)

		case "emoji":
			_ = h.withErrorHandling(h.emojiHandler(userID))(ctx, chatID)

		case "reset":
			_ = h.withErrorHandling(h.resetHandler(userID))(ctx, chatID)

		default:
			h.send(newHTMLMessage(chatID, msgUnknownCommand))
		}

		return
	}

	_ = h.withErrorHandling(h.textHandler(userID, update.Message.Text))(ctx, chatID)
}

func (h *Handler) sendError(chatID int64, err string) {
	h.send(newHTMLMessage(chatID, err))
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
	}
}
