package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/memonize/memonize/internal/domain/entities"
	"github.com/memonize/memonize/internal/quiz"
)

// buildCategoryListKeyboard builds one button per category for /categories.
func buildCategoryListKeyboard(categories []entities.Category, lang string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(categories); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(categoryName(categories[i], lang), buildCategoryPageCallback(categories[i].ID, 0)),
		}
		if i+1 < len(categories) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(categoryName(categories[i+1], lang), buildCategoryPageCallback(categories[i+1].ID, 0)))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildCategoryPageKeyboard builds pagination plus the priming-done button.
func buildCategoryPageKeyboard(categoryID string, page, totalPages int) tgbotapi.InlineKeyboardMarkup {
	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️ Back", buildCategoryPageCallback(categoryID, page-1)))
	}
	if page < totalPages-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ▶️", buildCategoryPageCallback(categoryID, page+1)))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ I know this category", buildCategoryDoneCallback(categoryID)),
	))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🎯 Quiz me on it", buildQuizStartCallback(categoryID)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildTableKeyboard builds pagination for the reference table.
func buildTableKeyboard(page, totalPages int) *tgbotapi.InlineKeyboardMarkup {
	if totalPages <= 1 {
		return nil
	}

	var row []tgbotapi.InlineKeyboardButton
	if page > 0 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("◀️ Back", buildTablePageCallback(page-1)))
	}
	if page < totalPages-1 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Next ▶️", buildTablePageCallback(page+1)))
	}

	kb := tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{row},
	}
	return &kb
}

// buildPhaseKeyboard builds one button per training phase.
func buildPhaseKeyboard(current entities.Phase) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, phase := range entities.Phases {
		label := string(phase)
		if phase == current {
			label = "• " + label + " •"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, buildPhaseCallback(string(phase))),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildAnswerKeyboard builds one button per option of a choice question.
func buildAnswerKeyboard(q *quiz.Question) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, option := range q.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(option, buildAnswerCallback(i)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildOddOneOutKeyboard builds one button per displayed item.
func buildOddOneOutKeyboard(q *quiz.OddOneOutQuestion) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, item := range q.Items {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(item.Word, buildOddCallback(item.Number)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildLanguageKeyboard builds the language choice keyboard.
func buildLanguageKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🇫🇷 Français", buildLanguageCallback("fr")),
			tgbotapi.NewInlineKeyboardButtonData("🇬🇧 English", buildLanguageCallback("en")),
		),
	)
}

// buildResetKeyboard builds the reset confirmation keyboard.
func buildResetKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Yes, wipe everything", buildResetConfirmCallback()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Cancel", buildResetCancelCallback()),
		),
	)
}
