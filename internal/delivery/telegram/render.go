package telegram

import (
	"fmt"
	"strings"

	"github.com/memonize/memonize/internal/domain/entities"
	"github.com/memonize/memonize/internal/engine"
)

const itemsPerPage = 10

// phaseLabels maps each phase to its display line for /phases.
var phaseLabels = map[entities.Phase]string{
	entities.PhasePriming:      "🌱 Priming — browse the categories, no testing yet",
	entities.PhaseEncoding:     "🔗 Encoding — attach personal mnemonics with /mnemonic",
	entities.PhaseReference:    "📖 Reference — keep /table and /item close while you practice",
	entities.PhaseRetrieval:    "🎯 Retrieval — category quizzes with /quiz",
	entities.PhaseInterleaving: "🔀 Interleaving — /mixed, /neighbors and /oddoneout",
	entities.PhaseOverlearning: "⚡ Overlearning — timed drills with /sprint and /rapid",
}

// speedModeLabels maps each drill variant to its display name.
var speedModeLabels = map[entities.SpeedMode]string{
	entities.SpeedSprint:    "Sprint (60s)",
	entities.SpeedRapidFire: "Rapid fire (30s)",
	entities.SpeedFullTable: "Full table",
}

// categoryName picks the display name for the user's language.
func categoryName(cat entities.Category, lang string) string {
	if lang == "en" {
		return cat.NameEn
	}
	return cat.Name
}

// itemLine renders one table row, honoring the emoji preference.
func itemLine(item entities.Item, showEmoji bool) string {
	if showEmoji && item.Emoji != "" {
		return fmt.Sprintf("<b>%d.</b> %s %s", item.Number, item.Emoji, item.Word)
	}
	return fmt.Sprintf("<b>%d.</b> %s", item.Number, item.Word)
}

// itemCard renders the detailed view for /item.
func itemCard(item entities.Item, cat entities.Category, mnemonic string, showEmoji bool, lang string) string {
	var sb strings.Builder

	sb.WriteString(itemLine(item, showEmoji))
	sb.WriteString(fmt.Sprintf("\n\n<b>Category:</b> %s (%d–%d)", categoryName(cat, lang), cat.StartNum, cat.EndNum))
	if item.Hint != "" {
		sb.WriteString(fmt.Sprintf("\n<b>Hint:</b> %s", item.Hint))
	}
	if mnemonic != "" {
		sb.WriteString(fmt.Sprintf("\n<b>Your mnemonic:</b> %s", mnemonic))
	}
	return sb.String()
}

// categoryPageText renders one page of a category for priming.
func categoryPageText(cat entities.Category, items []entities.Item, page, totalPages int, showEmoji bool, lang string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("<b>%s</b> (%d–%d)\n", categoryName(cat, lang), cat.StartNum, cat.EndNum))
	if cat.Description != "" {
		sb.WriteString(cat.Description)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	start := page * itemsPerPage
	end := start + itemsPerPage
	if end > len(items) {
		end = len(items)
	}
	for _, item := range items[start:end] {
		sb.WriteString(itemLine(item, showEmoji))
		sb.WriteString("\n")
	}

	if totalPages > 1 {
		sb.WriteString(fmt.Sprintf("\nPage %d of %d", page+1, totalPages))
	}
	return sb.String()
}

// tablePage renders one page of the full reference table.
func tablePage(items []entities.Item, page, totalPages int, showEmoji bool) string {
	var sb strings.Builder

	sb.WriteString("<b>📖 Reference table</b>\n\n")

	start := page * itemsPerPage
	end := start + itemsPerPage
	if end > len(items) {
		end = len(items)
	}
	for _, item := range items[start:end] {
		sb.WriteString(itemLine(item, showEmoji))
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("\nPage %d of %d", page+1, totalPages))
	return sb.String()
}

// categoryOverviewLine renders one /categories row with progress markers.
func categoryOverviewLine(cat entities.Category, record entities.CategoryProgress, lang string) string {
	marker := "⏳"
	if record.PrimingCompleted {
		marker = "✅"
	}

	line := fmt.Sprintf("%s <b>%s</b> (%d–%d)", marker, categoryName(cat, lang), cat.StartNum, cat.EndNum)
	if record.EncodingCount > 0 {
		line += fmt.Sprintf(" · %d/10 mnemonics", record.EncodingCount)
	}
	if record.RetrievalAccuracy > 0 {
		line += fmt.Sprintf(" · %.0f%%", record.RetrievalAccuracy)
	}
	return line
}

// progressOverview renders the /progress screen.
func progressOverview(eng *engine.Engine, lang string) string {
	var sb strings.Builder

	progress := eng.AllCategoryProgress()

	primed := 0
	encoded := 0
	for _, record := range progress {
		if record.PrimingCompleted {
			primed++
		}
		encoded += record.EncodingCount
	}

	sb.WriteString("<b>📊 Your progress</b>\n\n")
	sb.WriteString(fmt.Sprintf("%s\n\n", buildProgressBar(primed, len(progress), 20)))
	sb.WriteString(fmt.Sprintf("🌱 <b>Categories explored:</b> %d / %d\n", primed, len(progress)))
	sb.WriteString(fmt.Sprintf("🔗 <b>Mnemonics attached:</b> %d / 100\n", encoded))
	sb.WriteString(fmt.Sprintf("🎯 <b>Quizzes taken:</b> %d\n", len(eng.QuizHistory())))

	current, longest := eng.Streaks()
	sb.WriteString(fmt.Sprintf("🔥 <b>Streak:</b> %d (best %d)\n\n", current, longest))

	for _, cat := range eng.Catalog().Categories() {
		record := progress[cat.ID]
		sb.WriteString(categoryOverviewLine(cat, record, lang))
		sb.WriteString("\n")
	}
	return sb.String()
}

// buildProgressBar creates an ASCII progress bar.
func buildProgressBar(current, total, length int) string {
	if total == 0 {
		return strings.Repeat("░", length)
	}

	filled := int(float64(current) / float64(total) * float64(length))
	if filled > length {
		filled = length
	}

	empty := length - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return fmt.Sprintf("[%s]", bar)
}
