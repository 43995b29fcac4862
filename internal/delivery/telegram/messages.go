// messages.go contains message templates and formatting helpers for Telegram.

package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Error messages.
const (
	msgIncorrectNumber = "Enter a number from 1 to 100."
	msgUseMnemonic     = "Usage: /mnemonic 8 looks like a snowman\n\nSend /mnemonic 8 without text to see what you saved."
	msgEmptyMnemonic   = "The mnemonic text is empty. Write what the number reminds you of."
	msgUnknownCategory = "Unknown category. Send /categories to see the list."
	msgNeighborsFormat = "Answer with two words separated by a comma: the word before, then the word after."
	msgInternalError   = "Something went wrong. Please try again later."
	msgUnknownCommand  = "Unknown command. Send /help to see what I can do."
	msgResetCancelled  = "Nothing was deleted. Your progress is safe."
	msgResetDone       = "All progress has been wiped. The table is waiting for you again: /categories"
	msgTimeUp          = "⏱ Time is up!"
	msgLanguageSet     = "Interface language updated."
	msgPhaseSet        = "Phase updated. Send /help if you are unsure what to practice next."
	msgPrimingDone     = "Category marked as explored. When you are ready, attach mnemonics with /mnemonic or test yourself with /quiz."
)

const msgWelcome = `<b>Memonize</b> — learn the 100-word number table.

Every number from 1 to 100 has a word. Your job is to make the pairs automatic: see 42, think of the word before you can stop yourself.

Training runs in six phases, from first exposure to timed drills. Send /phases to see them, /categories to start exploring, /help for the full command list.`

const msgHelp = `<b>Commands</b>

<b>Explore</b>
/phases — the six training phases
/categories — browse the table by category
/table — the full reference table
/item N — one number in detail

<b>Encode</b>
/mnemonic N text — attach your own memory hook to a number

<b>Practice</b>
/quiz [category] — multiple choice inside one category
/mixed — multiple choice across the whole table
/neighbors — name the words before and after a number
/oddoneout — spot the item from another category

<b>Speed</b>
/sprint — 60 second drill
/rapid — 30 second burst
/fulltable — race through all 100 numbers
/best — your speed records

<b>Progress</b>
/progress — per-category overview
/streak — current and longest answer streak

<b>Settings</b>
/language — interface language
/emoji — toggle emoji in item cards
/reset — wipe all progress`

// newHTMLMessage creates a message with HTML parse mode.
func newHTMLMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return msg
}
