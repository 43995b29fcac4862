package telegram

import (
	"strconv"
	"strings"
)

// Callback action constants.
const (
	actionCategory = "cat"
	actionPhase    = "phase"
	actionTable    = "table"
	actionAnswer   = "answer"
	actionOdd      = "odd"
	actionLanguage = "lang"
	actionReset    = "reset"
	actionQuiz     = "quiz"
)

// Category sub-actions.
const (
	categoryPage = "page"
	categoryDone = "done"
)

const (
	resetConfirm = "confirm"
	resetCancel  = "cancel"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	if len(parts) == 0 {
		return callbackData{Raw: data}
	}

	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// buildCategoryPageCallback builds callback data for browsing a category page.
func buildCategoryPageCallback(categoryID string, page int) string {
	return callbackData{
		Action: actionCategory,
		Params: []string{categoryPage, categoryID, strconv.Itoa(page)},
	}.encode()
}

// buildCategoryDoneCallback builds callback data for finishing a priming pass.
func buildCategoryDoneCallback(categoryID string) string {
	return callbackData{
		Action: actionCategory,
		Params: []string{categoryDone, categoryID},
	}.encode()
}

// buildPhaseCallback builds callback data for selecting a phase.
func buildPhaseCallback(phase string) string {
	return callbackData{
		Action: actionPhase,
		Params: []string{phase},
	}.encode()
}

// buildTablePageCallback builds callback data for a reference table page.
func buildTablePageCallback(page int) string {
	return callbackData{
		Action: actionTable,
		Params: []string{strconv.Itoa(page)},
	}.encode()
}

// buildAnswerCallback builds callback data for answering a choice question.
func buildAnswerCallback(index int) string {
	return callbackData{
		Action: actionAnswer,
		Params: []string{strconv.Itoa(index)},
	}.encode()
}

// buildOddCallback builds callback data for picking the odd item.
func buildOddCallback(number int) string {
	return callbackData{
		Action: actionOdd,
		Params: []string{strconv.Itoa(number)},
	}.encode()
}

// buildLanguageCallback builds callback data for switching the language.
func buildLanguageCallback(lang string) string {
	return callbackData{
		Action: actionLanguage,
		Params: []string{lang},
	}.encode()
}

// buildQuizStartCallback builds callback data for starting a category quiz.
func buildQuizStartCallback(categoryID string) string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{categoryID},
	}.encode()
}

func buildResetConfirmCallback() string {
	return callbackData{Action: actionReset, Params: []string{resetConfirm}}.encode()
}

func buildResetCancelCallback() string {
	return callbackData{Action: actionReset, Params: []string{resetCancel}}.encode()
}
