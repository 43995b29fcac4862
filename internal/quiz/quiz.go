// Package quiz builds practice questions over the recall table. All
// generators are pure with respect to their inputs except for the injected
// random source, so a seeded *rand.Rand makes every question reproducible.
package quiz

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/memonize/memonize/internal/catalog"
	"github.com/memonize/memonize/internal/domain/entities"
)

var ErrPoolTooSmall = errors.New("item pool too small")

// Mode selects the direction of a multiple choice question.
type Mode string

const (
	ModeNumberToWord Mode = "number-to-word" // prompt is the number, options are words
	ModeWordToNumber Mode = "word-to-number" // prompt is the word, options are numbers
)

// DefaultOptionCount is the usual number of options per question.
const DefaultOptionCount = 4

// Question is a single multiple choice question ready for display.
type Question struct {
	Target        entities.Item
	Mode          Mode
	Prompt        string
	Options       []string
	CorrectIndex  int
	CorrectAnswer string
}

// MultipleChoice builds a question about target with distractors drawn
// uniformly without replacement from pool. Distractors equal to the correct
// option text are dropped, so the option list can come out shorter than
// optionCount when the pool is small; that is graceful degradation, not an
// error.
func MultipleChoice(rng *rand.Rand, target entities.Item, pool []entities.Item, mode Mode, optionCount int) Question {
	if optionCount <= 0 {
		optionCount = DefaultOptionCount
	}

	correct := optionText(target, mode)
	distractors := pickDistractors(rng, target, pool, mode, optionCount-1)
	options, correctIndex := buildOptionsWithCorrect(rng, correct, distractors)

	return Question{
		Target:        target,
		Mode:          mode,
		Prompt:        prompt(target, mode),
		Options:       options,
		CorrectIndex:  correctIndex,
		CorrectAnswer: correct,
	}
}

func prompt(target entities.Item, mode Mode) string {
	if mode == ModeWordToNumber {
		return target.Word
	}
	return strconv.Itoa(target.Number)
}

func optionText(item entities.Item, mode Mode) string {
	if mode == ModeWordToNumber {
		return strconv.Itoa(item.Number)
	}
	return item.Word
}

// pickDistractors samples up to count distinct wrong options from pool,
// excluding the target and deduplicating by option text.
func pickDistractors(rng *rand.Rand, target entities.Item, pool []entities.Item, mode Mode, count int) []string {
	candidates := make([]entities.Item, 0, len(pool))
	for _, item := range pool {
		if item.Number != target.Number {
			candidates = append(candidates, item)
		}
	}

	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	correct := optionText(target, mode)
	used := map[string]bool{correct: true}

	distractors := make([]string, 0, count)
	for _, candidate := range candidates {
		if len(distractors) >= count {
			break
		}
		text := optionText(candidate, mode)
		if used[text] {
			continue
		}
		used[text] = true
		distractors = append(distractors, text)
	}

	return distractors
}

// buildOptionsWithCorrect inserts the correct option among the distractors,
// shuffles the list, and reports where the correct one landed.
func buildOptionsWithCorrect(rng *rand.Rand, correct string, distractors []string) ([]string, int) {
	options := make([]string, 0, 1+len(distractors))
	options = append(options, correct)
	options = append(options, distractors...)

	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	correctIndex := 0
	for i, opt := range options {
		if opt == correct {
			correctIndex = i
			break
		}
	}

	return options, correctIndex
}

// NeighborsQuestion asks for the words directly before and after a number.
// Targets at the table boundaries are never selected, so both expected
// words always exist.
type NeighborsQuestion struct {
	Target   entities.Item
	PrevWord string
	NextWord string
}

// Neighbors picks a random non-boundary item and derives the expected
// predecessor and successor words from the catalog.
func Neighbors(rng *rand.Rand, cat *catalog.Catalog) (NeighborsQuestion, error) {
	items := cat.Items()

	eligible := make([]entities.Item, 0, len(items))
	for _, item := range items {
		if item.Number > 1 && item.Number < 100 {
			eligible = append(eligible, item)
		}
	}
	if len(eligible) == 0 {
		return NeighborsQuestion{}, ErrPoolTooSmall
	}

	target := eligible[rng.Intn(len(eligible))]
	neighbors, err := cat.Neighbors(target.Number)
	if err != nil {
		return NeighborsQuestion{}, fmt.Errorf("neighbors of %d: %w", target.Number, err)
	}

	return NeighborsQuestion{
		Target:   target,
		PrevWord: neighbors.Prev.Word,
		NextWord: neighbors.Next.Word,
	}, nil
}

// Check reports whether the answer pair is fully correct: both the
// predecessor and the successor word must match.
func (q NeighborsQuestion) Check(prevAnswer, nextAnswer string) bool {
	return CheckAnswer(prevAnswer, q.PrevWord) && CheckAnswer(nextAnswer, q.NextWord)
}

// OddOneOutQuestion shows four items of which exactly one belongs to a
// different category than the other three.
type OddOneOutQuestion struct {
	Items        []entities.Item // shuffled for display
	OddItem      entities.Item
	MainCategory entities.Category
}

// OddOneOut picks a main category, samples three of its items, then one
// item from a different category, and shuffles the four for display.
func OddOneOut(rng *rand.Rand, cat *catalog.Catalog) (OddOneOutQuestion, error) {
	categories := cat.Categories()
	if len(categories) < 2 {
		return OddOneOutQuestion{}, ErrPoolTooSmall
	}

	main := categories[rng.Intn(len(categories))]
	mainItems := cat.RandomItems(rng, 3, main.ID)
	if len(mainItems) < 3 {
		return OddOneOutQuestion{}, fmt.Errorf("category %q: %w", main.ID, ErrPoolTooSmall)
	}

	var odd entities.Category
	for {
		odd = categories[rng.Intn(len(categories))]
		if odd.ID != main.ID {
			break
		}
	}
	oddItems := cat.RandomItems(rng, 1, odd.ID)
	if len(oddItems) == 0 {
		return OddOneOutQuestion{}, fmt.Errorf("category %q: %w", odd.ID, ErrPoolTooSmall)
	}

	display := append(append([]entities.Item(nil), mainItems...), oddItems[0])
	rng.Shuffle(len(display), func(i, j int) { display[i], display[j] = display[j], display[i] })

	return OddOneOutQuestion{
		Items:        display,
		OddItem:      oddItems[0],
		MainCategory: main,
	}, nil
}

// CheckAnswer compares a user answer with the expected text: exact match
// after trimming whitespace, case-insensitive.
func CheckAnswer(userAnswer, correctAnswer string) bool {
	return strings.EqualFold(
		strings.TrimSpace(userAnswer),
		strings.TrimSpace(correctAnswer),
	)
}
