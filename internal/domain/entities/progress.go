package entities

import "time"

// CategoryProgress tracks everything the user has done inside a single
// category. One record exists per category from the moment the engine is
// created; records are only reset in bulk, never removed individually.
type CategoryProgress struct {
	CategoryID        string     `json:"categoryId"`
	PrimingCompleted  bool       `json:"primingCompleted"`  // the user has browsed the whole category
	EncodingCount     int        `json:"encodingCount"`     // number of items with personal mnemonics
	RetrievalAccuracy float64    `json:"retrievalAccuracy"` // 0-100, last measured quiz accuracy
	LastPracticed     *time.Time `json:"lastPracticed"`     // nil until the first practice event
}

// NewCategoryProgress returns the zero-value progress record for a category.
func NewCategoryProgress(categoryID string) *CategoryProgress {
	return &CategoryProgress{CategoryID: categoryID}
}

// CategoryProgressUpdate carries a partial update to a category record.
// Nil fields are left untouched.
type CategoryProgressUpdate struct {
	PrimingCompleted  *bool
	EncodingCount     *int
	RetrievalAccuracy *float64
}

// UserMnemonic is a personal memory hook the user attached to a number.
// At most one exists per number; saving again overwrites it.
type UserMnemonic struct {
	Number    int       `json:"number"`
	Mnemonic  string    `json:"mnemonic"`
	CreatedAt time.Time `json:"createdAt"`
}

// QuizResult is one append-only entry of the quiz history.
type QuizResult struct {
	Timestamp      time.Time `json:"timestamp"`
	Phase          Phase     `json:"phase"`
	CategoryID     string    `json:"categoryId"` // empty = mixed/interleaved quiz
	TotalQuestions int       `json:"totalQuestions"`
	CorrectAnswers int       `json:"correctAnswers"`
	TimeSpentMs    int64     `json:"timeSpentMs"`
}

// SpeedRecord is one append-only entry of the speed drill history.
type SpeedRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`  // correct answers during the drill
	TimeMs    int64     `json:"timeMs"` // drill duration
	Mode      SpeedMode `json:"mode"`
}

// Rate returns correct answers per millisecond, the metric used to rank
// speed records. A record with TimeMs <= 0 ranks last.
func (r SpeedRecord) Rate() float64 {
	if r.TimeMs <= 0 {
		return 0
	}
	return float64(r.Count) / float64(r.TimeMs)
}

// ProgressBlob is the full progress surface pushed to and pulled from the
// remote store. Pointer fields distinguish "absent in the stored blob" from
// a legitimate zero value, so partial blobs load without error.
type ProgressBlob struct {
	CategoryProgress map[string]*CategoryProgress `json:"categoryProgress,omitempty"`
	UserMnemonics    map[int]*UserMnemonic        `json:"userMnemonics,omitempty"`
	QuizHistory      []QuizResult                 `json:"quizHistory,omitempty"`
	SpeedRecords     []SpeedRecord                `json:"speedRecords,omitempty"`
	CurrentStreak    int                          `json:"currentStreak"`
	LongestStreak    int                          `json:"longestStreak"`
	ShowEmoji        *bool                        `json:"showEmoji,omitempty"`
	CurrentPhase     Phase                        `json:"currentPhase,omitempty"`
	UpdatedAt        time.Time                    `json:"updatedAt"`
}

// PersistedState is the slice of engine state written to local durable
// storage on every mutation. Session-scoped fields (current streak, current
// phase, auth) are deliberately excluded: the app must come back after a
// restart with its long-lived progress intact and a fresh session.
type PersistedState struct {
	CategoryProgress map[string]*CategoryProgress `json:"categoryProgress"`
	UserMnemonics    map[int]*UserMnemonic        `json:"userMnemonics"`
	QuizHistory      []QuizResult                 `json:"quizHistory"`
	SpeedRecords     []SpeedRecord                `json:"speedRecords"`
	LongestStreak    int                          `json:"longestStreak"`
	ShowEmoji        *bool                        `json:"showEmoji,omitempty"`
	Language         string                       `json:"language"`
}
