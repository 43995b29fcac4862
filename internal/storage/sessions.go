package storage

import (
	"sync"
	"time"

	"github.com/memonize/memonize/internal/domain/entities"
	"github.com/memonize/memonize/internal/quiz"
)

// SessionKind identifies the practice flow a chat is currently in.
type SessionKind string

const (
	SessionQuiz      SessionKind = "quiz"        // multiple choice, retrieval or mixed
	SessionNeighbors SessionKind = "neighbors"   // predecessor/successor text answers
	SessionOddOneOut SessionKind = "odd-one-out" // pick the item from the other category
	SessionSpeed     SessionKind = "speed"       // timed drill
)

// Session is the transient state of one practice run in a chat. It lives
// only for the duration of the run and is never persisted.
type Session struct {
	Kind       SessionKind
	Phase      entities.Phase
	CategoryID string // empty for mixed pools
	Mode       quiz.Mode

	Current   *quiz.Question
	Neighbors *quiz.NeighborsQuestion
	OddOneOut *quiz.OddOneOutQuestion

	Total   int // planned question count, 0 = open-ended
	Asked   int
	Correct int

	SpeedMode entities.SpeedMode
	StartedAt time.Time
	Deadline  time.Time // speed drills only
}

// SessionStorage provides in-memory practice sessions keyed by chat ID.
type SessionStorage struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewSessionStorage creates an empty SessionStorage.
func NewSessionStorage() *SessionStorage {
	return &SessionStorage{
		sessions: make(map[int64]*Session),
	}
}

// Store saves the session for a chat, replacing any previous one.
func (s *SessionStorage) Store(chatID int64, session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = session
}

// Get retrieves the session for a chat, or nil when none is running.
func (s *SessionStorage) Get(chatID int64) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[chatID]
}

// Delete removes the session for a chat.
func (s *SessionStorage) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}
