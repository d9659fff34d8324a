package model

import (
	"context"
	"time"

	"github.com/metamind/quiz/internal/answer"
)

// User is a registered quiz taker.
type User struct {
	ID         int64     `json:"id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email,omitempty"`
	AccessHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// AuthSession is a resume token issued after access-code login.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionStatus represents the status of a quiz session.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// Question is a short-answer quiz question. Multiple option indices may be
// marked correct: one question can accept several synonyms or spellings.
type Question struct {
	ID             int64    `json:"id"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	CorrectIndices []int    `json:"correct_answer"`
	Topic          string   `json:"topic"`
}

// QuestionImport is the JSON shape for loading questions from files.
type QuestionImport struct {
	ID             int64    `json:"id"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	CorrectIndices []int    `json:"correct_answer"`
	Topic          string   `json:"topic"`
}

// QuizSession is one run through the quiz by a (possibly anonymous) user.
type QuizSession struct {
	ID          string        `json:"id"`
	UserID      *int64        `json:"user_id,omitempty"`
	Status      SessionStatus `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// DefaultConfidence is the sentinel used when no emotion analysis resolved
// for a question before its answer was finalized.
const DefaultConfidence = 50.0

// AnswerRecord combines one question's correctness verdict with its
// confidence evidence. Records are append-only: one per (session, question),
// never mutated after insertion.
type AnswerRecord struct {
	ID              int64        `json:"id"`
	SessionID       string       `json:"session_id"`
	QuestionID      int64        `json:"question_id"`
	AnswerText      string       `json:"answer_text"`
	IsCorrect       bool         `json:"is_correct"`
	Label           answer.Label `json:"label"`
	PhotoURL        string       `json:"photo_url,omitempty"`
	Confidence      *float64     `json:"confidence,omitempty"`
	Simulated       bool         `json:"simulated,omitempty"`
	CaptureMode     string       `json:"capture_mode,omitempty"`
	CaptureDelaySec int          `json:"capture_delay_sec,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// ConfidenceValue returns the record's confidence score, defaulting to the
// sentinel when analysis never resolved.
func (r AnswerRecord) ConfidenceValue() float64 {
	if r.Confidence == nil {
		return DefaultConfidence
	}
	return *r.Confidence
}

// QuizConfig holds runtime parameters set via CLI flags.
type QuizConfig struct {
	QuizName        string
	ScorerVariant   string        // confidence scorer selection (linear, entropy)
	EmotionURL      string        // emotion inference service base URL (empty = simulate)
	EmotionTimeout  time.Duration // per-request analysis deadline
	AnalyzerWorkers int           // bound on concurrent analysis calls
	PhotoDir        string        // confidence photo storage directory
	CORSOrigins     []string
	Lang            string
}
