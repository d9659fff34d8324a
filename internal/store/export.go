package store

import (
	"fmt"
	"time"

	"github.com/metamind/quiz/internal/model"
	"github.com/metamind/quiz/internal/report"
)

// QuizExport is the top-level JSON structure for quiz result export.
type QuizExport struct {
	QuizName     string          `json:"quiz_name"`
	NumQuestions int             `json:"num_questions"`
	ExportedAt   time.Time       `json:"exported_at"`
	Results      []SessionResult `json:"results"`
}

// SessionResult holds one session's data for export.
type SessionResult struct {
	SessionID     string               `json:"session_id"`
	UserName      string               `json:"user_name,omitempty"`
	SessionNumber int                  `json:"session_number"`
	Status        model.SessionStatus  `json:"status"`
	StartedAt     time.Time            `json:"started_at"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
	Answers       []model.AnswerRecord `json:"answers"`
	Report        *report.Report       `json:"report,omitempty"`
}

// ExportAllSessions builds export-ready results from all quiz sessions.
func (s *Store) ExportAllSessions(quizName string) (*QuizExport, error) {
	sessions, err := s.ListQuizSessions()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	questionCount, err := s.QuestionCount()
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}

	// Track session count per user for session_number. Anonymous sessions
	// share the zero key and are numbered together.
	userSessionCount := make(map[int64]int)

	var results []SessionResult
	for _, sess := range sessions {
		var userKey int64
		var userName string
		if sess.UserID != nil {
			userKey = *sess.UserID
			user, err := s.GetUserByID(*sess.UserID)
			if err != nil {
				return nil, fmt.Errorf("get user %d: %w", *sess.UserID, err)
			}
			if user != nil {
				userName = user.FullName
			}
		}
		userSessionCount[userKey]++

		answers, err := s.GetAnswerRecords(sess.ID)
		if err != nil {
			return nil, fmt.Errorf("get answers for session %s: %w", sess.ID, err)
		}
		rep, err := s.GetReport(sess.ID)
		if err != nil {
			return nil, fmt.Errorf("get report for session %s: %w", sess.ID, err)
		}

		results = append(results, SessionResult{
			SessionID:     sess.ID,
			UserName:      userName,
			SessionNumber: userSessionCount[userKey],
			Status:        sess.Status,
			StartedAt:     sess.StartedAt,
			CompletedAt:   sess.CompletedAt,
			Answers:       answers,
			Report:        rep,
		})
	}

	return &QuizExport{
		QuizName:     quizName,
		NumQuestions: questionCount,
		ExportedAt:   time.Now(),
		Results:      results,
	}, nil
}
