package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/metamind/quiz/internal/model"
	"github.com/metamind/quiz/internal/report"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		access_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY,
		question TEXT NOT NULL,
		options TEXT NOT NULL,
		correct_indices TEXT NOT NULL,
		topic TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS quiz_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER,
		status TEXT NOT NULL DEFAULT 'in_progress',
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS answer_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		question_id INTEGER NOT NULL,
		answer_text TEXT NOT NULL,
		is_correct INTEGER NOT NULL,
		label TEXT NOT NULL,
		photo_url TEXT NOT NULL DEFAULT '',
		confidence REAL,
		simulated INTEGER NOT NULL DEFAULT 0,
		capture_mode TEXT NOT NULL DEFAULT '',
		capture_delay_sec INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		UNIQUE(session_id, question_id),
		FOREIGN KEY (session_id) REFERENCES quiz_sessions(id)
	);

	CREATE TABLE IF NOT EXISTS quiz_results (
		session_id TEXT PRIMARY KEY,
		report TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES quiz_sessions(id)
	);

	CREATE TABLE IF NOT EXISTS quiz_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// UpsertQuestion stores a question under its fixed ID so re-imports stay
// idempotent. Options and correct indices are serialized as JSON.
func (s *Store) UpsertQuestion(q model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	indices, err := json.Marshal(q.CorrectIndices)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO questions (id, question, options, correct_indices, topic)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET question = ?, options = ?, correct_indices = ?, topic = ?`,
		q.ID, q.Question, string(options), string(indices), q.Topic,
		q.Question, string(options), string(indices), q.Topic,
	)
	return err
}

func scanQuestion(row interface{ Scan(...any) error }) (model.Question, error) {
	var q model.Question
	var options, indices string
	if err := row.Scan(&q.ID, &q.Question, &options, &indices, &q.Topic); err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return q, fmt.Errorf("decode options for question %d: %w", q.ID, err)
	}
	if err := json.Unmarshal([]byte(indices), &q.CorrectIndices); err != nil {
		return q, fmt.Errorf("decode correct indices for question %d: %w", q.ID, err)
	}
	return q, nil
}

// ListQuestions returns all questions ordered by ID.
func (s *Store) ListQuestions() ([]model.Question, error) {
	rows, err := s.db.Query(`SELECT id, question, options, correct_indices, topic FROM questions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetQuestion returns a question by ID, or nil if absent.
func (s *Store) GetQuestion(id int64) (*model.Question, error) {
	q, err := scanQuestion(s.db.QueryRow(
		`SELECT id, question, options, correct_indices, topic FROM questions WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// QuestionCount returns the number of questions in the database.
func (s *Store) QuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}

// CreateQuizSession creates a quiz session with the given ID.
func (s *Store) CreateQuizSession(id string, userID *int64) (model.QuizSession, error) {
	sess := model.QuizSession{
		ID:        id,
		UserID:    userID,
		Status:    model.StatusInProgress,
		StartedAt: time.Now(),
	}
	_, err := s.db.Exec(
		`INSERT INTO quiz_sessions (id, user_id, status, started_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.Status, sess.StartedAt,
	)
	return sess, err
}

// GetQuizSession returns a session by ID, or nil if absent.
func (s *Store) GetQuizSession(id string) (*model.QuizSession, error) {
	var sess model.QuizSession
	err := s.db.QueryRow(
		`SELECT id, user_id, status, started_at, completed_at FROM quiz_sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.UserID, &sess.Status, &sess.StartedAt, &sess.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// CompleteQuizSession marks a session completed. Completing a session twice
// is an error so a finished quiz cannot be reopened or re-finalized.
func (s *Store) CompleteQuizSession(id string) error {
	res, err := s.db.Exec(
		`UPDATE quiz_sessions SET status = ?, completed_at = ? WHERE id = ? AND status = ?`,
		model.StatusCompleted, time.Now(), id, model.StatusInProgress,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s is not in progress", id)
	}
	return nil
}

// ListQuizSessions returns all quiz sessions, newest first.
func (s *Store) ListQuizSessions() ([]model.QuizSession, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, status, started_at, completed_at FROM quiz_sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []model.QuizSession
	for rows.Next() {
		var sess model.QuizSession
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.Status, &sess.StartedAt, &sess.CompletedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// InsertAnswerRecord appends one answer record. The unique constraint on
// (session_id, question_id) makes records write-once: a second submission
// for the same question fails instead of overwriting the first verdict.
func (s *Store) InsertAnswerRecord(r model.AnswerRecord) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO answer_records
		 (session_id, question_id, answer_text, is_correct, label, photo_url,
		  confidence, simulated, capture_mode, capture_delay_sec, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.QuestionID, r.AnswerText, r.IsCorrect, r.Label, r.PhotoURL,
		r.Confidence, r.Simulated, r.CaptureMode, r.CaptureDelaySec, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetAnswerRecords returns all answer records for a session in question order.
func (s *Store) GetAnswerRecords(sessionID string) ([]model.AnswerRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, question_id, answer_text, is_correct, label, photo_url,
		        confidence, simulated, capture_mode, capture_delay_sec, created_at
		 FROM answer_records WHERE session_id = ? ORDER BY question_id`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []model.AnswerRecord
	for rows.Next() {
		var r model.AnswerRecord
		if err := rows.Scan(&r.ID, &r.SessionID, &r.QuestionID, &r.AnswerText, &r.IsCorrect,
			&r.Label, &r.PhotoURL, &r.Confidence, &r.Simulated, &r.CaptureMode,
			&r.CaptureDelaySec, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// HasAnswerRecord reports whether a session already answered a question.
func (s *Store) HasAnswerRecord(sessionID string, questionID int64) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM answer_records WHERE session_id = ? AND question_id = ?`,
		sessionID, questionID,
	).Scan(&count)
	return count > 0, err
}

// SaveReport persists the aggregated report computed when a session completes.
func (s *Store) SaveReport(sessionID string, rep report.Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO quiz_results (session_id, report, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET report = ?`,
		sessionID, string(data), time.Now(), string(data),
	)
	return err
}

// GetReport returns the stored report for a session, or nil if none was saved.
func (s *Store) GetReport(sessionID string) (*report.Report, error) {
	var data string
	err := s.db.QueryRow(`SELECT report FROM quiz_results WHERE session_id = ?`, sessionID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rep report.Report
	if err := json.Unmarshal([]byte(data), &rep); err != nil {
		return nil, fmt.Errorf("decode report for session %s: %w", sessionID, err)
	}
	return &rep, nil
}
