package store

import (
	"testing"
	"time"

	"github.com/metamind/quiz/internal/answer"
	"github.com/metamind/quiz/internal/model"
	"github.com/metamind/quiz/internal/report"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func upsertTestQuestion(t *testing.T, s *Store, id int64, text string, options []string, correct []int) {
	t.Helper()
	err := s.UpsertQuestion(model.Question{
		ID:             id,
		Question:       text,
		Options:        options,
		CorrectIndices: correct,
		Topic:          "genel",
	})
	if err != nil {
		t.Fatalf("upsertTestQuestion: %v", err)
	}
}

func TestQuestionRoundTrip(t *testing.T) {
	s := newTestStore(t)

	count, err := s.QuestionCount()
	if err != nil {
		t.Fatalf("QuestionCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 questions, got %d", count)
	}

	upsertTestQuestion(t, s, 1, "Türkiye'nin başkenti neresidir?", []string{"Ankara", "ankara"}, []int{0, 1})

	q, err := s.GetQuestion(1)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if q == nil {
		t.Fatal("expected question, got nil")
	}
	if q.Question != "Türkiye'nin başkenti neresidir?" {
		t.Errorf("unexpected text %q", q.Question)
	}
	if len(q.Options) != 2 || q.Options[0] != "Ankara" {
		t.Errorf("unexpected options %v", q.Options)
	}
	if len(q.CorrectIndices) != 2 || q.CorrectIndices[1] != 1 {
		t.Errorf("unexpected correct indices %v", q.CorrectIndices)
	}

	// Re-import with changed text must update in place, not duplicate.
	upsertTestQuestion(t, s, 1, "Başkent neresidir?", []string{"Ankara"}, []int{0})
	count, err = s.QuestionCount()
	if err != nil {
		t.Fatalf("QuestionCount: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 question after re-import, got %d", count)
	}

	missing, err := s.GetQuestion(9999)
	if err != nil {
		t.Fatalf("GetQuestion missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing question, got %+v", missing)
	}
}

func TestQuizSessionLifecycle(t *testing.T) {
	s := newTestStore(t)

	sess, err := s.CreateQuizSession("sess-1", nil)
	if err != nil {
		t.Fatalf("CreateQuizSession: %v", err)
	}
	if sess.Status != model.StatusInProgress {
		t.Errorf("expected in_progress, got %q", sess.Status)
	}

	got, err := s.GetQuizSession("sess-1")
	if err != nil {
		t.Fatalf("GetQuizSession: %v", err)
	}
	if got == nil || got.ID != "sess-1" {
		t.Fatalf("unexpected session %+v", got)
	}
	if got.CompletedAt != nil {
		t.Errorf("expected nil completed_at, got %v", got.CompletedAt)
	}

	if err := s.CompleteQuizSession("sess-1"); err != nil {
		t.Fatalf("CompleteQuizSession: %v", err)
	}
	got, err = s.GetQuizSession("sess-1")
	if err != nil {
		t.Fatalf("GetQuizSession: %v", err)
	}
	if got.Status != model.StatusCompleted {
		t.Errorf("expected completed, got %q", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}

	// Completing twice is rejected.
	if err := s.CompleteQuizSession("sess-1"); err == nil {
		t.Error("expected error completing an already-completed session")
	}

	missing, err := s.GetQuizSession("nope")
	if err != nil {
		t.Fatalf("GetQuizSession missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing session, got %+v", missing)
	}
}

func TestAnswerRecordWriteOnce(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateQuizSession("sess-1", nil); err != nil {
		t.Fatalf("CreateQuizSession: %v", err)
	}

	conf := 82.5
	rec := model.AnswerRecord{
		SessionID:       "sess-1",
		QuestionID:      3,
		AnswerText:      "ankara",
		IsCorrect:       true,
		Label:           answer.LabelCorrect,
		PhotoURL:        "/photos/sess-1/confidence_q3_1_mode-auto_delay-5s.jpg",
		Confidence:      &conf,
		CaptureMode:     "auto",
		CaptureDelaySec: 5,
	}
	if _, err := s.InsertAnswerRecord(rec); err != nil {
		t.Fatalf("InsertAnswerRecord: %v", err)
	}

	// Same question again must fail, not overwrite.
	rec.AnswerText = "istanbul"
	if _, err := s.InsertAnswerRecord(rec); err == nil {
		t.Error("expected unique constraint violation on second insert")
	}

	has, err := s.HasAnswerRecord("sess-1", 3)
	if err != nil {
		t.Fatalf("HasAnswerRecord: %v", err)
	}
	if !has {
		t.Error("expected record to exist")
	}

	records, err := s.GetAnswerRecords("sess-1")
	if err != nil {
		t.Fatalf("GetAnswerRecords: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.AnswerText != "ankara" {
		t.Errorf("first write must win, got %q", got.AnswerText)
	}
	if got.Confidence == nil || *got.Confidence != 82.5 {
		t.Errorf("unexpected confidence %v", got.Confidence)
	}
	if got.Label != answer.LabelCorrect {
		t.Errorf("unexpected label %q", got.Label)
	}
}

func TestAnswerRecordNilConfidence(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateQuizSession("sess-1", nil); err != nil {
		t.Fatalf("CreateQuizSession: %v", err)
	}
	if _, err := s.InsertAnswerRecord(model.AnswerRecord{
		SessionID:  "sess-1",
		QuestionID: 1,
		AnswerText: "x",
		Label:      answer.LabelIncorrect,
	}); err != nil {
		t.Fatalf("InsertAnswerRecord: %v", err)
	}
	records, err := s.GetAnswerRecords("sess-1")
	if err != nil {
		t.Fatalf("GetAnswerRecords: %v", err)
	}
	if records[0].Confidence != nil {
		t.Errorf("expected nil confidence, got %v", records[0].Confidence)
	}
	if got := records[0].ConfidenceValue(); got != model.DefaultConfidence {
		t.Errorf("ConfidenceValue = %v, want %v", got, model.DefaultConfidence)
	}
}

func TestReportRoundTrip(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateQuizSession("sess-1", nil); err != nil {
		t.Fatalf("CreateQuizSession: %v", err)
	}

	missing, err := s.GetReport("sess-1")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil report before save, got %+v", missing)
	}

	rep := report.Report{
		TotalQuestions:    4,
		CorrectCount:      3,
		ScorePercentage:   75,
		AverageConfidence: 61.25,
		Quadrants: report.QuadrantCounts{
			HighConfidenceCorrect: 2,
			LowConfidenceCorrect:  1,
			LowConfidenceWrong:    1,
		},
	}
	if err := s.SaveReport("sess-1", rep); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	got, err := s.GetReport("sess-1")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got == nil || *got != rep {
		t.Errorf("report round trip mismatch: %+v", got)
	}
}

func TestUsersAndAuthSessions(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateUser(model.User{FullName: "Ayşe Yılmaz", Email: "ayse@example.com", AccessHash: "hash"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	u, err := s.GetUserByID(id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if u == nil || u.FullName != "Ayşe Yılmaz" {
		t.Fatalf("unexpected user %+v", u)
	}

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 user, got %d", count)
	}

	token, err := s.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != id {
		t.Fatalf("unexpected auth session %+v", sess)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession after delete: %v", err)
	}
	if sess != nil {
		t.Errorf("expected nil after delete, got %+v", sess)
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateUser(model.User{FullName: "Ayşe Yılmaz", Email: "ayse@example.com", AccessHash: "hash"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	expired, err := s.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	live, err := s.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if _, err := s.db.Exec(
		`UPDATE auth_sessions SET expires_at = ? WHERE id = ?`,
		time.Now().Add(-time.Minute), expired,
	); err != nil {
		t.Fatalf("expire session: %v", err)
	}

	if err := s.CleanupExpiredSessions(); err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM auth_sessions`).Scan(&count); err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 remaining session, got %d", count)
	}
	sess, err := s.GetAuthSession(live)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil {
		t.Error("live session should survive cleanup")
	}
}

func TestMetadataAndImportedHashes(t *testing.T) {
	s := newTestStore(t)

	v, err := s.GetMetadata("quiz_name")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if v != "" {
		t.Errorf("expected empty value, got %q", v)
	}

	if err := s.SetMetadata("quiz_name", "Genel Kültür"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	if err := s.SetMetadata("quiz_name", "Genel Kültür 2"); err != nil {
		t.Fatalf("SetMetadata update: %v", err)
	}
	v, err = s.GetMetadata("quiz_name")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if v != "Genel Kültür 2" {
		t.Errorf("expected updated value, got %q", v)
	}

	if err := s.SetImportedFileHash("questions/general_tr.json", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	h, err := s.GetImportedFileHash("questions/general_tr.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if h != "abc123" {
		t.Errorf("expected abc123, got %q", h)
	}
}

func TestExportAllSessions(t *testing.T) {
	s := newTestStore(t)
	upsertTestQuestion(t, s, 1, "Soru?", []string{"a"}, []int{0})

	uid, err := s.CreateUser(model.User{FullName: "Mehmet", AccessHash: "h"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := s.CreateQuizSession("sess-1", &uid); err != nil {
		t.Fatalf("CreateQuizSession: %v", err)
	}
	if _, err := s.InsertAnswerRecord(model.AnswerRecord{
		SessionID: "sess-1", QuestionID: 1, AnswerText: "a", IsCorrect: true, Label: answer.LabelCorrect,
	}); err != nil {
		t.Fatalf("InsertAnswerRecord: %v", err)
	}
	if err := s.CompleteQuizSession("sess-1"); err != nil {
		t.Fatalf("CompleteQuizSession: %v", err)
	}
	if err := s.SaveReport("sess-1", report.Report{TotalQuestions: 1, CorrectCount: 1, ScorePercentage: 100, AverageConfidence: 50}); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	export, err := s.ExportAllSessions("Genel Kültür")
	if err != nil {
		t.Fatalf("ExportAllSessions: %v", err)
	}
	if export.QuizName != "Genel Kültür" {
		t.Errorf("unexpected quiz name %q", export.QuizName)
	}
	if export.NumQuestions != 1 {
		t.Errorf("expected 1 question, got %d", export.NumQuestions)
	}
	if len(export.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(export.Results))
	}
	res := export.Results[0]
	if res.UserName != "Mehmet" {
		t.Errorf("unexpected user name %q", res.UserName)
	}
	if res.SessionNumber != 1 {
		t.Errorf("unexpected session number %d", res.SessionNumber)
	}
	if len(res.Answers) != 1 {
		t.Errorf("expected 1 answer, got %d", len(res.Answers))
	}
	if res.Report == nil || res.Report.CorrectCount != 1 {
		t.Errorf("unexpected report %+v", res.Report)
	}
}
