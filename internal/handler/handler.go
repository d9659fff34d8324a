package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/metamind/quiz/internal/answer"
	"github.com/metamind/quiz/internal/emotion"
	appI18n "github.com/metamind/quiz/internal/i18n"
	"github.com/metamind/quiz/internal/model"
	"github.com/metamind/quiz/internal/photo"
	"github.com/metamind/quiz/internal/report"
	"github.com/metamind/quiz/internal/store"
)

// maxPhotoSize bounds uploaded confidence photo size.
const maxPhotoSize = 10 << 20

// answerAwaitTimeout bounds how long an answer submission waits for a
// pending photo analysis before falling back to the default confidence.
const answerAwaitTimeout = 3 * time.Second

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	emotion  *emotion.Service
	analyzer *emotion.Analyzer
	photos   *photo.Store
	config   model.QuizConfig
}

// New creates a new Handler.
func New(s *store.Store, svc *emotion.Service, a *emotion.Analyzer, p *photo.Store, cfg model.QuizConfig) (*Handler, error) {
	return &Handler{store: s, emotion: svc, analyzer: a, photos: p, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/register", h.handleRegister)
	r.Post("/api/login", h.handleLogin)
	r.Post("/api/logout", h.handleLogout)

	r.Get("/api/questions", h.handleListQuestions)
	r.Post("/api/emotion/analyze", h.handleAnalyze)

	r.Post("/api/sessions", h.handleStartSession)
	r.Get("/api/sessions/{sessionID}", h.handleGetSession)
	r.Post("/api/sessions/{sessionID}/photos", h.handleUploadPhoto)
	r.Post("/api/sessions/{sessionID}/answers", h.handleSubmitAnswer)
	r.Post("/api/sessions/{sessionID}/complete", h.handleCompleteSession)
	r.Get("/api/sessions/{sessionID}/report", h.handleGetReport)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// jsonError writes an error response carrying both the stable code and
// its localized message.
func (h *Handler) jsonError(ctx context.Context, w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": appI18n.T(ctx, code),
	})
}

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.store.ListQuestions()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"quiz_name": h.config.QuizName,
		"questions": questions,
		"summary":   appI18n.Tp(r.Context(), "QuestionsAvailable", len(questions)),
	})
}

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var userID *int64
	if u := h.userFromRequest(r); u != nil {
		userID = &u.ID
	}

	sess, err := h.store.CreateQuizSession(uuid.NewString(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("started quiz session", "session_id", sess.ID)
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.GetQuizSession(chi.URLParam(r, "sessionID"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sess == nil {
		h.jsonError(r.Context(), w, http.StatusNotFound, "ErrSessionNotFound")
		return
	}
	records, err := h.store.GetAnswerRecords(sess.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": sess,
		"answers": records,
	})
}

// handleUploadPhoto stores a confidence photo and queues it for emotion
// analysis. The response returns immediately with the photo URL; the
// analysis resolves in the background and is picked up when the answer
// for the same question is submitted.
func (h *Handler) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := h.store.GetQuizSession(sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sess == nil {
		h.jsonError(r.Context(), w, http.StatusNotFound, "ErrSessionNotFound")
		return
	}
	if sess.Status != model.StatusInProgress {
		h.jsonError(r.Context(), w, http.StatusConflict, "ErrSessionCompleted")
		return
	}

	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	questionID, err := strconv.ParseInt(r.FormValue("question_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid question_id", http.StatusBadRequest)
		return
	}
	captureMode := r.FormValue("capture_mode")
	delaySec, _ := strconv.Atoi(r.FormValue("capture_delay_sec"))

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxPhotoSize))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	url, err := h.photos.Save(sessionID, questionID, captureMode, delaySec, data)
	if err != nil {
		slog.Error("failed to save photo", "session_id", sessionID, "question_id", questionID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.analyzer.Submit(context.Background(), emotion.Key{SessionID: sessionID, QuestionID: questionID}, data)

	writeJSON(w, http.StatusCreated, map[string]any{
		"photo_url":         url,
		"capture_mode":      captureMode,
		"capture_delay_sec": delaySec,
	})
}

// handleAnalyze runs a one-off emotion analysis outside any session, for
// the camera-check flow before a quiz starts.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxPhotoSize))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	vec, simulated := h.emotion.AnalyzeOrSimulate(r.Context(), data)
	result := h.analyzer.Scorer().Score(vec)
	writeJSON(w, http.StatusOK, map[string]any{
		"emotions":  vec,
		"simulated": simulated,
		"result":    presentResult(r.Context(), result),
	})
}

type submitAnswerRequest struct {
	QuestionID      int64  `json:"question_id"`
	AnswerText      string `json:"answer_text"`
	PhotoURL        string `json:"photo_url"`
	CaptureMode     string `json:"capture_mode"`
	CaptureDelaySec int    `json:"capture_delay_sec"`
}

func (h *Handler) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := h.store.GetQuizSession(sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sess == nil {
		h.jsonError(r.Context(), w, http.StatusNotFound, "ErrSessionNotFound")
		return
	}
	if sess.Status != model.StatusInProgress {
		h.jsonError(r.Context(), w, http.StatusConflict, "ErrSessionCompleted")
		return
	}

	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	question, err := h.store.GetQuestion(req.QuestionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if question == nil {
		h.jsonError(r.Context(), w, http.StatusNotFound, "ErrQuestionNotFound")
		return
	}

	answered, err := h.store.HasAnswerRecord(sessionID, req.QuestionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if answered {
		h.jsonError(r.Context(), w, http.StatusConflict, "ErrAlreadyAnswered")
		return
	}

	eval := answer.Evaluate(req.AnswerText, question.Options, question.CorrectIndices)

	rec := model.AnswerRecord{
		SessionID:       sessionID,
		QuestionID:      req.QuestionID,
		AnswerText:      req.AnswerText,
		IsCorrect:       eval.IsCorrect,
		Label:           eval.Label,
		PhotoURL:        req.PhotoURL,
		CaptureMode:     req.CaptureMode,
		CaptureDelaySec: req.CaptureDelaySec,
	}

	key := emotion.Key{SessionID: sessionID, QuestionID: req.QuestionID}
	ctx, cancel := context.WithTimeout(r.Context(), answerAwaitTimeout)
	outcome, ok := h.analyzer.Await(ctx, key)
	cancel()
	var confResult any
	if ok {
		score := outcome.Result.Score
		rec.Confidence = &score
		rec.Simulated = outcome.Simulated
		confResult = presentResult(r.Context(), outcome.Result)
	} else {
		// Analysis never resolved in time. The record keeps a nil
		// confidence and reporting falls back to the default.
		h.analyzer.Discard(key)
		slog.Warn("confidence analysis unresolved, using default",
			"session_id", sessionID, "question_id", req.QuestionID)
	}

	id, err := h.store.InsertAnswerRecord(rec)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rec.ID = id

	writeJSON(w, http.StatusCreated, map[string]any{
		"answer":     rec,
		"label":      eval.Label,
		"label_text": appI18n.T(r.Context(), labelMsgIDs[eval.Label]),
		"confidence": rec.ConfidenceValue(),
		"analysis":   confResult,
	})
}

func (h *Handler) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := h.store.GetQuizSession(sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sess == nil {
		h.jsonError(r.Context(), w, http.StatusNotFound, "ErrSessionNotFound")
		return
	}
	if err := h.store.CompleteQuizSession(sessionID); err != nil {
		h.jsonError(r.Context(), w, http.StatusConflict, "ErrSessionCompleted")
		return
	}

	records, err := h.store.GetAnswerRecords(sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rep := report.Aggregate(records)
	if err := h.store.SaveReport(sessionID, rep); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("completed quiz session", "session_id", sessionID,
		"score", rep.ScorePercentage, "avg_confidence", rep.AverageConfidence)

	writeJSON(w, http.StatusOK, presentReport(r.Context(), rep))
}

func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	rep, err := h.store.GetReport(sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rep == nil {
		sess, err := h.store.GetQuizSession(sessionID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if sess == nil {
			h.jsonError(r.Context(), w, http.StatusNotFound, "ErrSessionNotFound")
			return
		}
		// Session exists but was never completed.
		h.jsonError(r.Context(), w, http.StatusConflict, "ErrReportNotReady")
		return
	}
	writeJSON(w, http.StatusOK, presentReport(r.Context(), *rep))
}
