// Package report aggregates a completed session's answer records into the
// post-quiz metacognitive report: confidence vs. correctness quadrants plus
// the summary counts driving coach feedback.
package report

import "github.com/metamind/quiz/internal/model"

// HighConfidenceThreshold separates high from low confidence. "High" is
// strictly greater than the threshold.
const HighConfidenceThreshold = 70.0

// QuadrantCounts is the four-way histogram of confidence level crossed
// with correctness.
type QuadrantCounts struct {
	HighConfidenceCorrect int `json:"high_confidence_correct"`
	HighConfidenceWrong   int `json:"high_confidence_wrong"`
	LowConfidenceCorrect  int `json:"low_confidence_correct"`
	LowConfidenceWrong    int `json:"low_confidence_wrong"`
}

// FeedbackCode selects a coach feedback message. Codes are stable;
// localization happens in the presentation layer.
type FeedbackCode string

const (
	FeedbackOverconfident  FeedbackCode = "overconfidence_warning"
	FeedbackStrengthGood   FeedbackCode = "strength_good"
	FeedbackStrengthHigh   FeedbackCode = "strength_excellent"
	FeedbackUnderconfident FeedbackCode = "reinforcement_needed"
)

// Report is the aggregated summary of one quiz session.
type Report struct {
	TotalQuestions    int            `json:"total_questions"`
	CorrectCount      int            `json:"correct_count"`
	ScorePercentage   float64        `json:"score_percentage"`
	AverageConfidence float64        `json:"average_confidence"`
	Quadrants         QuadrantCounts `json:"quadrants"`
	// OverconfidentCount counts incorrect answers given with confidence
	// above the threshold; UnderconfidentCount counts correct answers
	// given with confidence strictly below it.
	OverconfidentCount  int `json:"overconfident_count"`
	UnderconfidentCount int `json:"underconfident_count"`
}

// Aggregate builds the report from the full ordered answer sequence.
// Records without a confidence score count as the default sentinel.
func Aggregate(records []model.AnswerRecord) Report {
	r := Report{TotalQuestions: len(records)}
	if len(records) == 0 {
		return r
	}

	var confidenceSum float64
	for _, rec := range records {
		confidence := rec.ConfidenceValue()
		confidenceSum += confidence
		high := confidence > HighConfidenceThreshold

		switch {
		case high && rec.IsCorrect:
			r.Quadrants.HighConfidenceCorrect++
		case high && !rec.IsCorrect:
			r.Quadrants.HighConfidenceWrong++
		case !high && rec.IsCorrect:
			r.Quadrants.LowConfidenceCorrect++
		default:
			r.Quadrants.LowConfidenceWrong++
		}

		if rec.IsCorrect {
			r.CorrectCount++
			if confidence < HighConfidenceThreshold {
				r.UnderconfidentCount++
			}
		} else if high {
			r.OverconfidentCount++
		}
	}

	r.ScorePercentage = float64(r.CorrectCount) / float64(len(records)) * 100
	r.AverageConfidence = confidenceSum / float64(len(records))
	return r
}

// Feedback returns the coach feedback codes the report warrants, in
// display order.
func (r Report) Feedback() []FeedbackCode {
	var codes []FeedbackCode
	if r.OverconfidentCount > 0 {
		codes = append(codes, FeedbackOverconfident)
	}
	switch {
	case r.ScorePercentage >= 70:
		codes = append(codes, FeedbackStrengthHigh)
	case r.ScorePercentage >= 50:
		codes = append(codes, FeedbackStrengthGood)
	}
	if r.UnderconfidentCount > 0 {
		codes = append(codes, FeedbackUnderconfident)
	}
	return codes
}
