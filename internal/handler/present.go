package handler

import (
	"context"

	"github.com/metamind/quiz/internal/answer"
	"github.com/metamind/quiz/internal/confidence"
	appI18n "github.com/metamind/quiz/internal/i18n"
	"github.com/metamind/quiz/internal/report"
)

// The scoring and reporting packages emit stable machine codes; this file
// turns them into localized text for API responses.

var labelMsgIDs = map[answer.Label]string{
	answer.LabelCorrect:          "LabelCorrect",
	answer.LabelIncorrect:        "LabelIncorrect",
	answer.LabelPartiallyCorrect: "LabelPartiallyCorrect",
}

var surpriseMsgIDs = map[confidence.SurpriseReason]string{
	confidence.SurpriseNeutralEffect:     "SurpriseNeutralEffect",
	confidence.SurpriseHappyDominant:     "SurprisePositiveHappinessDominant",
	confidence.SurpriseNegativeDominant:  "SurpriseNegativeEmotionsDominant",
	confidence.SurprisePositivesStronger: "SurprisePositivePositivesStronger",
	confidence.SurpriseNegativesStronger: "SurpriseNegativeNegativesStronger",
}

var toneMsgIDs = map[confidence.Tone]string{
	confidence.TonePositive:     "TonePositive",
	confidence.ToneNegative:     "ToneNegative",
	confidence.ToneNeutral:      "ToneNeutral",
	confidence.ToneUndetermined: "ToneUndetermined",
}

var explanationMsgIDs = map[confidence.Explanation]string{
	confidence.ExplanationHigh:        "ExplanationHighConfidence",
	confidence.ExplanationMedium:      "ExplanationMediumConfidence",
	confidence.ExplanationLowMixed:    "ExplanationLowConfidenceMixed",
	confidence.ExplanationLowNegative: "ExplanationLowConfidenceNegative",
	confidence.ExplanationVeryLow:     "ExplanationVeryLowConfidence",
	confidence.ExplanationNoEmotion:   "ExplanationNoEmotionDetected",
}

var feedbackMsgIDs = map[report.FeedbackCode]string{
	report.FeedbackOverconfident:  "FeedbackOverconfidenceWarning",
	report.FeedbackStrengthGood:   "FeedbackStrengthGood",
	report.FeedbackStrengthHigh:   "FeedbackStrengthExcellent",
	report.FeedbackUnderconfident: "FeedbackReinforcementNeeded",
}

type presentedResult struct {
	confidence.Result
	SurpriseReasonText string `json:"surprise_reason_text,omitempty"`
	ToneText           string `json:"emotional_tone_text,omitempty"`
	ExplanationText    string `json:"explanation_text,omitempty"`
}

func presentResult(ctx context.Context, res confidence.Result) presentedResult {
	p := presentedResult{Result: res}
	if id, ok := surpriseMsgIDs[res.SurpriseReason]; ok {
		p.SurpriseReasonText = appI18n.T(ctx, id)
	}
	if id, ok := toneMsgIDs[res.Tone]; ok {
		p.ToneText = appI18n.T(ctx, id)
	}
	if id, ok := explanationMsgIDs[res.Explanation]; ok {
		p.ExplanationText = appI18n.Td(ctx, id, map[string]any{"Tone": p.ToneText})
	}
	return p
}

type presentedReport struct {
	report.Report
	Feedback []presentedFeedback `json:"feedback"`
}

type presentedFeedback struct {
	Code report.FeedbackCode `json:"code"`
	Text string              `json:"text"`
}

func presentReport(ctx context.Context, rep report.Report) presentedReport {
	p := presentedReport{Report: rep}
	for _, code := range rep.Feedback() {
		id := feedbackMsgIDs[code]
		text := appI18n.T(ctx, id)
		if code == report.FeedbackOverconfident {
			text = appI18n.Td(ctx, id, map[string]any{"Count": rep.OverconfidentCount})
		}
		p.Feedback = append(p.Feedback, presentedFeedback{Code: code, Text: text})
	}
	return p
}
