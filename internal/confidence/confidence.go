// Package confidence converts a facial-emotion distribution into a
// 0-100 confidence score. Two scoring strategies are provided: a linear
// contextual formula and an entropy+valence formula. Both are pure and
// total: any finite input produces a defined result.
package confidence

import "fmt"

// Emotion identifies one of the seven recognized emotion categories.
type Emotion string

const (
	EmotionAngry    Emotion = "angry"
	EmotionDisgust  Emotion = "disgust"
	EmotionFear     Emotion = "fear"
	EmotionHappy    Emotion = "happy"
	EmotionSad      Emotion = "sad"
	EmotionSurprise Emotion = "surprise"
	EmotionNeutral  Emotion = "neutral"
)

// canonicalOrder is the fixed iteration order over emotions. Dominant-emotion
// selection breaks ties by preferring the earliest entry in this order, so the
// order must never change.
var canonicalOrder = [7]Emotion{
	EmotionAngry,
	EmotionDisgust,
	EmotionFear,
	EmotionHappy,
	EmotionSad,
	EmotionSurprise,
	EmotionNeutral,
}

// Vector holds the emotion distribution produced by the inference service.
// Each field is a percentage; producers normalize the seven values to sum
// to 100, but the scorers tolerate vectors that do not.
type Vector struct {
	Angry    float64 `json:"angry"`
	Disgust  float64 `json:"disgust"`
	Fear     float64 `json:"fear"`
	Happy    float64 `json:"happy"`
	Sad      float64 `json:"sad"`
	Surprise float64 `json:"surprise"`
	Neutral  float64 `json:"neutral"`
}

// FromMap builds a Vector from a string-keyed emotion map, the shape the
// inference service responds with. Missing keys are zero; unknown keys are
// ignored.
func FromMap(m map[string]float64) Vector {
	return Vector{
		Angry:    m[string(EmotionAngry)],
		Disgust:  m[string(EmotionDisgust)],
		Fear:     m[string(EmotionFear)],
		Happy:    m[string(EmotionHappy)],
		Sad:      m[string(EmotionSad)],
		Surprise: m[string(EmotionSurprise)],
		Neutral:  m[string(EmotionNeutral)],
	}
}

// Map returns the vector as a string-keyed map for JSON responses.
func (v Vector) Map() map[string]float64 {
	return map[string]float64{
		string(EmotionAngry):    v.Angry,
		string(EmotionDisgust):  v.Disgust,
		string(EmotionFear):     v.Fear,
		string(EmotionHappy):    v.Happy,
		string(EmotionSad):      v.Sad,
		string(EmotionSurprise): v.Surprise,
		string(EmotionNeutral):  v.Neutral,
	}
}

func (v Vector) value(e Emotion) float64 {
	switch e {
	case EmotionAngry:
		return v.Angry
	case EmotionDisgust:
		return v.Disgust
	case EmotionFear:
		return v.Fear
	case EmotionHappy:
		return v.Happy
	case EmotionSad:
		return v.Sad
	case EmotionSurprise:
		return v.Surprise
	default:
		return v.Neutral
	}
}

// Sum returns the total of all seven values.
func (v Vector) Sum() float64 {
	return v.Angry + v.Disgust + v.Fear + v.Happy + v.Sad + v.Surprise + v.Neutral
}

// NegativeTotal is the combined weight of the negative emotions.
func (v Vector) NegativeTotal() float64 {
	return v.Sad + v.Fear + v.Angry + v.Disgust
}

// Dominant returns the emotion with the highest value. Ties go to the
// earliest emotion in canonical order, so an all-zero vector yields angry.
// This keeps the scorers total without a special case.
func (v Vector) Dominant() Emotion {
	dominant := canonicalOrder[0]
	best := v.value(dominant)
	for _, e := range canonicalOrder[1:] {
		if v.value(e) > best {
			dominant = e
			best = v.value(e)
		}
	}
	return dominant
}

// SurpriseReason is a stable code explaining the direction of the surprise
// contribution. Localization happens in the presentation layer.
type SurpriseReason string

const (
	SurpriseNeutralEffect     SurpriseReason = "neutral_effect"
	SurpriseHappyDominant     SurpriseReason = "positive_happiness_dominant"
	SurpriseNegativeDominant  SurpriseReason = "negative_emotions_dominant"
	SurprisePositivesStronger SurpriseReason = "positive_positives_stronger"
	SurpriseNegativesStronger SurpriseReason = "negative_negatives_stronger"
)

// Tone classifies the overall emotional polarity.
type Tone string

const (
	TonePositive     Tone = "positive"
	ToneNegative     Tone = "negative"
	ToneNeutral      Tone = "neutral"
	ToneUndetermined Tone = "undetermined"
)

// Explanation is a stable code for the human-readable confidence band.
type Explanation string

const (
	ExplanationHigh        Explanation = "high_confidence"
	ExplanationMedium      Explanation = "medium_confidence"
	ExplanationLowMixed    Explanation = "low_confidence_mixed"
	ExplanationLowNegative Explanation = "low_confidence_negative"
	ExplanationVeryLow     Explanation = "very_low_confidence"
	ExplanationNoEmotion   Explanation = "no_emotion_detected"
)

// Result is the score plus the breakdown of intermediate quantities.
// The linear strategy fills BaseCalculation; the entropy strategy fills
// Certainty, Valence, AdjustedValence, Entropy, Tone and Explanation.
type Result struct {
	Score                float64        `json:"score"`
	HappyTotal           float64        `json:"happy_total"`
	NegativeTotal        float64        `json:"negative_total"`
	NeutralImpact        float64        `json:"neutral_impact"`
	SurpriseContribution float64        `json:"surprise_contribution"`
	SurpriseReason       SurpriseReason `json:"surprise_reason"`
	BaseCalculation      float64        `json:"base_calculation"`
	Certainty            float64        `json:"certainty"`
	Valence              float64        `json:"valence"`
	AdjustedValence      float64        `json:"adjusted_valence"`
	Entropy              float64        `json:"entropy"`
	Tone                 Tone           `json:"emotional_tone,omitempty"`
	Explanation          Explanation    `json:"explanation,omitempty"`
}

// Scorer is a confidence-scoring strategy. Implementations are pure and
// safe for concurrent use.
type Scorer interface {
	Score(v Vector) Result
	Name() string
}

const (
	// VariantLinear selects the linear contextual formula.
	VariantLinear = "linear"
	// VariantEntropy selects the entropy+valence formula.
	VariantEntropy = "entropy"
)

// ForVariant returns the scorer for a configured variant name.
func ForVariant(name string) (Scorer, error) {
	switch name {
	case VariantLinear:
		return LinearScorer{}, nil
	case VariantEntropy:
		return EntropyScorer{}, nil
	default:
		return nil, fmt.Errorf("unknown scorer variant %q", name)
	}
}

// IsValidVariant reports whether name selects a known scorer.
func IsValidVariant(name string) bool {
	return name == VariantLinear || name == VariantEntropy
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
