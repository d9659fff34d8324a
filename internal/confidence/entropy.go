package confidence

import "math"

// maxEntropy is the Shannon entropy of a uniform distribution over the
// seven emotion categories.
var maxEntropy = math.Log2(7)

// EntropyScorer implements the entropy+valence formula: certainty is the
// complement of normalized Shannon entropy, valence is happy minus the
// negative emotions, and the final score blends the two 60/40 with a
// penalty for strongly neutral faces.
//
// Probabilities are taken as value/100, not renormalized by the actual
// sum. Vectors that do not sum to 100 pass through as-is; only the final
// clamp bounds the output.
type EntropyScorer struct{}

func (EntropyScorer) Name() string { return VariantEntropy }

func (EntropyScorer) Score(v Vector) Result {
	// An all-zero vector would divide by zero in the entropy
	// normalization; return the fixed neutral result instead.
	if v.Sum() == 0 {
		return Result{
			Score:          50.0,
			SurpriseReason: SurpriseNeutralEffect,
			Tone:           ToneUndetermined,
			Explanation:    ExplanationNoEmotion,
		}
	}

	entropy := 0.0
	for _, e := range canonicalOrder {
		p := v.value(e) / 100
		if p > 0 {
			entropy -= p * math.Log2(p)
		}
	}
	certainty := clamp((1-entropy/maxEntropy)*100, 0, 100)

	negative := v.NegativeTotal()
	valence := v.Happy - negative

	surpriseContribution := 0.0
	surpriseReason := SurpriseNeutralEffect
	if v.Surprise > 30 {
		if valence > 0 {
			surpriseContribution = v.Surprise * 0.5
			surpriseReason = SurpriseHappyDominant
		} else if valence < 0 {
			surpriseContribution = -v.Surprise * 0.3
			surpriseReason = SurpriseNegativeDominant
		}
	}
	adjustedValence := valence + surpriseContribution

	neutralPenalty := 0.0
	if v.Neutral > 70 {
		neutralPenalty = (v.Neutral/100 - 0.7) * 0.5
	}

	certaintyComponent := certainty / 100
	emotionComponent := (adjustedValence/100 + 1) / 2
	finalScore := (certaintyComponent*0.6+emotionComponent*0.4)*100 - neutralPenalty*100
	finalScore = clamp(finalScore, 0, 100)

	tone := ToneNeutral
	switch normalized := adjustedValence / 100; {
	case normalized > 0.2:
		tone = TonePositive
	case normalized < -0.2:
		tone = ToneNegative
	}

	var explanation Explanation
	switch {
	case finalScore > 70:
		explanation = ExplanationHigh
	case finalScore > 50:
		explanation = ExplanationMedium
	case finalScore > 30:
		if certainty < 40 {
			explanation = ExplanationLowMixed
		} else {
			explanation = ExplanationLowNegative
		}
	default:
		explanation = ExplanationVeryLow
	}

	return Result{
		Score:                round1(finalScore),
		HappyTotal:           round1(v.Happy),
		NegativeTotal:        round1(negative),
		NeutralImpact:        round1(v.Neutral),
		SurpriseContribution: round1(surpriseContribution),
		SurpriseReason:       surpriseReason,
		Certainty:            round1(certainty),
		Valence:              round1(valence),
		AdjustedValence:      round1(adjustedValence),
		Entropy:              round4(entropy),
		Tone:                 tone,
		Explanation:          explanation,
	}
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }

func round4(x float64) float64 { return math.Round(x*10000) / 10000 }
