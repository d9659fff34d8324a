package confidence

// LinearScorer implements the linear contextual formula. The base score is
// happiness minus the negative emotions minus neutral; surprise then pushes
// the score up or down depending on which emotion dominates the vector.
// The raw result is mapped onto 0-100 with (raw+100)/2, so a fully blank
// vector lands at 50.
type LinearScorer struct{}

func (LinearScorer) Name() string { return VariantLinear }

func (LinearScorer) Score(v Vector) Result {
	dominant := v.Dominant()
	negative := v.NegativeTotal()

	base := v.Happy - negative - v.Neutral

	surpriseContribution := 0.0
	surpriseReason := SurpriseNeutralEffect

	switch dominant {
	case EmotionHappy:
		surpriseContribution = v.Surprise
		surpriseReason = SurpriseHappyDominant
	case EmotionSad, EmotionFear, EmotionAngry, EmotionDisgust:
		surpriseContribution = -v.Surprise
		surpriseReason = SurpriseNegativeDominant
	case EmotionSurprise:
		if v.Happy > negative {
			surpriseContribution = v.Surprise
			surpriseReason = SurprisePositivesStronger
		} else {
			surpriseContribution = -v.Surprise
			surpriseReason = SurpriseNegativesStronger
		}
	}

	raw := base + surpriseContribution

	return Result{
		Score:                clamp((raw+100)/2, 0, 100),
		HappyTotal:           v.Happy,
		NegativeTotal:        negative,
		NeutralImpact:        v.Neutral,
		SurpriseContribution: surpriseContribution,
		SurpriseReason:       surpriseReason,
		BaseCalculation:      raw,
	}
}
