package models

// Score aggregates recorded responses into the audit's compliance percentage:
// earned points over the best attainable points, each response weighted under
// its own stored mapping version. Unanswered indicators are excluded, never
// averaged in; zero responses score zero rather than undefined.
func Score(responses []*IndicatorResponse) (percent float64, responded int, err error) {
	if len(responses) == 0 {
		return 0, 0, nil
	}

	var earned, attainable int
	for _, r := range responses {
		best, err := MaxPointsFor(r.ScoreVersion)
		if err != nil {
			return 0, 0, err
		}
		earned += r.ScorePoints
		attainable += best
	}
	return float64(earned) / float64(attainable) * 100, len(responses), nil
}
