package boiler

// adjustmentStep is the minutes added or removed per feedback event.
const adjustmentStep = 10

// AdjustBaselines applies one feedback rating to the baseline for day and
// returns the updated set. A missing baseline or a just-right rating leaves
// the input unchanged. Durations never drop below zero.
func AdjustBaselines(rating Rating, day DayType, baselines []Baseline) []Baseline {
	updated := make([]Baseline, len(baselines))
	copy(updated, baselines)

	for i := range updated {
		if updated[i].DayType != day {
			continue
		}
		switch rating {
		case RatingTooCold:
			updated[i].DurationMinutes += adjustmentStep
		case RatingTooHot:
			updated[i].DurationMinutes -= adjustmentStep
			if updated[i].DurationMinutes < 0 {
				updated[i].DurationMinutes = 0
			}
		}
		break
	}
	return updated
}
