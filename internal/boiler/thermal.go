package boiler

import "math"

const (
	// SpecificHeat is the specific heat of water in kJ/(kg·°C).
	SpecificHeat = 4.186

	// SafetyMarginMinutes is the buffer added to every committed heating
	// duration to cover estimation error.
	SafetyMarginMinutes = 10
)

// ElectricGain returns the temperature rise in °C from running a heating
// element of powerKw for minutes over heatedVolumeLiters of water.
// ΔT = (P × t) / (m × c). Returns 0 for non-positive inputs.
func ElectricGain(powerKw, heatedVolumeLiters float64, minutes int) float64 {
	if powerKw <= 0 || heatedVolumeLiters <= 0 || minutes <= 0 {
		return 0
	}
	energyKj := powerKw * float64(minutes) * 60.0
	return energyKj / (heatedVolumeLiters * SpecificHeat)
}

// HeatingDuration returns the minutes of electric heating needed to close
// tempDeficitC over heatedVolumeLiters, rounded up, plus the safety margin.
// Returns 0 when there is no deficit or any other input is non-positive.
func HeatingDuration(tempDeficitC, heatedVolumeLiters, powerKw float64, safetyMarginMinutes int) int {
	if tempDeficitC <= 0 || heatedVolumeLiters <= 0 || powerKw <= 0 {
		return 0
	}
	heatingSeconds := tempDeficitC * heatedVolumeLiters * SpecificHeat / powerKw
	margin := safetyMarginMinutes
	if margin < 0 {
		margin = 0
	}
	return int(math.Ceil(heatingSeconds/60.0)) + margin
}

// EffectiveDeliveredTemp returns the temperature actually received at the tap.
// In a stratified tank showers draw from the heated top layer first, so a draw
// within capacity delivers hotTempC unchanged; a larger draw mixes in cold
// makeup water proportionally.
func EffectiveDeliveredTemp(hotTempC float64, waterNeededLiters, capacityLiters int, inletTempC float64) float64 {
	if waterNeededLiters <= 0 || capacityLiters <= 0 {
		return inletTempC
	}
	mixFactor := 1.0
	if waterNeededLiters > capacityLiters {
		mixFactor = float64(capacityLiters) / float64(waterNeededLiters)
	}
	return hotTempC*mixFactor + inletTempC*(1.0-mixFactor)
}
