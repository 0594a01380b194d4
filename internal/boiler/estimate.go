package boiler

const (
	// standbyLossRate is heat lost per hour with no solar input (°C/h).
	standbyLossRate = 0.5

	// inletTemp is the assumed cold-water inlet temperature (°C).
	inletTemp = 15.0

	// collectorArea is the effective solar collector area (m²).
	collectorArea = 2.0

	// solarEfficiency covers collector, piping and tank transfer losses.
	solarEfficiency = 0.45

	// maxBaselineCorrection limits feedback calibration so extreme user
	// ratings cannot dominate the physics model (°C).
	maxBaselineCorrection = 8.0

	// maxTankTemp is the highest temperature the model will predict (°C).
	maxTankTemp = 70.0

	// solarThreshold is the minimum radiation treated as significant (W/m²).
	solarThreshold = 50.0
)

// Estimate breaks down a predicted tank temperature at a target hour.
type Estimate struct {
	TemperatureC  float64 `json:"temperature_c"`
	SolarGainC    float64 `json:"solar_gain_c"`
	ElectricGainC float64 `json:"electric_gain_c"`
	StandbyLossC  float64 `json:"standby_loss_c"`
	InletTempC    float64 `json:"inlet_temp_c"`
}

// EstimateWaterTemperature predicts the tank water temperature at targetHour
// (0-23). It combines solar gain integrated from hourly radiation, a
// feedback-derived baseline calibration, electric heating already applied
// today, and standby loss since the last significant solar hour.
func EstimateWaterTemperature(cfg Config, baselines []Baseline, fc Forecast, targetHour, electricMinutesToday int) Estimate {
	solarGain := estimateSolarGain(cfg, fc, targetHour)
	calibration := baselineCalibration(cfg, baselines, fc.DayType)
	electricGain := ElectricGain(cfg.HeatingPowerKw, float64(cfg.CapacityLiters), electricMinutesToday)

	lastSolar := lastSolarHour(fc, targetHour)
	hoursSinceSolar := 0
	if lastSolar >= 0 && targetHour > lastSolar {
		hoursSinceSolar = targetHour - lastSolar
	}
	standbyLoss := float64(hoursSinceSolar) * standbyLossRate

	temp := inletTemp + solarGain + calibration + electricGain - standbyLoss
	if temp < inletTemp {
		temp = inletTemp
	}
	if temp > maxTankTemp {
		temp = maxTankTemp
	}

	displayedSolar := solarGain + calibration
	if displayedSolar < 0 {
		displayedSolar = 0
	}

	return Estimate{
		TemperatureC:  temp,
		SolarGainC:    displayedSolar,
		ElectricGainC: electricGain,
		StandbyLossC:  standbyLoss,
		InletTempC:    inletTemp,
	}
}

// estimateSolarGain integrates hourly radiation up to and including
// targetHour. Without hourly data it falls back to a conservative estimate
// from current radiation and the day's sunshine hours.
func estimateSolarGain(cfg Config, fc Forecast, targetHour int) float64 {
	radiation := fc.HourlyRadiationWm2
	if len(radiation) > 0 {
		hoursToSum := targetHour + 1
		if hoursToSum > len(radiation) {
			hoursToSum = len(radiation)
		}
		accumulated := 0.0
		for _, r := range radiation[:hoursToSum] {
			accumulated += r
		}
		// W/m² over one-hour samples: kJ = Σ[W/m²] × area × 3600 / 1000
		capturedKj := accumulated * collectorArea * 3.6 * solarEfficiency
		return capturedKj / (float64(cfg.CapacityLiters) * SpecificHeat)
	}

	sunHours := fc.SunshineHours
	if sunHours < 0 {
		sunHours = 0
	}
	if sunHours > 12 {
		sunHours = 12
	}
	currentRadiation := fc.CurrentRadiationWm2
	if currentRadiation < 0 {
		currentRadiation = 0
	}
	fallbackKj := currentRadiation * collectorArea * sunHours * 3.6 * solarEfficiency
	return fallbackKj / (float64(cfg.CapacityLiters) * SpecificHeat)
}

// baselineCalibration converts the gap between this day type's learned
// heating minutes and the all-types average into a °C adjustment. A day type
// that historically needed less electric heating than average is inferred to
// catch more effective solar gain than the physics model predicts.
func baselineCalibration(cfg Config, baselines []Baseline, day DayType) float64 {
	if len(baselines) == 0 {
		return 0
	}

	var forDay *Baseline
	for i := range baselines {
		if baselines[i].DayType == day {
			forDay = &baselines[i]
			break
		}
	}
	if forDay == nil {
		for i := range baselines {
			if baselines[i].DayType == DayPartlyCloudy {
				forDay = &baselines[i]
				break
			}
		}
	}
	if forDay == nil {
		return 0
	}

	total := 0
	for _, b := range baselines {
		total += b.DurationMinutes
	}
	average := float64(total) / float64(len(baselines))
	minuteDelta := average - float64(forDay.DurationMinutes)

	gainPerMinute := ElectricGain(cfg.HeatingPowerKw, float64(cfg.CapacityLiters), 1)

	correction := minuteDelta * gainPerMinute
	if correction > maxBaselineCorrection {
		correction = maxBaselineCorrection
	}
	if correction < -maxBaselineCorrection {
		correction = -maxBaselineCorrection
	}
	return correction
}

// lastSolarHour finds the last hour at or before targetHour with radiation
// above solarThreshold, or -1 if the sun never contributed. Without hourly
// data it estimates sunset as 6h after dawn plus the day's sunshine hours.
func lastSolarHour(fc Forecast, targetHour int) int {
	radiation := fc.HourlyRadiationWm2
	if len(radiation) == 0 {
		if fc.SunshineHours <= 0 {
			return -1
		}
		estimated := int(6.0 + fc.SunshineHours)
		if estimated < 0 {
			estimated = 0
		}
		if estimated > targetHour {
			estimated = targetHour
		}
		return estimated
	}

	last := targetHour
	if last > len(radiation)-1 {
		last = len(radiation) - 1
	}
	for hour := last; hour >= 0; hour-- {
		if radiation[hour] > solarThreshold {
			return hour
		}
	}
	return -1
}
