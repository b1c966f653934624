package gaze

import "github.com/gazelab/gaze.report/internal/config"

// ConfigFromAnalysis maps the file-level analysis config onto the engine's
// runtime Config.
func ConfigFromAnalysis(ac *config.AnalysisConfig) Config {
	return Config{
		ScreenWidthPX:    ac.GetScreenWidthPX(),
		ScreenHeightPX:   ac.GetScreenHeightPX(),
		BaselineWindowMS: ac.GetBaselineWindowMS(),
	}
}

// BoundsFromAnalysis maps the file-level validity thresholds onto engine
// bounds. The pupil rate threshold is symmetric about zero.
func BoundsFromAnalysis(ac *config.AnalysisConfig) ValidityBounds {
	rate := ac.GetPupilChangeRateMaxAbs()
	return ValidityBounds{
		FixationDurationMS: Between(ac.GetFixationDurationMinMS(), ac.GetFixationDurationMaxMS()),
		SaccadeAmplitudePX: AtMost(ac.GetSaccadeAmplitudeMaxPX()),
		PupilChangeRate:    Between(-rate, rate),
	}
}
