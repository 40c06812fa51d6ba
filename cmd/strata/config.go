package main

import (
	"os"
	"strconv"

	"github.com/chazu/strata/pkg/gcode"
	"github.com/chazu/strata/pkg/slicer"
)

// Defaults come from the slicer and g-code packages and may be overridden
// by STRATA_* environment variables, then by flags.
type settings struct {
	Slicer     slicer.Config
	GCode      gcode.Options
	Resolution int
	DBPath     string
	Policy     string
	Sort       string
}

func loadSettings() settings {
	cfg := slicer.DefaultConfig()
	opts := gcode.DefaultOptions()

	cfg.LayerThickness = getEnvAsFloat("STRATA_LAYER_THICKNESS", cfg.LayerThickness)
	cfg.Tolerance = getEnvAsFloat("STRATA_TOLERANCE", cfg.Tolerance)
	cfg.Workers = getEnvAsInt("STRATA_WORKERS", cfg.Workers)

	h := &cfg.Hatch
	h.BaseAngle = getEnvAsFloat("STRATA_HATCH_ANGLE", h.BaseAngle)
	h.AngleIncrement = getEnvAsFloat("STRATA_HATCH_INCREMENT", h.AngleIncrement)
	h.Spacing = getEnvAsFloat("STRATA_HATCH_SPACING", h.Spacing)
	h.NumOuterContours = getEnvAsInt("STRATA_OUTER_CONTOURS", h.NumOuterContours)
	h.NumInnerContours = getEnvAsInt("STRATA_INNER_CONTOURS", h.NumInnerContours)
	h.OuterOffsetSpacing = getEnvAsFloat("STRATA_OUTER_OFFSET", h.OuterOffsetSpacing)
	h.InnerOffsetSpacing = getEnvAsFloat("STRATA_INNER_OFFSET", h.InnerOffsetSpacing)
	h.VolumeOffset = getEnvAsFloat("STRATA_VOLUME_OFFSET", h.VolumeOffset)

	opts.Feedrate = getEnvAsFloat("STRATA_FEEDRATE", opts.Feedrate)
	opts.TravelFeedrate = getEnvAsFloat("STRATA_TRAVEL_FEEDRATE", opts.TravelFeedrate)
	opts.ZFeedrate = getEnvAsFloat("STRATA_Z_FEEDRATE", opts.ZFeedrate)

	return settings{
		Slicer:     cfg,
		GCode:      opts,
		Resolution: getEnvAsInt("STRATA_RESOLUTION", 200),
		DBPath:     getEnv("STRATA_DB", ""),
		Policy:     getEnv("STRATA_POLICY", cfg.Policy.String()),
		Sort:       getEnv("STRATA_SORT", "alternate"),
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
