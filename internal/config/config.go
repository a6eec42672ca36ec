package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load populates the process environment before any getter runs. The file
// comes from AMBIENT_ENV, falling back to .env, which may be absent. A file
// named through AMBIENT_ENV must exist. Its "<file>.secret" companion is
// merged when present. Variables already in the environment are not
// overwritten.
func Load() error {
	path := os.Getenv("AMBIENT_ENV")
	named := path != ""
	if !named {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && (named || !errors.Is(err, fs.ErrNotExist)) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	if err := godotenv.Load(path + ".secret"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file %s.secret: %w", path, err)
	}
	return nil
}

// TickInterval is the minimum time between two reasoning cycles of an agent.
// Defaults to 1ms if not set.
func TickInterval() time.Duration {
	d, err := time.ParseDuration(os.Getenv("SIM_TICK_INTERVAL"))
	if err != nil || d < 0 {
		return time.Millisecond
	}
	return d
}

// MinSamples is the number of samples an agent observes before building its
// first context. Defaults to 10.
func MinSamples() int {
	return positiveInt("SIM_MIN_SAMPLES", 10)
}

func WindowWidth() int {
	return positiveInt("SIM_WINDOW_WIDTH", 10)
}

func MaxWindowWidth() int {
	return positiveInt("SIM_MAX_WINDOW_WIDTH", 14)
}

// SimilarContexts is how many similar contexts feed an estimate.
func SimilarContexts() int {
	return positiveInt("SIM_SIMILAR_CONTEXTS", 10)
}

func UseCooperation() bool {
	return boolean("SIM_USE_COOPERATION", true)
}

func PromoteObserved() bool {
	return boolean("SIM_PROMOTE_OBSERVED", true)
}

// ConfidenceDelta is the trust step applied after each cooperative estimate.
// Defaults to 0.1.
func ConfidenceDelta() float64 {
	v, err := strconv.ParseFloat(os.Getenv("SIM_CONFIDENCE_DELTA"), 64)
	if err != nil || v <= 0 || v > 1 {
		return 0.1
	}
	return v
}

// NeighborStrategy returns the neighbor selection strategy.
// Valid values: all, confident, nearest
func NeighborStrategy() string {
	return stringOr("SIM_NEIGHBOR_STRATEGY", "all")
}

func NeighborPercentage() float64 {
	v, err := strconv.ParseFloat(os.Getenv("SIM_NEIGHBOR_PERCENTAGE"), 64)
	if err != nil || v <= 0 || v > 100 {
		return 25
	}
	return v
}

// ComparatorName returns the context comparator.
// Valid values: mean_absolute, dtw, var_width
func ComparatorName() string {
	return stringOr("SIM_COMPARATOR", "mean_absolute")
}

// ComparatorCacheSize bounds the comparison memo. 0 disables it.
func ComparatorCacheSize() int {
	n, err := strconv.Atoi(os.Getenv("SIM_COMPARATOR_CACHE_SIZE"))
	if err != nil || n < 0 {
		return 4096
	}
	return n
}

// EstimatorName returns the estimation strategy.
// Valid values: weighted_delta, variation
func EstimatorName() string {
	return stringOr("SIM_ESTIMATOR", "weighted_delta")
}

// ContextFinderName returns the window finder.
// Valid values: fixed_width, var_width
func ContextFinderName() string {
	return stringOr("SIM_CONTEXT_FINDER", "fixed_width")
}

func ZoneEnabled() bool {
	return boolean("ZONE_ENABLED", false)
}

func ZoneSides() int {
	n := positiveInt("ZONE_SIDES", 8)
	if n < 3 {
		return 8
	}
	return n
}

func ZoneRadius() float64 {
	return positiveFloat("ZONE_RADIUS", 250)
}

func ZoneMinRadius() float64 {
	return positiveFloat("ZONE_MIN_RADIUS", 50)
}

func ZoneUpdateDelta() float64 {
	return positiveFloat("ZONE_UPDATE_DELTA", 220)
}

func ZoneOutlierFactor() float64 {
	return positiveFloat("ZONE_OUTLIER_FACTOR", 0.1)
}

// ZoneLocked freezes every confidence zone in its initial shape.
func ZoneLocked() bool {
	return boolean("ZONE_LOCKED", false)
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

func positiveInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func positiveFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func boolean(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func stringOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return strings.ToLower(v)
}
