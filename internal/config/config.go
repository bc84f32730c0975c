// Package config defines the gateway configuration and how it is loaded.
package config

import (
	"time"

	"github.com/okian/spartakiad/internal/domain/sport"
)

// DefaultInstitutes lists the faculties accepted by the submission form, in
// their canonical spelling.
var DefaultInstitutes = []string{"ИМИТ", "ИЛГИСН", "ФТИ", "МедИН", "ИИИТ"}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// BackendURL is the root of the external REST API.
	BackendURL string `koanf:"backend_url"`

	// BackendTimeoutMS bounds every backend request.
	BackendTimeoutMS int `koanf:"backend_timeout_ms"`

	// DedupeSize sets how many submission keys are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxPlacePoints is awarded for first place; MinPlacePoints past the
	// scored places.
	MaxPlacePoints int `koanf:"max_place_points"`
	MinPlacePoints int `koanf:"min_place_points"`

	// TimeBasedKeywords and TeamSportKeywords classify sport names when the
	// backend sends no explicit kind.
	TimeBasedKeywords []string `koanf:"time_based_keywords"`
	TeamSportKeywords []string `koanf:"team_sport_keywords"`

	// Institutes lists the accepted faculty abbreviations.
	Institutes []string `koanf:"institutes"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		BackendURL:        "http://localhost:8000/api",
		BackendTimeoutMS:  10_000,
		DedupeSize:        10_000,
		MaxPlacePoints:    10,
		MinPlacePoints:    1,
		TimeBasedKeywords: append([]string(nil), sport.DefaultTimeBasedKeywords...),
		TeamSportKeywords: append([]string(nil), sport.DefaultTeamKeywords...),
		Institutes:        append([]string(nil), DefaultInstitutes...),
	}
}

// BackendTimeout returns BackendTimeoutMS as a duration.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutMS) * time.Millisecond
}
