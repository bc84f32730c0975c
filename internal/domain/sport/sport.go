// Package sport classifies sport events into time-based/points-based and
// team/individual kinds.
package sport

import (
	"strings"

	"github.com/okian/spartakiad/internal/domain/model"
)

// Default localized keywords. Matching is case-insensitive on substrings.
var (
	DefaultTimeBasedKeywords = []string{"бег", "плавание"}
	DefaultTeamKeywords      = []string{"баскетбол", "волейбол", "футбол"}
)

// Kind is the classification of one sport type.
type Kind struct {
	TimeBased bool
	Team      bool
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithTimeBasedKeywords replaces the time-based keyword list. Empty lists are ignored.
func WithTimeBasedKeywords(words []string) Option {
	return func(c *Classifier) {
		if kw := normalize(words); len(kw) > 0 {
			c.timeBased = kw
		}
	}
}

// WithTeamKeywords replaces the team sport keyword list. Empty lists are ignored.
func WithTeamKeywords(words []string) Option {
	return func(c *Classifier) {
		if kw := normalize(words); len(kw) > 0 {
			c.team = kw
		}
	}
}

// Classifier derives a Kind from a sport type. A kind supplied explicitly by
// the backend always wins; the keyword lists only fill the gaps.
type Classifier struct {
	timeBased []string
	team      []string
}

// NewClassifier creates a classifier with the default keyword lists.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		timeBased: normalize(DefaultTimeBasedKeywords),
		team:      normalize(DefaultTeamKeywords),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the kind of st.
func (c *Classifier) Classify(st model.SportType) Kind {
	k := Kind{
		TimeBased: c.IsTimeBased(st.Name),
		Team:      c.IsTeam(st.Name),
	}
	switch st.ResultType {
	case model.ResultTypeTime:
		k.TimeBased = true
	case model.ResultTypePoints:
		k.TimeBased = false
	}
	if st.IsTeam != nil {
		k.Team = *st.IsTeam
	}
	return k
}

// IsTimeBased reports whether the event name matches a time-based keyword.
func (c *Classifier) IsTimeBased(name string) bool {
	return containsAny(name, c.timeBased)
}

// IsTeam reports whether the event name matches a team sport keyword.
func (c *Classifier) IsTeam(name string) bool {
	return containsAny(name, c.team)
}

func containsAny(name string, words []string) bool {
	n := strings.ToLower(name)
	for _, w := range words {
		if strings.Contains(n, w) {
			return true
		}
	}
	return false
}

func normalize(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
