package model

import (
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cbrandt/rescore/helper"
)

// ErrEmptyQuery is returned when no usable query text can be constructed
var ErrEmptyQuery = errors.New("cannot construct query: no usable query text")

// QueryContext is the explicit per-query state passed through the pipeline.
// Every input a stage needs is supplied here before the run starts; there is
// no process-wide query state.
type QueryContext struct {
	ID    uuid.UUID `json:"id"`
	Text  string    `json:"text"`
	Terms []string  `json:"terms"`

	Speaker      string    `json:"speaker,omitempty"`
	MessageCount int       `json:"message_count"`
	Emotion      string    `json:"emotion,omitempty"`
	GroupChat    bool      `json:"group_chat"`
	Now          time.Time `json:"now"`

	// RandomRoll is drawn once per query and consumed by every randomChance
	// rule of this query.
	RandomRoll float64 `json:"random_roll"`

	// RecentMessages holds the active context window, most recent first.
	RecentMessages []string `json:"recent_messages,omitempty"`

	Groups []Group `json:"groups,omitempty"`
}

// NewQueryContext builds a query context from raw query text. The only fatal
// precondition of a pipeline run is the absence of usable query text.
func NewQueryContext(text string) (*QueryContext, error) {
	if strings.TrimSpace(text) == "" {
		return nil, helper.NewError("construct query", ErrEmptyQuery)
	}

	return &QueryContext{
		ID:         uuid.New(),
		Text:       text,
		Terms:      Tokenize(text),
		Now:        time.Now(),
		RandomRoll: rand.Float64(),
	}, nil
}

// Tokenize splits text into lowercased query terms
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	})

	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f != "" {
			terms = append(terms, f)
		}
	}
	return terms
}
