// Package inject builds the self-contained commands that carry summaries and
// translations into the isolated rendering surface.
package inject

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Kind distinguishes the two independent injections.
type Kind string

const (
	KindSummary     Kind = "summary"
	KindTranslation Kind = "translation"
)

// SummaryView is what the summary container shows.
type SummaryView string

const (
	ViewButton  SummaryView = "button"
	ViewLoading SummaryView = "loading"
	ViewCard    SummaryView = "card"
)

// DOM hooks shared with the surface markup.
const (
	SummaryContainerID = "ai-summary-container"
	GenerateButtonID   = "generate-ai-btn"
	GenerateMessage    = "EXECUTE_AI_SUMMARY"
)

// Labels are the localized strings rendered into the summary container.
type Labels struct {
	Generate string `json:"generate"`
	Loading  string `json:"loading"`
	Title    string `json:"title"`
}

// SummaryPayload replaces the whole summary container.
type SummaryPayload struct {
	View   SummaryView `json:"view"`
	HTML   string      `json:"html,omitempty"`
	Labels Labels      `json:"labels"`
}

// TranslationPayload annotates elements found by a fresh query of the selectors.
type TranslationPayload struct {
	RootSelector string            `json:"rootSelector"`
	ItemSelector string            `json:"itemSelector"`
	Entries      map[string]string `json:"entries"`
}

// Command is one serializable mutation of the surface.
type Command struct {
	ID          string              `json:"id"`
	Kind        Kind                `json:"kind"`
	Summary     *SummaryPayload     `json:"summary,omitempty"`
	Translation *TranslationPayload `json:"translation,omitempty"`
}

func newCommand(kind Kind) Command {
	return Command{ID: uuid.NewString(), Kind: kind}
}

// Encode serializes the command for an out-of-process executor.
func (c Command) Encode() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode command %s: %w", c.ID, err)
	}
	return raw, nil
}

// Decode parses a command produced by Encode.
func Decode(raw []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

// Validate checks that the payload matches the kind.
func (c Command) Validate() error {
	switch c.Kind {
	case KindSummary:
		if c.Summary == nil {
			return fmt.Errorf("command %s: summary payload missing", c.ID)
		}
	case KindTranslation:
		if c.Translation == nil {
			return fmt.Errorf("command %s: translation payload missing", c.ID)
		}
	default:
		return fmt.Errorf("command %s: unknown kind %q", c.ID, c.Kind)
	}
	return nil
}
