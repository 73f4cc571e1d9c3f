package challenge

import (
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/normalizer"
)

type Category string

const (
	CategoryContest   Category = "contest"
	CategoryDebugging Category = "debugging"
	CategoryFlashcode Category = "flashcode"
)

// TestCase is owned by its Challenge and never mutated after creation.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"output"`
	Hidden         bool   `json:"isHidden"`
}

// Challenge is a problem definition. Immutable once a session starts; the
// arena copies the value into the room at match time.
type Challenge struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    Category        `json:"gameType"`
	Language    string          `json:"language,omitempty"` // empty = player-selectable
	TestCases   []TestCase      `json:"testCases,omitempty"`
	Points      int             `json:"points"`
	Level       int             `json:"level"`
	TimeLimit   int             `json:"timeLimit,omitempty"` // seconds, hint only
	CompareMode normalizer.Mode `json:"compareMode"`

	// TargetText is the source a flashcode player must reproduce.
	TargetText string `json:"codeFile,omitempty"`
	// BuggyCode seeds the editor for debugging challenges.
	BuggyCode string `json:"buggycode,omitempty"`
}

// Visible returns the non-hidden test cases, for client display.
func (c *Challenge) Visible() []TestCase {
	out := make([]TestCase, 0, len(c.TestCases))
	for _, tc := range c.TestCases {
		if !tc.Hidden {
			out = append(out, tc)
		}
	}
	return out
}
