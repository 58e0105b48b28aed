// Package briefing implements the strategic question flow that precedes
// generation, and drives the spend/stream/reveal lifecycle.
package briefing

import (
	"fmt"

	"github.com/tubepro/studio/internal/domain"
)

// Stage is the lifecycle phase of a briefing session. Transitions only move
// forward; the sole way back is a reset to a fresh session.
type Stage string

const (
	StageAsking     Stage = "asking"
	StageGenerating Stage = "generating"
	StageRevealing  Stage = "revealing"
	StageFinished   Stage = "finished"
	StageError      Stage = "error"
)

// Questions is the fixed strategic briefing, asked in order.
var Questions = []string{
	"What is the core idea or topic you want to cover in this video?",
	"Excellent. What is the primary goal of this video?",
	"Understood. What main emotion or feeling should your audience be left with?",
	"Perfect. What transformation do you promise the viewer?",
	"Last one: choose the script depth. This sets the length and detail of the content.",
}

// QuestionExamples are placeholder hints shown alongside each question.
var QuestionExamples = []string{
	"E.g.: The 5 biggest mistakes beginner video editors make.",
	"E.g.: Educate new creators and help them make higher-quality videos.",
	"E.g.: Confidence and relief, knowing they can avoid simple mistakes.",
	"E.g.: By the end they will know exactly which mistakes to avoid and how to fix them.",
	"",
}

// DurationOptions are the fixed choices for the final question.
var DurationOptions = []string{
	"Short (3-5 min)",
	"Medium (8-12 min)",
	"Long (15+ min)",
}

// Coin costs and usage-history feature tags.
const (
	ScriptCost    = 25
	PlanCost      = 10
	AssistantCost = 15

	FeatureScript    = "Script Writing"
	FeaturePlan      = "Content Plan"
	FeatureAssistant = "AI Assistant"
)

// Session is one briefing attempt. It is serializable so the asking phase
// and the generation claim span requests; only the in-flight stream state
// is per-process.
type Session struct {
	Stage        Stage    `json:"stage"`
	CurrentIndex int      `json:"current_index"`
	Responses    []string `json:"responses"`
	Parts        []string `json:"parts,omitempty"`
	Revealed     int      `json:"revealed"`
	FailReason   string   `json:"fail_reason,omitempty"`

	// Launched is the durable generation claim. It is set via Launch and
	// persisted before any spend, so concurrent writers racing on the same
	// session lose on the store's version check instead of paying twice.
	Launched bool `json:"launched,omitempty"`

	running bool
}

// NewSession starts a fresh briefing at the first question.
func NewSession() *Session {
	return &Session{
		Stage:     StageAsking,
		Responses: make([]string, len(Questions)),
	}
}

// Question returns the current question text, or "" outside the asking
// stage.
func (s *Session) Question() string {
	if s.Stage != StageAsking || s.CurrentIndex >= len(Questions) {
		return ""
	}
	return Questions[s.CurrentIndex]
}

// SubmitAnswer records the answer to the current question. A blank answer
// is rejected with domain.ErrBlankAnswer and the session does not advance.
// Recording the final answer moves the session to StageGenerating; repeat
// submissions after that are rejected with domain.ErrGenerationStarted so a
// double-click cannot trigger a second spend.
func (s *Session) SubmitAnswer(text string) error {
	if s.Stage != StageAsking {
		return domain.ErrGenerationStarted
	}
	if isBlank(text) {
		return domain.ErrBlankAnswer
	}

	s.Responses[s.CurrentIndex] = text
	if s.CurrentIndex < len(Questions)-1 {
		s.CurrentIndex++
		return nil
	}

	s.Stage = StageGenerating
	return nil
}

// Launch claims the session's single generation attempt. It fails with
// domain.ErrGenerationStarted outside the generating stage or when the
// claim is already taken. Callers persist the claimed session before
// spending.
func (s *Session) Launch() error {
	if s.Stage != StageGenerating || s.Launched {
		return domain.ErrGenerationStarted
	}
	s.Launched = true
	return nil
}

// Complete reports whether every question has an answer.
func (s *Session) Complete() bool {
	for _, r := range s.Responses {
		if isBlank(r) {
			return false
		}
	}
	return true
}

// RevealNext reveals one more finished part. Revealing the final part moves
// the session to StageFinished.
func (s *Session) RevealNext() error {
	if s.Stage != StageRevealing {
		return fmt.Errorf("cannot reveal in stage %q", s.Stage)
	}
	if s.Revealed < len(s.Parts) {
		s.Revealed++
	}
	if s.Revealed >= len(s.Parts) {
		s.Stage = StageFinished
	}
	return nil
}

// RevealedParts returns the parts revealed so far.
func (s *Session) RevealedParts() []string {
	if s.Revealed > len(s.Parts) {
		return s.Parts
	}
	return s.Parts[:s.Revealed]
}

// fail moves the session to the terminal error stage. The only way forward
// from here is a brand-new session; a committed spend is not refunded.
func (s *Session) fail(reason string) {
	s.Stage = StageError
	s.FailReason = reason
}

func isBlank(text string) bool {
	for _, r := range text {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
