package briefing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tubepro/studio/internal/domain"
	"github.com/tubepro/studio/internal/generation"
	"github.com/tubepro/studio/internal/ledger"
	"github.com/tubepro/studio/internal/script"
)

// Runner drives generation for a briefing session: it authorizes the spend,
// consumes the chunk stream, and segments the output into parts. The ledger
// and streamer are injected so the flow is testable without a network.
type Runner struct {
	ledger   *ledger.Ledger
	streamer generation.Streamer
}

// NewRunner creates a runner over the given collaborators.
func NewRunner(l *ledger.Ledger, s generation.Streamer) *Runner {
	return &Runner{ledger: l, streamer: s}
}

// Generate runs the delimited-narrative flow for a session claimed via
// Launch. The spend is authorized before any stream is opened; if it fails,
// no stream is opened, the claim is released, and the session returns to
// asking. Stream failures move the session to the error stage without
// refunding the spend.
//
// onPart, if non-nil, is invoked once per finished part in order, as parts
// complete.
func (r *Runner) Generate(ctx context.Context, sess *Session, onPart func(index int, content string)) error {
	if sess.Stage != StageGenerating || !sess.Launched || sess.running {
		return domain.ErrGenerationStarted
	}
	if !sess.Complete() {
		sess.Stage = StageAsking
		sess.Launched = false
		return domain.ErrBriefingIncomplete
	}
	sess.running = true

	if _, err := r.ledger.Spend(ctx, ScriptCost, FeatureScript); err != nil {
		// No stream is opened when the spend is refused. The session
		// returns to asking so the user can retry after earning coins.
		sess.Stage = StageAsking
		sess.Launched = false
		sess.running = false
		return err
	}

	seg := script.NewSegmenter(generation.PartBreak)
	delivered := 0
	notify := func(parts []string, upto int) {
		if onPart == nil {
			return
		}
		for ; delivered < upto; delivered++ {
			onPart(delivered, parts[delivered])
		}
	}

	for chunk, err := range r.streamer.Stream(ctx, generation.ScriptRequest(sess.Responses)) {
		if err != nil {
			sess.fail(err.Error())
			return err
		}
		seg.Feed(chunk)

		// All parts except the provisional last one are finished.
		if parts := seg.Parts(); len(parts) > 1 {
			notify(parts, len(parts)-1)
		}
	}
	if err := ctx.Err(); err != nil {
		sess.fail(err.Error())
		return fmt.Errorf("%w: %v", domain.ErrStreamRead, err)
	}

	parts := seg.Finalize()
	if len(parts) == 0 {
		sess.fail("generation produced no content")
		return fmt.Errorf("%w: empty stream", domain.ErrStreamRead)
	}
	notify(parts, len(parts))

	sess.Parts = parts
	sess.Revealed = 1
	if len(parts) == 1 {
		sess.Stage = StageFinished
	} else {
		sess.Stage = StageRevealing
	}

	slog.Info("Script generated", "parts", len(parts), "chunks", seg.ChunkCount())
	return nil
}

// GeneratePlan runs the structured-mode flow: the segmenter is bypassed and
// the full accumulated text is parsed as JSON only after the stream
// completes. Parse failures do not refund the spend.
func (r *Runner) GeneratePlan(ctx context.Context, topic, audience string) (*domain.ContentPlan, error) {
	if isBlank(topic) {
		return nil, domain.ErrBlankAnswer
	}
	if isBlank(audience) {
		audience = "everyone"
	}

	raw, err := r.collect(ctx, PlanCost, FeaturePlan, generation.PlanRequest(topic, audience))
	if err != nil {
		return nil, err
	}

	plan, err := script.ParsePlan(raw)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Assist runs the free-form assistant flow and returns the full response
// text.
func (r *Runner) Assist(ctx context.Context, prompt string) (string, error) {
	if isBlank(prompt) {
		return "", domain.ErrBlankAnswer
	}
	return r.collect(ctx, AssistantCost, FeatureAssistant, generation.AssistantRequest(prompt))
}

// collect authorizes a spend, then drains the stream into one string.
func (r *Runner) collect(ctx context.Context, cost int, feature string, req generation.Request) (string, error) {
	if _, err := r.ledger.Spend(ctx, cost, feature); err != nil {
		return "", err
	}

	var sb strings.Builder
	for chunk, err := range r.streamer.Stream(ctx, req) {
		if err != nil {
			return "", err
		}
		sb.WriteString(chunk)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStreamRead, err)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: empty stream", domain.ErrStreamRead)
	}
	return sb.String(), nil
}

// SpendFailureStage classifies a Generate error for callers deciding what to
// surface: validation failures recover locally, ledger refusals return the
// session to asking, everything else is terminal.
func SpendFailureStage(err error) Stage {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrBriefingIncomplete):
		return StageAsking
	default:
		return StageError
	}
}
