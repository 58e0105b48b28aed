// Package generation produces AI text for briefings as an ordered stream of
// chunks pulled by the caller.
package generation

import (
	"context"
	"fmt"
	"iter"
	"strings"
)

// PartBreak is the sentinel token the model is instructed to emit between
// logical script parts. It never appears in generated prose.
const PartBreak = "---PART-BREAK---"

// Request is one generation call: a system instruction plus the user prompt.
type Request struct {
	System string
	Prompt string
}

// Streamer yields UTF-8 text chunks in arrival order. Iteration ends when
// the stream is done; a yielded error is terminal. Cancelling ctx aborts the
// stream without affecting anything already committed by the caller.
type Streamer interface {
	Stream(ctx context.Context, req Request) iter.Seq2[string, error]
}

const scriptSystemPrompt = `Act as TubePro Scripts, the best YouTube scriptwriter in the world. You are brutally creative, strategic, and intolerant of shallow content. Your expertise spans narrative, storytelling, YouTube SEO, and audience psychology.

EXECUTION RULES:
1. Script format: flowing, conversational text using Markdown for structure (e.g. "## Heading", "**bold**", "*italic*"). It must sound like a real person speaking to camera.
2. SCRIPT ONLY: the response must contain nothing but the script. No greetings, no explanations, no text outside the main content.
3. Mandatory division: the script MUST be split into the exact number of parts requested, using the separator "` + PartBreak + `" exactly once between parts.
4. Depth is law: hit the character target. Every part must be dense and detailed.
5. Forbidden: no bullet lists, no emojis.`

const planSystemPrompt = `Act as TubePro Scripts, the best YouTube scriptwriter in the world. Your mission is to create a complete content plan for one YouTube video. Return the plan EXCLUSIVELY as JSON with this structure:
{
  "title": "the single best, most magnetic title, optimized for CTR",
  "titles": ["a list of 4 other excellent title options"],
  "description": "a strategic description of at least 200 words, with paragraphs, hashtags and a CTA",
  "tags": ["a", "list", "of", "15", "relevant", "tags"],
  "scriptStructure": {
    "hook": "a 15-second hook that grabs attention",
    "introduction": "an introduction presenting the topic and the transformation",
    "mainPoints": ["main point 1, detailed.", "main point 2, detailed.", "main point 3, detailed."],
    "cta": "a final call to action driving engagement and subscriptions"
  }
}
The response must be ONLY the raw JSON object, with no markdown fences, explanations, or any other text.`

const assistantSystemPrompt = `You are the TubePro assistant, an expert in YouTube content creation. Answer questions about scripts, video ideas, SEO, editing, and channel growth. Be direct and practical.`

// ScriptRequest builds the delimited-narrative generation request from the
// five briefing answers. The duration answer selects the character target
// and the number of parts.
func ScriptRequest(answers []string) Request {
	duration := ""
	if len(answers) >= 5 {
		duration = answers[4]
	}

	characterTarget := 15000
	partCount := 3
	switch {
	case strings.Contains(duration, "Short"):
		characterTarget = 8000
		partCount = 2
	case strings.Contains(duration, "Long"):
		characterTarget = 25000
		partCount = 5
	}

	get := func(i int) string {
		if i < len(answers) {
			return answers[i]
		}
		return ""
	}

	prompt := fmt.Sprintf(`VIDEO BRIEFING FOR THE SCRIPT:
- Core idea: %s
- Primary goal: %s
- Core emotion to evoke: %s
- Transformation promised to the viewer: %s
- Selected duration: %s

MANDATORY GENERATION INSTRUCTIONS:
- Write a deep, detailed script based on the briefing.
- CHARACTER TARGET: the final script should be approximately %d characters.
- PART TARGET: split the script into EXACTLY %d parts, using "%s" as the separator.`,
		get(0), get(1), get(2), get(3), duration, characterTarget, partCount, PartBreak)

	return Request{System: scriptSystemPrompt, Prompt: prompt}
}

// PlanRequest builds the structured-mode request for a content plan.
func PlanRequest(topic, audience string) Request {
	prompt := fmt.Sprintf("Create the content plan for a video about: %s\nTarget audience: %s", topic, audience)
	return Request{System: planSystemPrompt, Prompt: prompt}
}

// AssistantRequest builds a free-form assistant request.
func AssistantRequest(prompt string) Request {
	return Request{System: assistantSystemPrompt, Prompt: prompt}
}
