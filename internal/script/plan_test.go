package script

import (
	"errors"
	"testing"

	"github.com/tubepro/studio/internal/domain"
)

const validPlanJSON = `{
	"title": "Main title",
	"titles": ["Alt 1", "Alt 2"],
	"description": "A strategic description.",
	"tags": ["youtube", "editing"],
	"scriptStructure": {
		"hook": "A hook",
		"introduction": "An intro",
		"mainPoints": ["Point 1", "Point 2"],
		"cta": "Subscribe"
	}
}`

func TestStripFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "No fence",
			input: `{"a":1}`,
			want:  `{"a":1}`,
		},
		{
			name:  "JSON fence",
			input: "```json\n{\"a\":1}\n```",
			want:  `{"a":1}`,
		},
		{
			name:  "Plain fence",
			input: "```\n{\"a\":1}\n```",
			want:  `{"a":1}`,
		},
		{
			name:  "Surrounding whitespace",
			input: "  \n```json\n{\"a\":1}\n```\n  ",
			want:  `{"a":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFence(tt.input); got != tt.want {
				t.Errorf("StripFence(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePlan(t *testing.T) {
	plan, err := ParsePlan(validPlanJSON)
	if err != nil {
		t.Fatalf("ParsePlan failed: %v", err)
	}

	if plan.Title != "Main title" {
		t.Errorf("Expected title %q, got %q", "Main title", plan.Title)
	}
	if len(plan.Titles) != 2 {
		t.Errorf("Expected 2 alternate titles, got %d", len(plan.Titles))
	}
	if plan.ScriptStructure.CTA != "Subscribe" {
		t.Errorf("Expected CTA %q, got %q", "Subscribe", plan.ScriptStructure.CTA)
	}
}

func TestParsePlanFencedOutput(t *testing.T) {
	plan, err := ParsePlan("```json\n" + validPlanJSON + "\n```")
	if err != nil {
		t.Fatalf("ParsePlan failed on fenced output: %v", err)
	}
	if plan.Title != "Main title" {
		t.Errorf("Expected title %q, got %q", "Main title", plan.Title)
	}
}

func TestParsePlanInvalidJSON(t *testing.T) {
	_, err := ParsePlan("this is not json")
	if !errors.Is(err, domain.ErrMalformedPlan) {
		t.Errorf("Expected ErrMalformedPlan, got %v", err)
	}
}

func TestParsePlanMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "Missing title", input: `{"titles":["a"],"description":"d","tags":["t"],"scriptStructure":{"hook":"h","introduction":"i","mainPoints":["m"],"cta":"c"}}`},
		{name: "Missing tags", input: `{"title":"t","titles":["a"],"description":"d","scriptStructure":{"hook":"h","introduction":"i","mainPoints":["m"],"cta":"c"}}`},
		{name: "Missing hook", input: `{"title":"t","titles":["a"],"description":"d","tags":["t"],"scriptStructure":{"introduction":"i","mainPoints":["m"],"cta":"c"}}`},
		{name: "Missing main points", input: `{"title":"t","titles":["a"],"description":"d","tags":["t"],"scriptStructure":{"hook":"h","introduction":"i","cta":"c"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePlan(tt.input); !errors.Is(err, domain.ErrMalformedPlan) {
				t.Errorf("Expected ErrMalformedPlan, got %v", err)
			}
		})
	}
}
