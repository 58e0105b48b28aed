package script

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tubepro/studio/internal/domain"
)

// StripFence removes a leading/trailing markdown code fence (``` or
// ```json) around a document, if present. Models sometimes wrap structured
// output in a fence despite instructions not to.
func StripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop the rest of the fence line (e.g. the "json" language tag).
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParsePlan parses structured-mode output into a content plan. It is called
// only after the stream completes, on the full accumulated text. Parse
// failures and missing required fields surface as domain.ErrMalformedPlan.
func ParsePlan(raw string) (*domain.ContentPlan, error) {
	var plan domain.ContentPlan
	if err := json.Unmarshal([]byte(StripFence(raw)), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPlan, err)
	}

	if err := validatePlan(&plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func validatePlan(plan *domain.ContentPlan) error {
	missing := func(field string) error {
		return fmt.Errorf("%w: missing %s", domain.ErrMalformedPlan, field)
	}

	switch {
	case plan.Title == "":
		return missing("title")
	case len(plan.Titles) == 0:
		return missing("titles")
	case plan.Description == "":
		return missing("description")
	case len(plan.Tags) == 0:
		return missing("tags")
	case plan.ScriptStructure.Hook == "":
		return missing("scriptStructure.hook")
	case plan.ScriptStructure.Introduction == "":
		return missing("scriptStructure.introduction")
	case len(plan.ScriptStructure.MainPoints) == 0:
		return missing("scriptStructure.mainPoints")
	case plan.ScriptStructure.CTA == "":
		return missing("scriptStructure.cta")
	}
	return nil
}
