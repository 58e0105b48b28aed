package domain

// ContentPlan is the structured-mode generation result: a complete publishing
// plan for one video, produced as a single JSON document.
type ContentPlan struct {
	Title           string          `json:"title"`
	Titles          []string        `json:"titles"`
	Description     string          `json:"description"`
	Tags            []string        `json:"tags"`
	ScriptStructure ScriptStructure `json:"scriptStructure"`
}

// ScriptStructure is the narrative skeleton inside a content plan.
type ScriptStructure struct {
	Hook         string   `json:"hook"`
	Introduction string   `json:"introduction"`
	MainPoints   []string `json:"mainPoints"`
	CTA          string   `json:"cta"`
}
