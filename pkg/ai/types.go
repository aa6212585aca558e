package ai

import "context"

// AnalysisInput carries the essay artefacts sent to the analyzer.
type AnalysisInput struct {
	PromptTitle    string
	SubmissionText string
}

// Finding is one proposed annotation. Offsets are rune indices into the
// submission text, half-open [start, end).
type Finding struct {
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Category    string `json:"category,omitempty"`
	Comment     string `json:"comment"`
	Suggestion  string `json:"suggestion,omitempty"`
}

// AnalysisResult is the structured output of an essay analysis run.
type AnalysisResult struct {
	Findings []Finding              `json:"findings"`
	Summary  string                 `json:"summary,omitempty"`
	Raw      map[string]interface{} `json:"raw,omitempty"`
}

// EssayAnalyzer describes an AI model capable of proposing essay annotations.
type EssayAnalyzer interface {
	Analyze(ctx context.Context, input AnalysisInput) (AnalysisResult, error)
}
