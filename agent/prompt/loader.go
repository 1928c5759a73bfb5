package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/planner.txt
	plannerRaw string

	//go:embed template/executor.txt
	executorRaw string

	//go:embed template/validator.txt
	validatorRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Planner   string
	Executor  string
	Validator string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// This is safe to call concurrently; the embed is compile-time, and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Planner:   strings.TrimSpace(plannerRaw),
		Executor:  strings.TrimSpace(executorRaw),
		Validator: strings.TrimSpace(validatorRaw),
	}
}
