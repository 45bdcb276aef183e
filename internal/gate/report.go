package gate

import (
	"encoding/json"
	"fmt"

	"github.com/kingrea/plansync/internal/artifact"
	"github.com/kingrea/plansync/internal/config"
)

type reportBody struct {
	Passed bool `json:"passed"`
	Result
}

// WriteReport stores result as the gate report artifact at path.
func WriteReport(store *artifact.Store, path string, result Result, rules config.GateConfig, version string) error {
	if result.Findings == nil {
		result.Findings = []Finding{}
	}
	body, err := json.Marshal(reportBody{Passed: result.Passed(), Result: result})
	if err != nil {
		return fmt.Errorf("gate: encode report: %w", err)
	}
	var inputs []string
	for _, pair := range rules.Plans {
		inputs = append(inputs, pair.Input)
	}
	meta := artifact.Metadata{
		Generator: "plansync gate",
		Version:   version,
		Inputs:    inputs,
	}
	if err := store.Write(artifact.GateReport(path), body, meta); err != nil {
		return fmt.Errorf("gate: write report: %w", err)
	}
	return nil
}
