// Package plantest holds document fixtures shared by the pipeline tests.
package plantest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kingrea/plansync/internal/plan"
)

// ValidJSON is a complete roadmap document that passes validation.
const ValidJSON = `{
  "1_Purpose": {
    "document_mode": "future_implementation_roadmap",
    "horizon_weeks": 6,
    "main_objective": "Ship a minimal roadmap pipeline that keeps the rendered plan and its source data in lockstep across every change.",
    "hard_gate_definition": "A phase is complete only when its quality gate passes.",
    "tdd_execution_principle": "Write the failing test first, then the smallest change that passes it.",
    "owner": "platform team"
  },
  "2_Testing_Strategy": {
    "command_policy": "example_only",
    "frameworks": {
      "unit": "go test",
      "lint": "staticcheck"
    },
    "principles": [
      "Every behavior change starts with a failing test."
    ],
    "test_commands": [
      "go test ./..."
    ]
  },
  "3_Progress": [
    {
      "phase_id": 1,
      "feature": "Schema validator",
      "details": "Validate the document structure and collect every violation.",
      "target_window": "Week 1",
      "estimated_hours": 10,
      "status": "complete",
      "acceptance_criteria_mapping": ["All violations are reported in one run."],
      "dependencies": [],
      "risks": ["Schema drift between tools."],
      "edge_case_coverage": ["Empty document", "Duplicate phase ids"],
      "exit_signal": "Validator tests pass.",
      "checklist": [
        {"step": "RED", "desc": "Write failing validator tests.", "done": true},
        {"step": "GREEN", "desc": "Implement the validator.", "done": true},
        {"step": "REFACTOR", "desc": "Extract constant tables.", "done": false}
      ],
      "quality_gate": {
        "blocking": true,
        "stop_message": "Stop: validator gate failed.",
        "tdd_compliance": [{"item": "Tests written first", "done": true}],
        "build_and_tests": [{"item": "go test passes", "done": true}],
        "code_quality": [],
        "security_and_performance": [{"item": "No network access", "done": false}],
        "documentation": [{"item": "Design notes updated", "done": true}],
        "manual_testing": [],
        "validation_commands": ["plansync validate --input Plans.json"]
      },
      "test_commands": ["go test ./internal/contracts/..."],
      "result_examples": ["ok  github.com/kingrea/plansync/internal/contracts"],
      "notes": ["Paths use $ for the root."]
    },
    {
      "phase_id": 2,
      "feature": "Renderer",
      "details": "Render the document into deterministic Markdown.",
      "target_window": "Week 2",
      "estimated_hours": 12.5,
      "status": "in_progress",
      "acceptance_criteria_mapping": ["Rendering twice yields identical bytes."],
      "dependencies": ["Phase 1"],
      "risks": [],
      "edge_case_coverage": ["Long words wider than the wrap width"],
      "exit_signal": "Renderer golden tests pass.",
      "checklist": [
        {"step": "RED", "desc": "Golden output test.", "done": true},
        {"step": "GREEN", "desc": "Section templates.", "done": false},
        {"step": "REFACTOR", "desc": "Builder abstraction.", "done": false}
      ],
      "quality_gate": {
        "blocking": true,
        "stop_message": "Stop: renderer gate failed.",
        "tdd_compliance": [],
        "build_and_tests": [],
        "code_quality": [],
        "security_and_performance": [],
        "documentation": [],
        "manual_testing": [],
        "validation_commands": []
      },
      "test_commands": [],
      "result_examples": []
    }
  ],
  "4_Decision_Log": [
    {"decision": "Decode JSON through the YAML parser.", "reason": "Key order must survive decoding."}
  ],
  "5_Validation": [
    "plansync check --input Plans.json --output Plans.md"
  ],
  "6_Risk_Assessment": [
    {"risk": "Rendered file edited by hand", "probability": "medium", "impact": "high", "mitigation_strategy": "Run check in CI."}
  ],
  "7_Rollback_Strategy": {
    "phase_rollbacks": [
      {"phase_id": 1, "trigger": "Validator rejects valid documents", "steps": ["Revert the validator change", "Re-run render"], "restore_target": "Last tagged release"}
    ]
  },
  "8_Progress_Tracking": {
    "overall_progress_percent": 40,
    "phase_status": [
      {"phase_id": 1, "status": "complete", "progress_percent": 100},
      {"phase_id": 2, "status": "in_progress", "progress_percent": 30}
    ],
    "time_tracking": [
      {"phase_id": 1, "estimated_hours": 10, "actual_hours": 11.5, "variance_hours": 1.5},
      {"phase_id": 2, "estimated_hours": 12.5, "actual_hours": null, "variance_hours": null}
    ],
    "notes_and_learnings": ["Keep fixtures small."],
    "blockers": [
      {"title": "CI runner", "resolution": "Pinned the Go toolchain."}
    ]
  }
}
`

// MustParse parses data into a document tree and fails the test on error.
func MustParse(t testing.TB, data string) plan.Node {
	t.Helper()
	node, err := plan.Parse([]byte(data))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return node
}

// Valid returns a fresh copy of the valid fixture document.
func Valid(t testing.TB) *plan.Mapping {
	t.Helper()
	doc, ok := plan.AsMapping(MustParse(t, ValidJSON))
	if !ok {
		t.Fatalf("fixture root is not a mapping")
	}
	return doc
}

// Phase returns the i-th phase of doc.
func Phase(t testing.TB, doc *plan.Mapping, i int) *plan.Mapping {
	t.Helper()
	phases := doc.SequenceAt("3_Progress")
	if i >= len(phases) {
		t.Fatalf("fixture has %d phases, want index %d", len(phases), i)
	}
	phase, ok := plan.AsMapping(phases[i])
	if !ok {
		t.Fatalf("phase %d is not a mapping", i)
	}
	return phase
}

// WriteFile writes content to name under dir and returns the full path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
