package contracts

import (
	"errors"

	"github.com/kingrea/plansync/internal/plan"
)

// Report captures validation results for a roadmap file.
type Report struct {
	Path       string
	Document   *plan.Mapping
	Violations []Violation
}

// ValidateFile reads and validates the roadmap document at path. Only I/O
// failures are returned as errors; unparsable content is reported as a
// single violation.
func ValidateFile(path string) (*Report, error) {
	report := &Report{Path: path}
	root, err := plan.Load(path)
	switch {
	case errors.Is(err, plan.ErrUnreadable):
		report.Violations = []Violation{{Path: plan.Root, Message: err.Error()}}
		return report, nil
	case err != nil:
		return nil, err
	}
	report.Violations = Validate(root)
	if doc, ok := plan.AsMapping(root); ok {
		report.Document = doc
	}
	return report, nil
}

// IsValid reports whether the validation passed.
func (r *Report) IsValid() bool {
	return r != nil && len(r.Violations) == 0
}

// Errors returns the violations as errors.
func (r *Report) Errors() []error {
	if r == nil {
		return nil
	}
	errs := make([]error, 0, len(r.Violations))
	for _, violation := range r.Violations {
		errs = append(errs, violation)
	}
	return errs
}
