package contracts

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kingrea/plansync/internal/integrity"
	"github.com/kingrea/plansync/internal/plan"
)

// Violation is one structural or content rule failure.
type Violation struct {
	Path    plan.Path
	Message string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// ValidateBytes parses data and validates the resulting document. Input that
// cannot be parsed yields a single violation at the root.
func ValidateBytes(data []byte) []Violation {
	root, err := plan.Parse(data)
	if err != nil {
		return []Violation{{Path: plan.Root, Message: err.Error()}}
	}
	return Validate(root)
}

// Validate checks root against the roadmap schema and returns every
// violation found. An empty result means the document is valid.
func Validate(root plan.Node) []Violation {
	doc, ok := plan.AsMapping(root)
	if !ok {
		return []Violation{{
			Path:    plan.Root,
			Message: fmt.Sprintf("%v: document root must be an object, got %s", plan.ErrUnreadable, plan.TypeName(root)),
		}}
	}

	v := &validator{}
	for _, finding := range integrity.Scan(doc, plan.Root) {
		v.add(finding.Path, "%s", finding)
	}

	if keys := doc.Keys(); !slices.Equal(keys, SectionKeys()) {
		v.add(plan.Root, "top-level keys must be [%s] in this order, got [%s]",
			strings.Join(SectionKeys(), ", "), strings.Join(keys, ", "))
	}
	for _, section := range sections {
		value, present := doc.Get(section.Key)
		path := plan.Root.Key(section.Key)
		if plan.TypeName(value) != string(section.Shape) {
			v.typeError(path, "an "+string(section.Shape), value, present)
			continue
		}
		switch section.Key {
		case PurposeKey:
			v.purpose(value.(*plan.Mapping), path)
		case TestingStrategyKey:
			v.testingStrategy(value.(*plan.Mapping), path)
		case ProgressKey:
			v.progress(value.(plan.Sequence), path)
		case DecisionLogKey:
			v.decisionLog(value.(plan.Sequence), path)
		case ValidationKey:
			v.stringItems(value.(plan.Sequence), path)
		case RiskAssessmentKey:
			v.riskAssessment(value.(plan.Sequence), path)
		case RollbackStrategyKey:
			v.rollbackStrategy(value.(*plan.Mapping), path)
		case ProgressTrackingKey:
			v.progressTracking(value.(*plan.Mapping), path)
		}
	}
	return v.violations
}

type validator struct {
	violations []Violation
}

func (v *validator) add(path plan.Path, format string, args ...any) {
	v.violations = append(v.violations, Violation{Path: path, Message: fmt.Sprintf(format, args...)})
}

// typeError records that the value under key has the wrong type.
func (v *validator) typeError(path plan.Path, want string, value plan.Node, present bool) {
	if !present {
		v.add(path, "is required (%s)", want)
		return
	}
	v.add(path, "must be %s, got %s", want, plan.TypeName(value))
}

func (v *validator) str(m *plan.Mapping, path plan.Path, key string) (string, bool) {
	value, present := m.Get(key)
	s, ok := plan.AsString(value)
	if !ok {
		v.typeError(path.Key(key), "a string", value, present)
	}
	return s, ok
}

func (v *validator) literal(m *plan.Mapping, path plan.Path, key, want string) {
	if s, ok := v.str(m, path, key); ok && s != want {
		v.add(path.Key(key), "must be %q, got %q", want, s)
	}
}

func (v *validator) enum(m *plan.Mapping, path plan.Path, key string, allowed []string) {
	value, present := m.Get(key)
	s, ok := plan.AsString(value)
	switch {
	case !ok:
		v.typeError(path.Key(key), "one of "+strings.Join(allowed, ", "), value, present)
	case !slices.Contains(allowed, s):
		v.add(path.Key(key), "must be one of %s, got %q", strings.Join(allowed, ", "), s)
	}
}

func (v *validator) integer(m *plan.Mapping, path plan.Path, key string) (int64, bool) {
	value, present := m.Get(key)
	i, ok := plan.AsInt(value)
	if !ok {
		if digits, big := plan.AsBigInt(value); big {
			v.add(path.Key(key), "integer %s is out of range (64-bit)", digits)
			return 0, false
		}
		v.typeError(path.Key(key), "an integer", value, present)
	}
	return i, ok
}

func (v *validator) percent(m *plan.Mapping, path plan.Path, key string) {
	if i, ok := v.integer(m, path, key); ok && (i < 0 || i > 100) {
		v.add(path.Key(key), "must be between 0 and 100, got %d", i)
	}
}

func (v *validator) positiveNumber(m *plan.Mapping, path plan.Path, key string) {
	value, present := m.Get(key)
	f, ok := plan.AsNumber(value)
	switch {
	case !ok:
		v.typeError(path.Key(key), "a number", value, present)
	case f <= 0:
		v.add(path.Key(key), "must be greater than 0, got %s", plan.Text(value))
	}
}

func (v *validator) number(m *plan.Mapping, path plan.Path, key string) {
	value, present := m.Get(key)
	if _, ok := plan.AsNumber(value); !ok {
		v.typeError(path.Key(key), "a number", value, present)
	}
}

// optionalNumber accepts an absent key, a null or a number.
func (v *validator) optionalNumber(m *plan.Mapping, path plan.Path, key string) {
	value, present := m.Get(key)
	if !present || plan.IsNull(value) {
		return
	}
	if _, ok := plan.AsNumber(value); !ok {
		v.add(path.Key(key), "must be a number or null, got %s", plan.TypeName(value))
	}
}

// stringList checks that key holds an array of strings. Optional lists may
// be absent but are still checked when present.
func (v *validator) stringList(m *plan.Mapping, path plan.Path, key string, required bool) {
	value, present := m.Get(key)
	if !present && !required {
		return
	}
	seq, ok := plan.AsSequence(value)
	if !ok {
		v.typeError(path.Key(key), "an array of strings", value, present)
		return
	}
	v.stringItems(seq, path.Key(key))
}

func (v *validator) stringItems(seq plan.Sequence, path plan.Path) {
	for i, item := range seq {
		if _, ok := plan.AsString(item); !ok {
			v.add(path.Index(i), "must be a string, got %s", plan.TypeName(item))
		}
	}
}

// array returns the sequence under key or records a violation.
func (v *validator) array(m *plan.Mapping, path plan.Path, key string) (plan.Sequence, bool) {
	value, present := m.Get(key)
	seq, ok := plan.AsSequence(value)
	if !ok {
		v.typeError(path.Key(key), "an array", value, present)
	}
	return seq, ok
}

// records calls check for every item of seq that is an object.
func (v *validator) records(seq plan.Sequence, path plan.Path, check func(*plan.Mapping, plan.Path)) {
	for i, item := range seq {
		itemPath := path.Index(i)
		record, ok := plan.AsMapping(item)
		if !ok {
			v.add(itemPath, "must be an object, got %s", plan.TypeName(item))
			continue
		}
		check(record, itemPath)
	}
}

func (v *validator) purpose(m *plan.Mapping, path plan.Path) {
	v.literal(m, path, "document_mode", DocumentMode)
	if weeks, ok := v.integer(m, path, "horizon_weeks"); ok && weeks <= 0 {
		v.add(path.Key("horizon_weeks"), "must be greater than 0, got %d", weeks)
	}
	v.str(m, path, "main_objective")
	v.str(m, path, "hard_gate_definition")
	v.str(m, path, "tdd_execution_principle")
}

func (v *validator) testingStrategy(m *plan.Mapping, path plan.Path) {
	v.literal(m, path, "command_policy", CommandPolicy)
	if value, present := m.Get("frameworks"); present {
		if _, ok := plan.AsMapping(value); !ok {
			v.add(path.Key("frameworks"), "must be an object, got %s", plan.TypeName(value))
		}
	}
	v.stringList(m, path, "principles", false)
	v.stringList(m, path, "test_commands", false)
	v.stringList(m, path, "temporary_assumptions", false)
}

func (v *validator) progress(seq plan.Sequence, path plan.Path) {
	firstSeen := map[int64]plan.Path{}
	v.records(seq, path, func(phase *plan.Mapping, phasePath plan.Path) {
		if id, ok := v.integer(phase, phasePath, "phase_id"); ok {
			if first, dup := firstSeen[id]; dup {
				v.add(phasePath.Key("phase_id"), "duplicate phase_id %d (first declared at %s)", id, first)
			} else {
				firstSeen[id] = phasePath
			}
		}
		v.str(phase, phasePath, "feature")
		v.str(phase, phasePath, "details")
		v.str(phase, phasePath, "target_window")
		v.positiveNumber(phase, phasePath, "estimated_hours")
		v.enum(phase, phasePath, "status", phaseStatuses)
		v.stringList(phase, phasePath, "acceptance_criteria_mapping", true)
		v.stringList(phase, phasePath, "dependencies", true)
		v.stringList(phase, phasePath, "risks", true)
		v.stringList(phase, phasePath, "edge_case_coverage", true)
		v.str(phase, phasePath, "exit_signal")
		v.checklist(phase, phasePath)
		v.qualityGate(phase, phasePath)
		v.stringList(phase, phasePath, "test_commands", true)
		v.stringList(phase, phasePath, "result_examples", true)
		v.stringList(phase, phasePath, "notes", false)
	})
}

// checklist validates the RED/GREEN/REFACTOR steps of a phase. Step order
// is compared only when every item supplied a string step; missing steps
// are reported on their own.
func (v *validator) checklist(phase *plan.Mapping, phasePath plan.Path) {
	items, ok := v.array(phase, phasePath, "checklist")
	if !ok {
		return
	}
	path := phasePath.Key("checklist")
	if len(items) != len(checklistSteps) {
		v.add(path, "must have exactly %d steps, got %d", len(checklistSteps), len(items))
	}
	steps := make([]string, 0, len(items))
	complete := true
	for i, item := range items {
		itemPath := path.Index(i)
		entry, ok := plan.AsMapping(item)
		if !ok {
			v.add(itemPath, "must be an object, got %s", plan.TypeName(item))
			complete = false
			continue
		}
		if step, ok := v.str(entry, itemPath, "step"); ok {
			steps = append(steps, step)
		} else {
			complete = false
		}
		v.str(entry, itemPath, "desc")
		v.boolean(entry, itemPath, "done")
	}
	if complete && len(steps) > 0 && !slices.Equal(steps, checklistSteps) {
		v.add(path, "steps must be %s in order, got %s",
			strings.Join(checklistSteps, ", "), strings.Join(steps, ", "))
	}
}

func (v *validator) boolean(m *plan.Mapping, path plan.Path, key string) {
	value, present := m.Get(key)
	if _, ok := plan.AsBool(value); !ok {
		v.typeError(path.Key(key), "a boolean", value, present)
	}
}

func (v *validator) qualityGate(phase *plan.Mapping, phasePath plan.Path) {
	value, present := phase.Get("quality_gate")
	gate, ok := plan.AsMapping(value)
	path := phasePath.Key("quality_gate")
	if !ok {
		v.typeError(path, "an object", value, present)
		return
	}
	if blocking, ok := gate.Get("blocking"); !ok {
		v.add(path.Key("blocking"), "is required (true)")
	} else if b, isBool := plan.AsBool(blocking); !isBool || !b {
		v.add(path.Key("blocking"), "must be true, got %s", plan.Text(blocking))
	}
	v.str(gate, path, "stop_message")
	for _, key := range qualityGateLists {
		list, ok := v.array(gate, path, key)
		if !ok {
			continue
		}
		v.records(list, path.Key(key), func(entry *plan.Mapping, entryPath plan.Path) {
			v.str(entry, entryPath, "item")
			v.boolean(entry, entryPath, "done")
		})
	}
	v.stringList(gate, path, "validation_commands", true)
}

func (v *validator) decisionLog(seq plan.Sequence, path plan.Path) {
	v.records(seq, path, func(entry *plan.Mapping, entryPath plan.Path) {
		v.str(entry, entryPath, "decision")
		v.str(entry, entryPath, "reason")
	})
}

func (v *validator) riskAssessment(seq plan.Sequence, path plan.Path) {
	v.records(seq, path, func(risk *plan.Mapping, riskPath plan.Path) {
		v.str(risk, riskPath, "risk")
		v.enum(risk, riskPath, "probability", riskLevels)
		v.enum(risk, riskPath, "impact", riskLevels)
		v.str(risk, riskPath, "mitigation_strategy")
	})
}

func (v *validator) rollbackStrategy(m *plan.Mapping, path plan.Path) {
	rollbacks, ok := v.array(m, path, "phase_rollbacks")
	if !ok {
		return
	}
	v.records(rollbacks, path.Key("phase_rollbacks"), func(entry *plan.Mapping, entryPath plan.Path) {
		v.integer(entry, entryPath, "phase_id")
		v.str(entry, entryPath, "trigger")
		v.stringList(entry, entryPath, "steps", true)
		v.str(entry, entryPath, "restore_target")
	})
}

func (v *validator) progressTracking(m *plan.Mapping, path plan.Path) {
	v.percent(m, path, "overall_progress_percent")
	if statuses, ok := v.array(m, path, "phase_status"); ok {
		v.records(statuses, path.Key("phase_status"), func(entry *plan.Mapping, entryPath plan.Path) {
			v.integer(entry, entryPath, "phase_id")
			v.enum(entry, entryPath, "status", phaseStatuses)
			v.percent(entry, entryPath, "progress_percent")
		})
	}
	if entries, ok := v.array(m, path, "time_tracking"); ok {
		v.records(entries, path.Key("time_tracking"), func(entry *plan.Mapping, entryPath plan.Path) {
			v.integer(entry, entryPath, "phase_id")
			v.number(entry, entryPath, "estimated_hours")
			v.optionalNumber(entry, entryPath, "actual_hours")
			v.optionalNumber(entry, entryPath, "variance_hours")
		})
	}
	v.stringList(m, path, "notes_and_learnings", true)
	if blockers, ok := v.array(m, path, "blockers"); ok {
		v.records(blockers, path.Key("blockers"), func(entry *plan.Mapping, entryPath plan.Path) {
			v.str(entry, entryPath, "title")
			v.str(entry, entryPath, "resolution")
		})
	}
}
