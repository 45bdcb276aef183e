// Package render turns a roadmap document into canonical Markdown. Output
// depends only on the document: the same input always produces the same
// bytes, which is what the drift check relies on.
package render

import (
	"fmt"
	"sort"

	"github.com/kingrea/plansync/internal/contracts"
	"github.com/kingrea/plansync/internal/plan"
)

// Placeholder is the single bullet written for an empty list.
const Placeholder = "(none)"

// MissingStep is written for a checklist step the phase does not define.
const MissingStep = "(missing)"

var frontMatter = []string{
	"This document is generated automatically from `Plans.json` and is the canonical roadmap view (example commands included).",
	"Do not edit it by hand; regenerate it with the command below.",
	"`plansync render --input Plans.json --output Plans.md`",
	"Test commands are examples that make each implementation step concrete; they are not required to run immediately.",
	"⚠️ Do not start the next phase before the current phase gate passes.",
}

var purposeKeys = []string{
	"document_mode",
	"horizon_weeks",
	"main_objective",
	"hard_gate_definition",
	"tdd_execution_principle",
}

var gateListTitles = map[string]string{
	"tdd_compliance":           "TDD Compliance",
	"build_and_tests":          "Build and Tests",
	"code_quality":             "Code Quality",
	"security_and_performance": "Security and Performance",
	"documentation":            "Documentation",
	"manual_testing":           "Manual Testing",
}

// Document renders doc as Markdown. Missing sections and fields render as
// empty values, so any mapping is accepted; callers validate first.
func Document(doc *plan.Mapping) string {
	b := &Builder{}
	b.Heading("# Plans")
	for _, line := range frontMatter {
		b.Quote(line)
	}
	b.FinalizeBlock()

	purpose(b, doc.MappingAt(contracts.PurposeKey))
	testingStrategy(b, doc.MappingAt(contracts.TestingStrategyKey))
	progress(b, doc.SequenceAt(contracts.ProgressKey))
	decisionLog(b, doc.SequenceAt(contracts.DecisionLogKey))
	validation(b, doc.SequenceAt(contracts.ValidationKey))
	riskAssessment(b, doc.SequenceAt(contracts.RiskAssessmentKey))
	rollbackStrategy(b, doc.MappingAt(contracts.RollbackStrategyKey))
	progressTracking(b, doc.MappingAt(contracts.ProgressTrackingKey))
	return b.String()
}

// text formats the value under key, or "" when absent.
func text(m *plan.Mapping, key string) string {
	value, _ := m.Get(key)
	return plan.Text(value)
}

func labelled(b *Builder, label, value string) {
	b.Bullet(fmt.Sprintf("**%s**: %s", label, value))
}

func checkbox(m *plan.Mapping) string {
	value, _ := m.Get("done")
	if done, _ := plan.AsBool(value); done {
		return "[x]"
	}
	return "[ ]"
}

func withPhasePrefix(title, phaseID string) string {
	if phaseID == "" {
		return title
	}
	return fmt.Sprintf("Phase %s - %s", phaseID, title)
}

// phaseID formats the phase_id of m, treating null like an absent id.
func phaseID(m *plan.Mapping) string {
	value, _ := m.Get("phase_id")
	if plan.IsNull(value) {
		return ""
	}
	return plan.Text(value)
}

func records(seq plan.Sequence) []*plan.Mapping {
	out := make([]*plan.Mapping, 0, len(seq))
	for _, item := range seq {
		m, ok := plan.AsMapping(item)
		if !ok {
			m = plan.NewMapping()
		}
		out = append(out, m)
	}
	return out
}

func texts(seq plan.Sequence, format string) []string {
	out := make([]string, 0, len(seq))
	for _, item := range seq {
		out = append(out, fmt.Sprintf(format, plan.Text(item)))
	}
	return out
}

func list(b *Builder, heading string, values []string) {
	b.Heading(heading)
	if len(values) == 0 {
		b.Bullet(Placeholder)
	}
	for _, value := range values {
		b.Bullet(value)
	}
	b.FinalizeBlock()
}

func itemDoneList(b *Builder, heading string, entries plan.Sequence) {
	b.Heading(heading)
	if len(entries) == 0 {
		b.Bullet(Placeholder)
	}
	for _, entry := range records(entries) {
		b.Bullet(checkbox(entry) + " " + text(entry, "item"))
	}
	b.FinalizeBlock()
}

func purpose(b *Builder, m *plan.Mapping) {
	b.Heading("## 1. Purpose")
	known := map[string]bool{}
	for _, key := range purposeKeys {
		known[key] = true
		if m.Has(key) {
			labelled(b, key, text(m, key))
		}
	}
	var extra []string
	for _, key := range m.Keys() {
		if !known[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		labelled(b, key, text(m, key))
	}
	b.FinalizeBlock()
}

func testingStrategy(b *Builder, m *plan.Mapping) {
	b.Heading("## 2. Testing Strategy")
	if m.Has("command_policy") {
		labelled(b, "command_policy", text(m, "command_policy"))
	}
	b.FinalizeBlock()

	b.Heading("### Frameworks")
	frameworks := m.MappingAt("frameworks")
	keys := frameworks.Keys()
	sort.Strings(keys)
	if len(keys) == 0 {
		b.Bullet(Placeholder)
	}
	for _, key := range keys {
		labelled(b, key, text(frameworks, key))
	}
	b.FinalizeBlock()

	list(b, "### Principles", texts(m.SequenceAt("principles"), "%s"))
	list(b, "### Example Test Commands", texts(m.SequenceAt("test_commands"), "`%s`"))
	if m.Has("temporary_assumptions") {
		list(b, "### Temporary Assumptions", texts(m.SequenceAt("temporary_assumptions"), "%s"))
	}
}

func progress(b *Builder, phases plan.Sequence) {
	b.Heading("## 3. Roadmap Progress")
	for _, p := range records(phases) {
		phase(b, p)
	}
}

func phase(b *Builder, p *plan.Mapping) {
	id := phaseID(p)
	scoped := func(level, title string) string {
		return level + " " + withPhasePrefix(title, id)
	}

	b.Heading(fmt.Sprintf("## Phase %s: %s", id, text(p, "feature")))
	labelled(b, "Target Window", text(p, "target_window"))
	labelled(b, "Estimated Hours", text(p, "estimated_hours")+"h")
	labelled(b, "Status", text(p, "status"))
	labelled(b, "Goal", text(p, "details"))
	labelled(b, "Exit Signal (Gate)", text(p, "exit_signal"))
	b.FinalizeBlock()

	list(b, scoped("###", "Deliverables / Acceptance Criteria"), texts(p.SequenceAt("acceptance_criteria_mapping"), "%s"))
	list(b, scoped("###", "Dependencies"), texts(p.SequenceAt("dependencies"), "%s"))
	list(b, scoped("###", "Key Risks"), texts(p.SequenceAt("risks"), "%s"))
	list(b, scoped("###", "Edge Case Coverage"), texts(p.SequenceAt("edge_case_coverage"), "%s"))

	b.Heading(scoped("###", "Development Checklist (RED/GREEN/REFACTOR)"))
	byStep := map[string]*plan.Mapping{}
	for _, item := range records(p.SequenceAt("checklist")) {
		if step := item.StringAt("step"); step != "" {
			byStep[step] = item
		}
	}
	for _, step := range contracts.ChecklistSteps() {
		item, ok := byStep[step]
		if !ok {
			b.Bullet(fmt.Sprintf("[ ] **%s**: %s", step, MissingStep))
			continue
		}
		b.Bullet(fmt.Sprintf("%s **%s**: %s", checkbox(item), step, text(item, "desc")))
	}
	b.FinalizeBlock()

	gate := p.MappingAt("quality_gate")
	b.Heading(scoped("###", "Quality Gate (Blocking)"))
	blocking := "false"
	if gate.Has("blocking") {
		blocking = text(gate, "blocking")
	}
	labelled(b, "blocking", blocking)
	labelled(b, "stop_message", text(gate, "stop_message"))
	b.FinalizeBlock()
	for _, key := range contracts.QualityGateLists() {
		itemDoneList(b, scoped("####", gateListTitles[key]), gate.SequenceAt(key))
	}
	list(b, scoped("###", "Quality Gate Validation Commands (Examples)"), texts(gate.SequenceAt("validation_commands"), "`%s`"))

	list(b, scoped("###", "Example Test Commands"), texts(p.SequenceAt("test_commands"), "`%s`"))
	list(b, scoped("###", "Expected Results (Examples)"), texts(p.SequenceAt("result_examples"), "%s"))
	if p.Has("notes") {
		list(b, scoped("###", "Notes"), texts(p.SequenceAt("notes"), "%s"))
	}
}

func decisionLog(b *Builder, decisions plan.Sequence) {
	b.Heading("## 4. Decision Log")
	if len(decisions) == 0 {
		b.Bullet(Placeholder)
	}
	for _, d := range records(decisions) {
		labelled(b, "Decision", text(d, "decision"))
		labelled(b, "Reason", text(d, "reason"))
	}
	b.FinalizeBlock()
}

func validation(b *Builder, commands plan.Sequence) {
	list(b, "## 5. Validation Plan", texts(commands, "%s"))
}

func riskAssessment(b *Builder, risks plan.Sequence) {
	b.Heading("## 6. Risk Assessment")
	if len(risks) == 0 {
		b.Bullet(Placeholder)
	} else {
		b.Row("Risk", "Probability", "Impact", "Mitigation")
		b.Line("| --- | --- | --- | --- |")
		for _, r := range records(risks) {
			b.Row(text(r, "risk"), text(r, "probability"), text(r, "impact"), text(r, "mitigation_strategy"))
		}
	}
	b.FinalizeBlock()
}

func rollbackStrategy(b *Builder, m *plan.Mapping) {
	b.Heading("## 7. Rollback Strategy")
	rollbacks := m.SequenceAt("phase_rollbacks")
	if len(rollbacks) == 0 {
		b.Bullet(Placeholder)
		b.FinalizeBlock()
		return
	}
	for _, r := range records(rollbacks) {
		b.Heading("### Phase " + phaseID(r))
		labelled(b, "Trigger", text(r, "trigger"))
		labelled(b, "Restore Target", text(r, "restore_target"))
		b.Bullet("**Rollback Steps**:")
		for _, step := range texts(r.SequenceAt("steps"), "%s") {
			b.Bullet(step)
		}
		b.FinalizeBlock()
	}
}

func progressTracking(b *Builder, m *plan.Mapping) {
	b.Heading("## 8. Progress Tracking")
	overall := "0"
	if m.Has("overall_progress_percent") {
		overall = text(m, "overall_progress_percent")
	}
	labelled(b, "overall_progress_percent", overall+"%")
	b.FinalizeBlock()

	b.Heading("### Phase Status")
	statuses := m.SequenceAt("phase_status")
	if len(statuses) == 0 {
		b.Bullet(Placeholder)
	}
	for _, s := range records(statuses) {
		percent := "0"
		if s.Has("progress_percent") {
			percent = text(s, "progress_percent")
		}
		b.Bullet(fmt.Sprintf("Phase %s: status=%s, progress=%s%%", phaseID(s), text(s, "status"), percent))
	}
	b.FinalizeBlock()

	b.Heading("### Time Tracking")
	entries := m.SequenceAt("time_tracking")
	if len(entries) == 0 {
		b.Bullet(Placeholder)
	} else {
		b.Row("Phase", "Estimated", "Actual", "Variance")
		b.Line("| --- | ---: | ---: | ---: |")
		for _, e := range records(entries) {
			b.Row(phaseID(e), text(e, "estimated_hours"), hours(e, "actual_hours"), hours(e, "variance_hours"))
		}
	}
	b.FinalizeBlock()

	list(b, "### Notes and Learnings", texts(m.SequenceAt("notes_and_learnings"), "%s"))

	b.Heading("### Blockers")
	blockers := m.SequenceAt("blockers")
	if len(blockers) == 0 {
		b.Bullet(Placeholder)
	}
	for _, blocker := range records(blockers) {
		b.Bullet(fmt.Sprintf("**%s**: %s", text(blocker, "title"), text(blocker, "resolution")))
	}
	b.FinalizeBlock()
}

// hours formats an optional hours cell; absent and null values render as "-".
func hours(m *plan.Mapping, key string) string {
	value, ok := m.Get(key)
	if !ok || plan.IsNull(value) {
		return "-"
	}
	return plan.Text(value)
}
