package render

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/plansync/internal/plan"
	"github.com/kingrea/plansync/internal/plantest"
)

func TestDocumentIsDeterministic(t *testing.T) {
	first := Document(plantest.Valid(t))
	second := Document(plantest.Valid(t))
	require.Equal(t, first, second)

	assert.True(t, strings.HasPrefix(first, "# Plans\n\n> "))
	assert.True(t, strings.HasSuffix(first, "\n"))
	assert.False(t, strings.HasSuffix(first, "\n\n"), "output must end with exactly one newline")
	assert.NotContains(t, first, "\n\n\n")
}

func TestDocumentLineWidth(t *testing.T) {
	for i, line := range strings.Split(Document(plantest.Valid(t)), "\n") {
		assert.LessOrEqual(t, utf8.RuneCountInString(line), Width, "line %d too wide: %q", i+1, line)
	}
}

func TestDocumentSectionOrder(t *testing.T) {
	out := Document(plantest.Valid(t))
	headings := []string{
		"## 1. Purpose",
		"## 2. Testing Strategy",
		"## 3. Roadmap Progress",
		"## Phase 1: Schema validator",
		"## Phase 2: Renderer",
		"## 4. Decision Log",
		"## 5. Validation Plan",
		"## 6. Risk Assessment",
		"## 7. Rollback Strategy",
		"## 8. Progress Tracking",
	}
	last := -1
	for _, heading := range headings {
		idx := strings.Index(out, "\n"+heading+"\n")
		require.NotEqual(t, -1, idx, "missing heading %q", heading)
		assert.Greater(t, idx, last, "heading %q out of order", heading)
		last = idx
	}
}

func TestDocumentContent(t *testing.T) {
	out := Document(plantest.Valid(t))
	for _, want := range []string{
		"- **horizon_weeks**: 6\n",
		"- **tdd_execution_principle**: Write the failing test first, then the smallest\n  change that passes it.\n- **owner**: platform team\n",
		"### Frameworks\n\n- **lint**: staticcheck\n- **unit**: go test\n",
		"### Example Test Commands\n\n- `go test ./...`\n",
		"- **Estimated Hours**: 12.5h\n",
		"### Phase 2 - Key Risks\n\n- (none)\n",
		"- [x] **RED**: Write failing validator tests.\n",
		"- [ ] **REFACTOR**: Extract constant tables.\n",
		"#### Phase 1 - TDD Compliance\n\n- [x] Tests written first\n",
		"#### Phase 1 - Code Quality\n\n- (none)\n",
		"- **blocking**: true\n",
		"### Phase 1 - Notes\n\n- Paths use $ for the root.\n",
		"| Rendered file edited by hand | medium | high | Run check in CI. |\n",
		"### Phase 1\n\n- **Trigger**: Validator rejects valid documents\n",
		"- **Rollback Steps**:\n- Revert the validator change\n- Re-run render\n",
		"- **overall_progress_percent**: 40%\n",
		"- Phase 2: status=in_progress, progress=30%\n",
		"| --- | ---: | ---: | ---: |\n| 1 | 10 | 11.5 | 1.5 |\n| 2 | 12.5 | - | - |\n",
		"### Blockers\n\n- **CI runner**: Pinned the Go toolchain.\n",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "### Phase 2 - Notes", "notes heading is only written when present")
	assert.NotContains(t, out, "### Temporary Assumptions")
}

func TestDocumentMissingChecklistStep(t *testing.T) {
	doc := plantest.Valid(t)
	phase := plantest.Phase(t, doc, 0)
	phase.Set("checklist", phase.SequenceAt("checklist")[:2])

	assert.Contains(t, Document(doc), "- [ ] **REFACTOR**: (missing)\n")
}

func TestDocumentEmptyMapping(t *testing.T) {
	var out string
	require.NotPanics(t, func() { out = Document(plan.NewMapping()) })
	assert.Contains(t, out, "## 7. Rollback Strategy\n\n- (none)\n")
	assert.Contains(t, out, "- **overall_progress_percent**: 0%\n")
	assert.Contains(t, out, "## 5. Validation Plan\n\n- (none)\n")
	assert.NotContains(t, out, "\n\n\n")
}
