package contracts

// Shape is the structural type a section must have.
type Shape string

const (
	ShapeObject Shape = "object"
	ShapeArray  Shape = "array"
)

// Section describes one fixed top-level entry of the roadmap document.
type Section struct {
	Key   string
	Shape Shape
}

// Required literal values.
const (
	DocumentMode  = "future_implementation_roadmap"
	CommandPolicy = "example_only"
)

const (
	PurposeKey          = "1_Purpose"
	TestingStrategyKey  = "2_Testing_Strategy"
	ProgressKey         = "3_Progress"
	DecisionLogKey      = "4_Decision_Log"
	ValidationKey       = "5_Validation"
	RiskAssessmentKey   = "6_Risk_Assessment"
	RollbackStrategyKey = "7_Rollback_Strategy"
	ProgressTrackingKey = "8_Progress_Tracking"
)

var sections = []Section{
	{Key: PurposeKey, Shape: ShapeObject},
	{Key: TestingStrategyKey, Shape: ShapeObject},
	{Key: ProgressKey, Shape: ShapeArray},
	{Key: DecisionLogKey, Shape: ShapeArray},
	{Key: ValidationKey, Shape: ShapeArray},
	{Key: RiskAssessmentKey, Shape: ShapeArray},
	{Key: RollbackStrategyKey, Shape: ShapeObject},
	{Key: ProgressTrackingKey, Shape: ShapeObject},
}

var checklistSteps = []string{"RED", "GREEN", "REFACTOR"}

var phaseStatuses = []string{"pending", "in_progress", "complete"}

var riskLevels = []string{"low", "medium", "high"}

// Item/done lists every quality gate carries, in validation order.
var qualityGateLists = []string{
	"tdd_compliance",
	"build_and_tests",
	"code_quality",
	"security_and_performance",
	"documentation",
	"manual_testing",
}

// SectionKeys returns the top-level keys in their required order.
func SectionKeys() []string {
	keys := make([]string, 0, len(sections))
	for _, section := range sections {
		keys = append(keys, section.Key)
	}
	return keys
}

// ChecklistSteps returns the required checklist step labels in order.
func ChecklistSteps() []string {
	return append([]string(nil), checklistSteps...)
}

// QualityGateLists returns the keys of the item/done lists of a quality gate.
func QualityGateLists() []string {
	return append([]string(nil), qualityGateLists...)
}
