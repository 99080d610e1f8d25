package domain

// IssueKind names the category of a detected quality problem.
type IssueKind string

const (
	IssueMissingValue     IssueKind = "missing_value"
	IssueDuplicate        IssueKind = "duplicate"
	IssueOutlier          IssueKind = "outlier"
	IssueChecksumMismatch IssueKind = "checksum_mismatch"
)

// IssueSeverity grades how much an issue should worry a reviewer.
type IssueSeverity string

const (
	SeverityInfo     IssueSeverity = "info"
	SeverityWarning  IssueSeverity = "warning"
	SeverityCritical IssueSeverity = "critical"
)

// QualityIssue is one detected problem, located by row index and column
// name. Row is -1 for column-level issues.
type QualityIssue struct {
	Kind     IssueKind     `json:"kind"`
	Column   string        `json:"column,omitempty"`
	Row      int           `json:"row"`
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`
}

// QualityScore summarizes a table's fitness for downstream use. Each
// component and the overall score are on a 0-100 scale. The overall score
// is the fixed policy blend 0.40*completeness + 0.30*uniqueness +
// 0.30*validity.
type QualityScore struct {
	Completeness float64 `json:"completeness"`
	Uniqueness   float64 `json:"uniqueness"`
	Validity     float64 `json:"validity"`
	Overall      float64 `json:"overall"`
}

// ActionKind names a cleaning stage in the audit log.
type ActionKind string

const (
	ActionHandleMissing    ActionKind = "handle_missing"
	ActionRemoveDuplicates ActionKind = "remove_duplicates"
	ActionHandleOutliers   ActionKind = "handle_outliers"
)

// CleaningAction is one append-only audit entry. Entries record what a
// stage did; they never mutate a previously produced table.
type CleaningAction struct {
	ID           string     `json:"id"`
	Kind         ActionKind `json:"kind"`
	Column       string     `json:"column,omitempty"`
	AffectedRows int        `json:"affected_rows"`
	Strategy     string     `json:"strategy"`
	Detail       string     `json:"detail,omitempty"`
}
