package core

import "time"

// Store defines the interface for run history persistence.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	CreateRun(kind RunKind, modelPath string) (*Run, error)
	CompleteRun(id string, status RunStatus, summary RunSummary, errMsg string) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	RecordChanges(runID string, changes []Change) error
	GetChanges(runID string) ([]Change, error)
}

// RunKind identifies which batch operation a run executed.
type RunKind string

// Run kind constants.
const (
	RunKindGenerate RunKind = "generate"
	RunKindRename   RunKind = "rename"
)

// RunStatus represents the status of a batch run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunSummary holds the numeric outcome of a run.
type RunSummary struct {
	Created int
	Updated int
	Skipped int
	Renamed int
	Errors  int
}

// Run is one recorded execution of generate or rename.
type Run struct {
	ID          string
	Kind        RunKind
	ModelPath   string
	Status      RunStatus
	Summary     RunSummary
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// ChangeAction describes what happened to one model object.
type ChangeAction string

// Change action constants.
const (
	ChangeCreated        ChangeAction = "created"
	ChangeUpdated        ChangeAction = "updated"
	ChangeRecreated      ChangeAction = "recreated"
	ChangeSkipped        ChangeAction = "skipped"
	ChangeRenamed        ChangeAction = "renamed"
	ChangeExpression     ChangeAction = "expression"
	ChangeItemExpression ChangeAction = "item-expression"
	ChangeItemFormat     ChangeAction = "item-format"
	ChangeError          ChangeAction = "error"
)

// Change is a single object-level outcome within a run.
type Change struct {
	Action ChangeAction
	// Object is the qualified object name, e.g. "Sales/Sales YTD", or
	// "Time Intelligence/YTD" for calculation items.
	Object string
	Before string
	After  string
	Detail string
}
