package output

import "time"

// ChangeInfo is one object-level change in JSON output.
type ChangeInfo struct {
	Action string `json:"action"`
	Object string `json:"object"`
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// GenerateOutput is the JSON output of the generate command.
type GenerateOutput struct {
	Model      string       `json:"model"`
	RunID      string       `json:"run_id,omitempty"`
	DryRun     bool         `json:"dry_run"`
	Candidates int          `json:"candidates"`
	Created    int          `json:"created"`
	Updated    int          `json:"updated"`
	Skipped    int          `json:"skipped"`
	Errors     int          `json:"errors"`
	Changes    []ChangeInfo `json:"changes"`
}

// RenameMapping is one renamed measure in JSON output.
type RenameMapping struct {
	Table string `json:"table"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// RenameOutput is the JSON output of the rename command.
type RenameOutput struct {
	Model                    string          `json:"model"`
	RunID                    string          `json:"run_id,omitempty"`
	Preview                  bool            `json:"preview"`
	Approximate              bool            `json:"approximate"`
	NoOp                     bool            `json:"no_op"`
	Renames                  []RenameMapping `json:"renames"`
	ExpressionsUpdated       int             `json:"expressions_updated"`
	ItemExpressionsUpdated   int             `json:"item_expressions_updated"`
	ItemFormatStringsUpdated int             `json:"item_format_strings_updated"`
	Errors                   int             `json:"errors"`
	Changes                  []ChangeInfo    `json:"changes"`
}

// MeasureInfo describes a measure in list output.
type MeasureInfo struct {
	Table         string `json:"table"`
	Name          string `json:"name"`
	Expression    string `json:"expression"`
	DisplayFolder string `json:"display_folder,omitempty"`
	FormatString  string `json:"format_string,omitempty"`
	IsHidden      bool   `json:"is_hidden"`
	LineageTag    string `json:"lineage_tag,omitempty"`
}

// ListOutput is the JSON output of the list command.
type ListOutput struct {
	Model    string        `json:"model"`
	Measures []MeasureInfo `json:"measures"`
	Total    int           `json:"total"`
}

// Diagnostic is one check finding in JSON output.
type Diagnostic struct {
	RuleID   string `json:"rule_id"`
	Severity string `json:"severity"`
	Object   string `json:"object"`
	Message  string `json:"message"`
}

// CheckOutput is the JSON output of the check command.
type CheckOutput struct {
	Model       string       `json:"model"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Errors      int          `json:"errors"`
	Warnings    int          `json:"warnings"`
}

// RunInfo is a recorded run in history output.
type RunInfo struct {
	ID          string       `json:"id"`
	Kind        string       `json:"kind"`
	ModelPath   string       `json:"model_path"`
	Status      string       `json:"status"`
	Created     int          `json:"created"`
	Updated     int          `json:"updated"`
	Skipped     int          `json:"skipped"`
	Renamed     int          `json:"renamed"`
	Errors      int          `json:"errors"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Error       string       `json:"error,omitempty"`
	Changes     []ChangeInfo `json:"changes,omitempty"`
}
