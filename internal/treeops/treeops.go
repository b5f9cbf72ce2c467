// Package treeops implements the move, rename, and delete operations over a
// GitHub repository file tree. GitHub offers no multi-file transaction, so
// each operation is decomposed into an ordered call sequence whose partial
// failure modes are always "duplicated or unchanged", never "lost".
package treeops

import "fmt"

// Coordinate identifies a branch of a single repository. It is immutable
// for the duration of one operation. Ref must be resolved (non-empty)
// before the core is invoked.
type Coordinate struct {
	Owner string
	Repo  string
	Ref   string
}

// Item is one top-level entry of a move request: a file or a directory,
// identified by path, and for files the blob SHA that authorizes deleting
// the source after the copy.
type Item struct {
	Path      string
	ContentID string
	Kind      ItemKind
}

// ItemKind distinguishes file items from directory items.
type ItemKind string

const (
	ItemFile ItemKind = "file"
	ItemDir  ItemKind = "dir"
)

// Status is the per-item outcome of a move.
type Status string

const (
	StatusMoved   Status = "moved"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome records what happened to a single file during a move batch.
type Outcome struct {
	Source string
	Dest   string
	Status Status
	Detail string
}

// Summary aggregates a batch's outcome list. Counts are always tallied
// from Details, never tracked independently.
type Summary struct {
	Moved   int
	Skipped int
	Failed  int
	Details []Outcome
}

// Tally derives a Summary from an ordered outcome list.
func Tally(details []Outcome) Summary {
	summary := Summary{Details: details}
	for _, outcome := range details {
		switch outcome.Status {
		case StatusMoved:
			summary.Moved++
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
		}
	}
	return summary
}

// ValidationError reports a structurally invalid request, detected and
// rejected before any mutating call is issued.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}
