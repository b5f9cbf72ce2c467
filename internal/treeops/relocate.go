package treeops

import (
	"context"
	"fmt"
	"log/slog"

	gh "github.com/gitstow/gitstow/internal/github"
)

// RelocationError reports which step of a single-file move failed. The
// step names the repository state the caller is left with: a failure at
// or before "write destination" leaves the source untouched; a failure
// at "delete source" leaves the content duplicated at both paths.
type RelocationError struct {
	Step   string
	Source string
	Dest   string
	Err    error
}

func (e *RelocationError) Error() string {
	return fmt.Sprintf("relocate %s -> %s: %s: %v", e.Source, e.Dest, e.Step, e.Err)
}

func (e *RelocationError) Unwrap() error { return e.Err }

// Relocator moves one file at a time. The read, write, delete ordering is
// the core safety invariant: the source is deleted only after the write
// is confirmed, so a partial failure duplicates content instead of losing
// it. Never reorder these steps.
type Relocator struct {
	gh  gh.Client
	log *slog.Logger
}

// NewRelocator returns a Relocator backed by the given GitHub client.
func NewRelocator(client gh.Client, logger *slog.Logger) *Relocator {
	return &Relocator{gh: client, log: logger}
}

// Relocate moves the file at srcPath to dstPath on the coordinate's branch.
// A move onto the file's own path is reported as skipped without issuing
// any network call, which makes re-running a batch safe for items that
// already landed.
func (r *Relocator) Relocate(ctx context.Context, coord Coordinate, srcPath, srcSHA, dstPath string) (Status, error) {
	if srcPath == dstPath {
		return StatusSkipped, nil
	}

	source, err := r.gh.GetFile(ctx, coord.Owner, coord.Repo, srcPath, coord.Ref)
	if err != nil {
		return StatusFailed, &RelocationError{Step: "read source", Source: srcPath, Dest: dstPath, Err: err}
	}

	// An existing destination must be updated in place; a blind create
	// against an occupied path is rejected upstream as a conflict.
	existingSHA := ""
	dest, err := r.gh.GetFile(ctx, coord.Owner, coord.Repo, dstPath, coord.Ref)
	if err == nil {
		existingSHA = dest.SHA
	} else if !gh.IsNotFound(err) {
		return StatusFailed, &RelocationError{Step: "probe destination", Source: srcPath, Dest: dstPath, Err: err}
	}

	message := fmt.Sprintf("Move %s to %s", srcPath, dstPath)
	if _, err := r.gh.WriteFile(ctx, coord.Owner, coord.Repo, dstPath, source.Content, message, coord.Ref, existingSHA); err != nil {
		return StatusFailed, &RelocationError{Step: "write destination", Source: srcPath, Dest: dstPath, Err: err}
	}

	if err := r.gh.DeleteFile(ctx, coord.Owner, coord.Repo, srcPath, srcSHA, message+" (remove source)", coord.Ref); err != nil {
		// The write landed, so the content now exists at both paths.
		// Surface the failure so the caller can reconcile the stale source.
		if r.log != nil {
			r.log.Warn("source delete failed after successful write, content duplicated",
				"owner", coord.Owner, "repo", coord.Repo, "source", srcPath, "dest", dstPath, "error", err)
		}
		return StatusFailed, &RelocationError{Step: "delete source", Source: srcPath, Dest: dstPath, Err: err}
	}

	return StatusMoved, nil
}
