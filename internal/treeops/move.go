package treeops

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gh "github.com/gitstow/gitstow/internal/github"
)

// Mover expands a batch of top-level move items into single-file
// relocations. Validation covers the whole request set before any
// mutating call; execution is per-item independent, so one file's
// failure never halts its siblings.
type Mover struct {
	reader    *Reader
	relocator *Relocator
	log       *slog.Logger
}

// NewMover returns a Mover backed by the given GitHub client.
func NewMover(client gh.Client, logger *slog.Logger) *Mover {
	return &Mover{
		reader:    NewReader(client),
		relocator: NewRelocator(client, logger),
		log:       logger,
	}
}

// Move relocates every item under destination, preserving each
// directory's internal structure beneath destination/<dirBase>/. A
// structurally invalid request (a folder moved onto itself or into its
// own descendant) is rejected with a ValidationError before anything is
// touched. The returned summary holds one ordered outcome per file.
func (m *Mover) Move(ctx context.Context, coord Coordinate, items []Item, destination string) (Summary, error) {
	if err := validateMove(items, destination); err != nil {
		return Summary{}, err
	}

	var details []Outcome
	for _, item := range items {
		switch item.Kind {
		case ItemDir:
			details = append(details, m.moveDirectory(ctx, coord, item.Path, destination)...)
		default:
			dst := JoinPath(destination, BaseOf(item.Path))
			details = append(details, m.relocateOne(ctx, coord, item.Path, item.ContentID, dst))
		}
	}

	summary := Tally(details)
	if m.log != nil {
		m.log.Info("move batch finished",
			"owner", coord.Owner, "repo", coord.Repo, "ref", coord.Ref,
			"destination", destination, "moved", summary.Moved, "skipped", summary.Skipped, "failed", summary.Failed)
	}
	return summary, nil
}

func validateMove(items []Item, destination string) error {
	for _, item := range items {
		if item.Kind != ItemDir {
			continue
		}
		if destination == item.Path {
			return validationErrorf("cannot move folder %q onto itself", item.Path)
		}
		if strings.HasPrefix(destination, item.Path+"/") {
			return validationErrorf("cannot move folder %q into its own subfolder %q", item.Path, destination)
		}
	}
	return nil
}

// moveDirectory enumerates every file transitively under dirPath and
// relocates each one. The working set is fixed before the first mutation;
// a concurrent change to the subtree surfaces as a per-file failure.
// Moving a folder into its current parent computes every file's
// destination equal to its source, so each relocation short-circuits to
// skipped without touching the repository.
func (m *Mover) moveDirectory(ctx context.Context, coord Coordinate, dirPath, destination string) []Outcome {
	newParent := JoinPath(destination, BaseOf(dirPath))

	listing, err := m.reader.ListAll(ctx, coord)
	if err != nil {
		return []Outcome{m.failedOutcome(dirPath, newParent, err)}
	}
	if listing.Truncated {
		return []Outcome{{
			Source: dirPath,
			Dest:   newParent,
			Status: StatusFailed,
			Detail: "repository listing was truncated; refusing to move an incompletely enumerated folder",
		}}
	}

	files := FilesUnder(listing, dirPath)
	outcomes := make([]Outcome, 0, len(files))
	for _, file := range files {
		rel := strings.TrimPrefix(file.Path, dirPath+"/")
		outcomes = append(outcomes, m.relocateOne(ctx, coord, file.Path, file.SHA, JoinPath(newParent, rel)))
	}
	return outcomes
}

func (m *Mover) relocateOne(ctx context.Context, coord Coordinate, srcPath, srcSHA, dstPath string) Outcome {
	status, err := m.relocator.Relocate(ctx, coord, srcPath, srcSHA, dstPath)
	if err != nil {
		if m.log != nil {
			m.log.Error("relocation failed",
				"owner", coord.Owner, "repo", coord.Repo, "source", srcPath, "dest", dstPath, "error", err)
		}
		return m.failedOutcome(srcPath, dstPath, err)
	}
	return Outcome{Source: srcPath, Dest: dstPath, Status: status}
}

// failedOutcome records a failure with its cause category rather than the
// raw upstream message, which is only logged server-side.
func (m *Mover) failedOutcome(srcPath, dstPath string, err error) Outcome {
	detail := string(gh.KindOf(err))

	var relErr *RelocationError
	if errors.As(err, &relErr) {
		detail = fmt.Sprintf("%s (%s)", relErr.Step, gh.KindOf(relErr.Err))
	}

	return Outcome{Source: srcPath, Dest: dstPath, Status: StatusFailed, Detail: detail}
}
