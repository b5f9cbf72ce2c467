package treeops

import (
	"context"
	"fmt"
	"log/slog"

	gh "github.com/gitstow/gitstow/internal/github"
)

// Deleter removes files and folders. Single files go through the contents
// API. Folders have no native delete on GitHub, so the whole branch tree
// is rewritten without the target prefix and the branch ref is repointed
// in one final step; until that step, the branch is untouched.
type Deleter struct {
	gh  gh.Client
	log *slog.Logger
}

// NewDeleter returns a Deleter backed by the given GitHub client.
func NewDeleter(client gh.Client, logger *slog.Logger) *Deleter {
	return &Deleter{gh: client, log: logger}
}

// DeleteFile removes one file. The sha must match the stored blob;
// GitHub rejects a stale id, which surfaces as a conflict.
func (d *Deleter) DeleteFile(ctx context.Context, coord Coordinate, path, sha string) error {
	message := fmt.Sprintf("Delete %s", path)
	if err := d.gh.DeleteFile(ctx, coord.Owner, coord.Repo, path, sha, message, coord.Ref); err != nil {
		return fmt.Errorf("delete file %s: %w", path, err)
	}
	return nil
}

// DeleteDirectory removes every file at or beneath path by committing a
// rewritten tree. Steps run strictly in order; any failure before the
// final ref update aborts with the branch unchanged. A ref-update
// rejection (the branch moved concurrently) is reported, not merged.
func (d *Deleter) DeleteDirectory(ctx context.Context, coord Coordinate, path string) error {
	tip, err := d.gh.GetBranchTip(ctx, coord.Owner, coord.Repo, coord.Ref)
	if err != nil {
		return fmt.Errorf("resolve branch tip: %w", err)
	}

	commit, err := d.gh.GetCommit(ctx, coord.Owner, coord.Repo, tip)
	if err != nil {
		return fmt.Errorf("resolve tip commit %s: %w", tip, err)
	}

	listing, err := d.gh.ListTree(ctx, coord.Owner, coord.Repo, commit.TreeSHA, true)
	if err != nil {
		return fmt.Errorf("list root tree %s: %w", commit.TreeSHA, err)
	}
	if listing.Truncated {
		// Rewriting from an incomplete listing would silently drop every
		// unlisted file from the branch.
		return gh.Errorf(gh.KindUnavailable, "repository listing was truncated; refusing to rewrite the tree")
	}

	kept := make([]gh.TreeEntry, 0, len(listing.Entries))
	removed := 0
	for _, entry := range listing.Entries {
		if entry.Kind != gh.EntryKindFile {
			continue
		}
		if UnderPrefix(entry.Path, path) {
			removed++
			continue
		}
		// Kept blobs retain their SHAs verbatim, so untouched content is
		// never re-uploaded.
		kept = append(kept, entry)
	}

	if removed == 0 {
		return gh.Errorf(gh.KindNotFound, "no files under %q", path)
	}

	newTree, err := d.gh.CreateTree(ctx, coord.Owner, coord.Repo, kept)
	if err != nil {
		return fmt.Errorf("create filtered tree: %w", err)
	}

	message := fmt.Sprintf("Delete directory %s", path)
	newCommit, err := d.gh.CreateCommit(ctx, coord.Owner, coord.Repo, newTree, tip, message)
	if err != nil {
		return fmt.Errorf("create commit: %w", err)
	}

	if err := d.gh.UpdateBranchRef(ctx, coord.Owner, coord.Repo, coord.Ref, newCommit); err != nil {
		return fmt.Errorf("update branch ref: %w", err)
	}

	if d.log != nil {
		d.log.Info("deleted directory",
			"owner", coord.Owner, "repo", coord.Repo, "ref", coord.Ref,
			"path", path, "removed_files", removed, "commit", newCommit)
	}
	return nil
}
