package treeops

import (
	"context"
	"fmt"

	gh "github.com/gitstow/gitstow/internal/github"
)

// Reader resolves repository paths to their current tree entries. It is a
// leaf dependency: the mover uses it to enumerate directory contents, and
// the browsing handlers use it directly. No retries happen here; retry
// policy belongs to callers.
type Reader struct {
	gh gh.Client
}

// NewReader returns a Reader backed by the given GitHub client.
func NewReader(client gh.Client) *Reader {
	return &Reader{gh: client}
}

// ListDirectory returns the direct children at path. A path or ref that
// does not exist yields an empty listing, which matches how a browsing
// caller treats a folder that is not there yet.
func (r *Reader) ListDirectory(ctx context.Context, coord Coordinate, path string) ([]gh.TreeEntry, error) {
	entries, err := r.gh.ListDirectory(ctx, coord.Owner, coord.Repo, path, coord.Ref)
	if err != nil {
		if gh.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list directory %s: %w", path, err)
	}
	return entries, nil
}

// ListAll returns every entry in the repository at the coordinate's ref,
// flattened. Callers must honor the Truncated flag: a truncated listing is
// incomplete and proves nothing about absent paths.
func (r *Reader) ListAll(ctx context.Context, coord Coordinate) (gh.TreeListing, error) {
	listing, err := r.gh.ListTree(ctx, coord.Owner, coord.Repo, coord.Ref, true)
	if err != nil {
		return gh.TreeListing{}, fmt.Errorf("list tree at %s: %w", coord.Ref, err)
	}
	return listing, nil
}

// FilesUnder returns the file entries of listing transitively contained in
// dirPath, in listing order.
func FilesUnder(listing gh.TreeListing, dirPath string) []gh.TreeEntry {
	var files []gh.TreeEntry
	for _, entry := range listing.Entries {
		if entry.Kind != gh.EntryKindFile {
			continue
		}
		if UnderPrefix(entry.Path, dirPath) && entry.Path != dirPath {
			files = append(files, entry)
		}
	}
	return files
}
