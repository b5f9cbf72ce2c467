package gh

import (
	"context"
)

// EntryKind distinguishes blobs from directories in a repository tree.
type EntryKind string

const (
	EntryKindFile EntryKind = "file"
	EntryKindDir  EntryKind = "dir"
)

// TreeEntry is a single entry of a repository tree: a slash-separated
// relative path, the blob SHA assigned by GitHub, and the entry kind.
// Directories carry no SHA of their own; they are implied by the paths
// of the blobs beneath them.
type TreeEntry struct {
	Path string
	SHA  string
	Kind EntryKind
	// Mode is the git file mode (e.g. 100644, 100755). Preserved so a
	// tree rewrite does not strip the executable bit from kept blobs.
	Mode string
}

// TreeListing is the result of a tree read. Truncated is set when GitHub
// cut the recursive listing at its size limit; callers must treat a
// truncated listing as incomplete.
type TreeListing struct {
	Entries   []TreeEntry
	Truncated bool
}

// FileContent holds a file's decoded bytes and the blob SHA that
// authorizes a later update or delete of that file.
type FileContent struct {
	Content []byte
	SHA     string
}

// CommitInfo captures the commit fields needed to rewrite a branch tree.
type CommitInfo struct {
	SHA     string
	TreeSHA string
	Parents []string
}

// Branch pairs a branch name with its current tip commit SHA.
type Branch struct {
	Name string
	SHA  string
}

// PullRequest represents a newly created pull request.
type PullRequest struct {
	Number int
	URL    string
}

// CreatePROptions defines the metadata required to open a pull request.
type CreatePROptions struct {
	Title string
	Body  string
	Head  string
	Base  string
	Draft bool
}

// Client exposes the GitHub operations required by the tree-mutation core
// and the surrounding content handlers. GitHub is the system of record;
// nothing here is cached.
type Client interface {
	// GetFile reads a file's decoded content and blob SHA at the given ref.
	GetFile(ctx context.Context, owner, repo, path, ref string) (FileContent, error)
	// WriteFile creates the file at path, or updates it in place when
	// existingSHA names the blob currently stored there. A blind create
	// against an existing path is rejected by GitHub as a conflict.
	WriteFile(ctx context.Context, owner, repo, path string, content []byte, message, branch, existingSHA string) (string, error)
	// DeleteFile removes a single file. GitHub rejects the call when sha
	// no longer matches the stored blob, which guards lost updates.
	DeleteFile(ctx context.Context, owner, repo, path, sha, message, branch string) error
	// ListDirectory returns the direct children at path.
	ListDirectory(ctx context.Context, owner, repo, path, ref string) ([]TreeEntry, error)
	// ListTree returns the tree at ref, flattened when recursive is set.
	ListTree(ctx context.Context, owner, repo, ref string, recursive bool) (TreeListing, error)

	GetBranchTip(ctx context.Context, owner, repo, branch string) (string, error)
	GetCommit(ctx context.Context, owner, repo, sha string) (CommitInfo, error)
	// CreateTree submits a full (baseless) tree built from the supplied
	// blob entries; GitHub computes the delta server-side.
	CreateTree(ctx context.Context, owner, repo string, entries []TreeEntry) (string, error)
	CreateCommit(ctx context.Context, owner, repo, treeSHA, parentSHA, message string) (string, error)
	// UpdateBranchRef repoints branch at commitSHA without force. GitHub
	// rejects the update when the branch moved concurrently.
	UpdateBranchRef(ctx context.Context, owner, repo, branch, commitSHA string) error

	GetDefaultBranch(ctx context.Context, owner, repo string) (string, error)
	ListBranches(ctx context.Context, owner, repo string) ([]Branch, error)
	CreatePullRequest(ctx context.Context, owner, repo string, input CreatePROptions) (PullRequest, error)
}

// Factory builds concrete GitHub clients (e.g., REST-backed) scoped to a
// caller-supplied access token.
type Factory interface {
	New(ctx context.Context, token string) (Client, error)
}
