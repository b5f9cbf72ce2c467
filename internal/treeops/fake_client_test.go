package treeops_test

import (
	"context"

	gh "github.com/gitstow/gitstow/internal/github"
)

type writeCall struct {
	path        string
	content     string
	branch      string
	existingSHA string
}

type deleteCall struct {
	path string
	sha  string
}

type commitCall struct {
	treeSHA   string
	parentSHA string
	message   string
}

// fakeClient implements gh.Client against an in-memory file set and records
// every call the core issues, so specs can assert on exact call sequences.
type fakeClient struct {
	files   map[string]gh.FileContent
	listing gh.TreeListing

	branchTip string
	commits   map[string]gh.CommitInfo

	getFileErrs   map[string]error
	writeErrs     map[string]error
	deleteErrs    map[string]error
	listTreeErr   error
	tipErr        error
	createTreeErr error
	commitErr     error
	updateRefErr  error

	reads          []string
	writes         []writeCall
	deletes        []deleteCall
	createdTrees   [][]gh.TreeEntry
	createdCommits []commitCall
	refUpdates     []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		files:   map[string]gh.FileContent{},
		commits: map[string]gh.CommitInfo{},
	}
}

func (f *fakeClient) addFile(path, content string) {
	f.files[path] = gh.FileContent{Content: []byte(content), SHA: "sha:" + path}
}

func (f *fakeClient) GetFile(_ context.Context, _, _, path, _ string) (gh.FileContent, error) {
	f.reads = append(f.reads, path)
	if err, ok := f.getFileErrs[path]; ok {
		return gh.FileContent{}, err
	}
	if file, ok := f.files[path]; ok {
		return file, nil
	}
	return gh.FileContent{}, gh.Errorf(gh.KindNotFound, "no file at %q", path)
}

func (f *fakeClient) WriteFile(_ context.Context, _, _, path string, content []byte, _, branch, existingSHA string) (string, error) {
	f.writes = append(f.writes, writeCall{path: path, content: string(content), branch: branch, existingSHA: existingSHA})
	if err, ok := f.writeErrs[path]; ok {
		return "", err
	}
	f.files[path] = gh.FileContent{Content: content, SHA: "sha:" + path}
	return "sha:" + path, nil
}

func (f *fakeClient) DeleteFile(_ context.Context, _, _, path, sha, _, _ string) error {
	f.deletes = append(f.deletes, deleteCall{path: path, sha: sha})
	if err, ok := f.deleteErrs[path]; ok {
		return err
	}
	delete(f.files, path)
	return nil
}

func (f *fakeClient) ListDirectory(_ context.Context, _, _, path, _ string) ([]gh.TreeEntry, error) {
	var entries []gh.TreeEntry
	for _, entry := range f.listing.Entries {
		if parentOf(entry.Path) == path {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func parentOf(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[:i]
		}
	}
	return ""
}

func (f *fakeClient) ListTree(_ context.Context, _, _, _ string, _ bool) (gh.TreeListing, error) {
	if f.listTreeErr != nil {
		return gh.TreeListing{}, f.listTreeErr
	}
	return f.listing, nil
}

func (f *fakeClient) GetBranchTip(_ context.Context, _, _, _ string) (string, error) {
	if f.tipErr != nil {
		return "", f.tipErr
	}
	return f.branchTip, nil
}

func (f *fakeClient) GetCommit(_ context.Context, _, _, sha string) (gh.CommitInfo, error) {
	if commit, ok := f.commits[sha]; ok {
		return commit, nil
	}
	return gh.CommitInfo{}, gh.Errorf(gh.KindNotFound, "no commit %q", sha)
}

func (f *fakeClient) CreateTree(_ context.Context, _, _ string, entries []gh.TreeEntry) (string, error) {
	if f.createTreeErr != nil {
		return "", f.createTreeErr
	}
	f.createdTrees = append(f.createdTrees, entries)
	return "tree-new", nil
}

func (f *fakeClient) CreateCommit(_ context.Context, _, _, treeSHA, parentSHA, message string) (string, error) {
	if f.commitErr != nil {
		return "", f.commitErr
	}
	f.createdCommits = append(f.createdCommits, commitCall{treeSHA: treeSHA, parentSHA: parentSHA, message: message})
	return "commit-new", nil
}

func (f *fakeClient) UpdateBranchRef(_ context.Context, _, _, _, commitSHA string) error {
	if f.updateRefErr != nil {
		return f.updateRefErr
	}
	f.refUpdates = append(f.refUpdates, commitSHA)
	return nil
}

func (f *fakeClient) GetDefaultBranch(context.Context, string, string) (string, error) {
	return "main", nil
}

func (f *fakeClient) ListBranches(context.Context, string, string) ([]gh.Branch, error) {
	return nil, nil
}

func (f *fakeClient) CreatePullRequest(context.Context, string, string, gh.CreatePROptions) (gh.PullRequest, error) {
	return gh.PullRequest{}, nil
}
