package gh

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	github "github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"
)

const defaultUserAgent = "gitstow"

const blobFileMode = "100644"

// NewRESTFactory returns a GitHub client factory backed by the go-github REST
// client. When base and upload URLs are provided, the factory targets a GitHub
// Enterprise instance.
func NewRESTFactory(baseURL, uploadURL string) Factory {
	return &restFactory{
		userAgent: defaultUserAgent,
		baseURL:   strings.TrimSpace(baseURL),
		uploadURL: strings.TrimSpace(uploadURL),
	}
}

type restFactory struct {
	userAgent string
	baseURL   string
	uploadURL string
}

type restClient struct {
	client *github.Client
}

func (f *restFactory) New(ctx context.Context, token string) (Client, error) {
	if token == "" {
		return nil, Errorf(KindUnauthorized, "github token is required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)

	var ghClient *github.Client
	if f.baseURL != "" {
		baseURLNormalized, err := normalizeGitHubURL(f.baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}

		if f.uploadURL == "" {
			return nil, fmt.Errorf("github upload url must be provided when base url is set")
		}

		uploadURLNormalized, err := normalizeGitHubURL(f.uploadURL)
		if err != nil {
			return nil, fmt.Errorf("parse github upload url: %w", err)
		}

		ghClient, err = github.NewClient(tc).WithEnterpriseURLs(baseURLNormalized, uploadURLNormalized)
		if err != nil {
			return nil, fmt.Errorf("construct enterprise github client: %w", err)
		}
	} else {
		if f.uploadURL != "" {
			return nil, fmt.Errorf("github upload url cannot be set without base url")
		}
		ghClient = github.NewClient(tc)
	}

	if f.userAgent != "" {
		ghClient.UserAgent = f.userAgent
	}

	return &restClient{client: ghClient}, nil
}

func normalizeGitHubURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("url cannot be empty")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	if parsed.Scheme == "" {
		return "", fmt.Errorf("url must include scheme (e.g. https://)")
	}

	if parsed.Host == "" {
		return "", fmt.Errorf("url must include host")
	}

	if parsed.Path == "" {
		parsed.Path = "/"
	} else if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	parsed.RawQuery = ""
	parsed.Fragment = ""

	return parsed.String(), nil
}

func (c *restClient) GetFile(ctx context.Context, owner, repo, path, ref string) (FileContent, error) {
	opts := &github.RepositoryContentGetOptions{Ref: ref}
	file, _, _, err := c.client.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		return FileContent{}, fmt.Errorf("get contents %s: %w", path, classify(err))
	}

	if file == nil {
		return FileContent{}, Errorf(KindValidation, "path %q is a directory, not a file", path)
	}

	decoded, err := file.GetContent()
	if err != nil {
		return FileContent{}, fmt.Errorf("decode contents %s: %w", path, err)
	}

	return FileContent{Content: []byte(decoded), SHA: file.GetSHA()}, nil
}

func (c *restClient) WriteFile(ctx context.Context, owner, repo, path string, content []byte, message, branch, existingSHA string) (string, error) {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		Branch:  github.String(branch),
	}

	var resp *github.RepositoryContentResponse
	var err error
	if existingSHA != "" {
		opts.SHA = github.String(existingSHA)
		resp, _, err = c.client.Repositories.UpdateFile(ctx, owner, repo, path, opts)
	} else {
		resp, _, err = c.client.Repositories.CreateFile(ctx, owner, repo, path, opts)
	}
	if err != nil {
		return "", fmt.Errorf("write file %s: %w", path, classify(err))
	}

	return resp.Content.GetSHA(), nil
}

func (c *restClient) DeleteFile(ctx context.Context, owner, repo, path, sha, message, branch string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		SHA:     github.String(sha),
		Branch:  github.String(branch),
	}

	if _, _, err := c.client.Repositories.DeleteFile(ctx, owner, repo, path, opts); err != nil {
		return fmt.Errorf("delete file %s: %w", path, classify(err))
	}
	return nil
}

func (c *restClient) ListDirectory(ctx context.Context, owner, repo, path, ref string) ([]TreeEntry, error) {
	opts := &github.RepositoryContentGetOptions{Ref: ref}
	file, dir, _, err := c.client.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		return nil, fmt.Errorf("list directory %s: %w", path, classify(err))
	}

	if file != nil {
		return nil, Errorf(KindValidation, "path %q is a file, not a directory", path)
	}

	entries := make([]TreeEntry, 0, len(dir))
	for _, item := range dir {
		if item == nil {
			continue
		}
		kind, ok := entryKindForContentType(item.GetType())
		if !ok {
			continue
		}
		entries = append(entries, TreeEntry{
			Path: item.GetPath(),
			SHA:  item.GetSHA(),
			Kind: kind,
		})
	}

	return entries, nil
}

func (c *restClient) ListTree(ctx context.Context, owner, repo, ref string, recursive bool) (TreeListing, error) {
	tree, _, err := c.client.Git.GetTree(ctx, owner, repo, ref, recursive)
	if err != nil {
		return TreeListing{}, fmt.Errorf("get tree %s: %w", ref, classify(err))
	}

	listing := TreeListing{
		Entries:   make([]TreeEntry, 0, len(tree.Entries)),
		Truncated: tree.GetTruncated(),
	}

	for _, entry := range tree.Entries {
		kind, ok := entryKindForTreeType(entry.GetType())
		if !ok {
			continue
		}
		listing.Entries = append(listing.Entries, TreeEntry{
			Path: entry.GetPath(),
			SHA:  entry.GetSHA(),
			Kind: kind,
			Mode: entry.GetMode(),
		})
	}

	return listing, nil
}

func (c *restClient) GetBranchTip(ctx context.Context, owner, repo, branch string) (string, error) {
	ref, _, err := c.client.Git.GetRef(ctx, owner, repo, "heads/"+branch)
	if err != nil {
		return "", fmt.Errorf("get ref heads/%s: %w", branch, classify(err))
	}
	return ref.GetObject().GetSHA(), nil
}

func (c *restClient) GetCommit(ctx context.Context, owner, repo, sha string) (CommitInfo, error) {
	commit, _, err := c.client.Git.GetCommit(ctx, owner, repo, sha)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("get commit %s: %w", sha, classify(err))
	}

	info := CommitInfo{
		SHA:     commit.GetSHA(),
		TreeSHA: commit.GetTree().GetSHA(),
	}
	for _, parent := range commit.Parents {
		if parent == nil {
			continue
		}
		info.Parents = append(info.Parents, parent.GetSHA())
	}

	return info, nil
}

func (c *restClient) CreateTree(ctx context.Context, owner, repo string, entries []TreeEntry) (string, error) {
	treeEntries := make([]*github.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		mode := entry.Mode
		if mode == "" {
			mode = blobFileMode
		}
		treeEntries = append(treeEntries, &github.TreeEntry{
			Path: github.String(entry.Path),
			Mode: github.String(mode),
			Type: github.String("blob"),
			SHA:  github.String(entry.SHA),
		})
	}

	tree, _, err := c.client.Git.CreateTree(ctx, owner, repo, "", treeEntries)
	if err != nil {
		return "", fmt.Errorf("create tree: %w", classify(err))
	}
	return tree.GetSHA(), nil
}

func (c *restClient) CreateCommit(ctx context.Context, owner, repo, treeSHA, parentSHA, message string) (string, error) {
	commit := &github.Commit{
		Message: github.String(message),
		Tree:    &github.Tree{SHA: github.String(treeSHA)},
		Parents: []*github.Commit{{SHA: github.String(parentSHA)}},
	}

	created, _, err := c.client.Git.CreateCommit(ctx, owner, repo, commit)
	if err != nil {
		return "", fmt.Errorf("create commit: %w", classify(err))
	}
	return created.GetSHA(), nil
}

func (c *restClient) UpdateBranchRef(ctx context.Context, owner, repo, branch, commitSHA string) error {
	ref := &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.String(commitSHA)},
	}

	if _, _, err := c.client.Git.UpdateRef(ctx, owner, repo, ref, false); err != nil {
		return fmt.Errorf("update ref heads/%s: %w", branch, classify(err))
	}
	return nil
}

func (c *restClient) GetDefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	repository, _, err := c.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("get repository %s/%s: %w", owner, repo, classify(err))
	}
	return repository.GetDefaultBranch(), nil
}

func (c *restClient) ListBranches(ctx context.Context, owner, repo string) ([]Branch, error) {
	opts := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: 100}}

	var results []Branch
	for {
		branches, resp, err := c.client.Repositories.ListBranches(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list branches: %w", classify(err))
		}

		for _, branch := range branches {
			if branch == nil {
				continue
			}
			results = append(results, Branch{
				Name: branch.GetName(),
				SHA:  branch.GetCommit().GetSHA(),
			})
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return results, nil
}

func (c *restClient) CreatePullRequest(ctx context.Context, owner, repo string, input CreatePROptions) (PullRequest, error) {
	pr, _, err := c.client.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: github.String(input.Title),
		Head:  github.String(input.Head),
		Base:  github.String(input.Base),
		Body:  github.String(input.Body),
		Draft: github.Bool(input.Draft),
	})
	if err != nil {
		return PullRequest{}, fmt.Errorf("create pull request: %w", classify(err))
	}

	return PullRequest{Number: pr.GetNumber(), URL: pr.GetHTMLURL()}, nil
}

func entryKindForContentType(contentType string) (EntryKind, bool) {
	switch contentType {
	case "file", "symlink":
		return EntryKindFile, true
	case "dir":
		return EntryKindDir, true
	default:
		return "", false
	}
}

func entryKindForTreeType(treeType string) (EntryKind, bool) {
	switch treeType {
	case "blob":
		return EntryKindFile, true
	case "tree":
		return EntryKindDir, true
	default:
		// Submodule commits are not movable content.
		return "", false
	}
}
