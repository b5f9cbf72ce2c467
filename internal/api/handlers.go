package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	gh "github.com/gitstow/gitstow/internal/github"
	"github.com/gitstow/gitstow/internal/treeops"
)

type treeEntryJSON struct {
	Path      string `json:"path"`
	ContentID string `json:"contentId"`
	Kind      string `json:"kind"`
}

type treeResponse struct {
	Entries   []treeEntryJSON `json:"entries"`
	Truncated bool            `json:"truncated"`
}

type fileResponse struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	ContentID string `json:"contentId"`
}

type putFileRequest struct {
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	Branch    string `json:"branch"`
	Path      string `json:"path"`
	Content   string `json:"content"`
	Message   string `json:"message"`
	ContentID string `json:"contentId"`
}

type deleteFileRequest struct {
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	Branch    string `json:"branch"`
	Path      string `json:"path"`
	ContentID string `json:"contentId"`
}

type deleteFolderRequest struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
	Path   string `json:"path"`
}

type moveItemJSON struct {
	Path      string `json:"path"`
	ContentID string `json:"contentId"`
	Kind      string `json:"kind"`
}

type moveRequest struct {
	Owner       string         `json:"owner"`
	Repo        string         `json:"repo"`
	Branch      string         `json:"branch"`
	Destination string         `json:"destination"`
	Items       []moveItemJSON `json:"items"`
}

type moveDetailJSON struct {
	Src    string `json:"src"`
	Dest   string `json:"dest"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type moveResponse struct {
	Moved   int              `json:"moved"`
	Skipped int              `json:"skipped"`
	Details []moveDetailJSON `json:"details"`
}

type renameRequest struct {
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	Branch    string `json:"branch"`
	Path      string `json:"path"`
	NewPath   string `json:"newPath"`
	ContentID string `json:"contentId"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type branchJSON struct {
	Name string `json:"name"`
	SHA  string `json:"sha"`
}

type createPullRequest struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Head  string `json:"head"`
	Base  string `json:"base"`
	Draft bool   `json:"draft"`
}

type pullResponse struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	client, err := s.clientFor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	path := q.Get("path")
	if path != "" {
		if err := treeops.ValidatePath(path); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	coord, err := resolveCoordinate(r.Context(), client, q.Get("owner"), q.Get("repo"), q.Get("ref"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	recursive, _ := strconv.ParseBool(q.Get("recursive"))
	reader := treeops.NewReader(client)

	var resp treeResponse
	if recursive {
		listing, err := reader.ListAll(r.Context(), coord)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.Entries = toTreeEntryJSON(listing.Entries)
		resp.Truncated = listing.Truncated
	} else {
		entries, err := reader.ListDirectory(r.Context(), coord, path)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.Entries = toTreeEntryJSON(entries)
	}

	writeJSON(w, http.StatusOK, resp)
}

func toTreeEntryJSON(entries []gh.TreeEntry) []treeEntryJSON {
	out := make([]treeEntryJSON, 0, len(entries))
	for _, entry := range entries {
		out = append(out, treeEntryJSON{
			Path:      entry.Path,
			ContentID: entry.SHA,
			Kind:      string(entry.Kind),
		})
	}
	return out
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	client, err := s.clientFor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	path := q.Get("path")
	if err := treeops.ValidatePath(path); err != nil {
		s.writeError(w, r, err)
		return
	}

	coord, err := resolveCoordinate(r.Context(), client, q.Get("owner"), q.Get("repo"), q.Get("ref"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	file, err := client.GetFile(r.Context(), coord.Owner, coord.Repo, path, coord.Ref)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, fileResponse{
		Path:      path,
		Content:   string(file.Content),
		ContentID: file.SHA,
	})
}

func (s *Server) handlePutFile(w http.ResponseWriter, r *http.Request) {
	client, err := s.clientFor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req putFileRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := treeops.ValidatePath(req.Path); err != nil {
		s.writeError(w, r, err)
		return
	}

	coord, err := resolveCoordinate(r.Context(), client, req.Owner, req.Repo, req.Branch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	message := req.Message
	if message == "" {
		if req.ContentID != "" {
			message = fmt.Sprintf("Update %s", req.Path)
		} else {
			message = fmt.Sprintf("Create %s", req.Path)
		}
	}

	sha, err := client.WriteFile(r.Context(), coord.Owner, coord.Repo, req.Path, []byte(req.Content), message, coord.Ref, req.ContentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, fileResponse{Path: req.Path, ContentID: sha})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	client, err := s.clientFor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req deleteFileRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := treeops.ValidatePath(req.Path); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.ContentID == "" {
		s.writeError(w, r, gh.Errorf(gh.KindValidation, "contentId is required to delete a file"))
		return
	}

	coord, err := resolveCoordinate(r.Context(), client, req.Owner, req.Repo, req.Branch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	deleter := treeops.NewDeleter(client, s.log)
	if err := deleter.DeleteFile(r.Context(), coord, req.Path, req.ContentID); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	client, err := s.clientFor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req deleteFolderRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := treeops.ValidatePath(req.Path); err != nil {
		s.writeError(w, r, err)
		return
	}

	coord, err := resolveCoordinate(r.Context(), client, req.Owner, req.Repo, req.Branch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	deleter := treeops.NewDeleter(client, s.log)
	if err := deleter.DeleteDirectory(r.Context(), coord, req.Path); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	client, err := s.clientFor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Items) == 0 {
		s.writeError(w, r, gh.Errorf(gh.KindValidation, "at least one item is required"))
		return
	}
	if err := treeops.ValidateDestination(req.Destination); err != nil {
		s.writeError(w, r, err)
		return
	}

	items := make([]treeops.Item, 0, len(req.Items))
	for _, item := range req.Items {
		if err := treeops.ValidatePath(item.Path); err != nil {
			s.writeError(w, r, err)
			return
		}
		kind, err := itemKindFromString(item.Kind)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		items = append(items, treeops.Item{Path: item.Path, ContentID: item.ContentID, Kind: kind})
	}

	coord, err := resolveCoordinate(r.Context(), client, req.Owner, req.Repo, req.Branch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	mover := treeops.NewMover(client, s.log)
	summary, err := mover.Move(r.Context(), coord, items, req.Destination)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := moveResponse{
		Moved:   summary.Moved,
		Skipped: summary.Skipped,
		Details: make([]moveDetailJSON, 0, len(summary.Details)),
	}
	for _, outcome := range summary.Details {
		resp.Details = append(resp.Details, moveDetailJSON{
			Src:    outcome.Source,
			Dest:   outcome.Dest,
			Status: string(outcome.Status),
			Detail: outcome.Detail,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	client, err := s.clientFor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req renameRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := treeops.ValidatePath(req.Path); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := treeops.ValidatePath(req.NewPath); err != nil {
		s.writeError(w, r, err)
		return
	}

	coord, err := resolveCoordinate(r.Context(), client, req.Owner, req.Repo, req.Branch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	relocator := treeops.NewRelocator(client, s.log)
	if _, err := relocator.Relocate(r.Context(), coord, req.Path, req.ContentID, req.NewPath); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleBranches(w http.ResponseWriter, r *http.Request) {
	client, err := s.clientFor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	owner, repo := q.Get("owner"), q.Get("repo")
	if owner == "" || repo == "" {
		s.writeError(w, r, gh.Errorf(gh.KindValidation, "owner and repo are required"))
		return
	}

	branches, err := client.ListBranches(r.Context(), owner, repo)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]branchJSON, 0, len(branches))
	for _, branch := range branches {
		out = append(out, branchJSON{Name: branch.Name, SHA: branch.SHA})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePull(w http.ResponseWriter, r *http.Request) {
	client, err := s.clientFor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req createPullRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Owner == "" || req.Repo == "" || req.Title == "" || req.Head == "" || req.Base == "" {
		s.writeError(w, r, gh.Errorf(gh.KindValidation, "owner, repo, title, head, and base are required"))
		return
	}

	pr, err := client.CreatePullRequest(r.Context(), req.Owner, req.Repo, gh.CreatePROptions{
		Title: req.Title,
		Body:  req.Body,
		Head:  req.Head,
		Base:  req.Base,
		Draft: req.Draft,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, pullResponse{Number: pr.Number, URL: pr.URL})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return gh.Errorf(gh.KindValidation, "decode request body: %v", err)
	}
	return nil
}

func itemKindFromString(kind string) (treeops.ItemKind, error) {
	switch kind {
	case "file", "":
		return treeops.ItemFile, nil
	case "dir", "directory", "folder":
		return treeops.ItemDir, nil
	default:
		return "", gh.Errorf(gh.KindValidation, "unsupported item kind %q", kind)
	}
}
