// Package api exposes the caller-facing JSON surface: tree browsing, file
// reads and writes, the move/rename/delete operations, and the thin
// pull-request and branch-listing glue.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gh "github.com/gitstow/gitstow/internal/github"
	"github.com/gitstow/gitstow/internal/treeops"
)

// Server handles API requests. Each request carries its own bearer token
// and builds a token-scoped GitHub client; no state outlives a request.
type Server struct {
	factory gh.Factory
	log     *slog.Logger
}

// NewServer constructs a Server around the given client factory.
func NewServer(factory gh.Factory, logger *slog.Logger) *Server {
	return &Server{factory: factory, log: logger}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /api/tree", s.handleTree)
	mux.HandleFunc("GET /api/file", s.handleGetFile)
	mux.HandleFunc("PUT /api/file", s.handlePutFile)
	mux.HandleFunc("DELETE /api/file", s.handleDeleteFile)
	mux.HandleFunc("DELETE /api/folder", s.handleDeleteFolder)
	mux.HandleFunc("POST /api/move", s.handleMove)
	mux.HandleFunc("POST /api/rename", s.handleRename)
	mux.HandleFunc("GET /api/branches", s.handleBranches)
	mux.HandleFunc("POST /api/pulls", s.handleCreatePull)

	return s.withLogging(mux)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		if s.log != nil {
			s.log.Info("request",
				"method", r.Method, "path", r.URL.Path,
				"status", recorder.status, "duration", time.Since(start))
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// clientFor builds a token-scoped GitHub client from the request's
// Authorization header.
func (s *Server) clientFor(r *http.Request) (gh.Client, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	token := ""
	if rest, found := strings.CutPrefix(auth, "Bearer "); found {
		token = strings.TrimSpace(rest)
	}
	if token == "" {
		return nil, gh.Errorf(gh.KindUnauthorized, "missing bearer token")
	}
	return s.factory.New(r.Context(), token)
}

// resolveCoordinate fills in the repository's default branch when the
// caller did not name a ref.
func resolveCoordinate(ctx context.Context, client gh.Client, owner, repo, ref string) (treeops.Coordinate, error) {
	if owner == "" || repo == "" {
		return treeops.Coordinate{}, gh.Errorf(gh.KindValidation, "owner and repo are required")
	}
	if ref == "" {
		defaultBranch, err := client.GetDefaultBranch(ctx, owner, repo)
		if err != nil {
			return treeops.Coordinate{}, fmt.Errorf("resolve default branch: %w", err)
		}
		ref = defaultBranch
	}
	return treeops.Coordinate{Owner: owner, Repo: repo, Ref: ref}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already out by the time Encode can fail; nothing more
	// can be reported to the client.
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps an error onto an HTTP status and a human-readable cause
// category. Raw upstream detail stays in the server log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *treeops.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   string(gh.KindValidation),
			Message: validationErr.Error(),
		})
		return
	}

	kind := gh.KindOf(err)
	if s.log != nil {
		s.log.Error("request failed",
			"method", r.Method, "path", r.URL.Path, "kind", kind, "error", err)
	}

	// Validation failures are generated locally, never by GitHub, so their
	// messages are safe to return verbatim. Everything else collapses to a
	// cause category; the raw upstream detail stays in the log above.
	message := messageForKind(kind)
	if kind == gh.KindValidation {
		message = err.Error()
	}
	writeJSON(w, statusForKind(kind), errorResponse{
		Error:   string(kind),
		Message: message,
	})
}

func statusForKind(kind gh.Kind) int {
	switch kind {
	case gh.KindValidation:
		return http.StatusBadRequest
	case gh.KindUnauthorized:
		return http.StatusUnauthorized
	case gh.KindForbidden:
		return http.StatusForbidden
	case gh.KindNotFound:
		return http.StatusNotFound
	case gh.KindConflict:
		return http.StatusConflict
	case gh.KindRateLimited:
		return http.StatusTooManyRequests
	case gh.KindUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func messageForKind(kind gh.Kind) string {
	switch kind {
	case gh.KindValidation:
		return "the request is malformed or structurally invalid"
	case gh.KindUnauthorized:
		return "the supplied credential is missing or invalid"
	case gh.KindForbidden:
		return "the supplied credential lacks permission for this repository"
	case gh.KindNotFound:
		return "the requested repository, branch, or path does not exist"
	case gh.KindConflict:
		return "the repository changed concurrently; refresh and retry"
	case gh.KindRateLimited:
		return "the GitHub API rate limit was exceeded; retry later"
	case gh.KindUnavailable:
		return "GitHub is currently unavailable; retry later"
	default:
		return "an unexpected error occurred"
	}
}
