package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/nickromney-org/github-release-updater-proxy/internal/resolver"
)

// IndexResponse is the body of the index endpoint
type IndexResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, IndexResponse{Message: "Server up and running"})
}

// Health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleUpdates returns the updater configuration, or the raw release
// when asJson is set
func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	asJSON, err := queryBool(r, "asJson")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	allowAny, err := queryBool(r, "allowAny")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := resolver.Request{
		Owner:      vars["username"],
		Repository: vars["repository"],
		AsJSON:     asJSON,
		AllowAny:   allowAny,
		Beta:       s.access.IsBetaClient(s.clientAddr(r)),
	}

	res, err := s.resolver.Resolve(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if asJSON {
		writeJSON(w, http.StatusOK, res.Release)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(res.Descriptor.Render()))
}

// handleLatestAsset redirects to the download URL of the newest asset
func (s *Server) handleLatestAsset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	asset, err := s.resolver.LatestAsset(r.Context(), vars["username"], vars["repository"], vars["architecture"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	http.Redirect(w, r, asset.DownloadURL, http.StatusFound)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, resolver.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.logger.Debug("request aborted", "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// queryBool reads a boolean query flag; names match case-insensitively.
// A flag given more than once is rejected.
func queryBool(r *http.Request, name string) (bool, error) {
	var raw []string
	for key, values := range r.URL.Query() {
		if !strings.EqualFold(key, name) {
			continue
		}
		for _, v := range values {
			if v != "" {
				raw = append(raw, v)
			}
		}
	}

	switch len(raw) {
	case 0:
		return false, nil
	case 1:
	default:
		return false, fmt.Errorf("%s given more than once", name)
	}

	b, err := strconv.ParseBool(raw[0])
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %q", name, raw[0])
	}
	return b, nil
}
