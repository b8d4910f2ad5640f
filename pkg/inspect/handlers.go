package inspect

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/router"
	"github.com/vango-dev/waypoint/pkg/routetree"
	"github.com/vango-dev/waypoint/pkg/stream"
	"github.com/vango-dev/waypoint/pkg/transition"
)

// RouteInfo describes a declared route.
type RouteInfo = router.RouteInfo

// BuildResponse is returned by /build.
type BuildResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// StateResponse is returned by /state.
type StateResponse struct {
	Started     bool          `json:"started"`
	State       *router.State `json:"state,omitempty"`
	LastAttempt *router.State `json:"lastAttempt,omitempty"`
}

// NavigateRequest is the body of /navigate.
type NavigateRequest struct {
	Name    string        `json:"name"`
	Params  router.Params `json:"params,omitempty"`
	Replace bool          `json:"replace,omitempty"`
	Reload  bool          `json:"reload,omitempty"`
}

// StartRequest is the optional body of /start.
type StartRequest struct {
	Path string `json:"path,omitempty"`
}

// ErrorResponse is returned for failed requests.
type ErrorResponse struct {
	Error string      `json:"error"`
	Code  string      `json:"code,omitempty"`
	Route router.Code `json:"routerCode,omitempty"`
}

var errTimeout = stderrors.New("timed out waiting for transition")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Error: err.Error(), Route: router.CodeOf(err)}
	if d := errors.Classify(err, ""); d != nil {
		resp.Code = d.Code
	}
	writeJSON(w, status, resp)
}

// statusOf maps an error to an HTTP status.
func statusOf(err error) int {
	switch {
	case stderrors.Is(err, routetree.ErrRouteNotFound):
		return http.StatusNotFound
	case router.CodeOf(err) != "":
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func (s *Server) handleRoutes(w http.ResponseWriter, _ *http.Request) {
	rt, _, _ := s.current()
	writeJSON(w, http.StatusOK, rt.Routes())
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, errors.New("W140").WithDetail("path is required"))
		return
	}
	_, source, _ := s.current()
	state := source.MatchPath(path)
	if state == nil {
		writeError(w, http.StatusNotFound, errors.New("W141").WithDetail(path))
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	params := router.Params{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	_, source, _ := s.current()
	path, err := source.BuildPath(name, params)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	url, err := source.BuildURL(name, params)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, BuildResponse{Path: path, URL: url})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	to := q.Get("to")
	if to == "" {
		writeError(w, http.StatusBadRequest, errors.New("W140").WithDetail("to is required"))
		return
	}
	writeJSON(w, http.StatusOK, transition.NewPath(to, q.Get("from")))
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	rt, _, _ := s.current()
	writeJSON(w, http.StatusOK, StateResponse{
		Started:     rt.Started(),
		State:       rt.State(),
		LastAttempt: rt.LastAttempt(),
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, errors.New("W140").Wrap(err))
		return
	}
	_, source, _ := s.current()
	s.respond(r.Context(), w, source.Start(req.Path))
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("W140").Wrap(err))
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New("W140").WithDetail("name is required"))
		return
	}

	var opts []router.NavigateOption
	if req.Replace {
		opts = append(opts, router.WithReplace())
	}
	if req.Reload {
		opts = append(opts, router.WithReload())
	}
	_, source, _ := s.current()
	s.respond(r.Context(), w, source.Navigate(req.Name, req.Params, opts...))
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	rt, _, _ := s.current()
	rt.Stop()
	w.WriteHeader(http.StatusNoContent)
}

// respond waits for a transition result and writes it.
func (s *Server) respond(ctx context.Context, w http.ResponseWriter, results <-chan stream.Result) {
	timer := time.NewTimer(s.config.NavigateTimeout)
	defer timer.Stop()

	select {
	case res := <-results:
		if res.Err != nil {
			writeError(w, statusOf(res.Err), res.Err)
			return
		}
		writeJSON(w, http.StatusOK, res.State)
	case <-timer.C:
		writeError(w, http.StatusGatewayTimeout, errTimeout)
	case <-ctx.Done():
	}
}
