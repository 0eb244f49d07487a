package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/conveyorci/conveyor/internal/event"
	"github.com/conveyorci/conveyor/internal/runner"
	"github.com/conveyorci/conveyor/internal/storage"
)

// eventRequest is the host event payload delivered to /api/v1/events.
type eventRequest struct {
	Event  string `json:"event"`
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
	Tag    string `json:"tag"`
	Ref    string `json:"ref"`
}

// runSummary is the per-pipeline outcome returned from the event endpoint.
type runSummary struct {
	RunID    string        `json:"run_id"`
	Pipeline string        `json:"pipeline"`
	Status   runner.Status `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleEvent evaluates every loaded pipeline's trigger against the posted
// event and runs the ones that match, in the order they were loaded. Runs
// execute sequentially; the response carries one summary per pipeline run.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event payload")
		return
	}

	kind := event.Kind(req.Event)
	if req.Event != "" && !event.ValidKind(kind) {
		writeError(w, http.StatusBadRequest, "unknown event kind "+req.Event)
		return
	}

	ev := event.Event{
		Kind:   kind,
		Repo:   req.Repo,
		Branch: req.Branch,
		Tag:    req.Tag,
		Ref:    req.Ref,
	}.Normalize()

	summaries := make([]runSummary, 0, len(s.pipelines))
	for _, p := range s.pipelines {
		report := s.runner.Run(r.Context(), p, ev)
		if err := s.store.SaveRun(r.Context(), report); err != nil {
			s.logger.Error("failed to persist run report",
				slog.String("run_id", report.ID),
				slog.String("error", err.Error()))
		}
		summaries = append(summaries, runSummary{
			RunID:    report.ID,
			Pipeline: report.Pipeline,
			Status:   report.Status,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"runs": summaries})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list runs", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get run",
			slog.String("run_id", id),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
