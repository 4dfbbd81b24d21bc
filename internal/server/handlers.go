package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/planstore"
	"github.com/meltforce/gymtrack/internal/session"
)

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plans, err := s.plans.List(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	active, err := s.plans.Active(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}

	views := make([]PlanView, 0, len(plans))
	for _, p := range plans {
		views = append(views, NewPlanView(p, active.ID))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plans":    views,
		"activeId": active.ID,
	})
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.plans.Create(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleSavePlan(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid plan id"})
		return
	}

	var plan models.Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	plan.ID = id

	saved, err := s.plans.Save(r.Context(), plan)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid plan id"})
		return
	}

	if err := s.plans.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleActivatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid plan id"})
		return
	}

	if err := s.plans.SetActive(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"activated": true})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Slot int `json:"slot"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	if _, err := s.recorder.Start(r.Context(), req.Slot); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeSessionView(w, r)
}

func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	s.writeSessionView(w, r)
}

func (s *Server) handleSetWeight(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Exercise string  `json:"exercise"`
		Set      int     `json:"set"`
		Weight   float64 `json:"weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	result, err := s.recorder.SetWeight(req.Exercise, req.Set, req.Weight)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errBody(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	result, err := s.recorder.Save(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"saved":  true,
		"synced": result.Synced,
	})
}

func (s *Server) handlePriorWeight(w http.ResponseWriter, r *http.Request) {
	exercise := r.URL.Query().Get("exercise")
	if exercise == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise parameter required"})
		return
	}
	slot, err := strconv.Atoi(r.URL.Query().Get("slot"))
	if err != nil || slot < 1 || slot > 3 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "slot must be 1, 2 or 3"})
		return
	}

	weight := s.resolver.BestPriorWeight(r.Context(), exercise, slot)
	writeJSON(w, http.StatusOK, map[string]any{
		"exercise": exercise,
		"slot":     slot,
		"weight":   weight,
		"found":    weight > 0,
	})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if s.records == nil {
		writeJSON(w, http.StatusOK, map[string]any{"records": []models.RemoteRecord{}, "online": false})
		return
	}
	records, err := s.records.GetRecords(r.Context())
	if err != nil {
		// Remote failure is informational, never a hard error.
		s.log.Warn("records unavailable", "error", err)
		writeJSON(w, http.StatusOK, map[string]any{"records": []models.RemoteRecord{}, "online": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records, "online": true})
}

func (s *Server) handleSyncQueue(w http.ResponseWriter, r *http.Request) {
	items, err := s.queue.Pending(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": items, "count": len(items)})
}

func (s *Server) handleDeadLetters(w http.ResponseWriter, r *http.Request) {
	items, err := s.queue.DeadLetters(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deadLetters": items, "count": len(items)})
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	stats, err := s.queue.Flush(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRequeue(w http.ResponseWriter, r *http.Request) {
	n, err := s.queue.RequeueDeadLetters(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"requeued": n})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	online := s.monitor != nil && s.monitor.Online()
	pending, err := s.queue.Pending(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version": s.version,
		"online":  online,
		"pending": len(pending),
	})
}

// writeSessionView renders the active session, resolving prior weights
// for display.
func (s *Server) writeSessionView(w http.ResponseWriter, r *http.Request) {
	snapshot := s.recorder.Collect()
	if snapshot == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active session"})
		return
	}

	order := s.recorder.Exercises()
	priors := make(map[string]float64, len(order))
	for _, ex := range order {
		priors[ex.Name] = s.resolver.BestPriorWeight(r.Context(), ex.Name, snapshot.Slot)
	}
	writeJSON(w, http.StatusOK, NewSessionView(snapshot, order, priors))
}

// writeDomainError maps the error taxonomy to HTTP statuses. Network
// errors never travel through here: remote failures degrade inside the
// components and surface as synced=false, not as request failures.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr *planstore.ValidationError
		invariantErr  *planstore.InvariantError
		noPlanErr     *session.NoActivePlanError
		emptyErr      *session.EmptySessionError
	)
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, errBody(err))
	case errors.As(err, &invariantErr):
		writeJSON(w, http.StatusConflict, errBody(err))
	case errors.As(err, &noPlanErr):
		writeJSON(w, http.StatusPreconditionFailed, map[string]string{
			"error":    err.Error(),
			"redirect": "plans",
		})
	case errors.As(err, &emptyErr):
		writeJSON(w, http.StatusUnprocessableEntity, errBody(err))
	default:
		writeJSON(w, http.StatusInternalServerError, errBody(err))
	}
}

func errBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
