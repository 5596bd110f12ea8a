package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/secmon-lab/gyges/pkg/usecase"
	"github.com/secmon-lab/gyges/pkg/utils/errutil"
	"github.com/secmon-lab/gyges/pkg/utils/safe"
)

// actorRequest is the common body for operations acting on behalf of a
// member. The platform in front of this API is the authority for the
// member's role list.
type actorRequest struct {
	UserID          types.UserID   `json:"user_id"`
	MemberRoles     []types.RoleID `json:"member_roles,omitempty"`
	IsPlatformAdmin bool           `json:"is_platform_admin,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(ctx, w, data)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return goerr.Wrap(err, "failed to decode request body")
	}
	return nil
}

// respondMutation maps the registry's boolean contract onto status codes:
// 404 when the action does not exist, 409 when a guard rejected the
// operation.
func (s *Server) respondMutation(w http.ResponseWriter, r *http.Request, id types.ActionID, ok bool) {
	if ok {
		action, found := s.registry.Get(id)
		if !found {
			// Deleted by the same request
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, action)
		return
	}

	if _, found := s.registry.Get(id); !found {
		http.Error(w, "action not found", http.StatusNotFound)
		return
	}
	http.Error(w, "operation rejected by action state", http.StatusConflict)
}

func (s *Server) createAction(w http.ResponseWriter, r *http.Request) {
	groupID := types.GroupID(chi.URLParam(r, "groupID"))

	var req struct {
		Name      string          `json:"name"`
		TypeKey   string          `json:"type_key"`
		ChannelID types.ChannelID `json:"channel_id,omitempty"`
		MessageID types.MessageID `json:"message_id,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	typeCfg := s.typeTable.Lookup(req.TypeKey)
	action, err := s.registry.Create(r.Context(), groupID, req.Name, typeCfg, req.ChannelID, req.MessageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrNameRequired) || errors.Is(err, usecase.ErrInvalidCapacity) {
			status = http.StatusBadRequest
		}
		errutil.HandleHTTP(r.Context(), w, err, status)
		return
	}

	writeJSON(r.Context(), w, http.StatusCreated, action)
}

func (s *Server) getAction(w http.ResponseWriter, r *http.Request) {
	id := types.ActionID(chi.URLParam(r, "actionID"))

	action, ok := s.registry.Get(id)
	if !ok {
		http.Error(w, "action not found", http.StatusNotFound)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, action)
}

func (s *Server) listActions(w http.ResponseWriter, r *http.Request) {
	groupID := types.GroupID(chi.URLParam(r, "groupID"))
	includeClosed := r.URL.Query().Get("include_closed") == "true"

	actions := s.registry.ListGroupActions(groupID, includeClosed)
	if actions == nil {
		actions = []*model.Action{}
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{"actions": actions})
}

func (s *Server) claimCoordinator(w http.ResponseWriter, r *http.Request) {
	id := types.ActionID(chi.URLParam(r, "actionID"))

	var req actorRequest
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	action, ok := s.registry.Get(id)
	if !ok {
		http.Error(w, "action not found", http.StatusNotFound)
		return
	}

	gs := s.groupSettings(action.GroupID)
	if !usecase.CanClaimCoordinator(action, req.MemberRoles, gs.GatedRoles) {
		http.Error(w, "coordinator claim requires a gated role", http.StatusForbidden)
		return
	}

	s.respondMutation(w, r, id, s.registry.ClaimCoordinator(r.Context(), id, req.UserID))
}

func (s *Server) claimRoleA(w http.ResponseWriter, r *http.Request) {
	id := types.ActionID(chi.URLParam(r, "actionID"))

	var req actorRequest
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	s.respondMutation(w, r, id, s.registry.ClaimRoleA(r.Context(), id, req.UserID))
}

func (s *Server) claimRoleB(w http.ResponseWriter, r *http.Request) {
	id := types.ActionID(chi.URLParam(r, "actionID"))

	var req actorRequest
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	s.respondMutation(w, r, id, s.registry.ClaimRoleB(r.Context(), id, req.UserID))
}

func (s *Server) addParticipant(w http.ResponseWriter, r *http.Request) {
	id := types.ActionID(chi.URLParam(r, "actionID"))

	var req actorRequest
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	s.respondMutation(w, r, id, s.registry.AddParticipant(r.Context(), id, req.UserID))
}

func (s *Server) removeParticipant(w http.ResponseWriter, r *http.Request) {
	id := types.ActionID(chi.URLParam(r, "actionID"))
	userID := types.UserID(chi.URLParam(r, "userID"))

	s.respondMutation(w, r, id, s.registry.RemoveParticipant(r.Context(), id, userID))
}

// requireManagement loads the action and checks the caller may manage it.
// Returns false after writing the error response.
func (s *Server) requireManagement(w http.ResponseWriter, r *http.Request, id types.ActionID, req actorRequest) bool {
	action, ok := s.registry.Get(id)
	if !ok {
		http.Error(w, "action not found", http.StatusNotFound)
		return false
	}

	gs := s.groupSettings(action.GroupID)
	if !usecase.CanManageAction(req.UserID, action, req.IsPlatformAdmin, req.MemberRoles, gs.AdminRoles) {
		http.Error(w, "management requires the coordinator or an admin", http.StatusForbidden)
		return false
	}
	return true
}

func (s *Server) closeAction(w http.ResponseWriter, r *http.Request) {
	id := types.ActionID(chi.URLParam(r, "actionID"))

	var req actorRequest
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	if !s.requireManagement(w, r, id, req) {
		return
	}
	s.respondMutation(w, r, id, s.registry.Close(r.Context(), id, req.UserID))
}

func (s *Server) reopenAction(w http.ResponseWriter, r *http.Request) {
	id := types.ActionID(chi.URLParam(r, "actionID"))

	var req actorRequest
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	if !s.requireManagement(w, r, id, req) {
		return
	}
	s.respondMutation(w, r, id, s.registry.Reopen(r.Context(), id))
}

func (s *Server) setResult(w http.ResponseWriter, r *http.Request) {
	id := types.ActionID(chi.URLParam(r, "actionID"))

	var req struct {
		actorRequest
		Result string `json:"result"`
		Force  bool   `json:"force,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	result, err := types.ParseActionResult(req.Result)
	if err != nil {
		http.Error(w, "unknown result", http.StatusBadRequest)
		return
	}

	if !s.requireManagement(w, r, id, req.actorRequest) {
		return
	}

	if req.Force {
		s.respondMutation(w, r, id, s.registry.ForceResult(r.Context(), id, result, req.UserID))
		return
	}
	s.respondMutation(w, r, id, s.registry.SetResult(r.Context(), id, result, req.UserID))
}

func (s *Server) deleteAction(w http.ResponseWriter, r *http.Request) {
	id := types.ActionID(chi.URLParam(r, "actionID"))

	if !s.registry.Delete(r.Context(), id) {
		http.Error(w, "action not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) groupReport(w http.ResponseWriter, r *http.Request) {
	groupID := types.GroupID(chi.URLParam(r, "groupID"))

	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			http.Error(w, "days must be a non-negative integer", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	stats, err := s.registry.PeriodReport(r.Context(), groupID, days)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, stats)
}
