// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-ranking-progression/pkg/ranking"
	"github.com/AccelByte/extend-ranking-progression/pkg/stats"
)

type apiHandler struct {
	service *ranking.Service
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

type resetRequest struct {
	// Category to reset. Empty resets every category and the global state.
	Category string `json:"category"`
}

type resetResponse struct {
	Reset string `json:"reset"`
}

type badgesResponse struct {
	Player string            `json:"player"`
	Badges map[string]string `json:"badges"`
}

func (h *apiHandler) recordCompletion(w http.ResponseWriter, r *http.Request) {
	var req ranking.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, errors.New("malformed request body"))
		return
	}

	result, err := h.service.RecordCompletion(r.Context(), req)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *apiHandler) categoryLeaderboard(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	caller := r.URL.Query().Get("player")

	board, err := h.service.CategoryLeaderboard(r.Context(), category, caller)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *apiHandler) globalLeaderboard(w http.ResponseWriter, r *http.Request) {
	caller := r.URL.Query().Get("player")

	board, err := h.service.GlobalLeaderboard(r.Context(), caller)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *apiHandler) playerBadges(w http.ResponseWriter, r *http.Request) {
	player := r.PathValue("player")

	badges, err := h.service.Badges(r.Context(), player)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	resp := badgesResponse{Player: player, Badges: make(map[string]string, len(badges))}
	for category, tier := range badges {
		resp.Badges[category] = string(tier)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *apiHandler) resetCategory(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, errors.New("malformed request body"))
			return
		}
	}

	if err := h.service.ResetCategory(r.Context(), req.Category); err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	scope := req.Category
	if scope == "" {
		scope = "all"
	}
	writeJSON(w, http.StatusOK, resetResponse{Reset: scope})
}

func (h *apiHandler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, errors.New("store unreachable"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps engine errors onto HTTP statuses: rejected input is the
// caller's fault, an exhausted CAS budget asks the caller to retry, and
// everything else is a backend fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, stats.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, stats.ErrConflictExhausted):
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	requestID, _ := r.Context().Value(requestIDKey{}).(string)
	if status >= http.StatusInternalServerError {
		logrus.WithField("requestId", requestID).Errorf("%s %s failed: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: requestID})
}

type requestIDKey struct{}

// requestLogger assigns each request a UUID, stores it on the context and
// logs the request line at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", requestID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		logrus.WithField("requestId", requestID).Debugf("%s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
