package controllers

import (
	"net/http"

	pushsvc "github.com/rzbill/pushsub/internal/services/push"
	logpkg "github.com/rzbill/pushsub/pkg/log"
)

// NotificationsController handles ping and broadcast.
type NotificationsController struct {
	svc    *pushsvc.Service
	logger logpkg.Logger
}

// NewNotificationsController creates a new notifications controller.
func NewNotificationsController(svc *pushsvc.Service, logger logpkg.Logger) *NotificationsController {
	return &NotificationsController{svc: svc, logger: logger}
}

// RegisterRoutes registers notification routes with the given mux.
func (c *NotificationsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/ping", c.handlePing)
	mux.HandleFunc("/v1/broadcast", c.handleBroadcast)
}

// handlePing returns the number of requests issued and ids covered.
func (c *NotificationsController) handlePing(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	var req pingReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	res, err := c.svc.Ping(r.Context(), req.Provider, req.IDs, req.Feature)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleBroadcast runs a broadcast and returns its report with 202, since
// the sends complete in the background.
func (c *NotificationsController) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	var req broadcastReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Feature == "" {
		writeError(w, http.StatusBadRequest, "feature is required")
		return
	}
	rep, err := c.svc.BroadcastFiltered(r.Context(), req.Feature, req.Filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter: "+err.Error())
		return
	}
	c.logger.Info("broadcast requested",
		logpkg.Str("run_id", rep.RunID),
		logpkg.Str("feature", req.Feature),
		logpkg.Int("requests", rep.Requests()))
	writeJSON(w, http.StatusAccepted, rep)
}
