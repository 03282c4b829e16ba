package controllers

import (
	"net/http"

	pushsvc "github.com/rzbill/pushsub/internal/services/push"
	logpkg "github.com/rzbill/pushsub/pkg/log"
)

// SubscriptionsController handles subscribe, unsubscribe and listing.
type SubscriptionsController struct {
	svc    *pushsvc.Service
	logger logpkg.Logger
}

// NewSubscriptionsController creates a new subscriptions controller.
func NewSubscriptionsController(svc *pushsvc.Service, logger logpkg.Logger) *SubscriptionsController {
	return &SubscriptionsController{svc: svc, logger: logger}
}

// RegisterRoutes registers subscription routes with the given mux.
func (c *SubscriptionsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/subscriptions", c.handleSubscriptions)
	mux.HandleFunc("/v1/subscribers", c.handleSubscribers)
}

// handleSubscriptions creates (POST) or removes (DELETE) a subscription.
func (c *SubscriptionsController) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost, http.MethodDelete) {
		return
	}
	var req subscriptionReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var err error
	if r.Method == http.MethodPost {
		err = c.svc.Subscribe(r.Context(), req.Provider, req.Feature, req.ID)
	} else {
		err = c.svc.Unsubscribe(r.Context(), req.Provider, req.Feature, req.ID)
	}
	if err != nil {
		status := statusFor(err)
		if status >= 500 {
			c.logger.Error("subscription update failed", logpkg.Str("method", r.Method), logpkg.Err(err))
		}
		writeError(w, status, err.Error())
		return
	}
	writeNoContent(w)
}

// handleSubscribers lists ids for ?feature=&provider=. An empty provider
// reads the legacy layout.
func (c *SubscriptionsController) handleSubscribers(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	feature := q.Get("feature")
	if feature == "" {
		writeError(w, http.StatusBadRequest, "feature is required")
		return
	}
	ids, err := c.svc.GetSubscribers(r.Context(), feature, q.Get("provider"))
	if err != nil {
		c.logger.Error("list subscribers failed", logpkg.Str("feature", feature), logpkg.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to list subscribers")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, subscribersResp{IDs: ids})
}
