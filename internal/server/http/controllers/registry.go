package controllers

import (
	"net/http"

	"github.com/rzbill/pushsub/internal/runtime"
	pushsvc "github.com/rzbill/pushsub/internal/services/push"
	logpkg "github.com/rzbill/pushsub/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general       *GeneralController
	subscriptions *SubscriptionsController
	notifications *NotificationsController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(rt *runtime.Runtime, svc *pushsvc.Service, logger logpkg.Logger) *ControllerRegistry {
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	return &ControllerRegistry{
		general:       NewGeneralController(rt),
		subscriptions: NewSubscriptionsController(svc, logger),
		notifications: NewNotificationsController(svc, logger),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.subscriptions.RegisterRoutes(mux)
	r.notifications.RegisterRoutes(mux)
}
