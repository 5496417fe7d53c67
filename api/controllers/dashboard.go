package controllers

import (
	"context"
	"net/http"

	"github.com/freshmart/storefront-backend/internal/reports"
	"github.com/freshmart/storefront-backend/pkg/logger"
)

type dashboardReader interface {
	Dashboard(ctx context.Context) (*reports.DashboardDTO, error)
}

func AdminDashboard(svc dashboardReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		dashboard, err := svc.Dashboard(r.Context())
		if err != nil {
			sess.State.AddError(flashError(r.Context(), logg, err, "admin.dashboard.failed"))
			dashboard = &reports.DashboardDTO{}
		}
		renderPage(w, r, logg, dashboard)
	}
}
