package http

import (
	"net/http"

	"github.com/goodbridge/givestack/internal/service"
	"github.com/goodbridge/givestack/pkg/httpx"
	"github.com/goodbridge/givestack/pkg/slogx"
)

type DashboardHandler struct {
	AdminService *service.AdminService
}

// ServeHTTP godoc
//
//	@Summary		Admin dashboard aggregates
//	@Description	Returns user and donation counts, the total collected amount,
//	@Description	and the most recent users and donations. Requires the admin role.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	DashboardResponse
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		403	{object}	httpx.ErrorResponse	"Caller is not an admin"
//	@Router			/v1/admin/dashboard [get].
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	dashboard, err := h.AdminService.Dashboard(ctx)
	if err != nil {
		log.Error("dashboard aggregation failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	resp := DashboardResponse{
		TotalUsers:      dashboard.TotalUsers,
		TotalDonations:  dashboard.TotalDonations,
		TotalAmount:     dashboard.TotalAmount,
		RecentUsers:     make([]UserResponse, 0, len(dashboard.RecentUsers)),
		RecentDonations: make([]DonationWithDonorResponse, 0, len(dashboard.RecentDonations)),
	}
	for _, u := range dashboard.RecentUsers {
		resp.RecentUsers = append(resp.RecentUsers, toUserResponse(u))
	}
	for _, d := range dashboard.RecentDonations {
		resp.RecentDonations = append(resp.RecentDonations, toDonorResponse(d))
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
