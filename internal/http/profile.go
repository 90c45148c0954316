package http

import (
	"errors"
	"net/http"

	"github.com/goodbridge/givestack/internal/service"
	"github.com/goodbridge/givestack/internal/store"
	"github.com/goodbridge/givestack/pkg/httpx"
	"github.com/goodbridge/givestack/pkg/slogx"
)

type ProfileHandler struct {
	ProfileService *service.ProfileService
}

// ServeHTTP godoc
//
//	@Summary		Get the authenticated user's profile
//	@Description	Returns the account, its donation history newest first, and the
//	@Description	total donated over successful donations only.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	ProfileResponse
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Router			/v1/users/me [get].
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	user, err := h.ProfileService.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Token outlived the account.
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
			return
		}
		log.Error("failed to load user", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	donations, err := h.ProfileService.ListDonations(ctx, userID)
	if err != nil {
		log.Error("failed to load donations", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	total, err := h.ProfileService.TotalDonated(ctx, userID)
	if err != nil {
		log.Error("failed to sum donations", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	resp := ProfileResponse{
		User:         toUserResponse(user),
		Donations:    make([]DonationResponse, 0, len(donations)),
		TotalDonated: total,
	}
	for _, d := range donations {
		resp.Donations = append(resp.Donations, toDonationResponse(d))
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
