package http

import (
	"errors"
	"net/http"

	"github.com/goodbridge/givestack/internal/service"
	"github.com/goodbridge/givestack/pkg/httpx"
	"github.com/goodbridge/givestack/pkg/slogx"
)

type DonationVerifyHandler struct {
	DonationService *service.DonationService
}

// ServeHTTP godoc
//
//	@Summary		Verify a donation's payment status
//	@Description	Polls the payment provider for the checkout session and updates
//	@Description	the donation when its status changed. If the provider cannot be
//	@Description	reached the last known status is returned with payment_status
//	@Description	"unknown" and a warning message.
//	@Tags			Donations
//	@Security		BearerAuth
//	@Produce		json
//	@Param			session_id	path		string	true	"Checkout session id"
//	@Success		200			{object}	VerifyDonationResponse
//	@Failure		401			{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		404			{object}	httpx.ErrorResponse	"Unknown session id"
//	@Router			/v1/donations/verify/{session_id} [get].
func (h *DonationVerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sessionID := r.PathValue("session_id")
	if sessionID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "session_id is required")
		return
	}

	result, err := h.DonationService.Verify(ctx, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrDonationNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "No donation for this session")
			return
		}
		log.Error("donation verification failed", "session_id", sessionID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, VerifyDonationResponse{
		Donation:      toDonationResponse(result.Donation),
		PaymentStatus: result.PaymentStatus,
		Message:       result.Message,
	})
}
