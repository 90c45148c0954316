package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goodbridge/givestack/internal/service"
	"github.com/goodbridge/givestack/pkg/httpx"
	"github.com/goodbridge/givestack/pkg/slogx"
)

type DonationInitiateHandler struct {
	DonationService *service.DonationService
}

// ServeHTTP godoc
//
//	@Summary		Start a donation
//	@Description	Records a pending donation and returns the hosted checkout URL
//	@Description	to redirect the donor to. The donation stays pending until the
//	@Description	payment is confirmed via verification or webhook.
//	@Tags			Donations
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		DonationRequest	true	"Amount, currency and the site origin to return the donor to"
//	@Success		201		{object}	InitiateDonationResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid amount, currency or origin"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		502		{object}	httpx.ErrorResponse	"Payment provider unavailable"
//	@Router			/v1/donations [post].
func (h *DonationInitiateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	var req DonationRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	donation, checkoutURL, err := h.DonationService.Initiate(ctx, userID, req.Amount, strings.ToLower(req.Currency), req.OriginURL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Amount must be greater than zero")
		case errors.Is(err, service.ErrInvalidCurrency):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Unsupported currency")
		case errors.Is(err, service.ErrInvalidOrigin):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Origin URL must be absolute")
		case errors.Is(err, service.ErrPaymentProvider):
			httpx.WriteError(w, http.StatusBadGateway, "payment_provider_error", "Could not reach the payment provider, please try again")
		default:
			log.Error("donation initiation failed", "user_id", userID, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, InitiateDonationResponse{
		Donation:    toDonationResponse(donation),
		CheckoutURL: checkoutURL,
	})
}
