package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/goodbridge/givestack/internal/service"
	"github.com/goodbridge/givestack/pkg/httpx"
	"github.com/goodbridge/givestack/pkg/slogx"
)

// Webhook bodies are small JSON events; anything bigger is suspect.
const maxWebhookBody = 64 << 10

type WebhookHandler struct {
	DonationService *service.DonationService
}

// ServeHTTP godoc
//
//	@Summary		Payment provider webhook
//	@Description	Receives checkout session events from the payment provider.
//	@Description	The request must carry a valid provider signature. Re-delivered
//	@Description	events are acknowledged without changing settled donations.
//	@Tags			Webhooks
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header		string	true	"Provider signature over the raw body"
//	@Success		200					{object}	WebhookAckResponse
//	@Failure		400					{object}	httpx.ErrorResponse	"Bad signature or payload"
//	@Router			/v1/webhooks/payment [post].
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Could not read body")
		return
	}

	signature := r.Header.Get("Stripe-Signature")

	if err := h.DonationService.HandleProviderEvent(ctx, payload, signature); err != nil {
		if errors.Is(err, service.ErrInvalidWebhook) {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_signature", "Webhook signature verification failed")
			return
		}
		log.Error("webhook processing failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, WebhookAckResponse{Received: true})
}
