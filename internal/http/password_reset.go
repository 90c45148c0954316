package http

import (
	"errors"
	"net/http"

	"github.com/goodbridge/givestack/internal/service"
	"github.com/goodbridge/givestack/pkg/httpx"
	"github.com/goodbridge/givestack/pkg/slogx"
)

type PasswordResetHandler struct {
	PasswordResetService *service.PasswordResetService
}

// HandleRequest godoc
//
//	@Summary		Request a password reset code
//	@Description	Emails a one-time code to the address if an account exists.
//	@Description	The response is identical either way, so it reveals nothing
//	@Description	about which emails are registered.
//	@Tags			PasswordReset
//	@Accept			json
//	@Produce		json
//	@Param			request	body		PasswordResetRequest	true	"Account email"
//	@Success		200		{object}	MessageResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid request body"
//	@Router			/v1/password-reset/request [post].
func (h *PasswordResetHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req PasswordResetRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.PasswordResetService.RequestReset(ctx, req.Email); err != nil {
		log.Error("password reset request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{
		Message: "If the email is registered, a reset code has been sent",
	})
}

// HandleVerify godoc
//
//	@Summary		Check a password reset code
//	@Description	Confirms a code is valid for the email without consuming it.
//	@Tags			PasswordReset
//	@Accept			json
//	@Produce		json
//	@Param			request	body		OTPVerifyRequest	true	"Email and code"
//	@Success		200		{object}	MessageResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid or expired code"
//	@Router			/v1/password-reset/verify [post].
func (h *PasswordResetHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req OTPVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.PasswordResetService.VerifyOTP(ctx, req.Email, req.Code); err != nil {
		if errors.Is(err, service.ErrInvalidOTP) {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_code", "Code is invalid or has expired")
			return
		}
		log.Error("otp verification failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Code is valid"})
}

// HandleConfirm godoc
//
//	@Summary		Reset the password
//	@Description	Redeems a one-time code and sets a new password. The code is
//	@Description	single use; a second confirm with the same code fails.
//	@Tags			PasswordReset
//	@Accept			json
//	@Produce		json
//	@Param			request	body		PasswordResetConfirmRequest	true	"Email, code, and new password"
//	@Success		200		{object}	MessageResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid or expired code"
//	@Router			/v1/password-reset/confirm [post].
func (h *PasswordResetHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req PasswordResetConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.PasswordResetService.ResetPassword(ctx, req.Email, req.Code, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidOTP) {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_code", "Code is invalid or has expired")
			return
		}
		log.Error("password reset failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Password has been reset"})
}
