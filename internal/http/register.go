package http

import (
	"errors"
	"net/http"

	"github.com/goodbridge/givestack/internal/domain"
	"github.com/goodbridge/givestack/internal/service"
	"github.com/goodbridge/givestack/pkg/httpx"
	"github.com/goodbridge/givestack/pkg/slogx"
)

type RegisterHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Register a new account
//	@Description	Creates a user account. Role defaults to "user" when omitted.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterRequest	true	"Account details"
//	@Success		201		{object}	UserResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid request body or email already registered"
//	@Router			/v1/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	user, err := h.AuthService.Register(ctx, req.Name, req.Email, req.Password, domain.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			httpx.WriteError(w, http.StatusBadRequest, "email_taken", "An account with this email already exists")
		case errors.Is(err, service.ErrInvalidRole):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Unknown role")
		default:
			log.Error("registration failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}
