package http

import (
	"errors"
	"net/http"

	"github.com/goodbridge/givestack/internal/service"
	"github.com/goodbridge/givestack/pkg/httpx"
	"github.com/goodbridge/givestack/pkg/jwtx"
	"github.com/goodbridge/givestack/pkg/slogx"
)

type LoginHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Log in
//	@Description	Exchanges email and password for a bearer access token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	AuthResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid request body"
//	@Failure		401		{object}	httpx.ErrorResponse	"Wrong email or password"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	token, user, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Wrong email or password")
			return
		}
		log.Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	ttl := h.AuthService.AccessTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}

	httpx.WriteJSON(w, http.StatusOK, AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
		User:        toUserResponse(user),
	})
}
