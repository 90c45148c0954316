package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/goodbridge/givestack/internal/domain"
	"github.com/goodbridge/givestack/internal/store"
)

// Shared validator instance. Struct tags describe request shape; business
// rules live in the service layer.
var validate = validator.New(validator.WithRequiredStructEnabled())

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,min=2,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role"     validate:"omitempty,oneof=user admin"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

type DonationRequest struct {
	Amount    float64 `json:"amount"     validate:"required,gt=0"`
	Currency  string  `json:"currency"   validate:"required,min=3,max=3"`
	OriginURL string  `json:"origin_url" validate:"required,url"`
}

type DonationResponse struct {
	ID        string     `json:"id"`
	Amount    float64    `json:"amount"`
	Currency  string     `json:"currency"`
	SessionID *string    `json:"session_id,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type InitiateDonationResponse struct {
	Donation    DonationResponse `json:"donation"`
	CheckoutURL string           `json:"checkout_url"`
}

type VerifyDonationResponse struct {
	Donation      DonationResponse `json:"donation"`
	PaymentStatus string           `json:"payment_status,omitempty"`
	Message       string           `json:"message,omitempty"`
}

type ProfileResponse struct {
	User         UserResponse       `json:"user"`
	Donations    []DonationResponse `json:"donations"`
	TotalDonated float64            `json:"total_donated"`
}

type DonationWithDonorResponse struct {
	DonationResponse
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

type DashboardResponse struct {
	TotalUsers      int64                       `json:"total_users"`
	TotalDonations  int64                       `json:"total_donations"`
	TotalAmount     float64                     `json:"total_amount"`
	RecentUsers     []UserResponse              `json:"recent_users"`
	RecentDonations []DonationWithDonorResponse `json:"recent_donations"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type OTPVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code"  validate:"required,len=6,numeric"`
}

type PasswordResetConfirmRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	Code        string `json:"code"         validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type WebhookAckResponse struct {
	Received bool `json:"received"`
}

type HealthChecks struct {
	Database string `json:"database,omitempty"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

func toUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toDonationResponse(d domain.Donation) DonationResponse {
	return DonationResponse{
		ID:        d.ID,
		Amount:    d.Amount,
		Currency:  d.Currency,
		SessionID: d.SessionID,
		Status:    string(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toDonorResponse(d store.DonationWithDonor) DonationWithDonorResponse {
	return DonationWithDonorResponse{
		DonationResponse: toDonationResponse(d.Donation),
		UserName:         d.UserName,
		UserEmail:        d.UserEmail,
	}
}

// decodeJSON parses and validates a JSON request body. The returned error
// message is safe to echo back to the client.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("malformed JSON body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid field %s", strings.ToLower(verrs[0].Field()))
		}
		return errors.New("invalid request body")
	}
	return nil
}
