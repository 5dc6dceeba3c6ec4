package http

import (
	"net/http"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/internal/access/service"
	"github.com/aussiebroadwan/tenantgate/pkg/authsdk"
	"github.com/aussiebroadwan/tenantgate/pkg/httpx"
)

// UsersHandler handles user management in the caller's company.
type UsersHandler struct {
	Users *service.UserService
}

// HandleCreate handles POST /v1/users
//
//	@Summary		Create a user
//	@Description	Adds a user to the caller's company. Needs the user_management feature. Going over the seat count only logs a warning.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CreateUserRequest	true	"New user"
//	@Success		201		{object}	authsdk.UserResponse		"Created user"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse	"Invalid request"
//	@Failure		403		{object}	authsdk.ErrorResponse		"Administrator role or license required"
//	@Failure		409		{object}	authsdk.ErrorResponse		"Email already registered"
//	@Router			/v1/users [post].
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.CreateUserRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	role := domain.Role(req.Role)
	if role == "" {
		role = domain.RoleMember
	}

	u, err := h.Users.CreateUser(r.Context(), p, service.NewUser{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		Role:        role,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, userResponse(u))
}
