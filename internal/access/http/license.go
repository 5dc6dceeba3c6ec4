package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/internal/access/service"
	"github.com/aussiebroadwan/tenantgate/pkg/authsdk"
	"github.com/aussiebroadwan/tenantgate/pkg/httpx"
)

// LicenseHandler exposes the license of the caller's company.
type LicenseHandler struct {
	Licenses *service.LicenseService
}

// HandleGet handles GET /v1/license
//
//	@Summary		Company license
//	@Description	Returns the license of the caller's company with its status computed now. Without a license the status is NO_LICENSE.
//	@Tags			License
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.LicenseResponse	"License and status"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Session not verified"
//	@Router			/v1/license [get].
func (h *LicenseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	view, err := h.Licenses.Describe(r.Context(), p.CompanyID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := licenseResponse(view.Status, view.License)
	if view.License != nil {
		days := view.DaysUntilExpiry
		resp.DaysUntilExpiry = &days
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleSeats handles GET /v1/license/seats
//
//	@Summary		Seat usage
//	@Description	Compares the users of the company with its licensed seats. The limit is advisory.
//	@Tags			License
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.SeatUsageResponse	"Seat usage"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Invalid or missing access token"
//	@Router			/v1/license/seats [get].
func (h *LicenseHandler) HandleSeats(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	usage, err := h.Licenses.SeatUsage(r.Context(), p.CompanyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SeatUsageResponse{
		Used:     usage.Used,
		Allowed:  usage.Allowed,
		Exceeded: usage.Exceeded,
	})
}

// HandleValidate handles POST /v1/license/validate
//
//	@Summary		Validate a license key
//	@Description	Asks the license authority about a key without installing it.
//	@Tags			License
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LicenseKeyRequest	true	"License key"
//	@Success		200		{object}	authsdk.LicenseResponse		"Status of the key"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Invalid request"
//	@Failure		403		{object}	authsdk.ErrorResponse		"Administrator role required"
//	@Failure		503		{object}	authsdk.ErrorResponse		"License authority unavailable"
//	@Router			/v1/license/validate [post].
func (h *LicenseHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LicenseKeyRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	v, err := h.Licenses.ValidateKey(r.Context(), req.Key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, licenseResponse(v.Status, v.License))
}

// HandleActivate handles POST /v1/license/activate
//
//	@Summary		Activate a license key
//	@Description	Validates the key with the license authority and installs it for the caller's company.
//	@Description	Unknown, expired and inactive keys are refused. A key that is not valid yet is installed as PENDING.
//	@Tags			License
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LicenseKeyRequest	true	"License key"
//	@Success		200		{object}	authsdk.LicenseResponse		"Installed license"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Key refused"
//	@Failure		403		{object}	authsdk.ErrorResponse		"Administrator role required"
//	@Failure		503		{object}	authsdk.ErrorResponse		"License authority unavailable"
//	@Router			/v1/license/activate [post].
func (h *LicenseHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.LicenseKeyRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	l, err := h.Licenses.Activate(r.Context(), p, req.Key)
	if err != nil {
		writeError(w, r, err)
		return
	}

	at := time.Now()
	if h.Licenses.Now != nil {
		at = h.Licenses.Now()
	}
	resp := licenseResponse(domain.StatusOf(&l, at), &l)
	days := domain.DaysUntilExpiry(l, at)
	resp.DaysUntilExpiry = &days
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func licenseResponse(status domain.LicenseStatus, l *domain.License) authsdk.LicenseResponse {
	resp := authsdk.LicenseResponse{Status: string(status), Features: []string{}}
	if l == nil {
		return resp
	}
	validFrom, validUntil := l.ValidFrom, l.ValidUntil
	resp.Key = l.Key
	resp.Type = l.Type
	resp.MaxUsers = l.MaxUsers
	resp.ValidFrom = &validFrom
	resp.ValidUntil = &validUntil
	resp.IsActive = l.IsActive
	if l.Features != nil {
		resp.Features = l.Features
	}
	return resp
}
