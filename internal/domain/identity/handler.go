package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eternalbranch/clinic/internal/platform/apperr"
	"github.com/eternalbranch/clinic/internal/platform/auth"
)

type Handler struct {
	svc    *Service
	issuer *auth.TokenIssuer
}

func NewHandler(svc *Service, issuer *auth.TokenIssuer) *Handler {
	return &Handler{svc: svc, issuer: issuer}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/login", h.Login)
	api.GET("/auth/me", h.Me)
	api.GET("/consultants", h.ListConsultants)
	api.GET("/consultants/:id", h.GetConsultant)

	admin := api.Group("", auth.RequireRole(string(RoleStationAdmin)))
	admin.GET("/staff", h.ListUsers)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}
	u, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrInactiveUser) {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	token, exp, err := h.issuer.Issue(auth.Session{
		UserID:   u.ID,
		Roles:    []string{string(u.Role)},
		ClinicID: u.ClinicID,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresAt: exp, User: u})
}

// Me returns the roster user behind the current session. The development
// superadmin has no roster entry and is described from the session alone.
func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	uid := auth.UserIDFromContext(ctx)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "no active session")
	}
	u, err := h.svc.UserByID(ctx, uid)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return apperr.HTTP(err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"id":        uid,
			"roles":     auth.RolesFromContext(ctx),
			"clinic_id": auth.ClinicIDFromContext(ctx),
		})
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.svc.Users(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) ListConsultants(c echo.Context) error {
	consultants, err := h.svc.Consultants(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, consultants)
}

func (h *Handler) GetConsultant(c echo.Context) error {
	consultant, ok := h.svc.Consultant(c.Request().Context(), c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "consultant not found")
	}
	return c.JSON(http.StatusOK, consultant)
}
