package prescription

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eternalbranch/clinic/internal/platform/apperr"
	"github.com/eternalbranch/clinic/internal/platform/auth"
	"github.com/eternalbranch/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("receptionist", "consultant", "pharmacist"))
	readGroup.GET("/prescriptions", h.ListPrescriptions)
	readGroup.GET("/prescriptions/stats", h.GetStats)
	readGroup.GET("/prescriptions/:id", h.GetPrescription)

	// Consultants prescribe
	writeGroup := api.Group("", auth.RequireRole("consultant"))
	writeGroup.POST("/prescriptions", h.CreatePrescription)
	writeGroup.PUT("/prescriptions/:id/items", h.ReplaceItems)

	// Pharmacists fulfil
	pharmacyGroup := api.Group("", auth.RequireRole("pharmacist"))
	pharmacyGroup.POST("/prescriptions/:id/fulfill", h.Fulfill)
	pharmacyGroup.POST("/prescriptions/:id/cancel", h.Cancel)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	pg := pagination.FromContext(c)
	items := h.svc.List(c.Request().Context(), Filters{
		SearchTerm:   c.QueryParam("q"),
		Status:       c.QueryParam("status"),
		ConsultantID: c.QueryParam("consultant_id"),
		PatientID:    c.QueryParam("patient_id"),
	})
	return c.JSON(http.StatusOK, pagination.Apply(items, pg))
}

func (h *Handler) GetStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Stats(c.Request().Context()))
}

func (h *Handler) GetPrescription(c echo.Context) error {
	p, ok := h.svc.Get(c.Request().Context(), c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ReplaceItems(c echo.Context) error {
	var req struct {
		Supplements []Supplement `json:"supplements"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.ReplaceItems(c.Request().Context(), c.Param("id"), req.Supplements)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Fulfill(c echo.Context) error {
	ok := h.svc.Fulfill(c.Request().Context(), c.Param("id"))
	return c.JSON(http.StatusOK, map[string]bool{"success": ok})
}

func (h *Handler) Cancel(c echo.Context) error {
	ok := h.svc.Cancel(c.Request().Context(), c.Param("id"))
	return c.JSON(http.StatusOK, map[string]bool{"success": ok})
}
