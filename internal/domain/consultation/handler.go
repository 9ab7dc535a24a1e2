package consultation

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
	readGroup.GET("/consultations", h.ListConsultations)
	readGroup.GET("/consultations/:id", h.GetConsultation)

	writeGroup := api.Group("", auth.RequireRole("consultant"))
	writeGroup.POST("/consultations/drafts", h.StartDraft)
	writeGroup.GET("/consultations/drafts/:id", h.GetDraft)
	writeGroup.PUT("/consultations/drafts/:id", h.SaveStep)
	writeGroup.POST("/consultations/drafts/:id/advance", h.Advance)
	writeGroup.POST("/consultations/drafts/:id/back", h.Back)
	writeGroup.POST("/consultations/drafts/:id/submit", h.Submit)
	writeGroup.DELETE("/consultations/drafts/:id", h.DiscardDraft)
	writeGroup.PUT("/consultations/:id/status", h.UpdateStatus)
	writeGroup.POST("/consultations/:id/reschedule", h.Reschedule)
}

func (h *Handler) StartDraft(c echo.Context) error {
	var req struct {
		PatientID    string `json:"patient_id"`
		ConsultantID string `json:"consultant_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == "" || req.ConsultantID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id and consultant_id are required")
	}
	d, err := h.svc.StartDraft(c.Request().Context(), req.PatientID, req.ConsultantID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDraft(c echo.Context) error {
	d, err := h.svc.GetDraft(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) SaveStep(c echo.Context) error {
	var data StepData
	if err := c.Bind(&data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.SaveStep(c.Request().Context(), c.Param("id"), data)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Advance(c echo.Context) error {
	d, err := h.svc.Advance(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Back(c echo.Context) error {
	d, err := h.svc.Back(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Submit(c echo.Context) error {
	var req struct {
		Status Status `json:"status"`
	}
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	consultation, err := h.svc.Submit(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, consultation)
}

func (h *Handler) DiscardDraft(c echo.Context) error {
	if err := h.svc.DiscardDraft(c.Request().Context(), c.Param("id")); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListConsultations(c echo.Context) error {
	pg := pagination.FromContext(c)
	items := h.svc.List(c.Request().Context(), c.QueryParam("q"))
	return c.JSON(http.StatusOK, pagination.Apply(items, pg))
}

func (h *Handler) GetConsultation(c echo.Context) error {
	consultation, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, consultation)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var req struct {
		Status Status `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	consultation, err := h.svc.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, consultation)
}

func (h *Handler) Reschedule(c echo.Context) error {
	consultation, err := h.svc.Reschedule(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, consultation)
}
