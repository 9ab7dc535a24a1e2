package patient

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
	// Read endpoints – all clinic staff
	readGroup := api.Group("", auth.RequireRole("receptionist", "consultant", "pharmacist"))
	readGroup.GET("/patients", h.ListPatients)
	readGroup.GET("/patients/:id", h.GetPatient)
	readGroup.GET("/referrals/:code", h.ResolveReferral)

	// Write endpoints – reception desk
	writeGroup := api.Group("", auth.RequireRole("receptionist"))
	writeGroup.POST("/patients", h.CreatePatient)
	writeGroup.PATCH("/patients/:id", h.UpdatePatient)
	writeGroup.PUT("/patients/:id/active", h.SetActive)
	writeGroup.POST("/patients/:id/assign", h.AssignConsultant)
	writeGroup.POST("/patients/:id/payment/toggle", h.TogglePayment)

	// Visits – reception books them, consultants run them
	visitGroup := api.Group("", auth.RequireRole("receptionist", "consultant"))
	visitGroup.POST("/patients/:id/visits", h.ScheduleVisit)
	visitGroup.POST("/patients/:id/visits/:visitId/status", h.AdvanceVisit)
	visitGroup.POST("/patients/:id/visits/:visitId/reschedule", h.RescheduleVisit)
}

// patientView adds derived fields to the stored record.
type patientView struct {
	*Patient
	FullName string   `json:"full_name"`
	BMI      *float64 `json:"bmi,omitempty"`
}

func newView(p *Patient) patientView {
	v := patientView{Patient: p, FullName: p.FullName()}
	if bmi, ok := p.BMI(); ok {
		v.BMI = &bmi
	}
	return v
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, newView(p))
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, newView(p))
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients := h.svc.Search(c.Request().Context(), c.QueryParam("q"))
	return c.JSON(http.StatusOK, pagination.Apply(patients, pg))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, newView(p))
}

func (h *Handler) SetActive(c echo.Context) error {
	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Active == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "active is required")
	}
	p, err := h.svc.SetActive(c.Request().Context(), c.Param("id"), *req.Active)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, newView(p))
}

func (h *Handler) AssignConsultant(c echo.Context) error {
	var req struct {
		ConsultantID string `json:"consultant_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ConsultantID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "consultant_id is required")
	}
	p, err := h.svc.AssignConsultant(c.Request().Context(), c.Param("id"), req.ConsultantID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, newView(p))
}

func (h *Handler) TogglePayment(c echo.Context) error {
	p, err := h.svc.TogglePayment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, newView(p))
}

func (h *Handler) ResolveReferral(c echo.Context) error {
	p, ok := h.svc.ResolveReferral(c.Request().Context(), c.Param("code"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "referral code not found")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"referrer_id":   p.ID,
		"referrer_name": p.FullName(),
		"referral_code": p.OwnReferralCode,
	})
}

func (h *Handler) ScheduleVisit(c echo.Context) error {
	var in VisitInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.ScheduleVisit(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) AdvanceVisit(c echo.Context) error {
	var req struct {
		Status VisitStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.AdvanceVisit(c.Request().Context(), c.Param("id"), c.Param("visitId"), req.Status)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) RescheduleVisit(c echo.Context) error {
	var in VisitInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.RescheduleVisit(c.Request().Context(), c.Param("id"), c.Param("visitId"), in)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, v)
}
