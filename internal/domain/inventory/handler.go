package inventory

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eternalbranch/clinic/internal/platform/apperr"
	"github.com/eternalbranch/clinic/internal/platform/auth"
	"github.com/eternalbranch/clinic/pkg/pagination"
)

type Handler struct {
	ledger *Ledger
}

func NewHandler(ledger *Ledger) *Handler {
	return &Handler{ledger: ledger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("receptionist", "consultant", "pharmacist"))
	readGroup.GET("/inventory", h.ListItems)
	readGroup.GET("/inventory/categories", h.ListCategories)
	readGroup.GET("/inventory/:id", h.GetItem)
	readGroup.GET("/inventory/:id/movements", h.ListMovements)

	writeGroup := api.Group("", auth.RequireRole("pharmacist"))
	writeGroup.POST("/inventory", h.AddItem)
	writeGroup.POST("/inventory/categories", h.AddCategory)
	writeGroup.POST("/inventory/:id/restock", h.Restock)
	writeGroup.POST("/inventory/:id/dispense", h.Dispense)
	writeGroup.POST("/inventory/:id/discontinue", h.Discontinue)
	writeGroup.POST("/inventory/:id/reinstate", h.Reinstate)
	writeGroup.DELETE("/inventory/:id", h.RemoveItem)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// itemResponse carries an item with any warnings raised while changing it.
type itemResponse struct {
	*Item
	StockLevel int              `json:"stock_level"`
	Warnings   []apperr.Warning `json:"warnings,omitempty"`
}

func respond(item *Item, warnings ...apperr.Warning) itemResponse {
	return itemResponse{Item: item, StockLevel: item.StockLevel(), Warnings: warnings}
}

func (h *Handler) ListItems(c echo.Context) error {
	pg := pagination.FromContext(c)
	items := h.ledger.Filter(c.Request().Context(), Filter{
		Category:   c.QueryParam("category"),
		Status:     c.QueryParam("status"),
		SearchTerm: c.QueryParam("q"),
	})
	return c.JSON(http.StatusOK, pagination.Apply(items, pg))
}

func (h *Handler) GetItem(c echo.Context) error {
	item, err := h.ledger.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, respond(item))
}

func (h *Handler) AddItem(c echo.Context) error {
	var in AddInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.ledger.Add(c.Request().Context(), in)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, respond(item))
}

func (h *Handler) Restock(c echo.Context) error {
	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.ledger.Restock(c.Request().Context(), c.Param("id"), req.Quantity)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, respond(item))
}

func (h *Handler) Dispense(c echo.Context) error {
	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, warning, err := h.ledger.Dispense(c.Request().Context(), c.Param("id"), req.Quantity)
	if err != nil {
		return apperr.HTTP(err)
	}
	if warning != nil {
		return c.JSON(http.StatusOK, respond(item, *warning))
	}
	return c.JSON(http.StatusOK, respond(item))
}

func (h *Handler) Discontinue(c echo.Context) error {
	item, err := h.ledger.Discontinue(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, respond(item))
}

func (h *Handler) Reinstate(c echo.Context) error {
	item, err := h.ledger.Reinstate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, respond(item))
}

func (h *Handler) RemoveItem(c echo.Context) error {
	if err := h.ledger.Remove(c.Request().Context(), c.Param("id")); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListMovements(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := h.ledger.Get(ctx, c.Param("id")); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, h.ledger.Movements(ctx, c.Param("id")))
}

func (h *Handler) ListCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.ledger.Categories(c.Request().Context()))
}

func (h *Handler) AddCategory(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.ledger.AddCategory(c.Request().Context(), req.Name); err != nil {
		if errors.Is(err, ErrDuplicateCategory) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, h.ledger.Categories(c.Request().Context()))
}
