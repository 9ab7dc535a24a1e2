package inventory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	return NewHandler(newTestLedger()), echo.New()
}

func jsonRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestHandler_AddItem(t *testing.T) {
	h, e := newTestHandler()

	body := `{"name":"Magnesium Complex","category":"Minerals","current_stock":200,"min_stock":40,"max_stock":400,"unit_price":"18.75"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, body), rec)

	if err := h.AddItem(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var got map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got["id"] != "1" || got["status"] != "in-stock" {
		t.Errorf("unexpected item %v", got)
	}
	if got["stock_level"] != float64(50) {
		t.Errorf("expected stock_level 50, got %v", got["stock_level"])
	}
}

func TestHandler_Dispense_Warning(t *testing.T) {
	h, e := newTestHandler()
	item := mustAdd(t, h.ledger, vitamins(5, 10, 100))

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"quantity":8}`), rec)
	c.SetParamNames("id")
	c.SetParamValues(item.ID)

	if err := h.Dispense(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp itemResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Item == nil || resp.CurrentStock != 0 {
		t.Fatalf("expected stock floored at 0, got %+v", resp.Item)
	}
	if len(resp.Warnings) != 1 || resp.Warnings[0].Code != "insufficient_stock" {
		t.Errorf("expected insufficient_stock warning, got %+v", resp.Warnings)
	}
}

func TestHandler_Restock_InvalidQuantity(t *testing.T) {
	h, e := newTestHandler()
	item := mustAdd(t, h.ledger, vitamins(5, 10, 100))

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"quantity":0}`), rec)
	c.SetParamNames("id")
	c.SetParamValues(item.ID)

	err := h.Restock(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", httpErr.Code)
	}
}

func TestHandler_ListItems(t *testing.T) {
	h, e := newTestHandler()
	mustAdd(t, h.ledger, vitamins(150, 50, 500))
	mustAdd(t, h.ledger, vitamins(0, 20, 100))

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/inventory?status=out-of-stock&category=all", nil), rec)
	if err := h.ListItems(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data  []Item `json:"data"`
		Total int    `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Data[0].ID != "2" {
		t.Errorf("expected only item 2, got %+v", resp)
	}
}

func TestHandler_RemoveItem_NotFound(t *testing.T) {
	h, e := newTestHandler()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("42")

	err := h.RemoveItem(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", httpErr.Code)
	}
}

func TestHandler_AddCategory_Duplicate(t *testing.T) {
	h, e := newTestHandler()

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"name":"vitamins"}`), rec)

	err := h.AddCategory(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", httpErr.Code)
	}
}

func TestHandler_ListMovements(t *testing.T) {
	h, e := newTestHandler()
	item := mustAdd(t, h.ledger, vitamins(5, 10, 100))
	h.ledger.Restock(context.Background(), item.ID, 5)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(item.ID)
	if err := h.ListMovements(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var moves []Movement
	json.Unmarshal(rec.Body.Bytes(), &moves)
	if len(moves) != 2 {
		t.Errorf("expected 2 movements, got %d", len(moves))
	}
}
