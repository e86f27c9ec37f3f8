package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-customer-api/internal/model"
	"github.com/iliyamo/secure-customer-api/internal/service"
)

// CustomerHandler serves /api/customers.
type CustomerHandler struct {
	customers *service.CustomerService
}

func NewCustomerHandler(s *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: s}
}

// ----- DTOs -----

type customerReq struct {
	CustomerCode string `json:"customerCode" validate:"required,max=20"`
	FullName     string `json:"fullName" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email,max=100"`
	Phone        string `json:"phone" validate:"max=20"`
	Address      string `json:"address" validate:"max=255"`
	Status       string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE SUSPENDED active inactive suspended"`
}

func (r customerReq) input() service.CustomerInput {
	return service.CustomerInput{
		CustomerCode: r.CustomerCode,
		FullName:     r.FullName,
		Email:        r.Email,
		Phone:        r.Phone,
		Address:      r.Address,
		Status:       r.Status,
	}
}

type customerPatchReq struct {
	FullName *string `json:"fullName" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
	Address  *string `json:"address" validate:"omitempty,max=255"`
	Status   *string `json:"status"`
}

type customerResp struct {
	ID           uint64               `json:"id"`
	CustomerCode string               `json:"customerCode"`
	FullName     string               `json:"fullName"`
	Email        string               `json:"email"`
	Phone        string               `json:"phone"`
	Address      string               `json:"address"`
	Status       model.CustomerStatus `json:"status"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

type customerPageResp struct {
	Customers   []customerResp `json:"customers"`
	CurrentPage int            `json:"currentPage"`
	TotalItems  int64          `json:"totalItems"`
	TotalPages  int            `json:"totalPages"`
}

func toCustomerResp(m *model.Customer) customerResp {
	return customerResp{
		ID:           m.ID,
		CustomerCode: m.CustomerCode,
		FullName:     m.FullName,
		Email:        m.Email,
		Phone:        m.Phone,
		Address:      m.Address,
		Status:       m.Status,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toCustomerList(items []*model.Customer) []customerResp {
	out := make([]customerResp, 0, len(items))
	for _, m := range items {
		out = append(out, toCustomerResp(m))
	}
	return out
}

// List: GET /api/customers?page=0&size=10&sortBy=id&sortDir=asc
func (h *CustomerHandler) List(c echo.Context) error {
	page, err := queryInt(c, "page", 0)
	if err != nil {
		return err
	}
	size, err := queryInt(c, "size", 0)
	if err != nil {
		return err
	}
	res, err := h.customers.List(c.Request().Context(), service.ListParams{
		Page:    page,
		Size:    size,
		SortBy:  c.QueryParam("sortBy"),
		SortDir: c.QueryParam("sortDir"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customerPageResp{
		Customers:   toCustomerList(res.Items),
		CurrentPage: res.Page,
		TotalItems:  res.TotalItems,
		TotalPages:  res.TotalPages(),
	})
}

func (h *CustomerHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.customers.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCustomerResp(m))
}

func (h *CustomerHandler) Search(c echo.Context) error {
	items, err := h.customers.Search(c.Request().Context(), c.QueryParam("keyword"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCustomerList(items))
}

func (h *CustomerHandler) ByStatus(c echo.Context) error {
	items, err := h.customers.ByStatus(c.Request().Context(), c.Param("status"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCustomerList(items))
}

func (h *CustomerHandler) Create(c echo.Context) error {
	var req customerReq
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := h.customers.Create(c.Request().Context(), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toCustomerResp(m))
}

func (h *CustomerHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req customerReq
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := h.customers.Update(c.Request().Context(), id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCustomerResp(m))
}

func (h *CustomerHandler) Patch(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req customerPatchReq
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := h.customers.Patch(c.Request().Context(), id, service.CustomerPatch{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Status:   req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCustomerResp(m))
}

func (h *CustomerHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.customers.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, service.Message{Message: "customer deleted successfully"})
}
