package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appidentity "github.com/merchpulse/backend/internal/application/identity"
)

// CreateEmployeeRequest adds an employee to the roster
type CreateEmployeeRequest struct {
	Name        string   `json:"name" binding:"required,max=200"`
	Username    string   `json:"username" binding:"required,min=3,max=100"`
	PIN         string   `json:"pin" binding:"required,numeric,min=4,max=12"`
	Role        string   `json:"role" binding:"required"`
	Permissions []string `json:"permissions"`
}

// UpdateEmployeeRequest changes only the fields present in the body
type UpdateEmployeeRequest struct {
	Name        *string   `json:"name" binding:"omitempty,max=200"`
	PIN         *string   `json:"pin" binding:"omitempty,numeric,min=4,max=12"`
	Role        *string   `json:"role"`
	Permissions *[]string `json:"permissions"`
}

// EmployeeHandler manages the roster
type EmployeeHandler struct {
	BaseHandler
	service *appidentity.EmployeeService
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(service *appidentity.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{service: service}
}

// List returns every employee.
// GET /api/v1/employees
func (h *EmployeeHandler) List(c *gin.Context) {
	employees, err := h.service.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toEmployeeResponses(employees))
}

// Create adds an employee.
// POST /api/v1/employees
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	employee, err := h.service.Create(c.Request.Context(), appidentity.CreateEmployeeInput{
		Name:        req.Name,
		Username:    req.Username,
		PIN:         req.PIN,
		Role:        req.Role,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toEmployeeResponse(appidentity.ToEmployeeInfo(employee)))
}

// Update changes name, PIN, role or grants.
// PUT /api/v1/employees/:id
func (h *EmployeeHandler) Update(c *gin.Context) {
	id, ok := h.employeeID(c)
	if !ok {
		return
	}
	var req UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	employee, err := h.service.Update(c.Request.Context(), id, appidentity.UpdateEmployeeInput{
		Name:        req.Name,
		PIN:         req.PIN,
		Role:        req.Role,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toEmployeeResponse(appidentity.ToEmployeeInfo(employee)))
}

// Deactivate disables sign-in and revokes outstanding tokens.
// POST /api/v1/employees/:id/deactivate
func (h *EmployeeHandler) Deactivate(c *gin.Context) {
	id, ok := h.employeeID(c)
	if !ok {
		return
	}

	employee, err := h.service.Deactivate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toEmployeeResponse(appidentity.ToEmployeeInfo(employee)))
}

func (h *EmployeeHandler) employeeID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid employee ID")
		return uuid.Nil, false
	}
	return id, true
}
