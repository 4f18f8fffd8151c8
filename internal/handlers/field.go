package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/agrodata/farmdata-api/internal/auth"
	"github.com/agrodata/farmdata-api/internal/dto"
	apierrors "github.com/agrodata/farmdata-api/internal/errors"
	"github.com/agrodata/farmdata-api/internal/middleware"
	"github.com/agrodata/farmdata-api/internal/services"
	"github.com/agrodata/farmdata-api/internal/utils"
	"github.com/gin-gonic/gin"
)

// FieldHandler exposes the tenant-owned field CRUD. It is the reference
// integration for other agronomic modules: scoped reads, guarded writes.
type FieldHandler struct {
	fieldService *services.FieldService
	audit        *services.AuditService
}

// NewFieldHandler creates a new FieldHandler.
func NewFieldHandler(fieldService *services.FieldService, audit *services.AuditService) *FieldHandler {
	return &FieldHandler{
		fieldService: fieldService,
		audit:        audit,
	}
}

// ListFields returns the fields of the caller's active farm.
func (h *FieldHandler) ListFields(c *gin.Context) {
	ctx, exists := middleware.GetAuthContext(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)

	fields, total, err := h.fieldService.ListFields(ctx, params)
	if err != nil {
		respondFieldError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fields": dto.ToFieldDTOs(fields),
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// GetField returns one field within the caller's scope.
func (h *FieldHandler) GetField(c *gin.Context) {
	ctx, exists := middleware.GetAuthContext(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	fieldID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid field ID")
		return
	}

	field, err := h.fieldService.GetField(ctx, fieldID)
	if err != nil {
		respondFieldError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToFieldDTO(*field))
}

// CreateField creates a field on the caller's active farm.
func (h *FieldHandler) CreateField(c *gin.Context) {
	ctx, exists := middleware.GetAuthContext(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateFieldRequest struct {
		Name   string  `json:"name" binding:"required"`
		AreaHa float64 `json:"area_ha"`
		Crop   string  `json:"crop"`
		FarmID *uint64 `json:"farm_id"`
	}

	var req CreateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	field, err := h.fieldService.CreateField(ctx, services.CreateFieldInput{
		Name:   req.Name,
		AreaHa: req.AreaHa,
		Crop:   req.Crop,
		FarmID: req.FarmID,
	})
	if err != nil {
		respondFieldError(c, err)
		return
	}

	h.audit.Record(ctx, services.AuditActionFieldCreate, "field", &field.ID, field.Name, c.ClientIP())

	c.JSON(http.StatusCreated, dto.ToFieldDTO(*field))
}

// DeleteField removes a field.
func (h *FieldHandler) DeleteField(c *gin.Context) {
	ctx, exists := middleware.GetAuthContext(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	fieldID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid field ID")
		return
	}

	if err := h.fieldService.DeleteField(ctx, fieldID); err != nil {
		respondFieldError(c, err)
		return
	}

	h.audit.Record(ctx, services.AuditActionFieldDelete, "field", &fieldID, "", c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"message": "Field deleted",
	})
}

func respondFieldError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidFieldName),
		errors.Is(err, services.ErrTargetFarmNeeded):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrFieldNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, auth.ErrUnauthenticated):
		apierrors.Unauthorized(c, "")
	case errors.Is(err, auth.ErrFarmNotBound):
		apierrors.FarmNotBound(c)
	case errors.Is(err, auth.ErrForbidden):
		apierrors.Forbidden(c, "")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
