package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/agrodata/farmdata-api/internal/auth"
	"github.com/agrodata/farmdata-api/internal/constants"
	"github.com/agrodata/farmdata-api/internal/dto"
	apierrors "github.com/agrodata/farmdata-api/internal/errors"
	"github.com/agrodata/farmdata-api/internal/middleware"
	"github.com/agrodata/farmdata-api/internal/models"
	"github.com/agrodata/farmdata-api/internal/services"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// FarmHandler coordinates farm and membership HTTP handlers.
type FarmHandler struct {
	farmService *services.FarmService
	audit       *services.AuditService
}

// NewFarmHandler creates a new FarmHandler.
func NewFarmHandler(farmService *services.FarmService, audit *services.AuditService) *FarmHandler {
	return &FarmHandler{
		farmService: farmService,
		audit:       audit,
	}
}

// CreateFarm creates a new farm. The caller becomes its first admin member
// and the farm becomes their primary. A system admin may instead name
// another user as the creator.
func (h *FarmHandler) CreateFarm(c *gin.Context) {
	ctx, exists := middleware.GetAuthContext(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateFarmRequest struct {
		BIN          string  `json:"bin" binding:"required"`
		Name         string  `json:"name" binding:"required"`
		DirectorName string  `json:"director_name"`
		Region       string  `json:"region"`
		District     string  `json:"district"`
		Address      string  `json:"address"`
		TotalAreaHa  float64 `json:"total_area_ha"`
		CreatorID    *uint64 `json:"creator_id"`
	}

	var req CreateFarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	creatorID := ctx.UserID()
	if req.CreatorID != nil && ctx.IsAdmin() {
		creatorID = *req.CreatorID
	}

	farm, err := h.farmService.CreateFarm(services.CreateFarmInput{
		BIN:          req.BIN,
		Name:         req.Name,
		DirectorName: req.DirectorName,
		Region:       req.Region,
		District:     req.District,
		Address:      req.Address,
		TotalAreaHa:  req.TotalAreaHa,
		CreatorID:    &creatorID,
	})
	if err != nil {
		respondFarmError(c, err)
		return
	}

	// The creator's primary farm just changed; rebind the session so the
	// next request lands on the new farm.
	if creatorID == ctx.UserID() {
		session := sessions.Default(c)
		session.Set(constants.SessionKeyFarmID, farm.ID)
		if err := session.Save(); err != nil {
			apierrors.InternalError(c, "Failed to save session")
			return
		}
	}

	h.audit.Record(ctx, services.AuditActionFarmCreate, "farm", &farm.ID, farm.BIN, c.ClientIP())

	c.JSON(http.StatusCreated, dto.ToFarmDTO(*farm))
}

// ListFarms returns the farms visible to the caller: all farms for a
// system admin, the caller's memberships otherwise.
func (h *FarmHandler) ListFarms(c *gin.Context) {
	ctx, exists := middleware.GetAuthContext(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	if ctx.IsAdmin() {
		farms, err := h.farmService.ListFarms(ctx)
		if err != nil {
			apierrors.InternalError(c, "Failed to fetch farms")
			return
		}

		farmDTOs := make([]dto.FarmDTO, len(farms))
		for i, farm := range farms {
			farmDTOs[i] = dto.ToFarmDTO(farm)
		}
		c.JSON(http.StatusOK, gin.H{"farms": farmDTOs})
		return
	}

	memberships, err := h.farmService.MembershipsFor(ctx.UserID())
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch farms")
		return
	}

	farmsWithRole := make([]dto.FarmWithRoleDTO, len(memberships))
	for i, membership := range memberships {
		farmsWithRole[i] = dto.ToFarmWithRoleDTO(membership)
	}

	c.JSON(http.StatusOK, gin.H{"farms": farmsWithRole})
}

// GetFarm returns farm details with its members. RequireFarmAccess has
// already verified visibility.
func (h *FarmHandler) GetFarm(c *gin.Context) {
	farmValue, exists := c.Get("farm")
	if !exists {
		apierrors.InternalError(c, "Farm not loaded")
		return
	}
	farm := farmValue.(models.Farm)

	members, err := h.farmService.ListMembers(farm.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch members")
		return
	}

	c.JSON(http.StatusOK, dto.ToFarmDetailDTO(farm, members))
}

// SwitchFarm rebinds the caller's session to another farm.
func (h *FarmHandler) SwitchFarm(c *gin.Context) {
	ctx, exists := middleware.GetAuthContext(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	farmID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid farm ID")
		return
	}

	switched, err := h.farmService.SwitchFarm(ctx, farmID)
	if err != nil {
		respondFarmError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.SessionKeyFarmID, farmID)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	h.audit.Record(ctx, services.AuditActionSwitchFarm, "farm", &farmID, "", c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"active_farm_id": switched.ActiveFarmID,
	})
}

// AddMember grants a user access to the farm. Guarded by the farm admin
// role.
func (h *FarmHandler) AddMember(c *gin.Context) {
	ctx, exists := middleware.GetAuthContext(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	farmID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid farm ID")
		return
	}

	type AddMemberRequest struct {
		UserID    uint64          `json:"user_id" binding:"required"`
		Role      models.FarmRole `json:"role" binding:"required,oneof=admin manager viewer"`
		IsPrimary bool            `json:"is_primary"`
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.farmService.AddMember(req.UserID, farmID, req.Role, req.IsPrimary)
	if err != nil {
		respondFarmError(c, err)
		return
	}

	h.audit.Record(ctx, services.AuditActionMemberAdd, "farm_membership", &member.ID, string(req.Role), c.ClientIP())

	c.JSON(http.StatusCreated, member)
}

// RemoveMember revokes a user's access to the farm.
func (h *FarmHandler) RemoveMember(c *gin.Context) {
	ctx, exists := middleware.GetAuthContext(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	farmID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid farm ID")
		return
	}

	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	removed, err := h.farmService.RemoveMember(userID, farmID)
	if err != nil {
		apierrors.InternalError(c, "Failed to remove member")
		return
	}
	if !removed {
		apierrors.NotFound(c, "Membership not found")
		return
	}

	h.audit.Record(ctx, services.AuditActionMemberRemove, "farm_membership", nil, "", c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed",
	})
}

// SetPrimary marks the farm as the caller's primary farm.
func (h *FarmHandler) SetPrimary(c *gin.Context) {
	ctx, exists := middleware.GetAuthContext(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	farmID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid farm ID")
		return
	}

	if err := h.farmService.SetPrimary(ctx.UserID(), farmID); err != nil {
		respondFarmError(c, err)
		return
	}

	h.audit.Record(ctx, services.AuditActionSetPrimary, "farm", &farmID, "", c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"message": "Primary farm updated",
	})
}

func respondFarmError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidBIN),
		errors.Is(err, services.ErrInvalidFarmName):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrBINTaken),
		errors.Is(err, services.ErrMembershipExists):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrFarmNotFound),
		errors.Is(err, services.ErrMembershipNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, auth.ErrUnauthenticated):
		apierrors.Unauthorized(c, "")
	case errors.Is(err, auth.ErrForbidden):
		apierrors.Forbidden(c, "")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
