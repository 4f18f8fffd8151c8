package services

import (
	"log"

	"github.com/agrodata/farmdata-api/internal/auth"
	"github.com/agrodata/farmdata-api/internal/models"
	"github.com/agrodata/farmdata-api/internal/repository"
)

// Audit actions recorded by the service layer.
const (
	AuditActionLogin          = "login"
	AuditActionLogout         = "logout"
	AuditActionRegister       = "register"
	AuditActionPasswordChange = "password_change"
	AuditActionFarmCreate     = "farm_create"
	AuditActionMemberAdd      = "member_add"
	AuditActionMemberRemove   = "member_remove"
	AuditActionSetPrimary     = "set_primary"
	AuditActionSwitchFarm     = "switch_farm"
	AuditActionFieldCreate    = "field_create"
	AuditActionFieldDelete    = "field_delete"
)

// AuditService appends immutable records of security-relevant actions.
// Writes are best-effort: a failed audit insert is logged and never
// surfaces to the caller, so auditing cannot break the guarded operation.
type AuditService struct {
	auditRepo repository.AuditRepository
}

// NewAuditService creates a new AuditService.
func NewAuditService(auditRepo repository.AuditRepository) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
	}
}

// Record appends one audit entry for the principal in ctx. Anonymous
// contexts are skipped.
func (s *AuditService) Record(ctx *auth.Context, action, entityType string, entityID *uint64, details, ipAddress string) {
	if !ctx.IsAuthenticated() {
		return
	}
	s.RecordForUser(ctx.UserID(), action, entityType, entityID, details, ipAddress)
}

// RecordForUser appends one audit entry keyed by user id. Used where the
// full context is not built yet, such as during login.
func (s *AuditService) RecordForUser(userID uint64, action, entityType string, entityID *uint64, details, ipAddress string) {
	entry := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		IPAddress:  ipAddress,
	}

	if err := s.auditRepo.Append(entry); err != nil {
		log.Printf("audit write failed (action=%s user=%d): %v", action, userID, err)
	}
}
