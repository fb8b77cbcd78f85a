package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"storefront/internal/model"
	"storefront/internal/repository"
)

type AuditLogResponse struct {
	ID         uint   `json:"id"`
	UserID     *uint  `json:"user_id"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, page, limit int, action string) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetAuditLogs returns one page of audit entries with their users resolved
func (s *auditService) GetAuditLogs(ctx context.Context, page, limit int, action string) ([]AuditLogResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	logs, total, err := s.repo.List(ctx, page, limit, action)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		username := "System"
		if l.User != nil {
			username = l.User.Username
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID,
			UserID:     l.UserID,
			Username:   username,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}

// writeAudit records an action inside the caller's transaction
func writeAudit(ctx context.Context, repo repository.AuditRepository, actorID *uint, action string, entityID uint, entityName string, details interface{}) error {
	detailsJSON, _ := json.Marshal(details)
	entry := &model.AuditLog{
		UserID:     actorID,
		Action:     action,
		EntityID:   strconv.FormatUint(uint64(entityID), 10),
		EntityName: entityName,
		Details:    string(detailsJSON),
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
