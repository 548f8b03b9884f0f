package services

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/repositories"
	"mes-system/pkg/types"
)

type AuditServiceInterface interface {
	Record(ctx context.Context, action, entity string, entityID, userID uint64, payload interface{})
	GetLogs(ctx context.Context, filter types.Filter) ([]dto.AuditLogDTO, uint64, error)
}

type AuditService struct {
	auditRepository repositories.AuditRepositoryInterface
	logger          *zap.Logger
}

func NewAuditService(auditRepository repositories.AuditRepositoryInterface, logger *zap.Logger) *AuditService {
	return &AuditService{auditRepository: auditRepository, logger: logger}
}

// Record пишет строку аудита. Ошибка аудита никогда не валит основную
// операцию: журнал вторичен по отношению к данным.
func (s *AuditService) Record(ctx context.Context, action, entity string, entityID, userID uint64, payload interface{}) {
	var payloadJSON []byte
	if payload != nil {
		sanitized := sanitizePayload(payload)
		var err error
		payloadJSON, err = json.Marshal(sanitized)
		if err != nil {
			s.logger.Warn("не удалось сериализовать payload для аудита", zap.Error(err))
			payloadJSON = nil
		}
	}

	if err := s.auditRepository.InsertLog(ctx, action, entity, entityID, userID, payloadJSON); err != nil {
		s.logger.Warn("не удалось записать строку аудита",
			zap.String("action", action),
			zap.String("entity", entity),
			zap.Uint64("entity_id", entityID),
			zap.Error(err),
		)
	}
}

func (s *AuditService) GetLogs(ctx context.Context, filter types.Filter) ([]dto.AuditLogDTO, uint64, error) {
	return s.auditRepository.GetLogs(ctx, filter)
}

// sanitizePayload вычищает пароли и хэши перед записью в журнал.
func sanitizePayload(payload interface{}) interface{} {
	raw, err := json.Marshal(payload)
	if err != nil {
		return payload
	}
	var asMap map[string]interface{}
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return payload
	}
	for key := range asMap {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "password") || strings.Contains(lower, "hash") {
			delete(asMap, key)
		}
	}
	return asMap
}
