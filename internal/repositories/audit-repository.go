package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"mes-system/internal/dto"
	"mes-system/pkg/types"
)

const auditTable = "audit_logs"

type AuditRepositoryInterface interface {
	InsertLog(ctx context.Context, action, entity string, entityID, userID uint64, payload []byte) error
	GetLogs(ctx context.Context, filter types.Filter) ([]dto.AuditLogDTO, uint64, error)
}

type auditRepository struct{ storage *pgxpool.Pool }

func NewAuditRepository(storage *pgxpool.Pool) AuditRepositoryInterface {
	return &auditRepository{storage: storage}
}

func (r *auditRepository) InsertLog(ctx context.Context, action, entity string, entityID, userID uint64, payload []byte) error {
	query := fmt.Sprintf("INSERT INTO %s (action, entity, entity_id, user_id, payload_json) VALUES ($1, $2, $3, $4, $5)", auditTable)
	_, err := r.storage.Exec(ctx, query, action, entity, entityID, userID, payload)
	return err
}

func (r *auditRepository) GetLogs(ctx context.Context, filter types.Filter) ([]dto.AuditLogDTO, uint64, error) {
	var args []interface{}
	whereClause := ""

	if raw, ok := filter.Filter["entity"]; ok {
		whereClause = "WHERE entity = $1"
		args = append(args, fmt.Sprintf("%v", raw))
	}

	var total uint64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", auditTable, whereClause)
	if err := r.storage.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []dto.AuditLogDTO{}, 0, nil
	}

	queryArgs := append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(
		"SELECT id, action, entity, entity_id, user_id, payload_json, created_at FROM %s %s ORDER BY id DESC LIMIT $%d OFFSET $%d",
		auditTable, whereClause, len(args)+1, len(args)+2)

	rows, err := r.storage.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := make([]dto.AuditLogDTO, 0)
	for rows.Next() {
		var logDTO dto.AuditLogDTO
		var payload []byte
		var createdAt time.Time
		if err := rows.Scan(&logDTO.ID, &logDTO.Action, &logDTO.Entity, &logDTO.EntityID,
			&logDTO.UserID, &payload, &createdAt); err != nil {
			return nil, 0, err
		}
		if len(payload) > 0 {
			_ = json.Unmarshal(payload, &logDTO.Payload)
		}
		logDTO.CreatedAt = createdAt.Local().Format("2006-01-02 15:04:05")
		logs = append(logs, logDTO)
	}
	return logs, total, rows.Err()
}
