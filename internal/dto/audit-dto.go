package dto

type AuditLogDTO struct {
	ID        uint64                 `json:"id"`
	Action    string                 `json:"action"`
	Entity    string                 `json:"entity"`
	EntityID  uint64                 `json:"entity_id"`
	UserID    uint64                 `json:"user_id"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt string                 `json:"created_at"`
}
