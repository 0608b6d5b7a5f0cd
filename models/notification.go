package models

import (
	"encoding/json"
	"time"
)

type Notification struct {
	ID        int             `json:"id"`
	UserID    int             `json:"userId"`
	Severity  string          `json:"severity"`
	Payload   json.RawMessage `json:"payload"`
	IsRead    bool            `json:"isRead"`
	ReadAt    *time.Time      `json:"readAt"`
	IsDeleted bool            `json:"-"`
	CreatedAt time.Time       `json:"createdAt"`
}
