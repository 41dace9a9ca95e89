package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"gorm.io/gorm"
)

// AuditLog records before/after snapshots of every mutating operation, in
// the same transaction as the mutation itself.
type AuditLog struct {
	ID         int         `gorm:"primary_key" json:"id"`
	EntityType string      `gorm:"size:64;not null" json:"entity_type"`
	EntityId   string      `gorm:"size:64;not null;index" json:"entity_id"`
	Action     AuditAction `gorm:"size:32;not null" json:"action"`
	UserId     string      `gorm:"size:64" json:"user_id"`
	OldValues  string      `gorm:"type:text" json:"old_values"`
	NewValues  string      `gorm:"type:text" json:"new_values"`
	IpAddress  string      `gorm:"size:64" json:"ip_address"`
	CreatedAt  time.Time   `gorm:"autoCreateTime" json:"created_at"`
}

func createAuditLog(ctx context.Context, tx *gorm.DB, entityType string, entityId string, action AuditAction, before interface{}, after interface{}) error {
	var log AuditLog

	b, _ := json.Marshal(before)
	a, _ := json.Marshal(after)

	log.EntityType = entityType
	log.EntityId = entityId
	log.Action = action
	if before != nil {
		log.OldValues = string(b)
	}
	if after != nil {
		log.NewValues = string(a)
	}
	if userId, ok := utils.GetUserIdFromContext(ctx); ok {
		log.UserId = userId
	}

	return tx.WithContext(ctx).Create(&log).Error
}
