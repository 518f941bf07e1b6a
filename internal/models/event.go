// internal/models/event.go
package models

import "time"

// Event is an append-only audit record.
type Event struct {
	ID          int64        `json:"id" gorm:"primaryKey;autoIncrement"`
	ProjectID   string       `json:"project_id" gorm:"size:100;index"`
	AccountID   string       `json:"account_id" gorm:"size:255"`
	Type        EventType    `json:"type" gorm:"type:varchar(20);not null"`
	SubType     EventSubType `json:"sub_type" gorm:"type:varchar(20);not null"`
	Content     string       `json:"content" gorm:"type:text"`
	IssueID     *int64       `json:"issue_id" gorm:"index"`
	ProductID   *int64       `json:"product_id" gorm:"index"`
	ComponentID *int64       `json:"component_id" gorm:"index"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
