// internal/models/component.go
package models

import "time"

type Component struct {
	ID             int64         `json:"id" gorm:"primaryKey;autoIncrement"`
	Name           string        `json:"name" gorm:"size:255"`
	ParentID       *int64        `json:"parent_id" gorm:"index"`
	ProductID      *int64        `json:"product_id" gorm:"index"`
	Type           ComponentType `json:"type" gorm:"type:varchar(20)"`
	Serial         string        `json:"serial" gorm:"size:255;index"`
	Description    string        `json:"description" gorm:"type:text"`
	Category       string        `json:"category" gorm:"size:255"`
	Level          int           `json:"level" gorm:"not null;index"`
	Version        string        `json:"version" gorm:"size:100"`
	Status         string        `json:"status" gorm:"size:100"`
	Situation      Situation     `json:"situation" gorm:"type:varchar(20);default:'GOOD';index"`
	TemporarilyUse YesNo         `json:"temporarily_use" gorm:"type:varchar(3);default:'NO'"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	// Relationships
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// ParentKey returns the parent id or zero for a root component.
func (c *Component) ParentKey() int64 {
	if c.ParentID == nil {
		return 0
	}
	return *c.ParentID
}

// ProductKey returns the product id or zero when unset.
func (c *Component) ProductKey() int64 {
	if c.ProductID == nil {
		return 0
	}
	return *c.ProductID
}
