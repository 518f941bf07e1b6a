// internal/models/product.go
package models

import "time"

type Product struct {
	ID                  int64       `json:"id" gorm:"primaryKey;autoIncrement"`
	Name                string      `json:"name" gorm:"size:255"`
	Serial              string      `json:"serial" gorm:"size:255;index"`
	Type                ProductType `json:"type" gorm:"type:varchar(20)"`
	ProjectID           string      `json:"project_id" gorm:"size:100;index"`
	ProductionBatchesID string      `json:"production_batches_id" gorm:"size:100;index"`
	Version             string      `json:"version" gorm:"size:100"`
	Status              string      `json:"status" gorm:"size:100"`
	Situation           Situation   `json:"situation" gorm:"type:varchar(20);default:'GOOD';index"`
	CustomerID          *int64      `json:"customer_id" gorm:"index"`
	WarrantyStatus      string      `json:"warranty_status" gorm:"size:50"`
	MFG                 *time.Time  `json:"mfg"`
	HandedOverTime      *time.Time  `json:"handed_over_time"`
	ExpDate             *time.Time  `json:"exp_date"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`

	// Relationships
	Project  *Project  `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	Customer *Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
}
