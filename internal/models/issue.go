// internal/models/issue.go
package models

import "time"

type Issue struct {
	ID                         int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	ComponentID                *int64          `json:"component_id" gorm:"index"`
	ProductID                  *int64          `json:"product_id" gorm:"index"`
	CustomerID                 *int64          `json:"customer_id" gorm:"index"`
	ProjectID                  string          `json:"project_id" gorm:"size:100;index"`
	AccountID                  string          `json:"account_id" gorm:"size:255;index"`
	ReceptionTime              *time.Time      `json:"reception_time" gorm:"index"`
	CompletionTime             *time.Time      `json:"completion_time"`
	HandlingTime               *int64          `json:"handling_time"`
	Description                string          `json:"description" gorm:"type:text"`
	Severity                   string          `json:"severity" gorm:"size:100"`
	Status                     IssueStatus     `json:"status" gorm:"type:varchar(20);index"`
	Type                       IssueType       `json:"type" gorm:"type:varchar(20)"`
	Level                      string          `json:"level" gorm:"size:100"`
	ScopeOfImpact              string          `json:"scope_of_impact" gorm:"size:50"`
	ImpactPoint                *int            `json:"impact_point"`
	UrgencyLevel               UrgencyLevel    `json:"urgency_level" gorm:"type:varchar(10)"`
	UrgencyPoint               *int            `json:"urgency_point"`
	ResponsibleHandlingUnit    string          `json:"responsible_handling_unit" gorm:"size:255"`
	ReportingPerson            string          `json:"reporting_person" gorm:"size:255"`
	RemainStatus               RemainStatus    `json:"remain_status" gorm:"type:varchar(10)"`
	OverdueKpi                 *bool           `json:"overdue_kpi"`
	OverdueKpiReason           string          `json:"overdue_kpi_reason" gorm:"size:255"`
	WarrantyStatus             WarrantyStatus  `json:"warranty_status" gorm:"type:varchar(10)"`
	Impact                     Impact          `json:"impact" gorm:"type:varchar(20)"`
	StopFighting               bool            `json:"stop_fighting" gorm:"default:false"`
	StopFightingDays           *int64          `json:"stop_fighting_days"`
	UnhandleReason             string          `json:"unhandle_reason" gorm:"size:100"`
	UnhandleReasonDescription  string          `json:"unhandle_reason_description" gorm:"type:text"`
	ResponsibleType            ResponsibleType `json:"responsible_type" gorm:"type:varchar(20)"`
	ResponsibleTypeDescription string          `json:"responsible_type_description" gorm:"type:text"`
	LetterSendVmc              string          `json:"letter_send_vmc" gorm:"size:255"`
	Date                       *time.Time      `json:"date"`
	MaterialStatus             string          `json:"material_status" gorm:"size:255"`
	ProductStatus              string          `json:"product_status" gorm:"size:255"`
	HandlingPlan               string          `json:"handling_plan" gorm:"type:text"`
	HandlingMeasures           string          `json:"handling_measures" gorm:"type:text"`
	ErrorAlert                 string          `json:"error_alert" gorm:"size:255"`
	KpiH                       *int64          `json:"kpi_h"`
	RepairPart                 string          `json:"repair_part" gorm:"size:255"`
	RepairPartCount            *int            `json:"repair_part_count"`
	Unit                       string          `json:"unit" gorm:"size:50"`
	ExpDate                    *time.Time      `json:"exp_date"`
	Note                       string          `json:"note" gorm:"type:text"`
	Price                      string          `json:"price" gorm:"size:100"`
	UnitPrice                  string          `json:"unit_price" gorm:"size:100"`
	Reason                     string          `json:"reason" gorm:"type:text"`
	ProductCount               *int64          `json:"product_count"`
	TemporarilyUse             YesNo           `json:"temporarily_use" gorm:"type:varchar(3);default:'NO'"`
	CreatedAt                  time.Time       `json:"created_at"`
	UpdatedAt                  time.Time       `json:"updated_at"`

	// Relationships
	Component *Component `json:"component,omitempty" gorm:"foreignKey:ComponentID"`
	Product   *Product   `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// Unresolved reports whether the issue still affects its component.
func (i *Issue) Unresolved() bool {
	return !i.Status.Resolved()
}

func (i *Issue) ComponentKey() int64 {
	if i.ComponentID == nil {
		return 0
	}
	return *i.ComponentID
}

func (i *Issue) ProductKey() int64 {
	if i.ProductID == nil {
		return 0
	}
	return *i.ProductID
}
