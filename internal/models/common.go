// internal/models/common.go
package models

// Enums
type Situation string

const (
	SituationGood      Situation = "GOOD"
	SituationDegraded  Situation = "DEGRADED"
	SituationDefective Situation = "DEFECTIVE"
)

func (s Situation) Valid() bool {
	switch s {
	case SituationGood, SituationDegraded, SituationDefective:
		return true
	}
	return false
}

type YesNo string

const (
	Yes YesNo = "YES"
	No  YesNo = "NO"
)

type ComponentType string

const (
	ComponentTypeSoftware ComponentType = "SOFTWARE"
	ComponentTypeHardware ComponentType = "HARDWARE"
)

type ProductType string

const (
	ProductTypeManufacturing ProductType = "MANUFACTURING"
	ProductTypeHandOver      ProductType = "HAND_OVER"
)

type IssueStatus string

const (
	IssueStatusProcessed   IssueStatus = "PROCESSED"
	IssueStatusProcessing  IssueStatus = "PROCESSING"
	IssueStatusUnprocessed IssueStatus = "UNPROCESSED"
)

// Resolved reports whether the issue no longer counts against its component.
func (s IssueStatus) Resolved() bool {
	return s == IssueStatusProcessed
}

type IssueType string

const (
	IssueTypeNew         IssueType = "NEW"
	IssueTypeReoccurring IssueType = "REOCCURRING"
)

type RemainStatus string

const (
	RemainStatusDone   RemainStatus = "DONE"
	RemainStatusRemain RemainStatus = "REMAIN"
)

type WarrantyStatus string

const (
	WarrantyStatusUnder WarrantyStatus = "UNDER"
	WarrantyStatusOver  WarrantyStatus = "OVER"
)

type Impact string

const (
	ImpactYes         Impact = "YES"
	ImpactNo          Impact = "NO"
	ImpactRestriction Impact = "RESTRICTION"
)

type ResponsibleType string

const (
	ResponsibleTypeUser          ResponsibleType = "USER"
	ResponsibleTypeEnvironment   ResponsibleType = "ENVIROMENT"
	ResponsibleTypeDesign        ResponsibleType = "DESIGN"
	ResponsibleTypeManufacturing ResponsibleType = "MANUFACTURING"
	ResponsibleTypeMaterial      ResponsibleType = "MATERIAL"
	ResponsibleTypeUnknown       ResponsibleType = "UNKNOWN"
)

type UrgencyLevel string

const (
	UrgencyLevelHigh   UrgencyLevel = "HIGH"
	UrgencyLevelMedium UrgencyLevel = "MEDIUM"
	UrgencyLevelLow    UrgencyLevel = "LOW"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOperator Role = "OPERATOR"
	RoleUser     Role = "USER"
	RoleGuest    Role = "GUEST"
)

type EventType string

const (
	EventTypeIssue     EventType = "ISSUE"
	EventTypeProduct   EventType = "PRODUCT"
	EventTypeComponent EventType = "COMPONENT"
)

type EventSubType string

const (
	EventSubTypeCreate  EventSubType = "CREATE"
	EventSubTypeEdit    EventSubType = "EDIT"
	EventSubTypeDelete  EventSubType = "DELETE"
	EventSubTypeComment EventSubType = "COMMENT"
)
