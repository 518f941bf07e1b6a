// internal/models/project.go
package models

// Project ids are opaque strings issued by an external system.
type Project struct {
	ID          string `json:"id" gorm:"primaryKey;size:100"`
	ProjectPm   string `json:"project_pm" gorm:"size:255;index"`
	ProjectName string `json:"project_name" gorm:"size:255"`
	Note        string `json:"note" gorm:"type:text"`
}

type Customer struct {
	ID                int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name              string `json:"name" gorm:"size:255"`
	Sign              string `json:"sign" gorm:"size:100"`
	MilitaryRegion    string `json:"military_region" gorm:"size:255"`
	ContactPersonName string `json:"contact_person_name" gorm:"size:255"`
	Phone             string `json:"phone" gorm:"size:50"`
	Address           string `json:"address" gorm:"type:text"`
}
