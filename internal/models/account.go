// internal/models/account.go
package models

import (
	"golang.org/x/crypto/bcrypt"
)

type Account struct {
	Email        string `json:"email" gorm:"primaryKey;size:255"`
	Name         string `json:"name" gorm:"size:255"`
	EmployeeID   string `json:"employee_id" gorm:"size:100"`
	Avatar       string `json:"avatar" gorm:"size:500"`
	Role         Role   `json:"role" gorm:"type:varchar(20);not null;default:'GUEST'"`
	PasswordHash string `json:"-" gorm:"size:255"`
}

func (a *Account) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hashedPassword)
	return nil
}

func (a *Account) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password))
}

// CanWriteAll reports whether the role may write to any project.
func (a *Account) CanWriteAll() bool {
	return a.Role == RoleAdmin || a.Role == RoleOperator
}
