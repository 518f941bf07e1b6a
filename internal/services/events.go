// internal/services/events.go
package services

import (
	"context"

	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/repository"
)

// Actor identifies the account a request runs as.
type Actor struct {
	Email string
	Role  models.Role
}

func (a Actor) IsUser() bool {
	return a.Role == models.RoleUser
}

// Event contents stored with each audit record.
const (
	contentComponentCreated = "Thêm mới thành phần"
	contentComponentUpdated = "Cập nhật thành phần"
	contentComponentDeleted = "Xóa thành phần"
	contentSerialCascaded   = "Cập nhật serial cho thành phần con"
	contentIssueCreated     = "Thêm lỗi mới"
	contentIssueUpdated     = "Cập nhật lỗi"
	contentIssueDeleted     = "Xóa lỗi"
	contentProductCreated   = "Thêm mới sản phẩm"
	contentProductUpdated   = "Cập nhật sản phẩm"
	contentProductDeleted   = "Xóa sản phẩm"
)

type eventRefs struct {
	ProjectID   string
	IssueID     int64
	ProductID   int64
	ComponentID int64
}

func optionalID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func writeEvent(ctx context.Context, st repository.Store, actor Actor, typ models.EventType, sub models.EventSubType, content string, refs eventRefs) error {
	return st.CreateEvent(ctx, &models.Event{
		ProjectID:   refs.ProjectID,
		AccountID:   actor.Email,
		Type:        typ,
		SubType:     sub,
		Content:     content,
		IssueID:     optionalID(refs.IssueID),
		ProductID:   optionalID(refs.ProductID),
		ComponentID: optionalID(refs.ComponentID),
	})
}
