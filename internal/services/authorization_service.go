// internal/services/authorization_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/prodcare/prodcare-backend/internal/i18n"
	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/repository"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

// WriteTarget names what a write request touches. The first non-empty field
// in the order ProjectID, ProductID, ComponentID decides the project.
type WriteTarget struct {
	ProjectID   string `json:"projectId"`
	ProductID   int64  `json:"productId"`
	ComponentID int64  `json:"componentId"`
}

// AuthorizationService decides whether a USER account may write to the
// project a request targets.
type AuthorizationService struct {
	store repository.Store
}

func NewAuthorizationService(store repository.Store) *AuthorizationService {
	return &AuthorizationService{store: store}
}

// CheckProjectPm succeeds when account is the project manager of the
// project the target resolves to.
func (s *AuthorizationService) CheckProjectPm(ctx context.Context, account *models.Account, target WriteTarget) error {
	if account.Role != models.RoleUser {
		return utils.NewForbiddenError(i18n.KeyInsufficientPermissions)
	}

	projectID, err := s.resolveProject(ctx, target)
	if err != nil {
		return err
	}
	return requireProjectPm(ctx, s.store, Actor{Email: account.Email, Role: account.Role}, projectID)
}

func (s *AuthorizationService) resolveProject(ctx context.Context, target WriteTarget) (string, error) {
	if target.ProjectID != "" {
		return target.ProjectID, nil
	}

	if target.ProductID == 0 && target.ComponentID != 0 {
		c, err := s.store.GetComponent(ctx, target.ComponentID)
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		return componentProject(ctx, s.store, c)
	}
	return productProject(ctx, s.store, target.ProductID)
}

// requireProjectPm fails unless actor may write to every listed project.
// ADMIN and OPERATOR write anywhere; a USER must be the project manager of
// each one, and a row with no project is closed to them.
func requireProjectPm(ctx context.Context, st repository.Store, actor Actor, projectIDs ...string) error {
	switch actor.Role {
	case models.RoleAdmin, models.RoleOperator:
		return nil
	case models.RoleUser:
	default:
		return utils.NewForbiddenError(i18n.KeyInsufficientPermissions)
	}

	checked := make(map[string]bool, len(projectIDs))
	for _, projectID := range projectIDs {
		if checked[projectID] {
			continue
		}
		checked[projectID] = true
		if projectID == "" {
			return utils.NewForbiddenError(i18n.KeyInsufficientPermissions)
		}

		project, err := st.GetProject(ctx, projectID)
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NewForbiddenError(i18n.KeyInsufficientPermissions)
		}
		if err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}
		if project.ProjectPm != actor.Email {
			return utils.NewForbiddenError(i18n.KeyInsufficientPermissions)
		}
	}
	return nil
}

// productProject returns the project of a product, or "" when there is none.
func productProject(ctx context.Context, st repository.Store, productID int64) (string, error) {
	if productID == 0 {
		return "", nil
	}
	p, err := st.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return p.ProjectID, nil
}

func componentProject(ctx context.Context, st repository.Store, c *models.Component) (string, error) {
	productID, err := OwningProductID(ctx, st, c)
	if err != nil {
		return "", err
	}
	return productProject(ctx, st, productID)
}
