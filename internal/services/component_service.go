// internal/services/component_service.go
package services

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/prodcare/prodcare-backend/internal/i18n"
	"github.com/prodcare/prodcare-backend/internal/metrics"
	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/repository"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

type ComponentService struct {
	store     repository.Store
	situation *SituationService
	tree      *TreeService
	maxLevel  int
}

type CreateComponentRequest struct {
	Name           string               `json:"name" validate:"max=255"`
	ParentID       *int64               `json:"parentId"`
	ProductID      *int64               `json:"productId"`
	Type           models.ComponentType `json:"type" validate:"omitempty,oneof=SOFTWARE HARDWARE"`
	Serial         string               `json:"serial" validate:"max=255"`
	Description    string               `json:"description"`
	Category       string               `json:"category" validate:"max=255"`
	Level          int                  `json:"level"`
	Version        string               `json:"version" validate:"max=100"`
	Status         string               `json:"status" validate:"max=100"`
	TemporarilyUse models.YesNo         `json:"temporarilyUse" validate:"omitempty,yesno"`
}

// UpdateComponentRequest is a partial update: absent or empty fields keep
// their stored value. Description may be cleared by sending "".
type UpdateComponentRequest struct {
	ComponentID    int64                `json:"componentId" validate:"required"`
	Name           string               `json:"name" validate:"max=255"`
	ParentID       *int64               `json:"parentId"`
	ProductID      *int64               `json:"productId"`
	Type           models.ComponentType `json:"type" validate:"omitempty,oneof=SOFTWARE HARDWARE"`
	Serial         string               `json:"serial" validate:"max=255"`
	Description    *string              `json:"description"`
	Category       string               `json:"category" validate:"max=255"`
	Level          *int                 `json:"level"`
	Version        string               `json:"version" validate:"max=100"`
	Status         string               `json:"status" validate:"max=100"`
	TemporarilyUse models.YesNo         `json:"temporarilyUse" validate:"omitempty,yesno"`
}

type ComponentRow struct {
	models.Component
	OrderNumber int            `json:"orderNumber"`
	Issues      []models.Issue `json:"issues"`
}

type ComponentDetail struct {
	Component *models.Component `json:"component"`
	FullPath  string            `json:"fullPath"`
	Events    []models.Event    `json:"events"`
	Issues    []models.Issue    `json:"issues"`
}

func NewComponentService(store repository.Store, situation *SituationService, tree *TreeService, maxLevel int) *ComponentService {
	return &ComponentService{
		store:     store,
		situation: situation,
		tree:      tree,
		maxLevel:  maxLevel,
	}
}

func idOf(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func (s *ComponentService) checkLevel(level int) error {
	if level > s.maxLevel {
		return utils.NewValidationError(i18n.KeyMaxComponentLevel)
	}
	if level < 1 {
		return utils.NewValidationError(i18n.KeyInvalidComponentLevel)
	}
	return nil
}

// checkComponentSerial rejects a serial already used by another component. The
// missing-serial placeholder may be shared.
func checkComponentSerial(ctx context.Context, st repository.Store, serial string, selfID int64) error {
	if serial == "" || utils.IsMissingSerial(serial) {
		return nil
	}
	_, err := st.FindComponentBySerial(ctx, serial, selfID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return utils.NewConflictError(i18n.KeyComponentExisted)
}

// loadParent returns the parent of a component placed at level.
func loadParent(ctx context.Context, st repository.Store, parentID int64, level int) (*models.Component, error) {
	parent, err := st.GetComponent(ctx, parentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, utils.NewValidationError(i18n.KeyComponentNotExisted)
	}
	if err != nil {
		return nil, err
	}
	if parent.Level != level-1 {
		return nil, utils.NewValidationError(i18n.KeyComponentParentInvalid)
	}
	return parent, nil
}

func checkProductExists(ctx context.Context, st repository.Store, productID int64) error {
	_, err := st.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return utils.NewValidationError(i18n.KeyProductNotExisted)
	}
	return err
}

func (s *ComponentService) CreateComponent(ctx context.Context, actor Actor, req *CreateComponentRequest) (*models.Component, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := s.checkLevel(req.Level); err != nil {
		return nil, err
	}
	parentID, productID := idOf(req.ParentID), idOf(req.ProductID)
	if req.Level > 1 && parentID == 0 {
		return nil, utils.NewValidationError(i18n.KeyComponentParentRequired)
	}
	if req.Level == 1 && productID == 0 {
		return nil, utils.NewValidationError(i18n.KeyProductRequired)
	}

	component := &models.Component{
		Name:           req.Name,
		Type:           req.Type,
		Serial:         req.Serial,
		Description:    req.Description,
		Category:       req.Category,
		Level:          req.Level,
		Version:        req.Version,
		Status:         req.Status,
		Situation:      models.SituationGood,
		TemporarilyUse: models.No,
	}
	if req.TemporarilyUse == models.Yes {
		component.TemporarilyUse = models.Yes
		component.Situation = models.SituationDegraded
		if component.Status == "" {
			component.Status = string(models.SituationDegraded)
		}
	}

	err := s.store.Transaction(ctx, func(st repository.Store) error {
		if err := checkComponentSerial(ctx, st, req.Serial, 0); err != nil {
			return err
		}

		if req.Level > 1 {
			parent, err := loadParent(ctx, st, parentID, req.Level)
			if err != nil {
				return err
			}
			component.ParentID = &parent.ID
			if productID == 0 {
				if productID, err = OwningProductID(ctx, st, parent); err != nil {
					return err
				}
			}
		}
		if productID != 0 {
			if err := checkProductExists(ctx, st, productID); err != nil {
				return err
			}
			component.ProductID = &productID
		}
		project, err := productProject(ctx, st, productID)
		if err != nil {
			return err
		}
		if err := requireProjectPm(ctx, st, actor, project); err != nil {
			return err
		}

		if err := st.CreateComponent(ctx, component); err != nil {
			return err
		}
		if err := writeEvent(ctx, st, actor, models.EventTypeComponent, models.EventSubTypeCreate, contentComponentCreated,
			eventRefs{ComponentID: component.ID, ProductID: productID}); err != nil {
			return err
		}
		return s.situation.RefreshProduct(ctx, st, productID)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordOperation("component", "create")
	return component, nil
}

// UpdateComponent applies a partial update. Moving a component carries its
// whole subtree along: descendants follow it to the new product and shift
// level by the same amount, and their issues are re-tagged.
func (s *ComponentService) UpdateComponent(ctx context.Context, actor Actor, req *UpdateComponentRequest) (*models.Component, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var updated *models.Component
	err := s.store.Transaction(ctx, func(st repository.Store) error {
		component, err := st.GetComponent(ctx, req.ComponentID)
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NewNotFoundError(i18n.KeyComponentNotExisted)
		}
		if err != nil {
			return err
		}
		previousProduct, err := OwningProductID(ctx, st, component)
		if err != nil {
			return err
		}
		previousProject, err := productProject(ctx, st, previousProduct)
		if err != nil {
			return err
		}
		if err := requireProjectPm(ctx, st, actor, previousProject); err != nil {
			return err
		}

		subtree, err := st.SubtreeComponentIDs(ctx, component.ID)
		if err != nil {
			return err
		}
		descendants := make([]int64, 0, len(subtree))
		for _, id := range subtree {
			if id != component.ID {
				descendants = append(descendants, id)
			}
		}

		level := component.Level
		if req.Level != nil {
			level = *req.Level
		}
		if err := s.checkLevel(level); err != nil {
			return err
		}
		delta := level - component.Level
		if delta != 0 && len(descendants) > 0 {
			rows, err := st.GetComponents(ctx, descendants)
			if err != nil {
				return err
			}
			for _, d := range rows {
				if err := s.checkLevel(d.Level + delta); err != nil {
					return err
				}
			}
		}

		parentID := component.ParentKey()
		if id := idOf(req.ParentID); id != 0 {
			parentID = id
		}
		productID := component.ProductKey()
		productGiven := idOf(req.ProductID) != 0
		if productGiven {
			productID = idOf(req.ProductID)
		}

		if level == 1 {
			parentID = 0
			if productID == 0 {
				return utils.NewValidationError(i18n.KeyProductRequired)
			}
		} else if parentID == 0 {
			return utils.NewValidationError(i18n.KeyComponentParentRequired)
		}

		if req.Serial != "" && req.Serial != component.Serial {
			if err := checkComponentSerial(ctx, st, req.Serial, component.ID); err != nil {
				return err
			}
			component.Serial = req.Serial
		}

		if parentID != 0 && (parentID != component.ParentKey() || level != component.Level) {
			for _, id := range subtree {
				if id == parentID {
					return utils.NewValidationError(i18n.KeyComponentCycle)
				}
			}
			parent, err := loadParent(ctx, st, parentID, level)
			if err != nil {
				return err
			}
			if !productGiven && parentID != component.ParentKey() {
				inherited, err := OwningProductID(ctx, st, parent)
				if err != nil {
					return err
				}
				if inherited != 0 {
					productID = inherited
				}
			}
		}
		if productID != component.ProductKey() && productID != 0 {
			if err := checkProductExists(ctx, st, productID); err != nil {
				return err
			}
		}

		component.Level = level
		component.ParentID = optionalID(parentID)
		component.ProductID = optionalID(productID)
		if req.Name != "" {
			component.Name = req.Name
		}
		if req.Type != "" {
			component.Type = req.Type
		}
		if req.Description != nil {
			component.Description = *req.Description
		}
		if req.Category != "" {
			component.Category = req.Category
		}
		if req.Version != "" {
			component.Version = req.Version
		}
		if req.Status != "" {
			component.Status = req.Status
		}

		if err := st.SaveComponent(ctx, component); err != nil {
			return err
		}
		if _, err := st.ShiftComponentsLevel(ctx, descendants, delta); err != nil {
			return err
		}

		currentProduct, err := OwningProductID(ctx, st, component)
		if err != nil {
			return err
		}
		if currentProduct != previousProduct {
			project, err := productProject(ctx, st, currentProduct)
			if err != nil {
				return err
			}
			if err := requireProjectPm(ctx, st, actor, project); err != nil {
				return err
			}
			if _, err := st.UpdateComponentsProduct(ctx, descendants, optionalID(currentProduct)); err != nil {
				return err
			}
			if _, err := st.UpdateIssuesProduct(ctx, subtree, optionalID(currentProduct), project); err != nil {
				return err
			}
		}

		if req.TemporarilyUse != "" {
			err = s.situation.ApplyTemporarilyUse(ctx, st, component, req.TemporarilyUse)
		} else {
			err = s.situation.RefreshComponent(ctx, st, component.ID)
		}
		if err != nil {
			return err
		}
		if currentProduct != previousProduct {
			if err := s.situation.RefreshProduct(ctx, st, previousProduct); err != nil {
				return err
			}
		}

		if err := writeEvent(ctx, st, actor, models.EventTypeComponent, models.EventSubTypeEdit, contentComponentUpdated,
			eventRefs{ComponentID: component.ID, ProductID: currentProduct}); err != nil {
			return err
		}

		updated, err = st.GetComponent(ctx, component.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordOperation("component", "update")
	return updated, nil
}

// DeleteComponents removes the given components together with their whole
// subtrees and every issue attached to them. Returns the number of removed
// components.
func (s *ComponentService) DeleteComponents(ctx context.Context, actor Actor, ids []int64) (int64, error) {
	var deleted int64
	err := s.store.Transaction(ctx, func(st repository.Store) error {
		subtree, err := st.SubtreeComponentIDs(ctx, ids...)
		if err != nil {
			return err
		}
		existing, err := st.GetComponents(ctx, subtree)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			return nil
		}

		requested := make(map[int64]bool, len(ids))
		for _, id := range ids {
			requested[id] = true
		}
		existingIDs := make([]int64, len(existing))
		products := make(map[int64]bool)
		for i, c := range existing {
			existingIDs[i] = c.ID
			if c.ProductKey() != 0 {
				products[c.ProductKey()] = true
			}
		}

		if _, err := st.DeleteIssuesByComponents(ctx, existingIDs); err != nil {
			return err
		}
		if deleted, err = st.DeleteComponents(ctx, existingIDs); err != nil {
			return err
		}

		for _, c := range existing {
			if !requested[c.ID] {
				continue
			}
			if err := writeEvent(ctx, st, actor, models.EventTypeComponent, models.EventSubTypeDelete, contentComponentDeleted,
				eventRefs{ComponentID: c.ID, ProductID: c.ProductKey()}); err != nil {
				return err
			}
		}
		for productID := range products {
			if err := s.situation.RefreshProduct(ctx, st, productID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.RecordOperation("component", "delete")
	return deleted, nil
}

func (s *ComponentService) FindComponents(ctx context.Context, filter repository.ComponentFilter) ([]ComponentRow, int64, error) {
	components, total, err := s.store.ListComponents(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]int64, len(components))
	for i, c := range components {
		ids[i] = c.ID
	}
	issues, err := s.store.ListIssuesByComponents(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	byComponent := make(map[int64][]models.Issue)
	for _, issue := range issues {
		byComponent[issue.ComponentKey()] = append(byComponent[issue.ComponentKey()], issue)
	}

	rows := make([]ComponentRow, len(components))
	for i, c := range components {
		rows[i] = ComponentRow{
			Component:   c,
			OrderNumber: filter.Page.OrderNumber(i),
			Issues:      byComponent[c.ID],
		}
		if rows[i].Issues == nil {
			rows[i].Issues = []models.Issue{}
		}
	}
	return rows, total, nil
}

func (s *ComponentService) GetComponentDetail(ctx context.Context, id int64) (*ComponentDetail, error) {
	detail := &ComponentDetail{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.store.GetComponent(gctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NewNotFoundError(i18n.KeyComponentNotExisted)
		}
		detail.Component = c
		return err
	})
	g.Go(func() error {
		var err error
		detail.Events, err = s.store.ListEvents(gctx, repository.EventFilter{ComponentID: id})
		return err
	})
	g.Go(func() error {
		var err error
		detail.Issues, err = s.store.ListIssuesByComponents(gctx, []int64{id})
		return err
	})
	g.Go(func() error {
		var err error
		detail.FullPath, err = s.tree.ComponentPath(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if productID := detail.Component.ProductKey(); productID != 0 {
		product, err := s.store.GetProduct(ctx, productID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if product != nil && product.CustomerID != nil {
			customer, err := s.store.GetCustomer(ctx, *product.CustomerID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			product.Customer = customer
		}
		detail.Component.Product = product
	}
	if detail.Events == nil {
		detail.Events = []models.Event{}
	}
	if detail.Issues == nil {
		detail.Issues = []models.Issue{}
	}
	return detail, nil
}

// GetChildren lists the direct children of id, or every descendant when
// recursive is set.
func (s *ComponentService) GetChildren(ctx context.Context, id int64, recursive bool) ([]models.Component, error) {
	if _, err := s.store.GetComponent(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.NewNotFoundError(i18n.KeyComponentNotExisted)
		}
		return nil, err
	}

	var (
		children []models.Component
		err      error
	)
	if recursive {
		children, err = s.tree.FindDescendants(ctx, id)
	} else {
		children, err = s.store.ListChildComponents(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if children == nil {
		children = []models.Component{}
	}
	return children, nil
}
