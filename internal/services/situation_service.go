// internal/services/situation_service.go
package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/prodcare/prodcare-backend/internal/config"
	"github.com/prodcare/prodcare-backend/internal/metrics"
	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/repository"
	"github.com/prodcare/prodcare-backend/internal/tree"
)

// SituationService derives component and product situations from issues.
// The Refresh* and Apply* methods take the store explicitly so they run
// inside the caller's transaction.
type SituationService struct {
	store  repository.Store
	policy string
}

type ReconcileResult struct {
	Products          int `json:"products"`
	Components        int `json:"components"`
	ProductsChanged   int `json:"productsChanged"`
	ComponentsChanged int `json:"componentsChanged"`
}

type componentState struct {
	Unresolved             int64
	UnresolvedStopFighting int64
	TemporarilyUse         models.YesNo
	Current                models.Situation
}

func NewSituationService(store repository.Store, cfg config.SituationConfig) *SituationService {
	policy := cfg.Policy
	if policy == "" {
		policy = config.PolicyStopFighting
	}
	return &SituationService{store: store, policy: policy}
}

func (s *SituationService) Policy() string {
	return s.policy
}

// deriveComponentSituation returns the next situation and whether
// temporarilyUse must be reset to NO.
func deriveComponentSituation(policy string, st componentState) (models.Situation, bool) {
	if st.Unresolved == 0 {
		return models.SituationGood, true
	}

	if policy == config.PolicyUnresolvedCount {
		if st.TemporarilyUse != models.Yes {
			return models.SituationDefective, false
		}
		if st.Current == "" {
			return models.SituationGood, false
		}
		return st.Current, false
	}

	if st.TemporarilyUse == models.Yes {
		return models.SituationDegraded, false
	}
	if st.UnresolvedStopFighting > 0 {
		return models.SituationDefective, false
	}
	return models.SituationDegraded, false
}

func deriveProductSituation(counts map[models.Situation]int64) models.Situation {
	switch {
	case counts[models.SituationDefective] > 0:
		return models.SituationDefective
	case counts[models.SituationDegraded] > 0:
		return models.SituationDegraded
	default:
		return models.SituationGood
	}
}

// deriveFromIssues is the reconciler rule, applied to one product or component.
func deriveFromIssues(issues []repository.IssueState) models.Situation {
	situation := models.SituationGood
	for _, i := range issues {
		if i.Status.Resolved() {
			continue
		}
		if i.StopFighting {
			return models.SituationDefective
		}
		situation = models.SituationDegraded
	}
	return situation
}

// RefreshComponent recomputes one component and then its owning product.
// A component that no longer exists is skipped.
func (s *SituationService) RefreshComponent(ctx context.Context, st repository.Store, componentID int64) error {
	c, err := st.GetComponent(ctx, componentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	unresolved, err := st.CountUnresolvedIssues(ctx, c.ID)
	if err != nil {
		return err
	}
	var stopFighting int64
	if unresolved > 0 && s.policy == config.PolicyStopFighting {
		if stopFighting, err = st.CountUnresolvedStopFightingIssues(ctx, c.ID); err != nil {
			return err
		}
	}

	next, reset := deriveComponentSituation(s.policy, componentState{
		Unresolved:             unresolved,
		UnresolvedStopFighting: stopFighting,
		TemporarilyUse:         c.TemporarilyUse,
		Current:                c.Situation,
	})

	var temporarilyUse *models.YesNo
	if reset && c.TemporarilyUse != models.No {
		no := models.No
		temporarilyUse = &no
	}
	if next != c.Situation || temporarilyUse != nil {
		if err := st.UpdateComponentSituation(ctx, c.ID, next, temporarilyUse); err != nil {
			return err
		}
		if next != c.Situation {
			s.recordChange("component", c.ID, c.Situation, next)
		}
	}

	return s.refreshOwningProduct(ctx, st, c)
}

// RefreshProduct recomputes a product from the components linked to it by
// product id.
func (s *SituationService) RefreshProduct(ctx context.Context, st repository.Store, productID int64) error {
	if productID == 0 {
		return nil
	}
	p, err := st.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	counts, err := st.CountComponentsBySituation(ctx, productID)
	if err != nil {
		return err
	}
	next := deriveProductSituation(counts)
	if next == p.Situation {
		return nil
	}
	if err := st.UpdateProductSituation(ctx, productID, next); err != nil {
		return err
	}
	s.recordChange("product", productID, p.Situation, next)
	return nil
}

// ApplyTemporarilyUse pushes a temporarilyUse transition down to the
// component's issues and recomputes the affected situations.
func (s *SituationService) ApplyTemporarilyUse(ctx context.Context, st repository.Store, c *models.Component, value models.YesNo) error {
	if err := st.SetIssuesTemporarilyUse(ctx, c.ID, value); err != nil {
		return err
	}

	if value == models.Yes {
		yes := models.Yes
		if err := st.UpdateComponentSituation(ctx, c.ID, models.SituationDegraded, &yes); err != nil {
			return err
		}
		if c.Situation != models.SituationDegraded {
			s.recordChange("component", c.ID, c.Situation, models.SituationDegraded)
		}
		return s.refreshOwningProduct(ctx, st, c)
	}

	no := models.No
	if err := st.UpdateComponentSituation(ctx, c.ID, c.Situation, &no); err != nil {
		return err
	}
	return s.RefreshComponent(ctx, st, c.ID)
}

func (s *SituationService) refreshOwningProduct(ctx context.Context, st repository.Store, c *models.Component) error {
	productID, err := OwningProductID(ctx, st, c)
	if err != nil {
		return err
	}
	return s.RefreshProduct(ctx, st, productID)
}

// OwningProductID is the component's product id, or the first one found
// walking up its ancestors. Zero when no ancestor carries one.
func OwningProductID(ctx context.Context, st repository.Store, c *models.Component) (int64, error) {
	if id := c.ProductKey(); id != 0 {
		return id, nil
	}
	visited := map[int64]bool{c.ID: true}
	parentID := c.ParentKey()
	for depth := 0; parentID != 0 && depth < tree.MaxDepth; depth++ {
		if visited[parentID] {
			return 0, nil
		}
		visited[parentID] = true

		parent, err := st.GetComponent(ctx, parentID)
		if errors.Is(err, repository.ErrNotFound) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		if id := parent.ProductKey(); id != 0 {
			return id, nil
		}
		parentID = parent.ParentKey()
	}
	return 0, nil
}

// Reconcile recomputes every product and component directly from its issues
// and writes the rows whose situation changed in one transaction.
func (s *SituationService) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	start := time.Now()
	result, err := s.reconcile(ctx)
	metrics.RecordReconcile(start, err)
	if err != nil {
		logrus.WithError(err).Error("Situation reconcile failed")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"products":           result.Products,
		"components":         result.Components,
		"products_changed":   result.ProductsChanged,
		"components_changed": result.ComponentsChanged,
		"duration":           time.Since(start).String(),
	}).Info("Situation reconcile finished")
	return result, nil
}

func (s *SituationService) reconcile(ctx context.Context) (*ReconcileResult, error) {
	var (
		issues     []repository.IssueState
		products   map[int64]models.Situation
		components map[int64]models.Situation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		issues, err = s.store.ListIssueStates(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.store.ListProductSituations(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		components, err = s.store.ListComponentSituations(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byProduct := make(map[int64][]repository.IssueState)
	byComponent := make(map[int64][]repository.IssueState)
	for _, i := range issues {
		if i.ProductID != 0 {
			byProduct[i.ProductID] = append(byProduct[i.ProductID], i)
		}
		if i.ComponentID != 0 {
			byComponent[i.ComponentID] = append(byComponent[i.ComponentID], i)
		}
	}

	result := &ReconcileResult{Products: len(products), Components: len(components)}
	err := s.store.Transaction(ctx, func(st repository.Store) error {
		for _, id := range sortedIDs(products) {
			next := deriveFromIssues(byProduct[id])
			if next == products[id] {
				continue
			}
			if err := st.UpdateProductSituation(ctx, id, next); err != nil {
				return err
			}
			s.recordChange("product", id, products[id], next)
			result.ProductsChanged++
		}
		for _, id := range sortedIDs(components) {
			next := deriveFromIssues(byComponent[id])
			if next == components[id] {
				continue
			}
			if err := st.UpdateComponentSituation(ctx, id, next, nil); err != nil {
				return err
			}
			s.recordChange("component", id, components[id], next)
			result.ComponentsChanged++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RunReconciler reconciles on every tick until ctx is done.
func (s *SituationService) RunReconciler(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logrus.WithField("interval", every.String()).Info("Situation reconciler started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// failures are logged by Reconcile; the next tick retries
			_, _ = s.Reconcile(ctx)
		}
	}
}

func (s *SituationService) recordChange(entity string, id int64, from, to models.Situation) {
	metrics.RecordSituationChange(entity, string(to))
	logrus.WithFields(logrus.Fields{
		"entity": entity,
		"id":     id,
		"from":   from,
		"to":     to,
	}).Debug("Situation changed")
}

func sortedIDs(m map[int64]models.Situation) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}
