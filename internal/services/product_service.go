// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/prodcare/prodcare-backend/internal/i18n"
	"github.com/prodcare/prodcare-backend/internal/metrics"
	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/repository"
	"github.com/prodcare/prodcare-backend/internal/tree"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

type ProductService struct {
	store repository.Store
}

type ProductFields struct {
	Name                string             `json:"name" validate:"max=255"`
	Type                models.ProductType `json:"type" validate:"omitempty,oneof=MANUFACTURING HAND_OVER"`
	ProjectID           string             `json:"projectId" validate:"max=100"`
	ProductionBatchesID string             `json:"productionBatchesId" validate:"max=100"`
	Version             string             `json:"version" validate:"max=100"`
	Status              string             `json:"status" validate:"max=100"`
	MFG                 *utils.FlexTime    `json:"mfg"`
	HandedOverTime      *utils.FlexTime    `json:"handedOverTime"`
	ExpDate             *utils.FlexTime    `json:"expDate"`
	CustomerID          *int64             `json:"customerId"`
	WarrantyStatus      string             `json:"warrantyStatus" validate:"max=50"`
}

type CreateProductRequest struct {
	Serial string `json:"serial" validate:"required,max=255"`
	ProductFields
}

type UpdateProductRequest struct {
	ProductID int64  `json:"productId" validate:"required"`
	Serial    string `json:"serial" validate:"max=255"`
	ProductFields
}

type ProductRow struct {
	models.Product
	OrderNumber    int `json:"orderNumber"`
	ComponentCount int `json:"componentCount"`
}

type ProductDetail struct {
	Product *models.Product `json:"product"`
	Events  []models.Event  `json:"events"`
	Issues  []models.Issue  `json:"issues"`
}

type IssueStatusRow struct {
	ID     int64              `json:"id"`
	Status models.IssueStatus `json:"status"`
}

// TreeNode is one row of the product tree listing.
type TreeNode struct {
	Key      string      `json:"key"`
	Data     interface{} `json:"data"`
	Children []TreeNode  `json:"children"`
}

type ProductNodeData struct {
	models.Product
	OrderNumber int              `json:"orderNumber"`
	Issues      []IssueStatusRow `json:"issues"`
}

type ComponentNodeData struct {
	models.Component
	FullPath string           `json:"fullPath"`
	Count    int              `json:"count"`
	Issues   []IssueStatusRow `json:"issues"`
}

func NewProductService(store repository.Store) *ProductService {
	return &ProductService{store: store}
}

func (f *ProductFields) apply(p *models.Product) {
	setString(&p.Name, f.Name)
	if f.Type != "" {
		p.Type = f.Type
	}
	setString(&p.ProjectID, f.ProjectID)
	setString(&p.ProductionBatchesID, f.ProductionBatchesID)
	setString(&p.Version, f.Version)
	setString(&p.Status, f.Status)
	setTime(&p.MFG, f.MFG)
	setTime(&p.HandedOverTime, f.HandedOverTime)
	setTime(&p.ExpDate, f.ExpDate)
	setID(&p.CustomerID, f.CustomerID)
	setString(&p.WarrantyStatus, f.WarrantyStatus)
}

func validateProduct(p *models.Product) error {
	if p.MFG != nil && p.HandedOverTime != nil && p.MFG.After(*p.HandedOverTime) {
		return utils.NewValidationError(i18n.KeyMfgAfterHandedOver)
	}
	return nil
}

func checkProductSerial(ctx context.Context, st repository.Store, serial string, selfID int64) error {
	_, err := st.FindProductBySerial(ctx, serial, selfID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return utils.NewConflictError(i18n.KeyProductExisted)
}

func (s *ProductService) CreateProduct(ctx context.Context, actor Actor, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	product := &models.Product{Serial: req.Serial, Situation: models.SituationGood}
	req.apply(product)
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	err := s.store.Transaction(ctx, func(st repository.Store) error {
		if err := requireProjectPm(ctx, st, actor, product.ProjectID); err != nil {
			return err
		}
		if err := checkProductSerial(ctx, st, product.Serial, 0); err != nil {
			return err
		}
		if err := st.CreateProduct(ctx, product); err != nil {
			return err
		}
		return writeEvent(ctx, st, actor, models.EventTypeProduct, models.EventSubTypeCreate, contentProductCreated,
			eventRefs{ProjectID: product.ProjectID, ProductID: product.ID})
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordOperation("product", "create")
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, actor Actor, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var updated *models.Product
	err := s.store.Transaction(ctx, func(st repository.Store) error {
		product, err := st.GetProduct(ctx, req.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NewNotFoundError(i18n.KeyProductNotExisted)
		}
		if err != nil {
			return err
		}

		if err := requireProjectPm(ctx, st, actor, product.ProjectID); err != nil {
			return err
		}
		req.apply(product)
		if err := requireProjectPm(ctx, st, actor, product.ProjectID); err != nil {
			return err
		}
		if req.Serial != "" && req.Serial != product.Serial {
			if err := checkProductSerial(ctx, st, req.Serial, product.ID); err != nil {
				return err
			}
			product.Serial = req.Serial
		}
		if err := validateProduct(product); err != nil {
			return err
		}

		if err := st.SaveProduct(ctx, product); err != nil {
			return err
		}
		updated = product
		return writeEvent(ctx, st, actor, models.EventTypeProduct, models.EventSubTypeEdit, contentProductUpdated,
			eventRefs{ProjectID: product.ProjectID, ProductID: product.ID})
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordOperation("product", "update")
	return updated, nil
}

// DeleteProducts removes the products, every component tree hanging off
// them and all related issues.
func (s *ProductService) DeleteProducts(ctx context.Context, actor Actor, ids []int64) (int64, error) {
	var deleted int64
	err := s.store.Transaction(ctx, func(st repository.Store) error {
		components, err := st.ListComponentsByProducts(ctx, ids)
		if err != nil {
			return err
		}
		roots := make([]int64, len(components))
		for i, c := range components {
			roots[i] = c.ID
		}
		subtree, err := st.SubtreeComponentIDs(ctx, roots...)
		if err != nil {
			return err
		}

		if _, err := st.DeleteIssuesByComponents(ctx, subtree); err != nil {
			return err
		}
		if _, err := st.DeleteIssuesByProducts(ctx, ids); err != nil {
			return err
		}
		if _, err := st.DeleteComponents(ctx, subtree); err != nil {
			return err
		}

		for _, id := range ids {
			p, err := st.GetProduct(ctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := writeEvent(ctx, st, actor, models.EventTypeProduct, models.EventSubTypeDelete, contentProductDeleted,
				eventRefs{ProjectID: p.ProjectID, ProductID: p.ID}); err != nil {
				return err
			}
		}

		deleted, err = st.DeleteProducts(ctx, ids)
		return err
	})
	if err != nil {
		return 0, err
	}

	metrics.RecordOperation("product", "delete")
	return deleted, nil
}

// scope narrows a listing to the projects a USER manages.
func (s *ProductService) scope(ctx context.Context, actor Actor, filter *repository.ProductFilter) error {
	if !actor.IsUser() {
		return nil
	}
	projectIDs, err := s.store.ListProjectIDsByPm(ctx, actor.Email)
	if err != nil {
		return err
	}
	filter.RestrictProjects = true
	filter.ProjectIDs = projectIDs
	return nil
}

func (s *ProductService) FindProducts(ctx context.Context, actor Actor, filter repository.ProductFilter) ([]ProductRow, int64, error) {
	if err := s.scope(ctx, actor, &filter); err != nil {
		return nil, 0, err
	}
	products, total, err := s.store.ListProducts(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	components, err := s.store.ListComponentsByProducts(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	counts := make(map[int64]int)
	for _, c := range components {
		counts[c.ProductKey()]++
	}

	rows := make([]ProductRow, len(products))
	for i, p := range products {
		rows[i] = ProductRow{
			Product:        p,
			OrderNumber:    filter.Page.OrderNumber(i),
			ComponentCount: counts[p.ID],
		}
	}
	return rows, total, nil
}

// GetProductTree lists products with their component trees nested below
// them. Each component carries its full path and the number of unresolved
// issues in its subtree.
func (s *ProductService) GetProductTree(ctx context.Context, actor Actor, filter repository.ProductFilter) ([]TreeNode, int64, error) {
	if err := s.scope(ctx, actor, &filter); err != nil {
		return nil, 0, err
	}
	products, total, err := s.store.ListProducts(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if len(products) == 0 {
		return []TreeNode{}, total, nil
	}

	productIDs := make([]int64, len(products))
	for i, p := range products {
		productIDs[i] = p.ID
	}
	linked, err := s.store.ListComponentsByProducts(ctx, productIDs)
	if err != nil {
		return nil, 0, err
	}
	rootsByProduct := make(map[int64][]int64)
	var rootIDs []int64
	for _, c := range linked {
		if c.ParentKey() == 0 {
			rootsByProduct[c.ProductKey()] = append(rootsByProduct[c.ProductKey()], c.ID)
			rootIDs = append(rootIDs, c.ID)
		}
	}

	subtree, err := s.store.SubtreeComponentIDs(ctx, rootIDs...)
	if err != nil {
		return nil, 0, err
	}
	components, err := s.store.GetComponents(ctx, subtree)
	if err != nil {
		return nil, 0, err
	}

	var (
		componentIssues []models.Issue
		productIssues   = make([][]models.Issue, len(products))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		componentIssues, err = s.store.ListIssuesByComponents(gctx, subtree)
		return err
	})
	for i, p := range products {
		i, productID := i, p.ID
		g.Go(func() error {
			var err error
			productIssues[i], err = s.store.ListIssuesByProduct(gctx, productID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	b := newTreeBuilder(components, componentIssues)
	nodes := make([]TreeNode, len(products))
	for i, p := range products {
		nodes[i] = TreeNode{
			Key: b.nextKey(),
			Data: ProductNodeData{
				Product:     p,
				OrderNumber: filter.Page.OrderNumber(i),
				Issues:      issueStatuses(productIssues[i]),
			},
			Children: b.build(rootsByProduct[p.ID]),
		}
	}
	return nodes, total, nil
}

type treeBuilder struct {
	arena      *tree.Tree
	components map[int64]models.Component
	issues     map[int64][]IssueStatusRow
	unresolved map[int64]int
	keys       int
}

func newTreeBuilder(components []models.Component, issues []models.Issue) *treeBuilder {
	b := &treeBuilder{
		components: make(map[int64]models.Component, len(components)),
		issues:     make(map[int64][]IssueStatusRow),
		unresolved: make(map[int64]int),
	}
	nodes := make([]tree.Node, len(components))
	for i, c := range components {
		b.components[c.ID] = c
		nodes[i] = tree.Node{ID: c.ID, ParentID: c.ParentKey()}
	}
	b.arena = tree.New(nodes)
	for _, issue := range issues {
		id := issue.ComponentKey()
		b.issues[id] = append(b.issues[id], IssueStatusRow{ID: issue.ID, Status: issue.Status})
		if issue.Unresolved() {
			b.unresolved[id]++
		}
	}
	return b
}

func (b *treeBuilder) nextKey() string {
	b.keys++
	return strconv.Itoa(b.keys)
}

func (b *treeBuilder) build(ids []int64) []TreeNode {
	return b.buildLevel(ids, map[int64]bool{})
}

func (b *treeBuilder) buildLevel(ids []int64, visited map[int64]bool) []TreeNode {
	nodes := make([]TreeNode, 0, len(ids))
	for _, id := range ids {
		c, ok := b.components[id]
		if !ok || visited[id] {
			continue
		}
		visited[id] = true
		nodes = append(nodes, TreeNode{
			Key: b.nextKey(),
			Data: ComponentNodeData{
				Component: c,
				FullPath:  b.fullPath(id),
				Count:     b.countUnresolved(id),
				Issues:    nonNilStatuses(b.issues[id]),
			},
			Children: b.buildLevel(b.arena.Children(id), visited),
		})
	}
	return nodes
}

func (b *treeBuilder) fullPath(id int64) string {
	path := ""
	for i, member := range b.arena.Path(id) {
		c := b.components[member]
		if i > 0 {
			path += pathSeparator
		}
		path += pathSegment(&c)
	}
	return path
}

func (b *treeBuilder) countUnresolved(id int64) int {
	count := b.unresolved[id]
	for _, d := range b.arena.Descendants(id) {
		count += b.unresolved[d]
	}
	return count
}

func issueStatuses(issues []models.Issue) []IssueStatusRow {
	rows := make([]IssueStatusRow, len(issues))
	for i, issue := range issues {
		rows[i] = IssueStatusRow{ID: issue.ID, Status: issue.Status}
	}
	return rows
}

func nonNilStatuses(rows []IssueStatusRow) []IssueStatusRow {
	if rows == nil {
		return []IssueStatusRow{}
	}
	return rows
}

func (s *ProductService) GetProductDetail(ctx context.Context, id int64) (*ProductDetail, error) {
	detail := &ProductDetail{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.store.GetProduct(gctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NewNotFoundError(i18n.KeyProductNotExisted)
		}
		detail.Product = p
		return err
	})
	g.Go(func() error {
		var err error
		detail.Events, err = s.store.ListEvents(gctx, repository.EventFilter{ProductID: id})
		return err
	})
	g.Go(func() error {
		var err error
		detail.Issues, err = s.store.ListIssuesByProduct(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	product := detail.Product
	if product.ProjectID != "" {
		project, err := s.store.GetProject(ctx, product.ProjectID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		product.Project = project
	}
	if product.CustomerID != nil {
		customer, err := s.store.GetCustomer(ctx, *product.CustomerID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		product.Customer = customer
	}
	if detail.Events == nil {
		detail.Events = []models.Event{}
	}
	if detail.Issues == nil {
		detail.Issues = []models.Issue{}
	}
	return detail, nil
}
