// internal/repository/gorm_store.go
package repository

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/prodcare/prodcare-backend/internal/database"
	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

// subtreeSQL collects the requested roots and every component below them.
// UNION (not UNION ALL) discards revisited rows, so a corrupted cycle terminates.
const subtreeSQL = `
WITH RECURSIVE component_tree AS (
	SELECT id FROM components WHERE id = ANY(?)
	UNION
	SELECT c.id FROM components c
	INNER JOIN component_tree ct ON c.parent_id = ct.id
)
SELECT id FROM component_tree`

type GormStore struct {
	db   *gorm.DB
	inTx bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return database.WithTransaction(s.conn(ctx), func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
}

// Components

func (s *GormStore) CreateComponent(ctx context.Context, c *models.Component) error {
	return s.conn(ctx).Omit("Product").Create(c).Error
}

func (s *GormStore) GetComponent(ctx context.Context, id int64) (*models.Component, error) {
	var c models.Component
	if err := s.conn(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) GetComponents(ctx context.Context, ids []int64) ([]models.Component, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.Component
	err := s.conn(ctx).Where("id IN ?", ids).Order("id ASC").Find(&out).Error
	return out, err
}

func (s *GormStore) FindComponentBySerial(ctx context.Context, serial string, excludeID int64) (*models.Component, error) {
	q := s.conn(ctx).Where("serial = ?", serial)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var c models.Component
	if err := q.First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) SaveComponent(ctx context.Context, c *models.Component) error {
	return s.conn(ctx).Omit("Product").Save(c).Error
}

func (s *GormStore) DeleteComponents(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.conn(ctx).Where("id IN ?", ids).Delete(&models.Component{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) ListComponents(ctx context.Context, f ComponentFilter) ([]models.Component, int64, error) {
	q := s.conn(ctx).Model(&models.Component{})
	if f.Q != "" {
		like := "%" + f.Q + "%"
		q = q.Where("serial ILIKE ? OR name ILIKE ? OR version ILIKE ?", like, like, like)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Level > 0 {
		q = q.Where("level = ?", f.Level)
	}
	if f.ParentID > 0 {
		q = q.Where("parent_id = ?", f.ParentID)
	}
	if f.ProductID > 0 {
		q = q.Where("product_id = ?", f.ProductID)
	}
	if f.ProjectID != "" {
		q = q.Where("product_id IN (?)", s.db.Model(&models.Product{}).Select("id").Where("project_id = ?", f.ProjectID))
	}
	if f.CustomerID > 0 {
		q = q.Where("product_id IN (?)", s.db.Model(&models.Product{}).Select("id").Where("customer_id = ?", f.CustomerID))
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Situation != "" {
		q = q.Where("situation = ?", f.Situation)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Component
	err := utils.ApplyPagination(q.Preload("Product").Order("product_id DESC").Order("id ASC"), f.Page).Find(&out).Error
	return out, total, err
}

func (s *GormStore) ListChildComponents(ctx context.Context, parentID int64) ([]models.Component, error) {
	var out []models.Component
	err := s.conn(ctx).Where("parent_id = ?", parentID).Order("id ASC").Find(&out).Error
	return out, err
}

func (s *GormStore) ListComponentsByProducts(ctx context.Context, productIDs []int64) ([]models.Component, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var out []models.Component
	err := s.conn(ctx).Where("product_id IN ?", productIDs).Order("level ASC").Order("id ASC").Find(&out).Error
	return out, err
}

func (s *GormStore) SubtreeComponentIDs(ctx context.Context, roots ...int64) ([]int64, error) {
	if len(roots) == 0 {
		return nil, nil
	}
	var found []int64
	if err := s.conn(ctx).Raw(subtreeSQL, pq.Array(roots)).Scan(&found).Error; err != nil {
		return nil, err
	}
	return withRoots(roots, found), nil
}

// withRoots puts every requested root first, then the remaining ids once.
func withRoots(roots, ids []int64) []int64 {
	seen := make(map[int64]bool, len(roots)+len(ids))
	out := make([]int64, 0, len(roots)+len(ids))
	for _, list := range [][]int64{roots, ids} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

func (s *GormStore) CountComponentsBySituation(ctx context.Context, productID int64) (map[models.Situation]int64, error) {
	var rows []struct {
		Situation models.Situation
		Count     int64
	}
	err := s.conn(ctx).Model(&models.Component{}).
		Select("situation, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Group("situation").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.Situation]int64, len(rows))
	for _, r := range rows {
		counts[r.Situation] = r.Count
	}
	return counts, nil
}

func (s *GormStore) UpdateComponentSituation(ctx context.Context, id int64, situation models.Situation, temporarilyUse *models.YesNo) error {
	updates := map[string]interface{}{"situation": situation}
	if temporarilyUse != nil {
		updates["temporarily_use"] = *temporarilyUse
	}
	return s.conn(ctx).Model(&models.Component{}).Where("id = ?", id).Updates(updates).Error
}

func (s *GormStore) UpdateComponentsSerial(ctx context.Context, ids []int64, serial string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.conn(ctx).Model(&models.Component{}).Where("id IN ?", ids).Update("serial", serial)
	return res.RowsAffected, res.Error
}

func (s *GormStore) UpdateComponentsProduct(ctx context.Context, ids []int64, productID *int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.conn(ctx).Model(&models.Component{}).Where("id IN ?", ids).Update("product_id", productID)
	return res.RowsAffected, res.Error
}

func (s *GormStore) ShiftComponentsLevel(ctx context.Context, ids []int64, delta int) (int64, error) {
	if len(ids) == 0 || delta == 0 {
		return 0, nil
	}
	res := s.conn(ctx).Model(&models.Component{}).Where("id IN ?", ids).
		Update("level", gorm.Expr("level + ?", delta))
	return res.RowsAffected, res.Error
}

// Issues

func (s *GormStore) CreateIssue(ctx context.Context, i *models.Issue) error {
	return s.conn(ctx).Omit("Component", "Product").Create(i).Error
}

func (s *GormStore) GetIssue(ctx context.Context, id int64) (*models.Issue, error) {
	var i models.Issue
	if err := s.conn(ctx).First(&i, id).Error; err != nil {
		return nil, translate(err)
	}
	return &i, nil
}

func (s *GormStore) GetIssues(ctx context.Context, ids []int64) ([]models.Issue, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.Issue
	err := s.conn(ctx).Where("id IN ?", ids).Order("id ASC").Find(&out).Error
	return out, err
}

func (s *GormStore) SaveIssue(ctx context.Context, i *models.Issue) error {
	return s.conn(ctx).Omit("Component", "Product").Save(i).Error
}

func (s *GormStore) DeleteIssues(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.conn(ctx).Where("id IN ?", ids).Delete(&models.Issue{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) ListIssues(ctx context.Context, f IssueFilter) ([]models.Issue, int64, error) {
	q := s.conn(ctx).Model(&models.Issue{})
	if f.Q != "" {
		q = q.Where("component_id IN (?)", s.db.Model(&models.Component{}).Select("id").Where("serial ILIKE ?", "%"+f.Q+"%"))
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.RemainStatus != "" {
		q = q.Where("remain_status = ?", f.RemainStatus)
	}
	if f.WarrantyStatus != "" {
		q = q.Where("warranty_status = ?", f.WarrantyStatus)
	}
	if f.UnhandleReason != "" {
		q = q.Where("unhandle_reason = ?", f.UnhandleReason)
	}
	if f.ResponsibleType != "" {
		q = q.Where("responsible_type = ?", f.ResponsibleType)
	}
	if f.ProjectID != "" {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.ProductID > 0 {
		q = q.Where("product_id = ?", f.ProductID)
	}
	if f.AccountID != "" {
		q = q.Where("account_id = ?", f.AccountID)
	}
	if f.CustomerID > 0 {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.ComponentIDs != nil {
		q = q.Where("component_id IN ?", f.ComponentIDs)
	}
	if f.StopFighting != nil {
		q = q.Where("stop_fighting = ?", *f.StopFighting)
	}
	if f.Level != "" {
		q = q.Where("level = ?", f.Level)
	}
	if f.StartTime != nil && f.EndTime != nil {
		q = q.Where("reception_time BETWEEN ? AND ?", *f.StartTime, *f.EndTime)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Issue
	err := utils.ApplyPagination(q.Preload("Component").Preload("Product").Order("id DESC"), f.Page).Find(&out).Error
	return out, total, err
}

func (s *GormStore) ListIssuesByComponents(ctx context.Context, componentIDs []int64) ([]models.Issue, error) {
	if len(componentIDs) == 0 {
		return nil, nil
	}
	var out []models.Issue
	err := s.conn(ctx).Where("component_id IN ?", componentIDs).Order("id DESC").Find(&out).Error
	return out, err
}

func (s *GormStore) ListIssuesByProduct(ctx context.Context, productID int64) ([]models.Issue, error) {
	var out []models.Issue
	err := s.conn(ctx).Where("product_id = ?", productID).Order("id DESC").Find(&out).Error
	return out, err
}

func (s *GormStore) unresolved(ctx context.Context, componentID int64) *gorm.DB {
	return s.conn(ctx).Model(&models.Issue{}).
		Where("component_id = ?", componentID).
		Where("(status IS NULL OR status <> ?)", models.IssueStatusProcessed)
}

func (s *GormStore) CountUnresolvedIssues(ctx context.Context, componentID int64) (int64, error) {
	var n int64
	err := s.unresolved(ctx, componentID).Count(&n).Error
	return n, err
}

func (s *GormStore) CountUnresolvedStopFightingIssues(ctx context.Context, componentID int64) (int64, error) {
	var n int64
	err := s.unresolved(ctx, componentID).Where("stop_fighting = ?", true).Count(&n).Error
	return n, err
}

func (s *GormStore) SetIssuesTemporarilyUse(ctx context.Context, componentID int64, value models.YesNo) error {
	return s.conn(ctx).Model(&models.Issue{}).Where("component_id = ?", componentID).Update("temporarily_use", value).Error
}

func (s *GormStore) DeleteIssuesByComponents(ctx context.Context, componentIDs []int64) (int64, error) {
	if len(componentIDs) == 0 {
		return 0, nil
	}
	res := s.conn(ctx).Where("component_id IN ?", componentIDs).Delete(&models.Issue{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) DeleteIssuesByProducts(ctx context.Context, productIDs []int64) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	res := s.conn(ctx).Where("product_id IN ?", productIDs).Delete(&models.Issue{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) UpdateIssuesProduct(ctx context.Context, componentIDs []int64, productID *int64, projectID string) (int64, error) {
	if len(componentIDs) == 0 {
		return 0, nil
	}
	res := s.conn(ctx).Model(&models.Issue{}).Where("component_id IN ?", componentIDs).
		Updates(map[string]interface{}{"product_id": productID, "project_id": projectID})
	return res.RowsAffected, res.Error
}

// ListIssueReasons returns the latest issue for every distinct reason in a project.
func (s *GormStore) ListIssueReasons(ctx context.Context, projectID string) ([]models.Issue, error) {
	latest := s.db.Model(&models.Issue{}).
		Select("MAX(id)").
		Where("project_id = ? AND reason IS NOT NULL AND reason <> ''", projectID).
		Group("reason")
	var out []models.Issue
	err := s.conn(ctx).Where("id IN (?)", latest).Order("id DESC").Find(&out).Error
	return out, err
}

// Products

func (s *GormStore) CreateProduct(ctx context.Context, p *models.Product) error {
	return s.conn(ctx).Omit("Project", "Customer").Create(p).Error
}

func (s *GormStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	if err := s.conn(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) FindProductBySerial(ctx context.Context, serial string, excludeID int64) (*models.Product, error) {
	q := s.conn(ctx).Where("serial = ?", serial)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var p models.Product
	if err := q.First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) SaveProduct(ctx context.Context, p *models.Product) error {
	return s.conn(ctx).Omit("Project", "Customer").Save(p).Error
}

func (s *GormStore) DeleteProducts(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.conn(ctx).Where("id IN ?", ids).Delete(&models.Product{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	q := s.conn(ctx).Model(&models.Product{})
	if f.Q != "" {
		like := "%" + f.Q + "%"
		q = q.Where("serial ILIKE ? OR name ILIKE ?", like, like)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.ProjectID != "" {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.ProductionBatchesID != "" {
		q = q.Where("production_batches_id = ?", f.ProductionBatchesID)
	}
	if f.CustomerID > 0 {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Situation != "" {
		q = q.Where("situation = ?", f.Situation)
	}
	if f.RestrictProjects {
		if len(f.ProjectIDs) == 0 {
			return nil, 0, nil
		}
		q = q.Where("project_id IN ?", f.ProjectIDs)
	}
	if f.StartTime != nil && f.EndTime != nil {
		q = q.Where("handed_over_time BETWEEN ? AND ?", *f.StartTime, *f.EndTime)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Product
	err := utils.ApplyPagination(q.Preload("Project").Preload("Customer").Order("id DESC"), f.Page).Find(&out).Error
	return out, total, err
}

func (s *GormStore) UpdateProductSituation(ctx context.Context, id int64, situation models.Situation) error {
	return s.conn(ctx).Model(&models.Product{}).Where("id = ?", id).Update("situation", situation).Error
}

// Reconciler inputs

func (s *GormStore) ListIssueStates(ctx context.Context) ([]IssueState, error) {
	var out []IssueState
	err := s.conn(ctx).Model(&models.Issue{}).
		Select("id, COALESCE(component_id, 0) AS component_id, COALESCE(product_id, 0) AS product_id, status, stop_fighting").
		Scan(&out).Error
	return out, err
}

type situationRow struct {
	ID        int64
	Situation models.Situation
}

func (s *GormStore) situations(ctx context.Context, model interface{}) (map[int64]models.Situation, error) {
	var rows []situationRow
	if err := s.conn(ctx).Model(model).Select("id, situation").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]models.Situation, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Situation
	}
	return out, nil
}

func (s *GormStore) ListProductSituations(ctx context.Context) (map[int64]models.Situation, error) {
	return s.situations(ctx, &models.Product{})
}

func (s *GormStore) ListComponentSituations(ctx context.Context) (map[int64]models.Situation, error) {
	return s.situations(ctx, &models.Component{})
}

// Events

func (s *GormStore) CreateEvent(ctx context.Context, e *models.Event) error {
	return s.conn(ctx).Create(e).Error
}

func (s *GormStore) ListEvents(ctx context.Context, f EventFilter) ([]models.Event, error) {
	q := s.conn(ctx).Model(&models.Event{})
	if f.IssueID > 0 {
		q = q.Where("issue_id = ?", f.IssueID)
	}
	if f.ProductID > 0 {
		q = q.Where("product_id = ?", f.ProductID)
	}
	if f.ComponentID > 0 {
		q = q.Where("component_id = ?", f.ComponentID)
	}
	var out []models.Event
	err := q.Order("id ASC").Find(&out).Error
	return out, err
}

// Accounts, projects, customers

func (s *GormStore) CreateAccount(ctx context.Context, a *models.Account) error {
	return s.conn(ctx).Create(a).Error
}

func (s *GormStore) GetAccount(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	if err := s.conn(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *GormStore) CountAccountsByRole(ctx context.Context, role models.Role) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Account{}).Where("role = ?", role).Count(&n).Error
	return n, err
}

func (s *GormStore) CreateProject(ctx context.Context, p *models.Project) error {
	return s.conn(ctx).Create(p).Error
}

func (s *GormStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := s.conn(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) ListProjectIDsByPm(ctx context.Context, email string) ([]string, error) {
	var ids []string
	err := s.conn(ctx).Model(&models.Project{}).Where("project_pm = ?", email).Pluck("id", &ids).Error
	return ids, err
}

func (s *GormStore) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return s.conn(ctx).Create(c).Error
}

func (s *GormStore) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var c models.Customer
	if err := s.conn(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}
