// internal/repository/memory_store.go
package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/tree"
)

type memoryData struct {
	components map[int64]models.Component
	issues     map[int64]models.Issue
	products   map[int64]models.Product
	events     []models.Event
	accounts   map[string]models.Account
	projects   map[string]models.Project
	customers  map[int64]models.Customer

	componentSeq int64
	issueSeq     int64
	productSeq   int64
	eventSeq     int64
	customerSeq  int64
}

func newMemoryData() *memoryData {
	return &memoryData{
		components: make(map[int64]models.Component),
		issues:     make(map[int64]models.Issue),
		products:   make(map[int64]models.Product),
		accounts:   make(map[string]models.Account),
		projects:   make(map[string]models.Project),
		customers:  make(map[int64]models.Customer),
	}
}

// clone copies the row maps. Rows are values, and the pointer fields they
// hold are never mutated in place, so a shallow copy per row is enough.
func (d *memoryData) clone() *memoryData {
	c := *d
	c.components = make(map[int64]models.Component, len(d.components))
	for k, v := range d.components {
		c.components[k] = v
	}
	c.issues = make(map[int64]models.Issue, len(d.issues))
	for k, v := range d.issues {
		c.issues[k] = v
	}
	c.products = make(map[int64]models.Product, len(d.products))
	for k, v := range d.products {
		c.products[k] = v
	}
	c.events = append([]models.Event(nil), d.events...)
	c.accounts = make(map[string]models.Account, len(d.accounts))
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	c.projects = make(map[string]models.Project, len(d.projects))
	for k, v := range d.projects {
		c.projects[k] = v
	}
	c.customers = make(map[int64]models.Customer, len(d.customers))
	for k, v := range d.customers {
		c.customers[k] = v
	}
	return &c
}

type memoryState struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *memoryData
}

// MemoryStore keeps everything in process memory. Transactions are
// serialised and roll back by restoring a snapshot.
type MemoryStore struct {
	state *memoryState
	inTx  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memoryState{data: newMemoryData()}}
}

func (s *MemoryStore) read(fn func(d *memoryData)) {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	fn(s.state.data)
}

func (s *MemoryStore) write(fn func(d *memoryData)) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	fn(s.state.data)
}

func (s *MemoryStore) Transaction(ctx context.Context, fn func(Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.state.txMu.Lock()
	defer s.state.txMu.Unlock()

	var snapshot *memoryData
	s.read(func(d *memoryData) { snapshot = d.clone() })
	restore := func() {
		s.write(func(d *memoryData) { *d = *snapshot })
	}

	defer func() {
		if r := recover(); r != nil {
			restore()
			panic(r)
		}
	}()

	if err = fn(&MemoryStore{state: s.state, inTx: true}); err != nil {
		restore()
	}
	return err
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func ptrProduct(d *memoryData, id int64) *models.Product {
	if p, ok := d.products[id]; ok {
		return &p
	}
	return nil
}

// Components

func (s *MemoryStore) CreateComponent(ctx context.Context, c *models.Component) error {
	s.write(func(d *memoryData) {
		d.componentSeq++
		c.ID = d.componentSeq
		now := time.Now()
		c.CreatedAt, c.UpdatedAt = now, now
		if c.Situation == "" {
			c.Situation = models.SituationGood
		}
		if c.TemporarilyUse == "" {
			c.TemporarilyUse = models.No
		}
		row := *c
		row.Product = nil
		d.components[c.ID] = row
	})
	return nil
}

func (s *MemoryStore) GetComponent(ctx context.Context, id int64) (*models.Component, error) {
	var (
		c  models.Component
		ok bool
	)
	s.read(func(d *memoryData) { c, ok = d.components[id] })
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) GetComponents(ctx context.Context, ids []int64) ([]models.Component, error) {
	var out []models.Component
	s.read(func(d *memoryData) {
		for id := range idSet(ids) {
			if c, ok := d.components[id]; ok {
				out = append(out, c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) FindComponentBySerial(ctx context.Context, serial string, excludeID int64) (*models.Component, error) {
	var found *models.Component
	s.read(func(d *memoryData) {
		for _, c := range sortedComponents(d) {
			if c.Serial == serial && c.ID != excludeID {
				c := c
				found = &c
				return
			}
		}
	})
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func sortedComponents(d *memoryData) []models.Component {
	out := make([]models.Component, 0, len(d.components))
	for _, c := range d.components {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) SaveComponent(ctx context.Context, c *models.Component) error {
	var err error
	s.write(func(d *memoryData) {
		if _, ok := d.components[c.ID]; !ok {
			err = ErrNotFound
			return
		}
		c.UpdatedAt = time.Now()
		row := *c
		row.Product = nil
		d.components[c.ID] = row
	})
	return err
}

func (s *MemoryStore) DeleteComponents(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	s.write(func(d *memoryData) {
		for id := range idSet(ids) {
			if _, ok := d.components[id]; ok {
				delete(d.components, id)
				n++
			}
		}
	})
	return n, nil
}

func (s *MemoryStore) ListComponents(ctx context.Context, f ComponentFilter) ([]models.Component, int64, error) {
	var matched []models.Component
	s.read(func(d *memoryData) {
		for _, c := range sortedComponents(d) {
			if f.Q != "" && !containsFold(c.Serial, f.Q) && !containsFold(c.Name, f.Q) && !containsFold(c.Version, f.Q) {
				continue
			}
			if f.Type != "" && c.Type != f.Type {
				continue
			}
			if f.Level > 0 && c.Level != f.Level {
				continue
			}
			if f.ParentID > 0 && c.ParentKey() != f.ParentID {
				continue
			}
			if f.ProductID > 0 && c.ProductKey() != f.ProductID {
				continue
			}
			p := ptrProduct(d, c.ProductKey())
			if f.ProjectID != "" && (p == nil || p.ProjectID != f.ProjectID) {
				continue
			}
			if f.CustomerID > 0 && (p == nil || p.CustomerID == nil || *p.CustomerID != f.CustomerID) {
				continue
			}
			if f.Status != "" && c.Status != f.Status {
				continue
			}
			if f.Situation != "" && c.Situation != f.Situation {
				continue
			}
			c.Product = p
			matched = append(matched, c)
		}
	})
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ProductKey() > matched[j].ProductKey()
	})
	start, end := f.Page.Window(len(matched))
	return matched[start:end], int64(len(matched)), nil
}

func (s *MemoryStore) ListChildComponents(ctx context.Context, parentID int64) ([]models.Component, error) {
	var out []models.Component
	s.read(func(d *memoryData) {
		for _, c := range sortedComponents(d) {
			if c.ParentKey() == parentID && parentID != 0 {
				out = append(out, c)
			}
		}
	})
	return out, nil
}

func (s *MemoryStore) ListComponentsByProducts(ctx context.Context, productIDs []int64) ([]models.Component, error) {
	set := idSet(productIDs)
	var out []models.Component
	s.read(func(d *memoryData) {
		for _, c := range sortedComponents(d) {
			if set[c.ProductKey()] {
				out = append(out, c)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (s *MemoryStore) SubtreeComponentIDs(ctx context.Context, roots ...int64) ([]int64, error) {
	if len(roots) == 0 {
		return nil, nil
	}
	var t *tree.Tree
	s.read(func(d *memoryData) {
		nodes := make([]tree.Node, 0, len(d.components))
		for _, c := range sortedComponents(d) {
			nodes = append(nodes, tree.Node{ID: c.ID, ParentID: c.ParentKey()})
		}
		t = tree.New(nodes)
	})
	return t.Subtree(roots...), nil
}

func (s *MemoryStore) CountComponentsBySituation(ctx context.Context, productID int64) (map[models.Situation]int64, error) {
	counts := make(map[models.Situation]int64)
	s.read(func(d *memoryData) {
		for _, c := range d.components {
			if c.ProductKey() == productID {
				counts[c.Situation]++
			}
		}
	})
	return counts, nil
}

func (s *MemoryStore) UpdateComponentSituation(ctx context.Context, id int64, situation models.Situation, temporarilyUse *models.YesNo) error {
	s.write(func(d *memoryData) {
		c, ok := d.components[id]
		if !ok {
			return
		}
		c.Situation = situation
		if temporarilyUse != nil {
			c.TemporarilyUse = *temporarilyUse
		}
		c.UpdatedAt = time.Now()
		d.components[id] = c
	})
	return nil
}

func (s *MemoryStore) UpdateComponentsSerial(ctx context.Context, ids []int64, serial string) (int64, error) {
	var n int64
	s.write(func(d *memoryData) {
		for id := range idSet(ids) {
			if c, ok := d.components[id]; ok {
				c.Serial = serial
				c.UpdatedAt = time.Now()
				d.components[id] = c
				n++
			}
		}
	})
	return n, nil
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func (s *MemoryStore) UpdateComponentsProduct(ctx context.Context, ids []int64, productID *int64) (int64, error) {
	var n int64
	s.write(func(d *memoryData) {
		for id := range idSet(ids) {
			if c, ok := d.components[id]; ok {
				c.ProductID = copyID(productID)
				c.UpdatedAt = time.Now()
				d.components[id] = c
				n++
			}
		}
	})
	return n, nil
}

func (s *MemoryStore) ShiftComponentsLevel(ctx context.Context, ids []int64, delta int) (int64, error) {
	if delta == 0 {
		return 0, nil
	}
	var n int64
	s.write(func(d *memoryData) {
		for id := range idSet(ids) {
			if c, ok := d.components[id]; ok {
				c.Level += delta
				c.UpdatedAt = time.Now()
				d.components[id] = c
				n++
			}
		}
	})
	return n, nil
}

// Issues

func sortedIssuesDesc(d *memoryData) []models.Issue {
	out := make([]models.Issue, 0, len(d.issues))
	for _, i := range d.issues {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	return out
}

func (s *MemoryStore) CreateIssue(ctx context.Context, i *models.Issue) error {
	s.write(func(d *memoryData) {
		d.issueSeq++
		i.ID = d.issueSeq
		now := time.Now()
		i.CreatedAt, i.UpdatedAt = now, now
		if i.TemporarilyUse == "" {
			i.TemporarilyUse = models.No
		}
		row := *i
		row.Component, row.Product = nil, nil
		d.issues[i.ID] = row
	})
	return nil
}

func (s *MemoryStore) GetIssue(ctx context.Context, id int64) (*models.Issue, error) {
	var (
		i  models.Issue
		ok bool
	)
	s.read(func(d *memoryData) { i, ok = d.issues[id] })
	if !ok {
		return nil, ErrNotFound
	}
	return &i, nil
}

func (s *MemoryStore) GetIssues(ctx context.Context, ids []int64) ([]models.Issue, error) {
	var out []models.Issue
	s.read(func(d *memoryData) {
		for id := range idSet(ids) {
			if i, ok := d.issues[id]; ok {
				out = append(out, i)
			}
		}
	})
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (s *MemoryStore) SaveIssue(ctx context.Context, i *models.Issue) error {
	var err error
	s.write(func(d *memoryData) {
		if _, ok := d.issues[i.ID]; !ok {
			err = ErrNotFound
			return
		}
		i.UpdatedAt = time.Now()
		row := *i
		row.Component, row.Product = nil, nil
		d.issues[i.ID] = row
	})
	return err
}

func (s *MemoryStore) DeleteIssues(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	s.write(func(d *memoryData) {
		for id := range idSet(ids) {
			if _, ok := d.issues[id]; ok {
				delete(d.issues, id)
				n++
			}
		}
	})
	return n, nil
}

func matchIssue(d *memoryData, i models.Issue, f IssueFilter, components map[int64]bool) bool {
	if f.Q != "" {
		c, ok := d.components[i.ComponentKey()]
		if !ok || !containsFold(c.Serial, f.Q) {
			return false
		}
	}
	switch {
	case f.Status != "" && i.Status != f.Status,
		f.Type != "" && i.Type != f.Type,
		f.RemainStatus != "" && i.RemainStatus != f.RemainStatus,
		f.WarrantyStatus != "" && i.WarrantyStatus != f.WarrantyStatus,
		f.UnhandleReason != "" && i.UnhandleReason != f.UnhandleReason,
		f.ResponsibleType != "" && i.ResponsibleType != f.ResponsibleType,
		f.ProjectID != "" && i.ProjectID != f.ProjectID,
		f.ProductID > 0 && i.ProductKey() != f.ProductID,
		f.AccountID != "" && i.AccountID != f.AccountID,
		f.CustomerID > 0 && (i.CustomerID == nil || *i.CustomerID != f.CustomerID),
		f.StopFighting != nil && i.StopFighting != *f.StopFighting,
		f.Level != "" && i.Level != f.Level:
		return false
	}
	if components != nil && !components[i.ComponentKey()] {
		return false
	}
	if f.StartTime != nil && f.EndTime != nil {
		if i.ReceptionTime == nil || i.ReceptionTime.Before(*f.StartTime) || i.ReceptionTime.After(*f.EndTime) {
			return false
		}
	}
	return true
}

func (s *MemoryStore) ListIssues(ctx context.Context, f IssueFilter) ([]models.Issue, int64, error) {
	var components map[int64]bool
	if f.ComponentIDs != nil {
		components = idSet(f.ComponentIDs)
	}
	var matched []models.Issue
	s.read(func(d *memoryData) {
		for _, i := range sortedIssuesDesc(d) {
			if !matchIssue(d, i, f, components) {
				continue
			}
			if c, ok := d.components[i.ComponentKey()]; ok {
				i.Component = &c
			}
			i.Product = ptrProduct(d, i.ProductKey())
			matched = append(matched, i)
		}
	})
	start, end := f.Page.Window(len(matched))
	return matched[start:end], int64(len(matched)), nil
}

func (s *MemoryStore) ListIssuesByComponents(ctx context.Context, componentIDs []int64) ([]models.Issue, error) {
	set := idSet(componentIDs)
	var out []models.Issue
	s.read(func(d *memoryData) {
		for _, i := range sortedIssuesDesc(d) {
			if i.ComponentID != nil && set[*i.ComponentID] {
				out = append(out, i)
			}
		}
	})
	return out, nil
}

func (s *MemoryStore) ListIssuesByProduct(ctx context.Context, productID int64) ([]models.Issue, error) {
	var out []models.Issue
	s.read(func(d *memoryData) {
		for _, i := range sortedIssuesDesc(d) {
			if i.ProductKey() == productID {
				out = append(out, i)
			}
		}
	})
	return out, nil
}

func (s *MemoryStore) countIssues(componentID int64, match func(models.Issue) bool) int64 {
	var n int64
	s.read(func(d *memoryData) {
		for _, i := range d.issues {
			if i.ComponentID != nil && *i.ComponentID == componentID && match(i) {
				n++
			}
		}
	})
	return n
}

func (s *MemoryStore) CountUnresolvedIssues(ctx context.Context, componentID int64) (int64, error) {
	return s.countIssues(componentID, func(i models.Issue) bool { return i.Unresolved() }), nil
}

func (s *MemoryStore) CountUnresolvedStopFightingIssues(ctx context.Context, componentID int64) (int64, error) {
	return s.countIssues(componentID, func(i models.Issue) bool { return i.Unresolved() && i.StopFighting }), nil
}

func (s *MemoryStore) SetIssuesTemporarilyUse(ctx context.Context, componentID int64, value models.YesNo) error {
	s.write(func(d *memoryData) {
		for id, i := range d.issues {
			if i.ComponentID != nil && *i.ComponentID == componentID {
				i.TemporarilyUse = value
				d.issues[id] = i
			}
		}
	})
	return nil
}

func (s *MemoryStore) deleteIssuesWhere(match func(models.Issue) bool) int64 {
	var n int64
	s.write(func(d *memoryData) {
		for id, i := range d.issues {
			if match(i) {
				delete(d.issues, id)
				n++
			}
		}
	})
	return n
}

func (s *MemoryStore) DeleteIssuesByComponents(ctx context.Context, componentIDs []int64) (int64, error) {
	set := idSet(componentIDs)
	return s.deleteIssuesWhere(func(i models.Issue) bool {
		return i.ComponentID != nil && set[*i.ComponentID]
	}), nil
}

func (s *MemoryStore) DeleteIssuesByProducts(ctx context.Context, productIDs []int64) (int64, error) {
	set := idSet(productIDs)
	return s.deleteIssuesWhere(func(i models.Issue) bool {
		return i.ProductID != nil && set[*i.ProductID]
	}), nil
}

func (s *MemoryStore) UpdateIssuesProduct(ctx context.Context, componentIDs []int64, productID *int64, projectID string) (int64, error) {
	set := idSet(componentIDs)
	var n int64
	s.write(func(d *memoryData) {
		for id, i := range d.issues {
			if i.ComponentID == nil || !set[*i.ComponentID] {
				continue
			}
			i.ProductID = copyID(productID)
			i.ProjectID = projectID
			i.UpdatedAt = time.Now()
			d.issues[id] = i
			n++
		}
	})
	return n, nil
}

func (s *MemoryStore) ListIssueReasons(ctx context.Context, projectID string) ([]models.Issue, error) {
	seen := make(map[string]bool)
	var out []models.Issue
	s.read(func(d *memoryData) {
		for _, i := range sortedIssuesDesc(d) {
			if i.ProjectID != projectID || i.Reason == "" || seen[i.Reason] {
				continue
			}
			seen[i.Reason] = true
			out = append(out, i)
		}
	})
	return out, nil
}

// Products

func (s *MemoryStore) CreateProduct(ctx context.Context, p *models.Product) error {
	s.write(func(d *memoryData) {
		d.productSeq++
		p.ID = d.productSeq
		now := time.Now()
		p.CreatedAt, p.UpdatedAt = now, now
		if p.Situation == "" {
			p.Situation = models.SituationGood
		}
		row := *p
		row.Project, row.Customer = nil, nil
		d.products[p.ID] = row
	})
	return nil
}

func (s *MemoryStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var (
		p  models.Product
		ok bool
	)
	s.read(func(d *memoryData) { p, ok = d.products[id] })
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func sortedProductsDesc(d *memoryData) []models.Product {
	out := make([]models.Product, 0, len(d.products))
	for _, p := range d.products {
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	return out
}

func (s *MemoryStore) FindProductBySerial(ctx context.Context, serial string, excludeID int64) (*models.Product, error) {
	var found *models.Product
	s.read(func(d *memoryData) {
		for _, p := range d.products {
			if p.Serial == serial && p.ID != excludeID {
				p := p
				found = &p
				return
			}
		}
	})
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (s *MemoryStore) SaveProduct(ctx context.Context, p *models.Product) error {
	var err error
	s.write(func(d *memoryData) {
		if _, ok := d.products[p.ID]; !ok {
			err = ErrNotFound
			return
		}
		p.UpdatedAt = time.Now()
		row := *p
		row.Project, row.Customer = nil, nil
		d.products[p.ID] = row
	})
	return err
}

func (s *MemoryStore) DeleteProducts(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	s.write(func(d *memoryData) {
		for id := range idSet(ids) {
			if _, ok := d.products[id]; ok {
				delete(d.products, id)
				n++
			}
		}
	})
	return n, nil
}

func (s *MemoryStore) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	var allowed map[string]bool
	if f.RestrictProjects {
		allowed = make(map[string]bool, len(f.ProjectIDs))
		for _, id := range f.ProjectIDs {
			allowed[id] = true
		}
	}
	var matched []models.Product
	s.read(func(d *memoryData) {
		for _, p := range sortedProductsDesc(d) {
			switch {
			case f.Q != "" && !containsFold(p.Serial, f.Q) && !containsFold(p.Name, f.Q),
				f.Type != "" && p.Type != f.Type,
				f.ProjectID != "" && p.ProjectID != f.ProjectID,
				f.ProductionBatchesID != "" && p.ProductionBatchesID != f.ProductionBatchesID,
				f.CustomerID > 0 && (p.CustomerID == nil || *p.CustomerID != f.CustomerID),
				f.Status != "" && p.Status != f.Status,
				f.Situation != "" && p.Situation != f.Situation,
				allowed != nil && !allowed[p.ProjectID]:
				continue
			}
			if f.StartTime != nil && f.EndTime != nil {
				if p.HandedOverTime == nil || p.HandedOverTime.Before(*f.StartTime) || p.HandedOverTime.After(*f.EndTime) {
					continue
				}
			}
			if pr, ok := d.projects[p.ProjectID]; ok {
				p.Project = &pr
			}
			if p.CustomerID != nil {
				if cu, ok := d.customers[*p.CustomerID]; ok {
					p.Customer = &cu
				}
			}
			matched = append(matched, p)
		}
	})
	start, end := f.Page.Window(len(matched))
	return matched[start:end], int64(len(matched)), nil
}

func (s *MemoryStore) UpdateProductSituation(ctx context.Context, id int64, situation models.Situation) error {
	s.write(func(d *memoryData) {
		if p, ok := d.products[id]; ok {
			p.Situation = situation
			p.UpdatedAt = time.Now()
			d.products[id] = p
		}
	})
	return nil
}

// Reconciler inputs

func (s *MemoryStore) ListIssueStates(ctx context.Context) ([]IssueState, error) {
	var out []IssueState
	s.read(func(d *memoryData) {
		for _, i := range d.issues {
			out = append(out, IssueState{
				ID:           i.ID,
				ComponentID:  i.ComponentKey(),
				ProductID:    i.ProductKey(),
				Status:       i.Status,
				StopFighting: i.StopFighting,
			})
		}
	})
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (s *MemoryStore) ListProductSituations(ctx context.Context) (map[int64]models.Situation, error) {
	out := make(map[int64]models.Situation)
	s.read(func(d *memoryData) {
		for id, p := range d.products {
			out[id] = p.Situation
		}
	})
	return out, nil
}

func (s *MemoryStore) ListComponentSituations(ctx context.Context) (map[int64]models.Situation, error) {
	out := make(map[int64]models.Situation)
	s.read(func(d *memoryData) {
		for id, c := range d.components {
			out[id] = c.Situation
		}
	})
	return out, nil
}

// Events

func (s *MemoryStore) CreateEvent(ctx context.Context, e *models.Event) error {
	s.write(func(d *memoryData) {
		d.eventSeq++
		e.ID = d.eventSeq
		now := time.Now()
		e.CreatedAt, e.UpdatedAt = now, now
		d.events = append(d.events, *e)
	})
	return nil
}

func (s *MemoryStore) ListEvents(ctx context.Context, f EventFilter) ([]models.Event, error) {
	matches := func(want int64, got *int64) bool {
		return want == 0 || (got != nil && *got == want)
	}
	var out []models.Event
	s.read(func(d *memoryData) {
		for _, e := range d.events {
			if matches(f.IssueID, e.IssueID) && matches(f.ProductID, e.ProductID) && matches(f.ComponentID, e.ComponentID) {
				out = append(out, e)
			}
		}
	})
	return out, nil
}

// Accounts, projects, customers

func (s *MemoryStore) CreateAccount(ctx context.Context, a *models.Account) error {
	s.write(func(d *memoryData) { d.accounts[a.Email] = *a })
	return nil
}

func (s *MemoryStore) GetAccount(ctx context.Context, email string) (*models.Account, error) {
	var (
		a  models.Account
		ok bool
	)
	s.read(func(d *memoryData) { a, ok = d.accounts[email] })
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) CountAccountsByRole(ctx context.Context, role models.Role) (int64, error) {
	var n int64
	s.read(func(d *memoryData) {
		for _, a := range d.accounts {
			if a.Role == role {
				n++
			}
		}
	})
	return n, nil
}

func (s *MemoryStore) CreateProject(ctx context.Context, p *models.Project) error {
	s.write(func(d *memoryData) { d.projects[p.ID] = *p })
	return nil
}

func (s *MemoryStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var (
		p  models.Project
		ok bool
	)
	s.read(func(d *memoryData) { p, ok = d.projects[id] })
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) ListProjectIDsByPm(ctx context.Context, email string) ([]string, error) {
	var ids []string
	s.read(func(d *memoryData) {
		for id, p := range d.projects {
			if p.ProjectPm == email {
				ids = append(ids, id)
			}
		}
	})
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) CreateCustomer(ctx context.Context, c *models.Customer) error {
	s.write(func(d *memoryData) {
		d.customerSeq++
		c.ID = d.customerSeq
		d.customers[c.ID] = *c
	})
	return nil
}

func (s *MemoryStore) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var (
		c  models.Customer
		ok bool
	)
	s.read(func(d *memoryData) { c, ok = d.customers[id] })
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*GormStore)(nil)
)
