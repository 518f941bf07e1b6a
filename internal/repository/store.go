// internal/repository/store.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

var ErrNotFound = errors.New("record not found")

type ComponentFilter struct {
	Q          string
	Type       models.ComponentType
	Level      int
	ParentID   int64
	ProductID  int64
	ProjectID  string
	CustomerID int64
	Status     string
	Situation  models.Situation
	Page       utils.PageParams
}

type IssueFilter struct {
	Q               string // matched against the component serial
	Status          models.IssueStatus
	Type            models.IssueType
	RemainStatus    models.RemainStatus
	WarrantyStatus  models.WarrantyStatus
	UnhandleReason  string
	ResponsibleType models.ResponsibleType
	ProjectID       string
	ProductID       int64
	AccountID       string
	CustomerID      int64
	ComponentIDs    []int64 // nil means no component restriction
	StopFighting    *bool
	Level           string
	StartTime       *time.Time
	EndTime         *time.Time
	Page            utils.PageParams
}

type ProductFilter struct {
	Q                   string
	Type                models.ProductType
	ProjectID           string
	ProductionBatchesID string
	CustomerID          int64
	Status              string
	Situation           models.Situation
	ProjectIDs          []string // applied when RestrictProjects is set
	RestrictProjects    bool
	StartTime           *time.Time // on handed_over_time
	EndTime             *time.Time
	Page                utils.PageParams
}

type EventFilter struct {
	IssueID     int64
	ProductID   int64
	ComponentID int64
}

// IssueState is the slice of an issue the situation reconciler needs.
type IssueState struct {
	ID           int64
	ComponentID  int64
	ProductID    int64
	Status       models.IssueStatus
	StopFighting bool
}

// Store is the persistence boundary. Implementations return ErrNotFound for
// missing rows looked up by key.
type Store interface {
	// Transaction runs fn against a store bound to one transaction. Nested
	// calls join the outer transaction.
	Transaction(ctx context.Context, fn func(Store) error) error

	CreateComponent(ctx context.Context, c *models.Component) error
	GetComponent(ctx context.Context, id int64) (*models.Component, error)
	GetComponents(ctx context.Context, ids []int64) ([]models.Component, error)
	FindComponentBySerial(ctx context.Context, serial string, excludeID int64) (*models.Component, error)
	SaveComponent(ctx context.Context, c *models.Component) error
	DeleteComponents(ctx context.Context, ids []int64) (int64, error)
	ListComponents(ctx context.Context, f ComponentFilter) ([]models.Component, int64, error)
	ListChildComponents(ctx context.Context, parentID int64) ([]models.Component, error)
	ListComponentsByProducts(ctx context.Context, productIDs []int64) ([]models.Component, error)
	SubtreeComponentIDs(ctx context.Context, roots ...int64) ([]int64, error)
	CountComponentsBySituation(ctx context.Context, productID int64) (map[models.Situation]int64, error)
	UpdateComponentSituation(ctx context.Context, id int64, situation models.Situation, temporarilyUse *models.YesNo) error
	UpdateComponentsSerial(ctx context.Context, ids []int64, serial string) (int64, error)
	UpdateComponentsProduct(ctx context.Context, ids []int64, productID *int64) (int64, error)
	ShiftComponentsLevel(ctx context.Context, ids []int64, delta int) (int64, error)

	CreateIssue(ctx context.Context, i *models.Issue) error
	GetIssue(ctx context.Context, id int64) (*models.Issue, error)
	GetIssues(ctx context.Context, ids []int64) ([]models.Issue, error)
	SaveIssue(ctx context.Context, i *models.Issue) error
	DeleteIssues(ctx context.Context, ids []int64) (int64, error)
	ListIssues(ctx context.Context, f IssueFilter) ([]models.Issue, int64, error)
	ListIssuesByComponents(ctx context.Context, componentIDs []int64) ([]models.Issue, error)
	ListIssuesByProduct(ctx context.Context, productID int64) ([]models.Issue, error)
	CountUnresolvedIssues(ctx context.Context, componentID int64) (int64, error)
	CountUnresolvedStopFightingIssues(ctx context.Context, componentID int64) (int64, error)
	SetIssuesTemporarilyUse(ctx context.Context, componentID int64, value models.YesNo) error
	DeleteIssuesByComponents(ctx context.Context, componentIDs []int64) (int64, error)
	DeleteIssuesByProducts(ctx context.Context, productIDs []int64) (int64, error)
	// UpdateIssuesProduct re-tags the issues of the given components with a
	// product and its project.
	UpdateIssuesProduct(ctx context.Context, componentIDs []int64, productID *int64, projectID string) (int64, error)
	ListIssueReasons(ctx context.Context, projectID string) ([]models.Issue, error)

	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	FindProductBySerial(ctx context.Context, serial string, excludeID int64) (*models.Product, error)
	SaveProduct(ctx context.Context, p *models.Product) error
	DeleteProducts(ctx context.Context, ids []int64) (int64, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int64, error)
	UpdateProductSituation(ctx context.Context, id int64, situation models.Situation) error

	ListIssueStates(ctx context.Context) ([]IssueState, error)
	ListProductSituations(ctx context.Context) (map[int64]models.Situation, error)
	ListComponentSituations(ctx context.Context) (map[int64]models.Situation, error)

	CreateEvent(ctx context.Context, e *models.Event) error
	ListEvents(ctx context.Context, f EventFilter) ([]models.Event, error)

	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccount(ctx context.Context, email string) (*models.Account, error)
	CountAccountsByRole(ctx context.Context, role models.Role) (int64, error)
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjectIDsByPm(ctx context.Context, email string) ([]string, error)
	CreateCustomer(ctx context.Context, c *models.Customer) error
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
}
