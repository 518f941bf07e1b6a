// internal/services/issue_service.go
package services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/prodcare/prodcare-backend/internal/i18n"
	"github.com/prodcare/prodcare-backend/internal/metrics"
	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/repository"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

type IssueService struct {
	store     repository.Store
	situation *SituationService
	tree      *TreeService
}

// IssueFields is shared by create and update. Null and empty-string values
// are ignored, so an update only touches the fields it carries. false and 0
// are real values.
type IssueFields struct {
	ComponentID                *int64                 `json:"componentId"`
	CustomerID                 *int64                 `json:"customerId"`
	ProductID                  *int64                 `json:"productId"`
	AccountID                  string                 `json:"accountId" validate:"max=255"`
	ProjectID                  string                 `json:"projectId" validate:"max=100"`
	ReceptionTime              *utils.FlexTime        `json:"receptionTime"`
	CompletionTime             *utils.FlexTime        `json:"completionTime"`
	HandlingTime               *int64                 `json:"handlingTime"`
	Description                string                 `json:"description"`
	Severity                   string                 `json:"severity" validate:"max=100"`
	Status                     models.IssueStatus     `json:"status" validate:"omitempty,oneof=PROCESSED PROCESSING UNPROCESSED"`
	Type                       models.IssueType       `json:"type" validate:"omitempty,oneof=NEW REOCCURRING"`
	Level                      string                 `json:"level" validate:"max=100"`
	ResponsibleHandlingUnit    string                 `json:"responsibleHandlingUnit" validate:"max=255"`
	ReportingPerson            string                 `json:"reportingPerson" validate:"max=255"`
	RemainStatus               models.RemainStatus    `json:"remainStatus" validate:"omitempty,oneof=DONE REMAIN"`
	OverdueKpi                 *bool                  `json:"overdueKpi"`
	WarrantyStatus             models.WarrantyStatus  `json:"warrantyStatus" validate:"omitempty,oneof=UNDER OVER"`
	OverdueKpiReason           string                 `json:"overdueKpiReason" validate:"max=255"`
	Impact                     models.Impact          `json:"impact" validate:"omitempty,oneof=YES NO RESTRICTION"`
	StopFighting               *bool                  `json:"stopFighting"`
	StopFightingDays           *int64                 `json:"stopFightingDays"`
	UnhandleReason             string                 `json:"unhandleReason" validate:"max=100"`
	UnhandleReasonDescription  string                 `json:"unhandleReasonDescription"`
	ResponsibleType            models.ResponsibleType `json:"responsibleType" validate:"omitempty,oneof=USER ENVIROMENT DESIGN MANUFACTURING MATERIAL UNKNOWN"`
	ResponsibleTypeDescription string                 `json:"responsibleTypeDescription"`
	LetterSendVmc              string                 `json:"letterSendVmc" validate:"max=255"`
	Date                       *utils.FlexTime        `json:"date"`
	MaterialStatus             string                 `json:"materialStatus" validate:"max=255"`
	ProductStatus              string                 `json:"productStatus" validate:"max=255"`
	HandlingPlan               string                 `json:"handlingPlan"`
	HandlingMeasures           string                 `json:"handlingMeasures"`
	ErrorAlert                 string                 `json:"errorAlert" validate:"max=255"`
	KpiH                       *int64                 `json:"kpiH"`
	RepairPart                 string                 `json:"repairPart" validate:"max=255"`
	RepairPartCount            *int                   `json:"repairPartCount"`
	Unit                       string                 `json:"unit" validate:"max=50"`
	ExpDate                    *utils.FlexTime        `json:"expDate"`
	Note                       string                 `json:"note"`
	Price                      string                 `json:"price" validate:"max=100"`
	UnitPrice                  string                 `json:"unitPrice" validate:"max=100"`
	Reason                     string                 `json:"reason"`
	ProductCount               *int64                 `json:"productCount"`
	ScopeOfImpact              string                 `json:"scopeOfImpact" validate:"max=50"`
	ImpactPoint                *int                   `json:"impactPoint"`
	UrgencyLevel               models.UrgencyLevel    `json:"urgencyLevel" validate:"omitempty,oneof=HIGH MEDIUM LOW"`
	UrgencyPoint               *int                   `json:"urgencyPoint"`
	TemporarilyUse             models.YesNo           `json:"temporarilyUse" validate:"omitempty,yesno"`
}

type CreateIssueRequest struct {
	IssueFields
}

type UpdateIssueRequest struct {
	ID int64 `json:"id" validate:"required"`
	IssueFields
}

type IssueRow struct {
	models.Issue
	ComponentPath string `json:"componentPath,omitempty"`
	OrderNumber   int    `json:"orderNumber"`
}

type IssueDetail struct {
	Issue         *models.Issue    `json:"issue"`
	ComponentPath string           `json:"componentPath"`
	Customer      *models.Customer `json:"customer,omitempty"`
	Events        []models.Event   `json:"events"`
}

type IssueReason struct {
	Reason           string                 `json:"reason"`
	ResponsibleType  models.ResponsibleType `json:"responsible_type"`
	Level            string                 `json:"level"`
	Impact           models.Impact          `json:"impact"`
	StopFighting     bool                   `json:"stop_fighting"`
	UnhandleReason   string                 `json:"unhandle_reason"`
	OverdueKpiReason string                 `json:"overdue_kpi_reason"`
	HandlingMeasures string                 `json:"handling_measures"`
	ScopeOfImpact    string                 `json:"scope_of_impact"`
	ImpactPoint      *int                   `json:"impact_point"`
	UrgencyLevel     models.UrgencyLevel    `json:"urgency_level"`
	UrgencyPoint     *int                   `json:"urgency_point"`
}

func NewIssueService(store repository.Store, situation *SituationService, tree *TreeService) *IssueService {
	return &IssueService{store: store, situation: situation, tree: tree}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setID(dst **int64, v *int64) {
	if v != nil && *v != 0 {
		id := *v
		*dst = &id
	}
}

func setTime(dst **time.Time, v *utils.FlexTime) {
	if t := v.Ptr(); t != nil {
		*dst = t
	}
}

func (f *IssueFields) apply(i *models.Issue) {
	setID(&i.ComponentID, f.ComponentID)
	setID(&i.CustomerID, f.CustomerID)
	setID(&i.ProductID, f.ProductID)
	setString(&i.AccountID, f.AccountID)
	setString(&i.ProjectID, f.ProjectID)
	setTime(&i.ReceptionTime, f.ReceptionTime)
	setTime(&i.CompletionTime, f.CompletionTime)
	setTime(&i.Date, f.Date)
	setTime(&i.ExpDate, f.ExpDate)
	if f.HandlingTime != nil {
		i.HandlingTime = f.HandlingTime
	}
	setString(&i.Description, f.Description)
	setString(&i.Severity, f.Severity)
	if f.Status != "" {
		i.Status = f.Status
	}
	if f.Type != "" {
		i.Type = f.Type
	}
	setString(&i.Level, f.Level)
	setString(&i.ResponsibleHandlingUnit, f.ResponsibleHandlingUnit)
	setString(&i.ReportingPerson, f.ReportingPerson)
	if f.RemainStatus != "" {
		i.RemainStatus = f.RemainStatus
	}
	if f.OverdueKpi != nil {
		i.OverdueKpi = f.OverdueKpi
	}
	if f.WarrantyStatus != "" {
		i.WarrantyStatus = f.WarrantyStatus
	}
	setString(&i.OverdueKpiReason, f.OverdueKpiReason)
	if f.Impact != "" {
		i.Impact = f.Impact
	}
	if f.StopFighting != nil {
		i.StopFighting = *f.StopFighting
	}
	if f.StopFightingDays != nil {
		i.StopFightingDays = f.StopFightingDays
	}
	setString(&i.UnhandleReason, f.UnhandleReason)
	setString(&i.UnhandleReasonDescription, f.UnhandleReasonDescription)
	if f.ResponsibleType != "" {
		i.ResponsibleType = f.ResponsibleType
	}
	setString(&i.ResponsibleTypeDescription, f.ResponsibleTypeDescription)
	setString(&i.LetterSendVmc, f.LetterSendVmc)
	setString(&i.MaterialStatus, f.MaterialStatus)
	setString(&i.ProductStatus, f.ProductStatus)
	setString(&i.HandlingPlan, f.HandlingPlan)
	setString(&i.HandlingMeasures, f.HandlingMeasures)
	setString(&i.ErrorAlert, f.ErrorAlert)
	if f.KpiH != nil {
		i.KpiH = f.KpiH
	}
	setString(&i.RepairPart, f.RepairPart)
	if f.RepairPartCount != nil {
		i.RepairPartCount = f.RepairPartCount
	}
	setString(&i.Unit, f.Unit)
	setString(&i.Note, f.Note)
	setString(&i.Price, f.Price)
	setString(&i.UnitPrice, f.UnitPrice)
	setString(&i.Reason, f.Reason)
	if f.ProductCount != nil {
		i.ProductCount = f.ProductCount
	}
	setString(&i.ScopeOfImpact, f.ScopeOfImpact)
	if f.ImpactPoint != nil {
		i.ImpactPoint = f.ImpactPoint
	}
	if f.UrgencyLevel != "" {
		i.UrgencyLevel = f.UrgencyLevel
	}
	if f.UrgencyPoint != nil {
		i.UrgencyPoint = f.UrgencyPoint
	}
	if f.TemporarilyUse != "" {
		i.TemporarilyUse = f.TemporarilyUse
	}
}

// validateIssue checks the invariants on the values that would be stored.
func validateIssue(i *models.Issue) error {
	if i.StopFighting && (i.StopFightingDays == nil || *i.StopFightingDays < 1) {
		return utils.NewValidationError(i18n.KeyInvalidStopFightingDay)
	}
	if i.Status == models.IssueStatusProcessed && i.CompletionTime == nil {
		return utils.NewValidationError(i18n.KeyEmptyCompletionTime)
	}
	return nil
}

// linkIssue checks the component and product an issue points at and fills
// the ids it can derive from them.
func linkIssue(ctx context.Context, st repository.Store, i *models.Issue, deriveProduct bool) (*models.Component, error) {
	var component *models.Component
	if id := i.ComponentKey(); id != 0 {
		c, err := st.GetComponent(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.NewValidationError(i18n.KeyComponentNotExisted)
		}
		if err != nil {
			return nil, err
		}
		component = c
		if deriveProduct {
			productID, err := OwningProductID(ctx, st, c)
			if err != nil {
				return nil, err
			}
			i.ProductID = optionalID(productID)
		}
	}

	if id := i.ProductKey(); id != 0 {
		p, err := st.GetProduct(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.NewValidationError(i18n.KeyProductNotExisted)
		}
		if err != nil {
			return nil, err
		}
		if i.ProjectID == "" {
			i.ProjectID = p.ProjectID
		}
		if i.CustomerID == nil && p.CustomerID != nil {
			customerID := *p.CustomerID
			i.CustomerID = &customerID
		}
	}
	return component, nil
}

// requireIssueProjects checks the project an issue is tagged with and the
// project of the product it belongs to.
func requireIssueProjects(ctx context.Context, st repository.Store, actor Actor, i *models.Issue) error {
	productProj, err := productProject(ctx, st, i.ProductKey())
	if err != nil {
		return err
	}
	return requireProjectPm(ctx, st, actor, i.ProjectID, productProj)
}

func (s *IssueService) CreateIssue(ctx context.Context, actor Actor, req *CreateIssueRequest) (*models.Issue, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	issue := &models.Issue{TemporarilyUse: models.No}
	req.apply(issue)
	if issue.ComponentKey() == 0 && issue.ProductKey() == 0 {
		return nil, utils.NewValidationError(i18n.KeyIssueComponentRequired)
	}
	if err := validateIssue(issue); err != nil {
		return nil, err
	}
	if issue.ReceptionTime == nil {
		now := time.Now()
		issue.ReceptionTime = &now
	}
	if issue.RemainStatus == "" {
		issue.RemainStatus = models.RemainStatusRemain
		if issue.Status == models.IssueStatusProcessed {
			issue.RemainStatus = models.RemainStatusDone
		}
	}
	if issue.AccountID == "" {
		issue.AccountID = actor.Email
	}

	err := s.store.Transaction(ctx, func(st repository.Store) error {
		component, err := linkIssue(ctx, st, issue, issue.ProductKey() == 0)
		if err != nil {
			return err
		}
		if err := requireIssueProjects(ctx, st, actor, issue); err != nil {
			return err
		}
		if component != nil && req.TemporarilyUse == "" {
			issue.TemporarilyUse = component.TemporarilyUse
		}

		if err := st.CreateIssue(ctx, issue); err != nil {
			return err
		}
		if err := writeEvent(ctx, st, actor, models.EventTypeIssue, models.EventSubTypeCreate, contentIssueCreated, eventRefs{
			ProjectID:   issue.ProjectID,
			IssueID:     issue.ID,
			ProductID:   issue.ProductKey(),
			ComponentID: issue.ComponentKey(),
		}); err != nil {
			return err
		}
		if issue.ComponentKey() == 0 {
			return nil
		}
		return s.situation.RefreshComponent(ctx, st, issue.ComponentKey())
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordOperation("issue", "create")
	return issue, nil
}

func (s *IssueService) UpdateIssue(ctx context.Context, actor Actor, req *UpdateIssueRequest) (*models.Issue, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var updated *models.Issue
	err := s.store.Transaction(ctx, func(st repository.Store) error {
		issue, err := st.GetIssue(ctx, req.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NewNotFoundError(i18n.KeyIssueNotExisted)
		}
		if err != nil {
			return err
		}
		previousComponent := issue.ComponentKey()
		if err := requireIssueProjects(ctx, st, actor, issue); err != nil {
			return err
		}

		req.apply(issue)
		if err := validateIssue(issue); err != nil {
			return err
		}

		componentMoved := issue.ComponentKey() != previousComponent
		if _, err := linkIssue(ctx, st, issue, componentMoved && idOf(req.ProductID) == 0); err != nil {
			return err
		}
		if err := requireIssueProjects(ctx, st, actor, issue); err != nil {
			return err
		}

		if err := st.SaveIssue(ctx, issue); err != nil {
			return err
		}
		if err := writeEvent(ctx, st, actor, models.EventTypeIssue, models.EventSubTypeEdit, contentIssueUpdated, eventRefs{
			ProjectID:   issue.ProjectID,
			IssueID:     issue.ID,
			ProductID:   issue.ProductKey(),
			ComponentID: issue.ComponentKey(),
		}); err != nil {
			return err
		}

		if id := issue.ComponentKey(); id != 0 {
			if err := s.situation.RefreshComponent(ctx, st, id); err != nil {
				return err
			}
		}
		if componentMoved && previousComponent != 0 {
			if err := s.situation.RefreshComponent(ctx, st, previousComponent); err != nil {
				return err
			}
		}
		updated = issue
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordOperation("issue", "update")
	return updated, nil
}

// DeleteIssues removes the listed issues and refreshes every component they
// were attached to. Components that no longer exist are skipped.
func (s *IssueService) DeleteIssues(ctx context.Context, actor Actor, ids []int64) (int64, error) {
	var deleted int64
	err := s.store.Transaction(ctx, func(st repository.Store) error {
		issues, err := st.GetIssues(ctx, ids)
		if err != nil {
			return err
		}
		if deleted, err = st.DeleteIssues(ctx, ids); err != nil {
			return err
		}

		var components []int64
		seen := make(map[int64]bool)
		for _, issue := range issues {
			if err := writeEvent(ctx, st, actor, models.EventTypeIssue, models.EventSubTypeDelete, contentIssueDeleted, eventRefs{
				ProjectID:   issue.ProjectID,
				IssueID:     issue.ID,
				ProductID:   issue.ProductKey(),
				ComponentID: issue.ComponentKey(),
			}); err != nil {
				return err
			}
			if id := issue.ComponentKey(); id != 0 && !seen[id] {
				seen[id] = true
				components = append(components, id)
			}
		}
		for _, id := range components {
			if err := s.situation.RefreshComponent(ctx, st, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.RecordOperation("issue", "delete")
	return deleted, nil
}

// FindIssues lists issues. A non-zero componentID restricts the result to
// issues attached anywhere in that component's subtree.
func (s *IssueService) FindIssues(ctx context.Context, filter repository.IssueFilter, componentID int64) ([]IssueRow, int64, error) {
	if componentID != 0 {
		ids, err := s.tree.SubtreeIDs(ctx, componentID)
		if err != nil {
			return nil, 0, err
		}
		filter.ComponentIDs = ids
	}

	issues, total, err := s.store.ListIssues(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	paths := s.tree.NewPathResolver()
	rows := make([]IssueRow, len(issues))
	for i, issue := range issues {
		rows[i] = IssueRow{Issue: issue, OrderNumber: filter.Page.OrderNumber(i)}
		if id := issue.ComponentKey(); id != 0 {
			if rows[i].ComponentPath, err = paths.Path(ctx, id); err != nil {
				return nil, 0, err
			}
		}
	}
	return rows, total, nil
}

func (s *IssueService) GetIssueDetail(ctx context.Context, id int64) (*IssueDetail, error) {
	detail := &IssueDetail{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		issue, err := s.store.GetIssue(gctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NewNotFoundError(i18n.KeyIssueNotExisted)
		}
		detail.Issue = issue
		return err
	})
	g.Go(func() error {
		var err error
		detail.Events, err = s.store.ListEvents(gctx, repository.EventFilter{IssueID: id})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	issue := detail.Issue
	g, gctx = errgroup.WithContext(ctx)
	if componentID := issue.ComponentKey(); componentID != 0 {
		g.Go(func() error {
			c, err := s.store.GetComponent(gctx, componentID)
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			issue.Component = c
			return err
		})
		g.Go(func() error {
			var err error
			detail.ComponentPath, err = s.tree.ComponentPath(gctx, componentID)
			return err
		})
	}
	if productID := issue.ProductKey(); productID != 0 {
		g.Go(func() error {
			p, err := s.store.GetProduct(gctx, productID)
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			issue.Product = p
			return err
		})
	}
	if issue.CustomerID != nil {
		customerID := *issue.CustomerID
		g.Go(func() error {
			c, err := s.store.GetCustomer(gctx, customerID)
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			detail.Customer = c
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if detail.Events == nil {
		detail.Events = []models.Event{}
	}
	return detail, nil
}

// ListReasons returns the distinct reasons recorded for a project together
// with the classification of the issue they were first seen on.
func (s *IssueService) ListReasons(ctx context.Context, projectID string) ([]IssueReason, error) {
	issues, err := s.store.ListIssueReasons(ctx, projectID)
	if err != nil {
		return nil, err
	}
	reasons := make([]IssueReason, len(issues))
	for i, issue := range issues {
		reasons[i] = IssueReason{
			Reason:           issue.Reason,
			ResponsibleType:  issue.ResponsibleType,
			Level:            issue.Level,
			Impact:           issue.Impact,
			StopFighting:     issue.StopFighting,
			UnhandleReason:   issue.UnhandleReason,
			OverdueKpiReason: issue.OverdueKpiReason,
			HandlingMeasures: issue.HandlingMeasures,
			ScopeOfImpact:    issue.ScopeOfImpact,
			ImpactPoint:      issue.ImpactPoint,
			UrgencyLevel:     issue.UrgencyLevel,
			UrgencyPoint:     issue.UrgencyPoint,
		}
	}
	return reasons, nil
}
