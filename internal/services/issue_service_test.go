// internal/services/issue_service_test.go
package services

import (
	"time"

	"github.com/prodcare/prodcare-backend/internal/i18n"
	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/repository"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

func (s *ServiceSuite) issueCount() int64 {
	_, total, err := s.store.ListIssues(s.ctx, repository.IssueFilter{})
	s.Require().NoError(err)
	return total
}

func (s *ServiceSuite) TestCreateIssueRejectsZeroStopFightingDays() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")

	_, err := s.issues.CreateIssue(s.ctx, admin, &CreateIssueRequest{IssueFields: IssueFields{
		ComponentID:      int64Ptr(root.ID),
		StopFighting:     boolPtr(true),
		StopFightingDays: int64Ptr(0),
	}})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyInvalidStopFightingDay))

	// days left out entirely
	_, err = s.issues.CreateIssue(s.ctx, admin, &CreateIssueRequest{IssueFields: IssueFields{
		ComponentID:  int64Ptr(root.ID),
		StopFighting: boolPtr(true),
	}})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyInvalidStopFightingDay))

	s.Zero(s.issueCount())
	s.Equal(models.SituationGood, s.componentSituation(root.ID))
}

func (s *ServiceSuite) TestCreateIssueRequiresCompletionTimeWhenProcessed() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")

	_, err := s.issues.CreateIssue(s.ctx, admin, &CreateIssueRequest{IssueFields: IssueFields{
		ComponentID: int64Ptr(root.ID),
		Status:      models.IssueStatusProcessed,
	}})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyEmptyCompletionTime))

	issue, err := s.issues.CreateIssue(s.ctx, admin, &CreateIssueRequest{IssueFields: IssueFields{
		ComponentID:    int64Ptr(root.ID),
		Status:         models.IssueStatusProcessed,
		CompletionTime: flex(time.Now()),
	}})
	s.Require().NoError(err)
	s.Equal(models.RemainStatusDone, issue.RemainStatus)
}

func (s *ServiceSuite) TestCreateIssueDefaults() {
	p, err := s.products.CreateProduct(s.ctx, admin, &CreateProductRequest{
		Serial:        "P-1",
		ProductFields: ProductFields{Name: "Radar", ProjectID: "PRJ-9", CustomerID: int64Ptr(7)},
	})
	s.Require().NoError(err)
	root := s.newRoot(p.ID, "Antenna", "A-1")

	issue := s.newIssue(root.ID, false)
	s.Equal(p.ID, issue.ProductKey())
	s.Equal("PRJ-9", issue.ProjectID)
	s.Require().NotNil(issue.CustomerID)
	s.EqualValues(7, *issue.CustomerID)
	s.Equal(admin.Email, issue.AccountID)
	s.Equal(models.RemainStatusRemain, issue.RemainStatus)
	s.NotNil(issue.ReceptionTime)
	s.Equal(models.No, issue.TemporarilyUse)
}

func (s *ServiceSuite) TestCreateIssueReferences() {
	_, err := s.issues.CreateIssue(s.ctx, admin, &CreateIssueRequest{IssueFields: IssueFields{Description: "orphan"}})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyIssueComponentRequired))

	_, err = s.issues.CreateIssue(s.ctx, admin, &CreateIssueRequest{IssueFields: IssueFields{ComponentID: int64Ptr(404)}})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyComponentNotExisted))

	_, err = s.issues.CreateIssue(s.ctx, admin, &CreateIssueRequest{IssueFields: IssueFields{ProductID: int64Ptr(404)}})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyProductNotExisted))

	// a product-level issue needs no component
	p := s.newProduct("P-1")
	issue, err := s.issues.CreateIssue(s.ctx, admin, &CreateIssueRequest{IssueFields: IssueFields{ProductID: int64Ptr(p.ID)}})
	s.Require().NoError(err)
	s.Zero(issue.ComponentKey())
	s.Equal("PRJ-1", issue.ProjectID)
}

func (s *ServiceSuite) TestUpdateIssueValidatesMergedValues() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	issue := s.newIssue(root.ID, true)

	// stop fighting stays on, so clearing the days is rejected
	_, err := s.issues.UpdateIssue(s.ctx, admin, &UpdateIssueRequest{
		ID:          issue.ID,
		IssueFields: IssueFields{StopFightingDays: int64Ptr(0)},
	})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyInvalidStopFightingDay))

	_, err = s.issues.UpdateIssue(s.ctx, admin, &UpdateIssueRequest{
		ID:          issue.ID,
		IssueFields: IssueFields{Status: models.IssueStatusProcessed},
	})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyEmptyCompletionTime))

	updated, err := s.issues.UpdateIssue(s.ctx, admin, &UpdateIssueRequest{
		ID:          issue.ID,
		IssueFields: IssueFields{StopFighting: boolPtr(false), Note: "downgraded"},
	})
	s.Require().NoError(err)
	s.False(updated.StopFighting)
	s.Equal("downgraded", updated.Note)
	s.Equal("fault", updated.Description)
	s.Equal(models.SituationDegraded, s.componentSituation(root.ID))

	_, err = s.issues.UpdateIssue(s.ctx, admin, &UpdateIssueRequest{ID: 404})
	s.ErrorIs(err, utils.NewNotFoundError(i18n.KeyIssueNotExisted))
}

func (s *ServiceSuite) TestUpdateIssueMovesComponent() {
	p := s.newProduct("P-1")
	a := s.newRoot(p.ID, "Antenna", "A-1")
	b := s.newRoot(p.ID, "Mast", "M-1")
	issue := s.newIssue(a.ID, true)
	s.Require().Equal(models.SituationDefective, s.componentSituation(a.ID))

	_, err := s.issues.UpdateIssue(s.ctx, admin, &UpdateIssueRequest{
		ID:          issue.ID,
		IssueFields: IssueFields{ComponentID: int64Ptr(b.ID)},
	})
	s.Require().NoError(err)

	s.Equal(models.SituationGood, s.componentSituation(a.ID))
	s.Equal(models.SituationDefective, s.componentSituation(b.ID))
	s.Equal(models.SituationDefective, s.productSituation(p.ID))
}

func (s *ServiceSuite) TestDeleteIssuesRefreshesComponents() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	first := s.newIssue(root.ID, true)
	second := s.newIssue(root.ID, false)

	deleted, err := s.issues.DeleteIssues(s.ctx, admin, []int64{first.ID})
	s.Require().NoError(err)
	s.EqualValues(1, deleted)
	s.Equal(models.SituationDegraded, s.componentSituation(root.ID))

	deleted, err = s.issues.DeleteIssues(s.ctx, admin, []int64{second.ID, 404})
	s.Require().NoError(err)
	s.EqualValues(1, deleted)
	s.Equal(models.SituationGood, s.componentSituation(root.ID))
	s.Equal(models.SituationGood, s.productSituation(p.ID))
}

func (s *ServiceSuite) TestDeleteIssuesSkipsMissingComponent() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	issue := s.newIssue(root.ID, false)
	_, err := s.store.DeleteComponents(s.ctx, []int64{root.ID})
	s.Require().NoError(err)

	deleted, err := s.issues.DeleteIssues(s.ctx, admin, []int64{issue.ID})
	s.Require().NoError(err)
	s.EqualValues(1, deleted)
}

func (s *ServiceSuite) TestFindIssuesBySubtree() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	child := s.newChild(root, "Feed", "F-1")
	other := s.newRoot(p.ID, "Mast", "M-1")
	s.newIssue(root.ID, false)
	s.newIssue(child.ID, true)
	s.newIssue(other.ID, false)

	rows, total, err := s.issues.FindIssues(s.ctx, repository.IssueFilter{}, root.ID)
	s.Require().NoError(err)
	s.EqualValues(2, total)
	paths := []string{rows[0].ComponentPath, rows[1].ComponentPath}
	s.ElementsMatch([]string{"Antenna (A-1)", "Antenna (A-1)/Feed (F-1)"}, paths)
	s.Equal(1, rows[0].OrderNumber)
	s.Equal(2, rows[1].OrderNumber)

	rows, total, err = s.issues.FindIssues(s.ctx, repository.IssueFilter{StopFighting: boolPtr(true)}, 0)
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal(child.ID, rows[0].ComponentKey())

	rows, _, err = s.issues.FindIssues(s.ctx, repository.IssueFilter{Q: "m-1"}, 0)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(other.ID, rows[0].ComponentKey())
}

func (s *ServiceSuite) TestIssueDetail() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	issue := s.newIssue(root.ID, false)

	detail, err := s.issues.GetIssueDetail(s.ctx, issue.ID)
	s.Require().NoError(err)
	s.Equal(issue.ID, detail.Issue.ID)
	s.Equal("Antenna (A-1)", detail.ComponentPath)
	s.Len(detail.Events, 1)

	_, err = s.issues.GetIssueDetail(s.ctx, 404)
	s.ErrorIs(err, utils.NewNotFoundError(i18n.KeyIssueNotExisted))
}

func (s *ServiceSuite) TestListReasons() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	for _, reason := range []string{"water", "water", "shock"} {
		_, err := s.issues.CreateIssue(s.ctx, admin, &CreateIssueRequest{IssueFields: IssueFields{
			ComponentID: int64Ptr(root.ID),
			Reason:      reason,
		}})
		s.Require().NoError(err)
	}

	reasons, err := s.issues.ListReasons(s.ctx, "PRJ-1")
	s.Require().NoError(err)
	s.Len(reasons, 2)

	reasons, err = s.issues.ListReasons(s.ctx, "PRJ-2")
	s.Require().NoError(err)
	s.Empty(reasons)
}
