// internal/services/component_service_test.go
package services

import (
	"github.com/prodcare/prodcare-backend/internal/i18n"
	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/repository"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

func (s *ServiceSuite) TestCreateComponentLevelRules() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")

	_, err := s.components.CreateComponent(s.ctx, admin, &CreateComponentRequest{Name: "Feed", Level: 2})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyComponentParentRequired))

	_, err = s.components.CreateComponent(s.ctx, admin, &CreateComponentRequest{Name: "Antenna", Level: 1})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyProductRequired))

	_, err = s.components.CreateComponent(s.ctx, admin, &CreateComponentRequest{Name: "Deep", Level: 5, ParentID: int64Ptr(root.ID)})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyMaxComponentLevel))

	_, err = s.components.CreateComponent(s.ctx, admin, &CreateComponentRequest{Name: "Zero", Level: 0, ProductID: int64Ptr(p.ID)})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyInvalidComponentLevel))

	// parent must sit exactly one level up
	_, err = s.components.CreateComponent(s.ctx, admin, &CreateComponentRequest{Name: "Skip", Level: 3, ParentID: int64Ptr(root.ID)})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyComponentParentInvalid))

	_, err = s.components.CreateComponent(s.ctx, admin, &CreateComponentRequest{Name: "Ghost", Level: 2, ParentID: int64Ptr(404)})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyComponentNotExisted))

	_, err = s.components.CreateComponent(s.ctx, admin, &CreateComponentRequest{Name: "Lost", Level: 1, ProductID: int64Ptr(404)})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyProductNotExisted))

	_, total, err := s.store.ListComponents(s.ctx, repository.ComponentFilter{})
	s.Require().NoError(err)
	s.EqualValues(1, total)
}

func (s *ServiceSuite) TestCreateComponentRejectsBadType() {
	p := s.newProduct("P-1")
	_, err := s.components.CreateComponent(s.ctx, admin, &CreateComponentRequest{
		Name: "Antenna", Level: 1, ProductID: int64Ptr(p.ID), Type: "FIRMWARE",
	})
	s.Error(err)
}

func (s *ServiceSuite) TestCreateComponentSerialUniqueness() {
	p := s.newProduct("P-1")
	s.newRoot(p.ID, "Antenna", "A-1")

	_, err := s.components.CreateComponent(s.ctx, admin, &CreateComponentRequest{
		Name: "Copy", Serial: "A-1", Level: 1, ProductID: int64Ptr(p.ID),
	})
	s.ErrorIs(err, utils.NewConflictError(i18n.KeyComponentExisted))

	// the missing-serial placeholder may repeat in any spelling
	s.newRoot(p.ID, "Unknown 1", utils.MissingSerial)
	s.newRoot(p.ID, "Unknown 2", "Thieu Serial")
	s.newRoot(p.ID, "Unknown 3", utils.MissingSerial)
}

func (s *ServiceSuite) TestChildInheritsProduct() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	child := s.newChild(root, "Feed", "F-1")
	grandchild := s.newChild(child, "Horn", "H-1")

	s.Equal(p.ID, child.ProductKey())
	s.Equal(p.ID, grandchild.ProductKey())
	s.Equal(3, grandchild.Level)
}

func (s *ServiceSuite) TestCreateTemporarilyUsedComponent() {
	p := s.newProduct("P-1")
	c, err := s.components.CreateComponent(s.ctx, admin, &CreateComponentRequest{
		Name: "Spare", Level: 1, ProductID: int64Ptr(p.ID), TemporarilyUse: models.Yes,
	})
	s.Require().NoError(err)
	s.Equal(models.SituationDegraded, c.Situation)
	s.Equal("DEGRADED", c.Status)
	s.Equal(models.SituationDegraded, s.productSituation(p.ID))
}

func (s *ServiceSuite) TestUpdateComponentRejectsCycle() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	child := s.newChild(root, "Feed", "F-1")
	grandchild := s.newChild(child, "Horn", "H-1")

	// moving the child under its own grandchild
	_, err := s.components.UpdateComponent(s.ctx, admin, &UpdateComponentRequest{
		ComponentID: child.ID,
		Level:       intPtr(4),
		ParentID:    int64Ptr(grandchild.ID),
	})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyComponentCycle))

	stored, err := s.store.GetComponent(s.ctx, child.ID)
	s.Require().NoError(err)
	s.Equal(root.ID, stored.ParentKey())
}

func (s *ServiceSuite) TestUpdateComponentMovesBetweenProducts() {
	p1 := s.newProduct("P-1")
	p2 := s.newProduct("P-2")
	a := s.newRoot(p1.ID, "Antenna", "A-1")
	b := s.newRoot(p2.ID, "Mast", "M-1")
	child := s.newChild(a, "Feed", "F-1")
	s.newIssue(child.ID, true)
	s.Require().Equal(models.SituationDefective, s.productSituation(p1.ID))

	updated, err := s.components.UpdateComponent(s.ctx, admin, &UpdateComponentRequest{
		ComponentID: child.ID,
		ParentID:    int64Ptr(b.ID),
	})
	s.Require().NoError(err)
	s.Equal(b.ID, updated.ParentKey())
	s.Equal(p2.ID, updated.ProductKey())

	s.Equal(models.SituationGood, s.productSituation(p1.ID))
	s.Equal(models.SituationDefective, s.productSituation(p2.ID))
}

func (s *ServiceSuite) TestUpdateComponentCarriesSubtreeToNewProduct() {
	pa := s.newProduct("P-A")
	pb := s.newProduct("P-B")
	ra := s.newRoot(pa.ID, "Antenna", "A-1")
	rb := s.newRoot(pb.ID, "Mast", "M-1")
	mid := s.newChild(ra, "Feed", "F-1")
	leaf := s.newChild(mid, "Horn", "H-1")
	issue := s.newIssue(leaf.ID, true)
	s.Require().Equal(models.SituationDefective, s.productSituation(pa.ID))

	_, err := s.components.UpdateComponent(s.ctx, admin, &UpdateComponentRequest{
		ComponentID: mid.ID,
		ParentID:    int64Ptr(rb.ID),
	})
	s.Require().NoError(err)

	stored, err := s.store.GetComponent(s.ctx, leaf.ID)
	s.Require().NoError(err)
	s.Equal(pb.ID, stored.ProductKey())
	s.Equal(3, stored.Level)

	moved, err := s.store.GetIssue(s.ctx, issue.ID)
	s.Require().NoError(err)
	s.Equal(pb.ID, moved.ProductKey())

	s.Equal(models.SituationGood, s.productSituation(pa.ID))
	s.Equal(models.SituationDefective, s.productSituation(pb.ID))

	// the reconciler agrees with the cascade
	_, err = s.situation.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.SituationGood, s.productSituation(pa.ID))
	s.Equal(models.SituationDefective, s.productSituation(pb.ID))
}

func (s *ServiceSuite) TestUpdateComponentLevelShiftsDescendants() {
	p := s.newProduct("P-1")
	r1 := s.newRoot(p.ID, "Antenna", "A-1")
	r2 := s.newRoot(p.ID, "Mast", "M-1")
	c := s.newChild(r2, "Feed", "F-1")
	g := s.newChild(c, "Horn", "H-1")

	_, err := s.components.UpdateComponent(s.ctx, admin, &UpdateComponentRequest{
		ComponentID: r2.ID,
		Level:       intPtr(2),
		ParentID:    int64Ptr(r1.ID),
	})
	s.Require().NoError(err)

	for _, want := range []struct {
		id, parent int64
		level      int
	}{
		{r2.ID, r1.ID, 2},
		{c.ID, r2.ID, 3},
		{g.ID, c.ID, 4},
	} {
		stored, err := s.store.GetComponent(s.ctx, want.id)
		s.Require().NoError(err)
		s.Equal(want.level, stored.Level)
		s.Equal(want.parent, stored.ParentKey())
	}
}

func (s *ServiceSuite) TestUpdateComponentLevelRespectsMaxDepth() {
	p := s.newProduct("P-1")
	r1 := s.newRoot(p.ID, "Antenna", "A-1")
	r2 := s.newRoot(p.ID, "Mast", "M-1")
	deepest := s.newChild(s.newChild(s.newChild(r2, "Feed", "F-1"), "Horn", "H-1"), "Probe", "P-9")
	s.Require().Equal(4, deepest.Level)

	_, err := s.components.UpdateComponent(s.ctx, admin, &UpdateComponentRequest{
		ComponentID: r2.ID,
		Level:       intPtr(2),
		ParentID:    int64Ptr(r1.ID),
	})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyMaxComponentLevel))

	stored, err := s.store.GetComponent(s.ctx, r2.ID)
	s.Require().NoError(err)
	s.Equal(1, stored.Level)
	s.Zero(stored.ParentKey())
	stored, err = s.store.GetComponent(s.ctx, deepest.ID)
	s.Require().NoError(err)
	s.Equal(4, stored.Level)
}

func (s *ServiceSuite) TestUpdateComponentPartialFields() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")

	updated, err := s.components.UpdateComponent(s.ctx, admin, &UpdateComponentRequest{
		ComponentID: root.ID,
		Version:     "v2",
		Description: new(string),
	})
	s.Require().NoError(err)
	s.Equal("Antenna", updated.Name)
	s.Equal("A-1", updated.Serial)
	s.Equal("v2", updated.Version)
	s.Empty(updated.Description)

	_, err = s.components.UpdateComponent(s.ctx, admin, &UpdateComponentRequest{ComponentID: 404})
	s.ErrorIs(err, utils.NewNotFoundError(i18n.KeyComponentNotExisted))
}

func (s *ServiceSuite) TestDeleteComponentRemovesSubtreeAndIssues() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	child := s.newChild(root, "Feed", "F-1")
	grandchild := s.newChild(child, "Horn", "H-1")
	other := s.newRoot(p.ID, "Mast", "M-1")
	s.newIssue(grandchild.ID, true)
	kept := s.newIssue(other.ID, false)
	s.Require().Equal(models.SituationDefective, s.productSituation(p.ID))

	deleted, err := s.components.DeleteComponents(s.ctx, admin, []int64{root.ID})
	s.Require().NoError(err)
	s.EqualValues(3, deleted)

	for _, id := range []int64{root.ID, child.ID, grandchild.ID} {
		_, err := s.store.GetComponent(s.ctx, id)
		s.ErrorIs(err, repository.ErrNotFound)
	}
	issues, total, err := s.store.ListIssues(s.ctx, repository.IssueFilter{})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal(kept.ID, issues[0].ID)

	s.Equal(models.SituationDegraded, s.productSituation(p.ID))

	events, err := s.store.ListEvents(s.ctx, repository.EventFilter{ComponentID: root.ID})
	s.Require().NoError(err)
	s.NotEmpty(events)
}

func (s *ServiceSuite) TestFindComponentsAttachesIssues() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	s.newRoot(p.ID, "Mast", "M-1")
	s.newIssue(root.ID, false)

	rows, total, err := s.components.FindComponents(s.ctx, repository.ComponentFilter{Q: "ante"})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Require().Len(rows, 1)
	s.Equal(1, rows[0].OrderNumber)
	s.Len(rows[0].Issues, 1)
}

func (s *ServiceSuite) TestComponentDetail() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	child := s.newChild(root, "Feed", "F-1")
	s.newIssue(child.ID, false)

	detail, err := s.components.GetComponentDetail(s.ctx, child.ID)
	s.Require().NoError(err)
	s.Equal("Antenna (A-1)/Feed (F-1)", detail.FullPath)
	s.Len(detail.Issues, 1)
	s.NotEmpty(detail.Events)

	_, err = s.components.GetComponentDetail(s.ctx, 404)
	s.ErrorIs(err, utils.NewNotFoundError(i18n.KeyComponentNotExisted))
}

func (s *ServiceSuite) TestGetChildren() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	child := s.newChild(root, "Feed", "F-1")
	s.newChild(child, "Horn", "H-1")

	direct, err := s.components.GetChildren(s.ctx, root.ID, false)
	s.Require().NoError(err)
	s.Len(direct, 1)

	all, err := s.components.GetChildren(s.ctx, root.ID, true)
	s.Require().NoError(err)
	s.Len(all, 2)

	_, err = s.components.GetChildren(s.ctx, 404, false)
	s.ErrorIs(err, utils.NewNotFoundError(i18n.KeyComponentNotExisted))
}
