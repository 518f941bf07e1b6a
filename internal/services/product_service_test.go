// internal/services/product_service_test.go
package services

import (
	"time"

	"github.com/prodcare/prodcare-backend/internal/i18n"
	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/repository"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

func (s *ServiceSuite) TestCreateProduct() {
	p := s.newProduct("P-1")
	s.Equal(models.SituationGood, p.Situation)
	s.NotZero(p.ID)

	_, err := s.products.CreateProduct(s.ctx, admin, &CreateProductRequest{Serial: "P-1"})
	s.ErrorIs(err, utils.NewConflictError(i18n.KeyProductExisted))

	_, err = s.products.CreateProduct(s.ctx, admin, &CreateProductRequest{})
	s.Error(err)

	now := time.Now()
	_, err = s.products.CreateProduct(s.ctx, admin, &CreateProductRequest{
		Serial: "P-2",
		ProductFields: ProductFields{
			MFG:            flex(now),
			HandedOverTime: flex(now.AddDate(0, 0, -1)),
		},
	})
	s.ErrorIs(err, utils.NewValidationError(i18n.KeyMfgAfterHandedOver))

	events, err := s.store.ListEvents(s.ctx, repository.EventFilter{ProductID: p.ID})
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *ServiceSuite) TestUpdateProductPartialFields() {
	p := s.newProduct("P-1")
	s.newProduct("P-2")

	updated, err := s.products.UpdateProduct(s.ctx, admin, &UpdateProductRequest{
		ProductID:     p.ID,
		ProductFields: ProductFields{Version: "v3"},
	})
	s.Require().NoError(err)
	s.Equal("P-1", updated.Serial)
	s.Equal("Radar P-1", updated.Name)
	s.Equal("v3", updated.Version)

	_, err = s.products.UpdateProduct(s.ctx, admin, &UpdateProductRequest{ProductID: p.ID, Serial: "P-2"})
	s.ErrorIs(err, utils.NewConflictError(i18n.KeyProductExisted))

	// keeping its own serial is not a conflict
	_, err = s.products.UpdateProduct(s.ctx, admin, &UpdateProductRequest{ProductID: p.ID, Serial: "P-1"})
	s.NoError(err)

	_, err = s.products.UpdateProduct(s.ctx, admin, &UpdateProductRequest{ProductID: 404})
	s.ErrorIs(err, utils.NewNotFoundError(i18n.KeyProductNotExisted))
}

func (s *ServiceSuite) TestDeleteProductsCascades() {
	p := s.newProduct("P-1")
	kept := s.newProduct("P-2")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	child := s.newChild(root, "Feed", "F-1")
	other := s.newRoot(kept.ID, "Mast", "M-1")
	s.newIssue(child.ID, true)
	_, err := s.issues.CreateIssue(s.ctx, admin, &CreateIssueRequest{IssueFields: IssueFields{ProductID: int64Ptr(p.ID)}})
	s.Require().NoError(err)
	s.newIssue(other.ID, false)

	deleted, err := s.products.DeleteProducts(s.ctx, admin, []int64{p.ID, 404})
	s.Require().NoError(err)
	s.EqualValues(1, deleted)

	_, err = s.store.GetProduct(s.ctx, p.ID)
	s.ErrorIs(err, repository.ErrNotFound)
	for _, id := range []int64{root.ID, child.ID} {
		_, err := s.store.GetComponent(s.ctx, id)
		s.ErrorIs(err, repository.ErrNotFound)
	}
	s.EqualValues(1, s.issueCount())

	_, err = s.store.GetComponent(s.ctx, other.ID)
	s.NoError(err)
}

func (s *ServiceSuite) TestFindProductsCountsComponents() {
	p := s.newProduct("P-1")
	s.newProduct("P-2")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	s.newChild(root, "Feed", "F-1")
	s.newRoot(p.ID, "Mast", "M-1")

	rows, total, err := s.products.FindProducts(s.ctx, admin, repository.ProductFilter{})
	s.Require().NoError(err)
	s.EqualValues(2, total)
	counts := make(map[int64]int)
	for _, row := range rows {
		counts[row.ID] = row.ComponentCount
	}
	s.Equal(3, counts[p.ID])

	rows, _, err = s.products.FindProducts(s.ctx, admin, repository.ProductFilter{Q: "p-2"})
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(1, rows[0].OrderNumber)
}

func (s *ServiceSuite) TestFindProductsScopedForUser() {
	pm := Actor{Email: "pm@prodcare.local", Role: models.RoleUser}
	s.Require().NoError(s.store.CreateProject(s.ctx, &models.Project{ID: "PRJ-1", ProjectPm: pm.Email}))
	s.newProduct("P-1")
	_, err := s.products.CreateProduct(s.ctx, admin, &CreateProductRequest{
		Serial:        "P-2",
		ProductFields: ProductFields{ProjectID: "PRJ-2"},
	})
	s.Require().NoError(err)

	rows, total, err := s.products.FindProducts(s.ctx, pm, repository.ProductFilter{})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal("P-1", rows[0].Serial)

	stranger := Actor{Email: "other@prodcare.local", Role: models.RoleUser}
	_, total, err = s.products.FindProducts(s.ctx, stranger, repository.ProductFilter{})
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *ServiceSuite) TestGetProductTree() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	child := s.newChild(root, "Feed", "F-1")
	s.newChild(child, "Horn", "H-1")
	s.newIssue(child.ID, true)
	s.newIssue(root.ID, false)

	nodes, total, err := s.products.GetProductTree(s.ctx, admin, repository.ProductFilter{})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Require().Len(nodes, 1)

	product := nodes[0]
	s.Equal("1", product.Key)
	s.Len(product.Data.(ProductNodeData).Issues, 2)
	s.Require().Len(product.Children, 1)

	antenna := product.Children[0]
	data := antenna.Data.(ComponentNodeData)
	s.Equal("Antenna (A-1)", data.FullPath)
	s.Equal(2, data.Count)
	s.Len(data.Issues, 1)
	s.Require().Len(antenna.Children, 1)

	feed := antenna.Children[0]
	s.Equal("Antenna (A-1)/Feed (F-1)", feed.Data.(ComponentNodeData).FullPath)
	s.Equal(1, feed.Data.(ComponentNodeData).Count)
	s.Require().Len(feed.Children, 1)

	horn := feed.Children[0].Data.(ComponentNodeData)
	s.Equal("Antenna (A-1)/Feed (F-1)/Horn (H-1)", horn.FullPath)
	s.Zero(horn.Count)
	s.NotNil(horn.Issues)
	s.Empty(feed.Children[0].Children)
}

func (s *ServiceSuite) TestGetProductTreeEmpty() {
	nodes, total, err := s.products.GetProductTree(s.ctx, admin, repository.ProductFilter{})
	s.Require().NoError(err)
	s.Zero(total)
	s.NotNil(nodes)
	s.Empty(nodes)
}

func (s *ServiceSuite) TestProductDetail() {
	s.Require().NoError(s.store.CreateProject(s.ctx, &models.Project{ID: "PRJ-1", ProjectName: "Coastal"}))
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	s.newIssue(root.ID, false)

	detail, err := s.products.GetProductDetail(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.ID, detail.Product.ID)
	s.Require().NotNil(detail.Product.Project)
	s.Equal("Coastal", detail.Product.Project.ProjectName)
	s.Len(detail.Issues, 1)
	s.NotEmpty(detail.Events)

	_, err = s.products.GetProductDetail(s.ctx, 404)
	s.ErrorIs(err, utils.NewNotFoundError(i18n.KeyProductNotExisted))
}
