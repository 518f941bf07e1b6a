// internal/services/services_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/prodcare/prodcare-backend/internal/config"
	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/repository"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

var admin = Actor{Email: "admin@prodcare.local", Role: models.RoleAdmin}

// ServiceSuite wires every service against a fresh in-memory store.
type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	store      *repository.MemoryStore
	situation  *SituationService
	tree       *TreeService
	components *ComponentService
	issues     *IssueService
	products   *ProductService
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = repository.NewMemoryStore()
	s.situation = NewSituationService(s.store, config.SituationConfig{Policy: config.PolicyStopFighting})
	s.tree = NewTreeService(s.store)
	s.components = NewComponentService(s.store, s.situation, s.tree, 4)
	s.issues = NewIssueService(s.store, s.situation, s.tree)
	s.products = NewProductService(s.store)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }
func intPtr(v int) *int       { return &v }

func flex(t time.Time) *utils.FlexTime {
	return &utils.FlexTime{Time: t, Set: true}
}

func (s *ServiceSuite) newProduct(serial string) *models.Product {
	p, err := s.products.CreateProduct(s.ctx, admin, &CreateProductRequest{
		Serial:        serial,
		ProductFields: ProductFields{Name: "Radar " + serial, ProjectID: "PRJ-1"},
	})
	s.Require().NoError(err)
	return p
}

func (s *ServiceSuite) newRoot(productID int64, name, serial string) *models.Component {
	c, err := s.components.CreateComponent(s.ctx, admin, &CreateComponentRequest{
		Name:      name,
		Serial:    serial,
		Level:     1,
		ProductID: int64Ptr(productID),
		Type:      models.ComponentTypeHardware,
	})
	s.Require().NoError(err)
	return c
}

func (s *ServiceSuite) newChild(parent *models.Component, name, serial string) *models.Component {
	c, err := s.components.CreateComponent(s.ctx, admin, &CreateComponentRequest{
		Name:     name,
		Serial:   serial,
		Level:    parent.Level + 1,
		ParentID: int64Ptr(parent.ID),
	})
	s.Require().NoError(err)
	return c
}

func (s *ServiceSuite) newIssue(componentID int64, stopFighting bool) *models.Issue {
	fields := IssueFields{
		ComponentID: int64Ptr(componentID),
		Status:      models.IssueStatusUnprocessed,
		Description: "fault",
	}
	if stopFighting {
		fields.StopFighting = boolPtr(true)
		fields.StopFightingDays = int64Ptr(3)
	}
	i, err := s.issues.CreateIssue(s.ctx, admin, &CreateIssueRequest{IssueFields: fields})
	s.Require().NoError(err)
	return i
}

func (s *ServiceSuite) componentSituation(id int64) models.Situation {
	c, err := s.store.GetComponent(s.ctx, id)
	s.Require().NoError(err)
	return c.Situation
}

func (s *ServiceSuite) productSituation(id int64) models.Situation {
	p, err := s.store.GetProduct(s.ctx, id)
	s.Require().NoError(err)
	return p.Situation
}
