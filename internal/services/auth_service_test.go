// internal/services/auth_service_test.go
package services

import (
	"github.com/prodcare/prodcare-backend/internal/config"
	"github.com/prodcare/prodcare-backend/internal/i18n"
	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

func (s *ServiceSuite) newAccount(email string, role models.Role) *models.Account {
	a := &models.Account{Email: email, Name: email, Role: role}
	s.Require().NoError(a.SetPassword("secret-123"))
	s.Require().NoError(s.store.CreateAccount(s.ctx, a))
	return a
}

func (s *ServiceSuite) TestIssueAndAuthenticateToken() {
	utils.SetJWTSecret("test-secret")
	s.newAccount("op@prodcare.local", models.RoleOperator)
	auth := NewAuthService(s.store, config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 2})

	token, err := auth.IssueToken(s.ctx, &IssueTokenRequest{Email: "op@prodcare.local", Password: "secret-123"})
	s.Require().NoError(err)
	s.Equal("Bearer", token.TokenType)
	s.Equal(7200, token.ExpiresIn)

	account, err := auth.Authenticate(s.ctx, token.AccessToken)
	s.Require().NoError(err)
	s.Equal(models.RoleOperator, account.Role)

	_, err = auth.IssueToken(s.ctx, &IssueTokenRequest{Email: "op@prodcare.local", Password: "wrong"})
	s.ErrorIs(err, utils.NewUnauthorizedError(i18n.KeyPermissionDenied))

	_, err = auth.IssueToken(s.ctx, &IssueTokenRequest{Email: "nobody@prodcare.local", Password: "secret-123"})
	s.ErrorIs(err, utils.NewUnauthorizedError(i18n.KeyAuthAccountNotFound))
}

func (s *ServiceSuite) TestAuthenticateRejectsBadTokens() {
	utils.SetJWTSecret("test-secret")
	auth := NewAuthService(s.store, config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 1})

	_, err := auth.Authenticate(s.ctx, "not-a-token")
	s.ErrorIs(err, utils.NewUnauthorizedError(i18n.KeyAuthInvalidToken))

	expired, err := utils.GenerateJWT("op@prodcare.local", string(models.RoleOperator), -1)
	s.Require().NoError(err)
	_, err = auth.Authenticate(s.ctx, expired)
	s.ErrorIs(err, utils.NewUnauthorizedError(i18n.KeyAuthTokenExpired))

	// a valid token for an account that was never created
	orphan, err := utils.GenerateJWT("ghost@prodcare.local", string(models.RoleAdmin), 1)
	s.Require().NoError(err)
	_, err = auth.Authenticate(s.ctx, orphan)
	s.ErrorIs(err, utils.NewUnauthorizedError(i18n.KeyAuthAccountNotFound))
}

func (s *ServiceSuite) TestCheckProjectPm() {
	authz := NewAuthorizationService(s.store)
	pm := s.newAccount("pm@prodcare.local", models.RoleUser)
	other := s.newAccount("other@prodcare.local", models.RoleUser)
	s.Require().NoError(s.store.CreateProject(s.ctx, &models.Project{ID: "PRJ-1", ProjectPm: pm.Email}))

	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	child := s.newChild(root, "Feed", "F-1")

	forbidden := utils.NewForbiddenError(i18n.KeyInsufficientPermissions)

	s.NoError(authz.CheckProjectPm(s.ctx, pm, WriteTarget{ProjectID: "PRJ-1"}))
	s.NoError(authz.CheckProjectPm(s.ctx, pm, WriteTarget{ProductID: p.ID}))
	s.NoError(authz.CheckProjectPm(s.ctx, pm, WriteTarget{ComponentID: child.ID}))

	// the project id wins over the product
	s.ErrorIs(authz.CheckProjectPm(s.ctx, pm, WriteTarget{ProjectID: "PRJ-2", ProductID: p.ID}), forbidden)

	s.ErrorIs(authz.CheckProjectPm(s.ctx, other, WriteTarget{ProjectID: "PRJ-1"}), forbidden)
	s.ErrorIs(authz.CheckProjectPm(s.ctx, pm, WriteTarget{}), forbidden)
	s.ErrorIs(authz.CheckProjectPm(s.ctx, pm, WriteTarget{ComponentID: 404}), forbidden)

	guest := &models.Account{Email: "guest@prodcare.local", Role: models.RoleGuest}
	s.ErrorIs(authz.CheckProjectPm(s.ctx, guest, WriteTarget{ProjectID: "PRJ-1"}), forbidden)
}

func (s *ServiceSuite) TestUserWritesCheckStoredRows() {
	s.Require().NoError(s.store.CreateProject(s.ctx, &models.Project{ID: "PRJ-1", ProjectPm: "pm@prodcare.local"}))
	s.Require().NoError(s.store.CreateProject(s.ctx, &models.Project{ID: "PRJ-2", ProjectPm: "other@prodcare.local"}))
	pm := Actor{Email: "pm@prodcare.local", Role: models.RoleUser}
	forbidden := utils.NewForbiddenError(i18n.KeyInsufficientPermissions)

	own := s.newProduct("P-1")
	ownRoot := s.newRoot(own.ID, "Antenna", "A-1")
	ownIssue := s.newIssue(ownRoot.ID, false)

	foreign, err := s.products.CreateProduct(s.ctx, admin, &CreateProductRequest{
		Serial:        "P-2",
		ProductFields: ProductFields{ProjectID: "PRJ-2"},
	})
	s.Require().NoError(err)
	foreignRoot := s.newRoot(foreign.ID, "Mast", "M-1")
	foreignIssue := s.newIssue(foreignRoot.ID, false)

	// naming a managed project does not unlock another project's issue
	_, err = s.issues.UpdateIssue(s.ctx, pm, &UpdateIssueRequest{
		ID:          foreignIssue.ID,
		IssueFields: IssueFields{ProjectID: "PRJ-1", Description: "edited"},
	})
	s.ErrorIs(err, forbidden)
	stored, err := s.store.GetIssue(s.ctx, foreignIssue.ID)
	s.Require().NoError(err)
	s.Equal("fault", stored.Description)
	s.Equal("PRJ-2", stored.ProjectID)

	_, err = s.issues.CreateIssue(s.ctx, pm, &CreateIssueRequest{IssueFields: IssueFields{
		ComponentID: int64Ptr(foreignRoot.ID),
		ProjectID:   "PRJ-1",
	}})
	s.ErrorIs(err, forbidden)

	_, err = s.components.UpdateComponent(s.ctx, pm, &UpdateComponentRequest{ComponentID: foreignRoot.ID, Name: "Renamed"})
	s.ErrorIs(err, forbidden)

	// moving a managed component into a foreign product
	_, err = s.components.UpdateComponent(s.ctx, pm, &UpdateComponentRequest{ComponentID: ownRoot.ID, ProductID: int64Ptr(foreign.ID)})
	s.ErrorIs(err, forbidden)
	moved, err := s.store.GetComponent(s.ctx, ownRoot.ID)
	s.Require().NoError(err)
	s.Equal(own.ID, moved.ProductKey())

	_, err = s.products.UpdateProduct(s.ctx, pm, &UpdateProductRequest{
		ProductID:     foreign.ID,
		ProductFields: ProductFields{ProjectID: "PRJ-1"},
	})
	s.ErrorIs(err, forbidden)

	_, err = s.tree.CascadeSerial(s.ctx, pm, foreignRoot.ID)
	s.ErrorIs(err, forbidden)

	updated, err := s.issues.UpdateIssue(s.ctx, pm, &UpdateIssueRequest{
		ID:          ownIssue.ID,
		IssueFields: IssueFields{Description: "checked"},
	})
	s.Require().NoError(err)
	s.Equal("checked", updated.Description)
}
