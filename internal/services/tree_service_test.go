// internal/services/tree_service_test.go
package services

import (
	"github.com/prodcare/prodcare-backend/internal/i18n"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

func (s *ServiceSuite) TestSubtreeIDsIncludesRoot() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	child := s.newChild(root, "Feed", "F-1")
	grandchild := s.newChild(child, "Horn", "H-1")
	s.newRoot(p.ID, "Mast", "M-1")

	ids, err := s.tree.SubtreeIDs(s.ctx, root.ID)
	s.Require().NoError(err)
	s.ElementsMatch([]int64{root.ID, child.ID, grandchild.ID}, ids)
}

func (s *ServiceSuite) TestComponentPath() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	child := s.newChild(root, "Feed", "")

	path, err := s.tree.ComponentPath(s.ctx, child.ID)
	s.Require().NoError(err)
	s.Equal("Antenna (A-1)/Feed", path)

	path, err = s.tree.ComponentPath(s.ctx, 404)
	s.Require().NoError(err)
	s.Empty(path)
}

func (s *ServiceSuite) TestComponentPathStopsOnCycle() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	child := s.newChild(root, "Feed", "F-1")

	// corrupt the tree behind the service's back
	root.ParentID = int64Ptr(child.ID)
	s.Require().NoError(s.store.SaveComponent(s.ctx, root))

	path, err := s.tree.ComponentPath(s.ctx, child.ID)
	s.Require().NoError(err)
	s.Equal("Antenna (A-1)/Feed (F-1)", path)
}

func (s *ServiceSuite) TestPathResolverSharesCache() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	a := s.newChild(root, "Feed", "F-1")
	b := s.newChild(root, "Reflector", "R-1")

	paths := s.tree.NewPathResolver()
	first, err := paths.Path(s.ctx, a.ID)
	s.Require().NoError(err)
	second, err := paths.Path(s.ctx, b.ID)
	s.Require().NoError(err)

	s.Equal("Antenna (A-1)/Feed (F-1)", first)
	s.Equal("Antenna (A-1)/Reflector (R-1)", second)
}

func (s *ServiceSuite) TestFindDescendantsBreadthFirst() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	a := s.newChild(root, "Feed", "F-1")
	b := s.newChild(root, "Reflector", "R-1")
	deep := s.newChild(a, "Horn", "H-1")

	descendants, err := s.tree.FindDescendants(s.ctx, root.ID)
	s.Require().NoError(err)
	s.Require().Len(descendants, 3)
	s.ElementsMatch([]int64{a.ID, b.ID}, []int64{descendants[0].ID, descendants[1].ID})
	s.Equal(deep.ID, descendants[2].ID)

	leaf, err := s.tree.FindDescendants(s.ctx, deep.ID)
	s.Require().NoError(err)
	s.Empty(leaf)
}

func (s *ServiceSuite) TestCascadeSerial() {
	p := s.newProduct("P-1")
	root := s.newRoot(p.ID, "Antenna", "A-1")
	child := s.newChild(root, "Feed", "F-1")
	grandchild := s.newChild(child, "Horn", "H-1")

	updated, err := s.tree.CascadeSerial(s.ctx, admin, root.ID)
	s.Require().NoError(err)
	s.EqualValues(2, updated)

	for _, id := range []int64{child.ID, grandchild.ID} {
		c, err := s.store.GetComponent(s.ctx, id)
		s.Require().NoError(err)
		s.Equal("A-1", c.Serial)
	}

	// a leaf has nothing to copy onto
	updated, err = s.tree.CascadeSerial(s.ctx, admin, grandchild.ID)
	s.Require().NoError(err)
	s.Zero(updated)

	_, err = s.tree.CascadeSerial(s.ctx, admin, 404)
	s.ErrorIs(err, utils.NewNotFoundError(i18n.KeyComponentNotExisted))
}
