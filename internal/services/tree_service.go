// internal/services/tree_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prodcare/prodcare-backend/internal/i18n"
	"github.com/prodcare/prodcare-backend/internal/metrics"
	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/repository"
	"github.com/prodcare/prodcare-backend/internal/tree"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

const pathSeparator = "/"

// TreeService answers recursive questions about the component tree. All
// reads are side-effect free.
type TreeService struct {
	store repository.Store
}

func NewTreeService(store repository.Store) *TreeService {
	return &TreeService{store: store}
}

// SubtreeIDs returns the roots and all of their descendants.
func (s *TreeService) SubtreeIDs(ctx context.Context, roots ...int64) ([]int64, error) {
	return s.store.SubtreeComponentIDs(ctx, roots...)
}

// ComponentPath renders the root-first chain of id as "name (serial)/...".
func (s *TreeService) ComponentPath(ctx context.Context, id int64) (string, error) {
	return s.NewPathResolver().Path(ctx, id)
}

// NewPathResolver returns a resolver that caches the components it loads, so
// rendering many paths in one request reads each ancestor once.
func (s *TreeService) NewPathResolver() *PathResolver {
	return &PathResolver{store: s.store, cache: make(map[int64]*models.Component)}
}

type PathResolver struct {
	store repository.Store
	cache map[int64]*models.Component
}

func (r *PathResolver) component(ctx context.Context, id int64) (*models.Component, error) {
	if c, ok := r.cache[id]; ok {
		if c == nil {
			return nil, repository.ErrNotFound
		}
		return c, nil
	}
	c, err := r.store.GetComponent(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		r.cache[id] = nil
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	r.cache[id] = c
	return c, nil
}

// Path walks up from id. A missing parent ends the walk as if it were the
// root; so does a revisited id or MaxDepth. Unknown ids yield "".
func (r *PathResolver) Path(ctx context.Context, id int64) (string, error) {
	var segments []string
	visited := make(map[int64]bool)
	current := id
	for depth := 0; current != 0 && depth < tree.MaxDepth; depth++ {
		if visited[current] {
			break
		}
		visited[current] = true

		c, err := r.component(ctx, current)
		if errors.Is(err, repository.ErrNotFound) {
			break
		}
		if err != nil {
			return "", err
		}
		segments = append(segments, pathSegment(c))
		current = c.ParentKey()
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, pathSeparator), nil
}

// pathSegment renders "name (serial)", or just the name when the serial is empty.
func pathSegment(c *models.Component) string {
	if c.Serial == "" {
		return c.Name
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.Serial)
}

// FindDescendants returns every component below rootID in breadth-first order.
func (s *TreeService) FindDescendants(ctx context.Context, rootID int64) ([]models.Component, error) {
	return findDescendants(ctx, s.store, rootID)
}

func findDescendants(ctx context.Context, st repository.Store, rootID int64) ([]models.Component, error) {
	visited := map[int64]bool{rootID: true}
	var out []models.Component
	queue := []int64{rootID}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]

		children, err := st.ListChildComponents(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			out = append(out, child)
			queue = append(queue, child.ID)
		}
	}
	return out, nil
}

// CascadeSerial copies the serial of rootID onto all of its descendants and
// returns how many were updated.
func (s *TreeService) CascadeSerial(ctx context.Context, actor Actor, rootID int64) (int64, error) {
	var updated int64
	err := s.store.Transaction(ctx, func(st repository.Store) error {
		root, err := st.GetComponent(ctx, rootID)
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NewNotFoundError(i18n.KeyComponentNotExisted)
		}
		if err != nil {
			return err
		}

		project, err := componentProject(ctx, st, root)
		if err != nil {
			return err
		}
		if err := requireProjectPm(ctx, st, actor, project); err != nil {
			return err
		}

		descendants, err := findDescendants(ctx, st, rootID)
		if err != nil {
			return err
		}
		if len(descendants) == 0 {
			return nil
		}

		ids := make([]int64, len(descendants))
		for i, d := range descendants {
			ids[i] = d.ID
		}
		if updated, err = st.UpdateComponentsSerial(ctx, ids, root.Serial); err != nil {
			return err
		}
		return writeEvent(ctx, st, actor, models.EventTypeComponent, models.EventSubTypeEdit, contentSerialCascaded,
			eventRefs{ComponentID: root.ID, ProductID: root.ProductKey()})
	})
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		metrics.RecordOperation("component", "serial_cascade")
	}
	return updated, nil
}
