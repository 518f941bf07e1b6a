// internal/tree/tree.go
package tree

// MaxDepth bounds upward walks so a corrupted parent chain cannot loop forever.
const MaxDepth = 64

// Node is the minimal view of a tree member. ParentID zero means root.
type Node struct {
	ID       int64
	ParentID int64
}

// Tree is an arena of nodes indexed by id with a children index.
type Tree struct {
	parent   map[int64]int64
	children map[int64][]int64
}

// New builds an arena. Children keep the input order of nodes.
func New(nodes []Node) *Tree {
	t := &Tree{
		parent:   make(map[int64]int64, len(nodes)),
		children: make(map[int64][]int64),
	}
	for _, n := range nodes {
		if _, dup := t.parent[n.ID]; dup {
			continue
		}
		t.parent[n.ID] = n.ParentID
		if n.ParentID != 0 {
			t.children[n.ParentID] = append(t.children[n.ParentID], n.ID)
		}
	}
	return t
}

func (t *Tree) Has(id int64) bool {
	_, ok := t.parent[id]
	return ok
}

// Parent returns the parent id of a known node with a non-zero parent.
func (t *Tree) Parent(id int64) (int64, bool) {
	p, ok := t.parent[id]
	if !ok || p == 0 {
		return 0, false
	}
	return p, true
}

func (t *Tree) Children(id int64) []int64 {
	return t.children[id]
}

// Descendants walks breadth-first below id. The result excludes id itself.
func (t *Tree) Descendants(id int64) []int64 {
	visited := map[int64]bool{id: true}
	var out []int64
	queue := []int64{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range t.children[current] {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

// Subtree returns every root followed by all of their descendants, without
// duplicates. Roots are included even when unknown to the arena.
func (t *Tree) Subtree(roots ...int64) []int64 {
	seen := make(map[int64]bool)
	var out []int64
	for _, root := range roots {
		if seen[root] {
			continue
		}
		seen[root] = true
		out = append(out, root)
	}
	for _, root := range roots {
		for _, id := range t.Descendants(root) {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// Path returns the chain from the topmost reachable ancestor down to id.
// The walk stops at a missing parent, a revisited id or MaxDepth.
func (t *Tree) Path(id int64) []int64 {
	if !t.Has(id) {
		return nil
	}
	visited := map[int64]bool{id: true}
	chain := []int64{id}
	current := id
	for len(chain) < MaxDepth {
		p, ok := t.Parent(current)
		if !ok || !t.Has(p) || visited[p] {
			break
		}
		visited[p] = true
		chain = append(chain, p)
		current = p
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
