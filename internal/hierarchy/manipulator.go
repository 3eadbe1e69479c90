// Package hierarchy moves and copies nodes of the item tree without ever
// letting a node end up beneath itself.
package hierarchy

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/repositories/nodes"
	"github.com/google/uuid"
)

// DefaultMaxDepth bounds ancestor walks when no limit is configured.
const DefaultMaxDepth = 256

type Manipulator struct {
	nodes    nodes.Repository
	maxDepth int
}

// NewManipulator returns a Manipulator whose walks give up with
// common.ErrStructural after maxDepth steps. A non-positive maxDepth selects
// DefaultMaxDepth.
func NewManipulator(n nodes.Repository, maxDepth int) *Manipulator {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Manipulator{nodes: n, maxDepth: maxDepth}
}

// newID is a seam for tests.
var newID = uuid.NewString

// IsChild reports whether childID lies beneath parentID. Everything lies
// beneath the root, the root lies beneath nothing else, and a node counts as
// lying beneath itself.
func (m *Manipulator) IsChild(ctx context.Context, parentID, childID string) (bool, error) {
	switch {
	case parentID == models.RootNodeID:
		return true, nil
	case childID == models.RootNodeID:
		return false, nil
	case parentID == childID:
		return true, nil
	}

	visited := map[string]bool{childID: true}
	current := childID
	for steps := 0; ; steps++ {
		if steps >= m.maxDepth {
			return false, fmt.Errorf("%w: %s is more than %d levels deep", common.ErrStructural, childID, m.maxDepth)
		}
		node, err := m.nodes.GetByID(ctx, current)
		if err != nil {
			return false, fmt.Errorf("load node %s: %w", current, err)
		}
		current = node.ParentID
		switch {
		case current == parentID:
			return true, nil
		case current == models.RootNodeID || current == "":
			return false, nil
		case visited[current]:
			return false, fmt.Errorf("%w: cycle at node %s", common.ErrStructural, current)
		}
		visited[current] = true
	}
}

// Parentage returns the ancestors of nodeID, root first. The node itself is
// not included.
func (m *Manipulator) Parentage(ctx context.Context, nodeID string) ([]*models.HierarchyNode, error) {
	var chain []*models.HierarchyNode
	visited := map[string]bool{nodeID: true}

	node, err := m.nodes.GetByID(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("load node %s: %w", nodeID, err)
	}
	for node.ParentID != "" && !node.IsRoot() {
		if len(chain) >= m.maxDepth {
			return nil, fmt.Errorf("%w: %s is more than %d levels deep", common.ErrStructural, nodeID, m.maxDepth)
		}
		if visited[node.ParentID] {
			return nil, fmt.Errorf("%w: cycle at node %s", common.ErrStructural, node.ParentID)
		}
		visited[node.ParentID] = true

		node, err = m.nodes.GetByID(ctx, node.ParentID)
		if err != nil {
			return nil, fmt.Errorf("load node: %w", err)
		}
		chain = append(chain, node)
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// checkTarget rejects a missing new parent and one that lies beneath node.
func (m *Manipulator) checkTarget(ctx context.Context, nodeID, newParentID string) error {
	if newParentID == "" {
		return fmt.Errorf("%w: no new parent for %s", common.ErrStructural, nodeID)
	}
	if nodeID == models.RootNodeID {
		return fmt.Errorf("%w: the root node cannot be moved or copied", common.ErrStructural)
	}
	inside, err := m.IsChild(ctx, nodeID, newParentID)
	if err != nil {
		return err
	}
	if inside {
		return fmt.Errorf("%w: %s lies beneath %s", common.ErrStructural, newParentID, nodeID)
	}
	if _, err := m.nodes.GetByID(ctx, newParentID); err != nil {
		return fmt.Errorf("load node %s: %w", newParentID, err)
	}
	return nil
}

// Move reparents nodeID under newParentID.
func (m *Manipulator) Move(ctx context.Context, nodeID, newParentID string) error {
	if err := m.checkTarget(ctx, nodeID, newParentID); err != nil {
		return err
	}
	node, err := m.nodes.GetByID(ctx, nodeID)
	if err != nil {
		return fmt.Errorf("load node %s: %w", nodeID, err)
	}
	node.ParentID = newParentID
	return m.nodes.Store(ctx, node)
}

// Copy creates a node with the name and type of nodeID under newParentID.
// Children are not copied.
func (m *Manipulator) Copy(ctx context.Context, nodeID, newParentID string) (*models.HierarchyNode, error) {
	if newParentID == "" {
		return nil, fmt.Errorf("%w: no new parent for %s", common.ErrStructural, nodeID)
	}
	node, err := m.nodes.GetByID(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("load node %s: %w", nodeID, err)
	}
	return m.copyOne(ctx, node, newParentID)
}

func (m *Manipulator) copyOne(ctx context.Context, node *models.HierarchyNode, parentID string) (*models.HierarchyNode, error) {
	copied := &models.HierarchyNode{
		ID:       newID(),
		Name:     node.Name,
		ParentID: parentID,
		Type:     node.Type,
	}
	if err := m.nodes.Store(ctx, copied); err != nil {
		return nil, err
	}
	return copied, nil
}

// DeepCopy copies nodeID and its whole subtree under newParentID. Each child
// is copied under the copy of its parent, so the shape of the subtree is kept.
func (m *Manipulator) DeepCopy(ctx context.Context, nodeID, newParentID string) (*models.HierarchyNode, error) {
	if err := m.checkTarget(ctx, nodeID, newParentID); err != nil {
		return nil, err
	}
	src, err := m.nodes.GetByID(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("load node %s: %w", nodeID, err)
	}
	top, err := m.copyOne(ctx, src, newParentID)
	if err != nil {
		return nil, err
	}

	type job struct {
		srcID string
		dstID string
		depth int
	}
	visited := map[string]bool{src.ID: true, top.ID: true}
	stack := []job{{srcID: src.ID, dstID: top.ID}}

	for len(stack) > 0 {
		j := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if j.depth >= m.maxDepth {
			return nil, fmt.Errorf("%w: subtree of %s is more than %d levels deep", common.ErrStructural, nodeID, m.maxDepth)
		}

		children, err := m.nodes.GetChildren(ctx, j.srcID)
		if err != nil {
			return nil, fmt.Errorf("list children of %s: %w", j.srcID, err)
		}
		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true

			copied, err := m.copyOne(ctx, child, j.dstID)
			if err != nil {
				return nil, err
			}
			visited[copied.ID] = true
			stack = append(stack, job{srcID: child.ID, dstID: copied.ID, depth: j.depth + 1})
		}
	}
	return top, nil
}
