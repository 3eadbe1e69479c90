package models

// RootNodeID is the id of the top of the hierarchy. It has no parent.
const RootNodeID = "0"

type NodeType string

const (
	NodeTypeContainer NodeType = "container"
	NodeTypeObject    NodeType = "object"
)

// HierarchyNode is a folder-like container in the item tree. OwnerID is set
// only on personal nodes.
type HierarchyNode struct {
	ID       string
	Name     string
	ParentID string
	Type     NodeType
	OwnerID  string
}

// IsRoot reports whether n is the root sentinel.
func (n *HierarchyNode) IsRoot() bool {
	return n.ID == RootNodeID
}
