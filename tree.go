package awaserver

import "sort"

// NodeKind names the level of an objects-tree node.
type NodeKind int

const (
	NodeKindObject NodeKind = iota
	NodeKindObjectInstance
	NodeKindResource
	NodeKindResourceInstance
)

// AttributeLink names a write-attribute ("pmin", "pmax", "gt", "lt", "stp").
type AttributeLink string

const (
	AttributeLinkMinPeriod AttributeLink = "pmin"
	AttributeLinkMaxPeriod AttributeLink = "pmax"
	AttributeLinkGreater   AttributeLink = "gt"
	AttributeLinkLess      AttributeLink = "lt"
	AttributeLinkStep      AttributeLink = "stp"
)

// PathResult is the outcome of a request for a single path on a single
// client.
type PathResult struct {
	Error     ErrorKind
	LWM2MCode LWM2MErrorCode
}

// Success is the zero-error PathResult.
var Success = PathResult{Error: ErrorKindSuccess}

// ChangeType names how a path changed, delivered in a ChangeSet.
type ChangeType int

const (
	ChangeTypeNone ChangeType = iota
	ChangeTypeResourceModified
	ChangeTypeResourceCreated
	ChangeTypeResourceDeleted
	ChangeTypeObjectInstanceCreated
	ChangeTypeObjectInstanceDeleted
)

func (c ChangeType) String() string {
	switch c {
	case ChangeTypeResourceModified:
		return "ResourceModified"
	case ChangeTypeResourceCreated:
		return "ResourceCreated"
	case ChangeTypeResourceDeleted:
		return "ResourceDeleted"
	case ChangeTypeObjectInstanceCreated:
		return "ObjectInstanceCreated"
	case ChangeTypeObjectInstanceDeleted:
		return "ObjectInstanceDeleted"
	default:
		return "None"
	}
}

// Node is one element of the objects tree: an object, object-instance,
// resource or resource-instance, addressed by Path. The same node kind
// represents both request bodies (paths the caller is addressing, with an
// optional Value/Attribute payload) and response bodies (the daemon's
// per-path Result), per spec.md §4.4: "both sides read and write the same
// node kinds."
type Node struct {
	path       Path
	kind       NodeKind
	value      *Value
	attributes map[AttributeLink]float64
	result     *PathResult
	change     ChangeType
	cancel     bool
	children   map[string]*Node
	order      []string
}

func newNode(path Path, kind NodeKind) *Node {
	return &Node{path: path, kind: kind, children: make(map[string]*Node)}
}

// Path returns this node's path.
func (n *Node) Path() Path { return n.path }

// Kind returns this node's level.
func (n *Node) Kind() NodeKind { return n.kind }

// Value returns the node's value, if set.
func (n *Node) Value() (Value, bool) {
	if n.value == nil {
		return Value{}, false
	}
	return *n.value, true
}

// SetValue attaches a value to this node (typically a resource or
// resource-instance node).
func (n *Node) SetValue(v Value) { n.value = &v }

// Attribute returns the numeric value set for link, if any.
func (n *Node) Attribute(link AttributeLink) (float64, bool) {
	v, ok := n.attributes[link]
	return v, ok
}

// SetAttribute attaches a write-attribute to this node.
func (n *Node) SetAttribute(link AttributeLink, v float64) {
	if n.attributes == nil {
		n.attributes = make(map[AttributeLink]float64)
	}
	n.attributes[link] = v
}

// Attributes returns the full attribute set attached to this node.
func (n *Node) Attributes() map[AttributeLink]float64 {
	out := make(map[AttributeLink]float64, len(n.attributes))
	for k, v := range n.attributes {
		out[k] = v
	}
	return out
}

// Result returns the per-path outcome attached to this node, if any.
func (n *Node) Result() (PathResult, bool) {
	if n.result == nil {
		return PathResult{}, false
	}
	return *n.result, true
}

// SetResult attaches a per-path outcome to this node.
func (n *Node) SetResult(r PathResult) { n.result = &r }

// ChangeType returns the kind of change a notification tagged this node
// with, for ChangeSet nodes.
func (n *Node) ChangeType() ChangeType { return n.change }

// SetChangeType tags this node with a change kind.
func (n *Node) SetChangeType(c ChangeType) { n.change = c }

// Cancel reports whether this node's path is an Observe-cancel request
// rather than a subscribe request.
func (n *Node) Cancel() bool { return n.cancel }

// SetCancel tags a resource node as an Observe-cancel request.
func (n *Node) SetCancel(c bool) { n.cancel = c }

func childKeyFor(kind NodeKind, id uint32) string {
	switch kind {
	case NodeKindObject:
		return "object"
	default:
		return pathSegmentKey(id)
	}
}

func pathSegmentKey(id uint32) string {
	const hexDigits = "0123456789abcdef"
	if id == 0 {
		return "0"
	}
	buf := make([]byte, 0, 8)
	for id > 0 {
		buf = append([]byte{hexDigits[id%16]}, buf...)
		id /= 16
	}
	return string(buf)
}

// Tree is the in-memory, path-keyed tree shared by request builders and
// response parsers. The root holds object nodes; each object node holds
// object-instance nodes; each instance node holds resource nodes; each
// resource node may hold resource-instance nodes for array resources.
type Tree struct {
	root *Node
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{root: &Node{kind: NodeKindObject, children: make(map[string]*Node)}}
}

// Insert ensures a node exists for path (creating intermediate nodes as
// needed) and returns it. Invariant 4 of the data model: inserting a more
// general path after a more specific one (or vice versa) never shadows
// either — both remain independently addressable, because each level is
// keyed by its own ID rather than by the full path string.
func (t *Tree) Insert(path Path) *Node {
	objectID := path.ObjectID()
	objNode := t.childFor(t.root, NodeKindObject, objectID, mustObjectPath(objectID))
	if path.IsObject() {
		return objNode
	}
	instanceID, _ := path.InstanceID()
	instNode := t.childFor(objNode, NodeKindObjectInstance, instanceID, mustInstancePath(objectID, instanceID))
	if path.IsObjectInstance() {
		return instNode
	}
	resourceID, _ := path.ResourceID()
	resNode := t.childFor(instNode, NodeKindResource, resourceID, mustResourcePath(objectID, instanceID, resourceID))
	return resNode
}

// InsertResourceInstance ensures a resource-instance child exists under
// the resource node at resourcePath, keyed by index, and returns it.
func (t *Tree) InsertResourceInstance(resourcePath Path, index uint16) *Node {
	resNode := t.Insert(resourcePath)
	key := "ri:" + pathSegmentKey(uint32(index))
	child, ok := resNode.children[key]
	if !ok {
		child = &Node{path: resourcePath, kind: NodeKindResourceInstance, children: make(map[string]*Node)}
		resNode.children[key] = child
		resNode.order = append(resNode.order, key)
	}
	return child
}

func (t *Tree) childFor(parent *Node, kind NodeKind, id uint32, path Path) *Node {
	key := childKeyFor(kind, id) + ":" + pathSegmentKey(id)
	child, ok := parent.children[key]
	if !ok {
		child = newNode(path, kind)
		parent.children[key] = child
		parent.order = append(parent.order, key)
	}
	return child
}

func mustObjectPath(objectID uint32) Path {
	p, _ := NewObjectPath(objectID)
	return p
}

func mustInstancePath(objectID, instanceID uint32) Path {
	p, _ := NewObjectInstancePath(objectID, instanceID)
	return p
}

func mustResourcePath(objectID, instanceID, resourceID uint32) Path {
	p, _ := NewResourcePath(objectID, instanceID, resourceID)
	return p
}

// Lookup finds the node at path, if it exists.
func (t *Tree) Lookup(path Path) (*Node, bool) {
	objNode, ok := t.root.children[childKeyFor(NodeKindObject, path.ObjectID())+":"+pathSegmentKey(path.ObjectID())]
	if !ok || path.IsObject() {
		return objNode, ok
	}
	instanceID, _ := path.InstanceID()
	instNode, ok := objNode.children[childKeyFor(NodeKindObjectInstance, instanceID)+":"+pathSegmentKey(instanceID)]
	if !ok || path.IsObjectInstance() {
		return instNode, ok
	}
	resourceID, _ := path.ResourceID()
	resNode, ok := instNode.children[childKeyFor(NodeKindResource, resourceID)+":"+pathSegmentKey(resourceID)]
	return resNode, ok
}

// Root returns the tree's root node (an object-kind node whose children
// are the top-level object nodes).
func (t *Tree) Root() *Node { return t.root }

// Walk visits every node in pre-order (objects, then their instances, then
// resources, then resource-instances), sorted by numeric ID at each level.
// Resource-instance nodes carry their resource's path, so their order
// among themselves is not defined.
func (t *Tree) Walk(fn func(n *Node)) {
	walkChildren(t.root, fn)
}

func walkChildren(n *Node, fn func(n *Node)) {
	keys := append([]string(nil), n.order...)
	sort.Slice(keys, func(i, j int) bool {
		return n.children[keys[i]].sortKey() < n.children[keys[j]].sortKey()
	})
	for _, key := range keys {
		child := n.children[key]
		fn(child)
		walkChildren(child, fn)
	}
}

func (n *Node) sortKey() uint64 {
	objectID := n.path.ObjectID()
	instanceID, _ := n.path.InstanceID()
	resourceID, _ := n.path.ResourceID()
	return uint64(objectID)<<32 | uint64(instanceID)<<16 | uint64(resourceID)
}

// Leaves returns every node with no children, in the same pre-order as
// Walk, bare object nodes included. Used by the registered-entity
// iterator (spec.md §4.7 ListClients), which itself skips object-level
// leaves and keeps object-instance nodes as the registered entities.
func (t *Tree) Leaves() []*Node {
	var leaves []*Node
	t.Walk(func(n *Node) {
		if len(n.children) == 0 {
			leaves = append(leaves, n)
		}
	})
	return leaves
}
