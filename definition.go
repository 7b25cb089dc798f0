package awaserver

import "sync"

// Operations names the access mode a resource definition permits, mirroring
// the teacher's Readable/Writable/Excutable flags (lwm2m_resource.go)
// collapsed into the single enumeration spec.md §3.1 calls for.
type Operations int

const (
	OperationsNone Operations = iota
	OperationsReadOnly
	OperationsWriteOnly
	OperationsReadWrite
	OperationsExecute
)

func (o Operations) String() string {
	switch o {
	case OperationsReadOnly:
		return "R"
	case OperationsWriteOnly:
		return "W"
	case OperationsReadWrite:
		return "RW"
	case OperationsExecute:
		return "E"
	default:
		return "None"
	}
}

// ResourceDefinition describes one resource within an ObjectDefinition:
// its wire type, multiplicity, permitted operations and optional default
// value.
type ResourceDefinition struct {
	ID           uint32
	Name         string
	Type         ResourceType
	MinInstances int
	MaxInstances int
	Operations   Operations
	Default      *Value
}

// Mandatory reports whether at least one instance of this resource is
// required (MinInstances >= 1).
func (r *ResourceDefinition) Mandatory() bool { return r.MinInstances >= 1 }

// MultipleInstance reports whether this resource may appear more than
// once per object instance.
func (r *ResourceDefinition) MultipleInstance() bool { return r.MaxInstances > 1 }

func (r *ResourceDefinition) clone() *ResourceDefinition {
	cp := *r
	if r.Default != nil {
		d := r.Default.Clone()
		cp.Default = &d
	}
	return &cp
}

// ObjectDefinition describes one LWM2M object: its resource definitions,
// keyed by resource ID, and its own multiplicity.
type ObjectDefinition struct {
	ID           uint32
	Name         string
	MinInstances int
	MaxInstances int
	Resources    map[uint32]*ResourceDefinition
}

// Mandatory reports whether at least one instance of this object is
// required.
func (o *ObjectDefinition) Mandatory() bool { return o.MinInstances >= 1 }

// MultipleInstance reports whether this object may have more than one
// instance.
func (o *ObjectDefinition) MultipleInstance() bool { return o.MaxInstances > 1 }

// Resource looks up a resource definition by ID.
func (o *ObjectDefinition) Resource(resourceID uint32) (*ResourceDefinition, bool) {
	r, ok := o.Resources[resourceID]
	return r, ok
}

// clone deep-copies an ObjectDefinition, including every ResourceDefinition
// it owns, so a registry entry never shares storage with caller-held
// definitions (spec.md §3.1: "deep-copied on registration so the caller may
// free the input").
func (o *ObjectDefinition) clone() *ObjectDefinition {
	cp := &ObjectDefinition{
		ID:           o.ID,
		Name:         o.Name,
		MinInstances: o.MinInstances,
		MaxInstances: o.MaxInstances,
		Resources:    make(map[uint32]*ResourceDefinition, len(o.Resources)),
	}
	for id, r := range o.Resources {
		cp.Resources[id] = r.clone()
	}
	return cp
}

// DefinitionRegistry is the process-level catalogue mapping object IDs to
// object definitions. A Session refreshes its registry from the daemon on
// Connect and after a successful Define; lookups return borrowed pointers
// whose lifetime is the registry's.
type DefinitionRegistry struct {
	mu      sync.RWMutex
	objects map[uint32]*ObjectDefinition
}

// NewDefinitionRegistry returns an empty registry.
func NewDefinitionRegistry() *DefinitionRegistry {
	return &DefinitionRegistry{objects: make(map[uint32]*ObjectDefinition)}
}

// Add registers a deep copy of def. It fails with ErrAlreadyDefined if
// def.ID is already present; the existing entry is left untouched.
func (r *DefinitionRegistry) Add(def *ObjectDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.objects[def.ID]; exists {
		return newAPIError(ErrorKindAlreadyDefined, "object already defined")
	}
	r.objects[def.ID] = def.clone()
	return nil
}

// Lookup returns the object definition for objectID, or false if undefined.
func (r *DefinitionRegistry) Lookup(objectID uint32) (*ObjectDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.objects[objectID]
	return def, ok
}

// IsDefined reports whether objectID has a registered definition.
func (r *DefinitionRegistry) IsDefined(objectID uint32) bool {
	_, ok := r.Lookup(objectID)
	return ok
}

// ResourceDefinition looks up a resource definition by object and resource
// ID, returning false if either is undefined.
func (r *DefinitionRegistry) ResourceDefinition(objectID, resourceID uint32) (*ResourceDefinition, bool) {
	obj, ok := r.Lookup(objectID)
	if !ok {
		return nil, false
	}
	return obj.Resource(resourceID)
}

// ObjectIDs returns the set of defined object IDs, ascending.
func (r *DefinitionRegistry) ObjectIDs() []uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uint32, 0, len(r.objects))
	for id := range r.objects {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// refreshFrom atomically replaces the registry's contents with defs. A
// partial refresh (some defs malformed) is rejected as a whole: either all
// definitions are installed or none are, matching spec.md §4.3 ("partial
// refreshes are rejected atomically").
func (r *DefinitionRegistry) refreshFrom(defs []*ObjectDefinition) error {
	next := make(map[uint32]*ObjectDefinition, len(defs))
	for _, def := range defs {
		if def == nil || def.ID > invalidID {
			return newAPIError(ErrorKindDefinitionInvalid, "malformed object definition in refresh")
		}
		next[def.ID] = def.clone()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects = next
	return nil
}
