package awaserver

import (
	"strconv"
	"strings"
)

// invalidID is the reserved "no ID" sentinel; ParsePath rejects any
// segment equal to it, while the NewXxxPath constructors do not check it.
const invalidID uint32 = 65535

// PathShape names which levels of a Path are populated.
type PathShape int

const (
	// PathShapeInvalid is the zero value: a Path that failed to parse or
	// was never assigned a shape.
	PathShapeInvalid PathShape = iota
	PathShapeObject
	PathShapeObjectInstance
	PathShapeResource
)

// Path is a validated LWM2M path: an object ID, optionally an instance ID,
// optionally a resource ID. IDs are in [0, 65535]; 65535 is reserved
// (Invalid). Path is a value type: copying it is always safe.
type Path struct {
	shape      PathShape
	objectID   uint32
	instanceID uint32
	resourceID uint32
}

// NewObjectPath builds an object-shaped path "/O".
func NewObjectPath(objectID uint32) (Path, error) {
	if objectID > invalidID {
		return Path{}, newAPIError(ErrorKindIDInvalid, "object ID out of range")
	}
	return Path{shape: PathShapeObject, objectID: objectID}, nil
}

// NewObjectInstancePath builds an object-instance-shaped path "/O/I".
func NewObjectInstancePath(objectID, instanceID uint32) (Path, error) {
	if objectID > invalidID || instanceID > invalidID {
		return Path{}, newAPIError(ErrorKindIDInvalid, "object or instance ID out of range")
	}
	return Path{shape: PathShapeObjectInstance, objectID: objectID, instanceID: instanceID}, nil
}

// NewResourcePath builds a resource-shaped path "/O/I/R".
func NewResourcePath(objectID, instanceID, resourceID uint32) (Path, error) {
	if objectID > invalidID || instanceID > invalidID || resourceID > invalidID {
		return Path{}, newAPIError(ErrorKindIDInvalid, "object, instance or resource ID out of range")
	}
	return Path{shape: PathShapeResource, objectID: objectID, instanceID: instanceID, resourceID: resourceID}, nil
}

// ParsePath parses the canonical form "/O", "/O/I" or "/O/I/R". It rejects
// a trailing slash, leading/embedded whitespace, non-decimal segments,
// overflowing integers and any non-canonical re-serialisation (e.g. "/03/0",
// since 03 != 3 in canonical form).
func ParsePath(s string) (Path, error) {
	if s == "" || s[0] != '/' || strings.HasSuffix(s, "/") {
		return Path{}, newAPIError(ErrorKindPathInvalid, "malformed path "+s)
	}
	segments := strings.Split(s[1:], "/")
	if len(segments) == 0 || len(segments) > 3 {
		return Path{}, newAPIError(ErrorKindPathInvalid, "malformed path "+s)
	}
	ids := make([]uint32, len(segments))
	for i, seg := range segments {
		id, err := parsePathSegment(seg)
		if err != nil {
			return Path{}, err
		}
		ids[i] = id
	}
	var p Path
	switch len(ids) {
	case 1:
		p, _ = NewObjectPath(ids[0])
	case 2:
		p, _ = NewObjectInstancePath(ids[0], ids[1])
	case 3:
		p, _ = NewResourcePath(ids[0], ids[1], ids[2])
	}
	if p.String() != s {
		return Path{}, newAPIError(ErrorKindPathInvalid, "non-canonical path "+s)
	}
	return p, nil
}

func parsePathSegment(seg string) (uint32, error) {
	if seg == "" {
		return 0, newAPIError(ErrorKindPathInvalid, "empty path segment")
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return 0, newAPIError(ErrorKindPathInvalid, "non-decimal path segment "+seg)
		}
	}
	v, err := strconv.ParseUint(seg, 10, 32)
	if err != nil || v >= uint64(invalidID) {
		return 0, newAPIError(ErrorKindIDInvalid, "path ID out of range: "+seg)
	}
	return uint32(v), nil
}

// Shape reports which of Object/ObjectInstance/Resource this path is.
func (p Path) Shape() PathShape { return p.shape }

// IsValid reports whether the path has a recognised shape.
func (p Path) IsValid() bool { return p.shape != PathShapeInvalid }

// ObjectID returns the object ID. Valid for any non-invalid shape.
func (p Path) ObjectID() uint32 { return p.objectID }

// InstanceID returns the instance ID and whether one is present
// (ObjectInstance or Resource shape).
func (p Path) InstanceID() (uint32, bool) {
	if p.shape == PathShapeObjectInstance || p.shape == PathShapeResource {
		return p.instanceID, true
	}
	return 0, false
}

// ResourceID returns the resource ID and whether one is present (Resource
// shape only).
func (p Path) ResourceID() (uint32, bool) {
	if p.shape == PathShapeResource {
		return p.resourceID, true
	}
	return 0, false
}

// IsObject reports whether this path addresses exactly an object.
func (p Path) IsObject() bool { return p.shape == PathShapeObject }

// IsObjectInstance reports whether this path addresses exactly an object
// instance.
func (p Path) IsObjectInstance() bool { return p.shape == PathShapeObjectInstance }

// IsResource reports whether this path addresses exactly a resource.
func (p Path) IsResource() bool { return p.shape == PathShapeResource }

// String renders the canonical form: "/O", "/O/I" or "/O/I/R". The zero
// Path (PathShapeInvalid) renders as "".
func (p Path) String() string {
	switch p.shape {
	case PathShapeObject:
		return "/" + strconv.FormatUint(uint64(p.objectID), 10)
	case PathShapeObjectInstance:
		return "/" + strconv.FormatUint(uint64(p.objectID), 10) + "/" + strconv.FormatUint(uint64(p.instanceID), 10)
	case PathShapeResource:
		return "/" + strconv.FormatUint(uint64(p.objectID), 10) + "/" + strconv.FormatUint(uint64(p.instanceID), 10) + "/" + strconv.FormatUint(uint64(p.resourceID), 10)
	default:
		return ""
	}
}

// Parent returns the path one level up (Resource -> ObjectInstance ->
// Object) and true, or the zero Path and false if p is already an Object
// path or invalid.
func (p Path) Parent() (Path, bool) {
	switch p.shape {
	case PathShapeResource:
		parent, _ := NewObjectInstancePath(p.objectID, p.instanceID)
		return parent, true
	case PathShapeObjectInstance:
		parent, _ := NewObjectPath(p.objectID)
		return parent, true
	default:
		return Path{}, false
	}
}
