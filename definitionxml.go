package awaserver

import (
	"encoding/xml"
	"strconv"
)

// The element shapes below mirror the teacher's Lwm2mDefinitionXML /
// Lwm2mObjectDefinitionXML / Lwm2mResourceDefinitionXML (lwm2m_resource.go),
// carried from "load object definitions from a directory of XML files" to
// "encode/decode the <ObjectDefinitions> element of a Define request and a
// Connect response".

type objectDefinitionsXML struct {
	XMLName xml.Name        `xml:"ObjectDefinitions"`
	Objects []*objectDefXML `xml:"ObjectDefinition"`
}

type objectDefXML struct {
	ObjectID     string            `xml:"ObjectID"`
	Name         string            `xml:"Name"`
	MinInstances string            `xml:"MinInstances"`
	MaxInstances string            `xml:"MaxInstances"`
	Resources    []*resourceDefXML `xml:"ResourceDefinitions>ResourceDefinition"`
}

type resourceDefXML struct {
	ResourceID   string `xml:"ResourceID"`
	Name         string `xml:"Name"`
	Type         string `xml:"Type"`
	MinInstances string `xml:"MinInstances"`
	MaxInstances string `xml:"MaxInstances"`
	Operations   string `xml:"Operations"`
	Default      string `xml:"DefaultValue,omitempty"`
}

var resourceTypeNames = map[ResourceType]string{
	ResourceTypeNone:       "None",
	ResourceTypeString:     "String",
	ResourceTypeInteger:    "Integer",
	ResourceTypeFloat:      "Float",
	ResourceTypeBoolean:    "Boolean",
	ResourceTypeOpaque:     "Opaque",
	ResourceTypeTime:       "Time",
	ResourceTypeObjectLink: "ObjectLink",
}

var resourceTypeByName = func() map[string]ResourceType {
	m := make(map[string]ResourceType, len(resourceTypeNames))
	for k, v := range resourceTypeNames {
		m[v] = k
	}
	return m
}()

var operationsNames = map[Operations]string{
	OperationsNone:      "None",
	OperationsReadOnly:  "R",
	OperationsWriteOnly: "W",
	OperationsReadWrite: "RW",
	OperationsExecute:   "E",
}

var operationsByName = func() map[string]Operations {
	m := make(map[string]Operations, len(operationsNames))
	for k, v := range operationsNames {
		m[v] = k
	}
	return m
}()

// definitionsToWireDoc renders defs as an <ObjectDefinitions> element for
// a Define request or a Connect response.
func definitionsToWireDoc(defs []*ObjectDefinition) *objectDefinitionsXML {
	doc := &objectDefinitionsXML{}
	for _, def := range defs {
		doc.Objects = append(doc.Objects, objectDefToXML(def))
	}
	return doc
}

// marshalObjectDefinitions renders defs as an encoded <ObjectDefinitions>
// document.
func marshalObjectDefinitions(defs []*ObjectDefinition) ([]byte, error) {
	return xml.Marshal(definitionsToWireDoc(defs))
}

func objectDefToXML(def *ObjectDefinition) *objectDefXML {
	x := &objectDefXML{
		ObjectID:     strconv.FormatUint(uint64(def.ID), 10),
		Name:         def.Name,
		MinInstances: strconv.Itoa(def.MinInstances),
		MaxInstances: strconv.Itoa(def.MaxInstances),
	}
	ids := make([]uint32, 0, len(def.Resources))
	for id := range def.Resources {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	for _, id := range ids {
		x.Resources = append(x.Resources, resourceDefToXML(def.Resources[id]))
	}
	return x
}

func resourceDefToXML(r *ResourceDefinition) *resourceDefXML {
	x := &resourceDefXML{
		ResourceID:   strconv.FormatUint(uint64(r.ID), 10),
		Name:         r.Name,
		Type:         resourceTypeNames[r.Type],
		MinInstances: strconv.Itoa(r.MinInstances),
		MaxInstances: strconv.Itoa(r.MaxInstances),
		Operations:   operationsNames[r.Operations],
	}
	if r.Default != nil {
		if wire, err := encodeScalarWire(*r.Default); err == nil {
			x.Default = wire
		}
	}
	return x
}

// ParseObjectDefinitionsXML parses an <ObjectDefinitions> document (the
// format server-define reads from a file) into ObjectDefinitions.
func ParseObjectDefinitionsXML(raw []byte) ([]*ObjectDefinition, error) {
	return unmarshalObjectDefinitions(raw)
}

// EncodeObjectDefinitionsXML renders defs as an <ObjectDefinitions>
// document.
func EncodeObjectDefinitionsXML(defs []*ObjectDefinition) ([]byte, error) {
	return marshalObjectDefinitions(defs)
}

// unmarshalObjectDefinitions parses an <ObjectDefinitions> document.
func unmarshalObjectDefinitions(raw []byte) ([]*ObjectDefinition, error) {
	doc := &objectDefinitionsXML{}
	if err := xml.Unmarshal(raw, doc); err != nil {
		return nil, newAPIError(ErrorKindDefinitionInvalid, "malformed ObjectDefinitions: "+err.Error())
	}
	defs := make([]*ObjectDefinition, 0, len(doc.Objects))
	for _, x := range doc.Objects {
		def, err := objectDefFromXML(x)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func objectDefFromXML(x *objectDefXML) (*ObjectDefinition, error) {
	objectID, err := strconv.ParseUint(x.ObjectID, 10, 32)
	if err != nil {
		return nil, newAPIError(ErrorKindDefinitionInvalid, "invalid ObjectID: "+x.ObjectID)
	}
	minI, _ := strconv.Atoi(x.MinInstances)
	maxI, _ := strconv.Atoi(x.MaxInstances)
	def := &ObjectDefinition{
		ID:           uint32(objectID),
		Name:         x.Name,
		MinInstances: minI,
		MaxInstances: maxI,
		Resources:    make(map[uint32]*ResourceDefinition, len(x.Resources)),
	}
	for _, rx := range x.Resources {
		r, err := resourceDefFromXML(rx)
		if err != nil {
			return nil, err
		}
		def.Resources[r.ID] = r
	}
	return def, nil
}

func resourceDefFromXML(x *resourceDefXML) (*ResourceDefinition, error) {
	resourceID, err := strconv.ParseUint(x.ResourceID, 10, 32)
	if err != nil {
		return nil, newAPIError(ErrorKindDefinitionInvalid, "invalid ResourceID: "+x.ResourceID)
	}
	minI, _ := strconv.Atoi(x.MinInstances)
	maxI, _ := strconv.Atoi(x.MaxInstances)
	kind, ok := resourceTypeByName[x.Type]
	if !ok {
		kind = ResourceTypeNone
	}
	ops, ok := operationsByName[x.Operations]
	if !ok {
		ops = OperationsNone
	}
	r := &ResourceDefinition{
		ID:           uint32(resourceID),
		Name:         x.Name,
		Type:         kind,
		MinInstances: minI,
		MaxInstances: maxI,
		Operations:   ops,
	}
	if x.Default != "" {
		if v, err := decodeScalarWire(kind, x.Default); err == nil {
			r.Default = &v
		}
	}
	return r, nil
}
