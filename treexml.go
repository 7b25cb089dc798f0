package awaserver

import "strconv"

// clientTreesToXML renders a map of clientID -> request Tree into the
// <Clients> element of an IPC Request, encoding each resource node's Value
// (if any), per-node Attributes, per-instance WriteMode and Execute
// Arguments.
func clientTreesToXML(trees map[string]*Tree, writeModes map[string]map[string]string, args map[string]string) *wireClientsXML {
	out := &wireClientsXML{}
	for clientID, tree := range trees {
		wc := &wireClientXML{ID: clientID, Objects: &wireObjectsXML{}}
		tree.Root().rangeChildren(func(objNode *Node) {
			wo := &wireObjectXML{ID: idString(objNode.path.ObjectID())}
			objNode.rangeChildren(func(instNode *Node) {
				wi := &wireInstanceXML{ID: idString(mustInstanceID(instNode.path))}
				if writeModes != nil {
					if perClient, ok := writeModes[clientID]; ok {
						if mode, ok := perClient[instNode.path.String()]; ok {
							wi.WriteMode = mode
						}
					}
				}
				instNode.rangeChildren(func(resNode *Node) {
					wr := resourceNodeToXML(resNode)
					if args != nil {
						if a, ok := args[clientID+resNode.path.String()]; ok {
							wr.Args = a
						}
					}
					if writeModes != nil {
						if perClient, ok := writeModes[clientID]; ok {
							if mode, ok := perClient[resNode.path.String()]; ok {
								wr.WriteMode = mode
							}
						}
					}
					wi.Resource = append(wi.Resource, wr)
				})
				wo.Instance = append(wo.Instance, wi)
			})
			wc.Objects.Object = append(wc.Objects.Object, wo)
		})
		out.Client = append(out.Client, wc)
	}
	return out
}

func resourceNodeToXML(resNode *Node) *wireResourceXML {
	resourceID, _ := resNode.path.ResourceID()
	wr := &wireResourceXML{ID: idString(resourceID)}
	if resNode.cancel {
		wr.Cancel = "true"
	}
	for link, val := range resNode.attributes {
		wr.Attribute = append(wr.Attribute, &wireAttributeXML{
			Link:  string(link),
			Value: strconv.FormatFloat(val, 'f', -1, 64),
		})
	}
	if resNode.value != nil {
		v := *resNode.value
		if v.IsArray() {
			v.Range(func(index uint16, elem Value) {
				wire, err := encodeScalarWire(elem)
				if err != nil {
					return
				}
				wr.Instance = append(wr.Instance, &wireResInstanceXML{
					ID:    strconv.Itoa(int(index)),
					Value: &wireValueXML{Text: wire},
				})
			})
		} else if v.Kind() != ResourceTypeNone {
			if wire, err := encodeScalarWire(v); err == nil {
				wr.Value = append(wr.Value, &wireValueXML{Text: wire})
			}
		}
	}
	return wr
}

// xmlToClientTrees parses the <Clients> element of an IPC Response (or
// Request) back into one Tree per client ID, decoding resource values
// against registry (nil registry leaves values in their wire string form
// untyped, decoded best-effort as String).
func xmlToClientTrees(wc *wireClientsXML, registry *DefinitionRegistry) map[string]*Tree {
	out := make(map[string]*Tree)
	if wc == nil {
		return out
	}
	for _, client := range wc.Client {
		tree := NewTree()
		var objects []*wireObjectXML
		if client.Objects != nil {
			objects = client.Objects.Object
		}
		for _, wo := range objects {
			objectID := parseID(wo.ID)
			objPath, _ := NewObjectPath(objectID)
			objNode := tree.Insert(objPath)
			if wo.Result != nil {
				r := resultFromXML(wo.Result)
				objNode.SetResult(r)
			}
			for _, wi := range wo.Instance {
				instanceID := parseID(wi.ID)
				instPath, _ := NewObjectInstancePath(objectID, instanceID)
				instNode := tree.Insert(instPath)
				if wi.Result != nil {
					instNode.SetResult(resultFromXML(wi.Result))
				}
				if wi.Change != "" {
					instNode.SetChangeType(changeTypeByName[wi.Change])
				}
				for _, wr := range wi.Resource {
					resourceID := parseID(wr.ID)
					resPath, _ := NewResourcePath(objectID, instanceID, resourceID)
					resNode := tree.Insert(resPath)
					populateResourceNode(resNode, wr, registry, objectID, resourceID)
				}
			}
		}
		out[client.ID] = tree
	}
	return out
}

func populateResourceNode(resNode *Node, wr *wireResourceXML, registry *DefinitionRegistry, objectID, resourceID uint32) {
	if wr.Result != nil {
		resNode.SetResult(resultFromXML(wr.Result))
	}
	if wr.Change != "" {
		resNode.SetChangeType(changeTypeByName[wr.Change])
	}
	if wr.Cancel == "true" {
		resNode.SetCancel(true)
	}
	for _, attr := range wr.Attribute {
		if f, err := strconv.ParseFloat(attr.Value, 64); err == nil {
			resNode.SetAttribute(AttributeLink(attr.Link), f)
		}
	}
	kind := ResourceTypeString
	if registry != nil {
		if def, ok := registry.ResourceDefinition(objectID, resourceID); ok {
			kind = def.Type
		}
	}
	if len(wr.Instance) > 0 {
		elementKind := kind
		if elementKind.IsArray() {
			elementKind = arrayElementKind(elementKind)
		}
		arr := NewArrayValue(elementKind)
		for _, ri := range wr.Instance {
			idx, _ := strconv.ParseUint(ri.ID, 10, 16)
			if ri.Value == nil {
				continue
			}
			elem, err := decodeScalarWire(elementKind, ri.Value.Text)
			if err == nil {
				arr.SetAt(uint16(idx), elem)
			}
		}
		resNode.SetValue(arr)
		return
	}
	if len(wr.Value) > 0 {
		scalarKind := kind
		if scalarKind.IsArray() {
			scalarKind = arrayElementKind(scalarKind)
		}
		v, err := decodeScalarWire(scalarKind, wr.Value[0].Text)
		if err == nil {
			resNode.SetValue(v)
		}
	}
}

func idString(id uint32) string { return strconv.FormatUint(uint64(id), 10) }

func parseID(s string) uint32 {
	v, _ := strconv.ParseUint(s, 10, 32)
	return uint32(v)
}

func mustInstanceID(p Path) uint32 {
	id, _ := p.InstanceID()
	return id
}

// rangeChildren visits n's children in ascending-ID order.
func (n *Node) rangeChildren(fn func(child *Node)) {
	keys := append([]string(nil), n.order...)
	sortStrings(keys, func(a, b string) bool {
		return n.children[a].sortKey() < n.children[b].sortKey()
	})
	for _, key := range keys {
		fn(n.children[key])
	}
}

func sortStrings(s []string, less func(a, b string) bool) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && less(s[j], s[j-1]); j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
