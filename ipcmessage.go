package awaserver

import (
	"encoding/xml"
	"strconv"
)

// messageType names the root element of an IPC document.
type messageType string

const (
	messageTypeRequest      messageType = "Request"
	messageTypeResponse     messageType = "Response"
	messageTypeNotification messageType = "Notification"
)

// messageSubtype names the operation (or notification kind) an IPC
// document carries.
type messageSubtype string

const (
	subtypeConnect          messageSubtype = "Connect"
	subtypeDisconnect       messageSubtype = "Disconnect"
	subtypeRead             messageSubtype = "Read"
	subtypeWrite            messageSubtype = "Write"
	subtypeDelete           messageSubtype = "Delete"
	subtypeExecute          messageSubtype = "Execute"
	subtypeDefine           messageSubtype = "Define"
	subtypeDiscover         messageSubtype = "Discover"
	subtypeWriteAttributes  messageSubtype = "WriteAttributes"
	subtypeListClients      messageSubtype = "ListClients"
	subtypeObserve          messageSubtype = "Observe"
	subtypeNotifyObserve    messageSubtype = "Observe"
	subtypeClientRegister   messageSubtype = "ClientRegister"
	subtypeClientUpdate     messageSubtype = "ClientUpdate"
	subtypeClientDeregister messageSubtype = "ClientDeregister"
)

// wireDoc is the envelope shared by <Request>, <Response> and
// <Notification>: the framing is a single XML document per datagram,
// carrying (type, subtype, sessionId, messageId, content) per spec.md §6.
// This plays the role the teacher's CoapMessage struct plays for binary
// CoAP framing (coap.go) — one struct per wire message, translated
// to/from bytes at the transport boundary.
type wireDoc struct {
	XMLName   xml.Name
	Type      messageSubtype  `xml:"Type,attr"`
	SessionID string          `xml:"SessionID,attr,omitempty"`
	MessageID string          `xml:"MessageID,attr,omitempty"`
	Content   *wireContentXML `xml:"Content"`
}

type wireContentXML struct {
	Clients     *wireClientsXML       `xml:"Clients"`
	Definitions *objectDefinitionsXML `xml:"ObjectDefinitions"`
}

type wireClientsXML struct {
	Client []*wireClientXML `xml:"Client"`
}

type wireClientXML struct {
	ID      string         `xml:"ID"`
	Objects *wireObjectsXML `xml:"Objects"`
}

type wireObjectsXML struct {
	Object []*wireObjectXML `xml:"Object"`
}

type wireObjectXML struct {
	ID       string                   `xml:"ID"`
	Result   *wireResultXML           `xml:"Result,omitempty"`
	Instance []*wireInstanceXML       `xml:"ObjectInstance"`
}

type wireInstanceXML struct {
	ID        string             `xml:"ID"`
	Result    *wireResultXML     `xml:"Result,omitempty"`
	WriteMode string             `xml:"WriteMode,omitempty"`
	Change    string             `xml:"Change,attr,omitempty"`
	Resource  []*wireResourceXML `xml:"Resource"`
}

type wireResourceXML struct {
	ID        string                `xml:"ID"`
	Result    *wireResultXML        `xml:"Result,omitempty"`
	WriteMode string                `xml:"WriteMode,omitempty"`
	Cancel    string                `xml:"Cancel,attr,omitempty"`
	Change    string                `xml:"Change,attr,omitempty"`
	Value     []*wireValueXML       `xml:"Value"`
	Instance  []*wireResInstanceXML `xml:"ResourceInstance"`
	Attribute []*wireAttributeXML   `xml:"Attribute"`
	Args      string                `xml:"Arguments,omitempty"`
}

type wireResInstanceXML struct {
	ID    string         `xml:"ID"`
	Value *wireValueXML  `xml:"Value"`
}

type wireValueXML struct {
	ValueID string `xml:"ValueID,attr,omitempty"`
	Text    string `xml:",chardata"`
}

type wireAttributeXML struct {
	Link  string `xml:"Link,attr"`
	Value string `xml:",chardata"`
}

type wireResultXML struct {
	Error     string `xml:"Error"`
	LWM2MCode string `xml:"LWM2MError,omitempty"`
}

var errorKindNames = map[ErrorKind]string{
	ErrorKindSuccess:             "Success",
	ErrorKindSessionInvalid:      "SessionInvalid",
	ErrorKindSessionNotConnected: "SessionNotConnected",
	ErrorKindIPCError:            "IPCError",
	ErrorKindTimeout:             "Timeout",
	ErrorKindOperationInvalid:    "OperationInvalid",
	ErrorKindPathInvalid:         "PathInvalid",
	ErrorKindIDInvalid:           "IDInvalid",
	ErrorKindTypeMismatch:        "TypeMismatch",
	ErrorKindNotDefined:          "NotDefined",
	ErrorKindAlreadyDefined:      "AlreadyDefined",
	ErrorKindObservationInvalid:  "ObservationInvalid",
	ErrorKindDefinitionInvalid:   "DefinitionInvalid",
	ErrorKindAddInvalid:          "AddInvalid",
	ErrorKindOutOfMemory:         "OutOfMemory",
	ErrorKindOverrun:             "Overrun",
	ErrorKindClientNotFound:      "ClientNotFound",
	ErrorKindLWM2MError:          "LWM2MError",
}

var errorKindByName = func() map[string]ErrorKind {
	m := make(map[string]ErrorKind, len(errorKindNames))
	for k, v := range errorKindNames {
		m[v] = k
	}
	return m
}()

var lwm2mCodeNames = map[LWM2MErrorCode]string{
	LWM2MErrorBadRequest:         "BadRequest",
	LWM2MErrorUnauthorized:       "Unauthorized",
	LWM2MErrorNotFound:           "NotFound",
	LWM2MErrorMethodNotAllowed:   "MethodNotAllowed",
	LWM2MErrorNotAcceptable:      "NotAcceptable",
	LWM2MErrorInternalServerError: "InternalServerError",
}

var lwm2mCodeByName = func() map[string]LWM2MErrorCode {
	m := make(map[string]LWM2MErrorCode, len(lwm2mCodeNames))
	for k, v := range lwm2mCodeNames {
		m[v] = k
	}
	return m
}()

func resultToXML(r PathResult) *wireResultXML {
	x := &wireResultXML{Error: errorKindNames[r.Error]}
	if r.Error == ErrorKindLWM2MError {
		x.LWM2MCode = lwm2mCodeNames[r.LWM2MCode]
	}
	return x
}

func resultFromXML(x *wireResultXML) PathResult {
	if x == nil {
		return Success
	}
	r := PathResult{Error: errorKindByName[x.Error]}
	if x.LWM2MCode != "" {
		r.LWM2MCode = lwm2mCodeByName[x.LWM2MCode]
	}
	return r
}

var changeTypeNames = map[ChangeType]string{
	ChangeTypeResourceModified:      "ResourceModified",
	ChangeTypeResourceCreated:       "ResourceCreated",
	ChangeTypeResourceDeleted:       "ResourceDeleted",
	ChangeTypeObjectInstanceCreated: "ObjectInstanceCreated",
	ChangeTypeObjectInstanceDeleted: "ObjectInstanceDeleted",
}

var changeTypeByName = func() map[string]ChangeType {
	m := make(map[string]ChangeType, len(changeTypeNames))
	for k, v := range changeTypeNames {
		m[v] = k
	}
	return m
}()

func formatMessageID(id uint32) string { return strconv.FormatUint(uint64(id), 10) }

func parseMessageID(s string) uint32 {
	v, _ := strconv.ParseUint(s, 10, 32)
	return uint32(v)
}
