package core

import (
	"fmt"
	"strconv"
)

// Op is the operation a request asks for.
type Op int

const (
	OpSave Op = iota + 1
	OpLoad
)

func (o Op) String() string {
	switch o {
	case OpSave:
		return "save"
	case OpLoad:
		return "load"
	default:
		return "op(" + strconv.Itoa(int(o)) + ")"
	}
}

// Version identifies a revision of the message contract.
// Revisions only rename messages; payloads are the same.
type Version int

const (
	ProtocolV1 Version = 1
	ProtocolV2 Version = 2

	CurrentProtocol = ProtocolV2
)

// Names is the message name set of one protocol version.
type Names struct {
	Save   string // app -> bridge
	Load   string // app -> bridge
	Loaded string // bridge -> app, reply to Load
	Saved  string // bridge -> app, outcome of Save
}

var protocolNames = map[Version]Names{
	ProtocolV1: {Save: "save", Load: "load", Loaded: "loaded", Saved: "saved"},
	ProtocolV2: {Save: "saveStorage", Load: "loadStorage", Loaded: "storageContents", Saved: "storageSaved"},
}

// Negotiate resolves the version a message is phrased in.
// Zero means the current version.
func Negotiate(v Version) (Version, error) {
	if v == 0 {
		return CurrentProtocol, nil
	}
	if _, ok := protocolNames[v]; !ok {
		return 0, fmt.Errorf("%w: %d (current is %d)", ErrUnsupportedVersion, v, CurrentProtocol)
	}
	return v, nil
}

// Names returns the name set of v, or the zero Names if v is unknown.
func (v Version) Names() Names {
	return protocolNames[v]
}

// ParseOp maps a request name of version v to its operation.
func ParseOp(v Version, name string) (Op, error) {
	names := v.Names()
	switch name {
	case "":
	case names.Save:
		return OpSave, nil
	case names.Load:
		return OpLoad, nil
	}
	return 0, fmt.Errorf("%w: %q in protocol v%d", ErrUnknownMessage, name, v)
}

// ReplyName returns the name of the response to op in version v.
func (v Version) ReplyName(op Op) string {
	names := v.Names()
	if op == OpSave {
		return names.Saved
	}
	return names.Loaded
}

// Request is one message from the application to the bridge.
type Request struct {
	// ID correlates the request with its response. Generated when empty.
	ID       string
	Type     string
	Version  Version
	Document Document // only for save
}

// NewSaveRequest builds a save request in the current protocol.
func NewSaveRequest(doc Document) Request {
	return Request{Type: CurrentProtocol.Names().Save, Version: CurrentProtocol, Document: doc}
}

// NewLoadRequest builds a load request in the current protocol.
func NewLoadRequest() Request {
	return Request{Type: CurrentProtocol.Names().Load, Version: CurrentProtocol}
}

// Response is one message from the bridge to the application.
// Exactly one of Document and Err is meaningful: Document for a successful
// load, Err for any failure. A successful save carries neither.
type Response struct {
	ID       string
	Type     string
	Version  Version
	Op       Op
	Seq      uint64 // issuance order of the originating request
	Document Document
	Err      error
}

// OK reports whether the operation succeeded.
func (r Response) OK() bool {
	return r.Err == nil
}

// Kind classifies the failure carried by the response.
func (r Response) Kind() ErrorKind {
	return KindOf(r.Err)
}

// String implements fmt.Stringer.
func (r Response) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s #%d (%s): %v", r.Type, r.Seq, r.ID, r.Err)
	}
	return fmt.Sprintf("%s #%d (%s)", r.Type, r.Seq, r.ID)
}

// LoadResult is the outcome of Bridge.Load.
type LoadResult struct {
	Document Document
	Err      error
}
