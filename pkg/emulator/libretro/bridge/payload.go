package bridge

import "fmt"

// Libretro environment command codes.
const (
	EnvGetSystemDirectory uint32 = 9
	EnvSetPixelFormat     uint32 = 10
	EnvGetVariable        uint32 = 15
	EnvGetSaveDirectory   uint32 = 31
	EnvExperimental       uint32 = 0x10000
	EnvGetInputBitmasks          = 51 | EnvExperimental
)

// Request is a supported environment request.
type Request int

const (
	GetVariable Request = iota
	GetSystemDirectory
	GetSaveDirectory
	SetPixelFormat
	GetInputBitmasks
)

func (r Request) String() string {
	switch r {
	case GetVariable:
		return "GetVariable"
	case GetSystemDirectory:
		return "GetSystemDirectory"
	case GetSaveDirectory:
		return "GetSaveDirectory"
	case SetPixelFormat:
		return "SetPixelFormat"
	case GetInputBitmasks:
		return "GetInputBitmasks"
	}
	return fmt.Sprintf("Request(%d)", int(r))
}

// ParseRequest maps a libretro command code to a request.
func ParseRequest(code uint32) (Request, bool) {
	switch code {
	case EnvGetVariable:
		return GetVariable, true
	case EnvGetSystemDirectory:
		return GetSystemDirectory, true
	case EnvGetSaveDirectory:
		return GetSaveDirectory, true
	case EnvSetPixelFormat:
		return SetPixelFormat, true
	case EnvGetInputBitmasks:
		return GetInputBitmasks, true
	}
	return 0, false
}

// Payload is the typed data of an environment request.
type Payload interface{ payload() }

type (
	// Variable is a core option lookup, the handler fills Value.
	Variable struct {
		Key   string
		Value string
		Found bool
	}
	// StringSlot is a string the handler hands over to the core.
	StringSlot struct{ Value string }
	// IntSlot is an integer passed in either direction.
	IntSlot struct{ Value int }
	// NoPayload is for the requests without data.
	NoPayload struct{}
)

func (*Variable) payload()   {}
func (*StringSlot) payload() {}
func (*IntSlot) payload()    {}
func (NoPayload) payload()   {}

// PayloadFor makes an empty payload of the type the request carries.
func PayloadFor(r Request) Payload {
	switch r {
	case GetVariable:
		return &Variable{}
	case GetSystemDirectory, GetSaveDirectory:
		return &StringSlot{}
	case SetPixelFormat:
		return &IntSlot{}
	}
	return NoPayload{}
}

// Environment is one environment call of the core.
type Environment struct {
	Request Request
	Payload Payload
}

// PayloadCodec moves the payload across the native boundary.
// Decode reads the request data the core passed in,
// Encode writes the handler answer back.
type PayloadCodec interface {
	Decode(r Request) (Payload, error)
	Encode(r Request, p Payload) error
}
