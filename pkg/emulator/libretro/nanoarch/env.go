package nanoarch

import (
	"fmt"
	"unsafe"

	"github.com/emuka/emuka/pkg/emulator/libretro/bridge"
)

/*
#include "libretro.h"
*/
import "C"

// envCodec reads and writes the data pointer of one environment call.
type envCodec struct {
	core *Core
	data unsafe.Pointer
}

func (e envCodec) Decode(r bridge.Request) (bridge.Payload, error) {
	p := bridge.PayloadFor(r)
	if _, ok := p.(bridge.NoPayload); ok {
		return p, nil
	}
	if e.data == nil {
		return nil, fmt.Errorf("%v: no data", r)
	}
	switch v := p.(type) {
	case *bridge.Variable:
		rv := (*C.struct_retro_variable)(e.data)
		if rv.key == nil {
			return nil, fmt.Errorf("%v: no key", r)
		}
		v.Key = C.GoString(rv.key)
	case *bridge.IntSlot:
		v.Value = int(*(*C.enum_retro_pixel_format)(e.data))
	}
	return p, nil
}

func (e envCodec) Encode(r bridge.Request, p bridge.Payload) error {
	switch v := p.(type) {
	case *bridge.Variable:
		rv := (*C.struct_retro_variable)(e.data)
		if !v.Found {
			rv.value = nil
			return nil
		}
		rv.value = e.core.cstr(v.Value)
	case *bridge.StringSlot:
		*(**C.char)(e.data) = e.core.cstr(v.Value)
	case *bridge.IntSlot, bridge.NoPayload:
	default:
		return fmt.Errorf("%v: unknown payload %T", r, p)
	}
	return nil
}
