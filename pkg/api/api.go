// Package api has the HTTP API request and response types.
package api

import (
	"github.com/emuka/emuka/pkg/audio"
	"github.com/emuka/emuka/pkg/emulator"
)

type (
	GameLoadRequest struct {
		Path string `json:"path"`
	}
	SaveLoadRequest struct {
		Path string `json:"path"`
	}
	InputRequest struct {
		Input   emulator.Button `json:"input"`
		Pressed bool            `json:"pressed"`
	}
	AudioRegisterResponse struct {
		Id audio.ConsumerID `json:"id"`
	}
	RecordRequest struct {
		Path string `json:"path"`
	}
	RecordResponse struct {
		Path string `json:"path"`
	}
	MemoryRequest struct {
		Expr string `json:"expr"`
	}
	// MemoryResponse has a nil value when the expression is rejected
	// or can't be evaluated.
	MemoryResponse struct {
		Value *string `json:"value"`
	}
	StealthRequest struct {
		Jump  uint32            `json:"jump"`
		State map[string]uint32 `json:"state"`
	}
	StealthResponse struct {
		State map[string]uint32 `json:"state"`
		Ok    bool              `json:"ok"`
	}
	ErrorResponse struct {
		Error string `json:"error"`
	}
)

// BurstOp is one operation of a burst request.
// Op is one of read, write, stealth or frame.
type BurstOp struct {
	Op    string            `json:"op"`
	Expr  string            `json:"expr,omitempty"`
	Jump  uint32            `json:"jump,omitempty"`
	State map[string]uint32 `json:"state,omitempty"`
}

type BurstResult struct {
	Ok    bool              `json:"ok"`
	Value *string           `json:"value,omitempty"`
	State map[string]uint32 `json:"state,omitempty"`
}

const (
	BurstRead    = "read"
	BurstWrite   = "write"
	BurstStealth = "stealth"
	BurstFrame   = "frame"
)

// Command makes the emulator command of the op,
// unknown ops are nil.
func (o BurstOp) Command() emulator.Command {
	switch o.Op {
	case BurstRead:
		return emulator.ReadMemory{Expr: o.Expr}
	case BurstWrite:
		return emulator.WriteMemory{Expr: o.Expr}
	case BurstStealth:
		return emulator.RunStealth{Jump: o.Jump, State: o.State}
	case BurstFrame:
		return emulator.RunFrame{}
	}
	return nil
}

func NewBurstResult(o BurstOp, r emulator.BurstResult) BurstResult {
	res := BurstResult{Ok: r.Ok, State: r.State}
	if r.Ok && (o.Op == BurstRead || o.Op == BurstWrite) {
		v := r.Value
		res.Value = &v
	}
	return res
}
