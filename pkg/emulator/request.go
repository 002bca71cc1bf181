package emulator

import "context"

// ask sends a command with a fresh reply channel and waits for the answer.
// The command is never cancelled, the context only bounds the waiting.
func ask[T any](ctx context.Context, s Submitter, cmd func(chan T) Command) (T, error) {
	ch := make(chan T, 1)
	s.Submit(cmd(ch))
	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		var empty T
		return empty, ctx.Err()
	}
}

func ScreenOf(ctx context.Context, s Submitter) (Maybe[ScreenData], error) {
	return ask(ctx, s, func(ch chan Maybe[ScreenData]) Command { return GetScreenData{Reply: ch} })
}

func ReadMemoryOf(ctx context.Context, s Submitter, expr string) (Maybe[string], error) {
	return ask(ctx, s, func(ch chan Maybe[string]) Command { return ReadMemory{Expr: expr, Reply: ch} })
}

func WriteMemoryOf(ctx context.Context, s Submitter, expr string) (Maybe[string], error) {
	return ask(ctx, s, func(ch chan Maybe[string]) Command { return WriteMemory{Expr: expr, Reply: ch} })
}

func RunStealthOf(ctx context.Context, s Submitter, jump uint32, state map[string]uint32) (StealthResult, error) {
	return ask(ctx, s, func(ch chan StealthResult) Command {
		return RunStealth{Jump: jump, State: state, Reply: ch}
	})
}

func BurstOf(ctx context.Context, s Submitter, ops []Command) ([]BurstResult, error) {
	return ask(ctx, s, func(ch chan []BurstResult) Command { return Burst{Ops: ops, Reply: ch} })
}
