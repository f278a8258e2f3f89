package context

import "context"

// Terminal identifies the till and the cashier operating it.
type Terminal struct {
	TerminalID string
	Cashier    string
}

type terminalKey struct{}

// WithTerminal adds Terminal to context.
func WithTerminal(ctx context.Context, t *Terminal) context.Context {
	return context.WithValue(ctx, terminalKey{}, t)
}

// GetTerminal returns Terminal from context.
func GetTerminal(ctx context.Context) *Terminal {
	if v, ok := ctx.Value(terminalKey{}).(*Terminal); ok {
		return v
	}
	return nil
}
