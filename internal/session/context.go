package session

import "context"

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session carried by ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// Current returns the authenticated session carried by ctx.
func Current(ctx context.Context) (*Session, bool) {
	s := FromContext(ctx)
	if !s.IsAuthenticated() {
		return nil, false
	}
	return s, true
}
