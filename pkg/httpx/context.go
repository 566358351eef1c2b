package httpx

import "context"

type ctxKey string

// CtxKeyUserID holds the authenticated subject id as a string.
const CtxKeyUserID ctxKey = "user_id"

// WithUserID stores the authenticated subject id on ctx.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, id)
}

// UserIDFromContext returns the subject id placed by the authn middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CtxKeyUserID).(string)
	return id, ok && id != ""
}
