package core

import "context"

// Context keys for request metadata. The core holds no ambient session state;
// the authenticated caller travels explicitly in the request context.
type contextKey string

const (
	callerKey    contextKey = "caller"
	ipAddressKey contextKey = "ip_address"
)

// ContextWithCaller attaches the authenticated caller's identity.
func ContextWithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext returns the caller identity, or "anonymous" if none was set.
func CallerFromContext(ctx context.Context) string {
	if caller, ok := ctx.Value(callerKey).(string); ok && caller != "" {
		return caller
	}
	return "anonymous"
}

// ContextWithIPAddress attaches the client IP for logging.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipAddressKey, ip)
}

// IPAddressFromContext returns the client IP, or "" if none was set.
func IPAddressFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ipAddressKey).(string); ok {
		return ip
	}
	return ""
}
