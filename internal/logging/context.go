package logging

import "context"

type requestPathKey struct{}

// WithRequestPath returns ctx carrying the path of the request being
// served. Records logged with that ctx get a "path" attribute.
func WithRequestPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, requestPathKey{}, path)
}

// RequestPath returns the path stored by WithRequestPath, or "".
func RequestPath(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	path, _ := ctx.Value(requestPathKey{}).(string)
	return path
}
