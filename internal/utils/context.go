package utils

import "context"

type requestMetaKey struct{}

// RequestMeta 随请求上下文传递的元数据（审计日志使用）
type RequestMeta struct {
	RequestID string
	IP        string
	UserAgent string
}

// WithRequestMeta 将请求元数据写入 context
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom 从 context 读取请求元数据，不存在时返回零值
func RequestMetaFrom(ctx context.Context) RequestMeta {
	if ctx == nil {
		return RequestMeta{}
	}
	if meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return meta
	}
	return RequestMeta{}
}
