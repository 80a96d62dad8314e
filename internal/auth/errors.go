package auth

import "fmt"

// AuthError 令牌缺失或无效（401），客户端刷新令牌后可以重试
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unauthorized: %s: %v", e.Reason, e.Err)
	}
	return "unauthorized: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func authError(reason string, err error) *AuthError {
	return &AuthError{Reason: reason, Err: err}
}
