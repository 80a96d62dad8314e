package form

import (
	"strconv"
	"strings"
)

// Quantity 数量字段，兼容 JSON 数字和数字字符串（"5"）
// 非整数输入不会导致解码失败，而是留给校验阶段报告
type Quantity struct {
	Value   int
	Present bool
	Invalid bool
}

// NewQuantity 创建有效数量
func NewQuantity(v int) Quantity {
	return Quantity{Value: v, Present: true}
}

// UnmarshalJSON 解析数字或数字字符串
func (q *Quantity) UnmarshalJSON(data []byte) error {
	*q = Quantity{}

	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			q.Present, q.Invalid = true, true
			return nil
		}
		raw = strings.TrimSpace(unquoted)
		if raw == "" {
			return nil
		}
	}

	q.Present = true
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.Invalid = true
		return nil
	}
	q.Value = n
	return nil
}

// MarshalJSON 缺失或无效时输出 null
func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Present || q.Invalid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(q.Value)), nil
}
