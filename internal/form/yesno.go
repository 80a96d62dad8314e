package form

import (
	"strconv"
	"strings"
)

// YesNo 是/否字段，兼容 "Yes"/"No" 和 JSON 布尔值
type YesNo string

const (
	Yes YesNo = "Yes"
	No  YesNo = "No"
)

// UnmarshalJSON 布尔值转换为 Yes/No，其他字符串原样保留交给校验
func (v *YesNo) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch raw {
	case "true":
		*v = Yes
		return nil
	case "false":
		*v = No
		return nil
	case "null":
		*v = ""
		return nil
	}
	s, err := strconv.Unquote(raw)
	if err != nil {
		*v = YesNo(raw)
		return nil
	}
	*v = YesNo(s)
	return nil
}

// Bool 是否为 Yes
func (v YesNo) Bool() bool {
	return v == Yes
}
