package utils

import (
	"strings"
	"unicode"
)

// dangerousPatterns 常见 XSS 与 SQL 注入片段
var dangerousPatterns = []string{
	"<script",
	"</script>",
	"javascript:",
	"onerror=",
	"onload=",
	"'; --",
	"drop table",
	"delete from",
	"insert into",
	"union select",
	"<iframe",
	"<svg",
}

// CleanText 去除首尾空白并移除控制字符（保留换行和制表符）
func CleanText(input string) string {
	trimmed := strings.TrimSpace(input)

	var result strings.Builder
	result.Grow(len(trimmed))
	for _, r := range trimmed {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// ContainsDangerousChars 检查字符串是否包含危险片段
func ContainsDangerousChars(s string) bool {
	lower := strings.ToLower(s)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
