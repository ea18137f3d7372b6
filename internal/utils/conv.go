package utils

import (
	"strconv"
	"strings"
)

// StringToInt parses s, returning fallback when s is empty or not a number.
func StringToInt(s string, fallback int) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return i
}

// BoundedInt 解析分页类查询参数，超出 [lo, hi] 时返回 fallback
func BoundedInt(s string, fallback, lo, hi int) int {
	i := StringToInt(s, fallback)
	if i < lo || i > hi {
		return fallback
	}
	return i
}
