package form

import (
	"strconv"
	"strings"
)

var navigationKeys = map[string]bool{
	"Backspace":  true,
	"Delete":     true,
	"Tab":        true,
	"ArrowLeft":  true,
	"ArrowRight": true,
}

// AllowKey reports whether a key press may reach a numeric control.
// Digits, deletion and navigation pass, as do shortcuts except copy and paste.
func AllowKey(ev KeyDown) bool {
	if ev.Ctrl || ev.Meta {
		k := strings.ToLower(ev.Key)
		return k != "c" && k != "v"
	}
	if navigationKeys[ev.Key] {
		return true
	}
	return len(ev.Key) == 1 && ev.Key[0] >= '0' && ev.Key[0] <= '9'
}

// ParseNumeric reads the leading integer of s. Empty or non numeric input
// yields zero, so "12abc" is 12 and "abc" is 0.
func ParseNumeric(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
