package util

import (
	"errors"
	"strconv"
	"strings"
)

var ErrBadBool = errors.New("expected true, false, 1 or 0")

func ParseIntDefault(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

// ParseOptionalBool returns nil for an empty value.
func ParseOptionalBool(s string) (*bool, error) {
	var v bool
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, nil
	case "true", "1":
		v = true
	case "false", "0":
		v = false
	default:
		return nil, ErrBadBool
	}
	return &v, nil
}
