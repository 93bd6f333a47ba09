package handlers

import "strconv"

const defaultListLimit = 50

func parseLimit(raw string) int32 {
	if raw == "" {
		return defaultListLimit
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v <= 0 {
		return defaultListLimit
	}
	return int32(v)
}
