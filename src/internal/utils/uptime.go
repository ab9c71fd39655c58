package utils

import (
	"strconv"
	"strings"
)

// FormatUptime renders a duration in seconds as "Nd Nh Nm".
// Zero components are skipped and seconds are shown only below one minute.
func FormatUptime(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds < 60 {
		return strconv.FormatInt(seconds, 10) + "s"
	}

	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24
	minutes %= 60
	hours %= 24

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, strconv.FormatInt(days, 10)+"d")
	}
	if hours > 0 {
		parts = append(parts, strconv.FormatInt(hours, 10)+"h")
	}
	if minutes > 0 {
		parts = append(parts, strconv.FormatInt(minutes, 10)+"m")
	}
	return strings.Join(parts, " ")
}
