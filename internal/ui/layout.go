package ui

import "strconv"

// LayoutCompactWidth is the width below which the header drops the location.
const LayoutCompactWidth = 100

// Buffer limits.
const (
	scriptOutputLimit = 500
)

func itoa(n int) string { return strconv.Itoa(n) }
