package cookies

import (
	"sort"
	"strings"
)

const (
	// fixedOverhead approximates the separator/attribute bytes each cookie
	// adds to the Cookie header.
	fixedOverhead = 10

	// minViableValue is the smallest value space worth truncating into; a
	// shorter remnant is useless to any consumer.
	minViableValue = 50
)

// Size returns the budgeted size of one cookie.
func Size(d Descriptor) int {
	return len(d.Name) + len(d.Value) + fixedOverhead
}

// TotalSize returns the aggregate budgeted size of the sequence.
func TotalSize(descs []Descriptor) int {
	total := 0
	for _, d := range descs {
		total += Size(d)
	}
	return total
}

// Optimize bounds the aggregate cookie size to maxTotalBytes so the identity
// layer never pushes the transport into request-header-too-large failures.
//
// Sequences already within budget pass through untouched. Otherwise cookies
// are stable-sorted by priority (identity cookies first, then descending
// value length), accepted greedily, and the first cookie that would overflow
// is truncated into the remaining space when enough space is left; everything
// after it is dropped.
func Optimize(descs []Descriptor, maxTotalBytes int) []Descriptor {
	if TotalSize(descs) <= maxTotalBytes {
		return descs
	}

	sorted := make([]Descriptor, len(descs))
	copy(sorted, descs)
	sort.SliceStable(sorted, func(i, j int) bool {
		ai, aj := sorted[i].IsAuth(), sorted[j].IsAuth()
		if ai != aj {
			return ai
		}
		return len(sorted[i].Value) > len(sorted[j].Value)
	})

	out := make([]Descriptor, 0, len(sorted))
	used := 0

	for _, d := range sorted {
		size := Size(d)
		if used+size <= maxTotalBytes {
			out = append(out, d)
			used += size
			continue
		}

		// First overflow: truncate into the remaining space if viable,
		// then stop either way. The budget is exhausted.
		space := maxTotalBytes - used - len(d.Name) - fixedOverhead
		if space > minViableValue {
			d.Value = TruncateValue(d.Value, space)
			out = append(out, d)
		}
		break
	}

	return out
}

// TruncateValue shortens a cookie value to at most maxLen bytes. Values
// shaped like structured tokens (three dot-separated segments) keep the first
// segment verbatim and shorten the second and third proportionally, since a
// blind suffix cut corrupts the segment framing along with the content.
func TruncateValue(value string, maxLen int) string {
	if maxLen < 0 {
		maxLen = 0
	}
	if len(value) <= maxLen {
		return value
	}

	if parts := strings.Split(value, "."); len(parts) == 3 {
		header := parts[0]
		payload := cut(parts[1], maxLen*6/10)
		signature := cut(parts[2], maxLen*2/10)
		truncated := header + "." + payload + "." + signature
		return cut(truncated, maxLen)
	}

	return value[:maxLen]
}

func cut(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	return s[:n]
}
