package listing

import (
	"math/bits"
	"strconv"
)

var sizeUnits = [...]string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with two decimals and a binary unit,
// e.g. 1536 -> "1.50KB". Negative counts are treated as zero.
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}

	length := bits.Len64(uint64(n))
	if length == 0 {
		length = 1
	}
	idx := min(max((length-1)/10, 0), len(sizeUnits)-1)

	value := float64(n) / float64(uint64(1)<<(10*idx))
	return strconv.FormatFloat(value, 'f', 2, 64) + sizeUnits[idx]
}
