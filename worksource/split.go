package worksource

import (
	"bytes"
	"math/big"

	"github.com/mgarolera/cloud-bigtable-client/bigtable"
)

// interpolateKey estimates the key num/den of the way from start to end.
// Keys are opaque, so the estimate treats both as fixed-width big-endian
// numbers (right-padded with zeros, one spare byte of resolution) and scales
// the difference proportionally. Returns nil when the estimate collapses
// onto a boundary.
func interpolateKey(start, end bigtable.RowKey, num, den int64) bigtable.RowKey {
	width := max(len(start), len(end)) + 1
	lo := new(big.Int).SetBytes(padRight(start, width))
	hi := new(big.Int).SetBytes(padRight(end, width))

	span := new(big.Int).Sub(hi, lo)
	if span.Sign() <= 0 {
		return nil
	}
	span.Mul(span, big.NewInt(num))
	span.Div(span, big.NewInt(den))
	span.Add(lo, span)

	key := bigtable.RowKey(bytes.TrimRight(span.FillBytes(make([]byte, width)), "\x00"))
	if key.Compare(start) <= 0 || key.Compare(end) >= 0 {
		return nil
	}
	return key
}

func padRight(key bigtable.RowKey, width int) []byte {
	padded := make([]byte, width)
	copy(padded, key)
	return padded
}
