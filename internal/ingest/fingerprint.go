package ingest

import (
	"fmt"
	"sort"

	"github.com/spaolacci/murmur3"
)

// Fingerprint computes a stable murmur3-128 digest of a row set. Keys are
// hashed in sorted order within each row so that map iteration order does
// not leak into the digest; row order matters, as it does for cohort
// assignment downstream.
func Fingerprint(rows []Row) string {
	h := murmur3.New128()

	keys := make([]string, 0, 16)
	for _, row := range rows {
		keys = keys[:0]
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(h, "%s=%v\n", k, row[k])
		}
		h.Write([]byte{0x1e}) // row separator
	}

	h1, h2 := h.Sum128()
	return fmt.Sprintf("%016x%016x", h1, h2)
}
