package workbook

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Cell and sheet separators keep ["ab","c"] and ["a","bc"] from colliding.
const (
	sheetSep = 0x1e
	cellSep  = 0x1f
)

// fingerprintSheets digests the raw cell content of a workbook snapshot.
// BLAKE2b-256 keeps the digest fast on large workbooks while staying
// collision-resistant enough to serve as a cache key.
func fingerprintSheets(sheets []Sheet) string {
	h, err := blake2b.New256(nil)
	if err != nil {
		// New256 with a nil key cannot fail; keep the compiler honest.
		panic(err)
	}
	for _, s := range sheets {
		h.Write([]byte(s.Name))
		h.Write([]byte{sheetSep})
		for _, row := range s.Rows {
			for _, cell := range row {
				h.Write([]byte(cell))
				h.Write([]byte{cellSep})
			}
			h.Write([]byte{sheetSep})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
