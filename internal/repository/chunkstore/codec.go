package chunkstore

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/kailas-cloud/tenqd/internal/domain/fragment"
)

// Hash field names for stored fragments.
const (
	fieldSection   = "section"
	fieldItem      = "item"
	fieldChunkIdx  = "chunk_index"
	fieldText      = "text"
	fieldTicker    = "ticker"
	fieldCIK       = "cik"
	fieldAccession = "accession"
	fieldVector    = "__vector"
)

// buildHashFields converts an indexed fragment into a flat map for HSET.
func buildHashFields(f fragment.Fragment, vector []float32) map[string]string {
	return map[string]string{
		fieldSection:   f.SectionName,
		fieldItem:      f.SectionItem,
		fieldChunkIdx:  strconv.Itoa(f.ChunkIndex),
		fieldText:      f.Text,
		fieldTicker:    f.Ticker,
		fieldCIK:       f.CIK,
		fieldAccession: f.AccessionNumber,
		fieldVector:    vectorToBytes(vector),
	}
}

// parseHashFields converts a flat hash map back into an indexed fragment.
func parseHashFields(m map[string]string) fragment.Indexed {
	idx, _ := strconv.Atoi(m[fieldChunkIdx])
	return fragment.Indexed{
		Fragment: fragment.Fragment{
			SectionName:     m[fieldSection],
			SectionItem:     m[fieldItem],
			ChunkIndex:      idx,
			Text:            m[fieldText],
			Ticker:          m[fieldTicker],
			CIK:             m[fieldCIK],
			AccessionNumber: m[fieldAccession],
		},
		Embedding: bytesToVector(m[fieldVector]),
	}
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
