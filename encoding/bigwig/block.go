package bigwig

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

// Block type codes: the per-record layout a bigWig data block carries,
// stored in dataHeader.Type.
const (
	blockBedGraph    uint8 = 1
	blockVariableStep uint8 = 2
	blockFixedStep   uint8 = 3
)

// dataHeader is the 24-byte record preceding every bigWig data block's
// values (bigBed blocks have no such header; each row ends with a
// NUL-terminated string and the rows follow one after another).
type dataHeader struct {
	ChromIdx uint32
	Start    uint32
	End      uint32
	Step     uint32
	Span     uint32
	Type     uint8
	NItems   uint16
}

// Value is one decoded bigWig sample: the half-open [Start,End) interval
// it covers and its data value.
type Value struct {
	Start, End uint32
	Val        float32
}

// inflate decompresses raw if Header.Compressed(), or returns it as-is.
// bigWig/bigBed blocks are zlib-deflated as a whole, never per-record.
func inflate(raw []byte, compressed bool) ([]byte, error) {
	if !compressed {
		return raw, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, newErr(KindCorrupt, "inflate", err)
	}
	defer zr.Close()
	var out bytes.Buffer
	if _, err := io.Copy(&out, zr); err != nil {
		return nil, newErr(KindCorrupt, "inflate", err)
	}
	return out.Bytes(), nil
}

// decodeWigBlock parses one decompressed bigWig data block into its
// constituent Values, all of which share dataHeader.ChromIdx.
func decodeWigBlock(buf []byte) (uint32, []Value, error) {
	r := bytes.NewReader(buf)
	var h dataHeader
	fields := []interface{}{&h.ChromIdx, &h.Start, &h.End, &h.Step, &h.Span}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return 0, nil, newErr(KindTruncated, "decodeWigBlock", err)
		}
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Type); err != nil {
		return 0, nil, newErr(KindTruncated, "decodeWigBlock", err)
	}
	var pad uint8
	if err := binary.Read(r, binary.LittleEndian, &pad); err != nil {
		return 0, nil, newErr(KindTruncated, "decodeWigBlock", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.NItems); err != nil {
		return 0, nil, newErr(KindTruncated, "decodeWigBlock", err)
	}

	vals := make([]Value, h.NItems)
	switch h.Type {
	case blockBedGraph:
		for i := range vals {
			var start, end uint32
			var v float32
			if err := binary.Read(r, binary.LittleEndian, &start); err != nil {
				return 0, nil, newErr(KindTruncated, "decodeWigBlock.bedGraph", err)
			}
			if err := binary.Read(r, binary.LittleEndian, &end); err != nil {
				return 0, nil, newErr(KindTruncated, "decodeWigBlock.bedGraph", err)
			}
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return 0, nil, newErr(KindTruncated, "decodeWigBlock.bedGraph", err)
			}
			if end <= start {
				return 0, nil, newErr(KindCorrupt, "decodeWigBlock.bedGraph", errors.Errorf("record [%d,%d) has end<=start", start, end))
			}
			vals[i] = Value{Start: start, End: end, Val: v}
		}
	case blockVariableStep:
		for i := range vals {
			var start uint32
			var v float32
			if err := binary.Read(r, binary.LittleEndian, &start); err != nil {
				return 0, nil, newErr(KindTruncated, "decodeWigBlock.variableStep", err)
			}
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return 0, nil, newErr(KindTruncated, "decodeWigBlock.variableStep", err)
			}
			end := start + h.Span
			if end <= start {
				return 0, nil, newErr(KindCorrupt, "decodeWigBlock.variableStep", errors.Errorf("record [%d,%d) has end<=start", start, end))
			}
			vals[i] = Value{Start: start, End: end, Val: v}
		}
	case blockFixedStep:
		start := h.Start
		for i := range vals {
			var v float32
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return 0, nil, newErr(KindTruncated, "decodeWigBlock.fixedStep", err)
			}
			end := start + h.Span
			if end <= start {
				return 0, nil, newErr(KindCorrupt, "decodeWigBlock.fixedStep", errors.Errorf("record [%d,%d) has end<=start", start, end))
			}
			vals[i] = Value{Start: start, End: end, Val: v}
			start += h.Step
		}
	default:
		return 0, nil, newErr(KindCorrupt, "decodeWigBlock", errors.Errorf("unknown block type %d", h.Type))
	}
	return h.ChromIdx, vals, nil
}

// BedEntry is one row of a bigBed data block: a half-open interval on a
// chromosome plus the tab-separated extra fields the file's autoSQL
// schema defines beyond chrom/start/end.
type BedEntry struct {
	ChromIdx   uint32
	Start, End uint32
	Rest       string // tab-separated; empty if DefinedFieldCount == 3
}

// decodeBedBlock parses one decompressed bigBed data block: a sequence
// of (chromIdx uint32, start uint32, end uint32, rest NUL-terminated
// string) rows with no overall item count — callers read until buf is
// exhausted.
func decodeBedBlock(buf []byte) ([]BedEntry, error) {
	r := bytes.NewReader(buf)
	var entries []BedEntry
	for r.Len() > 0 {
		var chromIdx, start, end uint32
		if err := binary.Read(r, binary.LittleEndian, &chromIdx); err != nil {
			return nil, newErr(KindTruncated, "decodeBedBlock", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &start); err != nil {
			return nil, newErr(KindTruncated, "decodeBedBlock", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &end); err != nil {
			return nil, newErr(KindTruncated, "decodeBedBlock", err)
		}
		rest, err := readCString(r)
		if err != nil {
			return nil, newErr(KindTruncated, "decodeBedBlock", err)
		}
		if end <= start {
			return nil, newErr(KindCorrupt, "decodeBedBlock", errors.Errorf("record [%d,%d) has end<=start", start, end))
		}
		entries = append(entries, BedEntry{ChromIdx: chromIdx, Start: start, End: end, Rest: rest})
	}
	return entries, nil
}

func readCString(r io.ByteReader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && len(buf) == 0 {
				return "", nil
			}
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
}

// safeDiv returns num/count, or math.NaN() if count is 0 (the same NaN a
// Stats mean reports for a bin with no coverage).
func safeDiv(num, count float64) float64 {
	if count == 0 {
		return math.NaN()
	}
	return num / count
}
