package bigwig

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	magicBigWig  uint32 = 0x888FFC26
	magicBigBed  uint32 = 0x8789F2EB
	magicCirTree uint32 = 0x78CA8C91
	magicRTree   uint32 = 0x2468ACE0
)

// Header is the fixed 64-byte preamble of a bigWig or bigBed file,
// followed by its zoom level table and, if present, its total summary.
type Header struct {
	Version           uint16
	ZoomLevels        uint16
	ChromTreeOffset   uint64
	DataOffset        uint64
	IndexOffset       uint64
	FieldCount        uint16
	DefinedFieldCount uint16
	SQLOffset         uint64
	SummaryOffset     uint64
	BufSize           uint32
	ExtensionOffset   uint64

	Zoom    []ZoomHeader
	Summary TotalSummary // zero value if SummaryOffset == 0
}

// ZoomHeader describes one precomputed summary pyramid level. Between
// ReductionLevel and DataOffset the on-disk record has 4 bytes of
// padding.
type ZoomHeader struct {
	ReductionLevel uint32
	DataOffset     uint64
	IndexOffset    uint64
}

// TotalSummary is the whole-file aggregate recorded at Header.SummaryOffset.
type TotalSummary struct {
	ValidCount uint64
	MinVal     float64
	MaxVal     float64
	SumData    float64
	SumSquared float64
}

// fileKind distinguishes the two magic numbers this package recognizes.
type fileKind int

const (
	kindBigWig fileKind = iota
	kindBigBed
)

// readHeader reads the fixed header, zoom table, and (if present) total
// summary starting at the current position of r, which must be byte 0
// of the file. It reports which of the two magic numbers matched.
func readHeader(r io.ReadSeeker) (Header, fileKind, error) {
	var h Header

	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return h, 0, newErr(KindIO, "readHeader", err)
	}
	var kind fileKind
	switch magic {
	case magicBigWig:
		kind = kindBigWig
	case magicBigBed:
		kind = kindBigBed
	default:
		return h, 0, newErr(KindBadMagic, "readHeader", errors.Errorf("got %#x", magic))
	}

	fields := []interface{}{
		&h.Version,
		&h.ZoomLevels,
		&h.ChromTreeOffset,
		&h.DataOffset,
		&h.IndexOffset,
		&h.FieldCount,
		&h.DefinedFieldCount,
		&h.SQLOffset,
		&h.SummaryOffset,
		&h.BufSize,
		&h.ExtensionOffset,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return h, 0, newErr(KindTruncated, "readHeader", err)
		}
	}

	if h.ZoomLevels > 0 {
		zoom, err := readZoomHeaders(r, h.ZoomLevels)
		if err != nil {
			return h, 0, err
		}
		h.Zoom = zoom
	}

	if h.SummaryOffset > 0 {
		if _, err := r.Seek(int64(h.SummaryOffset), io.SeekStart); err != nil {
			return h, 0, newErr(KindIO, "readHeader", err)
		}
		summaryFields := []interface{}{
			&h.Summary.ValidCount,
			&h.Summary.MinVal,
			&h.Summary.MaxVal,
			&h.Summary.SumData,
			&h.Summary.SumSquared,
		}
		for _, f := range summaryFields {
			if err := binary.Read(r, binary.LittleEndian, f); err != nil {
				return h, 0, newErr(KindTruncated, "readHeader.summary", err)
			}
		}
	}

	return h, kind, nil
}

func readZoomHeaders(r io.Reader, n uint16) ([]ZoomHeader, error) {
	zoom := make([]ZoomHeader, n)
	for i := range zoom {
		var pad uint32
		if err := binary.Read(r, binary.LittleEndian, &zoom[i].ReductionLevel); err != nil {
			return nil, newErr(KindTruncated, "readZoomHeaders", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &pad); err != nil {
			return nil, newErr(KindTruncated, "readZoomHeaders", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &zoom[i].DataOffset); err != nil {
			return nil, newErr(KindTruncated, "readZoomHeaders", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &zoom[i].IndexOffset); err != nil {
			return nil, newErr(KindTruncated, "readZoomHeaders", err)
		}
	}
	return zoom, nil
}

// Compressed reports whether data blocks in this file are zlib deflated.
func (h Header) Compressed() bool { return h.BufSize > 0 }

// HasSummary reports whether the file carries a total-summary record.
func (h Header) HasSummary() bool { return h.SummaryOffset > 0 }
