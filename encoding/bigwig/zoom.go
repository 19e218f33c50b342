package bigwig

import (
	"encoding/binary"
	"io"
	"math"
	"sync"

	"github.com/pkg/errors"
)

// zoomSummary is one precomputed aggregate record from a zoom-level data
// block: the bin [Start,End) it covers on chromosome ChromIdx, and the
// running sums a Stat computation needs to finish the job without
// touching full-resolution data.
type zoomSummary struct {
	ChromIdx   uint32
	Start, End uint32
	ValidCount uint32
	MinVal     float32
	MaxVal     float32
	SumData    float32
	SumSquares float32
}

const zoomSummarySize = 32

func decodeZoomBlock(buf []byte) ([]zoomSummary, error) {
	if len(buf)%zoomSummarySize != 0 {
		return nil, newErr(KindCorrupt, "decodeZoomBlock", errors.Errorf("block size %d not a multiple of %d", len(buf), zoomSummarySize))
	}
	n := len(buf) / zoomSummarySize
	out := make([]zoomSummary, n)
	for i := range out {
		b := buf[i*zoomSummarySize:]
		out[i] = zoomSummary{
			ChromIdx:   binary.LittleEndian.Uint32(b[0:4]),
			Start:      binary.LittleEndian.Uint32(b[4:8]),
			End:        binary.LittleEndian.Uint32(b[8:12]),
			ValidCount: binary.LittleEndian.Uint32(b[12:16]),
			MinVal:     math.Float32frombits(binary.LittleEndian.Uint32(b[16:20])),
			MaxVal:     math.Float32frombits(binary.LittleEndian.Uint32(b[20:24])),
			SumData:    math.Float32frombits(binary.LittleEndian.Uint32(b[24:28])),
			SumSquares: math.Float32frombits(binary.LittleEndian.Uint32(b[28:32])),
		}
	}
	return out, nil
}

// zoomLevel lazily loads its R-tree index the first time it's queried;
// a file with many zoom levels that a caller never asks for shouldn't
// pay for parsing indexes it never needs.
type zoomLevel struct {
	hdr ZoomHeader

	once  sync.Once
	index rTreeHeader
	err   error
}

func (z *zoomLevel) ensureIndex(rs io.ReadSeeker) error {
	z.once.Do(func() {
		z.index, z.err = readRTreeHeader(rs, z.hdr.IndexOffset)
	})
	return z.err
}

// selectZoom picks the coarsest zoom level whose reduction level does
// not exceed desiredReduction (File.Stats passes half the bin width), so
// that summing its bins still resolves the requested granularity.
// Returns -1 if every level is too coarse, in which case the caller
// must fall back to full-resolution data.
func selectZoom(levels []zoomLevel, desiredReduction uint32) int {
	best := -1
	var bestLevel uint32
	for i := range levels {
		rl := levels[i].hdr.ReductionLevel
		if rl > desiredReduction {
			continue
		}
		if best == -1 || rl > bestLevel {
			best = i
			bestLevel = rl
		}
	}
	return best
}

// summariesInRegion returns every zoomSummary record from level z
// overlapping q.
func (f *File) summariesInRegion(z *zoomLevel, q region) ([]zoomSummary, error) {
	if err := z.ensureIndex(f.rs); err != nil {
		return nil, err
	}
	blocks, err := walkRTree(f.rs, z.index.RootOffset, q)
	if err != nil {
		return nil, err
	}
	var out []zoomSummary
	for _, b := range blocks {
		raw, err := f.readBlock(b)
		if err != nil {
			return nil, err
		}
		summaries, err := decodeZoomBlock(raw)
		if err != nil {
			return nil, err
		}
		for _, s := range summaries {
			if s.ChromIdx != q.ChromIdx || s.End <= q.Start || s.Start >= q.End {
				continue
			}
			out = append(out, s)
		}
	}
	return out, nil
}
