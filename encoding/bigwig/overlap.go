package bigwig

import (
	"sort"

	"github.com/grailbio/bigio/interval"
)

// materializeWig reads and decodes every data block overlapping q,
// discards records that fall outside [q.Start,q.End) or on a different
// chromosome (a block's span can cover more than the query asked for),
// and returns the survivors sorted by Start.
func (f *File) materializeWig(q region) ([]Value, error) {
	blocks, err := walkRTree(f.rs, f.index.RootOffset, q)
	if err != nil {
		return nil, err
	}

	var out []Value
	for _, b := range blocks {
		raw, err := f.readBlock(b)
		if err != nil {
			return nil, err
		}
		chromIdx, vals, err := decodeWigBlock(raw)
		if err != nil {
			return nil, err
		}
		if chromIdx != q.ChromIdx {
			continue
		}
		for _, v := range vals {
			if v.End <= q.Start || v.Start >= q.End {
				continue
			}
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

// materializeBed is materializeWig's bigBed counterpart.
func (f *File) materializeBed(q region) ([]BedEntry, error) {
	blocks, err := walkRTree(f.rs, f.index.RootOffset, q)
	if err != nil {
		return nil, err
	}

	var out []BedEntry
	for _, b := range blocks {
		raw, err := f.readBlock(b)
		if err != nil {
			return nil, err
		}
		entries, err := decodeBedBlock(raw)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.ChromIdx != q.ChromIdx || e.End <= q.Start || e.Start >= q.End {
				continue
			}
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

// endpointsOf flattens vals (sorted, non-overlapping) into the
// alternating covered/uncovered endpoint form interval.UnionScanner
// expects: vals[i].Start, vals[i].End, vals[i+1].Start, ...
func endpointsOf(vals []Value) []interval.PosType {
	endpoints := make([]interval.PosType, 0, 2*len(vals))
	for _, v := range vals {
		endpoints = append(endpoints, interval.PosType(v.Start), interval.PosType(v.End))
	}
	return endpoints
}

// fillDense writes one float64 per position in [start,end) into dst,
// NaN where no Value record covers that position. It walks the covered
// spans with interval.UnionScanner and looks up each span's value by
// the index of the Value record it scanned past, advancing in step with
// the scanner rather than re-searching per span.
func fillDense(vals []Value, start, end uint32, dst []float64) {
	for i := range dst {
		dst[i] = nanVal
	}
	if len(vals) == 0 {
		return
	}

	endpoints := endpointsOf(vals)
	us := interval.NewUnionScanner(endpoints)
	// Skip scans entirely preceding start.
	valIdx := sort.Search(len(vals), func(i int) bool { return vals[i].End > start })

	var spanStart, spanEnd interval.PosType
	for us.Scan(&spanStart, &spanEnd, interval.PosType(end)) {
		for valIdx < len(vals) && interval.PosType(vals[valIdx].End) <= spanStart {
			valIdx++
		}
		if valIdx >= len(vals) {
			break
		}
		v := vals[valIdx]
		lo, hi := uint32(spanStart), uint32(spanEnd)
		if lo < start {
			lo = start
		}
		for pos := lo; pos < hi; pos++ {
			dst[pos-start] = float64(v.Val)
		}
	}
}

var nanVal = safeDiv(0, 0)
