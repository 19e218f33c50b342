package bigwig

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// StatType selects the aggregate a Stats query reduces each bin to.
type StatType int

const (
	StatMean StatType = iota
	StatMin
	StatMax
	StatSum
	StatCoverage
	StatStdev
)

// ParseStatType accepts the same spellings pyBigWig's stats() does.
func ParseStatType(s string) (StatType, error) {
	switch strings.ToLower(s) {
	case "mean", "average", "avg":
		return StatMean, nil
	case "min", "minimum":
		return StatMin, nil
	case "max", "maximum":
		return StatMax, nil
	case "sum":
		return StatSum, nil
	case "coverage", "cov":
		return StatCoverage, nil
	case "std", "stdev":
		return StatStdev, nil
	default:
		return 0, newErr(KindBadStatType, "ParseStatType", errors.Errorf("unrecognized stat type %q", s))
	}
}

// binAccum holds the running per-bin sums a StatType is reduced from,
// whether they came from full-resolution Values or from zoom summaries
// weighted by overlap fraction.
type binAccum struct {
	validCount float64
	sumData    float64
	sumSquares float64
	minVal     float64
	maxVal     float64
	width      float64
}

func newBinAccum(width float64) binAccum {
	return binAccum{minVal: math.Inf(1), maxVal: math.Inf(-1), width: width}
}

func (b *binAccum) addExact(pos uint32, val float32) {
	b.validCount++
	v := float64(val)
	b.sumData += v
	b.sumSquares += v * v
	if v < b.minVal {
		b.minVal = v
	}
	if v > b.maxVal {
		b.maxVal = v
	}
}

func (b *binAccum) addSummary(s zoomSummary, overlap, width float64) {
	factor := overlap / width
	b.validCount += float64(s.ValidCount) * factor
	b.sumData += float64(s.SumData) * factor
	b.sumSquares += float64(s.SumSquares) * factor
	if float64(s.MinVal) < b.minVal {
		b.minVal = float64(s.MinVal)
	}
	if float64(s.MaxVal) > b.maxVal {
		b.maxVal = float64(s.MaxVal)
	}
}

func (b binAccum) reduce(stat StatType) float64 {
	if b.validCount == 0 {
		if stat == StatCoverage || stat == StatSum {
			return 0
		}
		return math.NaN()
	}
	switch stat {
	case StatMean:
		return b.sumData / b.validCount
	case StatMin:
		return b.minVal
	case StatMax:
		return b.maxVal
	case StatSum:
		return b.sumData
	case StatCoverage:
		return b.validCount / b.width
	case StatStdev:
		if b.validCount < 2 {
			return 0
		}
		mean := b.sumData / b.validCount
		variance := (b.sumSquares - b.validCount*mean*mean) / (b.validCount - 1)
		if variance < 0 {
			variance = 0
		}
		return math.Sqrt(variance)
	default:
		return math.NaN()
	}
}

// binBounds returns the [start,end) bounds of bin i of nBins evenly
// spaced bins covering [start,end). Both bounds truncate i*binSize toward
// zero, so bin i's end is bin i+1's start and adjacent bins never overlap
// or gap.
func binBounds(start, end uint32, nBins, i int) (uint32, uint32) {
	binSize := float64(end-start) / float64(nBins)
	lo := start + uint32(float64(i)*binSize)
	hi := start + uint32(float64(i+1)*binSize)
	return lo, hi
}

// statsExact reduces nBins bins of [q.Start,q.End) directly from
// full-resolution Values.
func statsExact(vals []Value, q region, nBins int, stat StatType) []float64 {
	out := make([]float64, nBins)
	for i := 0; i < nBins; i++ {
		binStart, binEnd := binBounds(q.Start, q.End, nBins, i)
		acc := newBinAccum(float64(binEnd - binStart))
		for _, v := range vals {
			if v.End <= binStart || v.Start >= binEnd {
				continue
			}
			lo, hi := v.Start, v.End
			if lo < binStart {
				lo = binStart
			}
			if hi > binEnd {
				hi = binEnd
			}
			for pos := lo; pos < hi; pos++ {
				acc.addExact(pos, v.Val)
			}
		}
		out[i] = acc.reduce(stat)
	}
	return out
}

// statsApprox reduces nBins bins of [q.Start,q.End) from zoom-level
// summaries, weighting each summary's contribution to a bin by the
// fraction of the summary's span the bin overlaps.
func statsApprox(summaries []zoomSummary, q region, nBins int, stat StatType) []float64 {
	out := make([]float64, nBins)
	for i := 0; i < nBins; i++ {
		binStart, binEnd := binBounds(q.Start, q.End, nBins, i)
		acc := newBinAccum(float64(binEnd - binStart))
		for _, s := range summaries {
			if s.End <= binStart || s.Start >= binEnd {
				continue
			}
			lo, hi := s.Start, s.End
			if lo < binStart {
				lo = binStart
			}
			if hi > binEnd {
				hi = binEnd
			}
			overlap := float64(hi - lo)
			if overlap <= 0 {
				continue
			}
			acc.addSummary(s, overlap, float64(s.End-s.Start))
		}
		out[i] = acc.reduce(stat)
	}
	return out
}
