package bigwig

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixtureChrom is one chromosome written into a synthetic file by
// buildBigWig/buildBigBed below.
type fixtureChrom struct {
	name string
	id   uint32
	len  uint32
}

// wigRecord is one bedGraph-type record written into the single data
// block a synthetic fixture carries.
type wigRecord struct {
	start, end uint32
	val        float32
}

// buildBigWig assembles a minimal, uncompressed, single-block, single-
// chromosome bigWig file byte-for-byte, laid out the way bwHdrRead and
// bwReadchromList expect: header, then chrom tree, then one bedGraph
// data block, then the R-tree index.
func buildBigWig(t *testing.T, chrom fixtureChrom, records []wigRecord) []byte {
	t.Helper()

	const keySize = 8
	chromTree := buildChromTree(t, keySize, []fixtureChrom{chrom})
	dataBlock := buildWigBlock(t, chrom.id, records)

	chromTreeOffset := uint64(64)
	dataOffset := chromTreeOffset + uint64(len(chromTree))
	indexOffset := dataOffset + uint64(len(dataBlock))

	var minStart, maxEnd uint32 = records[0].start, records[0].end
	for _, r := range records {
		if r.start < minStart {
			minStart = r.start
		}
		if r.end > maxEnd {
			maxEnd = r.end
		}
	}
	rtree := buildRTreeIndex(t, rtreeLeafChild{
		chromIdxStart: chrom.id, baseStart: minStart,
		chromIdxEnd: chrom.id, baseEnd: maxEnd,
		dataOffset: dataOffset, dataSize: uint64(len(dataBlock)),
	})

	var buf bytes.Buffer
	writeHeader(t, &buf, headerFields{
		magic:           magicBigWig,
		chromTreeOffset: chromTreeOffset,
		dataOffset:      dataOffset,
		indexOffset:     indexOffset,
	})
	buf.Write(chromTree)
	buf.Write(dataBlock)
	buf.Write(rtree)
	return buf.Bytes()
}

// buildBigWigWithZoom is buildBigWig's counterpart that also emits a
// single zoom level: its own data block of precomputed zoomSummary
// records plus its own R-tree index, wired up through the header's zoom
// table, so Stats can exercise the zoom-approximation path instead of
// always falling back to full-resolution data.
func buildBigWigWithZoom(t *testing.T, chrom fixtureChrom, records []wigRecord, reductionLevel uint32, summaries []zoomSummary) []byte {
	t.Helper()

	const keySize = 8
	const zoomTableSize = 24 // one level: reductionLevel(4)+pad(4)+dataOffset(8)+indexOffset(8)
	chromTree := buildChromTree(t, keySize, []fixtureChrom{chrom})
	dataBlock := buildWigBlock(t, chrom.id, records)

	chromTreeOffset := uint64(64) + zoomTableSize
	dataOffset := chromTreeOffset + uint64(len(chromTree))
	indexOffset := dataOffset + uint64(len(dataBlock))

	var minStart, maxEnd uint32 = records[0].start, records[0].end
	for _, r := range records {
		if r.start < minStart {
			minStart = r.start
		}
		if r.end > maxEnd {
			maxEnd = r.end
		}
	}
	rtree := buildRTreeIndex(t, rtreeLeafChild{
		chromIdxStart: chrom.id, baseStart: minStart,
		chromIdxEnd: chrom.id, baseEnd: maxEnd,
		dataOffset: dataOffset, dataSize: uint64(len(dataBlock)),
	})

	zoomBlock := buildZoomBlock(t, summaries)
	zoomDataOffset := indexOffset + uint64(len(rtree))

	var zMinStart, zMaxEnd uint32 = summaries[0].Start, summaries[0].End
	for _, s := range summaries {
		if s.Start < zMinStart {
			zMinStart = s.Start
		}
		if s.End > zMaxEnd {
			zMaxEnd = s.End
		}
	}
	zoomRTree := buildRTreeIndex(t, rtreeLeafChild{
		chromIdxStart: chrom.id, baseStart: zMinStart,
		chromIdxEnd: chrom.id, baseEnd: zMaxEnd,
		dataOffset: zoomDataOffset, dataSize: uint64(len(zoomBlock)),
	})
	zoomIndexOffset := zoomDataOffset + uint64(len(zoomBlock))

	var buf bytes.Buffer
	writeHeader(t, &buf, headerFields{
		magic:           magicBigWig,
		zoomLevels:      1,
		chromTreeOffset: chromTreeOffset,
		dataOffset:      dataOffset,
		indexOffset:     indexOffset,
	})
	writeZoomHeader(t, &buf, reductionLevel, zoomDataOffset, zoomIndexOffset)
	buf.Write(chromTree)
	buf.Write(dataBlock)
	buf.Write(rtree)
	buf.Write(zoomBlock)
	buf.Write(zoomRTree)
	return buf.Bytes()
}

// buildBigBed is buildBigWig's bigBed counterpart: the data block holds
// length-implicit BED rows instead of a bedGraph header+records.
func buildBigBed(t *testing.T, chrom fixtureChrom, rows []BedEntry) []byte {
	t.Helper()

	const keySize = 8
	chromTree := buildChromTree(t, keySize, []fixtureChrom{chrom})
	dataBlock := buildBedBlock(t, rows)

	chromTreeOffset := uint64(64)
	dataOffset := chromTreeOffset + uint64(len(chromTree))
	indexOffset := dataOffset + uint64(len(dataBlock))

	var minStart, maxEnd uint32 = rows[0].Start, rows[0].End
	for _, r := range rows {
		if r.Start < minStart {
			minStart = r.Start
		}
		if r.End > maxEnd {
			maxEnd = r.End
		}
	}
	rtree := buildRTreeIndex(t, rtreeLeafChild{
		chromIdxStart: chrom.id, baseStart: minStart,
		chromIdxEnd: chrom.id, baseEnd: maxEnd,
		dataOffset: dataOffset, dataSize: uint64(len(dataBlock)),
	})

	var buf bytes.Buffer
	writeHeader(t, &buf, headerFields{
		magic:             magicBigBed,
		chromTreeOffset:   chromTreeOffset,
		dataOffset:        dataOffset,
		indexOffset:       indexOffset,
		fieldCount:        3,
		definedFieldCount: 3,
	})
	buf.Write(chromTree)
	buf.Write(dataBlock)
	buf.Write(rtree)
	return buf.Bytes()
}

type headerFields struct {
	magic             uint32
	zoomLevels        uint16
	chromTreeOffset   uint64
	dataOffset        uint64
	indexOffset       uint64
	fieldCount        uint16
	definedFieldCount uint16
}

func writeHeader(t *testing.T, buf *bytes.Buffer, h headerFields) {
	t.Helper()
	fields := []interface{}{
		h.magic,
		uint16(4), // version
		h.zoomLevels,
		h.chromTreeOffset,
		h.dataOffset,
		h.indexOffset,
		h.fieldCount,
		h.definedFieldCount,
		uint64(0), // sql offset
		uint64(0), // summary offset
		uint32(0), // bufsize: 0 == uncompressed
		uint64(0), // extension offset
	}
	for _, f := range fields {
		require.NoError(t, binary.Write(buf, binary.LittleEndian, f))
	}
}

// writeZoomHeader appends one 24-byte zoom-level table entry: the
// reductionLevel this level summarizes at, 4 bytes of padding, then its
// own data block and R-tree index offsets.
func writeZoomHeader(t *testing.T, buf *bytes.Buffer, reductionLevel uint32, dataOffset, indexOffset uint64) {
	t.Helper()
	fields := []interface{}{reductionLevel, uint32(0), dataOffset, indexOffset}
	for _, f := range fields {
		require.NoError(t, binary.Write(buf, binary.LittleEndian, f))
	}
}

// buildZoomBlock encodes zoomSummary records the way decodeZoomBlock
// expects to read them back: a flat run of 32-byte records, no count
// prefix (callers know nItems from the block's decompressed size).
func buildZoomBlock(t *testing.T, summaries []zoomSummary) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, s := range summaries {
		fields := []interface{}{s.ChromIdx, s.Start, s.End, s.ValidCount, s.MinVal, s.MaxVal, s.SumData, s.SumSquares}
		for _, f := range fields {
			require.NoError(t, binary.Write(&buf, binary.LittleEndian, f))
		}
	}
	return buf.Bytes()
}

func buildChromTree(t *testing.T, keySize uint32, chroms []fixtureChrom) []byte {
	t.Helper()
	var buf bytes.Buffer
	fields := []interface{}{
		magicCirTree,
		uint32(len(chroms)), // blockSize
		keySize,
		uint32(8), // valueSize: id(4)+length(4)
		uint64(len(chroms)),
		uint64(0), // reserved
	}
	for _, f := range fields {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, f))
	}

	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint8(1))) // isLeaf
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint8(0))) // pad
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(len(chroms))))
	for _, c := range chroms {
		name := make([]byte, keySize)
		copy(name, c.name)
		buf.Write(name)
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, c.id))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, c.len))
	}
	return buf.Bytes()
}

func buildWigBlock(t *testing.T, chromID uint32, records []wigRecord) []byte {
	t.Helper()
	var buf bytes.Buffer
	fields := []interface{}{
		chromID,
		uint32(0), // start
		uint32(0), // end
		uint32(0), // step
		uint32(0), // span
	}
	for _, f := range fields {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, f))
	}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, blockBedGraph))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint8(0))) // pad
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(len(records))))
	for _, r := range records {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, r.start))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, r.end))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, r.val))
	}
	return buf.Bytes()
}

func buildBedBlock(t *testing.T, rows []BedEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, row := range rows {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, row.ChromIdx))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, row.Start))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, row.End))
		buf.WriteString(row.Rest)
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

type rtreeLeafChild struct {
	chromIdxStart, baseStart uint32
	chromIdxEnd, baseEnd     uint32
	dataOffset, dataSize     uint64
}

func buildRTreeIndex(t *testing.T, child rtreeLeafChild) []byte {
	t.Helper()
	var buf bytes.Buffer
	fields := []interface{}{
		magicRTree,
		uint32(1), // blockSize
		uint64(1), // itemCount
		child.chromIdxStart,
		child.baseStart,
		child.chromIdxEnd,
		child.baseEnd,
		uint64(0), // endFileOffset
		uint32(1), // itemsPerSlot
		uint32(0), // pad
	}
	for _, f := range fields {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, f))
	}

	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint8(1))) // isLeaf
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint8(0))) // pad
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(1)))
	fields = []interface{}{
		child.chromIdxStart,
		child.baseStart,
		child.chromIdxEnd,
		child.baseEnd,
		child.dataOffset,
		child.dataSize,
	}
	for _, f := range fields {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, f))
	}
	return buf.Bytes()
}
