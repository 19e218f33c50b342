package bigwig

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// rTreeHeader is the 48-byte header of an R-tree spatial index: either
// the file's primary full-resolution index, or one index per zoom level.
type rTreeHeader struct {
	BlockSize     uint32
	ItemCount     uint64
	StartChromIdx uint32
	StartBase     uint32
	EndChromIdx   uint32
	EndBase       uint32
	EndFileOffset uint64
	ItemsPerSlot  uint32
	RootOffset    uint64 // position immediately after the header, i.e. the root node
}

// rTreeNode is one node of the tree: internal nodes carry a child node
// offset per child in ChildOffset; leaf nodes carry the compressed data
// block's offset in ChildOffset and its size in DataSize.
type rTreeNode struct {
	IsLeaf bool

	ChromIdxStart []uint32
	BaseStart     []uint32
	ChromIdxEnd   []uint32
	BaseEnd       []uint32

	ChildOffset []uint64 // child node offset (internal) or data block offset (leaf)
	DataSize    []uint64 // leaf only
}

func readRTreeHeader(r io.ReadSeeker, offset uint64) (rTreeHeader, error) {
	var h rTreeHeader
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return h, newErr(KindIO, "readRTreeHeader", err)
	}

	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return h, newErr(KindIO, "readRTreeHeader", err)
	}
	if magic != magicRTree {
		return h, newErr(KindBadMagic, "readRTreeHeader", errors.Errorf("got %#x", magic))
	}

	fields := []interface{}{
		&h.BlockSize,
		&h.ItemCount,
		&h.StartChromIdx,
		&h.StartBase,
		&h.EndChromIdx,
		&h.EndBase,
		&h.EndFileOffset,
		&h.ItemsPerSlot,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return h, newErr(KindTruncated, "readRTreeHeader", err)
		}
	}
	var pad uint32
	if err := binary.Read(r, binary.LittleEndian, &pad); err != nil {
		return h, newErr(KindTruncated, "readRTreeHeader", err)
	}

	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return h, newErr(KindIO, "readRTreeHeader", err)
	}
	h.RootOffset = uint64(pos)
	return h, nil
}

func readRTreeNode(r io.ReadSeeker, offset uint64) (*rTreeNode, error) {
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, newErr(KindIO, "readRTreeNode", err)
	}

	var isLeaf, pad uint8
	var nChildren uint16
	if err := binary.Read(r, binary.LittleEndian, &isLeaf); err != nil {
		return nil, newErr(KindTruncated, "readRTreeNode", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &pad); err != nil {
		return nil, newErr(KindTruncated, "readRTreeNode", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &nChildren); err != nil {
		return nil, newErr(KindTruncated, "readRTreeNode", err)
	}

	n := int(nChildren)
	node := &rTreeNode{
		IsLeaf:        isLeaf != 0,
		ChromIdxStart: make([]uint32, n),
		BaseStart:     make([]uint32, n),
		ChromIdxEnd:   make([]uint32, n),
		BaseEnd:       make([]uint32, n),
		ChildOffset:   make([]uint64, n),
	}
	if node.IsLeaf {
		node.DataSize = make([]uint64, n)
	}

	for i := 0; i < n; i++ {
		fields := []interface{}{
			&node.ChromIdxStart[i],
			&node.BaseStart[i],
			&node.ChromIdxEnd[i],
			&node.BaseEnd[i],
			&node.ChildOffset[i],
		}
		for _, f := range fields {
			if err := binary.Read(r, binary.LittleEndian, f); err != nil {
				return nil, newErr(KindTruncated, "readRTreeNode", err)
			}
		}
		if node.IsLeaf {
			if err := binary.Read(r, binary.LittleEndian, &node.DataSize[i]); err != nil {
				return nil, newErr(KindTruncated, "readRTreeNode", err)
			}
		}
	}
	return node, nil
}

// region is a half-open genomic interval addressed by numeric chromosome
// id, as the R-tree itself is (it never sees chromosome names).
type region struct {
	ChromIdx   uint32
	Start, End uint32
}

// overlaps reports whether child i's (chromIdxStart,baseStart)..
// (chromIdxEnd,baseEnd) span intersects q, using the lexicographic
// (chromIdx,base) pair ordering the R-tree is built against. The test is
// (childEnd > qStart) && (childStart < qEnd): half-open spans that only
// touch at a boundary do not overlap.
func (n *rTreeNode) overlaps(i int, q region) bool {
	if !lessPair(q.ChromIdx, q.Start, n.ChromIdxEnd[i], n.BaseEnd[i]) {
		return false
	}
	if !lessPair(n.ChromIdxStart[i], n.BaseStart[i], q.ChromIdx, q.End) {
		return false
	}
	return true
}

func lessPair(chrA, baseA, chrB, baseB uint32) bool {
	if chrA != chrB {
		return chrA < chrB
	}
	return baseA < baseB
}

// dataBlock is one compressed block of records overlapping a query,
// found by walking an R-tree.
type dataBlock struct {
	Offset uint64
	Size   uint64
}

// walkRTree returns every leaf data block whose span overlaps q,
// starting from the node at root.
func walkRTree(r io.ReadSeeker, root uint64, q region) ([]dataBlock, error) {
	var blocks []dataBlock
	var visit func(offset uint64) error
	visit = func(offset uint64) error {
		node, err := readRTreeNode(r, offset)
		if err != nil {
			return err
		}
		for i := 0; i < len(node.ChildOffset); i++ {
			if !node.overlaps(i, q) {
				continue
			}
			if node.IsLeaf {
				blocks = append(blocks, dataBlock{Offset: node.ChildOffset[i], Size: node.DataSize[i]})
				continue
			}
			if err := visit(node.ChildOffset[i]); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(root); err != nil {
		return nil, err
	}
	return blocks, nil
}
