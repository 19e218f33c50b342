package bigwig

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Chrom is one entry of a file's chromosome list: a name, the numeric id
// the R-tree and data blocks address it by, and its length in bases.
type Chrom struct {
	Name string
	ID   uint32
	Len  uint32
}

// ChromList is the full chromosome → (id, length) mapping read from a
// file's B+-tree. Lookups are by name or by id.
type ChromList struct {
	byID   []Chrom // indexed by Chrom.ID; may contain holes if ids are sparse
	byName map[string]*Chrom
}

// Len returns the number of chromosomes in the list.
func (c *ChromList) Len() int { return len(c.byName) }

// ByName looks up a chromosome by name.
func (c *ChromList) ByName(name string) (Chrom, bool) {
	ch, ok := c.byName[name]
	if !ok {
		return Chrom{}, false
	}
	return *ch, true
}

// ByID looks up a chromosome by its numeric id.
func (c *ChromList) ByID(id uint32) (Chrom, bool) {
	if int(id) >= len(c.byID) {
		return Chrom{}, false
	}
	ch := c.byID[id]
	if ch.Name == "" {
		return Chrom{}, false
	}
	return ch, true
}

// Each calls fn once per chromosome, in an unspecified order, stopping
// early if fn returns false. Mirrors fasta.Fasta.SeqNames in spirit: a
// callback walk rather than forcing callers through a copied slice.
func (c *ChromList) Each(fn func(name string, length uint32) bool) {
	for _, ch := range c.byID {
		if ch.Name == "" {
			continue
		}
		if !fn(ch.Name, ch.Len) {
			return
		}
	}
}

func (c *ChromList) add(id uint32, name string, length uint32) {
	if int(id) >= len(c.byID) {
		grown := make([]Chrom, id+1)
		copy(grown, c.byID)
		c.byID = grown
	}
	ch := Chrom{Name: name, ID: id, Len: length}
	c.byID[id] = ch
	c.byName[name] = &c.byID[id]
}

// readChromTree reads the chromosome B+-tree rooted at the current
// position of r (Header.ChromTreeOffset).
func readChromTree(r io.ReadSeeker) (*ChromList, error) {
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, newErr(KindIO, "readChromTree", err)
	}
	if magic != magicCirTree {
		return nil, newErr(KindBadMagic, "readChromTree", errors.Errorf("got %#x", magic))
	}

	var blockSize, keySize, valueSize uint32
	var itemCount uint64
	for _, f := range []interface{}{&blockSize, &keySize, &valueSize, &itemCount} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, newErr(KindTruncated, "readChromTree", err)
		}
	}
	var reserved uint64
	if err := binary.Read(r, binary.LittleEndian, &reserved); err != nil {
		return nil, newErr(KindTruncated, "readChromTree", err)
	}

	cl := &ChromList{byName: make(map[string]*Chrom, itemCount)}
	n, err := readChromNode(r, cl, keySize)
	if err != nil {
		return nil, err
	}
	if n != itemCount {
		return nil, newErr(KindCorrupt, "readChromTree", errors.Errorf("read %d chromosomes, header says %d", n, itemCount))
	}
	return cl, nil
}

func readChromNode(r io.ReadSeeker, cl *ChromList, keySize uint32) (uint64, error) {
	var isLeaf, pad uint8
	if err := binary.Read(r, binary.LittleEndian, &isLeaf); err != nil {
		return 0, newErr(KindTruncated, "readChromNode", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &pad); err != nil {
		return 0, newErr(KindTruncated, "readChromNode", err)
	}
	if isLeaf != 0 {
		return readChromLeaf(r, cl, keySize)
	}
	return readChromInternal(r, cl, keySize)
}

func readChromLeaf(r io.ReadSeeker, cl *ChromList, keySize uint32) (uint64, error) {
	var nItems uint16
	if err := binary.Read(r, binary.LittleEndian, &nItems); err != nil {
		return 0, newErr(KindTruncated, "readChromLeaf", err)
	}
	nameBuf := make([]byte, keySize)
	for i := 0; i < int(nItems); i++ {
		if _, err := io.ReadFull(r, nameBuf); err != nil {
			return 0, newErr(KindTruncated, "readChromLeaf", err)
		}
		var id, length uint32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return 0, newErr(KindTruncated, "readChromLeaf", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return 0, newErr(KindTruncated, "readChromLeaf", err)
		}
		name := string(bytes.TrimRight(nameBuf, "\x00"))
		cl.add(id, name, length)
	}
	return uint64(nItems), nil
}

func readChromInternal(r io.ReadSeeker, cl *ChromList, keySize uint32) (uint64, error) {
	var nItems uint16
	if err := binary.Read(r, binary.LittleEndian, &nItems); err != nil {
		return 0, newErr(KindTruncated, "readChromInternal", err)
	}

	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, newErr(KindIO, "readChromInternal", err)
	}
	recordSize := int64(keySize) + 8
	var total uint64
	for i := 0; i < int(nItems); i++ {
		childPos := pos + int64(i)*recordSize + int64(keySize)
		if _, err := r.Seek(childPos, io.SeekStart); err != nil {
			return 0, newErr(KindIO, "readChromInternal", err)
		}
		var childOffset uint64
		if err := binary.Read(r, binary.LittleEndian, &childOffset); err != nil {
			return 0, newErr(KindTruncated, "readChromInternal", err)
		}
		if _, err := r.Seek(int64(childOffset), io.SeekStart); err != nil {
			return 0, newErr(KindIO, "readChromInternal", err)
		}
		n, err := readChromNode(r, cl, keySize)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
