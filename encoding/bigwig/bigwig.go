package bigwig

import (
	"io"
	"sync"

	"github.com/grailbio/bigio/encoding/bigwig/bigio"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"v.io/x/lib/vlog"
)

// File is an open handle onto a bigWig or bigBed file: its header, its
// chromosome list, and its primary R-tree spatial index. Zoom indexes
// (bigWig only) are loaded lazily, per level, the first time a query
// needs them.
//
// A File is not safe for concurrent use; the underlying bigio.Source
// isn't either. Callers that want to query the same file from multiple
// goroutines should each call Open their own handle, or see OpenMany.
type File struct {
	mu sync.Mutex

	rs     bigio.Source
	path   string
	kind   fileKind
	header Header
	chroms *ChromList
	index  rTreeHeader
	zoom   []zoomLevel
	closed bool
}

// Open opens path (a local file path, or an http://, https://, ftp://,
// or s3:// URL — see bigio.Open) as a bigWig or bigBed file, reading its
// header, chromosome list, and primary index.
func Open(path string, opts ...bigio.Option) (*File, error) {
	rs, err := bigio.Open(path, opts...)
	if err != nil {
		return nil, newErr(KindIO, "Open", err)
	}
	f, err := newFile(path, rs)
	if err != nil {
		rs.Close()
		return nil, err
	}
	return f, nil
}

func newFile(path string, rs bigio.Source) (*File, error) {
	header, kind, err := readHeader(rs)
	if err != nil {
		return nil, err
	}

	if _, err := rs.Seek(int64(header.ChromTreeOffset), io.SeekStart); err != nil {
		return nil, newErr(KindIO, "Open", err)
	}
	chroms, err := readChromTree(rs)
	if err != nil {
		return nil, err
	}

	index, err := readRTreeHeader(rs, header.IndexOffset)
	if err != nil {
		return nil, err
	}

	zoom := make([]zoomLevel, len(header.Zoom))
	for i, zh := range header.Zoom {
		zoom[i] = zoomLevel{hdr: zh}
	}

	vlog.VI(1).Infof("bigwig: opened %s: %d chromosomes, %d zoom levels", path, chroms.Len(), len(zoom))

	return &File{
		rs:     rs,
		path:   path,
		kind:   kind,
		header: header,
		chroms: chroms,
		index:  index,
		zoom:   zoom,
	}, nil
}

// OpenMany opens every path in paths concurrently, returning either all
// *File handles (in input order) or the first error encountered, with
// every successfully opened handle closed before returning.
func OpenMany(paths []string, opts ...bigio.Option) ([]*File, error) {
	files := make([]*File, len(paths))
	var g errgroup.Group
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			f, err := Open(p, opts...)
			if err != nil {
				return errors.Wrapf(err, "OpenMany: %s", p)
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, f := range files {
			if f != nil {
				f.Close()
			}
		}
		return nil, err
	}
	return files, nil
}

// Close releases the underlying byte source. The File must not be used
// afterward.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.rs.Close()
}

// checkOpen reports a KindNotOpen error if f has already been Closed.
func (f *File) checkOpen(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return newErr(KindNotOpen, op, nil)
	}
	return nil
}

// Header returns the file's fixed header, zoom table, and total summary.
func (f *File) Header() Header { return f.header }

// IsBigWig reports whether this handle was opened on a bigWig file.
func (f *File) IsBigWig() bool { return f.kind == kindBigWig }

// IsBigBed reports whether this handle was opened on a bigBed file.
func (f *File) IsBigBed() bool { return f.kind == kindBigBed }

// Chroms returns the file's chromosome list.
func (f *File) Chroms() *ChromList { return f.chroms }

// resolveRegion validates (chrom,start,end) against the chromosome list
// and turns it into the numeric-id region the R-tree is keyed on.
func (f *File) resolveRegion(chrom string, start, end uint32) (region, error) {
	ch, ok := f.chroms.ByName(chrom)
	if !ok {
		return region{}, newErr(KindNoSuchChromosome, "resolveRegion", errors.Errorf("%q", chrom))
	}
	if start >= end || end > ch.Len {
		return region{}, newErr(KindInvalidInterval, "resolveRegion", errors.Errorf("[%d,%d) on %s (length %d)", start, end, chrom, ch.Len))
	}
	return region{ChromIdx: ch.ID, Start: start, End: end}, nil
}

// readBlock reads and, if the file is compressed, inflates the data
// block at b.
func (f *File) readBlock(b dataBlock) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.rs.Seek(int64(b.Offset), io.SeekStart); err != nil {
		return nil, newErr(KindIO, "readBlock", err)
	}
	raw := make([]byte, b.Size)
	if _, err := io.ReadFull(f.rs, raw); err != nil {
		return nil, newErr(KindIO, "readBlock", err)
	}
	return inflate(raw, f.header.Compressed())
}

// Intervals returns every bigWig value record overlapping
// [start,end) on chrom, sorted by Start. It is a KindWrongFileType error
// to call this on a bigBed file.
func (f *File) Intervals(chrom string, start, end uint32) ([]Value, error) {
	if err := f.checkOpen("Intervals"); err != nil {
		return nil, err
	}
	if f.kind != kindBigWig {
		return nil, newErr(KindWrongFileType, "Intervals", nil)
	}
	q, err := f.resolveRegion(chrom, start, end)
	if err != nil {
		return nil, err
	}
	return f.materializeWig(q)
}

// Entries returns every bigBed row overlapping [start,end) on chrom,
// sorted by Start. It is a KindWrongFileType error to call this on a
// bigWig file.
func (f *File) Entries(chrom string, start, end uint32) ([]BedEntry, error) {
	if err := f.checkOpen("Entries"); err != nil {
		return nil, err
	}
	if f.kind != kindBigBed {
		return nil, newErr(KindWrongFileType, "Entries", nil)
	}
	q, err := f.resolveRegion(chrom, start, end)
	if err != nil {
		return nil, err
	}
	return f.materializeBed(q)
}

// Values returns one float64 per base of [start,end) on chrom: the
// covering Value's Val where one exists, NaN where it doesn't. It is a
// KindWrongFileType error to call this on a bigBed file.
func (f *File) Values(chrom string, start, end uint32) ([]float64, error) {
	if err := f.checkOpen("Values"); err != nil {
		return nil, err
	}
	vals, err := f.Intervals(chrom, start, end)
	if err != nil {
		return nil, err
	}
	dst := make([]float64, end-start)
	fillDense(vals, start, end, dst)
	return dst, nil
}

// Stats reduces [start,end) on chrom to one float64 per bin (WithBins,
// default 1). By default it picks the coarsest zoom level whose
// reduction factor still resolves the requested bin width, falling back
// to full-resolution data when no zoom level is fine enough or
// WithExact(true) was passed. bigBed files have no zoom pyramid and
// always compute exactly.
func (f *File) Stats(chrom string, start, end uint32, stat StatType, opts ...Opt) ([]float64, error) {
	if err := f.checkOpen("Stats"); err != nil {
		return nil, err
	}
	o := defaultQueryOpts()
	for _, opt := range opts {
		opt(&o)
	}
	q, err := f.resolveRegion(chrom, start, end)
	if err != nil {
		return nil, err
	}

	if f.kind == kindBigBed || o.exact || len(f.zoom) == 0 {
		vals, err := f.materializeWigOrBed(q)
		if err != nil {
			return nil, err
		}
		return statsExact(vals, q, o.bins, stat), nil
	}

	binWidth := (end - start) / (2 * uint32(o.bins))
	zi := selectZoom(f.zoom, binWidth)
	if zi < 0 {
		vals, err := f.materializeWig(q)
		if err != nil {
			return nil, err
		}
		return statsExact(vals, q, o.bins, stat), nil
	}
	summaries, err := f.summariesInRegion(&f.zoom[zi], q)
	if err != nil {
		return nil, err
	}
	return statsApprox(summaries, q, o.bins, stat), nil
}

// materializeWigOrBed dispatches to the bigWig or bigBed block decoder
// and normalizes bigBed rows to Values (each weighted 1 per covered
// base) so Stats can share one reducer across both file kinds.
func (f *File) materializeWigOrBed(q region) ([]Value, error) {
	if f.kind == kindBigWig {
		return f.materializeWig(q)
	}
	entries, err := f.materializeBed(q)
	if err != nil {
		return nil, err
	}
	vals := make([]Value, len(entries))
	for i, e := range entries {
		vals[i] = Value{Start: e.Start, End: e.End, Val: 1}
	}
	return vals, nil
}
