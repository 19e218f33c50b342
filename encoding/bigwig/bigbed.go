package bigwig

import (
	"bufio"
	"io"
	"strings"
)

// Schema returns the autoSql schema string bigBed embeds describing the
// extra fields beyond chrom/start/end, or "" if the file carries none
// (Header.SQLOffset == 0).
func (f *File) Schema() (string, error) {
	if err := f.checkOpen("Schema"); err != nil {
		return "", err
	}
	if f.kind != kindBigBed {
		return "", newErr(KindWrongFileType, "Schema", nil)
	}
	if f.header.SQLOffset == 0 {
		return "", nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.rs.Seek(int64(f.header.SQLOffset), io.SeekStart); err != nil {
		return "", newErr(KindIO, "Schema", err)
	}
	s, err := readCString(bufio.NewReader(f.rs))
	if err != nil {
		return "", newErr(KindIO, "Schema", err)
	}
	return s, nil
}

// Fields splits a BedEntry's Rest into its tab-separated columns, the
// extra autoSql fields beyond chrom/start/end.
func (e BedEntry) Fields() []string {
	if e.Rest == "" {
		return nil
	}
	return strings.Split(e.Rest, "\t")
}
