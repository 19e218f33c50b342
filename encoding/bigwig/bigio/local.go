package bigio

import "os"

// localSource wraps *os.File; bigWig/bigBed data blocks are small enough,
// and the OS page cache effective enough, that a local file needs no
// extra range buffering on top of the kernel's.
type localSource struct {
	f *os.File
}

func openLocal(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newIOErr("openLocal", err)
	}
	return &localSource{f: f}, nil
}

func (l *localSource) Read(p []byte) (int, error)                 { return l.f.Read(p) }
func (l *localSource) Seek(offset int64, whence int) (int64, error) { return l.f.Seek(offset, whence) }
func (l *localSource) Close() error                                { return l.f.Close() }
