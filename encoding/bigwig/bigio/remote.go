package bigio

import (
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/pquerna/cachecontrol"
	"gopkg.in/square/go-jose.v2"
	"v.io/x/lib/vlog"
)

// remoteSource implements Source over HTTP(S)/FTP byte-range requests,
// holding a single in-memory range buffer at absolute origin fileOrigin.
// A read inside [fileOrigin, fileOrigin+len(buf)) is served from buf; a
// read outside triggers a fetch of [pos, pos+max(bufSize, len(p))). A
// failed fetch poisons the source: every later read returns that error
// without another request. A seek that lands
// inside the current buffer only moves the cursor; otherwise the buffer
// is invalidated and the fetch is deferred to the next read, exactly as
// libBigWig's urlSeek/url_fread do.
type remoteSource struct {
	client       *http.Client
	url          string
	bufSize      int
	presetHeader http.Header // captured once from CredentialCallback at Open time

	buf        []byte // valid bytes of the current range, may be shorter than bufSize at EOF
	fileOrigin int64  // absolute offset of buf[0]
	cursor     int    // read position within buf
	logicalPos int64  // current absolute position, valid even when buf is stale
	bufValid   bool
	closed     bool
	err        error // first fetch error seen by Read; returned from then on
}

func openRemote(url string, cfg config) (Source, error) {
	rs := &remoteSource{
		client:  &http.Client{Transport: cfg.transport},
		url:     url,
		bufSize: cfg.bufferSize,
	}
	if cfg.credential != nil {
		// Run the callback exactly once, against a throwaway request, and
		// keep whatever headers it set; every subsequent fetch replays
		// them instead of invoking the callback again.
		probe, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return nil, newIOErr("openRemote", err)
		}
		if err := cfg.credential(probe); err != nil {
			return nil, newIOErr("openRemote", errors.Wrap(err, "credential callback"))
		}
		rs.presetHeader = probe.Header
	}
	if _, err := rs.fetch(0, rs.bufSize); err != nil {
		return nil, newIOErr("openRemote", err)
	}
	rs.logicalPos = 0
	return rs, nil
}

// BearerFromJWT validates tokenString as a well-formed compact JWT (it
// does not verify the signature — that is the remote server's job) and
// returns a CredentialCallback that sets it as a Bearer Authorization
// header, captured once at Open time and replayed on every subsequent
// range request.
func BearerFromJWT(tokenString string) (CredentialCallback, error) {
	if _, err := jose.ParseSigned(tokenString); err != nil {
		return nil, errors.Wrap(err, "bigio: malformed bearer token")
	}
	return func(req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+tokenString)
		return nil
	}, nil
}

func (r *remoteSource) fetch(pos int64, n int) (int, error) {
	if r.closed {
		return 0, errors.New("bigio: read on closed source")
	}
	if r.err != nil {
		return 0, r.err
	}
	req, err := http.NewRequest(http.MethodGet, r.url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", pos, pos+int64(n)-1))
	for k, vs := range r.presetHeader {
		req.Header[k] = vs
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("bigio: %s: unexpected status %s", r.url, resp.Status)
	}

	reasons, _, ccErr := cachecontrol.CachableResponse(req, resp, cachecontrol.Options{})
	if ccErr == nil && len(reasons) > 0 {
		vlog.VI(2).Infof("bigio: %s range %d-%d not independently cacheable: %v", r.url, pos, pos+int64(n)-1, reasons)
	}

	buf := make([]byte, n)
	read, err := io.ReadFull(resp.Body, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, err
	}
	r.buf = buf[:read]
	r.fileOrigin = pos
	r.cursor = 0
	r.bufValid = true
	return read, nil
}

func (r *remoteSource) Read(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		if !r.bufValid {
			want := r.bufSize
			if want < len(p) {
				want = len(p)
			}
			n, err := r.fetch(r.logicalPos, want)
			if err != nil {
				r.err = err
				return total, err
			}
			if n == 0 {
				return total, io.EOF
			}
		}
		if r.cursor >= len(r.buf) {
			n, err := r.fetch(r.fileOrigin+int64(len(r.buf)), r.bufSize)
			if err != nil {
				r.err = err
				return total, err
			}
			if n == 0 {
				return total, io.EOF
			}
			continue
		}
		n := copy(p, r.buf[r.cursor:])
		r.cursor += n
		r.logicalPos += int64(n)
		total += n
		p = p[n:]
	}
	return total, nil
}

func (r *remoteSource) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.logicalPos + offset
	case io.SeekEnd:
		return 0, errors.New("bigio: SeekEnd is not supported for remote sources")
	default:
		return 0, fmt.Errorf("bigio: invalid whence %d", whence)
	}
	if target < 0 {
		return 0, fmt.Errorf("bigio: negative seek target %d", target)
	}

	if r.bufValid && target >= r.fileOrigin && target < r.fileOrigin+int64(len(r.buf)) {
		r.cursor = int(target - r.fileOrigin)
	} else {
		r.bufValid = false
		r.buf = nil
	}
	r.logicalPos = target
	return target, nil
}

func (r *remoteSource) Close() error {
	r.closed = true
	r.buf = nil
	return nil
}

func newIOErr(op string, err error) error {
	return errors.Wrap(err, "bigio: "+op)
}
