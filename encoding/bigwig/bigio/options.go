package bigio

import "net/http"

// DefaultBufferSize is the range length requested on each remote fetch
// when the caller does not override it with WithBufferSize. 128 KiB
// amortizes the many small reads a B+-tree/R-tree traversal performs
// against a single round trip.
const DefaultBufferSize = 128 * 1024

// CredentialCallback is invoked exactly once, at Open time, against a
// throwaway request. It may mutate req (for example, to set an
// Authorization header); whatever it sets is captured and replayed on
// every subsequent range request. Returning an error aborts Open.
type CredentialCallback func(req *http.Request) error

type config struct {
	bufferSize int
	credential CredentialCallback
	transport  http.RoundTripper
}

func defaultConfig() config {
	return config{
		bufferSize: DefaultBufferSize,
		transport:  http.DefaultTransport,
	}
}

// Option configures a remote Source. Following the package's functional-
// options convention, zero or more Options are passed to Open.
type Option func(*config)

// WithBufferSize overrides DefaultBufferSize for one Open call.
func WithBufferSize(n int) Option {
	return func(c *config) { c.bufferSize = n }
}

// WithCredentialCallback installs a CredentialCallback, invoked exactly
// once when the resulting remote Source is opened.
func WithCredentialCallback(cb CredentialCallback) Option {
	return func(c *config) { c.credential = cb }
}

// WithTransport overrides the http.RoundTripper used for HTTP(S) and FTP
// requests. Mainly useful for tests. FTP URLs are sent through the same
// http.Client as HTTP(S), so they are served only by a RoundTripper that
// handles the ftp scheme; the default, http.DefaultTransport, does not.
func WithTransport(t http.RoundTripper) Option {
	return func(c *config) { c.transport = t }
}
