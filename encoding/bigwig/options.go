package bigwig

// queryOpts holds the settings a Stats call can be tuned with. Following
// the functional-options idiom used throughout this codebase, zero or
// more Opts are passed to Stats itself rather than to Open.
type queryOpts struct {
	bins  int
	exact bool
}

func defaultQueryOpts() queryOpts {
	return queryOpts{bins: 1, exact: false}
}

// Opt configures a single Stats call.
type Opt func(*queryOpts)

// WithBins sets the number of equal-width bins a Stats query divides its
// region into. The default is 1.
func WithBins(n int) Opt {
	return func(o *queryOpts) { o.bins = n }
}

// WithExact forces a Stats query to compute from full-resolution data
// instead of the zoom-level pyramid, regardless of bin width. Exact mode
// is always used when every zoom level is too coarse for the bin width,
// or the file has none at all (e.g. bigBed).
func WithExact(exact bool) Opt {
	return func(o *queryOpts) { o.exact = exact }
}
