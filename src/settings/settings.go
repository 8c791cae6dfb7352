package settings

// Options configures a single adapter instance. An Options value is
// passed explicitly to the adapter factory; there is no process-wide
// settings state.
type Options struct {
	Experimental Experimental
}

// Experimental holds opt-in behavior that may change between releases.
type Experimental struct {
	// Joins enables in-process join resolution. When false, a backend
	// falls back to issuing one lookup per requested relation; results
	// are identical either way.
	Joins bool
}

// DefaultOptions returns the options new adapters run with unless the
// caller overrides them.
func DefaultOptions() *Options {
	return &Options{
		Experimental: Experimental{Joins: true},
	}
}
