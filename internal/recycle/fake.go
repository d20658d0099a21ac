package recycle

// Fake implements Trasher for testing
// Records all calls without touching the filesystem
type Fake struct {
	Calls   [][]string
	Opts    []Options
	Outcome Outcome
}

func (f *Fake) Trash(paths []string, opts Options) Outcome {
	f.Calls = append(f.Calls, append([]string(nil), paths...))
	f.Opts = append(f.Opts, opts)
	return f.Outcome
}
