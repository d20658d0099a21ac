//go:build windows && !(amd64 || arm64)

package recycle

// Default returns the platform trash
func Default() Trasher {
	return unsupported{}
}

// unsupported stands in where SHFILEOPSTRUCTW packing differs from Go's layout
type unsupported struct{}

func (unsupported) Trash([]string, Options) Outcome {
	return Outcome{Code: CodeUnsupported}
}
