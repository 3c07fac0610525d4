package model

// Result is the outcome of scanning a single file. Exactly one Result is
// produced per walked entry. Err classifies the failures: ErrNotELF and
// ErrWrongMachine mean the file was classified away, anything else wrapping
// ErrMalformed or an I/O error is a recorded per-file failure.
type Result struct {
	Path    string
	Matched bool
	Exports int // number of qualifying exported functions seen
	Err     error
}
