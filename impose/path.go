package impose

import (
	"path/filepath"
	"strings"
)

// DefaultSuffix is appended to the input name to form the output name.
const DefaultSuffix = "_littlebook"

// DeriveOutputPath returns the output file name for input: the input's
// base name without its extension, then suffix, then ".pdf". The result
// has no directory, so it lands in the current directory. An empty
// suffix selects DefaultSuffix.
func DeriveOutputPath(input, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + suffix + ".pdf"
}

// DeriveOutputPathIn is DeriveOutputPath placed in dir. An empty dir
// means the current directory.
func DeriveOutputPathIn(dir, input, suffix string) string {
	name := DeriveOutputPath(input, suffix)
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
