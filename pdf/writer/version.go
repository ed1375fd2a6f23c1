package writer

import "fmt"

// PDFVersion represents a PDF version as (major, minor)
type PDFVersion struct {
	Major int
	Minor int
}

// DefaultOutputVersion is the version written when nothing newer is needed.
var DefaultOutputVersion = PDFVersion{Major: 1, Minor: 4}

// Compare compares two PDF versions
func (v PDFVersion) Compare(other PDFVersion) int {
	if v.Major != other.Major {
		return v.Major - other.Major
	}
	return v.Minor - other.Minor
}

// String returns the string representation of the version
func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// ParseVersion parses a version such as "1.7" or "/1.7". Unparseable input
// yields DefaultOutputVersion.
func ParseVersion(version string) PDFVersion {
	if len(version) > 0 && version[0] == '/' {
		version = version[1:]
	}
	var major, minor int
	if _, err := fmt.Sscanf(version, "%d.%d", &major, &minor); err != nil || major == 0 {
		return DefaultOutputVersion
	}
	return PDFVersion{Major: major, Minor: minor}
}
