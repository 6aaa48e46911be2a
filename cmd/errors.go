package cmd

import "fmt"

// AllTargetsFailedError signals that no target could be fetched at all.
type AllTargetsFailedError struct {
	Total int
}

func (e *AllTargetsFailedError) Error() string {
	return fmt.Sprintf("all %d target(s) failed to fetch; check the URLs and your network connection", e.Total)
}

// UnsupportedFormatError signals an unknown output or report format.
type UnsupportedFormatError struct {
	Format  string
	Allowed []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q (allowed: %v)", e.Format, e.Allowed)
}
