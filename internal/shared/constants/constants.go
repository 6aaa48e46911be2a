package constants

import "io/fs"

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// MaxBodyBytes caps how much of a fetched page is read for analysis.
	MaxBodyBytes = 1 << 20
	// MaxFieldValueLen caps how much of an attribute value is kept in results.
	MaxFieldValueLen = 256
)
