// Package constants centralizes file permissions and size limits shared by
// the scanner and the CLI so they are not scattered as magic numbers.
package constants
