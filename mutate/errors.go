package mutate

import (
	"fmt"
	"os"
	"strings"

	"github.com/lexandro/notebrowser-mcp/fsprovider"
)

// OpError reports a failed mutation. Op is a human-readable operation name
// such as "create file" or "move".
type OpError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func opError(op, path string, err error) *OpError {
	return &OpError{Op: op, Path: path, Err: err}
}

func invalid(op, path, reason string) *OpError {
	return opError(op, path, fsprovider.NewError(op, path, fsprovider.KindInvalidPath, fmt.Errorf("%s: %w", reason, os.ErrInvalid)))
}

// ValidateName checks a single path segment supplied by a user.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("name is empty")
	case name == "." || name == "..":
		return fmt.Errorf("name %q is reserved", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("name %q contains a path separator", name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("name contains a NUL byte")
	}
	return nil
}
