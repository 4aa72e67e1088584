package module

import (
	"errors"
	"fmt"
	"strings"
)

// GraphErrorCode categorizes module graph failures. All of them are raised
// before any event is dispatched.
type GraphErrorCode string

const (
	// ErrCodeCyclicDependency indicates no construction order exists.
	ErrCodeCyclicDependency GraphErrorCode = "CYCLIC_DEPENDENCY"

	// ErrCodeUnknownDependency indicates a dependency names no declared
	// module, or a module requested an alias it did not declare.
	ErrCodeUnknownDependency GraphErrorCode = "UNKNOWN_DEPENDENCY"

	// ErrCodeDuplicateModule indicates two specs share a name.
	ErrCodeDuplicateModule GraphErrorCode = "DUPLICATE_MODULE"

	// ErrCodeConstructionFailed indicates a constructor returned an error
	// or a nil instance.
	ErrCodeConstructionFailed GraphErrorCode = "CONSTRUCTION_FAILED"
)

// GraphError is returned by Order and Build.
type GraphError struct {
	Code    GraphErrorCode
	Message string

	// Module is the module being resolved or constructed.
	Module string

	// Path is the cycle for CYCLIC_DEPENDENCY, closed on its first element:
	// [a, b, a].
	Path []string

	Err error
}

func (e *GraphError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if len(e.Path) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Path, " -> "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *GraphError) Unwrap() error { return e.Err }

func hasCode(err error, code GraphErrorCode) bool {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}

// IsCyclicDependency returns true if err is a CYCLIC_DEPENDENCY error.
func IsCyclicDependency(err error) bool { return hasCode(err, ErrCodeCyclicDependency) }

// IsUnknownDependency returns true if err is an UNKNOWN_DEPENDENCY error.
func IsUnknownDependency(err error) bool { return hasCode(err, ErrCodeUnknownDependency) }

// IsDuplicateModule returns true if err is a DUPLICATE_MODULE error.
func IsDuplicateModule(err error) bool { return hasCode(err, ErrCodeDuplicateModule) }

// IsConstructionFailed returns true if err is a CONSTRUCTION_FAILED error.
func IsConstructionFailed(err error) bool { return hasCode(err, ErrCodeConstructionFailed) }
