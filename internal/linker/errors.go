package linker

import (
	"errors"
	"fmt"
)

// ErrCodeInvalidLinkSpec is the code carried by every LinkSpecError.
const ErrCodeInvalidLinkSpec = "INVALID_LINK_SPEC"

// LinkSpecError reports a link spec rejected before normalization starts.
type LinkSpecError struct {
	Code     string
	Index    int // index of the offending LinkSpec
	Relation string
	Message  string
}

func (e *LinkSpecError) Error() string {
	if e.Relation != "" {
		return fmt.Sprintf("%s: link spec %d (%s): %s", e.Code, e.Index, e.Relation, e.Message)
	}
	return fmt.Sprintf("%s: link spec %d: %s", e.Code, e.Index, e.Message)
}

// IsInvalidLinkSpec returns true if err is a LinkSpecError.
func IsInvalidLinkSpec(err error) bool {
	var le *LinkSpecError
	return errors.As(err, &le)
}
