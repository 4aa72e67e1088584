package engine

import (
	"context"
	"fmt"

	"github.com/roach88/combatlens/internal/session"
)

// DeterminismError reports two runs of the same input whose snapshots
// differ.
type DeterminismError struct {
	SessionID string
	First     string
	Second    string
}

func (e *DeterminismError) Error() string {
	return fmt.Sprintf("session %s: nondeterministic snapshot: %s != %s", e.SessionID, e.First, e.Second)
}

// VerifyDeterminism runs p over sess twice with fresh module instances and
// returns the shared snapshot digest, or a *DeterminismError when the two
// digests differ.
func (e *Engine) VerifyDeterminism(ctx context.Context, sess *session.Session, p Plan) (string, error) {
	var digests [2]string
	for i := range digests {
		res, err := e.Run(ctx, sess, p.Specs, p.Normalizers...)
		if err != nil {
			return "", fmt.Errorf("run %d: %w", i+1, err)
		}
		d, err := res.Digest()
		if err != nil {
			return "", fmt.Errorf("run %d: digest: %w", i+1, err)
		}
		digests[i] = d
	}
	if digests[0] != digests[1] {
		return "", &DeterminismError{SessionID: sess.ID, First: digests[0], Second: digests[1]}
	}
	return digests[0], nil
}
