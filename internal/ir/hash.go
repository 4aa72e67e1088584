package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests. The version suffix allows the
// algorithm to change without colliding with stored digests.
const (
	DomainSnapshot = "combatlens/snapshot/v1"
	DomainSession  = "combatlens/session/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotDigest hashes the canonical form of a run snapshot. Two runs
// over the same input and module set must produce the same digest.
func SnapshotDigest(snapshot IRObject) (string, error) {
	canonical, err := MarshalCanonical(snapshot)
	if err != nil {
		return "", fmt.Errorf("SnapshotDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// SequenceDigest hashes the ordered native content of events. Relations
// and positions are excluded, so a re-imported log hashes identically.
func SequenceDigest(events []Event) (string, error) {
	arr := make(IRArray, len(events))
	for i := range events {
		arr[i] = events[i].ToIR()
	}
	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("SequenceDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSession, canonical), nil
}

// MustSnapshotDigest is like SnapshotDigest but panics on error.
// Use only in tests.
func MustSnapshotDigest(snapshot IRObject) string {
	d, err := SnapshotDigest(snapshot)
	if err != nil {
		panic(err)
	}
	return d
}
