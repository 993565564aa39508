package storage

import (
	"fmt"

	"github.com/pthm-cable/evolution/telemetry"
)

// EncodeSnapshot serialises a snapshot into the stored payload form.
func EncodeSnapshot(s *telemetry.Snapshot) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("encode snapshot: nil snapshot")
	}
	return s.Marshal()
}

// DecodeSnapshot parses a payload written by EncodeSnapshot.
func DecodeSnapshot(payload []byte) (*telemetry.Snapshot, error) {
	return telemetry.UnmarshalSnapshot(payload)
}

// cloneSnapshot deep-copies through the codec so stored runs never alias
// caller state.
func cloneSnapshot(s *telemetry.Snapshot) (*telemetry.Snapshot, error) {
	payload, err := EncodeSnapshot(s)
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(payload)
}
