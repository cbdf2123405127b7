package catalog

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/theoremus-urban-solutions/siri-departures/netex"
)

// snapshot is the gob envelope written to disk.
type snapshot struct {
	SavedAt time.Time
	Stops   []netex.Stop
}

// WriteSnapshot encodes stops to w using gob encoding.
func WriteSnapshot(w io.Writer, stops []netex.Stop) error {
	if err := gob.NewEncoder(w).Encode(snapshot{SavedAt: time.Now().UTC(), Stops: stops}); err != nil {
		return fmt.Errorf("failed to encode catalog snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot. Search keys are recomputed
// from the decoded names rather than trusted from the stream.
func ReadSnapshot(r io.Reader) ([]netex.Stop, error) {
	var snap snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode catalog snapshot: %w", err)
	}
	for i := range snap.Stops {
		if snap.Stops[i].OtherTransportModes == nil {
			snap.Stops[i].OtherTransportModes = []string{}
		}
		snap.Stops[i].Normalize()
	}
	return snap.Stops, nil
}

// SaveSnapshot writes stops to path atomically.
func SaveSnapshot(path string, stops []netex.Stop) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := WriteSnapshot(tmp, stops); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadSnapshot reads a snapshot written by SaveSnapshot.
func LoadSnapshot(path string) ([]netex.Stop, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadSnapshot(f)
}
