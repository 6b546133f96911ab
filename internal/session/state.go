// Package session holds the per-user view state: one tagged state per
// acquisition flow plus the pending form inputs.
package session

import (
	"github.com/sells-group/proviewer/internal/model"
)

// State is the state of one acquisition flow. It is one of Empty, Pending,
// Populated or Failed.
type State interface {
	Name() string
	state()
}

// Empty means the flow holds no structure.
type Empty struct{}

// Pending means an acquisition is in flight. Prior is the record that was
// displayed before the attempt started, if any.
type Pending struct {
	Input string
	Prior *model.StructureRecord
}

// Populated holds the structure from the last successful acquisition.
type Populated struct {
	Record model.StructureRecord
}

// Failed records the error of the last attempt. Prior is the record from an
// earlier success; the failed attempt itself never contributes content.
type Failed struct {
	Err   error
	Prior *model.StructureRecord
}

func (Empty) Name() string     { return "empty" }
func (Pending) Name() string   { return "pending" }
func (Populated) Name() string { return "populated" }
func (Failed) Name() string    { return "failed" }

func (Empty) state()     {}
func (Pending) state()   {}
func (Populated) state() {}
func (Failed) state()    {}

// RecordOf returns the structure that should be displayed for st.
func RecordOf(st State) (model.StructureRecord, bool) {
	switch s := st.(type) {
	case Populated:
		return s.Record, true
	case Pending:
		if s.Prior != nil {
			return *s.Prior, true
		}
	case Failed:
		if s.Prior != nil {
			return *s.Prior, true
		}
	}
	return model.StructureRecord{}, false
}

// ErrorOf returns the error of a Failed state.
func ErrorOf(st State) error {
	if f, ok := st.(Failed); ok {
		return f.Err
	}
	return nil
}

func priorOf(st State) *model.StructureRecord {
	rec, ok := RecordOf(st)
	if !ok {
		return nil
	}
	return &rec
}
