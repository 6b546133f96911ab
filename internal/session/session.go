package session

import (
	"time"

	"github.com/sells-group/proviewer/internal/model"
)

// Inputs are the form values that survive Clear.
type Inputs struct {
	Sequence  string
	Accession string
}

// Session is an immutable snapshot of one user's view state. Transition
// methods return a new Session and leave the receiver untouched.
type Session struct {
	ID        string
	Predicted State
	Uploaded  State
	Fetched   State
	Inputs    Inputs
	// UploadGen changes whenever the upload flow is cleared so the page can
	// render a fresh file picker.
	UploadGen int
	UpdatedAt time.Time
}

// New returns an empty session pre-filled with the default inputs.
func New(id string, defaults Inputs) Session {
	return Session{
		ID:        id,
		Predicted: Empty{},
		Uploaded:  Empty{},
		Fetched:   Empty{},
		Inputs:    defaults,
		UpdatedAt: time.Now().UTC(),
	}
}

// State returns the current state of flow.
func (s Session) State(flow model.Flow) State {
	var st State
	switch flow {
	case model.FlowPredict:
		st = s.Predicted
	case model.FlowUpload:
		st = s.Uploaded
	case model.FlowFetch:
		st = s.Fetched
	}
	if st == nil {
		return Empty{}
	}
	return st
}

// Record returns the structure displayed for flow.
func (s Session) Record(flow model.Flow) (model.StructureRecord, bool) {
	return RecordOf(s.State(flow))
}

func (s Session) with(flow model.Flow, st State) Session {
	switch flow {
	case model.FlowPredict:
		s.Predicted = st
	case model.FlowUpload:
		s.Uploaded = st
	case model.FlowFetch:
		s.Fetched = st
	}
	s.UpdatedAt = time.Now().UTC()
	return s
}

// Begin moves flow to Pending for input.
func (s Session) Begin(flow model.Flow, input string) Session {
	return s.with(flow, Pending{Input: input, Prior: priorOf(s.State(flow))})
}

// Complete stores rec as the flow's structure, replacing any earlier one.
func (s Session) Complete(flow model.Flow, rec model.StructureRecord) Session {
	return s.with(flow, Populated{Record: rec})
}

// Fail records err for flow. A previously displayed structure is kept.
func (s Session) Fail(flow model.Flow, err error) Session {
	return s.with(flow, Failed{Err: err, Prior: priorOf(s.State(flow))})
}

// Clear empties flow. Other flows and the pending inputs are untouched.
func (s Session) Clear(flow model.Flow) Session {
	next := s.with(flow, Empty{})
	if flow == model.FlowUpload {
		next.UploadGen++
	}
	return next
}

// Adopt copies flow's state, and the form input that belongs to it, from
// other onto s.
func (s Session) Adopt(flow model.Flow, other Session) Session {
	s = s.with(flow, other.State(flow))
	switch flow {
	case model.FlowPredict:
		s.Inputs.Sequence = other.Inputs.Sequence
	case model.FlowFetch:
		s.Inputs.Accession = other.Inputs.Accession
	case model.FlowUpload:
		s.UploadGen = other.UploadGen
	}
	return s
}

// WithSequence records the sequence typed into the predict form.
func (s Session) WithSequence(seq string) Session {
	s.Inputs.Sequence = seq
	return s
}

// WithAccession records the accession typed into the fetch form.
func (s Session) WithAccession(acc string) Session {
	s.Inputs.Accession = acc
	return s
}
