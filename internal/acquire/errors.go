package acquire

import (
	"errors"
	"fmt"

	"github.com/sells-group/proviewer/internal/model"
	"github.com/sells-group/proviewer/internal/viewer"
)

// Notice levels.
const (
	LevelWarning = "warning"
	LevelError   = "error"
)

// ValidationError rejects input before any I/O is attempted.
type ValidationError struct {
	Flow    model.Flow
	Level   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Flow, e.Message)
}

// AcquisitionError wraps a failed fetch, fold or upload read. The flow's
// stored record is never touched when one is returned.
type AcquisitionError struct {
	Flow  model.Flow
	Input string
	Err   error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Flow, e.Input, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// Describe turns an acquisition or validation error into the message shown
// next to the flow's controls.
func Describe(err error) viewer.Notice {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return viewer.Notice{Text: ve.Message, Level: ve.Level}
	}

	var ae *AcquisitionError
	if errors.As(err, &ae) {
		switch ae.Flow {
		case model.FlowFetch:
			return viewer.Notice{
				Text:  fmt.Sprintf("Failed to fetch structure for %s. Please check the UniProt ID and try again.", ae.Input),
				Level: LevelError,
			}
		case model.FlowPredict:
			return viewer.Notice{Text: "API Error: " + ae.Err.Error(), Level: LevelError}
		case model.FlowUpload:
			return viewer.Notice{Text: fmt.Sprintf("Could not read %s: %v", ae.Input, ae.Err), Level: LevelError}
		}
	}

	return viewer.Notice{Text: err.Error(), Level: LevelError}
}
