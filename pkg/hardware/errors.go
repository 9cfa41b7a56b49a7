package hardware

import (
	"errors"
	"fmt"
	"strings"
)

// Status codes returned by hamlib and rigctld ("RPRT -n")
const (
	StatusOK         = 0
	StatusInvalid    = -1
	StatusConfig     = -2
	StatusNoMem      = -3
	StatusNotImpl    = -4
	StatusTimeout    = -5
	StatusIO         = -6
	StatusInternal   = -7
	StatusProto      = -8
	StatusRejected   = -9
	StatusTruncated  = -10
	StatusNotAvail   = -11
	StatusVFONotTarg = -12
	StatusBus        = -13
	StatusBusBusy    = -14
	StatusBadArg     = -15
	StatusBadVFO     = -16
	StatusDomain     = -17
)

var statusText = map[int]string{
	StatusOK:         "Command completed successfully",
	StatusInvalid:    "Invalid parameter",
	StatusConfig:     "Invalid configuration",
	StatusNoMem:      "Memory shortage",
	StatusNotImpl:    "Feature not implemented",
	StatusTimeout:    "Communication timed out",
	StatusIO:         "IO error",
	StatusInternal:   "Internal Hamlib error",
	StatusProto:      "Protocol error",
	StatusRejected:   "Command rejected by the rig",
	StatusTruncated:  "Command performed, but arg truncated",
	StatusNotAvail:   "Function not available",
	StatusVFONotTarg: "VFO not targetable",
	StatusBus:        "Error talking on the bus",
	StatusBusBusy:    "Collision on the bus",
	StatusBadArg:     "NULL RIG handle or invalid pointer parameter",
	StatusBadVFO:     "Invalid VFO",
	StatusDomain:     "Argument out of domain of func",
}

// RigError is a failed backend call with its hamlib status code
type RigError struct {
	Code int
	Msg  string
}

// NewRigError builds a RigError from a status code using the hamlib text
func NewRigError(code int) *RigError {
	if code > 0 {
		code = -code
	}
	msg, ok := statusText[code]
	if !ok {
		msg = fmt.Sprintf("Unknown error code %d", code)
	}
	return &RigError{Code: code, Msg: msg}
}

func (e *RigError) Error() string {
	return e.Msg
}

// ErrorDetail returns the first line of err's message, the short form
// shown to users.
func ErrorDetail(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.IndexAny(msg, "\r\n"); i >= 0 {
		msg = msg[:i]
	}
	return msg
}

// IsNotAvailable reports whether err means the rig lacks the feature
func IsNotAvailable(err error) bool {
	var re *RigError
	if errors.As(err, &re) {
		return re.Code == StatusNotAvail || re.Code == StatusNotImpl
	}
	return errors.Is(err, ErrNotAvailable)
}
