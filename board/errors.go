package board

import "net/http"

type boardError struct {
	code int
	msg  string
}

func (e *boardError) Error() string {
	return e.msg
}

func (e *boardError) HTTPCode() int {
	return e.code
}

var (
	ErrBusy          = &boardError{http.StatusConflict, "a sound is already playing"}
	ErrNoSuchButton  = &boardError{http.StatusNotFound, "no such button"}
	ErrDeleteModeOff = &boardError{http.StatusConflict, "delete mode is off"}
	ErrBadVolume     = &boardError{http.StatusBadRequest, "volume must be between 0 and 100"}
)
