package apperror

import "net/http"

type Apperror struct {
	status  int
	message string
	err     error
}

var (
	ServiceUnavailable = Apperror{status: http.StatusServiceUnavailable, message: "Server Not Ready To Process This Request"}
	ServerError        = Apperror{status: http.StatusInternalServerError, message: "Internal Server Error"}
	InvalidRequest     = Apperror{status: http.StatusBadRequest, message: "Invalid Request Received"}
	NotFound           = Apperror{status: http.StatusNotFound, message: "No Such Printer Configured On This Server"}
)

func (e Apperror) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return e.message
}

func (e Apperror) SetMessage(message string) Apperror {
	e.message = message
	return e
}

// Wrap attaches an underlying cause while keeping the HTTP status.
func (e Apperror) Wrap(err error) Apperror {
	e.err = err
	return e
}

func (e Apperror) Unwrap() error {
	return e.err
}

func (e Apperror) Is(target error) bool {
	t, ok := target.(Apperror)

	if !ok {
		return false
	}

	return t.status == e.status
}

func (e Apperror) StatusAndMessage() (int, string) {
	return e.status, e.message
}
