package surface

import "net/http"

// HTTPError pairs a status code with a stable error key.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string {
	return e.Key
}

var ErrBadRequest = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
