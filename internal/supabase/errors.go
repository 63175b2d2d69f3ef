package supabase

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// noRowsCode is the PostgREST code returned when Single matches zero rows.
const noRowsCode = "PGRST116"

// Error is a structured PostgREST error response.
type Error struct {
	Code       string
	Message    string
	Details    string
	Hint       string
	StatusCode int
}

func (e *Error) Error() string {
	return fmt.Sprintf("supabase: %s (%s, status %d)", e.Message, e.Code, e.StatusCode)
}

// IsNotFound reports whether err is the zero-rows-on-single error.
// Transport failures and other API errors are not not-found.
func IsNotFound(err error) bool {
	var se *Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == noRowsCode
}

func parseError(body []byte, status int) error {
	e := &Error{StatusCode: status, Message: "request failed"}
	if !gjson.ValidBytes(body) {
		return e
	}
	parsed := gjson.ParseBytes(body)
	if msg := parsed.Get("message"); msg.Exists() {
		e.Message = msg.String()
	} else if msg := parsed.Get("error"); msg.Exists() {
		e.Message = msg.String()
	} else if msg := parsed.Get("error_description"); msg.Exists() {
		e.Message = msg.String()
	}
	e.Code = parsed.Get("code").String()
	e.Details = parsed.Get("details").String()
	e.Hint = parsed.Get("hint").String()
	return e
}
