package rpc

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeParseError          = "PARSE_ERROR"
	CodeBadRequest          = "BAD_REQUEST"
	CodeNotFound            = "NOT_FOUND"
	CodeMethodNotSupported  = "METHOD_NOT_SUPPORTED"
	CodeTimeout             = "TIMEOUT"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"
)

type codeInfo struct {
	jsonRPC    int
	httpStatus int
}

var codes = map[string]codeInfo{
	CodeParseError:          {-32700, http.StatusBadRequest},
	CodeBadRequest:          {-32600, http.StatusBadRequest},
	CodeNotFound:            {-32004, http.StatusNotFound},
	CodeMethodNotSupported:  {-32005, http.StatusMethodNotAllowed},
	CodeTimeout:             {-32008, http.StatusRequestTimeout},
	CodeInternalServerError: {-32603, http.StatusInternalServerError},
}

// Error is a procedure failure as it travels on the wire.
type Error struct {
	Code       string
	Message    string
	HTTPStatus int
	Path       string
}

// NewError builds an Error with the HTTP status registered for code.
func NewError(code, message string) *Error {
	info, ok := codes[code]
	if !ok {
		code = CodeInternalServerError
		info = codes[code]
	}

	return &Error{
		Code:       code,
		Message:    message,
		HTTPStatus: info.httpStatus,
	}
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("rpc %s: %s: %s", e.Path, e.Code, e.Message)
	}

	return fmt.Sprintf("rpc: %s: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is an rpc error with the NOT_FOUND code.
func IsNotFound(err error) bool {
	var rpcErr *Error
	return errors.As(err, &rpcErr) && rpcErr.Code == CodeNotFound
}

type wireErrorData struct {
	Code       string `json:"code"`
	HTTPStatus int    `json:"httpStatus"`
	Path       string `json:"path,omitempty"`
}

type wireError struct {
	Message string        `json:"message"`
	Code    int           `json:"code"`
	Data    wireErrorData `json:"data"`
}

func (e *Error) toWire() wireError {
	info, ok := codes[e.Code]
	if !ok {
		info = codes[CodeInternalServerError]
	}

	status := e.HTTPStatus
	if status == 0 {
		status = info.httpStatus
	}

	return wireError{
		Message: e.Message,
		Code:    info.jsonRPC,
		Data: wireErrorData{
			Code:       e.Code,
			HTTPStatus: status,
			Path:       e.Path,
		},
	}
}

func (w wireError) toError() *Error {
	code := w.Data.Code
	if code == "" {
		code = codeFromJSONRPC(w.Code)
	}

	status := w.Data.HTTPStatus
	if status == 0 {
		if info, ok := codes[code]; ok {
			status = info.httpStatus
		} else {
			status = http.StatusInternalServerError
		}
	}

	return &Error{
		Code:       code,
		Message:    w.Message,
		HTTPStatus: status,
		Path:       w.Data.Path,
	}
}

func codeFromJSONRPC(value int) string {
	for code, info := range codes {
		if info.jsonRPC == value {
			return code
		}
	}

	return CodeInternalServerError
}

var (
	ErrUnexpectedResponse = errors.New("unexpected rpc response")
	ErrBatchSizeMismatch  = errors.New("rpc response does not match batch size")
	ErrUnavailable        = errors.New("rpc endpoint unavailable")
	ErrTimeout            = errors.New("rpc request timed out")
)
