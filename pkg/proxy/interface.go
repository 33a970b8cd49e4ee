package proxy

import (
	"context"
)

// Mode selects where the image bytes come from.
type Mode int

const (
	// ModeTransform fetches through the transform gateway.
	ModeTransform Mode = iota
	// ModeOriginal fetches the original from the origin store.
	ModeOriginal
)

// Encoding selects the success response shape.
type Encoding int

const (
	// EncodingJSON answers {"body": <base64>, "encoding": "binary"}.
	EncodingJSON Encoding = iota
	// EncodingBinary answers the raw bytes with a content type.
	EncodingBinary
)

// ErrorPolicy selects the failure response shape.
type ErrorPolicy int

const (
	// ErrorsMapped answers a status per failure kind with a reason.
	ErrorsMapped ErrorPolicy = iota
	// ErrorsFixed answers every failure with the same 500 body.
	ErrorsFixed
)

type Request struct {
	// Route labels logs and metrics.
	Route     string
	RequestID string

	// Exactly one of Reference and LogicalName is set.
	Reference   *ImageReference
	LogicalName string

	Mode     Mode
	Encoding Encoding
	Errors   ErrorPolicy
}

type ProxyResponseWriter interface {
	WriteImage(contentType string, data []byte)
	WriteJSON(code int, payload interface{})
}

type ProxyService interface {
	Handle(ctx context.Context, request Request, responseWriter ProxyResponseWriter)
}

type EncodedImage struct {
	Body     string `json:"body"`
	Encoding string `json:"encoding"`
}

type ErrorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

const (
	BinaryEncoding     = "binary"
	FixedErrorMessage  = "Failed to fetch and serve the image."
	DefaultContentType = "image/png"
)
