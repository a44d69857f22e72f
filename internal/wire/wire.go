// Package wire implements the network front end's request/response codec.
// Per the design this speaks one length-unframed JSON document per
// connection in each direction: a client writes one encoded Command and
// reads one encoded Response, grounded on original_source's
// kvs-server.rs/kvs-client.rs (a single fixed-buffer Read of a JSON-encoded
// command, a single Write of a JSON-encoded response) rather than
// shake-karrot-lightkafka's Kafka-style length-prefixed, correlation-ID
// framed protocol — that framing exists to multiplex many requests over one
// long-lived connection, which this one-request-per-connection design has
// no need for.
package wire

import (
	"encoding/json"
	"io"

	"github.com/emberkv/ember/internal/record"
)

// MaxRequestBytes bounds how much a server will read for a single request,
// mirroring kvs-server.rs's fixed read buffer.
const MaxRequestBytes = 64 * 1024

// ResponseKind tags which variant of Response is populated.
type ResponseKind string

const (
	// KindValue carries the value found for a Get.
	KindValue ResponseKind = "value"
	// KindNone acknowledges a Set or Remove, or a Get that found nothing.
	KindNone ResponseKind = "none"
	// KindError carries a human-readable failure message.
	KindError ResponseKind = "error"
)

// Response is the wire form of the three-variant result the spec describes:
// Value(string) | None | Error.
type Response struct {
	Kind    ResponseKind `json:"kind"`
	Value   string       `json:"value,omitempty"`
	Message string       `json:"message,omitempty"`
}

// ValueResponse builds the Value(value) variant.
func ValueResponse(value string) Response {
	return Response{Kind: KindValue, Value: value}
}

// NoneResponse builds the None variant.
func NoneResponse() Response {
	return Response{Kind: KindNone}
}

// ErrorResponse builds the Error variant carrying err's message.
func ErrorResponse(err error) Response {
	return Response{Kind: KindError, Message: err.Error()}
}

// EncodeRequest marshals cmd as the single JSON document a client writes
// to the connection.
func EncodeRequest(cmd record.Command) ([]byte, error) {
	return json.Marshal(cmd)
}

// DecodeRequest reads the entirety of r (bounded by MaxRequestBytes) and
// decodes it as a Command. There is no length prefix: the server reads
// until EOF, matching a client that writes its request and then half-closes
// or the fixed-size single read original_source performs.
func DecodeRequest(r io.Reader) (record.Command, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxRequestBytes))
	if err != nil {
		return record.Command{}, err
	}

	var cmd record.Command
	if err := json.Unmarshal(body, &cmd); err != nil {
		return record.Command{}, err
	}
	return cmd, nil
}

// EncodeResponse marshals resp as the single JSON document a server writes
// back before closing the connection.
func EncodeResponse(resp Response) ([]byte, error) {
	return json.Marshal(resp)
}

// DecodeResponse reads the entirety of r (bounded by MaxRequestBytes) and
// decodes it as a Response.
func DecodeResponse(r io.Reader) (Response, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxRequestBytes))
	if err != nil {
		return Response{}, err
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}
