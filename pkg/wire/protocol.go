// Package wire implements the length-prefixed framing and tagged JSON
// payloads that multiplex INDEX, SEARCH and QUIT requests over a single TCP
// connection.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Tag identifies the kind of request carried by a frame's payload.
type Tag int

const (
	// TagUnknown marks a payload that did not match any recognized tag.
	TagUnknown Tag = iota
	TagIndex
	TagSearch
	TagQuit
)

const (
	indexPrefix  = "INDEX:"
	searchPrefix = "SEARCH:"
	quitPayload  = "QUIT"

	indexAck = "Index updated successfully"
)

// WriteFrame writes a 4-byte big-endian length prefix followed by payload,
// looping until every byte has been written.
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if err := writeAll(w, lenBuf[:]); err != nil {
		return fmt.Errorf("writing frame length: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if err := writeAll(w, payload); err != nil {
		return fmt.Errorf("writing frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads a 4-byte big-endian length prefix and then exactly that
// many payload bytes, looping on short reads (io.ReadFull already implements
// the "short reads are not errors" contract). A zero-length frame returns a
// non-nil empty slice.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("reading frame length: %w", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 {
		return []byte{}, nil
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("reading frame payload: %w", err)
	}
	return payload, nil
}

func writeAll(w io.Writer, buf []byte) error {
	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

// Classify inspects a received payload and reports its tag and, for INDEX
// and SEARCH frames, the remaining body bytes after the prefix. QUIT is
// matched by an exact payload of "QUIT" only, never by substring — a
// document path or search term containing the literal text QUIT must never
// be misclassified as a disconnect request.
func Classify(payload []byte) (Tag, []byte) {
	switch {
	case string(payload) == quitPayload:
		return TagQuit, nil
	case len(payload) > len(indexPrefix) && string(payload[:len(indexPrefix)]) == indexPrefix:
		return TagIndex, payload[len(indexPrefix):]
	case len(payload) > len(searchPrefix) && string(payload[:len(searchPrefix)]) == searchPrefix:
		return TagSearch, payload[len(searchPrefix):]
	default:
		return TagUnknown, nil
	}
}

// EncodeIndexRequest serializes req as an INDEX-tagged payload.
func EncodeIndexRequest(req IndexRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return append([]byte(indexPrefix), body...), nil
}

// DecodeIndexRequest parses an INDEX frame's body (post-prefix) into an
// IndexRequest.
func DecodeIndexRequest(body []byte) (IndexRequest, error) {
	var req IndexRequest
	err := json.Unmarshal(body, &req)
	return req, err
}

// EncodeSearchRequest serializes req as a SEARCH-tagged payload.
func EncodeSearchRequest(req SearchRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return append([]byte(searchPrefix), body...), nil
}

// DecodeSearchRequest parses a SEARCH frame's body (post-prefix) into a
// SearchRequest.
func DecodeSearchRequest(body []byte) (SearchRequest, error) {
	var req SearchRequest
	err := json.Unmarshal(body, &req)
	return req, err
}

// QuitFrame returns the exact bytes of a QUIT request payload.
func QuitFrame() []byte {
	return []byte(quitPayload)
}

// IndexAckPayload returns the bare acknowledgement payload sent in reply to
// a successfully processed INDEX request.
func IndexAckPayload() []byte {
	return []byte(indexAck)
}

// EncodeSearchReply serializes reply as the bare (untagged) SEARCH reply
// payload.
func EncodeSearchReply(reply SearchReply) ([]byte, error) {
	return json.Marshal(reply)
}

// DecodeSearchReply parses a bare SEARCH reply payload. An empty payload
// (length-0 frame) decodes to the zero-value SearchReply with no documents.
func DecodeSearchReply(payload []byte) (SearchReply, error) {
	if len(payload) == 0 {
		return SearchReply{}, nil
	}
	var reply SearchReply
	err := json.Unmarshal(payload, &reply)
	return reply, err
}
