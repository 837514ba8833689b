package wire

import (
	"bytes"
	"io"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		[]byte("a"),
		[]byte("INDEX:{\"client_id\":\"client_1\"}"),
		bytes.Repeat([]byte("x"), 70000), // exceeds one typical read buffer
	}
	for _, payload := range cases {
		var buf bytes.Buffer
		if err := WriteFrame(&buf, payload); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		if len(payload) != len(got) {
			t.Fatalf("round trip length mismatch: got %d want %d", len(got), len(payload))
		}
		if len(payload) > 0 && !bytes.Equal(got, payload) {
			t.Fatalf("round trip payload mismatch")
		}
	}
}

// slowReader dribbles bytes out a handful at a time to exercise the partial
// read loop in ReadFrame.
type slowReader struct {
	data []byte
	step int
}

func (s *slowReader) Read(p []byte) (int, error) {
	if len(s.data) == 0 {
		return 0, io.EOF
	}
	n := s.step
	if n > len(p) {
		n = len(p)
	}
	if n > len(s.data) {
		n = len(s.data)
	}
	copy(p, s.data[:n])
	s.data = s.data[n:]
	return n, nil
}

func TestReadFrameHandlesShortReads(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello search frame")
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	r := &slowReader{data: buf.Bytes(), step: 3}
	got, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
		tag     Tag
	}{
		{"index", []byte("INDEX:{}"), TagIndex},
		{"search", []byte("SEARCH:{}"), TagSearch},
		{"quit exact", []byte("QUIT"), TagQuit},
		{"quit substring in path not matched", []byte("INDEX:{\"document_path\":\"/a/QUIT/b\"}"), TagIndex},
		{"unknown", []byte("PING"), TagUnknown},
		{"empty", []byte(""), TagUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tag, _ := Classify(tc.payload)
			if tag != tc.tag {
				t.Fatalf("Classify(%q) tag = %v, want %v", tc.payload, tag, tc.tag)
			}
		})
	}
}

func TestIndexRequestRoundTrip(t *testing.T) {
	req := IndexRequest{
		ClientID:        "client_1",
		DocumentPath:    "/a/b.txt",
		WordFrequencies: map[string]int32{"foo": 2, "bar": 1},
	}
	encoded, err := EncodeIndexRequest(req)
	if err != nil {
		t.Fatalf("EncodeIndexRequest: %v", err)
	}
	tag, body := Classify(encoded)
	if tag != TagIndex {
		t.Fatalf("Classify tag = %v, want TagIndex", tag)
	}
	got, err := DecodeIndexRequest(body)
	if err != nil {
		t.Fatalf("DecodeIndexRequest: %v", err)
	}
	if got.ClientID != req.ClientID || got.DocumentPath != req.DocumentPath || len(got.WordFrequencies) != 2 {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
}

func TestSearchReplyEmptyFrame(t *testing.T) {
	reply, err := DecodeSearchReply([]byte{})
	if err != nil {
		t.Fatalf("DecodeSearchReply: %v", err)
	}
	if reply.TotalResults != 0 || len(reply.Documents) != 0 {
		t.Fatalf("expected empty reply, got %+v", reply)
	}
}
