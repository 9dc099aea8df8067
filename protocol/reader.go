package protocol

import (
	"bufio"
	"bytes"
	"io"

	"github.com/encodeous/dvsim/state"
)

// ScanFrames is a bufio.SplitFunc that yields frames without their terminator.
// Bytes after the last terminator are never returned, not even at EOF, so EOF needs no handling of its own.
func ScanFrames(data []byte, _ bool) (advance int, token []byte, err error) {
	if idx := bytes.Index(data, terminator); idx >= 0 {
		return idx + len(terminator), data[:idx], nil
	}
	return 0, nil, nil
}

// Reader decodes messages from a byte stream. A single read from the underlying stream may yield
// any number of frames; a partial frame is kept until the rest of it arrives.
type Reader struct {
	scanner *bufio.Scanner
	// OnDrop is called with every frame that fails to decode, before it is discarded
	OnDrop func(frame []byte, err error)
}

func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), state.MaxFrameSize)
	scanner.Split(ScanFrames)
	return &Reader{scanner: scanner}
}

// ReadMsg blocks until the next decodable message arrives. It returns io.EOF once the stream ends.
func (r *Reader) ReadMsg() (Message, error) {
	for r.scanner.Scan() {
		frame := r.scanner.Bytes()
		if len(bytes.TrimSpace(frame)) == 0 {
			continue
		}
		msg, err := DecodeFrame(frame)
		if err != nil {
			if r.OnDrop != nil {
				r.OnDrop(frame, err)
			}
			continue
		}
		return msg, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// WriteMsg encodes m and writes the whole frame to w
func WriteMsg(w io.Writer, m Message) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
