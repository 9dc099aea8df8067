package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/encodeous/dvsim/state"
)

var terminator = []byte(state.Terminator)

// envelope is the wire form shared by every message type
type envelope struct {
	Type           *MessageType         `json:"Type"`
	Identity       state.NodeId         `json:"Identity"`
	DistanceVector state.DistanceVector `json:"DistanceVector"`
}

type joinWire struct {
	Type     MessageType  `json:"Type"`
	Identity state.NodeId `json:"Identity"`
}

type updateWire struct {
	Type           MessageType          `json:"Type"`
	Identity       state.NodeId         `json:"Identity"`
	DistanceVector state.DistanceVector `json:"DistanceVector"`
}

// Encode serializes m and appends the frame terminator
func Encode(m Message) ([]byte, error) {
	var wire any
	switch msg := m.(type) {
	case *Join:
		wire = joinWire{Type: TypeJoin, Identity: msg.Identity}
	case *Update:
		dv := msg.DistanceVector
		if dv == nil {
			dv = state.DistanceVector{}
		}
		wire = updateWire{Type: TypeUpdate, Identity: msg.Identity, DistanceVector: dv}
	default:
		return nil, fmt.Errorf("cannot encode message of type %T", m)
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}
	return append(data, terminator...), nil
}

// Split cuts buf on frame terminators. It returns the complete frames in order, and the trailing bytes
// that have not been terminated yet. Frames containing only whitespace are discarded.
func Split(buf []byte) (frames [][]byte, rest []byte) {
	for {
		idx := bytes.Index(buf, terminator)
		if idx == -1 {
			return frames, buf
		}
		frame := buf[:idx]
		buf = buf[idx+len(terminator):]
		if len(bytes.TrimSpace(frame)) == 0 {
			continue
		}
		frames = append(frames, frame)
	}
}

// DecodeFrame parses a single frame, without its terminator. It reads the type discriminant first and then
// the payload for that type. Every failure wraps state.ErrProtocol.
func DecodeFrame(frame []byte) (Message, error) {
	env := envelope{}
	err := json.Unmarshal(frame, &env)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", state.ErrProtocol, err)
	}
	if env.Type == nil {
		return nil, fmt.Errorf("%w: missing message type", state.ErrProtocol)
	}
	if env.Identity == "" {
		return nil, fmt.Errorf("%w: %s without identity", state.ErrProtocol, *env.Type)
	}
	switch *env.Type {
	case TypeJoin:
		return &Join{Identity: env.Identity}, nil
	case TypeUpdate:
		if env.DistanceVector == nil {
			return nil, fmt.Errorf("%w: update from %s without distance vector", state.ErrProtocol, env.Identity)
		}
		return &Update{Identity: env.Identity, DistanceVector: env.DistanceVector}, nil
	}
	return nil, fmt.Errorf("%w: unknown message type %d", state.ErrProtocol, int(*env.Type))
}

// Decode returns every message held in complete frames of buf, in order. Frames that fail to parse are
// dropped, and a trailing unterminated frame is never returned.
func Decode(buf []byte) []Message {
	frames, _ := Split(buf)
	msgs := make([]Message, 0, len(frames))
	for _, frame := range frames {
		msg, err := DecodeFrame(frame)
		if err != nil {
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs
}
