// Package protocol implements the framed message codec spoken between nodes and the relay.
//
// Every frame is a JSON object followed by state.Terminator. The object carries a numeric
// Type discriminant and a type-specific payload:
//
//	Join:   {"Type":0,"Identity":"u"}
//	Update: {"Type":1,"Identity":"u","DistanceVector":{"v":2,"w":-1}}
package protocol

import (
	"fmt"

	"github.com/encodeous/dvsim/state"
)

type MessageType int

const (
	TypeJoin MessageType = iota
	TypeUpdate
)

func (t MessageType) String() string {
	switch t {
	case TypeJoin:
		return "JOIN"
	case TypeUpdate:
		return "UPDATE"
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(t))
}

// Message is either a *Join or an *Update
type Message interface {
	Type() MessageType
	Sender() state.NodeId
}

// Join announces the identity of a freshly connected node
type Join struct {
	Identity state.NodeId
}

// Update carries the distance vector of Identity. The relay sends each node an Update with its own
// identity once, as the bootstrap.
type Update struct {
	Identity       state.NodeId
	DistanceVector state.DistanceVector
}

func (j *Join) Type() MessageType      { return TypeJoin }
func (j *Join) Sender() state.NodeId   { return j.Identity }
func (u *Update) Type() MessageType    { return TypeUpdate }
func (u *Update) Sender() state.NodeId { return u.Identity }

func (j *Join) String() string {
	return fmt.Sprintf("JOIN %s", j.Identity)
}

func (u *Update) String() string {
	return fmt.Sprintf("UPDATE %s %s", u.Identity, u.DistanceVector)
}
