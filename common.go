// Common types and interfaces
//
// This file is part of go-ttt.
//
// go-ttt is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-ttt is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-ttt. If not, see
// <http://www.gnu.org/licenses/>

package ttt

import (
	"context"
	"fmt"
	"time"
)

type (
	ClientState uint8
	RoomState   uint8
	Outcome     uint8
)

const (
	// Possible client states
	ClientLobby ClientState = iota
	ClientWaiting
	ClientPlaying
)

const (
	// Possible room states
	RoomEmpty RoomState = iota
	RoomWaiting
	RoomPlaying
)

const (
	// Possible game states
	RUNNING Outcome = iota
	WON
	DRAW
)

// Nicknames and room names are cut down to this many bytes
const MaxNameLen = 31

func (s RoomState) String() string {
	switch s {
	case RoomEmpty:
		return "EMPTY"
	case RoomWaiting:
		return "WAITING"
	case RoomPlaying:
		return "PLAYING"
	default:
		panic(fmt.Sprintf("Illegal room state: %d", s))
	}
}

func (o Outcome) String() string {
	switch o {
	case RUNNING:
		return "Running"
	case WON:
		return "Won"
	case DRAW:
		return "Draw"
	default:
		panic(fmt.Sprintf("Illegal outcome: %d", o))
	}
}

// A Player is one end of a connection that can be seated in a room.
// The concrete implementation lives in the proto package; the room
// registry only ever talks to this interface.
type Player interface {
	// Send emits a single protocol line to the peer.  Write
	// failures are absorbed, the liveness layer reaps the
	// connection.
	Send(tag string, args ...interface{})

	Name() string
	Session() string
	State() ClientState
	SetState(ClientState)
	Room() *Room
	SetRoom(*Room)
}

// A Slot is one of the two player positions inside a room.  The
// preserved identity outlives the client, it is what a reconnect
// within the grace window is matched against.
type Slot struct {
	Client Player

	// Preserved identity
	Name    string
	Session string

	Disconnected bool
	Gone         time.Time
}

func (s *Slot) Live() bool { return s.Client != nil }

// Preserved reports whether the slot is vacated but still claimable
// by a reconnecting client.
func (s *Slot) Preserved() bool { return s.Client == nil && s.Disconnected }

func (s *Slot) Clear() { *s = Slot{} }

// Seat places P in the slot and records its identity.
func (s *Slot) Seat(p Player) {
	s.Client = p
	s.Name = p.Name()
	s.Session = p.Session()
	s.Disconnected = false
}

type Room struct {
	Id    int
	Name  string
	State RoomState
	Game  Game
	Slots [2]Slot

	// Replay votes for the next round
	Replay [2]bool

	// The slot that receives 'X' and the first turn in the next
	// round, flipped on each accepted replay
	Starter int
}

// SlotOf returns the index of the slot P occupies, or -1.
func (r *Room) SlotOf(p Player) int {
	for i := range r.Slots {
		if r.Slots[i].Client == p {
			return i
		}
	}
	return -1
}

// Live counts the occupied slots.
func (r *Room) Live() (n int) {
	for i := range r.Slots {
		if r.Slots[i].Live() {
			n++
		}
	}
	return n
}

// Broadcast sends a line to every seated client.
func (r *Room) Broadcast(tag string, args ...interface{}) {
	for i := range r.Slots {
		if c := r.Slots[i].Client; c != nil {
			c.Send(tag, args...)
		}
	}
}

// Symbol returns the mark placed by slot I.
func Symbol(i int) byte {
	if i == 0 {
		return 'X'
	}
	return 'O'
}

// A Match is the record of one finished round.
type Match struct {
	Room    string
	P1, P2  string
	Outcome Outcome
	Winner  string
	Moves   int
	Ended   time.Time
}

// A Recorder persists finished matches.  Implementations must not
// block the caller; the room registry invokes this under its lock.
type Recorder interface {
	SaveMatch(context.Context, *Match)
}

// CropName cuts a nickname or room name down to the protocol limit.
func CropName(name string) string {
	if len(name) > MaxNameLen {
		return name[:MaxNameLen]
	}
	return name
}
