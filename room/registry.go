// Room registry
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

package room

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	ttt "go-ttt"
)

// Registry is the process-wide room table.  Every mutation of a room
// (slot assignment, state change, replay votes, preserved identity,
// game reset and moves) happens under its lock.  Socket writes inside
// an operation are deliberately kept under the lock so that broadcast
// ordering stays consistent with the state change.
type Registry struct {
	mu     sync.Mutex
	rooms  []*ttt.Room
	nextId int

	max     int
	grace   time.Duration
	log     *log.Logger
	rec     ttt.Recorder
	matches atomic.Int64
}

func MakeRegistry(max int, grace time.Duration, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{max: max, grace: grace, log: logger}
}

// SetRecorder wires an optional match recorder.  Must be called
// before the listeners start.
func (reg *Registry) SetRecorder(r ttt.Recorder) { reg.rec = r }

func (reg *Registry) Grace() time.Duration { return reg.grace }

// MatchCount returns the number of rounds finished since startup.
func (reg *Registry) MatchCount() int64 { return reg.matches.Load() }

// Count returns the number of active rooms.
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

func (reg *Registry) find(id int) *ttt.Room {
	for _, r := range reg.rooms {
		if r.Id == id {
			return r
		}
	}
	return nil
}

func (reg *Registry) remove(r *ttt.Room) {
	for i, o := range reg.rooms {
		if o == r {
			reg.rooms = append(reg.rooms[:i], reg.rooms[i+1:]...)
			return
		}
	}
}

// Create allocates a new room with CREATOR seated as p1.
func (reg *Registry) Create(name string, creator ttt.Player) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if len(reg.rooms) >= reg.max {
		creator.Send("ERROR", "Lobby full")
		return
	}

	r := &ttt.Room{
		Id:    reg.nextId,
		Name:  ttt.CropName(name),
		State: ttt.RoomWaiting,
	}
	reg.nextId++
	r.Slots[0].Seat(creator)
	creator.SetRoom(r)
	creator.SetState(ttt.ClientWaiting)
	reg.rooms = append(reg.rooms, r)

	reg.log.Printf("Room %d (%q) created by %s", r.Id, r.Name, creator.Name())
	creator.Send("CREATED", r.Id, r.Name)
}

// Join seats JOINER in room ID and starts round 1.  A slot that is
// vacated but still inside its reconnect window counts as occupied;
// claiming it would destroy the window.
func (reg *Registry) Join(id int, joiner ttt.Player) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.find(id)
	if r == nil {
		joiner.Send("ERROR", "No such room")
		return
	}
	if r.SlotOf(joiner) != -1 {
		joiner.Send("ERROR", "Cannot join your own room")
		return
	}
	free := -1
	for i := range r.Slots {
		if !r.Slots[i].Live() && !r.Slots[i].Preserved() {
			free = i
		}
	}
	// A room held open only by a reconnect window has no one to play
	// against; the preserved seat stays reserved for its owner.
	if free == -1 || !r.Slots[1-free].Live() {
		joiner.Send("ERROR", "Room full")
		return
	}

	// A lone live client always occupies p1
	if !r.Slots[0].Live() && !r.Slots[0].Preserved() && r.Slots[1].Live() {
		r.Slots[0] = r.Slots[1]
		r.Slots[1].Clear()
		free = 1
	}

	r.Slots[free].Seat(joiner)
	joiner.SetRoom(r)
	joiner.SetState(ttt.ClientPlaying)
	other := r.Slots[1-free].Client
	if other != nil {
		other.SetState(ttt.ClientPlaying)
	}
	r.State = ttt.RoomPlaying
	r.Starter = 0
	r.Replay = [2]bool{}

	reg.log.Printf("Room %d: %s joined %s", r.Id, joiner.Name(), r.Slots[1-free].Name)

	joiner.Send("JOINEDROOM", r.Id, r.Name)
	r.Broadcast("CLEAR")
	r.Slots[0].Client.Send("START", "Opponent:"+r.Slots[1].Name)
	r.Slots[1].Client.Send("START", "Opponent:"+r.Slots[0].Name)
	r.Slots[0].Client.Send("SYMBOL", "X")
	r.Slots[1].Client.Send("SYMBOL", "O")
	reg.startRound(r)
}

// Leave is the voluntary exit (EXIT).  The departing identity is not
// preserved, voluntary exits have no reconnect eligibility.  Outside
// a room this is a no-op.
func (reg *Registry) Leave(c ttt.Player) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := c.Room()
	if r == nil {
		return
	}
	wasPlaying := r.State == ttt.RoomPlaying

	if i := r.SlotOf(c); i != -1 {
		r.Slots[i].Clear()
	}
	c.SetRoom(nil)
	c.SetState(ttt.ClientLobby)
	c.Send("EXITED")

	var other ttt.Player
	for i := range r.Slots {
		if r.Slots[i].Live() {
			other = r.Slots[i].Client
		}
	}
	if other != nil && wasPlaying {
		other.Send("INFO", "Opponent left")
		other.Send("WIN", "You")
		other.SetState(ttt.ClientWaiting)
	}
	r.Replay = [2]bool{}

	if r.Live() == 0 && !r.Slots[0].Preserved() && !r.Slots[1].Preserved() {
		r.State = ttt.RoomEmpty
		reg.remove(r)
		reg.log.Printf("Room %d (%q) removed", r.Id, r.Name)
	} else {
		r.State = ttt.RoomWaiting
	}
}

// List answers a LIST request with a single ROOMS line.
func (reg *Registry) List(c ttt.Player) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var parts []interface{}
	count := 0
	for _, r := range reg.rooms {
		if r.State == ttt.RoomEmpty {
			continue
		}
		count++
		parts = append(parts, r.Id, r.Name, r.State.String(),
			fmt.Sprintf("%d/2", r.Live()))
	}
	c.Send("ROOMS", append([]interface{}{count}, parts...)...)
}

// Info is a read-only view of a room, for the web interface.
type Info struct {
	Id       int
	Name     string
	State    string
	Occupied int
}

// Snapshot copies the current room list.
func (reg *Registry) Snapshot() []Info {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	infos := make([]Info, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		if r.State == ttt.RoomEmpty {
			continue
		}
		infos = append(infos, Info{
			Id:       r.Id,
			Name:     r.Name,
			State:    r.State.String(),
			Occupied: r.Live(),
		})
	}
	return infos
}
