// Disconnect, reconnect and grace-period pruning
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
	"time"

	ttt "go-ttt"
)

// Disconnect handles an unannounced loss of C (read failure, missed
// pongs, or protocol abuse).  The slot identity is preserved so the
// same player can reclaim it within the grace window, but only while
// an opponent is still around to wait for it.  Safe to call for
// clients that hold no room.
func (reg *Registry) Disconnect(c ttt.Player) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := c.Room()
	if r == nil {
		return
	}
	i := r.SlotOf(c)
	if i == -1 {
		c.SetRoom(nil)
		return
	}

	reg.log.Printf("Room %d: %s disconnected", r.Id, c.Name())

	s := &r.Slots[i]
	other := r.Slots[1-i].Client
	s.Name = c.Name()
	s.Session = c.Session()
	s.Client = nil
	s.Disconnected = other != nil
	s.Gone = time.Now()

	if r.Game.Turn == c {
		r.Game.Turn = nil
	}
	c.SetRoom(nil)
	c.SetState(ttt.ClientLobby)

	if other != nil {
		other.Send("INFO", fmt.Sprintf(
			"Opponent disconnected, waiting %d s to reconnect",
			int(reg.grace/time.Second)))
		other.SetState(ttt.ClientWaiting)
		r.State = ttt.RoomWaiting
	} else {
		r.State = ttt.RoomEmpty
		reg.remove(r)
		reg.log.Printf("Room %d (%q) removed", r.Id, r.Name)
	}
}

// Prune forfeits rooms whose preserved slot has been empty past the
// grace period.  Invoked by the heartbeat after each sweep.
func (reg *Registry) Prune(now time.Time) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	expired := make([]*ttt.Room, 0)
	for _, r := range reg.rooms {
		for i := range r.Slots {
			s := &r.Slots[i]
			if !s.Preserved() || now.Sub(s.Gone) < reg.grace {
				continue
			}
			reg.log.Printf("Room %d: %s did not return in time",
				r.Id, s.Name)
			if other := r.Slots[1-i].Client; other != nil {
				other.Send("INFO", "Opponent did not return in time")
				other.Send("WIN", "You")
				other.SetRoom(nil)
				other.SetState(ttt.ClientLobby)
			}
			s.Clear()
			r.State = ttt.RoomEmpty
			expired = append(expired, r)
			break
		}
	}
	for _, r := range expired {
		reg.remove(r)
	}
}

// Reconnect matches (NAME, SESSION) against any preserved slot and,
// on the first hit, seats C there and replays the in-flight game.
// Returns false if no slot was claimed.
func (reg *Registry) Reconnect(name, session string, c ttt.Player) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	nameMatch := false
	for _, r := range reg.rooms {
		for i := range r.Slots {
			s := &r.Slots[i]
			if !s.Preserved() || s.Name != name {
				continue
			}
			if s.Session != session {
				nameMatch = true
				continue
			}

			s.Client = c
			s.Disconnected = false
			c.SetRoom(r)

			other := r.Slots[1-i].Client
			if other != nil {
				c.SetState(ttt.ClientPlaying)
				other.SetState(ttt.ClientPlaying)
				r.State = ttt.RoomPlaying
			} else {
				c.SetState(ttt.ClientWaiting)
				r.State = ttt.RoomWaiting
			}

			// The turn was cleared when its holder vanished;
			// give it back to the rejoiner.
			if r.Game.State == ttt.RUNNING && r.Game.Turn == nil {
				r.Game.Turn = c
			}

			reg.log.Printf("Room %d: %s reconnected", r.Id, name)

			c.Send("RECONNECTED")
			opponent := "Unknown"
			if other != nil {
				opponent = other.Name()
			}
			c.Send("START", "Opponent:"+opponent)
			c.Send("SYMBOL", string(ttt.Symbol(i)))

			for y := 0; y < ttt.Size; y++ {
				for x := 0; x < ttt.Size; x++ {
					mark := r.Game.Board.Cell(x, y)
					if mark == ' ' {
						continue
					}
					mover := r.Slots[0].Name
					if mark == 'O' {
						mover = r.Slots[1].Name
					}
					c.Send("MOVE", mover, x, y)
				}
			}
			if r.Game.Turn == c {
				c.Send("TURN")
			}
			if other != nil {
				other.Send("INFO", "Opponent reconnected")
			}
			return true
		}
	}

	if nameMatch {
		c.Send("ERROR", "Invalid session")
	} else {
		c.Send("ERROR", "No reconnect slot")
	}
	return false
}
