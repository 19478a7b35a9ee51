// Gameplay handling
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
	"context"
	"time"

	ttt "go-ttt"
)

// startRound resets the board for the slot picked by Starter and
// prompts it to move.  Symbols are announced by the caller.
func (reg *Registry) startRound(r *ttt.Room) {
	first := r.Slots[r.Starter].Client
	r.Game.Reset(first)
	r.State = ttt.RoomPlaying
	if first != nil {
		first.Send("TURN", "Your move")
	}
}

// Move applies a MOVE from C and drives the round to its next state.
// Engine rule violations are answered to the mover only; a placed
// move is broadcast to both slots before any result line.
func (reg *Registry) Move(c ttt.Player, x, y int) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := c.Room()
	if r == nil {
		c.Send("ERROR", "Not in game room")
		return
	}
	i := r.SlotOf(c)
	if i == -1 {
		c.Send("ERROR", "Not in game room")
		return
	}

	switch err := r.Game.Move(c, ttt.Symbol(i), x, y); err {
	case nil:
	case ttt.ErrFinished:
		c.Send("ERROR", "Game finished")
		return
	case ttt.ErrNotYourTurn:
		c.Send("ERROR", "Not your turn")
		return
	case ttt.ErrOutOfRange:
		c.Send("ERROR", "Invalid position")
		return
	case ttt.ErrOccupied:
		c.Send("ERROR", "Occupied")
		return
	default:
		c.Send("ERROR", "Occupied")
		return
	}

	reg.log.Printf("Move: room %q %s (%c) -> %d,%d",
		r.Name, c.Name(), ttt.Symbol(i), x, y)
	r.Broadcast("MOVE", c.Name(), x, y)

	other := r.Slots[1-i].Client
	switch r.Game.State {
	case ttt.WON:
		c.Send("WIN", "You")
		if other != nil {
			other.Send("LOSE", c.Name())
		}
		r.Replay = [2]bool{}
		reg.log.Printf("Game result room %q: %s wins vs %s",
			r.Name, r.Slots[i].Name, r.Slots[1-i].Name)
		reg.record(r, r.Slots[i].Name)
		reg.settle(r)
	case ttt.DRAW:
		r.Broadcast("DRAW")
		r.Replay = [2]bool{}
		reg.log.Printf("Game result room %q: draw", r.Name)
		reg.record(r, "")
		reg.settle(r)
	default:
		r.Game.Turn = other
		if other != nil {
			other.Send("TURN", "Your move")
		}
	}
}

// settle handles the tail of a terminal result: with one slot already
// empty there is no one to vote for a replay, the round is over for
// good and the room drops back to WAITING.
func (reg *Registry) settle(r *ttt.Room) {
	if r.Live() == 2 {
		return
	}
	for i := range r.Slots {
		if c := r.Slots[i].Client; c != nil {
			c.Send("INFO", "Game ended")
		}
	}
	r.State = ttt.RoomWaiting
}

// ReplayVote handles REPLAY|YES and REPLAY|NO.  Declining is a
// voluntary exit scoped to the replay point: the slot is cleared
// without reconnect eligibility and the opponent keeps the room.
func (reg *Registry) ReplayVote(c ttt.Player, yes bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := c.Room()
	if r == nil {
		c.Send("ERROR", "Not in room")
		return
	}
	i := r.SlotOf(c)
	if i == -1 {
		c.Send("ERROR", "Not in room")
		return
	}

	if !yes {
		c.Send("INFO", "You declined replay")
		other := r.Slots[1-i].Client
		if other != nil {
			other.Send("INFO", "Opponent declined replay")
			other.SetState(ttt.ClientWaiting)
		}

		r.Slots[i].Clear()
		c.SetRoom(nil)
		c.SetState(ttt.ClientLobby)
		c.Send("EXITED")
		r.Replay = [2]bool{}

		if r.Live() == 0 && !r.Slots[1-i].Preserved() {
			r.State = ttt.RoomEmpty
			reg.remove(r)
			reg.log.Printf("Room %d (%q) removed", r.Id, r.Name)
		} else {
			r.State = ttt.RoomWaiting
		}
		return
	}

	r.Replay[i] = true
	c.Send("INFO", "Replay confirmed")
	reg.tryRestart(r)
}

// tryRestart starts the next round once both seated players have
// voted for a replay.  The starting player flips and takes 'X'.
func (reg *Registry) tryRestart(r *ttt.Room) {
	if !r.Slots[0].Live() || !r.Slots[1].Live() {
		return
	}
	if !r.Replay[0] || !r.Replay[1] {
		return
	}

	r.Starter = 1 - r.Starter
	r.Replay = [2]bool{}
	for i := range r.Slots {
		r.Slots[i].Client.SetState(ttt.ClientPlaying)
	}

	r.Broadcast("RESTART")
	r.Slots[r.Starter].Client.Send("SYMBOL", "X")
	r.Slots[1-r.Starter].Client.Send("SYMBOL", "O")
	reg.startRound(r)
}

func (reg *Registry) record(r *ttt.Room, winner string) {
	reg.matches.Add(1)
	if reg.rec == nil {
		return
	}
	reg.rec.SaveMatch(context.Background(), &ttt.Match{
		Room:    r.Name,
		P1:      r.Slots[0].Name,
		P2:      r.Slots[1].Name,
		Outcome: r.Game.State,
		Winner:  winner,
		Moves:   r.Game.Board.Count(),
		Ended:   time.Now(),
	})
}
