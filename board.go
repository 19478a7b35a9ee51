// Tic-Tac-Toe Board Implementation
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
	"errors"
	"strings"
)

// Size of the board edge
const Size = 3

const blank = ' '

// Board is the 3x3 grid, indexed board[y][x], cells are 'X', 'O' or
// a blank.
type Board [Size][Size]byte

var (
	ErrFinished    = errors.New("game finished")
	ErrNotYourTurn = errors.New("not your turn")
	ErrOutOfRange  = errors.New("position out of range")
	ErrOccupied    = errors.New("cell occupied")
)

func (b *Board) Clear() {
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			b[y][x] = blank
		}
	}
}

func (b *Board) Cell(x, y int) byte { return b[y][x] }

// Count returns the number of non-blank cells, i.e. the number of
// moves made this round.
func (b *Board) Count() (n int) {
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			if b[y][x] != blank {
				n++
			}
		}
	}
	return n
}

// Check evaluates the board: WON if any row, column or diagonal holds
// three equal marks, DRAW if the board is full, RUNNING otherwise.
func (b *Board) Check() Outcome {
	for i := 0; i < Size; i++ {
		if b[i][0] != blank && b[i][0] == b[i][1] && b[i][1] == b[i][2] {
			return WON
		}
		if b[0][i] != blank && b[0][i] == b[1][i] && b[1][i] == b[2][i] {
			return WON
		}
	}
	if b[0][0] != blank && b[0][0] == b[1][1] && b[1][1] == b[2][2] {
		return WON
	}
	if b[0][2] != blank && b[0][2] == b[1][1] && b[1][1] == b[2][0] {
		return WON
	}
	if b.Count() == Size*Size {
		return DRAW
	}
	return RUNNING
}

// String renders the board row by row, for logs and debugging.
func (b *Board) String() string {
	var sb strings.Builder
	for y := 0; y < Size; y++ {
		if y > 0 {
			sb.WriteByte('/')
		}
		sb.Write(b[y][:])
	}
	return sb.String()
}

// Game is the per-room turn machine.  TURN is nil when no one is on
// move (fresh room, or the player on move disconnected).
type Game struct {
	Board Board
	Turn  Player
	State Outcome
}

// Reset blanks the board and hands the first move to FIRST.
func (g *Game) Reset(first Player) {
	g.Board.Clear()
	g.Turn = first
	g.State = RUNNING
}

// Move places SYM for WHO at (X, Y).  The caller owns turn
// alternation; after a terminal result the turn is left untouched and
// the board is frozen until the next Reset.
func (g *Game) Move(who Player, sym byte, x, y int) error {
	if g.State != RUNNING {
		return ErrFinished
	}
	if who != g.Turn {
		return ErrNotYourTurn
	}
	if x < 0 || x >= Size || y < 0 || y >= Size {
		return ErrOutOfRange
	}
	if g.Board[y][x] != blank {
		return ErrOccupied
	}

	g.Board[y][x] = sym
	g.State = g.Board.Check()
	return nil
}
