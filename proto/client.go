// Client Communication Management
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

package proto

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	ttt "go-ttt"
	"go-ttt/conf"
)

// Forced disconnect after this many invalid inputs
const maxInvalid = 3

// Table is the process-wide client table.  The mutex guards the
// slots; per-client liveness is atomic so the heartbeat and the
// worker never contend on it.
type Table struct {
	conf    *conf.Conf
	mu      sync.Mutex
	clients []*Client
}

func MakeTable(c *conf.Conf) *Table {
	return &Table{conf: c, clients: make([]*Client, c.MaxClients)}
}

func (*Table) String() string { return "Client table" }

// Workers are spawned per connection by Attach
func (t *Table) Start() {}

func (t *Table) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, cli := range t.clients {
		if cli != nil {
			cli.rwc.Close()
		}
	}
}

// Live counts the connected clients.
func (t *Table) Live() (n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, cli := range t.clients {
		if cli != nil {
			n++
		}
	}
	return n
}

// Attach wraps a connection into a client and starts its worker.
// When the table is full the connection is rejected right away.
func (t *Table) Attach(rwc io.ReadWriteCloser) {
	t.mu.Lock()
	slot := -1
	for i, cli := range t.clients {
		if cli == nil {
			slot = i
			break
		}
	}
	if slot == -1 {
		t.mu.Unlock()
		rwc.Write(format("ERROR", "Server full"))
		rwc.Close()
		return
	}

	cli := &Client{
		table:   t,
		rwc:     rwc,
		state:   ttt.ClientLobby,
		session: token(),
		alive:   true,
	}
	cli.connected.Store(true)
	t.clients[slot] = cli
	t.mu.Unlock()

	go cli.handle()
}

func (t *Table) forget(cli *Client) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, c := range t.clients {
		if c == cli {
			t.clients[i] = nil
			return
		}
	}
}

// token generates the 16-hex-character session token handed out at
// creation.  Tokens are opaque to clients and only ever compared
// against preserved slots.
func token() string {
	return fmt.Sprintf("%08x%08x", rand.Uint32(), rand.Uint32())
}

// Client wraps a network connection into a player
type Client struct {
	table *Table

	iolock sync.Mutex // IO lock
	rwc    io.ReadWriteCloser

	// The identity fields are written by the worker and by the room
	// registry (heartbeat disconnects, opponent state changes), so
	// every access goes through mu.
	mu      sync.Mutex
	name    string
	session string
	state   ttt.ClientState
	room    *ttt.Room

	alive     bool // worker loop flag, worker goroutine only
	connected atomic.Bool
	missed    atomic.Int32 // pings without a pong
	invalid   int          // strikes, worker goroutine only
}

// String returns a string representation for a client for internal
// use.
func (cli *Client) String() string {
	return fmt.Sprintf("%p (%q)", cli.rwc, cli.Name())
}

// Send emits a single line to the client.  A failed write marks the
// connection dead but is not raised; the liveness layer removes it.
func (cli *Client) Send(tag string, args ...interface{}) {
	buf := format(tag, args...)

	cli.iolock.Lock()
	defer cli.iolock.Unlock()
	if !cli.connected.Load() {
		return
	}
	ttt.Debug.Printf("%s > %s", cli, strings.TrimRight(string(buf), "\n"))
	if _, err := cli.rwc.Write(buf); err != nil {
		ttt.Debug.Printf("%s write failed: %s", cli, err)
		cli.connected.Store(false)
	}
}

func (cli *Client) Name() string {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	return cli.name
}

func (cli *Client) Session() string {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	return cli.session
}

func (cli *Client) State() ttt.ClientState {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	return cli.state
}

func (cli *Client) SetState(s ttt.ClientState) {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	cli.state = s
}

func (cli *Client) Room() *ttt.Room {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	return cli.room
}

func (cli *Client) SetRoom(r *ttt.Room) {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	cli.room = r
}

// handle runs the read loop: one line per iteration, dispatched by
// tag.  The loop ends cooperatively (QUIT, strike quota) or on a read
// failure, after which the record is destroyed.
func (cli *Client) handle() {
	defer cli.rwc.Close()
	defer cli.table.forget(cli)

	cli.Send("HELLO")

	// The buffer bounds what a newline-less peer can make us hold; a
	// line that overflows it is flushed and charged as one strike.
	reader := bufio.NewReaderSize(cli.rwc, MaxLine+4)
	for cli.alive {
		line, err := reader.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			ttt.Debug.Printf("%s < oversized line", cli)
			cli.strike()
			for err == bufio.ErrBufferFull {
				_, err = reader.ReadSlice('\n')
			}
			if err == nil {
				continue
			}
		}
		if err != nil {
			cli.connected.Store(false)
			cli.table.conf.Rooms.Disconnect(cli)
			break
		}
		msg := strings.TrimRight(string(line), "\r\n")
		if len(msg) > MaxLine {
			ttt.Debug.Printf("%s < oversized line (%d bytes)", cli, len(msg))
			cli.strike()
			continue
		}
		cli.interpret(msg)
	}
	ttt.Debug.Printf("Closed connection to %s", cli)
}

// strike charges one invalid input; three terminate the session
// through the disconnect handler.
func (cli *Client) strike() {
	cli.invalid++
	if cli.invalid < maxInvalid {
		return
	}

	cli.Send("ERROR", "Too many invalid messages")
	cli.alive = false
	cli.connected.Store(false)
	if hc, ok := cli.rwc.(interface{ CloseWrite() error }); ok {
		hc.CloseWrite()
	}
	cli.table.conf.Rooms.Disconnect(cli)
}

func (cli *Client) interpret(line string) {
	ttt.Debug.Printf("%s < %s", cli, strings.TrimRight(line, "\r\n"))

	msg, err := parse(line)
	if err != nil {
		cli.Send("ERROR", "UNKNOWN_CMD")
		cli.strike()
		return
	}

	rooms := cli.table.conf.Rooms
	switch msg.tag {
	case "JOIN":
		name := ttt.CropName(msg.arg(0))
		cli.mu.Lock()
		cli.name = name
		cli.state = ttt.ClientLobby
		session := cli.session
		cli.mu.Unlock()
		cli.Send("JOINED", name)
		cli.Send("SESSION", session)
	case "RECONNECT":
		name, session := msg.arg(0), msg.arg(1)
		if name == "" || session == "" {
			cli.Send("ERROR", "Invalid reconnect format")
			cli.strike()
			return
		}
		// The issued token is only replaced once the claim succeeds
		name = ttt.CropName(name)
		if rooms.Reconnect(name, session, cli) {
			cli.mu.Lock()
			cli.name = name
			cli.session = session
			cli.mu.Unlock()
		}
	case "CREATE":
		rooms.Create(msg.arg(0), cli)
	case "JOINROOM":
		id, err := strconv.Atoi(msg.arg(0))
		if err != nil {
			cli.Send("ERROR", "No such room")
			return
		}
		rooms.Join(id, cli)
	case "EXIT":
		rooms.Leave(cli)
	case "LIST":
		rooms.List(cli)
	case "MOVE":
		if cli.Room() == nil {
			cli.Send("ERROR", "Not in game room")
			return
		}
		x, y, ok := parseMove(msg)
		if !ok {
			cli.Send("ERROR", "Invalid MOVE format")
			cli.strike()
			return
		}
		rooms.Move(cli, x, y)
	case "REPLAY":
		rooms.ReplayVote(cli, strings.EqualFold(msg.arg(0), "YES"))
	case "QUIT":
		rooms.Leave(cli)
		cli.Send("BYE")
		cli.alive = false
	case "PING":
		cli.Send("PONG")
	case "PONG":
		cli.missed.Store(0)
	default:
		cli.Send("ERROR", "UNKNOWN_CMD")
		cli.strike()
	}
}

// parseMove extracts the two board coordinates of a MOVE.
func parseMove(m *message) (x, y int, ok bool) {
	if len(m.args) != 2 {
		return 0, 0, false
	}
	x, err := strconv.Atoi(m.args[0])
	if err != nil || x < 0 || x >= ttt.Size {
		return 0, 0, false
	}
	y, err = strconv.Atoi(m.args[1])
	if err != nil || y < 0 || y >= ttt.Size {
		return 0, 0, false
	}
	return x, y, true
}
