// Client worker tests
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
	"io"
	"net"
	"regexp"
	"strings"
	"testing"
	"time"

	"go-ttt/conf"
)

// attach connects one end of an in-memory pipe to the table and
// returns the peer side wrapped for line-wise reading.
func attach(t *testing.T, table *Table) (net.Conn, *bufio.Reader) {
	t.Helper()
	server, client := net.Pipe()
	table.Attach(server)
	t.Cleanup(func() { client.Close() })
	return client, bufio.NewReader(client)
}

// dial attaches to a fresh table of its own.
func dial(t *testing.T) (net.Conn, *bufio.Reader) {
	t.Helper()
	return attach(t, MakeTable(conf.Default()))
}

func expect(t *testing.T, r *bufio.Reader, want string) string {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("Expected %q, got read error: %s", want, err)
	}
	line = strings.TrimRight(line, "\n")
	if !strings.HasPrefix(line, want) {
		t.Fatalf("Expected %q, got %q", want, line)
	}
	return line
}

func send(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	if _, err := io.WriteString(conn, line+"\n"); err != nil {
		t.Fatalf("Failed to send %q: %s", line, err)
	}
}

// scanUntil reads lines until one starts with WANT, tolerating
// interleaved traffic (INFO, PING).
func scanUntil(t *testing.T, r *bufio.Reader, want string) {
	t.Helper()
	for i := 0; i < 16; i++ {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("Expected %q, got read error: %s", want, err)
		}
		if strings.HasPrefix(strings.TrimRight(line, "\n"), want) {
			return
		}
	}
	t.Fatalf("Never received %q", want)
}

var sessionPattern = regexp.MustCompile(`^##SESSION\|[0-9a-f]{16}$`)

func TestJoinQuit(t *testing.T) {
	conn, r := dial(t)

	expect(t, r, "##HELLO|")
	send(t, conn, "##JOIN|alice")
	expect(t, r, "##JOINED|alice")
	line := expect(t, r, "##SESSION|")
	if !sessionPattern.MatchString(line) {
		t.Errorf("Malformed session line %q", line)
	}

	send(t, conn, "##QUIT")
	expect(t, r, "##BYE|")

	if _, err := r.ReadString('\n'); err != io.EOF {
		t.Errorf("Expected EOF after BYE, got %v", err)
	}
}

func TestNameCropped(t *testing.T) {
	conn, r := dial(t)

	expect(t, r, "##HELLO|")
	long := strings.Repeat("x", 40)
	send(t, conn, "##JOIN|"+long)
	expect(t, r, "##JOINED|"+long[:31])
}

func TestPingPong(t *testing.T) {
	conn, r := dial(t)

	expect(t, r, "##HELLO|")
	send(t, conn, "##PING")
	expect(t, r, "##PONG|")
}

func TestStrikes(t *testing.T) {
	conn, r := dial(t)

	expect(t, r, "##HELLO|")
	for i := 0; i < 2; i++ {
		send(t, conn, "garbage")
		expect(t, r, "##ERROR|UNKNOWN_CMD")
	}
	send(t, conn, "garbage")
	expect(t, r, "##ERROR|UNKNOWN_CMD")
	expect(t, r, "##ERROR|Too many invalid messages")

	if _, err := r.ReadString('\n'); err != io.EOF {
		t.Errorf("Expected EOF after third strike, got %v", err)
	}
}

func TestUnknownCommandStrikes(t *testing.T) {
	conn, r := dial(t)

	expect(t, r, "##HELLO|")
	send(t, conn, "##FROBNICATE|now")
	expect(t, r, "##ERROR|UNKNOWN_CMD")

	// A valid command afterwards is still served.
	send(t, conn, "##LIST")
	expect(t, r, "##ROOMS|0")
}

func TestInvalidMoveFormat(t *testing.T) {
	conn, r := dial(t)

	expect(t, r, "##HELLO|")
	send(t, conn, "##JOIN|carol")
	expect(t, r, "##JOINED|carol")
	expect(t, r, "##SESSION|")
	send(t, conn, "##CREATE|solo")
	expect(t, r, "##CREATED|0|solo")

	send(t, conn, "##MOVE|one|two")
	expect(t, r, "##ERROR|Invalid MOVE format")

	send(t, conn, "##MOVE|3|1")
	expect(t, r, "##ERROR|Invalid MOVE format")
}

func TestMoveOutsideRoom(t *testing.T) {
	conn, r := dial(t)

	expect(t, r, "##HELLO|")
	send(t, conn, "##JOIN|dave")
	expect(t, r, "##JOINED|dave")
	expect(t, r, "##SESSION|")

	send(t, conn, "##MOVE|1|1")
	expect(t, r, "##ERROR|Not in game room")
}

func TestReconnectWithoutSlot(t *testing.T) {
	conn, r := dial(t)

	expect(t, r, "##HELLO|")
	send(t, conn, "##RECONNECT|erin|0123456789abcdef")
	expect(t, r, "##ERROR|No reconnect slot")
}

func TestReconnectMissingArguments(t *testing.T) {
	conn, r := dial(t)

	expect(t, r, "##HELLO|")
	send(t, conn, "##RECONNECT|erin")
	expect(t, r, "##ERROR|Invalid reconnect format")
}

func TestOversizedLine(t *testing.T) {
	conn, r := dial(t)

	expect(t, r, "##HELLO|")
	send(t, conn, "##JOIN|"+strings.Repeat("y", 600))
	// The line is dropped without a reply; the next command shows
	// the worker is still alive.
	send(t, conn, "##LIST")
	expect(t, r, "##ROOMS|0")
}

func TestLineLengthBoundary(t *testing.T) {
	conn, r := dial(t)

	expect(t, r, "##HELLO|")

	// A message of exactly 512 bytes is still served.
	send(t, conn, "##JOIN|"+strings.Repeat("n", 505))
	expect(t, r, "##JOINED|"+strings.Repeat("n", 31))
	expect(t, r, "##SESSION|")

	// One byte more is dropped.
	send(t, conn, "##JOIN|"+strings.Repeat("m", 506))
	send(t, conn, "##LIST")
	expect(t, r, "##ROOMS|0")
}

func TestJoinDuringOpponentDisconnect(t *testing.T) {
	table := MakeTable(conf.Default())
	a, ra := attach(t, table)
	b, rb := attach(t, table)

	expect(t, ra, "##HELLO|")
	expect(t, rb, "##HELLO|")
	send(t, a, "##JOIN|alice")
	expect(t, ra, "##JOINED|alice")
	expect(t, ra, "##SESSION|")
	send(t, b, "##JOIN|bob")
	expect(t, rb, "##JOINED|bob")
	expect(t, rb, "##SESSION|")

	send(t, a, "##CREATE|lounge")
	expect(t, ra, "##CREATED|0|lounge")
	send(t, b, "##JOINROOM|0")
	scanUntil(t, rb, "##SYMBOL|O")
	scanUntil(t, ra, "##TURN|")

	// Drop bob and immediately rename alice: the worker's identity
	// writes run concurrently with the registry's disconnect
	// handling of the same client record.
	b.Close()
	send(t, a, "##JOIN|alice")
	scanUntil(t, ra, "##SESSION|")
}
