package room

import (
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ttt "go-ttt"
)

// fake is a scripted client that records everything sent to it as
// "TAG|arg|..." strings.
type fake struct {
	name    string
	session string
	state   ttt.ClientState
	room    *ttt.Room
	sent    []string
}

func (f *fake) Send(tag string, args ...interface{}) {
	parts := []string{tag}
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	f.sent = append(f.sent, strings.Join(parts, "|"))
}

func (f *fake) Name() string               { return f.name }
func (f *fake) Session() string            { return f.session }
func (f *fake) State() ttt.ClientState     { return f.state }
func (f *fake) SetState(s ttt.ClientState) { f.state = s }
func (f *fake) Room() *ttt.Room            { return f.room }
func (f *fake) SetRoom(r *ttt.Room)        { f.room = r }

// drain returns and clears the recorded messages.
func (f *fake) drain() []string {
	s := f.sent
	f.sent = nil
	return s
}

func testRegistry() *Registry {
	return MakeRegistry(16, 0, log.New(io.Discard, "", 0))
}

// pair creates a room with A seated as p1 and B joined as p2, with
// the setup traffic drained.
func pair(t *testing.T, reg *Registry) (*fake, *fake, *ttt.Room) {
	t.Helper()
	a := &fake{name: "alice", session: "aaaaaaaaaaaaaaaa"}
	b := &fake{name: "bob", session: "bbbbbbbbbbbbbbbb"}
	reg.Create("lounge", a)
	reg.Join(a.room.Id, b)
	r := a.room
	require.NotNil(t, r)
	require.Same(t, r, b.room)
	a.drain()
	b.drain()
	return a, b, r
}

func TestCreate(t *testing.T) {
	reg := testRegistry()
	a := &fake{name: "alice"}

	reg.Create("lounge", a)
	require.NotNil(t, a.room)
	assert.Equal(t, []string{"CREATED|0|lounge"}, a.drain())
	assert.Equal(t, ttt.ClientWaiting, a.state)
	assert.Equal(t, ttt.RoomWaiting, a.room.State)
	assert.Equal(t, 1, reg.Count())
}

func TestCreateLobbyFull(t *testing.T) {
	reg := MakeRegistry(1, 0, log.New(io.Discard, "", 0))
	a := &fake{name: "alice"}
	b := &fake{name: "bob"}

	reg.Create("one", a)
	reg.Create("two", b)
	assert.Nil(t, b.room)
	assert.Equal(t, []string{"ERROR|Lobby full"}, b.drain())
}

func TestJoinStartsRound(t *testing.T) {
	reg := testRegistry()
	a := &fake{name: "alice"}
	b := &fake{name: "bob"}

	reg.Create("lounge", a)
	a.drain()
	reg.Join(a.room.Id, b)

	assert.Equal(t, []string{
		"CLEAR",
		"START|Opponent:bob",
		"SYMBOL|X",
		"TURN|Your move",
	}, a.drain())
	assert.Equal(t, []string{
		"JOINEDROOM|0|lounge",
		"CLEAR",
		"START|Opponent:alice",
		"SYMBOL|O",
	}, b.drain())

	assert.Equal(t, ttt.RoomPlaying, a.room.State)
	assert.Equal(t, ttt.ClientPlaying, a.state)
	assert.Equal(t, ttt.ClientPlaying, b.state)
}

func TestJoinErrors(t *testing.T) {
	reg := testRegistry()
	a := &fake{name: "alice"}
	b := &fake{name: "bob"}
	c := &fake{name: "carol"}

	reg.Join(7, b)
	assert.Equal(t, []string{"ERROR|No such room"}, b.drain())

	reg.Create("lounge", a)
	reg.Join(a.room.Id, a)
	assert.Contains(t, a.drain(), "ERROR|Cannot join your own room")

	reg.Join(a.room.Id, b)
	b.drain()
	reg.Join(a.room.Id, c)
	assert.Equal(t, []string{"ERROR|Room full"}, c.drain())
}

func TestList(t *testing.T) {
	reg := testRegistry()
	c := &fake{name: "carol"}

	reg.List(c)
	assert.Equal(t, []string{"ROOMS|0"}, c.drain())

	a := &fake{name: "alice"}
	reg.Create("lounge", a)
	reg.List(c)
	assert.Equal(t, []string{"ROOMS|1|0|lounge|WAITING|1/2"}, c.drain())

	b := &fake{name: "bob"}
	reg.Join(a.room.Id, b)
	reg.List(c)
	assert.Equal(t, []string{"ROOMS|1|0|lounge|PLAYING|2/2"}, c.drain())
}

func TestLeaveMidGame(t *testing.T) {
	reg := testRegistry()
	a, b, r := pair(t, reg)

	reg.Leave(b)
	assert.Equal(t, []string{"EXITED"}, b.drain())
	assert.Nil(t, b.room)
	assert.Equal(t, ttt.ClientLobby, b.state)

	assert.Equal(t, []string{"INFO|Opponent left", "WIN|You"}, a.drain())
	assert.Equal(t, ttt.ClientWaiting, a.state)
	assert.Equal(t, ttt.RoomWaiting, r.State)
	assert.Equal(t, 1, reg.Count())
}

func TestLeaveLastRemovesRoom(t *testing.T) {
	reg := testRegistry()
	a := &fake{name: "alice"}

	reg.Create("lounge", a)
	reg.Leave(a)
	assert.Equal(t, 0, reg.Count())
	assert.Nil(t, a.room)
}

func TestLeaveOutsideRoom(t *testing.T) {
	reg := testRegistry()
	a := &fake{name: "alice"}

	reg.Leave(a)
	assert.Empty(t, a.drain())
}

func TestSnapshot(t *testing.T) {
	reg := testRegistry()
	a := &fake{name: "alice"}
	reg.Create("lounge", a)

	infos := reg.Snapshot()
	require.Len(t, infos, 1)
	assert.Equal(t, Info{Id: 0, Name: "lounge", State: "WAITING", Occupied: 1}, infos[0])
}
