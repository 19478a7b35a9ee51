package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "server.config")
	if err := os.WriteFile(name, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return name
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, uint16(10000), c.TCPPort)
	assert.Equal(t, "0.0.0.0", c.BindAddress)
	assert.Equal(t, 128, c.MaxClients)
	assert.Equal(t, 16, c.MaxRooms)
	assert.Equal(t, 15*time.Second, c.DisconnectGrace)
	assert.True(t, c.WebInterface)
	assert.Equal(t, uint16(8080), c.WebPort)
	assert.Empty(t, c.Database)
	require.NotNil(t, c.Rooms)
}

func TestOpen(t *testing.T) {
	name := writeConfig(t, `PORT=2345
MAX_ROOMS=4
MAX_CLIENTS=32
BIND_ADDRESS=127.0.0.1
DISCONNECT_GRACE=30
WEB_ENABLED=false
DATABASE=matches.db
`)

	c, err := Open(name)
	require.NoError(t, err)
	assert.Equal(t, uint16(2345), c.TCPPort)
	assert.Equal(t, 4, c.MaxRooms)
	assert.Equal(t, 32, c.MaxClients)
	assert.Equal(t, "127.0.0.1", c.BindAddress)
	assert.Equal(t, 30*time.Second, c.DisconnectGrace)
	assert.False(t, c.WebInterface)
	assert.Equal(t, "matches.db", c.Database)
	assert.Equal(t, 30*time.Second, c.Rooms.Grace())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nonexistent"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestOpenIgnoresUnknownKeys(t *testing.T) {
	name := writeConfig(t, `PORT=2345
FROBNICATION_LEVEL=11
`)

	c, err := Open(name)
	require.NoError(t, err)
	assert.Equal(t, uint16(2345), c.TCPPort)
}

func TestOpenKeepsDefaultsOnBadValues(t *testing.T) {
	name := writeConfig(t, `PORT=not-a-number
MAX_ROOMS=-3
BIND_ADDRESS=nonsense
DISCONNECT_GRACE=soon
`)

	c, err := Open(name)
	require.NoError(t, err)
	assert.Equal(t, uint16(10000), c.TCPPort)
	assert.Equal(t, 16, c.MaxRooms)
	assert.Equal(t, "0.0.0.0", c.BindAddress)
	assert.Equal(t, 15*time.Second, c.DisconnectGrace)
}

func TestPortRange(t *testing.T) {
	for _, bad := range []string{"0", "-1", "65536", "70000"} {
		c, err := Open(writeConfig(t, "PORT="+bad+"\n"))
		require.NoError(t, err)
		assert.Equal(t, uint16(10000), c.TCPPort, "PORT=%s", bad)
	}
}
