// Configuration Management
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

package conf

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	ttt "go-ttt"
)

type Manager interface {
	fmt.Stringer
	Start()
	Shutdown()
}

// A ClientManager owns the client table and can adopt connections
// from additional transports (the websocket endpoint).
type ClientManager interface {
	Manager

	Attach(io.ReadWriteCloser)
	Live() int
}

// A Recorder persists finished matches and serves them back to the
// web interface.
type Recorder interface {
	Manager
	ttt.Recorder

	RecentMatches(context.Context, int) ([]*ttt.Match, error)
}

func (c *Conf) Register(m Manager) {
	if c.run {
		panic(fmt.Sprintf("Late register: %#v", m))
	}

	switch s := m.(type) {
	case Recorder:
		c.DB = s
	case ClientManager:
		c.CM = s
	}

	c.man = append(c.man, m)
}

func (c *Conf) Start() {
	// Start the service
	for _, m := range c.man {
		c.Debug.Printf("Starting %s", m)
		go m.Start()
	}
	c.run = true

	// Catch an interrupt request...
	intr := make(chan os.Signal, 1)
	signal.Notify(intr, os.Interrupt)
	<-intr
	c.Debug.Println("Caught interrupt")

	// ...and request all managers to shut down.
	c.Debug.Println("Waiting for managers to shutdown...")
	for i := len(c.man) - 1; i >= 0; i-- {
		m := c.man[i]
		c.Debug.Printf("Shutting %s down", m)
		m.Shutdown()
	}
	c.Log.Println("Shutting down")
}
