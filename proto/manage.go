// TCP Interface
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
	"errors"
	"fmt"
	"net"

	"go-ttt/conf"
)

type Listener struct {
	conf  *conf.Conf
	table *Table
	ln    net.Listener
}

func (l *Listener) String() string {
	return fmt.Sprintf("TCP Handler (:%d)", l.conf.TCPPort)
}

func (l *Listener) Start() {
	var err error
	addr := fmt.Sprintf("%s:%d", l.conf.BindAddress, l.conf.TCPPort)
	l.ln, err = net.Listen("tcp", addr)
	if err != nil {
		l.conf.Log.Fatalf("Failed to listen on %s: %s", addr, err)
	}
	l.conf.Log.Printf("Server listening on %s", addr)

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.conf.Debug.Printf("Accept failed: %s", err)
			continue
		}
		l.table.Attach(conn)
	}
}

func (l *Listener) Shutdown() {
	if l.ln != nil {
		l.ln.Close()
	}
}

// Prepare installs the network stack: the client table, the TCP
// listener and the heartbeat.
func Prepare(c *conf.Conf) {
	table := MakeTable(c)
	c.Register(table)
	c.Register(&Listener{conf: c, table: table})
	c.Register(&heart{conf: c, table: table, shut: make(chan struct{})})
}
