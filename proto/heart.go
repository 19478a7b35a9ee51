// Connection liveness
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
	"time"

	"go-ttt/conf"
)

const (
	// Interval between liveness sweeps
	pingInterval = 5 * time.Second
	// Unanswered pings a client may accumulate
	maxMissedPongs = 3
)

// The heart pings every client on a fixed interval and reaps those
// that stop answering.  It also expires reconnect slots whose grace
// period has run out.
type heart struct {
	conf  *conf.Conf
	table *Table
	shut  chan struct{}
}

func (*heart) String() string { return "Heartbeat" }

func (h *heart) Start() {
	tick := time.NewTicker(pingInterval)
	defer tick.Stop()
	for {
		select {
		case <-h.shut:
			return
		case <-tick.C:
			h.beat()
		}
	}
}

func (h *heart) Shutdown() { close(h.shut) }

func (h *heart) beat() {
	var dead []*Client

	h.table.mu.Lock()
	for _, cli := range h.table.clients {
		if cli == nil || !cli.connected.Load() {
			continue
		}
		cli.Send("PING")
		if cli.missed.Add(1) > maxMissedPongs {
			dead = append(dead, cli)
		}
	}
	h.table.mu.Unlock()

	// Reap outside the table lock, since Disconnect takes the
	// registry lock and sends to other clients.
	for _, cli := range dead {
		h.conf.Log.Printf("Client %s timed out", cli)
		cli.connected.Store(false)
		h.conf.Rooms.Disconnect(cli)
		cli.rwc.Close()
	}

	h.conf.Rooms.Prune(time.Now())
}
