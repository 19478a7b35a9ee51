// Configuration Specification
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
	"io"
	"log"
	"time"

	"go-ttt/room"
)

// Public configuration
type Conf struct {
	Log   *log.Logger
	Debug *log.Logger

	// Protocol configuration
	TCPPort         uint16        // Port for accepting connections
	BindAddress     string        // Address the listener binds to
	MaxClients      int           // Cap on live connections
	MaxRooms        int           // Cap on active rooms
	DisconnectGrace time.Duration // Reconnect window for vacated slots

	// Website configuration
	WebInterface bool   // Has the web interface been enabled?
	WebPort      uint16 // Port that the web server listens on

	// Database configuration
	Database string // File to store match history, empty disables it
	DB       Recorder

	// Shared state
	Rooms *room.Registry
	CM    ClientManager

	// Internal state
	man []Manager // List of system managers
	run bool      // Running flag
}

// Configuration object used by default
var defaultConfig = Conf{
	Log:   log.Default(),
	Debug: log.New(io.Discard, "", 0),

	// Protocol configuration
	TCPPort:         10000,
	BindAddress:     "0.0.0.0",
	MaxClients:      128,
	MaxRooms:        16,
	DisconnectGrace: 15 * time.Second,

	// Website configuration
	WebInterface: true,
	WebPort:      8080,
}
