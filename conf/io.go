// Configuration loading
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
	"net"
	"os"
	"strconv"
	"time"

	ttt "go-ttt"
	"go-ttt/room"

	"github.com/joho/godotenv"
)

// The configuration file is a flat KEY=VALUE list, one pair per line.
// Unknown keys are ignored and malformed values keep their defaults,
// so a partial file is always usable.

func intKey(env map[string]string, key string, def int) int {
	v, ok := env[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolKey(env map[string]string, key string, def bool) bool {
	v, ok := env[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func load(env map[string]string) *Conf {
	c := defaultConfig

	if p := intKey(env, "PORT", int(c.TCPPort)); p > 0 && p <= 0xffff {
		c.TCPPort = uint16(p)
	}
	if n := intKey(env, "MAX_ROOMS", c.MaxRooms); n > 0 {
		c.MaxRooms = n
	}
	if n := intKey(env, "MAX_CLIENTS", c.MaxClients); n > 0 {
		c.MaxClients = n
	}
	if addr, ok := env["BIND_ADDRESS"]; ok {
		if ip := net.ParseIP(addr); ip != nil && ip.To4() != nil {
			c.BindAddress = addr
		}
	}
	if s := intKey(env, "DISCONNECT_GRACE", 0); s > 0 {
		c.DisconnectGrace = time.Duration(s) * time.Second
	}

	c.WebInterface = boolKey(env, "WEB_ENABLED", c.WebInterface)
	if p := intKey(env, "WEB_PORT", int(c.WebPort)); p > 0 && p <= 0xffff {
		c.WebPort = uint16(p)
	}
	c.Database = env["DATABASE"]

	c.Rooms = room.MakeRegistry(c.MaxRooms, c.DisconnectGrace, c.Log)
	return &c
}

// Open reads a configuration file and returns it.
func Open(name string) (*Conf, error) {
	env, err := godotenv.Read(name)
	if err != nil {
		return nil, err
	}
	return load(env), nil
}

// Default returns the default configuration.
func Default() *Conf {
	return load(nil)
}

// EnableDebug directs the debug loggers to standard error.
func (c *Conf) EnableDebug() {
	c.Debug.SetOutput(os.Stderr)
	c.Debug.SetPrefix("[debug] ")
	ttt.Debug.SetOutput(os.Stderr)
	c.Debug.Println("Debug logging has been enabled")
}
