// Entry point
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

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"go-ttt/conf"
	"go-ttt/db"
	"go-ttt/proto"
	"go-ttt/web"
)

// Default file name for the configuration file
const defconf = "server.config"

func main() {
	var (
		confFile = flag.String("conf", defconf, "Name of configuration file")
		debug    = flag.Bool("debug", false, "Enable debug logging")
	)

	flag.Parse()
	if flag.NArg() > 1 {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Too many arguments passed to %s.\nUsage:\n",
			os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load the configuration from disk (if available)
	config, err := conf.Open(*confFile)
	if err != nil {
		if !os.IsNotExist(err) || *confFile != defconf {
			log.Fatal(err)
		}
		config = conf.Default()
	}
	if *debug {
		config.EnableDebug()
	}

	// A port on the command line overrides the configuration
	if flag.NArg() == 1 {
		port, err := strconv.Atoi(flag.Arg(0))
		if err != nil || port <= 0 || port > 0xffff {
			log.Fatalf("Invalid port %q", flag.Arg(0))
		}
		config.TCPPort = uint16(port)
	}

	// Enable the match recorder
	db.Prepare(config)

	// Enable the web interface
	web.Prepare(config)

	// Allow TCP connections
	proto.Prepare(config)

	// Launch the server
	config.Start()
}
