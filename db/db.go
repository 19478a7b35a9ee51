// Match history persistence
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

package db

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"log"
	"path"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	ttt "go-ttt"
	"go-ttt/conf"
)

//go:embed *.sql
var sqlDir embed.FS

// The recorder never writes on the caller's goroutine.  SaveMatch is
// invoked by the room registry under its lock, so the record is handed
// off over a channel and written by the manager goroutine; when the
// channel is congested the record is dropped.
type db struct {
	conf    *conf.Conf
	sql     *sql.DB
	queries map[string]*sql.Stmt

	save chan *ttt.Match
	done chan struct{}
}

func (*db) String() string { return "Match recorder" }

func (db *db) Start() {
	defer close(db.done)
	for m := range db.save {
		_, err := db.queries["insert-match"].Exec(
			m.Room, m.P1, m.P2, m.Outcome.String(),
			m.Winner, m.Moves, m.Ended)
		if err != nil {
			db.conf.Log.Printf("Failed to record match: %s", err)
		}
	}
}

func (db *db) Shutdown() {
	close(db.save)
	<-db.done

	// https://www.sqlite.org/pragma.html#pragma_optimize
	if _, err := db.sql.Exec("PRAGMA optimize;"); err != nil {
		db.conf.Log.Print(err)
	}
	if err := db.sql.Close(); err != nil {
		db.conf.Log.Print(err)
	}
}

func (db *db) SaveMatch(_ context.Context, m *ttt.Match) {
	select {
	case db.save <- m:
	default:
		ttt.Debug.Printf("Recorder congested, dropping match in %q", m.Room)
	}
}

// RecentMatches returns up to N matches, newest first.
func (db *db) RecentMatches(ctx context.Context, n int) ([]*ttt.Match, error) {
	rows, err := db.queries["select-matches"].QueryContext(ctx, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*ttt.Match
	for rows.Next() {
		var (
			m       ttt.Match
			outcome string
		)
		err = rows.Scan(&m.Room, &m.P1, &m.P2, &outcome,
			&m.Winner, &m.Moves, &m.Ended)
		if err != nil {
			return nil, err
		}
		m.Outcome = outcomeOf(outcome)
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}

func outcomeOf(s string) ttt.Outcome {
	switch s {
	case ttt.WON.String():
		return ttt.WON
	case ttt.DRAW.String():
		return ttt.DRAW
	default:
		return ttt.RUNNING
	}
}

// Prepare opens the match database and installs the recorder.  A
// configuration without a DATABASE entry runs without history.
func Prepare(c *conf.Conf) {
	if c.Database == "" {
		c.Debug.Println("Match history is disabled")
		return
	}

	conn, err := sql.Open("sqlite3", c.Database)
	if err != nil {
		log.Fatal(err, ": ", c.Database)
	}
	conn.SetConnMaxLifetime(0)
	conn.SetMaxIdleConns(1)
	conn.SetMaxOpenConns(1)

	db := &db{
		conf:    c,
		sql:     conn,
		queries: make(map[string]*sql.Stmt),
		save:    make(chan *ttt.Match, 16),
		done:    make(chan struct{}),
	}

	for _, pragma := range []string{
		// https://www.sqlite.org/pragma.html#pragma_journal_mode
		"journal_mode = WAL",
		// https://www.sqlite.org/pragma.html#pragma_synchronous
		"synchronous = normal",
	} {
		if _, err = conn.Exec("PRAGMA " + pragma + ";"); err != nil {
			log.Fatal(err)
		}
	}

	entries, err := sqlDir.ReadDir(".")
	if err != nil {
		log.Fatal(err)
	}
	for _, entry := range entries {
		base := path.Base(entry.Name())
		data, err := fs.ReadFile(sqlDir, entry.Name())
		if err != nil {
			log.Fatal(err)
		}

		if strings.HasPrefix(base, "create-") {
			_, err = conn.Exec(string(data))
		} else {
			query := strings.TrimSuffix(base, ".sql")
			db.queries[query], err = conn.Prepare(string(data))
		}
		if err != nil {
			log.Fatal(entry.Name(), ": ", err)
		}
	}

	c.Register(db)
	c.Rooms.SetRecorder(db)
}
