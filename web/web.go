// Web interface manager
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

package web

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ttt "go-ttt"
	"go-ttt/conf"
	"go-ttt/room"
)

const statusPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Tic-Tac-Toe Server</title></head>
<body>
<h1>Tic-Tac-Toe Server</h1>
<p>{{ .Clients }} client(s) connected, {{ len .Rooms }} room(s) active.</p>

<h2>Rooms</h2>
{{ if .Rooms }}
<table>
<tr><th>Id</th><th>Name</th><th>State</th><th>Players</th></tr>
{{ range .Rooms }}
<tr><td>{{ .Id }}</td><td>{{ .Name }}</td><td>{{ .State }}</td><td>{{ .Occupied }}/2</td></tr>
{{ end }}
</table>
{{ else }}
<p>No active rooms.</p>
{{ end }}

{{ if .Matches }}
<h2>Recent matches</h2>
<table>
<tr><th>Room</th><th>Players</th><th>Result</th><th>Moves</th><th>Ended</th></tr>
{{ range .Matches }}
<tr><td>{{ .Room }}</td><td>{{ .P1 }} vs {{ .P2 }}</td><td>{{ result . }}</td><td>{{ .Moves }}</td><td>{{ timefmt .Ended }}</td></tr>
{{ end }}
</table>
{{ end }}
</body>
</html>
`

var funcs = template.FuncMap{
	"timefmt": func(t time.Time) string {
		return t.Format(time.Stamp)
	},
	"result": func(m *ttt.Match) string {
		if m.Outcome == ttt.DRAW {
			return "Draw"
		}
		return m.Winner + " won"
	},
}

type web struct {
	conf *conf.Conf
	mux  *http.ServeMux
	tmpl *template.Template
}

func (*web) String() string { return "Web Server" }

func (s *web) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	var matches []*ttt.Match
	if s.conf.DB != nil {
		var err error
		matches, err = s.conf.DB.RecentMatches(r.Context(), 20)
		if err != nil {
			s.conf.Log.Printf("Failed to query matches: %s", err)
		}
	}

	data := struct {
		Clients int
		Rooms   []room.Info
		Matches []*ttt.Match
	}{
		Clients: s.conf.CM.Live(),
		Rooms:   s.conf.Rooms.Snapshot(),
		Matches: matches,
	}
	if err := s.tmpl.Execute(w, data); err != nil {
		s.conf.Debug.Printf("Failed to render status page: %s", err)
	}
}

func (s *web) metrics() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "ttt_clients_connected",
		Help: "Number of connected clients.",
	}, func() float64 {
		if s.conf.CM == nil {
			return 0
		}
		return float64(s.conf.CM.Live())
	}))
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "ttt_rooms_active",
		Help: "Number of active rooms.",
	}, func() float64 {
		return float64(s.conf.Rooms.Count())
	}))
	reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "ttt_matches_total",
		Help: "Number of finished rounds since startup.",
	}, func() float64 {
		return float64(s.conf.Rooms.MatchCount())
	}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (s *web) Start() {
	s.tmpl = template.Must(template.New("status").Funcs(funcs).Parse(statusPage))

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/", s.index)
	s.mux.Handle("/metrics", s.metrics())
	s.mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /")
	})
	if s.conf.CM != nil {
		log.Print("Accepting websocket connections on /socket")
		s.mux.HandleFunc("/socket", s.upgrader())
	}

	addr := fmt.Sprintf(":%d", s.conf.WebPort)
	log.Printf("Listening via HTTP on %s", addr)
	if err := http.ListenAndServe(addr, s.mux); err != nil {
		log.Print(err)
	}
}

// The web server can shut down immediately
func (*web) Shutdown() {}

func Prepare(conf *conf.Conf) {
	if !conf.WebInterface {
		return
	}

	conf.Register(&web{conf: conf})
}
