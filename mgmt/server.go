/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package mgmt exposes a read-only HTTP status view of the forwarder:
// counters, sliding windows, buffered packets and timer state.
package mgmt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roll-mcast/trickled/core"
	"github.com/roll-mcast/trickled/defn"
	"github.com/roll-mcast/trickled/fw"
)

// Server serves the management API.
type Server struct {
	engine *fw.Engine
	server http.Server
}

// NewServer builds the status server from the global configuration.
func NewServer(engine *fw.Engine) *Server {
	s := &Server{engine: engine}
	s.server.Addr = net.JoinHostPort(core.C.Mgmt.Bind, strconv.FormatUint(uint64(core.C.Mgmt.Port), 10))
	s.server.Handler = s.router()
	return s
}

func (s *Server) String() string {
	return "mgmt (addr=" + s.server.Addr + ")"
}

// Run serves until Close.
func (s *Server) Run() {
	core.Log.Info(s, "Starting management endpoint")
	err := s.server.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		core.Log.Error(s, "Management endpoint failed", "err", err)
	}
}

// Close shuts the server down.
func (s *Server) Close() {
	s.server.Shutdown(context.TODO())
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/status", s.handleStatus)
	r.Get("/counters", s.handleCounters)
	r.Get("/windows", s.handleWindows)
	r.Get("/timers", s.handleTimers)
	return r
}

type statusView struct {
	Engine   string              `json:"engine"`
	Uptime   string              `json:"uptime"`
	Counters defn.EngineCounters `json:"counters"`
	Windows  []windowView        `json:"windows"`
	Timers   [2]timerView        `json:"timers"`
}

type windowView struct {
	Seed       string   `json:"seed"`
	M          bool     `json:"m"`
	Count      int      `json:"count"`
	LowerBound int32    `json:"lower_bound"`
	UpperBound int32    `json:"upper_bound"`
	SeqValues  []uint16 `json:"seq_values"`
}

type timerView struct {
	IMin          uint64 `json:"imin"`
	IMax          uint8  `json:"imax"`
	K             uint8  `json:"k"`
	ICurrent      uint8  `json:"i_current"`
	TStart        uint64 `json:"t_start"`
	TEnd          uint64 `json:"t_end"`
	C             uint8  `json:"c"`
	Inconsistency bool   `json:"inconsistency"`
}

// snapshot collects a consistent view on the engine loop; engine state
// is never read from the HTTP goroutine directly.
func (s *Server) snapshot() statusView {
	ch := make(chan statusView, 1)
	s.engine.Post(func() {
		ch <- buildView(s.engine)
	})
	return <-ch
}

func buildView(e *fw.Engine) statusView {
	v := statusView{
		Engine: fw.EngineName,
		Uptime: time.Since(core.StartTimestamp).Truncate(time.Second).String(),
	}
	v.Counters = e.Counters

	tbl := e.Tables()
	for i := range tbl.Windows {
		w := &tbl.Windows[i]
		if !w.InUse {
			continue
		}
		wv := windowView{
			Seed:       fmt.Sprintf("%x", w.Seed[:]),
			M:          w.M,
			Count:      w.Count,
			LowerBound: w.LowerBound,
			UpperBound: w.UpperBound,
		}
		for j := range tbl.Packets {
			p := &tbl.Packets[j]
			if p.InUse && p.Window == i {
				wv.SeqValues = append(wv.SeqValues, p.SeqVal)
			}
		}
		v.Windows = append(v.Windows, wv)
	}

	for m := 0; m < 2; m++ {
		t := e.Timer(m)
		v.Timers[m] = timerView{
			IMin:          t.IMin,
			IMax:          t.IMax,
			K:             t.K,
			ICurrent:      t.ICurrent,
			TStart:        t.TStart,
			TEnd:          t.TEnd,
			C:             t.C,
			Inconsistency: t.Inconsistency,
		}
	}

	return v
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshot())
}

func (s *Server) handleCounters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshot().Counters)
}

func (s *Server) handleWindows(w http.ResponseWriter, r *http.Request) {
	v := s.snapshot().Windows
	if v == nil {
		v = []windowView{}
	}
	writeJSON(w, v)
}

func (s *Server) handleTimers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshot().Timers)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
