// Package api is the HTTP control gateway. It exposes the activation
// matrix read-only and channel updates through SetStopChannel, the
// same path console and MIDI input use.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go-pipes/control"
	"go-pipes/debug"
	"go-pipes/organ"
)

// StopStatus describes one stop and its enabled virtual channels.
type StopStatus struct {
	Index          int    `json:"index"`
	Name           string `json:"name"`
	ActiveChannels []int  `json:"active_channels"`
}

// OrganInfo describes the loaded instrument.
type OrganInfo struct {
	Name string `json:"name"`
}

// ChannelUpdate is the POST body for a stop/channel edit.
type ChannelUpdate struct {
	Active bool `json:"active"`
}

// Server serves the control API. Each request handler takes the shared
// state lock only for the brief critical section inside the state
// calls.
type Server struct {
	organ *organ.Organ
	state *control.State
	srv   *http.Server
}

func New(o *organ.Organ, state *control.State, port int) *Server {
	s := &Server{organ: o, state: state}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /organ", s.handleOrgan)
	mux.HandleFunc("GET /stops", s.handleStops)
	mux.HandleFunc("POST /stops/{stop}/channels/{channel}", s.handleUpdate)

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		debug.Log("api", "listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			debug.Log("api", "server error: %v", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) handleOrgan(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OrganInfo{Name: s.organ.Name})
}

func (s *Server) handleStops(w http.ResponseWriter, r *http.Request) {
	snapshot := s.state.Snapshot()
	list := make([]StopStatus, len(s.organ.Stops))
	for i, stop := range s.organ.Stops {
		channels := snapshot[i]
		if channels == nil {
			channels = []int{}
		}
		list[i] = StopStatus{Index: i, Name: stop.Name, ActiveChannels: channels}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	stop, err := strconv.Atoi(r.PathValue("stop"))
	if err != nil {
		http.Error(w, "stop index must be an integer", http.StatusBadRequest)
		return
	}
	channel, err := strconv.Atoi(r.PathValue("channel"))
	if err != nil {
		http.Error(w, "channel must be an integer", http.StatusBadRequest)
		return
	}

	var body ChannelUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.state.SetStopChannel(stop, channel, body.Active); err != nil {
		switch {
		case errors.Is(err, control.ErrInvalidChannel):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, control.ErrStopIndex):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, fmt.Sprintf("failed to update state: %v", err), http.StatusInternalServerError)
		}
		return
	}

	action := "Disabled"
	if body.Active {
		action = "Enabled"
	}
	s.state.AddLog(fmt.Sprintf("API: %s Stop %d for Ch %d", action, stop, channel+1))

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"stop_index": stop,
		"channel":    channel,
		"active":     body.Active,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
