package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sw33tLie/followscope/pkg/storage"
	"github.com/sw33tLie/followscope/pkg/tracker"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrSnapshotNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case storage.IsCorrupt(err):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	infos, err := s.Store.List(r.Context())
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, infos)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Store.LoadLatest(r.Context())
	if err != nil {
		storeError(w, err)
		return
	}
	if snap == nil {
		http.Error(w, "no snapshots stored yet", http.StatusNotFound)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !storage.ValidKey(key) {
		http.Error(w, "invalid snapshot key", http.StatusBadRequest)
		return
	}
	snap, err := s.Store.Load(r.Context(), key)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, snap)
}

// handleChanges diffs ?from= against ?to=. Without parameters it compares the two
// most recent readable snapshots.
func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")

	if from == "" || to == "" {
		infos, err := s.Store.List(r.Context())
		if err != nil {
			storeError(w, err)
			return
		}
		if len(infos) < 2 {
			http.Error(w, "at least two snapshots are needed", http.StatusNotFound)
			return
		}
		if to == "" {
			to = infos[len(infos)-1].Key
		}
		if from == "" {
			for i := len(infos) - 1; i >= 0; i-- {
				if infos[i].Key < to {
					from = infos[i].Key
					break
				}
			}
		}
	}
	if !storage.ValidKey(from) || !storage.ValidKey(to) {
		http.Error(w, "invalid snapshot key", http.StatusBadRequest)
		return
	}

	older, err := s.Store.Load(r.Context(), from)
	if err != nil {
		storeError(w, err)
		return
	}
	newer, err := s.Store.Load(r.Context(), to)
	if err != nil {
		storeError(w, err)
		return
	}
	changes, err := tracker.CompareSnapshots(newer, older)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, changes)
}
