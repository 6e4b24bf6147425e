package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/netsweep/netsweep/internal/errors"
	"github.com/netsweep/netsweep/internal/sweep"
)

// SweepRequest triggers a run against a registered network or an ad-hoc
// CIDR. Exactly one of the fields must be set.
type SweepRequest struct {
	Network string `json:"network,omitempty" validate:"omitempty,min=1,max=128"`
	CIDR    string `json:"cidr,omitempty" validate:"omitempty,cidr"`
}

// SweepAccepted is the immediate answer to an accepted trigger. The run's
// outcome is observed through the status and history endpoints.
type SweepAccepted struct {
	ScanID    string    `json:"scan_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// NetworkRequest registers a target network.
type NetworkRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=128"`
	CIDR        string `json:"cidr" validate:"required,cidr"`
	Description string `json:"description,omitempty" validate:"max=512"`
}

// StatusResponse describes the runner's current state.
type StatusResponse struct {
	Busy       bool        `json:"busy"`
	ActiveScan string      `json:"active_scan,omitempty"`
	LockHolder string      `json:"lock_holder,omitempty"`
	LastRun    interface{} `json:"last_run,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// triggerSweepHandler accepts a sweep submission. The answer is immediate:
// 202 with a scan id, 409 when a run is already in flight, or 400 for an
// invalid target.
func (s *Server) triggerSweepHandler(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if err := s.ParseJSON(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, string(errors.CodeValidation), err)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, string(errors.CodeValidation), err)
		return
	}

	accepted, err := s.submitter.Submit(sweep.Target{Name: req.Network, CIDR: req.CIDR})
	if err != nil {
		switch {
		case errors.IsBusy(err):
			s.writeError(w, r, http.StatusConflict, string(errors.CodeLockHeld), err)
		case errors.IsCode(err, errors.CodeTargetInvalid):
			s.writeError(w, r, http.StatusBadRequest, string(errors.CodeTargetInvalid), err)
		default:
			s.writeError(w, r, http.StatusInternalServerError, string(errors.GetCode(err)), err)
		}
		return
	}

	s.WriteJSON(w, r, http.StatusAccepted, SweepAccepted{
		ScanID:    accepted.ScanID,
		Status:    "accepted",
		Timestamp: time.Now().UTC(),
	})
}

// statusHandler reports whether a run is in flight, who holds the lock,
// and the most recent run from the history ledger.
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{Timestamp: time.Now().UTC()}

	if activeID, running := s.submitter.Active(); running {
		response.Busy = true
		response.ActiveScan = activeID
	}
	if holder, err := s.lock.Inspect(); err == nil && holder != nil {
		response.Busy = true
		response.LockHolder = fmt.Sprintf("%d:%s", holder.PID, holder.ScanID)
	}
	if latest := s.ledger.Latest(); latest != nil {
		response.LastRun = latest
	}

	s.WriteJSON(w, r, http.StatusOK, response)
}

// historyHandler returns the run ledger, newest first.
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	entries := s.ledger.List()
	s.WriteJSON(w, r, http.StatusOK, map[string]interface{}{
		"runs":      entries,
		"count":     len(entries),
		"timestamp": time.Now().UTC(),
	})
}

// listNetworksHandler returns all registered networks.
func (s *Server) listNetworksHandler(w http.ResponseWriter, r *http.Request) {
	networks := s.registry.List()
	s.WriteJSON(w, r, http.StatusOK, map[string]interface{}{
		"networks": networks,
		"count":    len(networks),
	})
}

// addNetworkHandler registers a network.
func (s *Server) addNetworkHandler(w http.ResponseWriter, r *http.Request) {
	var req NetworkRequest
	if err := s.ParseJSON(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, string(errors.CodeValidation), err)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, string(errors.CodeValidation), err)
		return
	}

	network, err := s.registry.Add(req.Name, req.CIDR, req.Description)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, string(errors.GetCode(err)), err)
		return
	}
	s.WriteJSON(w, r, http.StatusCreated, network)
}

// getNetworkHandler returns a single network by name.
func (s *Server) getNetworkHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	network, err := s.registry.Get(name)
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, string(errors.CodeNotFound), err)
		return
	}
	s.WriteJSON(w, r, http.StatusOK, network)
}

// removeNetworkHandler removes a network registration.
func (s *Server) removeNetworkHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := s.registry.Remove(name); err != nil {
		if errors.IsNotFound(err) {
			s.writeError(w, r, http.StatusNotFound, string(errors.CodeNotFound), err)
		} else {
			s.writeError(w, r, http.StatusInternalServerError, string(errors.GetCode(err)), err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// enableNetworkHandler marks a network for scheduled sweeps.
func (s *Server) enableNetworkHandler(w http.ResponseWriter, r *http.Request) {
	s.setNetworkEnabled(w, r, true)
}

// disableNetworkHandler excludes a network from scheduled sweeps.
func (s *Server) disableNetworkHandler(w http.ResponseWriter, r *http.Request) {
	s.setNetworkEnabled(w, r, false)
}

func (s *Server) setNetworkEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	name := mux.Vars(r)["name"]
	if err := s.registry.SetEnabled(name, enabled); err != nil {
		if errors.IsNotFound(err) {
			s.writeError(w, r, http.StatusNotFound, string(errors.CodeNotFound), err)
		} else {
			s.writeError(w, r, http.StatusInternalServerError, string(errors.GetCode(err)), err)
		}
		return
	}

	network, err := s.registry.Get(name)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, string(errors.GetCode(err)), err)
		return
	}
	s.WriteJSON(w, r, http.StatusOK, network)
}

// livenessHandler provides a simple liveness check endpoint.
func (s *Server) livenessHandler(w http.ResponseWriter, r *http.Request) {
	s.WriteJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startTime).String(),
	})
}

// healthHandler reports overall service health. The registry and ledger
// are file backed, so health reduces to being able to read them.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"registry": "ok",
		"history":  "ok",
	}

	// Reads never fail hard (corrupt stores heal to empty), so probe them
	// for liveness of the underlying filesystem only.
	_ = s.registry.List()
	_ = s.ledger.List()

	s.WriteJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	})
}
