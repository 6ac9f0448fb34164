package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-audio/internal/audit"
	"github.com/nerrad567/gray-logic-audio/internal/bridges/sony"
)

// deviceView is the API representation of a running device.
type deviceView struct {
	sony.Record
	State sony.State `json:"state"`
	Ready bool       `json:"ready"`
}

func viewOf(dev *sony.Device) deviceView {
	return deviceView{
		Record: dev.Record(),
		State:  dev.State(),
		Ready:  dev.Cache().Ready(),
	}
}

// addDeviceRequest is the request body for POST /devices.
type addDeviceRequest struct {
	IP   string `json:"ip"`
	Name string `json:"name"`
}

// commandRequest is the request body for POST /devices/{id}/commands.
// Exactly one of Command and Entity is set.
type commandRequest struct {
	Command    string         `json:"command"`
	Entity     string         `json:"entity"`
	Parameters map[string]any `json:"parameters"`
}

// commandResponse reports a dispatch result.
type commandResponse struct {
	Command string       `json:"command"`
	Outcome sony.Outcome `json:"outcome"`
	Error   string       `json:"error,omitempty"`
}

// outcomeStatus maps a dispatch outcome to its HTTP status.
func outcomeStatus(o sony.Outcome) int {
	switch o {
	case sony.OutcomeOK:
		return http.StatusOK
	case sony.OutcomeBadRequest:
		return http.StatusBadRequest
	case sony.OutcomeNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusBadGateway
	}
}

// lookupDevice resolves the {id} URL parameter, writing a 404 on a miss.
func (s *Server) lookupDevice(w http.ResponseWriter, r *http.Request) (*sony.Device, bool) {
	dev, err := s.devices.Registry().Get(chi.URLParam(r, "id"))
	if err != nil {
		writeNotFound(w, "device not found")
		return nil, false
	}
	return dev, true
}

// handleListDevices returns every running device.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devs := s.devices.Registry().List()
	views := make([]deviceView, 0, len(devs))
	for _, dev := range devs {
		views = append(views, viewOf(dev))
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": views, "count": len(views)})
}

// handleAddDevice verifies, persists and starts the device at the given IP.
func (s *Server) handleAddDevice(w http.ResponseWriter, r *http.Request) {
	var req addDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	req.IP = strings.TrimSpace(req.IP)
	if net.ParseIP(req.IP) == nil {
		writeBadRequest(w, "ip must be an IPv4 or IPv6 address")
		return
	}

	dev, err := s.devices.Setup(r.Context(), req.IP, strings.TrimSpace(req.Name))
	entry := audit.Entry{Action: audit.ActionDeviceAdd, Outcome: "ok", Details: map[string]any{"ip": req.IP}}
	if err != nil {
		entry.Outcome = "failed"
		entry.Details["error"] = err.Error()
	} else {
		entry.DeviceID = dev.ID()
	}
	s.recordAudit(r, entry)

	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, viewOf(dev))
	case errors.Is(err, sony.ErrDeviceExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, "device already configured")
	case errors.Is(err, sony.ErrConnectFailed):
		writeError(w, http.StatusBadGateway, ErrCodeDeviceError, "device did not answer at "+req.IP)
	default:
		s.logger.Error("device setup failed", "ip", req.IP, "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeDeviceError, err.Error())
	}
}

// handleGetDevice returns a single device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(dev))
}

// handleRemoveDevice stops the device and deletes its record.
func (s *Server) handleRemoveDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.devices.Remove(r.Context(), id); err != nil {
		if errors.Is(err, sony.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("device removal failed", "device_id", id, "error", err)
		writeInternalError(w, "failed to remove device")
		return
	}
	s.recordAudit(r, audit.Entry{Action: audit.ActionDeviceRemove, DeviceID: id, Outcome: "ok"})
	w.WriteHeader(http.StatusNoContent)
}

// handleGetCommands returns the command namespace.
func (s *Server) handleGetCommands(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	cmds := dev.Namespace().Commands
	writeJSON(w, http.StatusOK, map[string]any{"commands": cmds, "count": len(cmds)})
}

// handleGetButtons returns the remote button mapping.
func (s *Server) handleGetButtons(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"buttons": dev.Namespace().Buttons})
}

// handleGetPages returns the UI pages.
func (s *Server) handleGetPages(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": dev.Namespace().Pages})
}

// handleGetCapabilities returns the capability snapshot.
func (s *Server) handleGetCapabilities(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	snap := dev.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeNotReady, "capabilities not loaded yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleGetSources returns the discovered input sources.
func (s *Server) handleGetSources(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	sources := dev.Sources()
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources, "count": len(sources)})
}

// handleSendCommand dispatches a namespace command or an entity command.
func (s *Server) handleSendCommand(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if (req.Command == "") == (req.Entity == "") {
		writeBadRequest(w, "exactly one of command or entity is required")
		return
	}

	var res sony.Result
	if req.Entity != "" {
		res = dev.HandleEntityCommand(r.Context(), req.Entity, req.Parameters)
	} else {
		res = dev.Dispatch(r.Context(), req.Command, req.Parameters)
	}

	details := map[string]any{"command": res.Command}
	if req.Entity != "" {
		details["entity"] = req.Entity
	}
	if res.Err != nil {
		details["error"] = res.Error()
	}
	s.recordAudit(r, audit.Entry{
		Action:   audit.ActionDeviceCommand,
		DeviceID: dev.ID(),
		Outcome:  string(res.Outcome),
		Details:  details,
	})

	writeJSON(w, outcomeStatus(res.Outcome), commandResponse{
		Command: res.Command,
		Outcome: res.Outcome,
		Error:   res.Error(),
	})
}

// handleRefresh reloads capabilities and sources.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	if err := dev.Refresh(r.Context()); err != nil {
		s.recordAudit(r, audit.Entry{Action: audit.ActionDeviceRefresh, DeviceID: dev.ID(), Outcome: "failed",
			Details: map[string]any{"error": err.Error()}})
		writeError(w, http.StatusBadGateway, ErrCodeDeviceError, err.Error())
		return
	}
	s.recordAudit(r, audit.Entry{Action: audit.ActionDeviceRefresh, DeviceID: dev.ID(), Outcome: "ok"})
	ns := dev.Namespace()
	writeJSON(w, http.StatusOK, map[string]any{
		"commands": len(ns.Commands),
		"sources":  len(dev.Sources()),
		"zones":    dev.Cache().Zones(),
	})
}
