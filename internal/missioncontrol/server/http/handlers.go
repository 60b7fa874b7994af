package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/orchestrator"
)

// ArchiveLinker issues download links for archived missions.
type ArchiveLinker interface {
	PresignedURL(ctx context.Context, missionID string, expiry time.Duration) (string, error)
}

const (
	defaultLinkExpiry   = 15 * time.Minute
	defaultMaxBodyBytes = 1 << 20
)

type handler struct {
	orch         *orchestrator.Orchestrator
	archives     ArchiveLinker
	linkExpiry   time.Duration
	maxBodyBytes int64
	clock        clock.PassiveClock
}

// CommandCreated is returned by POST .../commands.
type CommandCreated struct {
	CommandID string `json:"command_id"`
}

// ActiveMission is returned by GET /api/v1/active-mission.
type ActiveMission struct {
	MissionID string `json:"mission_id"`
}

// ArchiveLink is returned by GET .../archive.
type ArchiveLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *handler) createMission(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.CreateMissionRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	m, err := h.orch.CreateMission(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/missions/"+m.ID)
	writeJSON(w, http.StatusCreated, m)
}

func (h *handler) listMissions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.GetAllMissions(r.Context()))
}

func (h *handler) missionStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.orch.GetMissionStatus(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handler) transition(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	if err := h.orch.Transition(r.Context(), id, vars["event"]); err != nil {
		writeError(w, err)
		return
	}

	m, err := h.orch.GetMission(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *handler) sendCommand(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.SendCommandRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.orch.SendCommand(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CommandCreated{CommandID: id})
}

func (h *handler) executeCommand(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	cmd, err := h.orch.ExecuteCommand(r.Context(), vars["id"], vars["cid"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmd)
}

func (h *handler) addTelemetry(w http.ResponseWriter, r *http.Request) {
	var reading model.TelemetryReading
	if err := h.decode(w, r, &reading); err != nil {
		writeError(w, err)
		return
	}

	if err := h.orch.AddTelemetry(r.Context(), mux.Vars(r)["id"], reading); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) activeMission(w http.ResponseWriter, _ *http.Request) {
	id, ok := h.orch.ActiveMission()
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no active mission"})
		return
	}
	writeJSON(w, http.StatusOK, ActiveMission{MissionID: id})
}

func (h *handler) commandTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.Executors().Types())
}

func (h *handler) archiveLink(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	m, err := h.orch.GetMission(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !m.Status.IsTerminal() {
		writeError(w, &model.TransitionError{Entity: "mission", ID: id, From: string(m.Status), Event: "archive"})
		return
	}

	url, err := h.archives.PresignedURL(r.Context(), id, h.linkExpiry)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ArchiveLink{URL: url, ExpiresAt: h.clock.Now().Add(h.linkExpiry).UTC()})
}
