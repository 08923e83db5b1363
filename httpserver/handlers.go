package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"touchscenes/logger"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
}

type statusResponse struct {
	State    string `json:"state"`
	Port     int    `json:"port,omitempty"`
	Slots    int    `json:"slots"`
	Remote   string `json:"remote,omitempty"`
	Instance string `json:"instance,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Healthz(d Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			UptimeSeconds: time.Since(start).Seconds(),
			Version:       d.Version,
		})
	}
}

// Status reports the lifecycle state and the current remote controller.
func Status(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := statusResponse{
			State: d.Bridge.State().String(),
			Port:  d.Bridge.Port(),
			Slots: d.Bridge.Controller().Slots(),
		}
		if ep, ok := d.Store.Get(); ok {
			resp.Remote = ep.String()
			resp.Instance = d.Store.Instance()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Sync pushes scene names to the remote controller now.
func Sync(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := d.Store.Get(); !ok {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "no remote controller"})
			return
		}
		d.Bridge.Controller().SyncSceneNames()
		d.Logger.Info("manual scene name sync", logger.String("remote_ip", r.RemoteAddr))
		w.WriteHeader(http.StatusAccepted)
	}
}

// SwitchScene behaves like a press of button {slot} on the controller.
func SwitchScene(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		controller := d.Bridge.Controller()

		slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
		if err != nil || slot < 1 || slot > controller.Slots() {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "slot must be between 1 and " + strconv.Itoa(controller.Slots())})
			return
		}

		if err := controller.SwitchScene(slot); err != nil {
			d.Logger.Warn("scene switch failed", logger.Int("slot", slot), logger.Error(err))
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
			return
		}
		controller.SyncSceneNames()
		w.WriteHeader(http.StatusNoContent)
	}
}
