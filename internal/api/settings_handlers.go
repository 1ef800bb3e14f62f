package api

import (
	"net/http"
	"time"
)

func (a *API) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, a.Settings.Current())
	case http.MethodPut:
		var req settingsRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.BalancePollSeconds > 0 {
			if err := a.Settings.SetBalancePollInterval(time.Duration(req.BalancePollSeconds) * time.Second); err != nil {
				writeError(w, err)
				return
			}
		}
		if req.AutoLogoutMinutes > 0 {
			if err := a.Settings.SetAutoLogoutDuration(time.Duration(req.AutoLogoutMinutes) * time.Minute); err != nil {
				writeError(w, err)
				return
			}
		}
		if req.Theme != "" {
			if err := a.Settings.SetTheme(req.Theme); err != nil {
				writeError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, a.Settings.Current())
	default:
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
	}
}

// handleEndpoints adds or removes RPC endpoints. Each accepted change
// reaches the scheduler through the settings change hook. DELETE also
// reports the endpoint's reachability so the UI can warn about removing the
// last good one.
func (a *API) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req endpointRequest
		if !decodeBody(w, r, &req) {
			return
		}
		validation := a.Net.ValidateEndpoint(req.Endpoint)
		if err := a.Settings.AddRPCEndpoint(req.Endpoint); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"endpoints":  a.Settings.Current().RPCEndpoints,
			"validation": validation,
		})
	case http.MethodDelete:
		var req endpointRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := a.Settings.RemoveRPCEndpoint(req.Endpoint); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"endpoints": a.Settings.Current().RPCEndpoints,
		})
	default:
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
	}
}
