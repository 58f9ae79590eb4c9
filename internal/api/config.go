package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/cloudcfg/internal/audit"
	"github.com/nerrad567/cloudcfg/internal/settings"
)

// configResponse is the body of GET /config.
type configResponse struct {
	InstanceID string               `json:"instance_id,omitempty"`
	Keys       int                  `json:"keys"`
	Config     settings.Description `json:"config"`
}

// configKeyResponse is the body of GET /config/{key}.
type configKeyResponse struct {
	Key       string `json:"key"`
	Value     any    `json:"value"`
	Sensitive bool   `json:"sensitive"`
	// Default is true when the key is absent and the registry default is shown.
	Default bool `json:"default"`
}

// handleGetConfig returns the redacted configuration. With ?defaults=true,
// registry defaults are filled in for absent keys.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.store.Configuration()
	if cfg == nil {
		writeUnavailable(w, "configuration not loaded")
		return
	}

	withDefaults := false
	if raw := r.URL.Query().Get("defaults"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeBadRequest(w, "defaults must be a boolean")
			return
		}
		withDefaults = v
	}

	reg := s.store.Registry()
	desc := settings.Describe(cfg, reg)
	if withDefaults {
		desc = desc.WithDefaults(reg)
	}

	s.recordAccess(r, audit.ActionConfigRead, "")

	instanceID, _ := s.store.GetString("instanceid")
	writeJSON(w, http.StatusOK, configResponse{
		InstanceID: instanceID,
		Keys:       cfg.Len(),
		Config:     desc,
	})
}

// handleGetConfigKey returns one redacted setting, falling back to the
// registry default for absent keys.
func (s *Server) handleGetConfigKey(w http.ResponseWriter, r *http.Request) {
	cfg := s.store.Configuration()
	if cfg == nil {
		writeUnavailable(w, "configuration not loaded")
		return
	}

	key := chi.URLParam(r, "key")
	v, ok := s.store.Get(key)
	if !ok {
		writeNotFound(w, "setting not found: "+key)
		return
	}

	s.recordAccess(r, audit.ActionConfigRead, key)

	reg := s.store.Registry()
	writeJSON(w, http.StatusOK, configKeyResponse{
		Key:       key,
		Value:     settings.DescribeValue(key, v, reg),
		Sensitive: reg.IsSensitive(key),
		Default:   !cfg.Has(key),
	})
}
