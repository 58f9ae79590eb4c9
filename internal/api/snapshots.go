package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/cloudcfg/internal/audit"
	"github.com/nerrad567/cloudcfg/internal/snapshot"
)

// Snapshot list limits.
const (
	defaultSnapshotLimit = 20
	maxSnapshotLimit     = 500
)

// snapshotSummary is a list entry; the description is only returned by
// GET /snapshots/{id}.
type snapshotSummary struct {
	ID                string    `json:"id"`
	InstanceID        string    `json:"instance_id"`
	LoadedAt          time.Time `json:"loaded_at"`
	SourcePath        string    `json:"source_path"`
	SourceFormat      string    `json:"source_format"`
	KeyCount          int       `json:"key_count"`
	WarningCount      int       `json:"warning_count"`
	SecretFingerprint string    `json:"secret_fingerprint"`
	// SecretsRotated compares with the next older snapshot in the page of
	// the same instance.
	SecretsRotated bool `json:"secrets_rotated"`
}

type snapshotListResponse struct {
	Snapshots []snapshotSummary `json:"snapshots"`
	Count     int               `json:"count"`
}

// handleListSnapshots lists snapshots newest first.
// Query: instance (optional), limit (1..500, default 20).
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeUnavailable(w, "snapshot store disabled")
		return
	}

	limit := defaultSnapshotLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSnapshotLimit {
			writeBadRequest(w, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	list, err := s.snapshots.List(r.Context(), r.URL.Query().Get("instance"), limit)
	if err != nil {
		s.logger.Error("listing snapshots", "error", err)
		writeInternalError(w, "failed to list snapshots")
		return
	}

	out := make([]snapshotSummary, len(list))
	for i := range list {
		out[i] = summarise(&list[i])
		for j := i + 1; j < len(list); j++ {
			if list[j].InstanceID == list[i].InstanceID {
				out[i].SecretsRotated = snapshot.Compare(&list[j], &list[i]).SecretsRotated
				break
			}
		}
	}

	s.recordAccess(r, audit.ActionSnapshotList, "")
	writeJSON(w, http.StatusOK, snapshotListResponse{Snapshots: out, Count: len(out)})
}

// handleGetSnapshot returns one snapshot including its redacted description.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeUnavailable(w, "snapshot store disabled")
		return
	}

	snap, err := s.snapshots.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, snapshot.ErrNotFound) {
		writeNotFound(w, "snapshot not found")
		return
	}
	if err != nil {
		s.logger.Error("getting snapshot", "error", err)
		writeInternalError(w, "failed to get snapshot")
		return
	}

	s.recordAccess(r, audit.ActionSnapshotRead, snap.ID)
	writeJSON(w, http.StatusOK, snap)
}

func summarise(s *snapshot.Snapshot) snapshotSummary {
	return snapshotSummary{
		ID:                s.ID,
		InstanceID:        s.InstanceID,
		LoadedAt:          s.LoadedAt,
		SourcePath:        s.SourcePath,
		SourceFormat:      s.SourceFormat,
		KeyCount:          s.KeyCount,
		WarningCount:      s.WarningCount,
		SecretFingerprint: s.SecretFingerprint,
	}
}
