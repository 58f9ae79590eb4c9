package snapshot

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/nerrad567/cloudcfg/internal/settings"
)

// Argon2id parameters for fingerprints. A fingerprint is computed on every
// load, so these sit at the OWASP minimum rather than password-hash cost.
const (
	fingerprintTime    = 2
	fingerprintMemory  = 19 * 1024 // 19 MiB
	fingerprintThreads = 1
	fingerprintKeyLen  = 16
)

// fallbackSalt keys fingerprints of configurations that carry neither a
// passwordsalt nor an instanceid.
const fallbackSalt = "cloudcfg-fingerprint"

// Snapshot is one recorded configuration load.
type Snapshot struct {
	ID           string    `json:"id"`
	InstanceID   string    `json:"instance_id"`
	LoadedAt     time.Time `json:"loaded_at"`
	SourcePath   string    `json:"source_path"`
	SourceFormat string    `json:"source_format"`
	KeyCount     int       `json:"key_count"`
	WarningCount int       `json:"warning_count"`
	// Description is the redacted YAML rendering of the configuration.
	Description string `json:"description"`
	// SecretFingerprint changes whenever any sensitive value changes.
	SecretFingerprint string `json:"secret_fingerprint"`
}

// Source describes where a configuration was read from.
type Source struct {
	Path   string
	Format string
	// Warnings is the number of non-fatal findings, such as placeholders.
	Warnings int
}

// New builds a Snapshot of cfg with a fresh ID and the current time.
//
// Parameters:
//   - cfg: Validated configuration
//   - reg: Registry used for redaction; nil means settings.DefaultRegistry()
//   - src: Where cfg was read from
//
// Returns:
//   - *Snapshot: Snapshot ready to save
//   - error: If the description cannot be rendered
func New(cfg *settings.Configuration, reg *settings.Registry, src Source) (*Snapshot, error) {
	if reg == nil {
		reg = settings.DefaultRegistry()
	}
	desc, err := settings.Describe(cfg, reg).YAML()
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		ID:                uuid.New().String(),
		InstanceID:        stringSetting(cfg, "instanceid"),
		LoadedAt:          time.Now().UTC(),
		SourcePath:        src.Path,
		SourceFormat:      src.Format,
		KeyCount:          cfg.Len(),
		WarningCount:      src.Warnings,
		Description:       string(desc),
		SecretFingerprint: Fingerprint(cfg, reg),
	}, nil
}

// Fingerprint returns a hex Argon2id digest of every sensitive value in cfg,
// keyed with passwordsalt (or instanceid when no salt is set).
//
// Two configurations have the same fingerprint exactly when their sensitive
// keys and values match. The digest cannot be reversed to a secret.
func Fingerprint(cfg *settings.Configuration, reg *settings.Registry) string {
	if reg == nil {
		reg = settings.DefaultRegistry()
	}

	var b strings.Builder
	for _, key := range cfg.Keys() {
		if !reg.IsSensitive(key) {
			continue
		}
		v, _ := cfg.Get(key)
		fmt.Fprintf(&b, "%s=%s\n", key, v.String())
	}

	salt := stringSetting(cfg, "passwordsalt")
	if salt == "" {
		salt = stringSetting(cfg, "instanceid")
	}
	if salt == "" {
		salt = fallbackSalt
	}

	sum := argon2.IDKey([]byte(b.String()), []byte(salt),
		fingerprintTime, fingerprintMemory, fingerprintThreads, fingerprintKeyLen)
	return hex.EncodeToString(sum)
}

// Comparison summarises how two snapshots of the same instance differ.
type Comparison struct {
	SecretsRotated     bool
	DescriptionChanged bool
}

// Changed reports whether anything differs.
func (c Comparison) Changed() bool {
	return c.SecretsRotated || c.DescriptionChanged
}

// Compare reports what changed from prev to cur.
func Compare(prev, cur *Snapshot) Comparison {
	return Comparison{
		SecretsRotated:     prev.SecretFingerprint != cur.SecretFingerprint,
		DescriptionChanged: prev.Description != cur.Description,
	}
}

func (s *Snapshot) validate() error {
	var missing []string
	if s.ID == "" {
		missing = append(missing, "id")
	}
	if s.LoadedAt.IsZero() {
		missing = append(missing, "loaded_at")
	}
	if s.Description == "" {
		missing = append(missing, "description")
	}
	if s.SecretFingerprint == "" {
		missing = append(missing, "secret_fingerprint")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: missing %s", ErrInvalid, strings.Join(missing, ", "))
	}
	return nil
}

func stringSetting(cfg *settings.Configuration, key string) string {
	v, ok := cfg.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.AsString()
	return s
}
