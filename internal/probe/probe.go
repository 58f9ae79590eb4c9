package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nerrad567/cloudcfg/internal/infrastructure/database"
	"github.com/nerrad567/cloudcfg/internal/settings"
)

var (
	// ErrUnsupported is returned for a dbtype the probe cannot check.
	ErrUnsupported = errors.New("probe: unsupported dbtype")

	// ErrInvalidTarget is returned when dbhost cannot be interpreted.
	ErrInvalidTarget = errors.New("probe: invalid target")
)

const defaultTimeout = 5 * time.Second

// Result is the outcome of one probe.
type Result struct {
	DBType  string
	Address string
	Latency time.Duration
	// Err is nil when the data store answered.
	Err error
}

// OK reports whether the data store answered.
func (r Result) OK() bool { return r.Err == nil }

// Prober checks data store reachability.
type Prober struct {
	timeout time.Duration
	dialer  net.Dialer
}

// New creates a Prober whose checks give up after timeout.
// A non-positive timeout means 5 seconds.
func New(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Prober{timeout: timeout}
}

// Probe checks t and reports the result. It does not return an error:
// failures are carried in Result.Err.
func (p *Prober) Probe(ctx context.Context, t Target) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	var err error
	switch t.DBType {
	case settings.DBTypeSQLite:
		err = p.probeSQLite(ctx, t)
	case settings.DBTypePgSQL:
		err = p.probePgSQL(ctx, t)
	case settings.DBTypeMySQL:
		err = p.probeMySQL(ctx, t)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupported, t.DBType)
	}

	return Result{
		DBType:  t.DBType,
		Address: t.Address(),
		Latency: time.Since(start),
		Err:     err,
	}
}

func (p *Prober) probeSQLite(ctx context.Context, t Target) error {
	db, err := database.Open(ctx, database.Config{
		Path:        t.Path,
		ReadOnly:    true,
		BusyTimeout: int(p.timeout / time.Second),
	})
	if err != nil {
		return fmt.Errorf("opening sqlite database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Read-only handle

	// Reading the schema forces SQLite to parse the file header.
	var tables int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master").Scan(&tables); err != nil {
		return fmt.Errorf("reading sqlite schema: %w", err)
	}
	return nil
}

func (p *Prober) probePgSQL(ctx context.Context, t Target) error {
	cfg, err := pgx.ParseConfig("")
	if err != nil {
		return fmt.Errorf("building pgsql config: %w", err)
	}
	cfg.Host = t.Host
	cfg.Port = uint16(t.Port) //nolint:gosec // Port validated by splitDBHost or the schema
	if t.Socket != "" {
		// pgx takes the socket directory and derives the file name from the port.
		cfg.Host = t.Socket
		if base := filepath.Base(t.Socket); strings.HasPrefix(base, ".s.PGSQL.") {
			cfg.Host = filepath.Dir(t.Socket)
			if n, err := strconv.Atoi(strings.TrimPrefix(base, ".s.PGSQL.")); err == nil {
				cfg.Port = uint16(n) //nolint:gosec // Socket names carry a valid port
			}
		}
	}
	cfg.Database = t.Name
	cfg.User = t.User
	cfg.Password = t.Password
	cfg.ConnectTimeout = p.timeout
	// Keep the sslmode=prefer plaintext fallback but point it at our host.
	for _, fb := range cfg.Fallbacks {
		fb.Host = cfg.Host
		fb.Port = cfg.Port
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to pgsql: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx)) //nolint:errcheck // Best-effort close

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("pinging pgsql: %w", err)
	}
	return nil
}

// probeMySQL only checks that the server accepts connections. No MySQL
// protocol handshake is attempted.
func (p *Prober) probeMySQL(ctx context.Context, t Target) error {
	network, addr := "tcp", t.Address()
	if t.Socket != "" {
		network, addr = "unix", t.Socket
	}
	conn, err := p.dialer.DialContext(ctx, network, addr)
	if err != nil {
		return fmt.Errorf("dialling mysql: %w", err)
	}
	return conn.Close()
}
