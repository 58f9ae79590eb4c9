package probe

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nerrad567/cloudcfg/internal/settings"
)

// Default ports when neither dbhost nor dbport carries one.
const (
	defaultMySQLPort = 3306
	defaultPgSQLPort = 5432
)

// defaultDBName is the SQLite file stem used when dbname is unset.
const defaultDBName = "owncloud"

// Target is the data store a configuration points at.
type Target struct {
	DBType string
	// Host is a host name or address. Empty when Socket is set.
	Host string
	Port int
	// Socket is a unix socket path taken from a dbhost of the form
	// "host:/path/to/socket".
	Socket   string
	Name     string
	User     string
	Password string
	// Path is the SQLite database file.
	Path string
}

// Address returns a printable location for logs. It never includes
// credentials.
func (t Target) Address() string {
	switch {
	case t.DBType == settings.DBTypeSQLite:
		return t.Path
	case t.Socket != "":
		return "unix:" + t.Socket
	default:
		return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
	}
}

// TargetFromStore builds a Target from an initialised store.
//
// Parameters:
//   - store: Initialised configuration store
//
// Returns:
//   - Target: Resolved data store location
//   - error: If dbtype is unknown or a required key is missing
func TargetFromStore(store *settings.Store) (Target, error) {
	dbtype, err := store.GetString("dbtype")
	if err != nil {
		return Target{}, err
	}

	t := Target{DBType: dbtype}
	t.Name, err = optionalString(store, "dbname")
	if err != nil {
		return Target{}, err
	}

	switch dbtype {
	case settings.DBTypeSQLite:
		dataDir, err := store.GetString("datadirectory")
		if err != nil {
			return Target{}, err
		}
		name := t.Name
		if name == "" {
			name = defaultDBName
		}
		t.Path = filepath.Join(dataDir, name+".db")
		return t, nil

	case settings.DBTypeMySQL, settings.DBTypePgSQL:
		host, err := store.GetString("dbhost")
		if err != nil {
			return Target{}, err
		}
		if t.User, err = optionalString(store, "dbuser"); err != nil {
			return Target{}, err
		}
		if t.Password, err = optionalString(store, "dbpassword"); err != nil {
			return Target{}, err
		}

		port, err := store.GetInt("dbport")
		if err != nil && !errors.Is(err, settings.ErrNotFound) {
			return Target{}, err
		}
		if port == 0 {
			port = defaultMySQLPort
			if dbtype == settings.DBTypePgSQL {
				port = defaultPgSQLPort
			}
		}

		t.Host, t.Port, t.Socket, err = splitDBHost(host, int(port))
		if err != nil {
			return Target{}, err
		}
		return t, nil
	}

	return Target{}, fmt.Errorf("%w: %q", ErrUnsupported, dbtype)
}

// splitDBHost interprets dbhost, which may be "host", "host:port",
// "[v6addr]:port" or "host:/socket/path".
func splitDBHost(dbhost string, port int) (host string, outPort int, socket string, err error) {
	dbhost = strings.TrimSpace(dbhost)
	if dbhost == "" {
		return "", 0, "", fmt.Errorf("%w: dbhost is empty", ErrInvalidTarget)
	}

	if i := strings.Index(dbhost, ":/"); i >= 0 {
		return "", port, dbhost[i+1:], nil
	}

	if strings.HasPrefix(dbhost, "[") && strings.HasSuffix(dbhost, "]") {
		return dbhost[1 : len(dbhost)-1], port, "", nil
	}

	if strings.HasPrefix(dbhost, "[") || strings.Count(dbhost, ":") == 1 {
		h, p, splitErr := net.SplitHostPort(dbhost)
		if splitErr != nil {
			return "", 0, "", fmt.Errorf("%w: dbhost %q: %v", ErrInvalidTarget, dbhost, splitErr)
		}
		n, convErr := strconv.Atoi(p)
		if convErr != nil || n < 1 || n > 65535 {
			return "", 0, "", fmt.Errorf("%w: dbhost %q has bad port", ErrInvalidTarget, dbhost)
		}
		return h, n, "", nil
	}

	// Bare host, or an unbracketed IPv6 address.
	return dbhost, port, "", nil
}

func optionalString(store *settings.Store, key string) (string, error) {
	s, err := store.GetString(key)
	if errors.Is(err, settings.ErrNotFound) {
		return "", nil
	}
	return s, err
}
