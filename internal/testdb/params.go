package testdb

import (
	"net"
	"net/url"
	"strconv"

	apperrors "user-data-service/pkg/errors"
)

// Environment variables read by ResolveParameters.
const (
	EnvHost     = "TEST_DB_HOST"
	EnvUser     = "TEST_DB_USER"
	EnvPassword = "TEST_DB_PASSWORD"
	EnvPort     = "TEST_DB_PORT"
	EnvWorkerID = "TEST_WORKER_ID"
)

// Defaults used when the matching variable is unset.
const (
	DefaultHost     = "localhost"
	DefaultUser     = "testuser"
	DefaultPassword = "testpassword"
	DefaultPort     = 5433
)

const databasePrefix = "test_db_"

// Parameters locate the test database server and, when a worker id is
// known, the database dedicated to that worker.
type Parameters struct {
	Host     string
	User     string
	Password string
	Port     int
	// Options is appended as the URL query, e.g. "sslmode=disable".
	Options string

	WorkerID string
	// DatabaseName is empty when no worker id was supplied, meaning the
	// caller has no dedicated test database yet.
	DatabaseName string
}

// DatabaseName returns the per-worker database name for suffix.
func DatabaseName(suffix string) string {
	return databasePrefix + suffix
}

// ResolveParameters builds Parameters from lookup, which has the signature
// of os.LookupEnv. It performs no I/O.
func ResolveParameters(lookup func(string) (string, bool)) (Parameters, error) {
	p := Parameters{
		Host:     valueOr(lookup, EnvHost, DefaultHost),
		User:     valueOr(lookup, EnvUser, DefaultUser),
		Password: valueOr(lookup, EnvPassword, DefaultPassword),
		Port:     DefaultPort,
	}

	if raw, ok := lookup(EnvPort); ok && raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Parameters{}, apperrors.NewConfigError(EnvPort, "must be a valid port number")
		}
		p.Port = port
	}

	if id, ok := lookup(EnvWorkerID); ok && id != "" {
		p.WorkerID = id
		p.DatabaseName = DatabaseName(id)
	}

	return p, nil
}

func valueOr(lookup func(string) (string, bool), key, fallback string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return fallback
}

// ServerURL is the connection URL of the server without a database path.
func (p Parameters) ServerURL() string {
	u := p.url()
	return u.String()
}

// DatabaseURL is the connection URL of database name on the server.
func (p Parameters) DatabaseURL(name string) string {
	u := p.url()
	u.Path = "/" + name
	return u.String()
}

func (p Parameters) url() *url.URL {
	return &url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		RawQuery: p.Options,
	}
}
