package testdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// ContainerImage is the PostgreSQL image started by StartContainer.
const ContainerImage = "postgres:16-alpine"

// Container is a throwaway PostgreSQL server for a test process.
type Container struct {
	pg     *postgres.PostgresContainer
	params Parameters
}

// StartContainer runs a PostgreSQL container whose initial database is
// rootDatabase and returns once it accepts connections.
func StartContainer(ctx context.Context, rootDatabase string, log *zap.Logger) (*Container, error) {
	pg, err := postgres.Run(ctx,
		ContainerImage,
		postgres.WithDatabase(rootDatabase),
		postgres.WithUsername(DefaultUser),
		postgres.WithPassword(DefaultPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
	}

	params, err := parametersFromURL(connStr)
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, err
	}

	log.Info("postgres container started",
		zap.String("image", ContainerImage),
		zap.String("host", params.Host),
		zap.Int("port", params.Port),
	)
	return &Container{pg: pg, params: params}, nil
}

// Parameters describes the container's server. DatabaseName is left empty.
func (c *Container) Parameters() Parameters {
	return c.params
}

// Terminate stops and removes the container.
func (c *Container) Terminate(ctx context.Context) error {
	if err := c.pg.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to terminate PostgreSQL container: %w", err)
	}
	return nil
}

func parametersFromURL(raw string) (Parameters, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Parameters{}, fmt.Errorf("failed to parse connection string: %w", err)
	}

	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return Parameters{}, fmt.Errorf("connection string has no valid port: %w", err)
	}

	password, _ := u.User.Password()
	return Parameters{
		Host:     u.Hostname(),
		User:     u.User.Username(),
		Password: password,
		Port:     port,
		Options:  u.RawQuery,
	}, nil
}
