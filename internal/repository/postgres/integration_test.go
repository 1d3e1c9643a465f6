//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ngoctd/storefront/internal/model"
	repo "github.com/ngoctd/storefront/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "storefront_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/storefront_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestStateRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	sr := repo.NewStateRepository(conn)

	_, err = sr.Load(ctx, model.CartStateName)
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, sr.Save(ctx, model.CartStateName, []byte(`{"version":1}`)))

	data, err := sr.Load(ctx, model.CartStateName)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"version":1}`), data)

	// Saving again replaces, it does not duplicate.
	require.NoError(t, sr.Save(ctx, model.CartStateName, []byte(`{"version":2}`)))
	data, err = sr.Load(ctx, model.CartStateName)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"version":2}`), data)
}

func TestStateRepository_NamesAreIndependent(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	sr := repo.NewStateRepository(conn)
	require.NoError(t, sr.Save(ctx, model.AuthStateName, []byte("auth")))
	require.NoError(t, sr.Save(ctx, model.CartStateName, []byte("cart")))

	auth, err := sr.Load(ctx, model.AuthStateName)
	require.NoError(t, err)
	assert.Equal(t, []byte("auth"), auth)
}
