// This file is a helper for running tests with testcontainers.
// It is used by the integration tests and by the standalone testcontainers
// executable. Expects environment variables to be loaded from .env files.
//

package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

type TestContainers struct {
	Network        *testcontainers.DockerNetwork
	DBContainer    testcontainers.Container
	GraphContainer testcontainers.Container

	// Host-mapped endpoints for test processes
	DBHost   string
	DBPort   string
	GraphURI string
}

func (tc *TestContainers) Terminate(t *testing.T) {
	ctx := context.Background()
	if tc.GraphContainer != nil {
		if err := tc.GraphContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate graph container: %v", err)
		}
	}
	if tc.DBContainer != nil {
		if err := tc.DBContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate database container: %v", err)
		}
	}
	if tc.Network != nil {
		if err := tc.Network.Remove(ctx); err != nil {
			logMessage(t, "Failed to remove network: %v", err)
		}
	}
}

// DockerAvailable reports whether a docker daemon answers on this host
func DockerAvailable() bool {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err = cli.Ping(ctx)
	return err == nil
}

// SkipWithoutDocker skips the calling test when no docker daemon is reachable
func SkipWithoutDocker(t *testing.T) {
	t.Helper()
	if !DockerAvailable() {
		t.Skip("Skipping: docker daemon not available")
	}
}

// CreateAllTestContainers starts the Postgres and Neo4j containers the
// service depends on and returns their host-mapped endpoints.
func CreateAllTestContainers(t *testing.T) (*TestContainers, error) {
	ctx := context.Background()
	testContainers := &TestContainers{}

	// Create a network
	nw, err := network.New(ctx)
	if err != nil {
		exitWithError(t, err, "Failed to create network")
	}
	testContainers.Network = nw
	networkName := nw.Name

	// Create and start the Postgres container
	tcpDBPort, err := nat.NewPort("tcp", "5432")
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to create DB port")
	}
	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        getenvDefault("DB_IMAGE", "postgres:16-alpine"),
			ExposedPorts: []string{string(tcpDBPort)},
			Env: map[string]string{
				"POSTGRES_DB":       getenvDefault("DB_DATABASE", "bistro_test"),
				"POSTGRES_USER":     getenvDefault("DB_USER", "bistro"),
				"POSTGRES_PASSWORD": getenvDefault("DB_PASSWORD", "bistro"),
			},
			WaitingFor: wait.ForListeningPort(tcpDBPort).WithStartupTimeout(60 * time.Second),
			Networks:   []string{networkName},
			NetworkAliases: map[string][]string{
				networkName: {"db"},
			},
		},
		Started: true,
	})
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start Postgres")
	}
	testContainers.DBContainer = dbContainer

	dbHost, _ := dbContainer.Host(ctx)
	dbPort, _ := dbContainer.MappedPort(ctx, tcpDBPort)
	testContainers.DBHost = dbHost
	testContainers.DBPort = dbPort.Port()

	if err := waitForPostgres(testContainers); err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Postgres not ready")
	}

	// Create and start the Neo4j container
	tcpBoltPort, err := nat.NewPort("tcp", "7687")
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to create bolt port")
	}
	graphContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        getenvDefault("GRAPH_IMAGE", "neo4j:5"),
			ExposedPorts: []string{string(tcpBoltPort)},
			Env: map[string]string{
				"NEO4J_AUTH": fmt.Sprintf("%s/%s",
					getenvDefault("GRAPH_USER", "neo4j"),
					getenvDefault("GRAPH_PASSWORD", "testpassword")),
			},
			WaitingFor: wait.ForListeningPort(tcpBoltPort).WithStartupTimeout(120 * time.Second),
			Networks:   []string{networkName},
			NetworkAliases: map[string][]string{
				networkName: {"graph"},
			},
		},
		Started: true,
	})
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start Neo4j")
	}
	testContainers.GraphContainer = graphContainer

	graphHost, _ := graphContainer.Host(ctx)
	graphPort, _ := graphContainer.MappedPort(ctx, tcpBoltPort)
	testContainers.GraphURI = fmt.Sprintf("bolt://%s:%s", graphHost, graphPort.Port())

	logMessage(t, "DB=%s:%s GRAPH=%s", testContainers.DBHost, testContainers.DBPort, testContainers.GraphURI)
	logMessage(t, "Test containers started successfully")
	return testContainers, nil
}

// waitForPostgres pings until the server accepts authenticated connections;
// the listening port opens before initdb finishes
func waitForPostgres(tc *TestContainers) error {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getenvDefault("DB_USER", "bistro"),
		getenvDefault("DB_PASSWORD", "bistro"),
		tc.DBHost, tc.DBPort,
		getenvDefault("DB_DATABASE", "bistro_test"))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	for i := 0; i < 30; i++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(1 * time.Second)
	}
	return fmt.Errorf("postgres not ready after 30 seconds: %w", err)
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func exitWithError(t *testing.T, err error, msg string) {
	if t != nil {
		t.Fatalf(msg+": %v", err)
	} else {
		fmt.Printf(msg+": %v\n", err)
		os.Exit(1)
	}
}

func logMessage(t *testing.T, format string, args ...any) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
