package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Store talks to the Neo4j graph that mirrors order activity as
// User/Email/IPAddress/City vertices and their relationships. All writes are
// idempotent MERGEs keyed by natural identity, so replaying an event never
// duplicates vertices or edges.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

// statement is a Cypher query with its parameters
type statement struct {
	query  string
	params map[string]any
}

// NewStore creates a graph store and verifies connectivity
func NewStore(ctx context.Context, uri, username, password, database string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create graph driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to graph store: %w", err)
	}

	return &Store{driver: driver, database: database}, nil
}

// Close releases the underlying driver
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// EnsureSchema creates the uniqueness constraints backing the natural keys.
// Safe to run on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	constraints := []string{
		"CREATE CONSTRAINT user_username IF NOT EXISTS FOR (u:User) REQUIRE u.username IS UNIQUE",
		"CREATE CONSTRAINT email_address IF NOT EXISTS FOR (e:Email) REQUIRE e.address IS UNIQUE",
		"CREATE CONSTRAINT ip_address IF NOT EXISTS FOR (ip:IPAddress) REQUIRE ip.address IS UNIQUE",
		"CREATE CONSTRAINT city_name IF NOT EXISTS FOR (c:City) REQUIRE c.name IS UNIQUE",
	}
	for _, c := range constraints {
		if err := s.run(ctx, statement{query: c}); err != nil {
			return fmt.Errorf("failed to ensure graph schema: %w", err)
		}
	}
	return nil
}

// OrderEvent describes one committed order for graph recording
type OrderEvent struct {
	Username       string
	Email          string
	RegisteredCity string
	IPAddress      string
	DetectedCity   string
	OrderID        uint
}

// RecordOrder upserts the vertices and relationships for one order event.
// It is called after the relational commit, on the driver's own session; the
// caller treats any error as best-effort (logged, never rolled back into the
// order).
func (s *Store) RecordOrder(ctx context.Context, ev OrderEvent) error {
	for _, stmt := range orderStatements(ev) {
		if err := s.run(ctx, stmt); err != nil {
			return fmt.Errorf("graph upsert failed for order %d: %w", ev.OrderID, err)
		}
	}
	return nil
}

// orderStatements builds the idempotent upsert sequence for one order event.
// Vertices are keyed by a single natural-key property each; the registered
// city is kept current on the User vertex. Edge uniqueness is uniform across
// edge types: one edge per (type, source, target), with USED_IP carrying
// first/last order ids and a running count instead of one edge per order.
func orderStatements(ev OrderEvent) []statement {
	return []statement{
		{
			query: "MERGE (u:User {username: $username}) SET u.city = $registeredCity",
			params: map[string]any{
				"username":       ev.Username,
				"registeredCity": ev.RegisteredCity,
			},
		},
		{
			query:  "MERGE (e:Email {address: $email})",
			params: map[string]any{"email": ev.Email},
		},
		{
			query:  "MERGE (ip:IPAddress {address: $ip})",
			params: map[string]any{"ip": ev.IPAddress},
		},
		{
			query:  "MERGE (c:City {name: $city})",
			params: map[string]any{"city": ev.DetectedCity},
		},
		{
			query:  "MERGE (c:City {name: $city})",
			params: map[string]any{"city": ev.RegisteredCity},
		},
		{
			query: "MATCH (u:User {username: $username}), (e:Email {address: $email}) " +
				"MERGE (u)-[:HAS_EMAIL]->(e)",
			params: map[string]any{"username": ev.Username, "email": ev.Email},
		},
		{
			query: "MATCH (u:User {username: $username}), (ip:IPAddress {address: $ip}) " +
				"MERGE (u)-[r:USED_IP]->(ip) " +
				"ON CREATE SET r.first_order_id = $orderID, r.order_count = 0 " +
				"SET r.last_order_id = $orderID, r.order_count = r.order_count + 1",
			params: map[string]any{
				"username": ev.Username,
				"ip":       ev.IPAddress,
				"orderID":  int64(ev.OrderID),
			},
		},
		{
			query: "MATCH (ip:IPAddress {address: $ip}), (c:City {name: $city}) " +
				"MERGE (ip)-[:FROM_CITY]->(c)",
			params: map[string]any{"ip": ev.IPAddress, "city": ev.DetectedCity},
		},
		{
			query: "MATCH (u:User {username: $username}), (c:City {name: $city}) " +
				"MERGE (u)-[:REGISTERED_IN]->(c)",
			params: map[string]any{"username": ev.Username, "city": ev.RegisteredCity},
		},
	}
}

// run executes one statement against the configured database
func (s *Store) run(ctx context.Context, stmt statement) error {
	_, err := neo4j.ExecuteQuery(ctx, s.driver, stmt.query, stmt.params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database))
	return err
}
