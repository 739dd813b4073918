package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() OrderEvent {
	return OrderEvent{
		Username:       "alice",
		Email:          "alice@example.com",
		RegisteredCity: "Paris",
		IPAddress:      "81.2.69.142",
		DetectedCity:   "London",
		OrderID:        7,
	}
}

func TestOrderStatementsAreParameterized(t *testing.T) {
	stmts := orderStatements(testEvent())
	require.Len(t, stmts, 9)

	for _, stmt := range stmts {
		// No literal values leak into query text
		assert.NotContains(t, stmt.query, "alice")
		assert.NotContains(t, stmt.query, "81.2.69.142")
		assert.NotContains(t, stmt.query, "Paris")
		assert.NotContains(t, stmt.query, "London")

		// Every referenced parameter is bound
		for name := range stmt.params {
			assert.Contains(t, stmt.query, "$"+name, "query %q missing $%s", stmt.query, name)
		}
	}
}

func TestOrderStatementsUpsertShape(t *testing.T) {
	stmts := orderStatements(testEvent())

	// Every statement either MERGEs directly or MATCHes endpoints then MERGEs
	// the relationship; nothing uses CREATE, so replays cannot duplicate
	for _, stmt := range stmts {
		assert.Contains(t, stmt.query, "MERGE", stmt.query)
		assert.NotContains(t, stmt.query, "CREATE ", stmt.query)
	}

	var vertexMerges, edgeMerges int
	for _, stmt := range stmts {
		if strings.HasPrefix(stmt.query, "MATCH") {
			edgeMerges++
		} else {
			vertexMerges++
		}
	}
	assert.Equal(t, 5, vertexMerges, "User, Email, IPAddress and both City vertices")
	assert.Equal(t, 4, edgeMerges, "HAS_EMAIL, USED_IP, FROM_CITY, REGISTERED_IN")
}

func TestOrderStatementsUsedIPCounters(t *testing.T) {
	stmts := orderStatements(testEvent())

	var usedIP *statement
	for i := range stmts {
		if strings.Contains(stmts[i].query, "USED_IP") {
			usedIP = &stmts[i]
		}
	}
	require.NotNil(t, usedIP)

	assert.Contains(t, usedIP.query, "ON CREATE SET r.first_order_id = $orderID")
	assert.Contains(t, usedIP.query, "r.order_count = r.order_count + 1")
	assert.Equal(t, int64(7), usedIP.params["orderID"], "order id passed as int64 for the bolt protocol")
}

func TestOrderStatementsRefreshRegisteredCity(t *testing.T) {
	stmts := orderStatements(testEvent())

	// The User vertex is keyed by username alone; the city is refreshed so a
	// re-registered city shows up on the next order
	assert.Contains(t, stmts[0].query, "MERGE (u:User {username: $username})")
	assert.Contains(t, stmts[0].query, "SET u.city = $registeredCity")
	assert.Equal(t, "Paris", stmts[0].params["registeredCity"])
}
