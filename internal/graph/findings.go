package graph

import (
	"context"
	"log"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// SharedIPFinding reports an IP address used by more than one distinct user
type SharedIPFinding struct {
	IPAddress string   `json:"ip_address"`
	Usernames []string `json:"usernames"`
}

// CityMismatchFinding reports a user whose detected city disagrees with the
// city currently registered for them
type CityMismatchFinding struct {
	Username       string `json:"username"`
	RegisteredCity string `json:"registered_city"`
	DetectedCity   string `json:"detected_city"`
	IPAddress      string `json:"ip_address"`
}

// SharedIPs scans the graph for IPs shared across users. Findings are
// recomputed on every call; nothing is persisted. If the store is
// unreachable the dashboard degrades to "no alerts": empty result, nil error.
func (s *Store) SharedIPs(ctx context.Context) []SharedIPFinding {
	const query = "MATCH (u:User)-[:USED_IP]->(ip:IPAddress) " +
		"WITH ip, collect(DISTINCT u.username) AS users " +
		"WHERE size(users) > 1 " +
		"RETURN ip.address AS ip, users ORDER BY ip"

	result, err := neo4j.ExecuteQuery(ctx, s.driver, query, nil,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		log.Printf("graph: shared-IP scan failed: %v", err)
		return []SharedIPFinding{}
	}

	findings := make([]SharedIPFinding, 0, len(result.Records))
	for _, rec := range result.Records {
		findings = append(findings, SharedIPFinding{
			IPAddress: recordString(rec, "ip"),
			Usernames: recordStrings(rec, "users"),
		})
	}
	return findings
}

// CityMismatches scans the graph for users whose detected order city differs
// from their currently registered city. Same degradation policy as SharedIPs.
func (s *Store) CityMismatches(ctx context.Context) []CityMismatchFinding {
	const query = "MATCH (u:User)-[:REGISTERED_IN]->(reg:City), " +
		"(u)-[:USED_IP]->(ip:IPAddress)-[:FROM_CITY]->(det:City) " +
		"WHERE reg.name <> det.name " +
		"RETURN u.username AS username, reg.name AS registered_city, " +
		"det.name AS detected_city, ip.address AS ip ORDER BY username"

	result, err := neo4j.ExecuteQuery(ctx, s.driver, query, nil,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		log.Printf("graph: city-mismatch scan failed: %v", err)
		return []CityMismatchFinding{}
	}

	findings := make([]CityMismatchFinding, 0, len(result.Records))
	for _, rec := range result.Records {
		findings = append(findings, CityMismatchFinding{
			Username:       recordString(rec, "username"),
			RegisteredCity: recordString(rec, "registered_city"),
			DetectedCity:   recordString(rec, "detected_city"),
			IPAddress:      recordString(rec, "ip"),
		})
	}
	return findings
}

// recordString extracts a string field from a record, tolerating absence
func recordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// recordStrings extracts a list-of-strings field from a record
func recordStrings(rec *neo4j.Record, key string) []string {
	v, ok := rec.Get(key)
	if !ok {
		return nil
	}
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
