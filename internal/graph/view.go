package graph

import (
	"context"
	"fmt"
	"log"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ViewNode is one vertex of the dashboard graph rendering
type ViewNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group"`
	Title string `json:"title,omitempty"`
}

// ViewEdge is one relationship of the dashboard graph rendering
type ViewEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

// View is a renderable snapshot of the whole identity graph
type View struct {
	Nodes []ViewNode `json:"nodes"`
	Edges []ViewEdge `json:"edges"`
}

// Snapshot reads the full graph into a node/edge view for the operator
// dashboard. Node ids are label-qualified key values so the client needs no
// knowledge of internal vertex ids. Degrades to an empty view on failure.
func (s *Store) Snapshot(ctx context.Context) View {
	view := View{Nodes: []ViewNode{}, Edges: []ViewEdge{}}

	const nodeQuery = "MATCH (n) RETURN labels(n)[0] AS label, " +
		"coalesce(n.username, n.address, n.name) AS key, properties(n) AS props"

	result, err := neo4j.ExecuteQuery(ctx, s.driver, nodeQuery, nil,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		log.Printf("graph: node snapshot failed: %v", err)
		return view
	}

	for _, rec := range result.Records {
		label := recordString(rec, "label")
		key := recordString(rec, "key")
		if label == "" || key == "" {
			continue
		}
		node := ViewNode{
			ID:    nodeID(label, key),
			Label: key,
			Group: label,
		}
		if props, ok := rec.Get("props"); ok {
			if m, ok := props.(map[string]any); ok {
				if city, ok := m["city"].(string); ok && city != "" {
					node.Title = fmt.Sprintf("registered city: %s", city)
				}
			}
		}
		view.Nodes = append(view.Nodes, node)
	}

	const edgeQuery = "MATCH (a)-[r]->(b) RETURN labels(a)[0] AS from_label, " +
		"coalesce(a.username, a.address, a.name) AS from_key, " +
		"type(r) AS rel, " +
		"labels(b)[0] AS to_label, " +
		"coalesce(b.username, b.address, b.name) AS to_key"

	result, err = neo4j.ExecuteQuery(ctx, s.driver, edgeQuery, nil,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		log.Printf("graph: edge snapshot failed: %v", err)
		return view
	}

	for _, rec := range result.Records {
		view.Edges = append(view.Edges, ViewEdge{
			From:  nodeID(recordString(rec, "from_label"), recordString(rec, "from_key")),
			To:    nodeID(recordString(rec, "to_label"), recordString(rec, "to_key")),
			Label: recordString(rec, "rel"),
		})
	}

	return view
}

func nodeID(label, key string) string {
	return label + ":" + key
}
