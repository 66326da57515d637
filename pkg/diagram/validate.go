package diagram

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/archflow/pkg/errors"
)

// edgeNamespace seeds deterministic ids for edges submitted without one.
var edgeNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("archflow.edge"))

// Issue is a non-fatal problem found while normalizing a document.
type Issue struct {
	Code    errors.Code `json:"code"`
	EdgeID  string      `json:"edgeId,omitempty"`
	NodeID  string      `json:"nodeId,omitempty"`
	Message string      `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Code, i.Message)
}

// Normalize validates a document at the boundary and returns a cleaned copy.
//
// Schema violations (empty or duplicate node ids, unknown node types or
// shapes, a bad rankdir, duplicate edge ids) are returned as *errors.Error.
// Edges whose source or target names no node are dropped and reported as
// issues; with strict set, the first such edge is an error instead.
// Edges without an id receive a deterministic one derived from their
// endpoints and position.
func Normalize(d Data, strict bool) (Data, []Issue, error) {
	out := d.Clone()

	rd, err := ParseRankdir(string(d.Rankdir))
	if err != nil {
		return Data{}, nil, err
	}
	out.Rankdir = rd

	known := make(map[string]bool, len(out.Nodes))
	for i := range out.Nodes {
		n := &out.Nodes[i]
		if err := errors.ValidateID("node", n.ID); err != nil {
			return Data{}, nil, err
		}
		if known[n.ID] {
			return Data{}, nil, errors.New(errors.ErrCodeDuplicateID, "duplicate node id %q", n.ID)
		}
		known[n.ID] = true

		if n.Type == "" {
			n.Type = TypeComponent
		}
		if !ValidNodeTypes[n.Type] {
			return Data{}, nil, errors.New(errors.ErrCodeInvalidNodeType,
				"node %q has unknown type %q (valid: component, external, datastore, custom)", n.ID, n.Type)
		}
		if n.Shape != "" && !ValidShapes[n.Shape] {
			return Data{}, nil, errors.New(errors.ErrCodeInvalidInput, "node %q has unknown shape %q", n.ID, n.Shape)
		}
	}

	var issues []Issue
	seenEdges := make(map[string]bool, len(out.Edges))
	edges := out.Edges[:0]
	for i, e := range out.Edges {
		if e.ID == "" {
			e.ID = EdgeID(e.Source, e.Target, i)
		}
		if seenEdges[e.ID] {
			return Data{}, nil, errors.New(errors.ErrCodeDuplicateID, "duplicate edge id %q", e.ID)
		}
		seenEdges[e.ID] = true

		if missing := missingEndpoint(e, known); missing != "" {
			if strict {
				return Data{}, nil, errors.New(errors.ErrCodeInvalidReference,
					"edge %q references unknown node %q", e.ID, missing)
			}
			issues = append(issues, Issue{
				Code:    errors.ErrCodeInvalidReference,
				EdgeID:  e.ID,
				NodeID:  missing,
				Message: fmt.Sprintf("edge %q dropped: unknown node %q", e.ID, missing),
			})
			continue
		}
		edges = append(edges, e)
	}
	out.Edges = edges

	return out, issues, nil
}

// EdgeID returns the deterministic id assigned to an anonymous edge.
func EdgeID(source, target string, index int) string {
	name := fmt.Sprintf("%s\x00%s\x00%d", source, target, index)
	return uuid.NewSHA1(edgeNamespace, []byte(name)).String()
}

// ParseRankdir parses a rank direction; the empty string means [RankdirTB].
func ParseRankdir(s string) (Rankdir, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "TB":
		return RankdirTB, nil
	case "LR":
		return RankdirLR, nil
	}
	return "", errors.New(errors.ErrCodeInvalidRankdir, "invalid rankdir %q (valid: TB, LR)", s)
}

func missingEndpoint(e Edge, known map[string]bool) string {
	if !known[e.Source] {
		return e.Source
	}
	if !known[e.Target] {
		return e.Target
	}
	return ""
}
