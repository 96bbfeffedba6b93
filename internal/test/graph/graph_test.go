package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"base0-backend/internal/graph"
)

func canvasDoc() graph.Document {
	return graph.Document{
		Nodes: []graph.Node{
			{ID: "loader", Type: graph.TypeLoadImage},
			{ID: "gen", Type: graph.TypeImageGenerator, Data: graph.NodeData{Prompt: "a cat"}},
			{ID: "preview", Type: graph.TypePreviewImage},
			{ID: "any", Type: graph.TypePreviewAny},
		},
		Edges: []graph.Edge{
			{ID: "e1", Source: "loader", Target: "gen"},
			{ID: "e2", Source: "gen", Target: "preview"},
			{ID: "e3", Source: "gen", Target: "any"},
		},
	}
}

func TestLoad_RejectsUnknownNodeType(t *testing.T) {
	_, err := graph.Load(graph.Document{
		Nodes: []graph.Node{{ID: "x", Type: "mystery"}},
	})
	assert.ErrorContains(t, err, "unknown type")
}

func TestLoad_RejectsDanglingEdge(t *testing.T) {
	_, err := graph.Load(graph.Document{
		Nodes: []graph.Node{{ID: "a", Type: graph.TypeLoadImage}},
		Edges: []graph.Edge{{ID: "e", Source: "a", Target: "missing"}},
	})
	assert.ErrorContains(t, err, "unknown target node")
}

func TestLoad_RejectsDuplicateNodeID(t *testing.T) {
	_, err := graph.Load(graph.Document{
		Nodes: []graph.Node{
			{ID: "a", Type: graph.TypeLoadImage},
			{ID: "a", Type: graph.TypePreviewAny},
		},
	})
	assert.ErrorContains(t, err, "duplicate node id")
}

func TestSetOutput_PropagatesDownstream(t *testing.T) {
	g, err := graph.Load(canvasDoc())
	require.NoError(t, err)

	updated, err := g.SetOutput("gen", "https://cdn.test/img.png")
	require.NoError(t, err)

	assert.Equal(t, []string{"gen", "preview", "any"}, updated)
	assert.Equal(t, "https://cdn.test/img.png", g.Node("gen").Data.ImageURL)
	assert.Equal(t, "https://cdn.test/img.png", g.Node("preview").Data.ImageURL)
	assert.Equal(t, "https://cdn.test/img.png", g.Node("any").Data.Value)
	// Upstream nodes are untouched.
	assert.Empty(t, g.Node("loader").Data.ImageURL)
}

func TestSetOutput_LoaderFeedsGenerator(t *testing.T) {
	g, err := graph.Load(canvasDoc())
	require.NoError(t, err)

	updated, err := g.SetOutput("loader", "data:image/png;base64,aGk=")
	require.NoError(t, err)

	// The full downstream chain receives the image.
	assert.Equal(t, []string{"loader", "gen", "preview", "any"}, updated)
	assert.Equal(t, "data:image/png;base64,aGk=", g.Node("gen").Data.ImageURL)
	assert.Equal(t, "a cat", g.Node("gen").Data.Prompt)
}

func TestSetOutput_CycleTerminates(t *testing.T) {
	g, err := graph.Load(graph.Document{
		Nodes: []graph.Node{
			{ID: "a", Type: graph.TypeImageGenerator},
			{ID: "b", Type: graph.TypePreviewImage},
		},
		Edges: []graph.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "b", Target: "a"},
		},
	})
	require.NoError(t, err)

	updated, err := g.SetOutput("a", "out")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, updated)
}

func TestSetOutput_UnknownNode(t *testing.T) {
	g, err := graph.Load(canvasDoc())
	require.NoError(t, err)

	_, err = g.SetOutput("ghost", "out")
	assert.ErrorContains(t, err, "not found")
}

func TestEncodeParse_RoundTrip(t *testing.T) {
	g, err := graph.Load(canvasDoc())
	require.NoError(t, err)

	data, err := g.Encode()
	require.NoError(t, err)

	g2, err := graph.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, g.Document(), g2.Document())
}
