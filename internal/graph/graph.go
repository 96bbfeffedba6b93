package graph

import (
	"encoding/json"
	"fmt"
)

// Node types on the canvas.
const (
	TypeLoadImage      = "loadImage"
	TypeImageGenerator = "imageGenerator"
	TypePreviewImage   = "previewImage"
	TypePreviewAny     = "previewAny"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData holds the per-node canvas state. Which fields are meaningful
// depends on the node type: loadImage nodes carry ImageURL, generator
// nodes carry Prompt plus generation parameters and set ImageURL when a
// result arrives, preview nodes mirror whatever their upstream produced.
type NodeData struct {
	Label          string `json:"label,omitempty"`
	Prompt         string `json:"prompt,omitempty"`
	ImageURL       string `json:"imageUrl,omitempty"`
	Value          string `json:"value,omitempty"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
	Version        string `json:"image_generator_version,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	IsGenerating   bool   `json:"isGenerating,omitempty"`
}

type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Document is a wallet's canvas: the full node and edge set, serialized
// as one JSON blob.
type Document struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

var validTypes = map[string]bool{
	TypeLoadImage:      true,
	TypeImageGenerator: true,
	TypePreviewImage:   true,
	TypePreviewAny:     true,
}

// Graph wraps a document with an index for lookups and propagation.
type Graph struct {
	doc Document

	nodesByID map[string]*Node
	// outgoing indexes edges by source node ID so propagation walks only
	// the affected subtree instead of rescanning the full edge list.
	outgoing map[string][]*Edge
}

// Load validates a document and builds the indexes.
func Load(doc Document) (*Graph, error) {
	g := &Graph{
		doc:       doc,
		nodesByID: make(map[string]*Node, len(doc.Nodes)),
		outgoing:  make(map[string][]*Edge, len(doc.Edges)),
	}

	for i := range g.doc.Nodes {
		n := &g.doc.Nodes[i]
		if n.ID == "" {
			return nil, fmt.Errorf("node at index %d has no id", i)
		}
		if !validTypes[n.Type] {
			return nil, fmt.Errorf("node %s has unknown type %q", n.ID, n.Type)
		}
		if _, exists := g.nodesByID[n.ID]; exists {
			return nil, fmt.Errorf("duplicate node id %s", n.ID)
		}
		g.nodesByID[n.ID] = n
	}

	for i := range g.doc.Edges {
		e := &g.doc.Edges[i]
		if _, ok := g.nodesByID[e.Source]; !ok {
			return nil, fmt.Errorf("edge %s references unknown source node %s", e.ID, e.Source)
		}
		if _, ok := g.nodesByID[e.Target]; !ok {
			return nil, fmt.Errorf("edge %s references unknown target node %s", e.ID, e.Target)
		}
		g.outgoing[e.Source] = append(g.outgoing[e.Source], e)
	}

	return g, nil
}

// Parse decodes and validates a serialized document.
func Parse(data []byte) (*Graph, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode canvas document: %w", err)
	}
	return Load(doc)
}

// Document returns the current state for persistence.
func (g *Graph) Document() Document {
	return g.doc
}

// Encode serializes the current state.
func (g *Graph) Encode() ([]byte, error) {
	data, err := json.Marshal(g.doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode canvas document: %w", err)
	}
	return data, nil
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id string) *Node {
	return g.nodesByID[id]
}

// SetOutput records a node's output and propagates it downstream,
// returning the IDs of every node that changed (the source first). The
// walk follows the adjacency index and tracks visited nodes, so cyclic
// connections terminate.
func (g *Graph) SetOutput(nodeID, output string) ([]string, error) {
	node, ok := g.nodesByID[nodeID]
	if !ok {
		return nil, fmt.Errorf("node %s not found", nodeID)
	}

	setOutput(node, output)

	visited := map[string]bool{nodeID: true}
	updated := []string{nodeID}

	queue := []string{nodeID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, edge := range g.outgoing[current] {
			if visited[edge.Target] {
				continue
			}
			visited[edge.Target] = true

			target := g.nodesByID[edge.Target]
			applyInput(target, output)
			updated = append(updated, target.ID)
			queue = append(queue, target.ID)
		}
	}

	return updated, nil
}

func setOutput(n *Node, output string) {
	switch n.Type {
	case TypeLoadImage, TypeImageGenerator, TypePreviewImage:
		n.Data.ImageURL = output
	default:
		n.Data.Value = output
	}
	n.Data.IsGenerating = false
}

// applyInput copies the upstream output into the field the receiving node
// type reads from.
func applyInput(n *Node, output string) {
	switch n.Type {
	case TypeImageGenerator:
		// A connected image feeds the generator as its base image.
		n.Data.ImageURL = output
	case TypePreviewImage:
		n.Data.ImageURL = output
	case TypePreviewAny:
		n.Data.Value = output
	case TypeLoadImage:
		n.Data.ImageURL = output
	}
}
