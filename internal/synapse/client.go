package synapse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"
)

// StorageService is the slice of the Synapse storage network the pipeline
// needs: cost estimation, piece upload and retrieval.
type StorageService interface {
	PreflightUpload(ctx context.Context, size int64) (*PreflightResult, error)
	Upload(ctx context.Context, data []byte) (string, error)
	Download(ctx context.Context, pieceCid string) ([]byte, error)
	PieceURL(pieceCid string) string
}

// Costs is an estimated storage cost in attoUSDFC at three granularities.
type Costs struct {
	PerEpoch *big.Int
	PerDay   *big.Int
	PerMonth *big.Int
}

type PreflightResult struct {
	EstimatedCost       Costs
	AllowanceSufficient bool
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type preflightRequest struct {
	Size int64 `json:"size"`
}

type preflightResponse struct {
	EstimatedCost struct {
		PerEpoch string `json:"perEpoch"`
		PerDay   string `json:"perDay"`
		PerMonth string `json:"perMonth"`
	} `json:"estimatedCost"`
	AllowanceCheck struct {
		Sufficient bool `json:"sufficient"`
	} `json:"allowanceCheck"`
}

type uploadResponse struct {
	PieceCID string `json:"pieceCid"`
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// PreflightUpload estimates the storage cost for a payload of the given
// size and reports whether current allowances already cover it.
func (c *Client) PreflightUpload(ctx context.Context, size int64) (*PreflightResult, error) {
	jsonData, err := json.Marshal(preflightRequest{Size: size})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/preflight", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to preflight upload: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result preflightResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	costs, err := parseCosts(result.EstimatedCost.PerEpoch, result.EstimatedCost.PerDay, result.EstimatedCost.PerMonth)
	if err != nil {
		return nil, err
	}

	return &PreflightResult{
		EstimatedCost:       *costs,
		AllowanceSufficient: result.AllowanceCheck.Sufficient,
	}, nil
}

// Upload submits raw bytes to the storage network and returns the piece CID.
func (c *Client) Upload(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/piece", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("failed to upload piece: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result uploadResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	if result.PieceCID == "" {
		return "", fmt.Errorf("pieceCid is empty in response, body: %s", string(body))
	}

	return result.PieceCID, nil
}

// Download retrieves a stored piece by CID.
func (c *Client) Download(ctx context.Context, pieceCid string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.PieceURL(pieceCid), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to download piece: status %d, body: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func (c *Client) PieceURL(pieceCid string) string {
	return c.baseURL + "/piece/" + pieceCid
}

func parseCosts(perEpoch, perDay, perMonth string) (*Costs, error) {
	costs := &Costs{}
	for _, f := range []struct {
		raw  string
		dest **big.Int
	}{
		{perEpoch, &costs.PerEpoch},
		{perDay, &costs.PerDay},
		{perMonth, &costs.PerMonth},
	} {
		v, ok := new(big.Int).SetString(f.raw, 10)
		if !ok {
			return nil, fmt.Errorf("invalid cost value %q in preflight response", f.raw)
		}
		*f.dest = v
	}
	return costs, nil
}
