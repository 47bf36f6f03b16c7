package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/onpaj/heblo/internal/warehouse/entity"
)

// PickingListRequest is sent to the external picking-list generator.
type PickingListRequest struct {
	BoxID   string            `json:"box_id"`
	BoxCode string            `json:"box_code"`
	Items   []PickingListItem `json:"items"`
}

type PickingListItem struct {
	ProductCode string          `json:"product_code"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// PickingListResult carries the generated list with per-line pick status.
type PickingListResult struct {
	Lines []PickingResultLine `json:"lines"`
}

type PickingResultLine struct {
	ProductCode string          `json:"product_code"`
	Quantity    decimal.Decimal `json:"quantity"`
	Picked      bool            `json:"picked"`
}

// PickingListGenerator produces the list of items to pick for a box. The
// implementation lives outside the engine; failures must leave box state
// untouched.
type PickingListGenerator interface {
	CreatePickingList(ctx context.Context, req PickingListRequest) (*PickingListResult, error)
}

// HTTPPickingClient calls a remote picking-list service.
type HTTPPickingClient struct {
	endpoint string
	client   *http.Client
}

func NewHTTPPickingClient(endpoint string, timeout time.Duration) *HTTPPickingClient {
	return &HTTPPickingClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

var _ PickingListGenerator = (*HTTPPickingClient)(nil)

func (c *HTTPPickingClient) CreatePickingList(ctx context.Context, req PickingListRequest) (*PickingListResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode picking request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build picking request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("picking service: %v: %w", err, entity.ErrExternalDependencyFailure)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("picking service returned %d: %w", resp.StatusCode, entity.ErrExternalDependencyFailure)
	}

	var result PickingListResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode picking response: %v: %w", err, entity.ErrExternalDependencyFailure)
	}
	return &result, nil
}
