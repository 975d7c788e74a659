package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vitos/perp_leverage_bot/internal/domain"
)

// HTTPBridge polls the policy sidecar for the per-cycle signal. The sidecar
// owns the model and its retraining; this client only reads
// GET {base}/signal -> {"target_leverage": float, "training": bool}.
type HTTPBridge struct {
	baseURL string
	client  *http.Client
}

func NewHTTPBridge(baseURL string) *HTTPBridge {
	return &HTTPBridge{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (b *HTTPBridge) NextSignal(ctx context.Context) (*domain.PolicySignal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/signal", nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("policy request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("policy status %d: %s", resp.StatusCode, string(body))
	}

	var signal domain.PolicySignal
	if err := json.Unmarshal(body, &signal); err != nil {
		return nil, fmt.Errorf("policy payload: %w", err)
	}
	return &signal, nil
}
