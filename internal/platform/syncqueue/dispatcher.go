package syncqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// IdempotencyKeyHeader carries the item's key so the server can deduplicate
// a replay that was already applied.
const IdempotencyKeyHeader = "Idempotency-Key"

// HTTPDispatcher replays queued operations as REST calls against a remote
// MedLogs API.
type HTTPDispatcher struct {
	baseURL string
	client  *http.Client
	token   string
}

func NewHTTPDispatcher(baseURL, token string) *HTTPDispatcher {
	return &HTTPDispatcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		token:   token,
	}
}

// idRef is the slice of a payload the dispatcher needs for URL building.
type idRef struct {
	ID string `json:"id"`
}

func (d *HTTPDispatcher) Dispatch(ctx context.Context, item *Item) error {
	var ref idRef
	// Payload id is optional for creates.
	_ = json.Unmarshal(item.Payload, &ref)

	var method, path string
	switch item.Type {
	case TypeRecordCreate:
		method, path = http.MethodPost, "/api/v1/records"
	case TypeRecordUpdate:
		method, path = http.MethodPut, "/api/v1/records/"+ref.ID
	case TypeRecordDelete:
		method, path = http.MethodDelete, "/api/v1/records/"+ref.ID
	case TypeRecordAttend:
		method, path = http.MethodPost, "/api/v1/records/"+ref.ID+"/attend"
	case TypeRecordCancel:
		method, path = http.MethodPost, "/api/v1/records/"+ref.ID+"/cancel"
	default:
		return fmt.Errorf("unknown sync item type %q", item.Type)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, bytes.NewReader(item.Payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdempotencyKeyHeader, item.IdempotencyKey.String())
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		return fmt.Errorf("%s %s: %d: %s", method, path, resp.StatusCode, apiErr.Message)
	}
	return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
}
