package fbr

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// SubmissionResult is what a successful FBR submission hands back: the
// reference issued by the authority and the raw response body for archival.
type SubmissionResult struct {
	Reference   string
	RawResponse json.RawMessage
}

// Client submits a compliance document to the FBR API. The invoice service
// only transitions draft → submitted when Submit returns without error; a
// failed submission leaves the invoice editable and retryable.
type Client interface {
	Submit(ctx context.Context, doc Document) (SubmissionResult, error)
}

// SandboxClient stands in for the real FBR endpoint. It accepts every
// document and issues a reference derived from the invoice ref number.
type SandboxClient struct{}

func NewSandboxClient() *SandboxClient {
	return &SandboxClient{}
}

func (c *SandboxClient) Submit(_ context.Context, doc Document) (SubmissionResult, error) {
	reference := fmt.Sprintf("FBR-%s", doc.InvoiceRefNo)

	raw, err := json.Marshal(map[string]any{
		"status":        "submitted",
		"fbr_reference": reference,
		"submitted_at":  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return SubmissionResult{}, fmt.Errorf("failed to encode sandbox response: %w", err)
	}

	return SubmissionResult{Reference: reference, RawResponse: raw}, nil
}
