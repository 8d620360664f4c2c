package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// Send POSTs body as JSON to path and decodes a 200 response into out.
// Rate-limited and overloaded responses are retried under the backoff policy;
// every other failure returns immediately as a *core.Error.
func (t *Transport) Send(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return newDecodeError(err, "")
	}
	return t.roundTrip(ctx, http.MethodPost, path, payload, out)
}

// Get issues a GET to path and decodes a 200 response into out, with the same
// classification and retry behavior as Send.
func (t *Transport) Get(ctx context.Context, path string, out any) error {
	return t.roundTrip(ctx, http.MethodGet, path, nil, out)
}

func (t *Transport) roundTrip(ctx context.Context, method, path string, payload []byte, out any) error {
	c := t.startCall(ctx, method, path, false)
	defer c.span.End()

	err := t.retry(c.ctx, c, func() error {
		resp, err := t.attempt(c.ctx, c, payload)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return newNetworkError(err)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return newDecodeError(err, c.requestID)
		}
		return nil
	})

	t.finishCall(c, err)
	return err
}
