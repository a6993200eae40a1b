package emay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SendForm posts fields URL-encoded and unencrypted. Empty values are not sent.
// Only HTTP 200 is SUCCESS; this endpoint does not use the result header.
func (t *Transport) SendForm(ctx context.Context, endpoint string, fields map[string]string, timeout time.Duration) Result[FormReply] {
	form := url.Values{}
	for k, v := range fields {
		if v != "" {
			form.Set(k, v)
		}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		t.log.Error("build form request", zap.String("url", endpoint), zap.Error(err))
		return Result[FormReply]{Code: System}
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := t.client.Do(req)
	if err != nil {
		t.logTransportErr(ctx, endpoint, err)
		return Result[FormReply]{Code: System}
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.log.Warn("form status", zap.String("url", endpoint), zap.Int("status", res.StatusCode))
		return Result[FormReply]{Code: System}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.logTransportErr(ctx, endpoint, err)
		return Result[FormReply]{Code: System}
	}

	reply := FormReply{Text: string(body)}
	if len(body) > 0 && json.Valid(body) {
		reply.JSON = json.RawMessage(body)
	}

	return Result[FormReply]{Code: Success, Result: &reply}
}
