package emay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmehdipour/emay-gateway/internal/emay/codec"
	"go.uber.org/zap"
)

const (
	headerResult     = "result"
	headerRemoteSign = "SDK"
)

// ErrUnexpectedDecode means the gateway declared SUCCESS but sent a body we could not decode.
var ErrUnexpectedDecode = errors.New("emay: unexpected decode failure on success response")

// EncryptedCall holds the per-call parameters of the encrypted channel.
type EncryptedCall struct {
	URL     string
	AppID   string
	Key     []byte
	Timeout time.Duration
}

type Transport struct {
	client *http.Client
	log    *zap.Logger
}

func NewTransport(client *http.Client, log *zap.Logger) *Transport {
	if client == nil {
		client = &http.Client{}
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Transport{client: client, log: log}
}

// SendEncrypted posts envelope as an encrypted frame and decodes a SUCCESS body into out.
// Every failure except a broken SUCCESS body is reported as a code, with a nil error.
func (t *Transport) SendEncrypted(ctx context.Context, call EncryptedCall, envelope any, out any) (Code, error) {
	frame, err := codec.EncodeOutbound(envelope, call.Key)
	if err != nil {
		t.log.Error("encode request", zap.String("url", call.URL), zap.Error(err))
		return System, nil
	}

	if call.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, call.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, call.URL, bytes.NewReader(frame))
	if err != nil {
		t.log.Error("build request", zap.String("url", call.URL), zap.Error(err))
		return System, nil
	}

	req.Header.Set("Content-Type", "application/octet-stream")
	// the gateway expects these names verbatim, so bypass canonicalization
	req.Header["appId"] = []string{call.AppID}
	req.Header["encode"] = []string{"UTF-8"}
	req.Header["gzip"] = []string{"on"}
	req.Header["remoteSign"] = []string{headerRemoteSign}

	res, err := t.client.Do(req)
	if err != nil {
		t.logTransportErr(ctx, call.URL, err)
		return System, nil
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.log.Warn("gateway status", zap.String("url", call.URL), zap.Int("status", res.StatusCode))
		return System, nil
	}

	code := Code(res.Header.Get(headerResult))
	if code == "" {
		t.log.Warn("gateway reply without result header", zap.String("url", call.URL))
		return System, nil
	}

	if code != Success {
		return code, nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.logTransportErr(ctx, call.URL, err)
		return System, nil
	}

	if err := codec.DecodeInbound(body, call.Key, out); err != nil {
		t.log.Error("decode success reply", zap.String("url", call.URL), zap.Int("bytes", len(body)), zap.Error(err))
		return System, fmt.Errorf("%w: %s: %v", ErrUnexpectedDecode, call.URL, err)
	}

	return Success, nil
}

func (t *Transport) logTransportErr(ctx context.Context, url string, err error) {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.log.Warn("gateway timeout", zap.String("url", url))
		return
	}

	t.log.Error("gateway request", zap.String("url", url), zap.Error(err))
}
