package emay_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/jmehdipour/emay-gateway/internal/emay"
	"github.com/jmehdipour/emay-gateway/internal/emay/codec"
	"github.com/stretchr/testify/require"
)

const (
	testAppID  = "EUCP-TEST-0001"
	testSecret = "0123456789abcdefXYZ"
)

type recorded struct {
	Path   string
	Header http.Header
	Body   json.RawMessage // decrypted JSON for encrypted calls
	Form   url.Values      // parsed form for form calls
}

// fakeGateway speaks the encrypted protocol with a fixed secret.
type fakeGateway struct {
	t   *testing.T
	srv *httptest.Server
	key []byte

	mu    sync.Mutex
	calls []recorded

	// reply decides the result header and payload per path. Defaults to SUCCESS and "{}".
	reply func(path string, body json.RawMessage) (emay.Code, any)
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()

	g := &fakeGateway{t: t, key: []byte(testSecret)}
	g.srv = httptest.NewServer(http.HandlerFunc(g.handle))
	t.Cleanup(g.srv.Close)

	return g
}

func (g *fakeGateway) handle(w http.ResponseWriter, r *http.Request) {
	rec := recorded{Path: r.URL.Path, Header: r.Header.Clone()}

	if r.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec.Form = r.PostForm
		g.record(rec)
		_, _ = io.WriteString(w, `{"code":"SUCCESS"}`)
		return
	}

	frame, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body json.RawMessage
	if err := codec.DecodeInbound(frame, g.key, &body); err != nil {
		w.Header().Set("result", string(emay.SignError))
		return
	}

	rec.Body = body
	g.record(rec)

	code, payload := emay.Success, any(map[string]any{})
	if g.reply != nil {
		code, payload = g.reply(r.URL.Path, body)
	}

	w.Header().Set("result", string(code))
	if code != emay.Success {
		return
	}

	out, err := codec.EncodeOutbound(payload, g.key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(out)
}

func (g *fakeGateway) record(rec recorded) {
	g.mu.Lock()
	g.calls = append(g.calls, rec)
	g.mu.Unlock()
}

func (g *fakeGateway) last() recorded {
	g.mu.Lock()
	defer g.mu.Unlock()

	require.NotEmpty(g.t, g.calls)
	return g.calls[len(g.calls)-1]
}

func (g *fakeGateway) client(opts ...emay.Option) *emay.Client {
	g.t.Helper()

	c, err := emay.NewClient(emay.Config{
		AppID:     testAppID,
		SecretKey: testSecret,
		Host:      g.srv.URL,
	}, opts...)
	require.NoError(g.t, err)

	return c
}

// acceptAll echoes every target of a send request back with a generated smsId.
func acceptAll(_ string, body json.RawMessage) (emay.Code, any) {
	var req struct {
		Mobile      string   `json:"mobile"`
		CustomSmsID string   `json:"customSmsId"`
		Mobiles     []string `json:"mobiles"`
		Smses       []struct {
			Mobile      string `json:"mobile"`
			CustomSmsID string `json:"customSmsId"`
		} `json:"smses"`
	}
	_ = json.Unmarshal(body, &req)

	if req.Mobile != "" {
		return emay.Success, emay.SmsResponse{SmsID: "id-" + req.Mobile, Mobile: req.Mobile, CustomSmsID: req.CustomSmsID}
	}

	out := make([]emay.SmsResponse, 0)
	for _, m := range req.Mobiles {
		out = append(out, emay.SmsResponse{SmsID: "id-" + m, Mobile: m})
	}
	for _, s := range req.Smses {
		out = append(out, emay.SmsResponse{SmsID: "id-" + s.Mobile, Mobile: s.Mobile, CustomSmsID: s.CustomSmsID})
	}

	return emay.Success, out
}
