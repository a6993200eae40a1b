package emay

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jmehdipour/emay-gateway/internal/emay/crypt"
	"github.com/jmehdipour/emay-gateway/internal/metrics"
	"go.uber.org/zap"
)

const (
	DefaultHost        = "http://bjmtn.b2m.cn"
	DefaultPort        = 80
	DefaultTimeout     = 30 * time.Second
	DefaultValidPeriod = 60

	// MaxFetch is the most reports or MO messages the gateway hands out per call.
	MaxFetch = 500

	// TimestampLayout is the gateway's yyyyMMddHHmmss time format.
	TimestampLayout = "20060102150405"
)

const (
	PathSendSingle         = "/inter/sendSingleSMS"
	PathSendBatchOnly      = "/inter/sendBatchOnlySMS"
	PathSendBatch          = "/inter/sendBatchSMS"
	PathSendPersonality    = "/inter/sendPersonalitySMS"
	PathSendPersonalityAll = "/inter/sendPersonalityAllSMS"
	PathGetBalance         = "/inter/getBalance"
	PathGetReport          = "/inter/getReport"
	PathGetMo              = "/inter/getMo"
	PathRetrieveReport     = "/report/retrieveReport"
)

var ErrMissingCredentials = errors.New("emay: appId and secretKey are required")

type Config struct {
	AppID     string
	SecretKey string
	Host      string // optional, scheme defaults to http
	Port      int    // optional, only used together with Host
	Timeout   time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock overrides the time source used for envelope defaults and form timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// Client talks to the Emay gateway. It is safe for concurrent use.
type Client struct {
	appID     string
	secretKey string
	key       []byte
	baseURL   string
	timeout   time.Duration

	httpClient *http.Client
	log        *zap.Logger
	now        func() time.Time
	transport  *Transport
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.AppID == "" || cfg.SecretKey == "" {
		return nil, ErrMissingCredentials
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		appID:     cfg.AppID,
		secretKey: cfg.SecretKey,
		key:       crypt.NormalizeKey([]byte(cfg.SecretKey)),
		baseURL:   baseURL(cfg.Host, cfg.Port),
		timeout:   cfg.Timeout,
		log:       zap.NewNop(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.transport = NewTransport(c.httpClient, c.log.Named("emay"))

	return c, nil
}

func baseURL(host string, port int) string {
	if host == "" {
		return DefaultHost + ":" + strconv.Itoa(DefaultPort)
	}

	host = strings.TrimRight(host, "/")
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}

	if port > 0 {
		host += ":" + strconv.Itoa(port)
	}

	return host
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) stamp(e *Envelope) {
	if e.RequestTime == 0 {
		e.RequestTime = c.now().UnixMilli()
	}

	if e.RequestValidPeriod == 0 {
		e.RequestValidPeriod = DefaultValidPeriod
	}
}

// call runs one encrypted exchange and records its outcome.
func call[T any](ctx context.Context, c *Client, path string, envelope any) (Result[T], error) {
	start := time.Now()

	var out T
	code, err := c.transport.SendEncrypted(ctx, EncryptedCall{
		URL:     c.baseURL + path,
		AppID:   c.appID,
		Key:     c.key,
		Timeout: c.timeout,
	}, envelope, &out)

	metrics.GatewayRequestSeconds.WithLabelValues(path).Observe(time.Since(start).Seconds())
	metrics.GatewayRequestsTotal.WithLabelValues(path, code.String()).Inc()

	if err != nil {
		return Result[T]{Code: code}, err
	}

	if code != Success {
		return Result[T]{Code: code}, nil
	}

	return Result[T]{Code: Success, Result: &out}, nil
}

func (c *Client) SendSingle(ctx context.Context, req SingleRequest) (Result[SmsResponse], error) {
	c.stamp(&req.Envelope)
	return call[SmsResponse](ctx, c, PathSendSingle, req)
}

func (c *Client) SendBatchOnly(ctx context.Context, req BatchOnlyRequest) (Result[[]SmsResponse], error) {
	c.stamp(&req.Envelope)
	return call[[]SmsResponse](ctx, c, PathSendBatchOnly, req)
}

func (c *Client) SendBatch(ctx context.Context, req BatchRequest) (Result[[]SmsResponse], error) {
	c.stamp(&req.Envelope)
	return call[[]SmsResponse](ctx, c, PathSendBatch, req)
}

func (c *Client) SendPersonality(ctx context.Context, req PersonalityRequest) (Result[[]SmsResponse], error) {
	c.stamp(&req.Envelope)
	return call[[]SmsResponse](ctx, c, PathSendPersonality, req)
}

func (c *Client) SendPersonalityAll(ctx context.Context, req PersonalityAllRequest) (Result[[]SmsResponse], error) {
	c.stamp(&req.Envelope)
	return call[[]SmsResponse](ctx, c, PathSendPersonalityAll, req)
}

func (c *Client) GetBalance(ctx context.Context, req BalanceRequest) (Result[BalanceResponse], error) {
	c.stamp(&req.Envelope)
	return call[BalanceResponse](ctx, c, PathGetBalance, req)
}

func (c *Client) GetReport(ctx context.Context, req ReportRequest) (Result[[]ReportEntry], error) {
	c.stamp(&req.Envelope)
	req.Number = ClampFetch(req.Number)
	return call[[]ReportEntry](ctx, c, PathGetReport, req)
}

func (c *Client) GetMo(ctx context.Context, req MoRequest) (Result[[]MoEntry], error) {
	c.stamp(&req.Envelope)
	req.Number = ClampFetch(req.Number)
	return call[[]MoEntry](ctx, c, PathGetMo, req)
}

// RetrieveReport uses the signed form channel. The error is always nil and is kept
// so every operation has the same shape.
func (c *Client) RetrieveReport(ctx context.Context, req RetrieveReportRequest) (Result[FormReply], error) {
	start := time.Now()
	ts := FormatTimestamp(c.now())

	res := c.transport.SendForm(ctx, c.baseURL+PathRetrieveReport, map[string]string{
		"appId":     c.appID,
		"timestamp": ts,
		"sign":      crypt.Sign(c.appID + c.secretKey + ts),
		"startTime": req.StartTime,
		"endTime":   req.EndTime,
		"smsId":     req.SmsID,
	}, c.timeout)

	metrics.GatewayRequestSeconds.WithLabelValues(PathRetrieveReport).Observe(time.Since(start).Seconds())
	metrics.GatewayRequestsTotal.WithLabelValues(PathRetrieveReport, res.Code.String()).Inc()

	return res, nil
}

// ClampFetch bounds a requested report/MO count to (0, MaxFetch]. Zero or less means MaxFetch.
func ClampFetch(n int) int {
	if n <= 0 || n > MaxFetch {
		return MaxFetch
	}
	return n
}

// FormatTimestamp renders t as yyyyMMddHHmmss.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
