package http

import (
	"context"
	"net/http"
	"time"

	"github.com/jmehdipour/emay-gateway/internal/config"
	"github.com/jmehdipour/emay-gateway/internal/emay"
	"github.com/jmehdipour/emay-gateway/internal/http/middleware"
	"github.com/jmehdipour/emay-gateway/internal/repository"
	"github.com/jmehdipour/emay-gateway/internal/service/sms"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SMSService is what the handlers need from the sms service.
type SMSService interface {
	Send(ctx context.Context, mobile, content, customSmsID string) (sms.SendResult, error)
	SendVerifyCode(ctx context.Context, mobile, code, signName string, expireMinutes int) (sms.SendResult, error)
	SendNotification(ctx context.Context, mobile, message, signName string) (sms.SendResult, error)
	SendBatch(ctx context.Context, mobiles []string, content string) (sms.BatchResult, error)
	SendTracked(ctx context.Context, targets []sms.Target, content string) (sms.BatchResult, error)
	SendPersonality(ctx context.Context, msgs []sms.Personal) (sms.BatchResult, error)
	Balance(ctx context.Context) (sms.BalanceResult, error)
	Reports(ctx context.Context, number int) (sms.ReportsResult, error)
	Mo(ctx context.Context, number int) (sms.MoResult, error)
	RetrieveReports(ctx context.Context, req emay.RetrieveReportRequest) (emay.Result[emay.FormReply], error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, client, mobile, content, customSmsID string) (string, error)
}

// Deps are the collaborators behind the routes.
type Deps struct {
	SMS     SMSService
	Queue   Enqueuer                     // nil disables POST /v1/sms/queue
	Records repository.RecordsRepository // nil: sends are not recorded
	Reports repository.ReportsRepository // nil disables GET /v1/reports
	Redis   *redis.Client
	Log     *zap.Logger
}

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

func NewServer(cfg config.Config, d Deps) *Server {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	authMW := middleware.APIKeyMiddleware(cfg.APIKeys)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          d.Redis,
		DefaultRPS:     cfg.RateLimit.RPS,
		KeyPrefix:      "rl:client:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	limits := sendLimits{
		MaxContent:    cfg.SMS.MaxContent,
		MaxBatch:      cfg.SMS.MaxBatch,
		ExpireMinutes: cfg.SMS.ExpireMinutes,
	}

	// routes
	v1 := e.Group("/v1", authMW, rlMW)
	v1.POST("/sms/send", sendSMSHandler(d.SMS, d.Records, limits))
	v1.POST("/sms/batch", sendBatchHandler(d.SMS, d.Records, limits))
	if d.Queue != nil {
		v1.POST("/sms/queue", enqueueHandler(d.Queue, limits))
	}

	v1.GET("/balance", balanceHandler(d.SMS))
	v1.GET("/gateway/reports", gatewayReportsHandler(d.SMS))
	v1.GET("/gateway/mo", gatewayMoHandler(d.SMS))
	v1.POST("/gateway/reports/retrieve", retrieveReportsHandler(d.SMS))

	if d.Records != nil {
		v1.GET("/records", listRecordsHandler(d.Records))
	}
	if d.Reports != nil {
		v1.GET("/reports", listReportsHandler(d.Reports))
	}

	return &Server{e: e, log: d.Log}
}

// ServeHTTP lets the server be driven by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.e.ServeHTTP(w, r) }

func (s *Server) Start(addr string) error {
	s.log.Info("http: listening", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
