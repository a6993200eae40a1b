package sms

import (
	"context"
	"fmt"

	"github.com/jmehdipour/emay-gateway/internal/emay"
	"github.com/jmehdipour/emay-gateway/internal/metrics"
	"go.uber.org/zap"
)

const DefaultExpireMinutes = 5

// Gateway is the subset of *emay.Client the service drives.
type Gateway interface {
	SendSingle(ctx context.Context, req emay.SingleRequest) (emay.Result[emay.SmsResponse], error)
	SendBatchOnly(ctx context.Context, req emay.BatchOnlyRequest) (emay.Result[[]emay.SmsResponse], error)
	SendBatch(ctx context.Context, req emay.BatchRequest) (emay.Result[[]emay.SmsResponse], error)
	SendPersonality(ctx context.Context, req emay.PersonalityRequest) (emay.Result[[]emay.SmsResponse], error)
	SendPersonalityAll(ctx context.Context, req emay.PersonalityAllRequest) (emay.Result[[]emay.SmsResponse], error)
	GetBalance(ctx context.Context, req emay.BalanceRequest) (emay.Result[emay.BalanceResponse], error)
	GetReport(ctx context.Context, req emay.ReportRequest) (emay.Result[[]emay.ReportEntry], error)
	GetMo(ctx context.Context, req emay.MoRequest) (emay.Result[[]emay.MoEntry], error)
	RetrieveReport(ctx context.Context, req emay.RetrieveReportRequest) (emay.Result[emay.FormReply], error)
}

type SendResult struct {
	Success bool      `json:"success"`
	SmsID   string    `json:"smsId,omitempty"`
	Code    emay.Code `json:"code"`
	Message string    `json:"message"`
}

type Outcome struct {
	Mobile      string `json:"mobile"`
	SmsID       string `json:"smsId,omitempty"`
	CustomSmsID string `json:"customSmsId,omitempty"`
	Success     bool   `json:"success"`
}

type BatchResult struct {
	Success      bool      `json:"success"`
	SuccessCount int       `json:"successCount"`
	FailCount    int       `json:"failCount"`
	Results      []Outcome `json:"results"`
	Code         emay.Code `json:"code"`
	Message      string    `json:"message"`
}

type BalanceResult struct {
	Success bool      `json:"success"`
	Balance int64     `json:"balance"`
	Code    emay.Code `json:"code"`
	Message string    `json:"message"`
}

type ReportsResult struct {
	Success bool               `json:"success"`
	Reports []emay.ReportEntry `json:"reports"`
	Code    emay.Code          `json:"code"`
	Message string             `json:"message"`
}

type MoResult struct {
	Success  bool           `json:"success"`
	Messages []emay.MoEntry `json:"messages"`
	Code     emay.Code      `json:"code"`
	Message  string         `json:"message"`
}

// Personal is one recipient with its own content. TimerTime (yyyy-MM-dd HH:mm:ss) and
// ExtendedCode are optional and apply to this recipient only.
type Personal struct {
	Mobile       string `json:"mobile"`
	Content      string `json:"content"`
	CustomSmsID  string `json:"customSmsId,omitempty"`
	TimerTime    string `json:"timerTime,omitempty"`
	ExtendedCode string `json:"extendedCode,omitempty"`
}

func (p Personal) scheduled() bool { return p.TimerTime != "" || p.ExtendedCode != "" }

// Target is one broadcast recipient with its own correlation id.
type Target struct {
	Mobile      string `json:"mobile"`
	CustomSmsID string `json:"customSmsId,omitempty"`
}

// Service turns raw gateway results into caller friendly summaries.
type Service struct {
	gw       Gateway
	log      *zap.Logger
	signName string
}

func New(gw Gateway, log *zap.Logger, signName string) *Service {
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{gw: gw, log: log, signName: signName}
}

// Send dispatches one message. The error is only set for broken gateway replies.
func (s *Service) Send(ctx context.Context, mobile, content, customSmsID string) (SendResult, error) {
	s.log.Debug("send single", zap.String("mobile", mobile), zap.Int("content_len", len([]rune(content))))

	res, err := s.gw.SendSingle(ctx, emay.SingleRequest{Mobile: mobile, Content: content, CustomSmsID: customSmsID})
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("failed", "single").Inc()
		return SendResult{Code: res.Code, Message: res.Code.Description()}, fmt.Errorf("send single: %w", err)
	}

	if !emay.IsSuccess(res) {
		metrics.MessagesTotal.WithLabelValues("failed", "single").Inc()
		return SendResult{Code: res.Code, Message: res.Code.Description()}, nil
	}

	metrics.MessagesTotal.WithLabelValues("sent", "single").Inc()

	return SendResult{Success: true, SmsID: res.Result.SmsID, Code: res.Code, Message: "sent"}, nil
}

// SendBatch broadcasts content to every mobile.
func (s *Service) SendBatch(ctx context.Context, mobiles []string, content string) (BatchResult, error) {
	s.log.Debug("send batch", zap.Int("count", len(mobiles)))

	res, err := s.gw.SendBatchOnly(ctx, emay.BatchOnlyRequest{Mobiles: mobiles, Content: content})
	if err != nil {
		return s.failedBatch(mobiles, "batch", res.Code), fmt.Errorf("send batch: %w", err)
	}

	if !emay.IsSuccess(res) {
		return s.failedBatch(mobiles, "batch", res.Code), nil
	}

	return s.summarize(mobiles, *res.Result, "batch"), nil
}

// SendTracked broadcasts content like SendBatch but tags every mobile with its customSmsId.
func (s *Service) SendTracked(ctx context.Context, targets []Target, content string) (BatchResult, error) {
	s.log.Debug("send tracked batch", zap.Int("count", len(targets)))

	smses := make([]emay.BatchTarget, len(targets))
	mobiles := make([]string, len(targets))
	ids := make([]string, len(targets))
	for i, t := range targets {
		smses[i] = emay.BatchTarget{Mobile: t.Mobile, CustomSmsID: t.CustomSmsID}
		mobiles[i] = t.Mobile
		ids[i] = t.CustomSmsID
	}

	res, err := s.gw.SendBatch(ctx, emay.BatchRequest{Smses: smses, Content: content})
	if err != nil {
		return tagCustomIDs(s.failedBatch(mobiles, "batch", res.Code), ids), fmt.Errorf("send batch: %w", err)
	}

	if !emay.IsSuccess(res) {
		return tagCustomIDs(s.failedBatch(mobiles, "batch", res.Code), ids), nil
	}

	return tagCustomIDs(s.summarize(mobiles, *res.Result, "batch"), ids), nil
}

// SendPersonality sends each recipient its own content. When any recipient carries its own
// timer or extension code the per-target endpoint is used.
func (s *Service) SendPersonality(ctx context.Context, msgs []Personal) (BatchResult, error) {
	for _, m := range msgs {
		if m.scheduled() {
			return s.sendPersonalityAll(ctx, msgs)
		}
	}

	s.log.Debug("send personality", zap.Int("count", len(msgs)))

	targets := make([]emay.PersonalTarget, len(msgs))
	mobiles := make([]string, len(msgs))
	for i, m := range msgs {
		targets[i] = emay.PersonalTarget{Mobile: m.Mobile, Content: m.Content, CustomSmsID: m.CustomSmsID}
		mobiles[i] = m.Mobile
	}

	res, err := s.gw.SendPersonality(ctx, emay.PersonalityRequest{Smses: targets})
	if err != nil {
		return s.failedBatch(mobiles, "personal", res.Code), fmt.Errorf("send personality: %w", err)
	}

	if !emay.IsSuccess(res) {
		return s.failedBatch(mobiles, "personal", res.Code), nil
	}

	return s.summarize(mobiles, *res.Result, "personal"), nil
}

func (s *Service) sendPersonalityAll(ctx context.Context, msgs []Personal) (BatchResult, error) {
	s.log.Debug("send personality all", zap.Int("count", len(msgs)))

	targets := make([]emay.PersonalAllTarget, len(msgs))
	mobiles := make([]string, len(msgs))
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		targets[i] = emay.PersonalAllTarget{
			Schedule:    emay.Schedule{TimerTime: m.TimerTime, ExtendedCode: m.ExtendedCode},
			Mobile:      m.Mobile,
			Content:     m.Content,
			CustomSmsID: m.CustomSmsID,
		}
		mobiles[i] = m.Mobile
		ids[i] = m.CustomSmsID
	}

	res, err := s.gw.SendPersonalityAll(ctx, emay.PersonalityAllRequest{Smses: targets})
	if err != nil {
		return tagCustomIDs(s.failedBatch(mobiles, "personal", res.Code), ids), fmt.Errorf("send personality all: %w", err)
	}

	if !emay.IsSuccess(res) {
		return tagCustomIDs(s.failedBatch(mobiles, "personal", res.Code), ids), nil
	}

	return tagCustomIDs(s.summarize(mobiles, *res.Result, "personal"), ids), nil
}

// tagCustomIDs fills correlation ids the gateway did not echo back from the request.
func tagCustomIDs(out BatchResult, ids []string) BatchResult {
	for i := range out.Results {
		if i < len(ids) && out.Results[i].CustomSmsID == "" {
			out.Results[i].CustomSmsID = ids[i]
		}
	}
	return out
}

// summarize aligns gateway outcomes with the requested mobiles by index.
// Requested targets without a matching outcome count as failed.
func (s *Service) summarize(mobiles []string, got []emay.SmsResponse, mode string) BatchResult {
	if len(got) != len(mobiles) {
		s.log.Warn("outcome count mismatch", zap.Int("requested", len(mobiles)), zap.Int("returned", len(got)))
	}

	out := BatchResult{Code: emay.Success, Results: make([]Outcome, len(mobiles))}
	for i, m := range mobiles {
		o := Outcome{Mobile: m}
		if i < len(got) {
			if got[i].Mobile != "" {
				o.Mobile = got[i].Mobile
			}
			o.SmsID = got[i].SmsID
			o.CustomSmsID = got[i].CustomSmsID
			o.Success = got[i].Accepted()
		}

		if o.Success {
			out.SuccessCount++
		}
		out.Results[i] = o
	}

	out.FailCount = len(mobiles) - out.SuccessCount
	out.Success = out.FailCount == 0
	out.Message = fmt.Sprintf("sent: success %d, failed %d", out.SuccessCount, out.FailCount)

	metrics.MessagesTotal.WithLabelValues("sent", mode).Add(float64(out.SuccessCount))
	metrics.MessagesTotal.WithLabelValues("failed", mode).Add(float64(out.FailCount))

	return out
}

func (s *Service) failedBatch(mobiles []string, mode string, code emay.Code) BatchResult {
	out := BatchResult{
		FailCount: len(mobiles),
		Results:   make([]Outcome, len(mobiles)),
		Code:      code,
		Message:   code.Description(),
	}

	for i, m := range mobiles {
		out.Results[i] = Outcome{Mobile: m}
	}

	metrics.MessagesTotal.WithLabelValues("failed", mode).Add(float64(len(mobiles)))

	return out
}

func (s *Service) Balance(ctx context.Context) (BalanceResult, error) {
	res, err := s.gw.GetBalance(ctx, emay.BalanceRequest{})
	if err != nil {
		return BalanceResult{Code: res.Code, Message: res.Code.Description()}, fmt.Errorf("get balance: %w", err)
	}

	if !emay.IsSuccess(res) {
		return BalanceResult{Code: res.Code, Message: res.Code.Description()}, nil
	}

	return BalanceResult{Success: true, Balance: res.Result.Balance, Code: res.Code, Message: "ok"}, nil
}

// Reports pulls up to number pending status reports (at most emay.MaxFetch).
func (s *Service) Reports(ctx context.Context, number int) (ReportsResult, error) {
	res, err := s.gw.GetReport(ctx, emay.ReportRequest{Number: emay.ClampFetch(number)})
	if err != nil {
		return ReportsResult{Code: res.Code, Message: res.Code.Description()}, fmt.Errorf("get report: %w", err)
	}

	if !emay.IsSuccess(res) {
		return ReportsResult{Code: res.Code, Message: res.Code.Description()}, nil
	}

	return ReportsResult{Success: true, Reports: *res.Result, Code: res.Code, Message: "ok"}, nil
}

// Mo pulls up to number pending inbound messages.
func (s *Service) Mo(ctx context.Context, number int) (MoResult, error) {
	res, err := s.gw.GetMo(ctx, emay.MoRequest{Number: emay.ClampFetch(number)})
	if err != nil {
		return MoResult{Code: res.Code, Message: res.Code.Description()}, fmt.Errorf("get mo: %w", err)
	}

	if !emay.IsSuccess(res) {
		return MoResult{Code: res.Code, Message: res.Code.Description()}, nil
	}

	return MoResult{Success: true, Messages: *res.Result, Code: res.Code, Message: "ok"}, nil
}

func (s *Service) RetrieveReports(ctx context.Context, req emay.RetrieveReportRequest) (emay.Result[emay.FormReply], error) {
	return s.gw.RetrieveReport(ctx, req)
}

// SendVerifyCode sends a signed one-time code message.
func (s *Service) SendVerifyCode(ctx context.Context, mobile, code, signName string, expireMinutes int) (SendResult, error) {
	if expireMinutes <= 0 {
		expireMinutes = DefaultExpireMinutes
	}

	content := fmt.Sprintf("%sYour verification code is %s, valid for %d minutes. Do not share it with anyone.",
		s.sign(signName), code, expireMinutes)

	return s.Send(ctx, mobile, content, "")
}

func (s *Service) SendNotification(ctx context.Context, mobile, message, signName string) (SendResult, error) {
	return s.Send(ctx, mobile, s.sign(signName)+message, "")
}

func (s *Service) sign(name string) string {
	if name == "" {
		name = s.signName
	}

	if name == "" {
		return ""
	}

	return "【" + name + "】"
}
