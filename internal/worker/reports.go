package worker

import (
	"context"
	"time"

	"github.com/jmehdipour/emay-gateway/internal/emay"
	"github.com/jmehdipour/emay-gateway/internal/model"
	"github.com/jmehdipour/emay-gateway/internal/repository"
	"github.com/jmehdipour/emay-gateway/internal/service/sms"
	"go.uber.org/zap"
)

// ReportSource is the part of the SMS service the puller drains.
type ReportSource interface {
	Reports(ctx context.Context, number int) (sms.ReportsResult, error)
	Mo(ctx context.Context, number int) (sms.MoResult, error)
}

// DeliveryUpdater marks records delivered or undelivered by gateway sms id.
type DeliveryUpdater interface {
	UpdateDelivery(ctx context.Context, smsID, state string) (int64, error)
}

// ReportPuller periodically drains pending status reports and inbound messages,
// archives them in ClickHouse and applies delivery states to MySQL records.
type ReportPuller struct {
	Source   ReportSource
	Records  DeliveryUpdater
	Archive  repository.ReportsRepository
	Log      *zap.Logger
	Interval time.Duration
	MaxPages int // pages of emay.MaxFetch per tick

	now func() time.Time
}

func NewReportPuller(src ReportSource, records DeliveryUpdater, archive repository.ReportsRepository, log *zap.Logger, interval time.Duration) *ReportPuller {
	return &ReportPuller{
		Source:   src,
		Records:  records,
		Archive:  archive,
		Log:      log,
		Interval: interval,
		MaxPages: 10,
		now:      time.Now,
	}
}

// Run pulls once immediately and then on every tick until ctx is cancelled.
func (p *ReportPuller) Run(ctx context.Context) error {
	if p.Interval <= 0 {
		p.Interval = 30 * time.Second
	}
	if p.Log == nil {
		p.Log = zap.NewNop()
	}

	t := time.NewTicker(p.Interval)
	defer t.Stop()

	for {
		if err := p.PullOnce(ctx); err != nil && ctx.Err() == nil {
			p.Log.Warn("pull reports", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// PullOnce drains reports and inbound messages. A page shorter than emay.MaxFetch ends the drain.
func (p *ReportPuller) PullOnce(ctx context.Context) error {
	if p.now == nil {
		p.now = time.Now
	}
	if p.MaxPages <= 0 {
		p.MaxPages = 10
	}
	if p.Log == nil {
		p.Log = zap.NewNop()
	}

	reports, err := p.pullReports(ctx)
	if err != nil {
		return err
	}
	mos, err := p.pullMo(ctx)
	if err != nil {
		return err
	}

	if reports+mos > 0 {
		p.Log.Info("pulled", zap.Int("reports", reports), zap.Int("mo", mos))
	}
	return nil
}

func (p *ReportPuller) pullReports(ctx context.Context) (int, error) {
	total := 0
	for page := 0; page < p.MaxPages; page++ {
		res, err := p.Source.Reports(ctx, emay.MaxFetch)
		if err != nil {
			return total, err
		}
		if !res.Success {
			p.Log.Warn("get report rejected", zap.String("code", res.Code.String()))
			return total, nil
		}
		if len(res.Reports) == 0 {
			return total, nil
		}

		pulledAt := p.now().UTC()
		rows := make([]model.Report, 0, len(res.Reports))
		for _, r := range res.Reports {
			rows = append(rows, model.Report{
				SmsID:        r.SmsID,
				CustomSmsID:  r.CustomSmsID,
				Mobile:       r.Mobile,
				State:        r.State,
				Desc:         r.Desc,
				ExtendedCode: r.ExtendedCode,
				SubmitTime:   r.SubmitTime,
				ReceiveTime:  r.ReceiveTime,
				PulledAt:     pulledAt,
			})
		}

		// reports are gone from the gateway once fetched, archive before anything can fail
		if err := p.Archive.InsertReports(ctx, rows); err != nil {
			p.Log.Error("archive reports", zap.Int("rows", len(rows)), zap.Error(err))
		}

		for _, r := range rows {
			if r.SmsID == "" {
				continue
			}
			if _, err := p.Records.UpdateDelivery(ctx, r.SmsID, r.State); err != nil {
				p.Log.Warn("update delivery", zap.String("sms_id", r.SmsID), zap.Error(err))
			}
		}

		total += len(rows)
		if len(res.Reports) < emay.MaxFetch {
			return total, nil
		}
	}
	return total, nil
}

func (p *ReportPuller) pullMo(ctx context.Context) (int, error) {
	total := 0
	for page := 0; page < p.MaxPages; page++ {
		res, err := p.Source.Mo(ctx, emay.MaxFetch)
		if err != nil {
			return total, err
		}
		if !res.Success {
			p.Log.Warn("get mo rejected", zap.String("code", res.Code.String()))
			return total, nil
		}
		if len(res.Messages) == 0 {
			return total, nil
		}

		pulledAt := p.now().UTC()
		rows := make([]model.Mo, 0, len(res.Messages))
		for _, m := range res.Messages {
			rows = append(rows, model.Mo{
				Mobile:       m.Mobile,
				ExtendedCode: m.ExtendedCode,
				Content:      m.Content,
				MoTime:       m.MoTime,
				PulledAt:     pulledAt,
			})
		}

		if err := p.Archive.InsertMo(ctx, rows); err != nil {
			p.Log.Error("archive mo", zap.Int("rows", len(rows)), zap.Error(err))
		}

		total += len(rows)
		if len(res.Messages) < emay.MaxFetch {
			return total, nil
		}
	}
	return total, nil
}
