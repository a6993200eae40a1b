package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jmehdipour/emay-gateway/internal/emay"
	"github.com/jmehdipour/emay-gateway/internal/model"
	"github.com/jmehdipour/emay-gateway/internal/service/sms"
	"github.com/jmehdipour/emay-gateway/internal/util"
	"github.com/spf13/cobra"
)

// gatewayCmds are one-shot calls against the gateway, printed as JSON.
func gatewayCmds() []*cobra.Command {
	return []*cobra.Command{balanceCmd(), sendCmd(), reportCmd(), moCmd(), retrieveReportCmd()}
}

func withService(fn func(ctx context.Context, svc *sms.Service) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		svc, _, err := sms.NewFromConfig(cfg, log)
		if err != nil {
			return err
		}

		out, err := fn(cmd.Context(), svc)
		if out != nil {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(out)
		}
		return err
	}
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Query the account balance",
		RunE: withService(func(ctx context.Context, svc *sms.Service) (any, error) {
			return svc.Balance(ctx)
		}),
	}
}

func sendCmd() *cobra.Command {
	var (
		mobile, content, customID string
		typ, code, signName       string
		expire                    int
	)

	c := &cobra.Command{
		Use:   "send",
		Short: "Send one message (custom | verify | notify)",
		RunE: withService(func(ctx context.Context, svc *sms.Service) (any, error) {
			m, err := util.ParseMobile(mobile)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", err, mobile)
			}

			st, ok := model.ParseSendType(typ)
			if !ok {
				return nil, fmt.Errorf("invalid type %q", typ)
			}

			switch st {
			case model.SendTypeVerify:
				return svc.SendVerifyCode(ctx, m, code, signName, expire)
			case model.SendTypeNotify:
				return svc.SendNotification(ctx, m, content, signName)
			default:
				return svc.Send(ctx, m, content, customID)
			}
		}),
	}

	c.Flags().StringVar(&mobile, "mobile", "", "recipient mobile number")
	c.Flags().StringVar(&content, "content", "", "message text (notify: the message body)")
	c.Flags().StringVar(&customID, "custom-id", "", "caller correlation id")
	c.Flags().StringVar(&typ, "type", "custom", "custom | verify | notify")
	c.Flags().StringVar(&code, "code", "", "verification code (type=verify)")
	c.Flags().StringVar(&signName, "sign", "", "signature name, defaults to sms.sign_name")
	c.Flags().IntVar(&expire, "expire", sms.DefaultExpireMinutes, "verification code validity in minutes")
	_ = c.MarkFlagRequired("mobile")

	return c
}

func reportCmd() *cobra.Command {
	var number int
	c := &cobra.Command{
		Use:   "report",
		Short: "Pull pending status reports",
		RunE: withService(func(ctx context.Context, svc *sms.Service) (any, error) {
			return svc.Reports(ctx, number)
		}),
	}
	c.Flags().IntVar(&number, "number", emay.MaxFetch, "max reports to pull")
	return c
}

func moCmd() *cobra.Command {
	var number int
	c := &cobra.Command{
		Use:   "mo",
		Short: "Pull pending inbound messages",
		RunE: withService(func(ctx context.Context, svc *sms.Service) (any, error) {
			return svc.Mo(ctx, number)
		}),
	}
	c.Flags().IntVar(&number, "number", emay.MaxFetch, "max messages to pull")
	return c
}

func retrieveReportCmd() *cobra.Command {
	var start, end, smsID string
	c := &cobra.Command{
		Use:   "retrieve-report",
		Short: "Re-fetch status reports for a time window",
		RunE: withService(func(ctx context.Context, svc *sms.Service) (any, error) {
			if end == "" {
				end = emay.FormatTimestamp(time.Now())
			}
			if start == "" {
				t, _ := time.ParseInLocation(emay.TimestampLayout, end, time.Local)
				start = emay.FormatTimestamp(t.Add(-time.Hour))
			}

			res, err := svc.RetrieveReports(ctx, emay.RetrieveReportRequest{StartTime: start, EndTime: end, SmsID: smsID})
			return map[string]any{"code": res.Code, "message": res.Code.Description(), "reply": res.Result}, err
		}),
	}
	c.Flags().StringVar(&start, "start", "", "window start, yyyyMMddHHmmss (default: end - 1h)")
	c.Flags().StringVar(&end, "end", "", "window end, yyyyMMddHHmmss (default: now)")
	c.Flags().StringVar(&smsID, "sms-id", "", "only this message")
	return c
}
