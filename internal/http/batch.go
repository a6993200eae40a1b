package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/jmehdipour/emay-gateway/internal/http/middleware"
	"github.com/jmehdipour/emay-gateway/internal/model"
	"github.com/jmehdipour/emay-gateway/internal/repository"
	"github.com/jmehdipour/emay-gateway/internal/service/sms"
	"github.com/jmehdipour/emay-gateway/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type batchReq struct {
	Type     string         `json:"type"` // "same" | "personal"
	Mobiles  []string       `json:"mobiles"`
	Content  string         `json:"content"`
	Targets  []sms.Target   `json:"targets"` // "same" with a customSmsId per mobile
	Messages []sms.Personal `json:"messages"`
}

const timerLayout = "2006-01-02 15:04:05"

// parseTargets validates and dedupes targets by mobile, keeping the first correlation id.
func parseTargets(raw []sms.Target) (valid []sms.Target, rejected []string) {
	seen := make(map[string]struct{}, len(raw))
	for _, t := range raw {
		mobile, err := util.ParseMobile(t.Mobile)
		if err != nil {
			rejected = append(rejected, t.Mobile)
			continue
		}
		if _, dup := seen[mobile]; dup {
			continue
		}
		seen[mobile] = struct{}{}
		valid = append(valid, sms.Target{Mobile: mobile, CustomSmsID: t.CustomSmsID})
	}
	return valid, rejected
}

func sendBatchHandler(svc SMSService, records repository.RecordsRepository, limits sendLimits) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req batchReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		typ, ok := model.ParseBatchType(req.Type)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid type"})
		}

		ctx := c.Request().Context()
		client, _ := middleware.ClientFromCtx(c)

		var (
			res      sms.BatchResult
			err      error
			rejected []string
			contents []string
			mode     model.Mode
		)

		switch typ {
		case model.BatchTypePersonal:
			if len(req.Messages) == 0 {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "messages are required"})
			}
			if !limits.batchOK(len(req.Messages)) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "too many recipients"})
			}

			msgs := make([]sms.Personal, 0, len(req.Messages))
			for _, m := range req.Messages {
				mobile, perr := util.ParseMobile(m.Mobile)
				content := strings.TrimSpace(m.Content)
				if perr != nil || content == "" || !limits.contentOK(content) {
					rejected = append(rejected, m.Mobile)
					continue
				}
				if m.TimerTime != "" {
					if _, terr := time.ParseInLocation(timerLayout, m.TimerTime, time.Local); terr != nil {
						rejected = append(rejected, m.Mobile)
						continue
					}
				}
				msgs = append(msgs, sms.Personal{
					Mobile:       mobile,
					Content:      content,
					CustomSmsID:  m.CustomSmsID,
					TimerTime:    m.TimerTime,
					ExtendedCode: m.ExtendedCode,
				})
				contents = append(contents, content)
			}
			if len(msgs) == 0 {
				return c.JSON(http.StatusBadRequest, map[string]any{"error": "no valid messages", "rejected": rejected})
			}

			mode = model.ModePersonal
			res, err = svc.SendPersonality(ctx, msgs)

		default:
			content := strings.TrimSpace(req.Content)
			if content == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "content is required"})
			}
			if !limits.contentOK(content) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "content too long"})
			}

			mode = model.ModeBatch

			if len(req.Targets) > 0 {
				var targets []sms.Target
				targets, rejected = parseTargets(req.Targets)
				if len(targets) == 0 {
					return c.JSON(http.StatusBadRequest, map[string]any{"error": "no valid mobiles", "rejected": rejected})
				}
				if !limits.batchOK(len(targets)) {
					return c.JSON(http.StatusBadRequest, map[string]string{"error": "too many recipients"})
				}
				for range targets {
					contents = append(contents, content)
				}

				res, err = svc.SendTracked(ctx, targets, content)
				break
			}

			var mobiles []string
			mobiles, rejected = util.ParseMobiles(req.Mobiles)
			if len(mobiles) == 0 {
				return c.JSON(http.StatusBadRequest, map[string]any{"error": "no valid mobiles", "rejected": rejected})
			}
			if !limits.batchOK(len(mobiles)) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "too many recipients"})
			}
			for range mobiles {
				contents = append(contents, content)
			}

			res, err = svc.SendBatch(ctx, mobiles, content)
		}

		if err != nil {
			log.Errorf("send %s batch failed: %v", typ, err)
			return c.JSON(http.StatusBadGateway, res)
		}

		recs := make([]model.Record, 0, len(res.Results))
		for i, o := range res.Results {
			var content string
			if i < len(contents) {
				content = contents[i]
			}
			recs = append(recs, newRecord(client, o.Mobile, content, o.CustomSmsID, mode, o.Success, o.SmsID, res.Code.String()))
		}
		storeRecords(ctx, records, recs)

		return c.JSON(http.StatusOK, map[string]any{
			"success":      res.Success,
			"successCount": res.SuccessCount,
			"failCount":    res.FailCount,
			"results":      res.Results,
			"rejected":     rejected,
			"code":         res.Code,
			"message":      res.Message,
		})
	}
}
