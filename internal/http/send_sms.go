package http

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/jmehdipour/emay-gateway/internal/http/middleware"
	"github.com/jmehdipour/emay-gateway/internal/model"
	"github.com/jmehdipour/emay-gateway/internal/repository"
	"github.com/jmehdipour/emay-gateway/internal/service/sms"
	"github.com/jmehdipour/emay-gateway/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type sendLimits struct {
	MaxContent    int // runes
	MaxBatch      int
	ExpireMinutes int
}

func (l sendLimits) contentOK(s string) bool {
	max := l.MaxContent
	if max <= 0 {
		max = 500
	}
	return utf8.RuneCountInString(s) <= max
}

func (l sendLimits) batchOK(n int) bool {
	max := l.MaxBatch
	if max <= 0 {
		max = 500
	}
	return n <= max
}

type sendReq struct {
	Mobile      string `json:"mobile"`
	Content     string `json:"content"`
	Type        string `json:"type"` // "custom" | "verify" | "notify"
	Code        string `json:"code"`
	Message     string `json:"message"`
	SignName    string `json:"signName"`
	CustomSmsID string `json:"customSmsId"`
}

func sendSMSHandler(svc SMSService, records repository.RecordsRepository, limits sendLimits) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req sendReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		typ, ok := model.ParseSendType(req.Type)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid type"})
		}

		mobile, err := util.ParseMobile(req.Mobile)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid mobile"})
		}

		// Basic validation per type
		req.Content = strings.TrimSpace(req.Content)
		req.Code = strings.TrimSpace(req.Code)
		req.Message = strings.TrimSpace(req.Message)
		switch typ {
		case model.SendTypeVerify:
			if req.Code == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "code is required"})
			}
		case model.SendTypeNotify:
			if req.Message == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
			}
		default:
			if req.Content == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "content is required"})
			}
		}
		if !limits.contentOK(req.Content) || !limits.contentOK(req.Message) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "content too long"})
		}

		ctx := c.Request().Context()

		var res sms.SendResult
		switch typ {
		case model.SendTypeVerify:
			res, err = svc.SendVerifyCode(ctx, mobile, req.Code, req.SignName, limits.ExpireMinutes)
		case model.SendTypeNotify:
			res, err = svc.SendNotification(ctx, mobile, req.Message, req.SignName)
		default:
			res, err = svc.Send(ctx, mobile, req.Content, req.CustomSmsID)
		}
		if err != nil {
			log.Errorf("send %s failed: %v", typ, err)
			return c.JSON(http.StatusBadGateway, res)
		}

		client, _ := middleware.ClientFromCtx(c)
		content := req.Content
		if typ != model.SendTypeCustom {
			// the service built the text; keep what the caller asked for
			content = typ.String() + ":" + firstNonEmpty(req.Message, maskCode(req.Code))
		}
		storeRecords(ctx, records, []model.Record{newRecord(client, mobile, content, req.CustomSmsID, model.ModeSingle, res.Success, res.SmsID, res.Code.String())})

		return c.JSON(http.StatusOK, res)
	}
}

func newRecord(client, mobile, content, customSmsID string, mode model.Mode, ok bool, smsID, code string) model.Record {
	rec := model.Record{
		ID:          util.NewID(),
		Mobile:      mobile,
		Content:     content,
		CustomSmsID: customSmsID,
		Mode:        mode,
		Status:      model.StatusFailed,
		Client:      client,
	}
	if ok {
		rec.Status = model.StatusSent
	}
	if smsID != "" {
		rec.SmsID = &smsID
	}
	if code != "" {
		rec.Code = &code
	}
	return rec
}

// storeRecords is best effort: the message already left, a failed insert must not turn the reply into an error.
func storeRecords(ctx context.Context, records repository.RecordsRepository, recs []model.Record) {
	if records == nil || len(recs) == 0 {
		return
	}
	if err := records.InsertBatch(ctx, nil, recs); err != nil {
		log.Errorf("store %d records: %v", len(recs), err)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// maskCode keeps verification codes out of the records table.
func maskCode(code string) string {
	if code == "" {
		return ""
	}
	return strings.Repeat("*", utf8.RuneCountInString(code))
}
