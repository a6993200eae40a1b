package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jmehdipour/emay-gateway/internal/emay"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

func balanceHandler(svc SMSService) echo.HandlerFunc {
	return func(c echo.Context) error {
		res, err := svc.Balance(c.Request().Context())
		if err != nil {
			log.Errorf("balance failed: %v", err)
			return c.JSON(http.StatusBadGateway, res)
		}
		return c.JSON(http.StatusOK, res)
	}
}

func numberParam(c echo.Context) int {
	n, _ := strconv.Atoi(c.QueryParam("number"))
	return emay.ClampFetch(n)
}

func gatewayReportsHandler(svc SMSService) echo.HandlerFunc {
	return func(c echo.Context) error {
		res, err := svc.Reports(c.Request().Context(), numberParam(c))
		if err != nil {
			log.Errorf("get report failed: %v", err)
			return c.JSON(http.StatusBadGateway, res)
		}
		return c.JSON(http.StatusOK, res)
	}
}

func gatewayMoHandler(svc SMSService) echo.HandlerFunc {
	return func(c echo.Context) error {
		res, err := svc.Mo(c.Request().Context(), numberParam(c))
		if err != nil {
			log.Errorf("get mo failed: %v", err)
			return c.JSON(http.StatusBadGateway, res)
		}
		return c.JSON(http.StatusOK, res)
	}
}

type retrieveReq struct {
	StartTime string `json:"startTime"` // yyyyMMddHHmmss
	EndTime   string `json:"endTime"`
	SmsID     string `json:"smsId"`
}

func validStamp(s string) bool {
	_, err := time.Parse(emay.TimestampLayout, s)
	return err == nil
}

func retrieveReportsHandler(svc SMSService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req retrieveReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.StartTime = strings.TrimSpace(req.StartTime)
		req.EndTime = strings.TrimSpace(req.EndTime)
		if !validStamp(req.StartTime) || !validStamp(req.EndTime) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "startTime and endTime must be yyyyMMddHHmmss"})
		}

		res, _ := svc.RetrieveReports(c.Request().Context(), emay.RetrieveReportRequest{
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			SmsID:     strings.TrimSpace(req.SmsID),
		})

		out := map[string]any{
			"success": emay.IsSuccess(res),
			"code":    res.Code,
			"message": res.Code.Description(),
		}
		if res.Result != nil {
			out["reply"] = res.Result
		}

		status := http.StatusOK
		if !emay.IsSuccess(res) {
			status = http.StatusBadGateway
		}
		return c.JSON(status, out)
	}
}
