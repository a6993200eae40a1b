package http

import (
	"net/http"
	"strings"

	"github.com/jmehdipour/emay-gateway/internal/http/middleware"
	"github.com/jmehdipour/emay-gateway/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type enqueueReq struct {
	Mobile      string `json:"mobile"`
	Content     string `json:"content"`
	CustomSmsID string `json:"customSmsId"`
}

func enqueueHandler(q Enqueuer, limits sendLimits) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req enqueueReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		mobile, err := util.ParseMobile(req.Mobile)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid mobile"})
		}

		req.Content = strings.TrimSpace(req.Content)
		if req.Content == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "content is required"})
		}
		if !limits.contentOK(req.Content) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "content too long"})
		}

		client, ok := middleware.ClientFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		id, err := q.Enqueue(c.Request().Context(), client, mobile, req.Content, strings.TrimSpace(req.CustomSmsID))
		if err != nil {
			log.Errorf("enqueue failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "enqueue failed"})
		}

		return c.JSON(http.StatusAccepted, map[string]any{
			"enqueued": true,
			"id":       id,
			"mobile":   mobile,
		})
	}
}
