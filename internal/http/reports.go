package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jmehdipour/emay-gateway/internal/http/middleware"
	"github.com/jmehdipour/emay-gateway/internal/model"
	"github.com/jmehdipour/emay-gateway/internal/repository"
	"github.com/jmehdipour/emay-gateway/internal/util"
	echo "github.com/labstack/echo/v4"
)

func paging(c echo.Context) (limit, offset int) {
	limit = 50
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// listRecordsHandler lists the caller's own send records from MySQL.
func listRecordsHandler(records repository.RecordsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		client, ok := middleware.ClientFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		limit, offset := paging(c)

		var st model.RecordStatus
		if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
			tmp := model.RecordStatus(raw)
			if tmp.Valid() {
				st = tmp
			}
		}

		var mobile string
		if raw := c.QueryParam("mobile"); raw != "" {
			mobile = util.NormalizeMobile(raw)
		}

		recs, err := records.List(c.Request().Context(), repository.RecordFilter{
			Mobile: mobile,
			Status: st,
			Client: client,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			c.Logger().Errorf("mysql list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(recs),
			"results": recs,
		})
	}
}

// listReportsHandler lists archived status reports from ClickHouse.
func listReportsHandler(reports repository.ReportsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, offset := paging(c)

		var mobile string
		if raw := c.QueryParam("mobile"); raw != "" {
			mobile = util.NormalizeMobile(raw)
		}

		rows, err := reports.ListReports(c.Request().Context(), mobile, limit, offset)
		if err != nil {
			c.Logger().Errorf("clickhouse list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(rows),
			"results": rows,
		})
	}
}
