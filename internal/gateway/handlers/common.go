package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"brewstock-system/internal/services/core"
)

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

// writeError maps service errors to HTTP status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case core.IsValidation(err):
		fail(c, http.StatusBadRequest, err.Error())
	case core.IsNotFound(err):
		fail(c, http.StatusNotFound, err.Error())
	case core.IsConflict(err):
		fail(c, http.StatusConflict, err.Error())
	case core.IsTransient(err):
		fail(c, http.StatusServiceUnavailable, err.Error())
	default:
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

func parseIDParam(c *gin.Context, param string) (int64, error) {
	return strconv.ParseInt(c.Param(param), 10, 64)
}

// parseDateRange reads filter/start_date/end_date query params into the
// shared range type. Dates use the 2006-01-02 layout.
func parseDateRange(c *gin.Context) core.DateRange {
	dateRange := core.DateRange{Filter: c.DefaultQuery("filter", core.FilterAll)}

	if raw := c.Query("start_date"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			dateRange.Start = &t
		}
	}
	if raw := c.Query("end_date"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			dateRange.End = &t
		}
	}

	return dateRange
}
