package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sanjshine99/care-app-backend/internal/apperr"
	"github.com/sanjshine99/care-app-backend/internal/store"
)

// ok writes the {success: true, data: ...} envelope.
func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// fail writes the {success: false, error: {code, message}} envelope,
// mapping an *apperr.Error's domain.ErrorCode to its HTTP status and
// falling back to 404/500 for everything else.
func fail(c *gin.Context, err error) {
	if appErr := apperr.As(err); appErr != nil {
		c.JSON(apperr.HTTPStatus(appErr.Code), gin.H{
			"success": false,
			"error":   gin.H{"code": string(appErr.Code), "message": appErr.Message},
		})
		return
	}
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   gin.H{"code": "NOT_FOUND", "message": err.Error()},
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   gin.H{"code": "INTERNAL_ERROR", "message": err.Error()},
	})
}

// parseDateRange reads and validates the start_date/end_date query pair
// shared by most schedule endpoints, writing the failure envelope itself
// so handlers can just return on a false ok.
func parseDateRange(c *gin.Context, startStr, endStr string) (time.Time, time.Time, bool) {
	if startStr == "" || endStr == "" {
		fail(c, apperr.MissingDates("start_date and end_date are required"))
		return time.Time{}, time.Time{}, false
	}
	start, err := parseDate(startStr)
	if err != nil {
		fail(c, apperr.Validation("start_date must be an ISO-8601 date"))
		return time.Time{}, time.Time{}, false
	}
	end, err := parseDate(endStr)
	if err != nil {
		fail(c, apperr.Validation("end_date must be an ISO-8601 date"))
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		fail(c, apperr.InvalidDateRange("end_date must not precede start_date"))
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
