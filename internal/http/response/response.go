package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fundlens/fundlens-backend/internal/modules/analysis"
	"github.com/fundlens/fundlens-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondFromError maps service errors onto HTTP statuses. Unclassified
// errors surface as 500s.
func RespondFromError(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		RespondError(c, ae.Status, ae.Code, ae)
		return
	}
	if errors.Is(err, analysis.ErrInvalidRequest) {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal", err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
