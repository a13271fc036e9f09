package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	pricingdomain "github.com/learnloop/learnloop/internal/pricing/domain"
)

func (s *Server) HandleQuote(c *gin.Context) {
	courseID := strings.TrimSpace(c.Query("course_id"))
	if courseID == "" {
		AbortWithError(c, newValidationError("course_id", "invalid_course_id", "course_id is required"))
		return
	}

	quote, err := s.pricingSvc.Quote(c.Request.Context(), pricingdomain.QuoteRequest{
		CourseID:   courseID,
		CouponCode: c.Query("coupon"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}
