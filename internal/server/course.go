package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	coursedomain "github.com/learnloop/learnloop/internal/course/domain"
	entitlementdomain "github.com/learnloop/learnloop/internal/entitlement/domain"
	promotiondomain "github.com/learnloop/learnloop/internal/promotion/domain"
)

func (s *Server) HandleListCourses(c *gin.Context) {
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	resp, err := s.courseSvc.List(c.Request.Context(), coursedomain.ListCourseRequest{
		PageToken:     c.Query("page_token"),
		PageSize:      pageSize,
		Category:      c.Query("category"),
		PublishedOnly: c.Query("published") != "false",
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) HandleGetCourse(c *gin.Context) {
	course, err := s.courseSvc.GetByID(c.Request.Context(), coursedomain.GetCourseRequest{
		ID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

func (s *Server) HandleCourseAccess(c *gin.Context) {
	decision, err := s.entitlementSvc.Entitled(c.Request.Context(), entitlementdomain.AccessRequest{
		UserID:   currentUserID(c),
		CourseID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

func (s *Server) HandleCreateCourse(c *gin.Context) {
	var req coursedomain.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.TeacherID) == "" {
		req.TeacherID = currentUserID(c)
	}

	course, err := s.courseSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

func (s *Server) HandlePublishCourse(c *gin.Context) {
	var body struct {
		Published *bool `json:"published"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Published == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	course, err := s.courseSvc.Publish(c.Request.Context(), coursedomain.PublishCourseRequest{
		ID:        c.Param("id"),
		Published: *body.Published,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

func (s *Server) HandleCreateSale(c *gin.Context) {
	var req promotiondomain.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sale, err := s.promotionSvc.CreateSale(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sale)
}

func (s *Server) HandleCreateCoupon(c *gin.Context) {
	var req promotiondomain.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	coupon, err := s.promotionSvc.CreateCoupon(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, coupon)
}
