package web

import (
	"net/http"
	"strconv"

	"github.com/fijter/discord-standupbot/internal/app"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Server hosts the answer-collection surface: the token form, the token
// home/overview, the public summary permalink and the bearer-token admin
// endpoints for question management.
type Server struct {
	formService  *app.FormService
	adminService *app.AdminService
	adminToken   string
	logger       *logrus.Logger
	engine       *gin.Engine
}

func NewServer(formService *app.FormService, adminService *app.AdminService, adminToken, environment string, logger *logrus.Logger) *Server {
	if environment == "production" || environment == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		formService:  formService,
		adminService: adminService,
		adminToken:   adminToken,
		logger:       logger,
		engine:       gin.New(),
	}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/standup/:token", s.handleGetForm)
	s.engine.POST("/standup/:token", s.handleSubmitForm)
	s.engine.GET("/home/:token", s.handleGetHome)
	s.engine.GET("/standups/:channel/:slug/:date", s.handleGetPublicSummary)

	admin := s.engine.Group("/api", s.requireAdminToken)
	admin.GET("/definitions/:id/questions", s.handleListQuestions)
	admin.POST("/definitions/:id/questions", s.handleAddQuestion)
	admin.DELETE("/questions/:id", s.handleRemoveQuestion)
	admin.PUT("/questions/:id/position", s.handleMoveQuestion)
}

func (s *Server) Run(addr string) error {
	s.logger.WithField("addr", addr).Info("Standup form server listening")
	return s.engine.Run(addr)
}

// requireAdminToken gates the question-management endpoints with the static
// bearer token from configuration.
func (s *Server) requireAdminToken(c *gin.Context) {
	if c.GetHeader("Authorization") != "Bearer "+s.adminToken {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

func (s *Server) handleGetForm(c *gin.Context) {
	form, err := s.formService.GetForm(c.Request.Context(), c.Param("token"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

type submitRequest struct {
	// Answers maps question ID to answer text; unlisted questions submit
	// an empty answer.
	Answers map[int64]string `json:"answers"`
}

func (s *Server) handleSubmitForm(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.formService.Submit(c.Request.Context(), c.Param("token"), req.Answers); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

func (s *Server) handleGetHome(c *gin.Context) {
	home, err := s.formService.GetHome(c.Request.Context(), c.Param("token"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, home)
}

func (s *Server) handleGetPublicSummary(c *gin.Context) {
	summary, err := s.formService.GetPublicSummary(c.Request.Context(), c.Param("channel"), c.Param("slug"), c.Param("date"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleListQuestions(c *gin.Context) {
	definitionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid definition id"})
		return
	}
	questions, err := s.adminService.ListQuestions(c.Request.Context(), definitionID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	out := make([]gin.H, 0, len(questions))
	for _, q := range questions {
		item := gin.H{
			"id":        q.ID,
			"position":  q.Position,
			"text":      q.Text,
			"important": q.Important,
		}
		if q.PrefillFromID.Valid {
			item["prefill_from_id"] = q.PrefillFromID.Int64
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, out)
}

type addQuestionRequest struct {
	Text          string `json:"text" binding:"required"`
	Important     bool   `json:"important"`
	PrefillFromID int64  `json:"prefill_from_id"`
}

func (s *Server) handleAddQuestion(c *gin.Context) {
	definitionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid definition id"})
		return
	}
	var req addQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	q, err := s.adminService.AddQuestion(c.Request.Context(), definitionID, req.Text, req.Important, req.PrefillFromID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": q.ID, "position": q.Position})
}

func (s *Server) handleRemoveQuestion(c *gin.Context) {
	questionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question id"})
		return
	}
	if err := s.adminService.RemoveQuestion(c.Request.Context(), questionID); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type moveQuestionRequest struct {
	Position int `json:"position"`
}

func (s *Server) handleMoveQuestion(c *gin.Context) {
	questionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question id"})
		return
	}
	var req moveQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.adminService.MoveQuestion(c.Request.Context(), questionID, req.Position); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "moved"})
}

// renderError maps service errors onto HTTP statuses. Token failures are a
// plain 404 so an expired link leaks nothing about why.
func (s *Server) renderError(c *gin.Context, err error) {
	switch {
	case err == app.ErrFormNotFound || isNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		s.logger.WithError(err).Error("Unhandled form surface error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
