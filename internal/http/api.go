package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"blog-api/internal/auth"
	"blog-api/internal/domain"
	"blog-api/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	accounts service.AccountService
	blogs    service.BlogService
	tokens   *auth.TokenService
	logger   *logrus.Logger
}

func NewHandler(accounts service.AccountService, blogs service.BlogService, tokens *auth.TokenService, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		accounts: accounts,
		blogs:    blogs,
		tokens:   tokens,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "hello"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.GET("/verify-email", h.verifyEmail)
		authGroup.POST("/resend-verification", h.resendVerification)
	}

	blogs := router.Group("/blogs")
	{
		blogs.POST("", h.requireAdmin(), h.createBlog)
		blogs.GET("", h.requireUser(), h.listBlogs)
		blogs.GET("/:blogId", h.requireUser(), h.getBlog)
		blogs.PUT("/:blogId", h.requireEditor(), h.updateBlog)
		blogs.DELETE("/:blogId", h.requireAdmin(), h.deleteBlog)
		blogs.PUT("/:blogId/assign-editor", h.requireAdmin(), h.assignEditor)

		blogs.POST("/:blogId/comments", h.requireUser(), h.addComment)
		blogs.DELETE("/:blogId/comments/:commentId", h.requireUser(), h.removeComment)
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type resendVerificationRequest struct {
	Email string `json:"email"`
}

type blogRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type assignEditorRequest struct {
	AssignedEditorID string `json:"assignedEditorId"`
}

type commentRequest struct {
	Content string `json:"content"`
}

// bindJSON decodes the body into dst and answers 400 on malformed JSON.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWithMessage(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	h.logger.WithField("user_id", user.ID).Info("user registered")
	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful. Please verify your email."})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) verifyEmail(c *gin.Context) {
	if err := h.accounts.VerifyEmail(c.Request.Context(), c.Query("token")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "successfully verified Email"})
}

func (h *Handler) resendVerification(c *gin.Context) {
	var req resendVerificationRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.accounts.ResendVerification(c.Request.Context(), req.Email); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the account exists and is unverified, a new verification email has been sent"})
}

func (h *Handler) createBlog(c *gin.Context) {
	var req blogRequest
	if !bindJSON(c, &req) {
		return
	}

	blog, err := h.blogs.Create(c.Request.Context(), deref(req.Title), deref(req.Content))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Blog created successfully", "createdBlog": blogToResponse(*blog)})
}

func (h *Handler) listBlogs(c *gin.Context) {
	blogs, err := h.blogs.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]BlogResponse, len(blogs))
	for i := range blogs {
		resp[i] = blogToResponse(blogs[i])
	}
	c.JSON(http.StatusOK, gin.H{"blogs": resp})
}

func (h *Handler) getBlog(c *gin.Context) {
	blog, err := h.blogs.Get(c.Request.Context(), c.Param("blogId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, blogToResponse(*blog))
}

func (h *Handler) updateBlog(c *gin.Context) {
	var req blogRequest
	if !bindJSON(c, &req) {
		return
	}

	blog, err := h.blogs.Update(c.Request.Context(), c.Param("blogId"), service.UpdateBlogInput{
		Title:   req.Title,
		Content: req.Content,
	}, currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Blog Updated Successfully", "updatedBlog": blogToResponse(*blog)})
}

func (h *Handler) deleteBlog(c *gin.Context) {
	blog, err := h.blogs.Delete(c.Request.Context(), c.Param("blogId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Blog deleted Successfully", "deletedBlog": blogToResponse(*blog)})
}

func (h *Handler) assignEditor(c *gin.Context) {
	var req assignEditorRequest
	if !bindJSON(c, &req) {
		return
	}

	blog, err := h.blogs.AssignEditor(c.Request.Context(), c.Param("blogId"), req.AssignedEditorID, currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated Successfully", "updatedBlog": blogToResponse(*blog)})
}

func (h *Handler) addComment(c *gin.Context) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}

	blog, err := h.blogs.AddComment(c.Request.Context(), c.Param("blogId"), currentUser(c), req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment Added Successfully", "blog": blogToResponse(*blog)})
}

func (h *Handler) removeComment(c *gin.Context) {
	blog, err := h.blogs.RemoveComment(c.Request.Context(), c.Param("blogId"), c.Param("commentId"), currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully", "blog": blogToResponse(*blog)})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
