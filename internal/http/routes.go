package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/starterkit/internal/domain"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.engine.GET(domain.PathHealth, s.health)

	s.engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, domain.PathAuth)
	})

	// Sign in / sign up
	s.engine.GET(domain.PathAuth, s.authPage)
	s.engine.POST(domain.PathAuth, s.authAction)

	// Pages reached after the form
	s.engine.GET(domain.PathProfile, s.profilePage)
	s.engine.GET(domain.PathWelcome, s.welcomePage)
	s.engine.POST(domain.PathLogout, s.logout)

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "starterkit",
		"provider": s.authService.ProviderName(),
	})
}
