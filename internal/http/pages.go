package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/starterkit/internal/domain"
	"github.com/starterkit/internal/session"
)

// profilePage shows the signed in user. Visitors without a usable session
// are sent back to the form.
func (s *Server) profilePage(c *gin.Context) {
	ctx := c.Request.Context()

	accessToken, err := s.cookies.Read(c.Request)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCookie) {
			s.logger.InfoContext(ctx, "discarding invalid session cookie", "request_id", c.GetString(requestIDKey))
			s.cookies.Clear(c.Writer)
		}
		c.Redirect(http.StatusFound, domain.PathAuth)
		return
	}

	user, err := s.authService.CurrentUser(ctx, accessToken)
	if err != nil {
		if domain.IsInfrastructureError(err) {
			data := s.newPageData(s.config.Site.Title + " - Profile")
			data.Message = domain.UserMessage(err)
			renderPage(c, http.StatusBadGateway, errorPageTemplate, data)
			return
		}
		s.cookies.Clear(c.Writer)
		c.Redirect(http.StatusFound, domain.PathAuth)
		return
	}

	data := s.newPageData(s.config.Site.Title + " - Profile")
	data.User = user
	renderPage(c, http.StatusOK, profilePageTemplate, data)
}

// welcomePage is shown after sign-up
func (s *Server) welcomePage(c *gin.Context) {
	renderPage(c, http.StatusOK, welcomePageTemplate, s.newPageData(s.config.Site.Title+" - Welcome"))
}

// logout ends the provider session when possible and always clears the cookie
func (s *Server) logout(c *gin.Context) {
	ctx := c.Request.Context()

	if accessToken, err := s.cookies.Read(c.Request); err == nil {
		if err := s.authService.SignOut(ctx, accessToken); err != nil {
			s.logger.WarnContext(ctx, "sign out failed, clearing cookie anyway", "error", err)
		}
	}

	s.cookies.Clear(c.Writer)
	c.Redirect(http.StatusFound, domain.PathAuth)
}
