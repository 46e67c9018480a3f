package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/starterkit/internal/domain"
)

// Form fields posted by the auth form
const (
	fieldEmail    = "email"
	fieldPassword = "password"
	fieldIsSignIn = "is_sign_in"
)

// authPage renders the sign in / sign up form
func (s *Server) authPage(c *gin.Context) {
	data := s.newPageData(s.config.Site.AuthPageTitle())
	data.IsSignIn = c.Query("mode") != "signup"
	renderPage(c, http.StatusOK, authPageTemplate, data)
}

// authAction handles the form submission.
//
// Errors are answered with 422: the error object as JSON, or the form again
// with the errors inline for clients that prefer HTML. Success redirects to
// /profile with the session cookie after sign-in, or to /welcome after sign-up.
func (s *Server) authAction(c *gin.Context) {
	creds := domain.Credentials{
		Email:    c.PostForm(fieldEmail),
		Password: c.PostForm(fieldPassword),
		IsSignIn: c.PostForm(fieldIsSignIn) == "true",
	}

	outcome, err := s.authService.Authenticate(c.Request.Context(), creds)
	if err != nil {
		s.logger.WarnContext(c.Request.Context(), "auth request abandoned", "error", err, "request_id", c.GetString(requestIDKey))
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "Request cancelled",
			Details: "the sign in request ended before it could be processed",
		})
		return
	}

	if outcome.Errors.Empty() && outcome.Session != nil {
		if err := s.cookies.Write(c.Writer, outcome.Session); err != nil {
			s.logger.ErrorContext(c.Request.Context(), "failed to write session cookie", "error", err)
			outcome.Errors.AddService("could not store the session, please try again")
		}
	}

	if !outcome.Errors.Empty() {
		s.respondAuthErrors(c, creds, outcome.Errors)
		return
	}

	c.Redirect(http.StatusFound, outcome.Redirect())
}

func (s *Server) respondAuthErrors(c *gin.Context, creds domain.Credentials, errs domain.FieldErrors) {
	if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
		data := s.newPageData(s.config.Site.AuthPageTitle())
		data.Email = creds.Email
		data.IsSignIn = creds.IsSignIn
		data.Errors = &errs
		renderPage(c, http.StatusUnprocessableEntity, authPageTemplate, data)
		return
	}
	c.JSON(http.StatusUnprocessableEntity, errs)
}
