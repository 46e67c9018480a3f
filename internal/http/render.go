package http

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/starterkit/internal/config"
	"github.com/starterkit/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// shared partials parsed into every page
var partials = []string{
	"templates/layout.html",
	"templates/starterkit.html",
	"templates/authform.html",
}

var (
	authPageTemplate    = mustPage("auth.html")
	profilePageTemplate = mustPage("profile.html")
	welcomePageTemplate = mustPage("welcome.html")
	errorPageTemplate   = mustPage("error.html")
)

func mustPage(name string) *template.Template {
	patterns := append(append([]string{}, partials...), "templates/"+name)
	return template.Must(template.New(name).ParseFS(templateFS, patterns...))
}

// pageData is what every page template receives
type pageData struct {
	Title       string
	Description string
	Site        config.SiteConfig

	// auth form
	Email    string
	IsSignIn bool
	Errors   *domain.FieldErrors

	User    *domain.User
	Message string
}

func (s *Server) newPageData(title string) pageData {
	return pageData{
		Title:       title,
		Description: s.config.Site.Description,
		Site:        s.config.Site,
	}
}

// renderPage writes a full HTML page wrapped in the site layout
func renderPage(c *gin.Context, status int, tmpl *template.Template, data pageData) {
	c.Render(status, render.HTML{
		Template: tmpl,
		Name:     "layout",
		Data:     data,
	})
}
