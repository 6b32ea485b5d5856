// ABOUTME: Template rendering functions for the gatekeep pages
// ABOUTME: Loads templates from the embedded filesystem and renders them

package web

import (
	"html/template"
	"net/http"

	"github.com/solstice-labs/gatekeep/internal/store"
)

// Template data types
type homeData struct {
	Title string
	User  *store.User
}

type credentialsPageData struct {
	Title     string
	Error     string
	Providers []string
}

type profileData struct {
	Title      string
	User       *store.User
	AuthMethod string
}

func (s *Server) renderHome(w http.ResponseWriter, user *store.User) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/home.html"))

	data := homeData{
		Title: "gatekeep",
		User:  user,
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		s.logger.Error("template render failed", "template", "home", "error", err)
	}
}

func (s *Server) renderLogin(w http.ResponseWriter, errorMsg string, providers []string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/login.html"))

	data := credentialsPageData{
		Title:     "Log in",
		Error:     errorMsg,
		Providers: providers,
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		s.logger.Error("template render failed", "template", "login", "error", err)
	}
}

func (s *Server) renderRegister(w http.ResponseWriter, errorMsg string, providers []string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/register.html"))

	data := credentialsPageData{
		Title:     "Create account",
		Error:     errorMsg,
		Providers: providers,
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		s.logger.Error("template render failed", "template", "register", "error", err)
	}
}

func (s *Server) renderProfile(w http.ResponseWriter, user *store.User, method string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/profile.html"))

	data := profileData{
		Title:      "Profile",
		User:       user,
		AuthMethod: method,
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		s.logger.Error("template render failed", "template", "profile", "error", err)
	}
}
