package controllers

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
  <head><meta charset="utf-8"><title>{{.Title}}</title></head>
  <body style="font-family: Arial; text-align: center; padding: 50px;">
    <h1>{{.Title}}</h1>
    <p>{{.Message}}</p>
    {{- if .FormAction}}
    <form method="POST" action="{{.FormAction}}">
      <input type="password" name="password" placeholder="Password" style="padding:10px;" autofocus />
      <button type="submit" style="padding:10px 20px;">Unlock</button>
    </form>
    {{- else}}
    <a href="/">{{.LinkText}}</a>
    {{- end}}
  </body>
</html>
`))

type page struct {
	Title      string
	Message    string
	LinkText   string
	FormAction string
}

var (
	notFoundPage = page{Title: "404 - Link Not Found", Message: "This short link doesn't exist.", LinkText: "Go Home"}
	expiredPage  = page{Title: "410 - Link Expired", Message: "This short link has expired.", LinkText: "Create a new link"}
	errorPage    = page{Title: "500 - Server Error", Message: "Sorry, something went wrong.", LinkText: "Go Home"}
	badCodePage  = page{Title: "400 - Bad Request", Message: "A short code is required.", LinkText: "Go Home"}
)

func passwordPage(action string, rejected bool) page {
	p := page{
		Title:      "Protected Link",
		Message:    "This link is password protected. Enter the password to continue.",
		FormAction: action,
	}
	if rejected {
		p.Message = "Incorrect password. Please try again."
	}
	return p
}

// renderPage writes p as a minimal HTML document.
func renderPage(c *gin.Context, status int, p page) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
