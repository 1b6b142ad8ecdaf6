package server

import (
	"html/template"
	"net/http"
)

const pageLayout = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: {{.Color}}; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <p>{{.Message}}</p>
        {{- if .Link}}
        <p><a href="{{.Link}}" target="_blank">{{.LinkText}}</a></p>
        {{- end}}
    </div>
</body>
</html>
`

var pageTemplate = template.Must(template.New("page").Parse(pageLayout))

// Page is the content of one static HTML response.
type Page struct {
	Title    string
	Message  string
	Link     string
	LinkText string
	Color    template.CSS
}

var (
	syncStartedPage = Page{
		Title:   "Sync started",
		Message: "Sync process started. Check logs for progress.",
		Color:   "#FF0000",
	}
	authSuccessPage = Page{
		Title:   "Authorization successful",
		Message: "Authorization successful! You can close this tab and run the script again.",
		Color:   "#1DB954",
	}
	authFailurePage = Page{
		Title:   "Authorization failed",
		Message: "Authorization failed. Check Client ID/Secret settings and try again.",
		Color:   "#D93025",
	}
)

func authRequiredPage(url string) Page {
	return Page{
		Title:    "Authorization required",
		Message:  "Open the following link to authorize access to your YouTube account, then run the sync again.",
		Link:     url,
		LinkText: "Authorize",
		Color:    "#FF0000",
	}
}

// renderPage writes p as HTML with the given status.
func renderPage(w http.ResponseWriter, status int, p Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = pageTemplate.Execute(w, p)
}
