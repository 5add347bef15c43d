package gateway

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
)

var loginRequiredTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; text-align: center; margin-top: 100px; }
        .error { color: #d32f2f; }
    </style>
</head>
<body>
    <h1 class="error">{{.Title}}</h1>
    <p>You must be logged in to register for {{.Product}}.</p>
    <p><a href="{{.LoginPath}}">Click here to login</a></p>
</body>
</html>
`))

type loginRequiredPage struct {
	Title     string
	Product   string
	LoginPath string
}

// writeLoginRequired answers an unauthenticated registration with a
// rendered page instead of a JSON body.
func writeLoginRequired(w http.ResponseWriter) error {
	var buf bytes.Buffer
	err := loginRequiredTemplate.Execute(&buf, loginRequiredPage{
		Title:     "Authentication Required",
		Product:   "Azure Isekai",
		LoginPath: "/login",
	})
	if err != nil {
		return fmt.Errorf("failed to render login page: %w", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(buf.Bytes())
	return nil
}
