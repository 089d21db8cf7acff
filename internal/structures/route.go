package structures

import "net/http"

type Route struct {
	Method  string
	Url     string
	Handler http.Handler
}

// Pattern is the ServeMux pattern for the route, e.g. "GET /api/series".
func (r Route) Pattern() string {
	return r.Method + " " + r.Url
}
