package providers

import (
	"net/http"

	"tracer/internal/structures"
)

type RouterProviderInterface interface {
	Get(url string, handler http.Handler)
	Post(url string, handler http.Handler)
	GetRoutes() []structures.Route
	Mux() *http.ServeMux
}

// RouterProvider collects routes; the mux answers 405 for a known path with
// an unregistered method.
type RouterProvider struct {
	routes []structures.Route
}

func (rp *RouterProvider) add(method, url string, handler http.Handler) {
	rp.routes = append(rp.routes, structures.Route{
		Method:  method,
		Url:     url,
		Handler: handler,
	})
}

func (rp *RouterProvider) Get(url string, handler http.Handler) {
	rp.add(http.MethodGet, url, handler)
}

func (rp *RouterProvider) Post(url string, handler http.Handler) {
	rp.add(http.MethodPost, url, handler)
}

func (rp *RouterProvider) GetRoutes() []structures.Route {
	return rp.routes
}

func (rp *RouterProvider) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	for _, route := range rp.routes {
		mux.Handle(route.Pattern(), route.Handler)
	}
	return mux
}

func NewRouterProvider() *RouterProvider {
	return &RouterProvider{}
}
