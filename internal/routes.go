package internal

import (
	"net/http"

	"tracer/internal/controllers"
	"tracer/internal/providers"
)

func InitRoutes(apiController *controllers.ApiController, viewController *controllers.ViewController, feedController *controllers.FeedController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/datapoints", http.HandlerFunc(apiController.GetDataPoints))
	routers.Post("/datapoints", http.HandlerFunc(apiController.AddDataPoint))
	routers.Post("/datapoints/update", http.HandlerFunc(apiController.UpdateDataPoint))
	routers.Post("/datapoints/delete", http.HandlerFunc(apiController.DeleteDataPoint))

	routers.Get("/series", http.HandlerFunc(apiController.GetSeries))
	routers.Post("/series", http.HandlerFunc(apiController.AddSeries))
	routers.Post("/series/update", http.HandlerFunc(apiController.UpdateSeries))
	routers.Post("/series/delete", http.HandlerFunc(apiController.DeleteSeries))

	routers.Get("/views/chart", http.HandlerFunc(viewController.Chart))
	routers.Get("/views/calendar", http.HandlerFunc(viewController.Calendar))
	routers.Get("/views/timeline", http.HandlerFunc(viewController.Timeline))
	routers.Get("/views/unique-values", http.HandlerFunc(viewController.UniqueValues))

	routers.Get("/export.csv", http.HandlerFunc(apiController.Export))
	routers.Post("/import", http.HandlerFunc(apiController.Import))
	routers.Post("/generate", http.HandlerFunc(apiController.Generate))
	routers.Post("/reset", http.HandlerFunc(apiController.Reset))

	routers.Get("/ws", http.HandlerFunc(feedController.Feed))
	return routers
}
