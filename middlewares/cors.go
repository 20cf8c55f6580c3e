package middlewares

import (
	"github.com/go-chi/cors"

	"github.com/lightmvc/lightmvc/internal"
	"github.com/lightmvc/lightmvc/pkg/config"
)

// CORS returns middleware answering preflight requests and adding CORS
// headers to every response of an allowed origin. An empty origin list
// allows every origin.
//
// Example:
//
//	lightmvc.WithMiddleware(middlewares.CORS(config.CORSConfig{
//	    AllowedOrigins: []string{"https://app.example.com"},
//	    AllowCredentials: true,
//	}))
func CORS(cfg config.CORSConfig) internal.Middleware {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return CORSWithOptions(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}

// CORSWithOptions is CORS with full control over the go-chi/cors options,
// such as AllowOriginFunc.
func CORSWithOptions(opts cors.Options) internal.Middleware {
	return internal.FromHTTP(cors.Handler(opts))
}
