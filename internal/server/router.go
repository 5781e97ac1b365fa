package server

import (
	"context"
	"net/http"

	"recipebox/internal/handlers"
	applog "recipebox/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")

	mux.HandleFunc("/healthz", handlers.Health)
	mux.HandleFunc("/api/users", handlers.CreateUser)
	mux.HandleFunc("/api/users/token", handlers.Token)
	mux.HandleFunc("/api/users/logout", handlers.Logout)
	mux.Handle("/api/users/me", handlers.RequireAuthentication(http.HandlerFunc(handlers.Me)))

	mux.Handle("/api/recipes", handlers.RequireAuthentication(http.HandlerFunc(handlers.RecipeResource)))
	mux.Handle("/api/recipes/", handlers.RequireAuthentication(http.HandlerFunc(handlers.RecipeResource)))
	mux.Handle("/api/tags", handlers.RequireAuthentication(http.HandlerFunc(handlers.TagResource)))
	mux.Handle("/api/tags/", handlers.RequireAuthentication(http.HandlerFunc(handlers.TagResource)))
	mux.Handle("/api/ingredients", handlers.RequireAuthentication(http.HandlerFunc(handlers.IngredientResource)))
	mux.Handle("/api/ingredients/", handlers.RequireAuthentication(http.HandlerFunc(handlers.IngredientResource)))

	applog.Debug(context.Background(), "http routes registered")
	return mux
}
