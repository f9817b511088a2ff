package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plateful/recipe-cli/internal/extract"
	"github.com/plateful/recipe-cli/internal/model"
	"github.com/plateful/recipe-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for scrape requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initScrapeEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func newRouter(env *scrapeEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", handleHealth)
	r.Post("/scrape", handleScrape(env))
	r.Get("/recipes", handleListRecipes(env.Store))
	r.Get("/recipes/{id}", handleGetRecipe(env.Store))
	r.Delete("/recipes/{id}", handleDeleteRecipe(env.Store))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleScrape(env *scrapeEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.URL == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}

		recipe, err := env.scrapeOne(r.Context(), req.URL)
		if err != nil {
			var extractErr *extract.ExtractionFailedError
			if eris.As(err, &extractErr) {
				writeError(w, http.StatusUnprocessableEntity, extractErr.Error())
				return
			}
			zap.L().Error("scrape request failed",
				zap.String("url", req.URL),
				zap.Error(err),
			)
			writeError(w, http.StatusBadGateway, "scrape failed")
			return
		}

		writeJSON(w, http.StatusCreated, recipe)
	}
}

func handleListRecipes(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := store.Filter{
			SourceURL:        q.Get("source"),
			ExtractionMethod: model.ExtractionMethod(q.Get("method")),
			AIParsingStatus:  model.AIParsingStatus(q.Get("status")),
		}

		recipes, err := st.ListRecipes(r.Context(), filter)
		if err != nil {
			zap.L().Error("list recipes failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		if recipes == nil {
			recipes = []model.Recipe{}
		}

		writeJSON(w, http.StatusOK, recipes)
	}
}

func handleGetRecipe(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipe, err := st.GetRecipe(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if eris.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "recipe not found")
				return
			}
			zap.L().Error("get recipe failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "get failed")
			return
		}

		writeJSON(w, http.StatusOK, recipe)
	}
}

func handleDeleteRecipe(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := st.DeleteRecipe(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if eris.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "recipe not found")
				return
			}
			zap.L().Error("delete recipe failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "delete failed")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
