package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/debtfolio/src/config"
	"github.com/username/debtfolio/src/database"
	"github.com/username/debtfolio/src/handlers"
	"github.com/username/debtfolio/src/logger"
	"github.com/username/debtfolio/src/metrics"
	"github.com/username/debtfolio/src/quote"
	"github.com/username/debtfolio/src/remotestore"
	"github.com/username/debtfolio/src/services"
	"github.com/username/debtfolio/src/workflow"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel, config.Cfg.LogFormat)
	logger.L.Info("Debtfolio backend server starting...")

	logger.L.Info("Initializing local snapshot database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)

	logger.L.Info("Initializing reference cache...")
	referenceCache := cache.New(config.Cfg.ReferenceCacheTTL, 2*config.Cfg.ReferenceCacheTTL)

	logger.L.Info("Initializing services and handlers...")
	storeClient := remotestore.NewHTTPClient(
		config.Cfg.RemoteStoreURL,
		config.Cfg.RemoteStoreTimeout,
		config.Cfg.RemoteStoreObserve,
	)
	referenceService := services.NewReferenceService(storeClient, referenceCache, config.Cfg.ReferenceCacheTTL)
	historyService := services.NewHistoryService(storeClient)

	engine := quote.NewEngine()
	sessionManager := workflow.NewManager(
		engine, storeClient, referenceService,
		config.Cfg.SessionTTL,
		config.Cfg.DefaultInstallments,
		config.Cfg.MaxInstallments,
	)
	stopSweeper := make(chan struct{})
	defer close(stopSweeper)
	sessionManager.StartSweeper(config.Cfg.SessionTTL/4, stopSweeper)

	sessionHandler := handlers.NewSessionHandler(sessionManager)
	historyHandler := handlers.NewHistoryHandler(historyService, storeClient)
	referenceHandler := handlers.NewReferenceHandler(referenceService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/sessions", sessionHandler.HandleCreateSession)
	apiRouter.HandleFunc("GET /api/sessions/{id}", sessionHandler.HandleGetSession)
	apiRouter.HandleFunc("DELETE /api/sessions/{id}", sessionHandler.HandleDeleteSession)
	apiRouter.HandleFunc("POST /api/sessions/{id}/lines", sessionHandler.HandleAddLine)
	apiRouter.HandleFunc("PUT /api/sessions/{id}/lines/{index}", sessionHandler.HandleUpdateLine)
	apiRouter.HandleFunc("DELETE /api/sessions/{id}/lines/{index}", sessionHandler.HandleRemoveLine)
	apiRouter.HandleFunc("POST /api/sessions/{id}/calculate", sessionHandler.HandleCalculate)
	apiRouter.HandleFunc("POST /api/sessions/{id}/installments", sessionHandler.HandleSetInstallments)
	apiRouter.HandleFunc("POST /api/sessions/{id}/commit", sessionHandler.HandleCommit)
	apiRouter.HandleFunc("POST /api/sessions/{id}/reanalyze", sessionHandler.HandleReanalyze)
	apiRouter.HandleFunc("POST /api/sessions/{id}/load/{folio}", sessionHandler.HandleLoadFromHistory)

	apiRouter.HandleFunc("GET /api/history", historyHandler.HandleGetHistory)
	apiRouter.HandleFunc("GET /api/plans/{folio}", historyHandler.HandleGetPlanDetail)
	apiRouter.HandleFunc("GET /api/reference-lists", referenceHandler.HandleGetReferenceLists)
	apiRouter.HandleFunc("POST /api/reference-lists/refresh", referenceHandler.HandleRefreshReferenceLists)

	rootMux.Handle("/api/", handlers.LoggingMiddleware(apiRouter))
	rootMux.Handle("/metrics", metrics.Handler())

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Debtfolio backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
