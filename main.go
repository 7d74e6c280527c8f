package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"Gascalc/internal/auth"
	"Gascalc/internal/calc/gas"
	"Gascalc/internal/calc/premium/batch"
	"Gascalc/internal/calc/premium/importer"
	"Gascalc/internal/calc/report"
	"Gascalc/internal/config"
	"Gascalc/internal/logging"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept-Language")
		w.Header().Set("Access-Control-Expose-Headers", gas.WarningHeader+", X-Report-Id, Content-Disposition")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newEngine(cfg config.Config) (*gas.Engine, error) {
	if cfg.AgentsFile == "" {
		return gas.Default(), nil
	}
	agents, coverage, err := gas.LoadAgents(cfg.AgentsFile)
	if err != nil {
		return nil, err
	}
	return gas.NewEngine(agents, coverage)
}

func HandleList(router *mux.Router, cfg config.Config, engine *gas.Engine, log *zap.Logger) {
	lang, err := language.Parse(cfg.ReportLang)
	if err != nil {
		log.Warn("unknown REPORT_LANG, using fr", zap.String("lang", cfg.ReportLang))
		lang = language.French
	}

	limiter := auth.NewIPRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	tokens := &auth.TokenAuth{Key: []byte(cfg.TokenKey), Log: log}
	if cfg.TokenKey == "" {
		log.Warn("TOKEN_KEY not set, premium tools are open")
	}

	gasH := &gas.Handler{Engine: engine, Log: log}
	reportH := &report.Handler{Engine: engine, Log: log, Lang: report.Match(lang)}
	batchH := &batch.Handler{Engine: engine, Log: log, Limit: cfg.BatchLimit}
	importH := &importer.Handler{Engine: engine, Log: log, MaxSize: cfg.MaxUploadBytes}

	api := router.PathPrefix("/api").Subrouter()
	api.Use(limiter.LimitMiddleware)

	api.HandleFunc("/calculate-gas", gasH.Calc).Methods("POST")
	api.HandleFunc("/tools/gas/calc", gasH.Calc).Methods("POST")
	api.HandleFunc("/tools/gas/agents", gasH.Agents).Methods("GET")
	api.HandleFunc("/tools/gas/report", reportH.Generate).Methods("POST")

	premium := api.PathPrefix("/premium").Subrouter()
	premium.Use(tokens.Middleware)

	premium.HandleFunc("/gas/batch", batchH.Gas).Methods("POST")
	premium.HandleFunc("/gas/import", importH.Gas).Methods("POST")
	premium.HandleFunc("/gas/import/template", importH.Template).Methods("GET")

	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir)))
	} else {
		log.Warn("static directory not found, frontend disabled", zap.String("dir", cfg.StaticDir))
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, "gascalc")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	engine, err := newEngine(cfg)
	if err != nil {
		log.Fatal("agent table", zap.String("file", cfg.AgentsFile), zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	router := mux.NewRouter()
	HandleList(router, cfg, engine, log)
	router.Use(logging.Middleware(log))

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: CORS(router),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("starting server", zap.String("addr", cfg.Addr), zap.Bool("tls", cfg.TLS()))
		var err error
		if cfg.TLS() {
			err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, closing active connections")

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	wg.Wait()
	log.Info("server stopped")
}
