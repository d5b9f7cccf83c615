// Package app はアプリケーションの起動とワイヤリングを提供する。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/WTWB-none/book-tg-bot/internal/admin"
	"github.com/WTWB-none/book-tg-bot/internal/bot"
	"github.com/WTWB-none/book-tg-bot/internal/config"
	"github.com/WTWB-none/book-tg-bot/internal/database"
	"github.com/WTWB-none/book-tg-bot/internal/handler"
	"github.com/WTWB-none/book-tg-bot/internal/logger"
	"github.com/WTWB-none/book-tg-bot/internal/metrics"
	"github.com/WTWB-none/book-tg-bot/internal/repository"
	"github.com/WTWB-none/book-tg-bot/internal/security"
	"github.com/WTWB-none/book-tg-bot/internal/subscription"
	"github.com/WTWB-none/book-tg-bot/internal/tribute"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandBot:
		return runBot(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runAll(cfg)
	}
}

// dependencies はserve/bot両モードで共有するワイヤリング済み依存。
type dependencies struct {
	db       *sql.DB
	registry *prometheus.Registry
	verifier *subscription.Verifier
	engine   *admin.Engine
	router   http.Handler
}

// buildDependencies はDB接続を開き、全サービスをワイヤリングする。
// Verifierは1インスタンスをBotとAPIの両方で共有する。
func buildDependencies(cfg *config.Config) (*dependencies, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// リポジトリの初期化
	bookRepo := repository.NewPostgresBookRepo(db)
	chapterRepo := repository.NewPostgresChapterRepo(db)
	subscriberRepo := repository.NewPostgresSubscriberRepo(db)

	// メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Tributeクライアントと購読検証サービスの初期化
	tributeClient := tribute.NewClient(
		&http.Client{Timeout: cfg.TributeTimeout},
		slog.Default(),
		cfg.TributeAPIURL,
		cfg.TributeAPIKey,
	)
	verifier := subscription.NewVerifier(subscriberRepo, tributeClient, slog.Default(), collector)

	// 管理フローエンジンの初期化
	engine := admin.NewEngine(cfg.AdminUserIDs, bookRepo, chapterRepo, subscriberRepo, slog.Default(), collector)

	// ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:             slog.Default(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		StatusRecorder:     collector,
		Books:              bookRepo,
		Chapters:           chapterRepo,
		Sanitizer:          security.NewContentSanitizer(),
		Verifier:           verifier,
		HealthChecker:      db,
		Gatherer:           registry,
	})

	return &dependencies{
		db:       db,
		registry: registry,
		verifier: verifier,
		engine:   engine,
		router:   router,
	}, nil
}

// newServer はHTTPサーバーを構築する。
func newServer(cfg *config.Config, router http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// newBot はTelegram APIに接続しBotを構築する。
func newBot(cfg *config.Config, deps *dependencies) (*bot.Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	slog.Info("telegram bot authorized",
		slog.String("username", api.Self.UserName),
	)

	return bot.New(api, deps.verifier, deps.engine, slog.Default(), bot.Config{
		WebAppURL:           cfg.WebAppURL,
		MaxConcurrentVerify: cfg.BotMaxConcurrent,
		SendRate:            float64(cfg.SendRate),
	}), nil
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	deps, err := buildDependencies(cfg)
	if err != nil {
		return err
	}
	defer deps.db.Close()

	server := newServer(cfg, deps.router)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runBot はTelegram Botモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信すると停止する。
func runBot(cfg *config.Config) error {
	deps, err := buildDependencies(cfg)
	if err != nil {
		return err
	}
	defer deps.db.Close()

	b, err := newBot(cfg, deps)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down bot...")
		cancel()
	}()

	if err := b.Run(ctx); err != nil {
		return fmt.Errorf("bot stopped with error: %w", err)
	}

	slog.Info("bot stopped gracefully")
	return nil
}

// runAll はAPIサーバーとTelegram Botを同一プロセスで起動する。
// 両者は同一のVerifierインスタンスとDB接続を共有する。
func runAll(cfg *config.Config) error {
	deps, err := buildDependencies(cfg)
	if err != nil {
		return err
	}
	defer deps.db.Close()

	b, err := newBot(cfg, deps)
	if err != nil {
		return err
	}

	server := newServer(cfg, deps.router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	botDone := make(chan error, 1)
	go func() {
		botDone <- b.Run(ctx)
	}()

	<-stop
	slog.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if err := <-botDone; err != nil {
		return fmt.Errorf("bot stopped with error: %w", err)
	}

	slog.Info("stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
