// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/edisonsteele/firstwork/internal/billing"
	"github.com/edisonsteele/firstwork/internal/config"
	"github.com/edisonsteele/firstwork/internal/database"
	"github.com/edisonsteele/firstwork/internal/handler"
	"github.com/edisonsteele/firstwork/internal/logger"
	"github.com/edisonsteele/firstwork/internal/metrics"
	"github.com/edisonsteele/firstwork/internal/middleware"
	"github.com/edisonsteele/firstwork/internal/payment"
	"github.com/edisonsteele/firstwork/internal/progress"
	"github.com/edisonsteele/firstwork/internal/referral"
	"github.com/edisonsteele/firstwork/internal/repository"
	"github.com/edisonsteele/firstwork/internal/reward"
	"github.com/edisonsteele/firstwork/internal/student"
	"github.com/edisonsteele/firstwork/internal/studysession"
	"github.com/edisonsteele/firstwork/internal/task"
	"github.com/edisonsteele/firstwork/internal/worker/cleanup"
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
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	purchaseRepo := repository.NewPostgresPurchaseRepo(db)
	referralRepo := repository.NewPostgresReferralRepo(db)
	referralRewardRepo := repository.NewPostgresReferralRewardRepo(db)
	tokenRepo := repository.NewPostgresAccessTokenRepo(db)
	studentRepo := repository.NewPostgresStudentRepo(db)
	taskRepo := repository.NewPostgresTaskRepo(db)
	rewardRepo := repository.NewPostgresRewardRepo(db)
	studySessionRepo := repository.NewPostgresStudySessionRepo(db)
	progressRepo := repository.NewPostgresProgressRepo(db)
	eventRepo := repository.NewPostgresWebhookEventRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. ドメインサービスの初期化
	reconciler := billing.NewReconciler(
		eventRepo, purchaseRepo, referralRepo, collector,
		billing.ReconcilerConfig{
			WebhookSecret:         cfg.StripeWebhookSecret,
			SignatureTolerance:    cfg.SignatureTolerance,
			ReferralInitialStatus: cfg.ReferralInitialStatus,
			PlanForPrice:          cfg.PlanForPrice,
		},
	)

	gateway := payment.NewClient(cfg.StripeSecretKey, cfg.StripeAPIBaseURL, nil)
	checkoutService := billing.NewCheckoutService(gateway, collector, billing.CheckoutConfig{
		SuccessURL:   cfg.CheckoutSuccessURL,
		CancelURL:    cfg.CheckoutCancelURL,
		PlanForPrice: cfg.PlanForPrice,
	})

	referralService := referral.NewService(
		referralRepo, referralRewardRepo, tokenRepo, userRepo, studentRepo, collector,
		referral.Config{
			DefaultDiscountPercent: cfg.DefaultDiscountPercent,
			RewardExpiryDays:       cfg.RewardExpiryDays,
		},
	)

	studentService := student.NewService(studentRepo, tokenRepo)
	taskService := task.NewService(taskRepo, studentRepo, progressRepo)
	rewardService := reward.NewService(rewardRepo, studentRepo)
	studySessionService := studysession.NewService(studySessionRepo, studentRepo, progressRepo)
	progressService := progress.NewService(progressRepo, studentRepo)

	// 5. レートリミッターの構築（configのreq/minをreq/secに変換）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.ClaimRate = rate.Limit(float64(cfg.RateLimitClaim) / 60.0)
	rateLimiterCfg.ClaimBurst = cfg.RateLimitClaim
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 6. ルーターの構築
	deps := &handler.RouterDeps{
		SessionFinder:     sessionRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		WebhookProcessor: reconciler,
		CheckoutService:  checkoutService,
		PurchaseLister:   purchaseRepo,

		ReferralService: referralService,

		StudentService:      studentService,
		TaskService:         taskService,
		RewardService:       rewardService,
		StudySessionService: studySessionService,
		ProgressService:     progressService,

		MetricsHandler: metrics.Handler(registry),
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
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

// runWorker はワーカーモードで起動する。
// DB接続を開き、クリーンアップジョブを日次で実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	tokenRepo := repository.NewPostgresAccessTokenRepo(db)
	referralRewardRepo := repository.NewPostgresReferralRewardRepo(db)
	purchaseRepo := repository.NewPostgresPurchaseRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	eventRepo := repository.NewPostgresWebhookEventRepo(db)

	// 3. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(
		tokenRepo, referralRewardRepo, purchaseRepo, sessionRepo, eventRepo,
		slog.Default(),
	)
	cleanupJob.EventRetentionDays = cfg.WebhookEventRetentionDays

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Int("event_retention_days", cfg.WebhookEventRetentionDays),
	)

	// クリーンアップジョブを日次で実行（起動直後に1回実行）
	if err := cleanupJob.Run(ctx); err != nil {
		slog.Error("cleanup job failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped gracefully")
			return nil
		case <-ticker.C:
			if err := cleanupJob.Run(ctx); err != nil {
				slog.Error("cleanup job failed", slog.String("error", err.Error()))
			}
		}
	}
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
