package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edisonsteele/firstwork/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 決済
	WebhookProcessor WebhookProcessor
	CheckoutService  CheckoutServiceInterface
	PurchaseLister   PurchaseLister

	// 紹介プログラム
	ReferralService ReferralServiceInterface

	// ダッシュボード
	StudentService      StudentServiceInterface
	TaskService         TaskServiceInterface
	RewardService       RewardServiceInterface
	StudySessionService StudySessionServiceInterface
	ProgressService     ProgressServiceInterface

	// 運用エンドポイント
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → LoggingMiddleware → CORSMiddleware → SessionMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// Webhookルートは認証ミドルウェアの外に配置する（署名検証が真正性を担保する）。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	webhookHandler := NewWebhookHandler(deps.WebhookProcessor)
	checkoutHandler := NewCheckoutHandler(deps.CheckoutService)
	purchaseHandler := NewPurchaseHandler(deps.PurchaseLister)
	referralHandler := NewReferralHandler(deps.ReferralService)
	studentHandler := NewStudentHandler(deps.StudentService)
	taskHandler := NewTaskHandler(deps.TaskService)
	rewardHandler := NewRewardHandler(deps.RewardService)
	sessionHandler := NewStudySessionHandler(deps.StudySessionService)
	progressHandler := NewProgressHandler(deps.ProgressService)

	// --- 認証不要のルート ---

	// ゲートウェイWebhook（署名検証で保護）
	r.Post("/api/webhooks/payment", webhookHandler.HandleWebhook)

	// 運用エンドポイント
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// チェックアウトと購入履歴
		r.Post("/api/checkout", checkoutHandler.CreateCheckout)
		r.Get("/api/purchases", purchaseHandler.ListPurchases)

		// 紹介プログラム
		r.Route("/api/referrals", func(r chi.Router) {
			r.Get("/", referralHandler.ListReferrals)
			r.Post("/apply-code", referralHandler.ApplyCode)

			// POST /api/referrals/claim - 特典受け取り（専用レート制限を追加）
			r.With(deps.RateLimiter.ClaimMiddleware()).Post("/claim", referralHandler.ClaimReward)
		})

		// 学習者管理
		r.Route("/api/students", func(r chi.Router) {
			r.Post("/", studentHandler.CreateStudent)
			r.Get("/", studentHandler.ListStudents)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", studentHandler.GetStudent)
				r.Put("/preferences", studentHandler.UpdatePreferences)

				// 学習者配下のリソース
				r.Get("/tasks", taskHandler.ListTasks)
				r.Get("/rewards", rewardHandler.ListRewards)
				r.Get("/study-sessions", sessionHandler.ListSessions)
				r.Get("/progress", progressHandler.GetProgress)
			})
		})

		// 課題管理
		r.Route("/api/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.CreateTask)

			r.Route("/{id}", func(r chi.Router) {
				r.Post("/start", taskHandler.StartTask)
				r.Post("/complete", taskHandler.CompleteTask)
			})
		})

		// ごほうびカタログ
		r.Route("/api/rewards", func(r chi.Router) {
			r.Post("/", rewardHandler.CreateReward)
			r.Delete("/{id}", rewardHandler.DeactivateReward)
		})

		// タイマーセッション
		r.Route("/api/study-sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.StartSession)
			r.Post("/{id}/complete", sessionHandler.CompleteSession)
		})
	})

	return r
}
