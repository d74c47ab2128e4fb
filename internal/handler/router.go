package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/orchard/internal/middleware"
)

// HealthChecker はヘルスチェックでのDB疎通確認に必要なインターフェース。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はルーター構築に必要な依存を保持する。
type RouterDeps struct {
	AppleHandler      *AppleHandler
	SessionFinder     middleware.SessionFinder
	RateLimiter       *middleware.RateLimiter
	HealthChecker     HealthChecker
	MetricsHandler    http.Handler
	MetricsRecorder   middleware.HTTPMetricsRecorder
	Logger            *slog.Logger
	CORSAllowedOrigin string
}

// NewRouter はAPIルーターを構築する。
// 全ルートに共通のミドルウェア（リカバリー、リクエストID、ロギング、
// メトリクス、CORS、セキュリティヘッダー）を適用し、
// /api配下にはセッション認証とレート制限を追加する。
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.MetricsRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	// 認証不要のエンドポイント
	r.Get("/health", newHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// 認証必須のAPIエンドポイント
	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		api.Use(deps.RateLimiter.GeneralMiddleware())

		api.Get("/apples", deps.AppleHandler.ListApples)
		api.Post("/apples/{appleID}/eat", deps.AppleHandler.EatApple)
		api.Post("/apples/{appleID}/status", deps.AppleHandler.ChangeAppleStatus)

		// 再生成は重い操作のため専用のレート制限を重ねる
		api.Group(func(gen chi.Router) {
			gen.Use(deps.RateLimiter.GenerateMiddleware())
			gen.Post("/apples/generate", deps.AppleHandler.GenerateApples)
		})
	})

	return r
}

// newHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		statusCode := http.StatusOK

		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				slog.Error("health check failed",
					slog.String("error", err.Error()),
				)
				status = "unavailable"
				statusCode = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
