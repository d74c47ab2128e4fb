// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/orchard/internal/apple"
	"github.com/hitoshi/orchard/internal/middleware"
	"github.com/hitoshi/orchard/internal/model"
)

// AppleServiceInterface はりんごライフサイクルサービスのインターフェース。
// ハンドラー側で必要な操作のみを定義する。
type AppleServiceInterface interface {
	ListApples(ctx context.Context, ownerID string) ([]*model.Apple, error)
	Generate(ctx context.Context, ownerID string) ([]*model.Apple, error)
	Eat(ctx context.Context, ownerID string, appleID int64, percent int) (*model.Apple, error)
	ChangeStatus(ctx context.Context, ownerID string, appleID int64, status int) (*model.Apple, error)
}

// AppleHandler はりんご関連のHTTPリクエストを処理する。
type AppleHandler struct {
	service AppleServiceInterface
}

// NewAppleHandler はAppleHandlerを生成する。
func NewAppleHandler(service AppleServiceInterface) *AppleHandler {
	return &AppleHandler{service: service}
}

// appleResponse はりんご1件のレスポンス表現。
type appleResponse struct {
	ID          int64               `json:"id"`
	Color       string              `json:"color"`
	Status      int                 `json:"status"`
	StatusLabel string              `json:"statusLabel"`
	Integrity   int                 `json:"integrity"`
	CreatedAt   int64               `json:"created_at"`
	FallAt      *int64              `json:"fall_at"`
	Actions     []model.AppleAction `json:"actions"`
}

// applesResponse はりんご一覧のレスポンス表現。
type applesResponse struct {
	Apples []appleResponse `json:"apples"`
}

// eatRequest はかじるリクエストのボディ。
type eatRequest struct {
	Percent *int `json:"percent"`
}

// statusRequest は状態変更リクエストのボディ。
type statusRequest struct {
	Status *int `json:"status"`
}

// toAppleResponse はドメインモデルをレスポンス表現に変換する。
func toAppleResponse(a *model.Apple) appleResponse {
	return appleResponse{
		ID:          a.ID,
		Color:       a.Color,
		Status:      int(a.Status),
		StatusLabel: a.Status.Label(),
		Integrity:   a.Integrity,
		CreatedAt:   a.CreatedAt,
		FallAt:      a.FallAt,
		Actions:     apple.AvailableActions(a),
	}
}

// ListApples はGET /api/applesを処理する。
// 認証ユーザーのソフトデリートされていないりんごをID昇順で返す。
func (h *AppleHandler) ListApples(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUserNotFoundError())
		return
	}

	apples, err := h.service.ListApples(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err, "failed to list apples")
		return
	}

	resp := applesResponse{Apples: make([]appleResponse, 0, len(apples))}
	for _, a := range apples {
		resp.Apples = append(resp.Apples, toAppleResponse(a))
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// GenerateApples はPOST /api/apples/generateを処理する。
// 認証ユーザーの全りんごを破棄し、ランダムな個数の新しいりんごを生成する。
func (h *AppleHandler) GenerateApples(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUserNotFoundError())
		return
	}

	apples, err := h.service.Generate(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err, "failed to generate apples")
		return
	}

	resp := applesResponse{Apples: make([]appleResponse, 0, len(apples))}
	for _, a := range apples {
		resp.Apples = append(resp.Apples, toAppleResponse(a))
	}

	writeJSONResponse(w, http.StatusCreated, resp)
}

// EatApple はPOST /api/apples/{appleID}/eatを処理する。
// 指定されたりんごをpercent%かじる。
func (h *AppleHandler) EatApple(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUserNotFoundError())
		return
	}

	appleID, ok := parseAppleID(w, r)
	if !ok {
		return
	}

	var req eatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Percent == nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.Eat(r.Context(), userID, appleID, *req.Percent)
	if err != nil {
		h.handleServiceError(w, r, err, "failed to eat apple")
		return
	}

	writeJSONResponse(w, http.StatusOK, toAppleResponse(updated))
}

// ChangeAppleStatus はPOST /api/apples/{appleID}/statusを処理する。
// 地面の上（1）が指定された場合はりんごを落下させる。
func (h *AppleHandler) ChangeAppleStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUserNotFoundError())
		return
	}

	appleID, ok := parseAppleID(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.ChangeStatus(r.Context(), userID, appleID, *req.Status)
	if err != nil {
		h.handleServiceError(w, r, err, "failed to change apple status")
		return
	}

	writeJSONResponse(w, http.StatusOK, toAppleResponse(updated))
}

// parseAppleID はURLパラメータからりんごIDを取り出す。
// 数値として解釈できない場合は404を書き込みfalseを返す。
func parseAppleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "appleID")
	appleID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || appleID <= 0 {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewAppleNotFoundError(0))
		return 0, false
	}
	return appleID, true
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// APIErrorはコードに応じたステータスで、それ以外は500で返す。
func (h *AppleHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error(logMsg,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はエラーコードをHTTPステータスコードにマッピングする。
// ビジネスルール違反は422、バリデーションエラーは400、未検出は404。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeAppleNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidStatus:
		return http.StatusBadRequest
	case model.ErrCodeAlreadyFallen, model.ErrCodeAppleOnTree,
		model.ErrCodeAppleRotten, model.ErrCodeAlreadyEaten,
		model.ErrCodeInvalidPercent:
		return http.StatusUnprocessableEntity
	case model.ErrCodeUserNotFound:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeInvalidRequestBody はリクエストボディのパース失敗に対する400レスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディが不正です。",
		Category: "validation",
		Action:   "リクエスト形式を確認してください。",
	})
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response",
			slog.String("error", err.Error()),
		)
	}
}
