package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/orchard/internal/middleware"
	"github.com/hitoshi/orchard/internal/model"
)

// --- モック ---

type mockAppleService struct {
	listApplesFn   func(ctx context.Context, ownerID string) ([]*model.Apple, error)
	generateFn     func(ctx context.Context, ownerID string) ([]*model.Apple, error)
	eatFn          func(ctx context.Context, ownerID string, appleID int64, percent int) (*model.Apple, error)
	changeStatusFn func(ctx context.Context, ownerID string, appleID int64, status int) (*model.Apple, error)
}

func (m *mockAppleService) ListApples(ctx context.Context, ownerID string) ([]*model.Apple, error) {
	return m.listApplesFn(ctx, ownerID)
}
func (m *mockAppleService) Generate(ctx context.Context, ownerID string) ([]*model.Apple, error) {
	return m.generateFn(ctx, ownerID)
}
func (m *mockAppleService) Eat(ctx context.Context, ownerID string, appleID int64, percent int) (*model.Apple, error) {
	return m.eatFn(ctx, ownerID, appleID, percent)
}
func (m *mockAppleService) ChangeStatus(ctx context.Context, ownerID string, appleID int64, status int) (*model.Apple, error) {
	return m.changeStatusFn(ctx, ownerID, appleID, status)
}

// newTestRouter はハンドラーだけをマウントした素のルーターを返す。
// ミドルウェアは通さず、コンテキストへのユーザーID注入はテスト側で行う。
func newTestRouter(svc AppleServiceInterface) chi.Router {
	h := NewAppleHandler(svc)
	r := chi.NewRouter()
	r.Get("/api/apples", h.ListApples)
	r.Post("/api/apples/generate", h.GenerateApples)
	r.Post("/api/apples/{appleID}/eat", h.EatApple)
	r.Post("/api/apples/{appleID}/status", h.ChangeAppleStatus)
	return r
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
}

func groundApple(id int64, integrity int) *model.Apple {
	fallAt := int64(9000)
	return &model.Apple{
		ID:        id,
		UserID:    "user-1",
		Color:     "#FF0000",
		Status:    model.StatusOnGround,
		Integrity: integrity,
		CreatedAt: 1000,
		FallAt:    &fallAt,
		UpdatedAt: 9000,
	}
}

// --- テスト ---

// TestListApples_ReturnsApplesWithActions は一覧レスポンスに
// 状態ラベルとアクション一覧が含まれることを検証する。
func TestListApples_ReturnsApplesWithActions(t *testing.T) {
	svc := &mockAppleService{
		listApplesFn: func(ctx context.Context, ownerID string) ([]*model.Apple, error) {
			if ownerID != "user-1" {
				t.Errorf("ownerID = %q, want user-1", ownerID)
			}
			return []*model.Apple{
				{ID: 1, UserID: ownerID, Color: "#32CD32", Status: model.StatusOnTree, Integrity: 100, CreatedAt: 1000, UpdatedAt: 1000},
				groundApple(2, 70),
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/apples", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp applesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Apples) != 2 {
		t.Fatalf("len(apples) = %d, want 2", len(resp.Apples))
	}

	tree := resp.Apples[0]
	if tree.StatusLabel != "木の上" {
		t.Errorf("StatusLabel = %q, want 木の上", tree.StatusLabel)
	}
	if len(tree.Actions) != 1 || tree.Actions[0].Method != model.ActionFallMethod {
		t.Errorf("actions = %+v, want [落とす]", tree.Actions)
	}

	ground := resp.Apples[1]
	if len(ground.Actions) != 1 || ground.Actions[0].Method != model.ActionEatMethod {
		t.Errorf("actions = %+v, want [食べる]", ground.Actions)
	}
	if ground.FallAt == nil {
		t.Error("fall_at がレスポンスに含まれていない")
	}
}

// TestListApples_Empty はりんごが1つもない場合に空配列を返すことを検証する。
func TestListApples_Empty(t *testing.T) {
	svc := &mockAppleService{
		listApplesFn: func(ctx context.Context, ownerID string) ([]*model.Apple, error) {
			return nil, nil
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/apples", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"apples":[]`) {
		t.Errorf("空の一覧はnullではなく[]で返すこと: %s", rec.Body.String())
	}
}

// TestListApples_Unauthenticated は未認証コンテキストで401となることを検証する。
func TestListApples_Unauthenticated(t *testing.T) {
	svc := &mockAppleService{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/apples", nil)
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

// TestGenerateApples_ReturnsCreated は再生成が201と新しい一覧を返すことを検証する。
func TestGenerateApples_ReturnsCreated(t *testing.T) {
	svc := &mockAppleService{
		generateFn: func(ctx context.Context, ownerID string) ([]*model.Apple, error) {
			return []*model.Apple{
				{ID: 10, UserID: ownerID, Color: "#FF0000", Status: model.StatusOnTree, Integrity: 100, CreatedAt: 900, UpdatedAt: 900},
				{ID: 11, UserID: ownerID, Color: "#FFD700", Status: model.StatusOnTree, Integrity: 100, CreatedAt: 950, UpdatedAt: 950},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/apples/generate", ""))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var resp applesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Apples) != 2 {
		t.Errorf("len(apples) = %d, want 2", len(resp.Apples))
	}
}

// TestEatApple_Success はかじり成功時のレスポンスを検証する。
func TestEatApple_Success(t *testing.T) {
	svc := &mockAppleService{
		eatFn: func(ctx context.Context, ownerID string, appleID int64, percent int) (*model.Apple, error) {
			if appleID != 5 {
				t.Errorf("appleID = %d, want 5", appleID)
			}
			if percent != 25 {
				t.Errorf("percent = %d, want 25", percent)
			}
			return groundApple(5, 75), nil
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/apples/5/eat", `{"percent": 25}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var resp appleResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Integrity != 75 {
		t.Errorf("integrity = %d, want 75", resp.Integrity)
	}
}

// TestEatApple_ErrorMapping はエラーコードとHTTPステータスの対応を検証する。
func TestEatApple_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"not found", model.NewAppleNotFoundError(5), http.StatusNotFound, model.ErrCodeAppleNotFound},
		{"on tree", model.NewAppleOnTreeError(), http.StatusUnprocessableEntity, model.ErrCodeAppleOnTree},
		{"rotten", model.NewAppleRottenError(), http.StatusUnprocessableEntity, model.ErrCodeAppleRotten},
		{"already eaten", model.NewAlreadyEatenError(), http.StatusUnprocessableEntity, model.ErrCodeAlreadyEaten},
		{"invalid percent", model.NewInvalidPercentError(0), http.StatusUnprocessableEntity, model.ErrCodeInvalidPercent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAppleService{
				eatFn: func(ctx context.Context, ownerID string, appleID int64, percent int) (*model.Apple, error) {
					return nil, tt.serviceErr
				},
			}

			rec := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/apples/5/eat", `{"percent": 10}`))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body middleware.ErrorResponseBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if body.Category == "" || body.Action == "" {
				t.Error("エラーレスポンスにはcategoryとactionが必要")
			}
		})
	}
}

// TestEatApple_InvalidBody は不正なリクエストボディで400となることを検証する。
func TestEatApple_InvalidBody(t *testing.T) {
	svc := &mockAppleService{}

	for _, body := range []string{"", "{}", "not json", `{"percent": "ten"}`} {
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/apples/5/eat", body))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("body=%q: status = %d, want 400", body, rec.Code)
		}
	}
}

// TestEatApple_NonNumericID は数値でないIDが404となることを検証する。
func TestEatApple_NonNumericID(t *testing.T) {
	svc := &mockAppleService{}

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/apples/abc/eat", `{"percent": 10}`))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// TestChangeAppleStatus_Fall は状態変更エンドポイント経由の落下を検証する。
func TestChangeAppleStatus_Fall(t *testing.T) {
	svc := &mockAppleService{
		changeStatusFn: func(ctx context.Context, ownerID string, appleID int64, status int) (*model.Apple, error) {
			if status != int(model.StatusOnGround) {
				t.Errorf("status = %d, want %d", status, model.StatusOnGround)
			}
			return groundApple(appleID, 100), nil
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/apples/3/status", `{"status": 1}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp appleResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != int(model.StatusOnGround) {
		t.Errorf("status = %d, want %d", resp.Status, model.StatusOnGround)
	}
}

// TestChangeAppleStatus_InvalidStatus は定義外の状態コードで400となることを検証する。
func TestChangeAppleStatus_InvalidStatus(t *testing.T) {
	svc := &mockAppleService{
		changeStatusFn: func(ctx context.Context, ownerID string, appleID int64, status int) (*model.Apple, error) {
			return nil, model.NewInvalidStatusError(status)
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/apples/3/status", `{"status": 9}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// TestMapAPIErrorToHTTPStatus_Unknown は未知のコードが500となることを検証する。
func TestMapAPIErrorToHTTPStatus_Unknown(t *testing.T) {
	got := mapAPIErrorToHTTPStatus(&model.APIError{Code: "SOMETHING_ELSE"})
	if got != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", got)
	}
}
