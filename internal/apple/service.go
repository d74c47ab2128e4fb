package apple

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/hitoshi/orchard/internal/metrics"
	"github.com/hitoshi/orchard/internal/model"
	"github.com/hitoshi/orchard/internal/repository"
)

// ServiceConfig はライフサイクルサービスの設定を保持する。
type ServiceConfig struct {
	// RottenTimeLimit は地面に落ちてから腐るまでの猶予時間。
	RottenTimeLimit time.Duration
	// MinApples / MaxApples は再生成時のりんご個数の範囲（両端を含む）。
	MinApples int
	MaxApples int
}

// Service はりんごのライフサイクルを統括するサービス。
// 状態機械の判定とリポジトリの永続化を組み合わせ、
// りんご1件の変更は行ロックの下で直列化する。
type Service struct {
	repo    repository.AppleRepository
	metrics metrics.MetricsCollector
	logger  *slog.Logger
	cfg     ServiceConfig

	// now と rnd はテストで差し替えられるように注入可能にしている。
	now func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewService はServiceを生成する。
func NewService(
	repo repository.AppleRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	cfg ServiceConfig,
) *Service {
	return &Service{
		repo:    repo,
		metrics: collector,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// rotLimitSeconds は腐敗猶予時間を秒単位で返す。
func (s *Service) rotLimitSeconds() int64 {
	return int64(s.cfg.RottenTimeLimit / time.Second)
}

// Eat は所有者のりんごをpercent%かじる。
// 腐敗の遅延評価をビジネスルール検証に先行して同一トランザクション内で行う。
// 腐敗遷移だけが起きてかじりが拒否された場合でも、遷移は永続化される。
func (s *Service) Eat(ctx context.Context, ownerID string, appleID int64, percent int) (*model.Apple, error) {
	now := s.now().Unix()

	var bizErr error
	updated, err := s.repo.Mutate(ctx, ownerID, appleID, func(a *model.Apple) (bool, error) {
		flipped := CheckRotten(a, now, s.rotLimitSeconds())
		if flipped {
			s.metrics.RecordRotTransition()
		}

		if e := Eat(a, percent, now); e != nil {
			bizErr = e
			// 腐敗遷移のみ保存し、かじりは拒否する
			return flipped, e
		}
		return true, nil
	})
	if err != nil && bizErr == nil {
		s.metrics.RecordAppleAction("eat", "error")
		return nil, fmt.Errorf("りんごをかじる操作に失敗しました: %w", err)
	}
	if bizErr != nil {
		s.metrics.RecordAppleAction("eat", "rejected")
		return nil, bizErr
	}
	if updated == nil {
		s.metrics.RecordAppleAction("eat", "not_found")
		return nil, model.NewAppleNotFoundError(appleID)
	}

	s.metrics.RecordAppleAction("eat", "success")
	s.logger.Info("apple eaten",
		slog.Int64("apple_id", updated.ID),
		slog.String("user_id", ownerID),
		slog.Int("percent", percent),
		slog.Int("integrity", updated.Integrity),
		slog.Bool("finished", updated.IsDeleted()),
	)

	return updated, nil
}

// ChangeStatus は汎用の状態変更操作を処理する。
// 地面の上（1）が指定された場合は落下として扱う。
// それ以外の定義済み状態は互換のための何もしない操作で、
// 腐敗の遅延評価だけを適用して現在のりんごを返す。
// 定義外の状態コードはバリデーションエラーとなる。
func (s *Service) ChangeStatus(ctx context.Context, ownerID string, appleID int64, status int) (*model.Apple, error) {
	if !model.AppleStatus(status).IsValid() {
		return nil, model.NewInvalidStatusError(status)
	}

	if model.AppleStatus(status) == model.StatusOnGround {
		return s.fall(ctx, ownerID, appleID)
	}

	// 落下以外の状態変更はサポートしない（現状維持で返す）
	now := s.now().Unix()
	updated, err := s.repo.Mutate(ctx, ownerID, appleID, func(a *model.Apple) (bool, error) {
		flipped := CheckRotten(a, now, s.rotLimitSeconds())
		if flipped {
			s.metrics.RecordRotTransition()
		}
		return flipped, nil
	})
	if err != nil {
		return nil, fmt.Errorf("りんごの状態確認に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewAppleNotFoundError(appleID)
	}

	return updated, nil
}

// fall はりんごを木から地面へ落とす。
func (s *Service) fall(ctx context.Context, ownerID string, appleID int64) (*model.Apple, error) {
	now := s.now().Unix()

	var bizErr error
	updated, err := s.repo.Mutate(ctx, ownerID, appleID, func(a *model.Apple) (bool, error) {
		if e := Fall(a, now); e != nil {
			bizErr = e
			return false, e
		}
		return true, nil
	})
	if err != nil && bizErr == nil {
		s.metrics.RecordAppleAction("fall", "error")
		return nil, fmt.Errorf("りんごを落とす操作に失敗しました: %w", err)
	}
	if bizErr != nil {
		s.metrics.RecordAppleAction("fall", "rejected")
		return nil, bizErr
	}
	if updated == nil {
		s.metrics.RecordAppleAction("fall", "not_found")
		return nil, model.NewAppleNotFoundError(appleID)
	}

	s.metrics.RecordAppleAction("fall", "success")
	s.logger.Info("apple fell",
		slog.Int64("apple_id", updated.ID),
		slog.String("user_id", ownerID),
	)

	return updated, nil
}

// ListApples は所有者のソフトデリートされていないりんごをID昇順で返す。
// 各りんごに腐敗の遅延評価を適用し、遷移した場合は冪等なUPDATEで永続化する。
func (s *Service) ListApples(ctx context.Context, ownerID string) ([]*model.Apple, error) {
	apples, err := s.repo.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("りんご一覧の取得に失敗しました: %w", err)
	}

	now := s.now().Unix()
	for _, a := range apples {
		if CheckRotten(a, now, s.rotLimitSeconds()) {
			if err := s.repo.MarkRotten(ctx, ownerID, a.ID, now); err != nil {
				return nil, fmt.Errorf("腐敗遷移の保存に失敗しました: %w", err)
			}
			s.metrics.RecordRotTransition()
		}
	}

	return apples, nil
}

// Generate は所有者の全りんごを破棄し、[MinApples, MaxApples]の一様乱数個の
// 新しいりんごを1つのトランザクションで一括生成する。作成順で返す。
func (s *Service) Generate(ctx context.Context, ownerID string) ([]*model.Apple, error) {
	now := s.now().Unix()

	min, max := s.cfg.MinApples, s.cfg.MaxApples
	if max < min {
		max = min
	}

	s.rndMu.Lock()
	count := min + s.rnd.Intn(max-min+1)
	apples := make([]*model.Apple, count)
	for i := range apples {
		apples[i] = NewApple(ownerID, now, s.rnd)
	}
	s.rndMu.Unlock()

	if err := s.repo.ReplaceForOwner(ctx, ownerID, apples); err != nil {
		s.metrics.RecordAppleAction("generate", "error")
		return nil, fmt.Errorf("りんごの再生成に失敗しました: %w", err)
	}

	s.metrics.RecordAppleAction("generate", "success")
	s.metrics.RecordApplesGenerated(count)
	s.logger.Info("apples regenerated",
		slog.String("user_id", ownerID),
		slog.Int("count", count),
	)

	return apples, nil
}
