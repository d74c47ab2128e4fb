// Package cleanup はソフトデリート済みりんごの保持期間パージを提供する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ApplePurger はパージに必要なリポジトリ操作のインターフェース。
type ApplePurger interface {
	DeleteSoftDeletedBefore(ctx context.Context, cutoff int64) (int64, error)
}

// PurgeRecorder はパージ件数のメトリクス記録インターフェース。
type PurgeRecorder interface {
	RecordApplesPurged(count int)
}

// Worker は保持期間を超過したソフトデリート済みりんごをハードデリートするワーカー。
type Worker struct {
	purger        ApplePurger
	metrics       PurgeRecorder
	logger        *slog.Logger
	retentionDays int

	// now はテストで差し替えられるように注入可能にしている。
	now func() time.Time
}

// NewWorker はWorkerを生成する。
func NewWorker(purger ApplePurger, recorder PurgeRecorder, logger *slog.Logger, retentionDays int) *Worker {
	return &Worker{
		purger:        purger,
		metrics:       recorder,
		logger:        logger,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// RunOnce は保持期間を超過した行を1回パージする。
func (w *Worker) RunOnce(ctx context.Context) error {
	cutoff := w.now().AddDate(0, 0, -w.retentionDays).Unix()

	deleted, err := w.purger.DeleteSoftDeletedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("ソフトデリート済みりんごのパージに失敗しました: %w", err)
	}

	if deleted > 0 {
		w.metrics.RecordApplesPurged(int(deleted))
	}

	w.logger.Info("purge completed",
		slog.Int64("deleted", deleted),
		slog.Int("retention_days", w.retentionDays),
	)

	return nil
}

// Run は指定間隔でパージを繰り返す。コンテキストのキャンセルで終了する。
// 起動直後に1回実行し、以降はinterval間隔で実行する。
func (w *Worker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.RunOnce(ctx); err != nil {
		w.logger.Error("purge failed",
			slog.String("error", err.Error()),
		)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				w.logger.Error("purge failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
