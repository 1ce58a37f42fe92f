// Package cleanup は期限切れセッションの自動削除ジョブを提供する。
// セッションは読み取り時にも期限判定されるため、このジョブは正しさではなく
// sessionsテーブルの肥大化防止のために動く。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionSweeper は期限切れセッションの削除を抽象化するインターフェース。
type SessionSweeper interface {
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// MetricsRecorder は掃除結果のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordSessionsSwept(count int64)
}

// SweepJob は期限切れセッションの定期削除ジョブ。
// 冪等な削除処理で、削除対象がない場合もエラーにならない。
type SweepJob struct {
	sessions SessionSweeper
	logger   *slog.Logger
	metrics  MetricsRecorder // nilの場合は記録しない
	Interval time.Duration   // 実行間隔（デフォルト: 1時間）
}

// NewSweepJob は新しいSweepJobを生成する。metricsはnilでもよい。
func NewSweepJob(sessions SessionSweeper, logger *slog.Logger, metrics MetricsRecorder) *SweepJob {
	return &SweepJob{
		sessions: sessions,
		logger:   logger,
		metrics:  metrics,
		Interval: time.Hour,
	}
}

// RunOnce は期限切れセッションを1回削除する。
func (j *SweepJob) RunOnce(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("session sweep failed",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to sweep expired sessions: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordSessionsSwept(deleted)
	}

	j.logger.Info("session sweep completed",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Run は停止されるまでInterval間隔で掃除を繰り返す。
// 起動直後に1回実行し、以降はティッカーに従う。
// 1回の失敗ではループを止めず、次のティックで再試行する。
func (j *SweepJob) Run(ctx context.Context) error {
	if err := j.RunOnce(ctx); err != nil {
		j.logger.Warn("initial session sweep failed, will retry",
			slog.String("error", err.Error()),
		)
	}

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Warn("session sweep failed, will retry",
					slog.String("error", err.Error()),
				)
			}
		case <-ctx.Done():
			j.logger.Info("session sweep worker stopped")
			return ctx.Err()
		}
	}
}
