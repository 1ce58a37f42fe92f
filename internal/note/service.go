// Package note はメモに関するビジネスロジックを提供する。
package note

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/memoya/internal/model"
	"github.com/hitoshi/memoya/internal/repository"
)

// MetricsRecorder はメモ操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordNoteCreated()
	RecordNoteUpdated()
	RecordNoteDeleted()
}

// Service はメモのCRUDロジックを提供する。
// 所有者スコープの強制はリポジトリのクエリに委譲し、このレイヤーでは
// 入力の正規化（欠損フィールドの空文字デフォルト）とIDの検証のみを行う。
type Service struct {
	repo    repository.NoteRepository
	metrics MetricsRecorder // nilの場合は記録しない
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(repo repository.NoteRepository, metrics MetricsRecorder) *Service {
	return &Service{
		repo:    repo,
		metrics: metrics,
	}
}

// List はユーザーのメモ一覧をupdated_at降順で返す。メモが無い場合は空スライス。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Note, error) {
	notes, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	if notes == nil {
		notes = []*model.Note{}
	}
	return notes, nil
}

// Create はメモを作成する。title/contentがnilの場合は空文字列をデフォルトとする。
// 作成直後はcreated_atとupdated_atが等しい。
func (s *Service) Create(ctx context.Context, userID string, title, content *string) (*model.Note, error) {
	now := time.Now()
	note := &model.Note{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     valueOrEmpty(title),
		Content:   valueOrEmpty(content),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordNoteCreated()
	}
	return note, nil
}

// Get は指定ユーザーが所有するメモを返す。
// 存在しない・他ユーザー所有・ID形式不正はすべて同じNot foundエラーになる。
func (s *Service) Get(ctx context.Context, userID, id string) (*model.Note, error) {
	if !isValidID(id) {
		return nil, model.NewNotFoundError()
	}

	note, err := s.repo.FindByUserAndID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	if note == nil {
		return nil, model.NewNotFoundError()
	}
	return note, nil
}

// Update は指定ユーザーが所有するメモを部分更新する。
// nilのフィールドは既存値を維持する。空文字列は明示的な供給値として上書きする。
func (s *Service) Update(ctx context.Context, userID, id string, title, content *string) (*model.Note, error) {
	if !isValidID(id) {
		return nil, model.NewNotFoundError()
	}

	note, err := s.repo.Update(ctx, userID, id, title, content)
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	if note == nil {
		return nil, model.NewNotFoundError()
	}

	if s.metrics != nil {
		s.metrics.RecordNoteUpdated()
	}
	return note, nil
}

// Delete は指定ユーザーが所有するメモを削除する。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if !isValidID(id) {
		return model.NewNotFoundError()
	}

	deleted, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError()
	}

	if s.metrics != nil {
		s.metrics.RecordNoteDeleted()
	}
	return nil
}

// isValidID はメモIDがUUID形式かどうかを検証する。
// 不正な形式はDBのuuidキャストエラーになる前に弾き、存在しないIDと同じ扱いにする。
func isValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func valueOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
