// files.go — сервис чтения и пометки записей (список, метаданные,
// корзина/избранное). Координирует repository и LRU-кэш.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/godrive/file-module/internal/domain/model"
	"github.com/bigkaa/godrive/file-module/internal/repository"
)

var fileListTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "fm_file_list_total",
	Help: "Общее количество запросов списка файлов.",
})

// FileService — сервис чтения и пометки записей пользователя.
type FileService struct {
	fileRepo repository.FileRepository
	cache    *CacheService
	logger   *slog.Logger
}

// NewFileService создаёт сервис работы с записями.
func NewFileService(
	fileRepo repository.FileRepository,
	cache *CacheService,
	logger *slog.Logger,
) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		cache:    cache,
		logger:   logger.With(slog.String("component", "file_service")),
	}
}

// List возвращает записи пользователя с фильтрами.
func (s *FileService) List(ctx context.Context, userID string, filters repository.ListFilters) ([]*model.FileRecord, error) {
	fileListTotal.Inc()

	items, err := s.fileRepo.List(ctx, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("список файлов: %w", err)
	}
	return items, nil
}

// ListTrashed возвращает содержимое корзины пользователя.
func (s *FileService) ListTrashed(ctx context.Context, userID string) ([]*model.FileRecord, error) {
	items, err := s.fileRepo.ListTrashed(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("содержимое корзины: %w", err)
	}
	return items, nil
}

// GetMetadata возвращает метаданные записи.
// Сначала LRU-кэш, при промахе — PostgreSQL, результат кэшируется.
func (s *FileService) GetMetadata(ctx context.Context, userID, fileID string) (*model.FileRecord, error) {
	if record, ok := s.cache.Get(userID, fileID); ok {
		s.logger.Debug("Кэш hit для файла", slog.String("file_id", fileID))
		return record, nil
	}

	record, err := s.fileRepo.GetByID(ctx, fileID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение метаданных файла: %w", err)
	}

	s.cache.Set(record)

	return record, nil
}

// SetTrash переводит запись в корзину или восстанавливает её.
// Кэш инвалидируется: закэшированная запись несёт устаревший флаг.
func (s *FileService) SetTrash(ctx context.Context, userID, fileID string, trash bool) (*model.FileRecord, error) {
	record, err := s.fileRepo.SetTrash(ctx, fileID, userID, trash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("пометка корзины: %w", err)
	}

	s.cache.Delete(userID, fileID)

	s.logger.Info("Флаг корзины обновлён",
		slog.String("file_id", fileID),
		slog.String("user_id", userID),
		slog.Bool("is_trash", trash),
	)

	return record, nil
}

// SetStarred выставляет или снимает пометку "избранное".
func (s *FileService) SetStarred(ctx context.Context, userID, fileID string, starred bool) (*model.FileRecord, error) {
	record, err := s.fileRepo.SetStarred(ctx, fileID, userID, starred)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("пометка избранного: %w", err)
	}

	s.cache.Delete(userID, fileID)

	return record, nil
}
