// delete.go — протокол согласованного удаления в двух хранилищах.
//
// PostgreSQL — авторитетное хранилище метаданных, media storage — best-effort
// хранилище байтов. Коммит в метаданные никогда не блокируется результатом
// очистки объекта: любая ошибка lookup/delete в media storage логируется,
// учитывается в метриках и проглатывается. Осиротевший объект — допустимая
// восстановимая цена; запись, от которой пользователь не может избавиться, — нет.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/godrive/file-module/internal/domain/model"
	"github.com/bigkaa/godrive/file-module/internal/repository"
	"github.com/bigkaa/godrive/file-module/internal/storageclient"
)

// Ошибки сервисного слоя.
var (
	// ErrNotFound — запись не найдена или принадлежит другому пользователю.
	ErrNotFound = errors.New("файл не найден")
)

// Prometheus-метрики удаления.
var (
	fileDeletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fm_file_deletes_total",
		Help: "Общее количество одиночных удалений файлов (по статусу).",
	}, []string{"status"})

	trashEmptyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fm_trash_empty_total",
		Help: "Общее количество операций очистки корзины (по статусу).",
	}, []string{"status"})

	trashEmptyFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fm_trash_empty_files_total",
		Help: "Общее количество записей, удалённых при очистке корзины.",
	})

	trashEmptyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fm_trash_empty_duration_seconds",
		Help:    "Длительность очистки корзины (включая очистку объектов).",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	storageCleanupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fm_storage_cleanup_total",
		Help: "Результаты best-effort очистки объектов в media storage.",
	}, []string{"result"})
)

// Результаты очистки объекта для метрики fm_storage_cleanup_total.
const (
	cleanupDeleted     = "deleted"
	cleanupNoName      = "no_name"
	cleanupNotFound    = "not_found"
	cleanupLookupError = "lookup_error"
	cleanupDeleteError = "delete_error"
)

// ObjectStorage — операции media storage, используемые протоколом удаления.
// Реализуется storageclient.Client; в тестах — мок.
type ObjectStorage interface {
	// ListFiles ищет объекты по имени, limit ограничивает результаты.
	ListFiles(ctx context.Context, name string, limit int) ([]storageclient.StorageObject, error)
	// DeleteFile удаляет объект по идентификатору провайдера.
	DeleteFile(ctx context.Context, fileID string) error
}

// DeleteService — сервис жёсткого удаления записей и очистки корзины.
type DeleteService struct {
	fileRepo       repository.FileRepository
	storage        ObjectStorage
	cache          *CacheService
	storageTimeout time.Duration
	concurrency    int
	logger         *slog.Logger
}

// NewDeleteService создаёт сервис удаления.
// storageTimeout ограничивает одну best-effort попытку в media storage.
// concurrency ограничивает параллелизм очистки объектов при EmptyTrash.
func NewDeleteService(
	fileRepo repository.FileRepository,
	storage ObjectStorage,
	cache *CacheService,
	storageTimeout time.Duration,
	concurrency int,
	logger *slog.Logger,
) *DeleteService {
	return &DeleteService{
		fileRepo:       fileRepo,
		storage:        storage,
		cache:          cache,
		storageTimeout: storageTimeout,
		concurrency:    concurrency,
		logger:         logger.With(slog.String("component", "delete_service")),
	}
}

// DeleteFile удаляет одну запись пользователя и её объект в media storage.
//
// Порядок:
//  1. SELECT по (id, user_id) — владение и существование одним предикатом
//  2. для не-папки — best-effort удаление объекта (ошибки проглатываются)
//  3. DELETE по тому же предикату с RETURNING — прежнее состояние записи
//
// Повторный вызов на том же id возвращает ErrNotFound.
func (s *DeleteService) DeleteFile(ctx context.Context, userID, fileID string) (*model.FileRecord, error) {
	record, err := s.fileRepo.GetByID(ctx, fileID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			fileDeletesTotal.WithLabelValues("not_found").Inc()
			return nil, ErrNotFound
		}
		fileDeletesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("получение записи файла: %w", err)
	}

	// У папок нет объекта в media storage
	if !record.IsFolder {
		s.removeObject(record)
	}

	deleted, err := s.fileRepo.DeleteByID(ctx, fileID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Запись исчезла между SELECT и DELETE (конкурентное удаление)
			fileDeletesTotal.WithLabelValues("not_found").Inc()
			return nil, ErrNotFound
		}
		fileDeletesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("удаление записи файла: %w", err)
	}

	s.cache.Delete(userID, fileID)
	fileDeletesTotal.WithLabelValues("success").Inc()

	s.logger.Info("Файл удалён",
		slog.String("file_id", fileID),
		slog.String("user_id", userID),
		slog.Bool("is_folder", deleted.IsFolder),
	)

	return deleted, nil
}

// EmptyTrash жёстко удаляет все записи пользователя в корзине.
//
// Объекты не-папок удаляются из media storage параллельно (fan-out,
// ограниченный concurrency); join ждёт завершения ВСЕХ попыток независимо
// от исхода — отказ одной не отменяет остальные. Затем одна предикатная
// bulk-операция удаляет строки метаданных.
//
// Возвращает количество удалённых записей; 0 без ошибки — корзина пуста,
// bulk-удаление при этом не выполняется.
func (s *DeleteService) EmptyTrash(ctx context.Context, userID string) (int, error) {
	start := time.Now()

	trashed, err := s.fileRepo.ListTrashed(ctx, userID)
	if err != nil {
		trashEmptyTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("выборка корзины: %w", err)
	}

	if len(trashed) == 0 {
		trashEmptyTotal.WithLabelValues("empty").Inc()
		return 0, nil
	}

	// Fan-out очистки объектов: все попытки доводятся до терминального
	// результата, отмена запроса не прерывает начатую очистку.
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for _, f := range trashed {
		if f.IsFolder {
			continue
		}
		wg.Add(1)
		go func(record *model.FileRecord) {
			defer wg.Done()

			// Ограничение concurrency
			sem <- struct{}{}
			defer func() { <-sem }()

			s.removeObject(record)
		}(f)
	}
	wg.Wait()

	count, err := s.fileRepo.DeleteTrashed(ctx, userID)
	if err != nil {
		trashEmptyTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("удаление записей корзины: %w", err)
	}

	for _, f := range trashed {
		s.cache.Delete(userID, f.ID)
	}

	duration := time.Since(start)
	trashEmptyTotal.WithLabelValues("success").Inc()
	trashEmptyFilesTotal.Add(float64(count))
	trashEmptyDuration.Observe(duration.Seconds())

	s.logger.Info("Корзина очищена",
		slog.String("user_id", userID),
		slog.Int("deleted", count),
		slog.Duration("duration", duration),
	)

	return count, nil
}

// removeObject — best-effort удаление объекта записи из media storage.
// Никогда не возвращает ошибку: все отказы логируются и проглатываются,
// удаление метаданных продолжается в любом случае.
//
// Контекст намеренно не наследуется от HTTP-запроса: принятая операция
// доводится до конца, отмены нет (ограничение — только storageTimeout).
func (s *DeleteService) removeObject(record *model.FileRecord) {
	name := resolveObjectName(record)
	if name == "" {
		storageCleanupTotal.WithLabelValues(cleanupNoName).Inc()
		s.logger.Debug("Имя объекта не определено, очистка пропущена",
			slog.String("file_id", record.ID),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.storageTimeout)
	defer cancel()

	objects, err := s.storage.ListFiles(ctx, name, 1)
	if err != nil {
		storageCleanupTotal.WithLabelValues(cleanupLookupError).Inc()
		s.logger.Warn("Ошибка поиска объекта в media storage",
			slog.String("file_id", record.ID),
			slog.String("object_name", name),
			slog.String("error", err.Error()),
		)
		return
	}

	if len(objects) == 0 || objects[0].Type != storageclient.ObjectTypeFile {
		storageCleanupTotal.WithLabelValues(cleanupNotFound).Inc()
		s.logger.Warn("Объект не найден или не является файлом, очистка пропущена",
			slog.String("file_id", record.ID),
			slog.String("object_name", name),
		)
		return
	}

	if err := s.storage.DeleteFile(ctx, objects[0].FileID); err != nil {
		storageCleanupTotal.WithLabelValues(cleanupDeleteError).Inc()
		s.logger.Warn("Ошибка удаления объекта в media storage",
			slog.String("file_id", record.ID),
			slog.String("object_id", objects[0].FileID),
			slog.String("error", err.Error()),
		)
		return
	}

	storageCleanupTotal.WithLabelValues(cleanupDeleted).Inc()
	s.logger.Debug("Объект удалён из media storage",
		slog.String("file_id", record.ID),
		slog.String("object_id", objects[0].FileID),
	)
}

// resolveObjectName выводит имя объекта в media storage из полей записи.
//
// Эвристика (явного идентификатора объекта в схеме нет): из FileURL
// отбрасывается query-суффикс, берётся последний сегмент пути; если FileURL
// не дал имени — последний сегмент Path. Пустой результат — объекта нет,
// очистка пропускается.
func resolveObjectName(record *model.FileRecord) string {
	if record.FileURL != "" {
		withoutQuery, _, _ := strings.Cut(record.FileURL, "?")
		if name := lastSegment(withoutQuery); name != "" {
			return name
		}
	}

	if record.Path != "" {
		return lastSegment(record.Path)
	}

	return ""
}

// lastSegment возвращает подстроку после последнего '/'.
func lastSegment(s string) string {
	if idx := strings.LastIndexByte(s, '/'); idx >= 0 {
		return s[idx+1:]
	}
	return s
}
