package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/godrive/file-module/internal/domain/model"
)

// fileColumns — список столбцов таблицы files для SELECT/RETURNING.
// DRY: одно место для всех запросов.
const fileColumns = `id, name, path, size, type, file_url, thumbnail_url,
	user_id, parent_id, is_folder, is_starred, is_trash, created_at, updated_at`

// ListFilters — фильтры списка записей пользователя.
// Поля-указатели: nil = фильтр не применяется.
type ListFilters struct {
	// ParentID — фильтр по родительской папке; указатель на пустую строку
	// означает "только корень" (parent_id IS NULL)
	ParentID *string
	// Starred — фильтр по пометке "избранное"
	Starred *bool
	// Trash — фильтр по корзине (по умолчанию вызывающий код передаёт false)
	Trash *bool
}

// FileRepository — интерфейс доступа к таблице files.
// Каждый метод принимает userID и включает его в предикат запроса.
type FileRepository interface {
	// GetByID возвращает запись по (id, user_id) или ErrNotFound.
	GetByID(ctx context.Context, fileID, userID string) (*model.FileRecord, error)
	// List возвращает записи пользователя с фильтрами.
	List(ctx context.Context, userID string, filters ListFilters) ([]*model.FileRecord, error)
	// ListTrashed возвращает все записи пользователя в корзине.
	ListTrashed(ctx context.Context, userID string) ([]*model.FileRecord, error)
	// SetTrash выставляет is_trash и возвращает обновлённую запись.
	SetTrash(ctx context.Context, fileID, userID string, trash bool) (*model.FileRecord, error)
	// SetStarred выставляет is_starred и возвращает обновлённую запись.
	SetStarred(ctx context.Context, fileID, userID string, starred bool) (*model.FileRecord, error)
	// DeleteByID жёстко удаляет запись по (id, user_id) и возвращает её
	// прежнее состояние, либо ErrNotFound.
	DeleteByID(ctx context.Context, fileID, userID string) (*model.FileRecord, error)
	// DeleteTrashed жёстко удаляет все записи пользователя в корзине
	// одной операцией и возвращает количество удалённых строк.
	DeleteTrashed(ctx context.Context, userID string) (int, error)
}

// fileRepo — реализация FileRepository через pgx.
type fileRepo struct {
	db DBTX
}

// NewFileRepository создаёт репозиторий файлов.
func NewFileRepository(db DBTX) FileRepository {
	return &fileRepo{db: db}
}

// scanFile сканирует одну строку в FileRecord.
func scanFile(row pgx.Row) (*model.FileRecord, error) {
	f := &model.FileRecord{}
	err := row.Scan(
		&f.ID, &f.Name, &f.Path, &f.Size, &f.Type, &f.FileURL, &f.ThumbnailURL,
		&f.UserID, &f.ParentID, &f.IsFolder, &f.IsStarred, &f.IsTrash,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetByID возвращает запись по (id, user_id) или ErrNotFound.
// Предикат объединяет существование и владение: чужая запись неотличима
// от несуществующей.
func (r *fileRepo) GetByID(ctx context.Context, fileID, userID string) (*model.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE id = $1 AND user_id = $2`, fileColumns)

	f, err := scanFile(r.db.QueryRow(ctx, query, fileID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения файла: %w", err)
	}
	return f, nil
}

// List возвращает записи пользователя с фильтрами.
func (r *fileRepo) List(ctx context.Context, userID string, filters ListFilters) ([]*model.FileRecord, error) {
	where, args := buildListWhere(userID, filters)

	query := fmt.Sprintf(
		`SELECT %s FROM files %s ORDER BY is_folder DESC, name ASC`,
		fileColumns, where,
	)

	return r.queryFiles(ctx, query, args...)
}

// ListTrashed возвращает все записи пользователя в корзине.
// Выборка для trash-empty: тот же предикат, что и у DeleteTrashed.
func (r *fileRepo) ListTrashed(ctx context.Context, userID string) ([]*model.FileRecord, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM files WHERE user_id = $1 AND is_trash = TRUE`,
		fileColumns,
	)

	return r.queryFiles(ctx, query, userID)
}

// SetTrash выставляет is_trash и возвращает обновлённую запись.
func (r *fileRepo) SetTrash(ctx context.Context, fileID, userID string, trash bool) (*model.FileRecord, error) {
	return r.updateFlag(ctx, "is_trash", fileID, userID, trash)
}

// SetStarred выставляет is_starred и возвращает обновлённую запись.
func (r *fileRepo) SetStarred(ctx context.Context, fileID, userID string, starred bool) (*model.FileRecord, error) {
	return r.updateFlag(ctx, "is_starred", fileID, userID, starred)
}

// updateFlag обновляет булев столбец по (id, user_id).
// column приходит только из вызовов выше — не из пользовательского ввода.
func (r *fileRepo) updateFlag(ctx context.Context, column, fileID, userID string, value bool) (*model.FileRecord, error) {
	query := fmt.Sprintf(`
		UPDATE files
		SET %s = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING %s`, column, fileColumns)

	f, err := scanFile(r.db.QueryRow(ctx, query, fileID, userID, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка обновления %s: %w", column, err)
	}
	return f, nil
}

// DeleteByID жёстко удаляет запись по (id, user_id).
// Одна предикатная операция с RETURNING — без read-then-delete,
// повторный вызов на том же id возвращает ErrNotFound.
func (r *fileRepo) DeleteByID(ctx context.Context, fileID, userID string) (*model.FileRecord, error) {
	query := fmt.Sprintf(`
		DELETE FROM files
		WHERE id = $1 AND user_id = $2
		RETURNING %s`, fileColumns)

	f, err := scanFile(r.db.QueryRow(ctx, query, fileID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка удаления файла: %w", err)
	}
	return f, nil
}

// DeleteTrashed жёстко удаляет все записи пользователя в корзине.
// RETURNING id оставлен сознательно: переход на возврат полных записей —
// изменение только этого метода.
func (r *fileRepo) DeleteTrashed(ctx context.Context, userID string) (int, error) {
	query := `
		DELETE FROM files
		WHERE user_id = $1 AND is_trash = TRUE
		RETURNING id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки корзины: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("ошибка сканирования id: %w", err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("ошибка итерации результатов: %w", err)
	}
	return count, nil
}

// queryFiles выполняет SELECT и сканирует все строки.
func (r *fileRepo) queryFiles(ctx context.Context, query string, args ...any) ([]*model.FileRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса файлов: %w", err)
	}
	defer rows.Close()

	var result []*model.FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования файла: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}
	return result, nil
}

// buildListWhere строит WHERE-условие списка записей пользователя.
// user_id всегда первый аргумент — предикат владельца обязателен.
func buildListWhere(userID string, filters ListFilters) (whereClause string, args []any) {
	conditions := []string{"user_id = $1"}
	args = []any{userID}
	argNum := 2

	if filters.ParentID != nil {
		if *filters.ParentID == "" {
			conditions = append(conditions, "parent_id IS NULL")
		} else {
			conditions = append(conditions, fmt.Sprintf("parent_id = $%d", argNum))
			args = append(args, *filters.ParentID)
			argNum++
		}
	}

	if filters.Starred != nil {
		conditions = append(conditions, fmt.Sprintf("is_starred = $%d", argNum))
		args = append(args, *filters.Starred)
		argNum++
	}

	if filters.Trash != nil {
		conditions = append(conditions, fmt.Sprintf("is_trash = $%d", argNum))
		args = append(args, *filters.Trash)
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}
