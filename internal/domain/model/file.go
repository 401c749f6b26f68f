// Пакет model — доменные модели File Module.
// FileRecord — маппинг таблицы files (единственная сущность сервиса).
package model

import "time"

// FileRecord — запись файла или папки в таблице files.
// Дерево строится через ParentID (nullable, корневые записи — NULL).
// Жёсткое удаление выполняет только DeleteService; флаги IsTrash/IsStarred
// переключаются отдельными операциями.
type FileRecord struct {
	// ID — UUID записи (генерируется БД при создании)
	ID string `json:"id"`
	// Name — отображаемое имя файла или папки
	Name string `json:"name"`
	// Path — внутренний путь приложения (fallback при определении имени объекта)
	Path string `json:"path"`
	// Size — размер файла в байтах (0 для папок)
	Size int64 `json:"size"`
	// Type — MIME-тип файла ("folder" для папок)
	Type string `json:"type"`
	// FileURL — полный URL файла в media storage (возможен query-суффикс)
	FileURL string `json:"fileUrl"`
	// ThumbnailURL — URL миниатюры (опционально)
	ThumbnailURL *string `json:"thumbnailUrl,omitempty"`
	// UserID — идентификатор владельца (sub из JWT); все запросы фильтруются по нему
	UserID string `json:"userId"`
	// ParentID — UUID родительской папки (NULL для корня)
	ParentID *string `json:"parentId,omitempty"`
	// IsFolder — запись является папкой; у папок нет объекта в media storage
	IsFolder bool `json:"isFolder"`
	// IsStarred — пометка "избранное"
	IsStarred bool `json:"isStarred"`
	// IsTrash — запись находится в корзине (soft delete)
	IsTrash bool `json:"isTrash"`
	// CreatedAt — время создания записи
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time `json:"updatedAt"`
}
