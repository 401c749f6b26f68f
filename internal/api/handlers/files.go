// files.go — обработчики /api/v1/files.
//
// DELETE /api/v1/files/{file_id} — жёсткое удаление записи и её объекта
// в media storage (протокол DeleteService). Ответы — контракт клиента:
// тела и сообщения фиксированы.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/bigkaa/godrive/file-module/internal/api/errors"
	"github.com/bigkaa/godrive/file-module/internal/api/middleware"
	"github.com/bigkaa/godrive/file-module/internal/domain/model"
	"github.com/bigkaa/godrive/file-module/internal/repository"
	"github.com/bigkaa/godrive/file-module/internal/service"
)

// deleteFileResponse — ответ одиночного удаления: прежнее состояние записи.
type deleteFileResponse struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	DeletedFile *model.FileRecord `json:"deletedFile"`
}

// listFilesResponse — ответ списка записей.
type listFilesResponse struct {
	Files []*model.FileRecord `json:"files"`
	Total int                 `json:"total"`
}

// setTrashRequest — тело PATCH /files/{id}/trash.
type setTrashRequest struct {
	IsTrash bool `json:"isTrash"`
}

// setStarRequest — тело PATCH /files/{id}/star.
type setStarRequest struct {
	IsStarred bool `json:"isStarred"`
}

// DeleteFile — DELETE /api/v1/files/{file_id}.
// 401 без пользователя, 400 без корректного id, 404 если запись не найдена
// или принадлежит другому пользователю (неразличимо — утечки существования нет).
func (h *APIHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.SubjectFromContext(r.Context())
	if userID == "" {
		apierrors.Unauthorized(w)
		return
	}

	fileID, ok := fileIDParam(r)
	if !ok {
		apierrors.BadRequest(w, "File ID is required")
		return
	}

	deleted, err := h.deleteSvc.DeleteFile(r.Context(), userID, fileID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "File not found")
			return
		}
		h.logger.Error("Ошибка удаления файла",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Failed to delete file")
		return
	}

	writeJSON(w, http.StatusOK, deleteFileResponse{
		Success:     true,
		Message:     "File deleted successfully",
		DeletedFile: deleted,
	})
}

// ListFiles — GET /api/v1/files.
// Query-параметры: parent_id (UUID или "root"), starred=true, trash=true.
// По умолчанию записи в корзине скрыты.
func (h *APIHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	userID := middleware.SubjectFromContext(r.Context())
	if userID == "" {
		apierrors.Unauthorized(w)
		return
	}

	filters, err := parseListFilters(r)
	if err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}

	files, err := h.fileSvc.List(r.Context(), userID, filters)
	if err != nil {
		h.logger.Error("Ошибка получения списка файлов",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Failed to list files")
		return
	}

	writeJSON(w, http.StatusOK, listFilesResponse{
		Files: emptyIfNil(files),
		Total: len(files),
	})
}

// GetFileMetadata — GET /api/v1/files/{file_id}.
func (h *APIHandler) GetFileMetadata(w http.ResponseWriter, r *http.Request) {
	userID := middleware.SubjectFromContext(r.Context())
	if userID == "" {
		apierrors.Unauthorized(w)
		return
	}

	fileID, ok := fileIDParam(r)
	if !ok {
		apierrors.BadRequest(w, "File ID is required")
		return
	}

	record, err := h.fileSvc.GetMetadata(r.Context(), userID, fileID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "File not found")
			return
		}
		h.logger.Error("Ошибка получения метаданных файла",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Failed to get file")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// SetTrash — PATCH /api/v1/files/{file_id}/trash.
// Перемещает запись в корзину или восстанавливает её.
func (h *APIHandler) SetTrash(w http.ResponseWriter, r *http.Request) {
	userID := middleware.SubjectFromContext(r.Context())
	if userID == "" {
		apierrors.Unauthorized(w)
		return
	}

	fileID, ok := fileIDParam(r)
	if !ok {
		apierrors.BadRequest(w, "File ID is required")
		return
	}

	var req setTrashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.BadRequest(w, "Invalid request body")
		return
	}

	record, err := h.fileSvc.SetTrash(r.Context(), userID, fileID, req.IsTrash)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "File not found")
			return
		}
		h.logger.Error("Ошибка обновления флага корзины",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Failed to update file")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// SetStar — PATCH /api/v1/files/{file_id}/star.
func (h *APIHandler) SetStar(w http.ResponseWriter, r *http.Request) {
	userID := middleware.SubjectFromContext(r.Context())
	if userID == "" {
		apierrors.Unauthorized(w)
		return
	}

	fileID, ok := fileIDParam(r)
	if !ok {
		apierrors.BadRequest(w, "File ID is required")
		return
	}

	var req setStarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.BadRequest(w, "Invalid request body")
		return
	}

	record, err := h.fileSvc.SetStarred(r.Context(), userID, fileID, req.IsStarred)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "File not found")
			return
		}
		h.logger.Error("Ошибка обновления флага избранного",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Failed to update file")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// fileIDParam извлекает и валидирует UUID записи из пути.
func fileIDParam(r *http.Request) (string, bool) {
	fileID := chi.URLParam(r, "fileID")
	if fileID == "" {
		return "", false
	}
	if _, err := uuid.Parse(fileID); err != nil {
		return "", false
	}
	return fileID, true
}

// parseListFilters разбирает query-параметры списка.
func parseListFilters(r *http.Request) (repository.ListFilters, error) {
	filters := repository.ListFilters{}
	q := r.URL.Query()

	if parentID := q.Get("parent_id"); parentID != "" {
		if parentID == "root" {
			empty := ""
			filters.ParentID = &empty
		} else {
			if _, err := uuid.Parse(parentID); err != nil {
				return filters, fmt.Errorf("invalid parent_id")
			}
			filters.ParentID = &parentID
		}
	}

	if starred := q.Get("starred"); starred == "true" {
		v := true
		filters.Starred = &v
	}

	// По умолчанию корзина скрыта
	trash := q.Get("trash") == "true"
	filters.Trash = &trash

	return filters, nil
}

// emptyIfNil возвращает пустой срез вместо nil — JSON-контракт клиента
// ожидает [], а не null.
func emptyIfNil(files []*model.FileRecord) []*model.FileRecord {
	if files == nil {
		return []*model.FileRecord{}
	}
	return files
}
