package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/godrive/file-module/internal/api/errors"
	"github.com/bigkaa/godrive/file-module/internal/api/middleware"
)

// emptyTrashResponse — ответ успешной очистки корзины.
type emptyTrashResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ListTrash — GET /api/v1/trash: содержимое корзины пользователя.
func (h *APIHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	userID := middleware.SubjectFromContext(r.Context())
	if userID == "" {
		apierrors.Unauthorized(w)
		return
	}

	files, err := h.fileSvc.ListTrashed(r.Context(), userID)
	if err != nil {
		h.logger.Error("Ошибка получения корзины",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Failed to list trash")
		return
	}

	writeJSON(w, http.StatusOK, listFilesResponse{
		Files: emptyIfNil(files),
		Total: len(files),
	})
}

// EmptyTrash — DELETE /api/v1/trash: безвозвратное удаление всех записей
// корзины пользователя и best-effort очистка их объектов в media storage.
func (h *APIHandler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	userID := middleware.SubjectFromContext(r.Context())
	if userID == "" {
		apierrors.Unauthorized(w)
		return
	}

	count, err := h.deleteSvc.EmptyTrash(r.Context(), userID)
	if err != nil {
		h.logger.Error("Ошибка очистки корзины",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Failed to empty trash")
		return
	}

	if count == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"message": "No files in trash"})
		return
	}

	writeJSON(w, http.StatusOK, emptyTrashResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully deleted %d files from trash", count),
	})
}
