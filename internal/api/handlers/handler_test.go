package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bigkaa/godrive/file-module/internal/api/middleware"
	"github.com/bigkaa/godrive/file-module/internal/domain/model"
	"github.com/bigkaa/godrive/file-module/internal/repository"
	"github.com/bigkaa/godrive/file-module/internal/service"
	"github.com/bigkaa/godrive/file-module/internal/storageclient"
)

// stubFileRepo — мок FileRepository для handler-тестов.
type stubFileRepo struct {
	getByIDFn       func(ctx context.Context, fileID, userID string) (*model.FileRecord, error)
	listTrashedFn   func(ctx context.Context, userID string) ([]*model.FileRecord, error)
	deleteByIDFn    func(ctx context.Context, fileID, userID string) (*model.FileRecord, error)
	deleteTrashedFn func(ctx context.Context, userID string) (int, error)
}

func (s *stubFileRepo) GetByID(ctx context.Context, fileID, userID string) (*model.FileRecord, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, fileID, userID)
	}
	return nil, repository.ErrNotFound
}

func (s *stubFileRepo) List(_ context.Context, _ string, _ repository.ListFilters) ([]*model.FileRecord, error) {
	return nil, nil
}

func (s *stubFileRepo) ListTrashed(ctx context.Context, userID string) ([]*model.FileRecord, error) {
	if s.listTrashedFn != nil {
		return s.listTrashedFn(ctx, userID)
	}
	return nil, nil
}

func (s *stubFileRepo) SetTrash(_ context.Context, _, _ string, _ bool) (*model.FileRecord, error) {
	return nil, repository.ErrNotFound
}

func (s *stubFileRepo) SetStarred(_ context.Context, _, _ string, _ bool) (*model.FileRecord, error) {
	return nil, repository.ErrNotFound
}

func (s *stubFileRepo) DeleteByID(ctx context.Context, fileID, userID string) (*model.FileRecord, error) {
	if s.deleteByIDFn != nil {
		return s.deleteByIDFn(ctx, fileID, userID)
	}
	return nil, repository.ErrNotFound
}

func (s *stubFileRepo) DeleteTrashed(ctx context.Context, userID string) (int, error) {
	if s.deleteTrashedFn != nil {
		return s.deleteTrashedFn(ctx, userID)
	}
	return 0, nil
}

// stubStorage — мок media storage: объект ни разу не находится,
// очистка best-effort пропускается.
type stubStorage struct{}

func (stubStorage) ListFiles(_ context.Context, _ string, _ int) ([]storageclient.StorageObject, error) {
	return nil, nil
}

func (stubStorage) DeleteFile(_ context.Context, _ string) error {
	return nil
}

// newTestHandler создаёт APIHandler поверх mock repository.
func newTestHandler(repo repository.FileRepository) *APIHandler {
	logger := slog.Default()
	cache := service.NewCacheService(100, 5*time.Minute)
	fileSvc := service.NewFileService(repo, cache, logger)
	deleteSvc := service.NewDeleteService(repo, stubStorage{}, cache, time.Second, 2, logger)
	health := NewHealthHandler(nil, nil)
	return NewAPIHandler(health, fileSvc, deleteSvc, logger)
}

// newTestRouter строит роутер с маршрутами файлов и корзины.
func newTestRouter(h *APIHandler) chi.Router {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/files", func(r chi.Router) {
			r.Get("/", h.ListFiles)
			r.Get("/{fileID}", h.GetFileMetadata)
			r.Delete("/{fileID}", h.DeleteFile)
			r.Patch("/{fileID}/trash", h.SetTrash)
			r.Patch("/{fileID}/star", h.SetStar)
		})
		r.Route("/trash", func(r chi.Router) {
			r.Get("/", h.ListTrash)
			r.Delete("/", h.EmptyTrash)
		})
	})
	return r
}

// doRequest выполняет запрос от имени userID (claims кладутся в контекст,
// как это делает JWT middleware). Пустой userID — неавторизованный запрос.
func doRequest(t *testing.T, router chi.Router, method, target, userID string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, http.NoBody)
	if userID != "" {
		ctx := context.WithValue(req.Context(), middleware.ContextKeyClaims,
			&middleware.AuthClaims{Subject: userID})
		req = req.WithContext(ctx)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// --- DELETE /api/v1/files/{file_id} ---

// TestDeleteFileHandler_Success проверяет тело успешного ответа.
func TestDeleteFileHandler_Success(t *testing.T) {
	fileID := uuid.New().String()
	record := &model.FileRecord{ID: fileID, UserID: "user-1", Name: "doc.pdf"}

	repo := &stubFileRepo{
		getByIDFn: func(_ context.Context, _, _ string) (*model.FileRecord, error) {
			return record, nil
		},
		deleteByIDFn: func(_ context.Context, _, _ string) (*model.FileRecord, error) {
			return record, nil
		},
	}
	router := newTestRouter(newTestHandler(repo))

	rec := doRequest(t, router, http.MethodDelete, "/api/v1/files/"+fileID, "user-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("StatusCode = %d, ожидался 200", rec.Code)
	}

	var resp struct {
		Success     bool              `json:"success"`
		Message     string            `json:"message"`
		DeletedFile *model.FileRecord `json:"deletedFile"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Ошибка декодирования ответа: %v", err)
	}
	if !resp.Success {
		t.Error("success = false, ожидался true")
	}
	if resp.Message != "File deleted successfully" {
		t.Errorf("message = %q, ожидался 'File deleted successfully'", resp.Message)
	}
	if resp.DeletedFile == nil || resp.DeletedFile.ID != fileID {
		t.Errorf("deletedFile = %+v, ожидалась запись %s", resp.DeletedFile, fileID)
	}
}

// TestDeleteFileHandler_NotFound проверяет 404 для отсутствующей записи.
func TestDeleteFileHandler_NotFound(t *testing.T) {
	router := newTestRouter(newTestHandler(&stubFileRepo{}))

	rec := doRequest(t, router, http.MethodDelete, "/api/v1/files/"+uuid.New().String(), "user-1")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("StatusCode = %d, ожидался 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"File not found"`) {
		t.Errorf("body = %s, ожидался {\"error\":\"File not found\"}", rec.Body.String())
	}
}

// TestDeleteFileHandler_InvalidID проверяет 400 для некорректного id.
func TestDeleteFileHandler_InvalidID(t *testing.T) {
	router := newTestRouter(newTestHandler(&stubFileRepo{}))

	rec := doRequest(t, router, http.MethodDelete, "/api/v1/files/not-a-uuid", "user-1")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("StatusCode = %d, ожидался 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"File ID is required"`) {
		t.Errorf("body = %s, ожидался {\"error\":\"File ID is required\"}", rec.Body.String())
	}
}

// TestDeleteFileHandler_Unauthorized проверяет 401 без claims в контексте.
func TestDeleteFileHandler_Unauthorized(t *testing.T) {
	router := newTestRouter(newTestHandler(&stubFileRepo{}))

	rec := doRequest(t, router, http.MethodDelete, "/api/v1/files/"+uuid.New().String(), "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("StatusCode = %d, ожидался 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"Unauthorized"`) {
		t.Errorf("body = %s, ожидался {\"error\":\"Unauthorized\"}", rec.Body.String())
	}
}

// --- DELETE /api/v1/trash ---

// TestEmptyTrashHandler_Success проверяет тело ответа с количеством записей.
func TestEmptyTrashHandler_Success(t *testing.T) {
	trashed := []*model.FileRecord{
		{ID: uuid.New().String(), UserID: "user-1", IsTrash: true},
		{ID: uuid.New().String(), UserID: "user-1", IsTrash: true},
		{ID: uuid.New().String(), UserID: "user-1", IsTrash: true},
	}
	repo := &stubFileRepo{
		listTrashedFn: func(_ context.Context, _ string) ([]*model.FileRecord, error) {
			return trashed, nil
		},
		deleteTrashedFn: func(_ context.Context, _ string) (int, error) {
			return len(trashed), nil
		},
	}
	router := newTestRouter(newTestHandler(repo))

	rec := doRequest(t, router, http.MethodDelete, "/api/v1/trash", "user-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("StatusCode = %d, ожидался 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Successfully deleted 3 files from trash") {
		t.Errorf("body = %s, ожидалось 'Successfully deleted 3 files from trash'", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Errorf("body = %s, ожидался success:true", rec.Body.String())
	}
}

// TestEmptyTrashHandler_Empty проверяет ответ для пустой корзины.
func TestEmptyTrashHandler_Empty(t *testing.T) {
	router := newTestRouter(newTestHandler(&stubFileRepo{}))

	rec := doRequest(t, router, http.MethodDelete, "/api/v1/trash", "user-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("StatusCode = %d, ожидался 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"message":"No files in trash"`) {
		t.Errorf("body = %s, ожидался {\"message\":\"No files in trash\"}", rec.Body.String())
	}
}

// --- GET /api/v1/files ---

// TestListFilesHandler_EmptyArray проверяет, что пустой список — это [], не null.
func TestListFilesHandler_EmptyArray(t *testing.T) {
	router := newTestRouter(newTestHandler(&stubFileRepo{}))

	rec := doRequest(t, router, http.MethodGet, "/api/v1/files", "user-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("StatusCode = %d, ожидался 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"files":[]`) {
		t.Errorf("body = %s, ожидался files:[]", rec.Body.String())
	}
}

// TestListFilesHandler_InvalidParentID проверяет 400 для некорректного parent_id.
func TestListFilesHandler_InvalidParentID(t *testing.T) {
	router := newTestRouter(newTestHandler(&stubFileRepo{}))

	rec := doRequest(t, router, http.MethodGet, "/api/v1/files?parent_id=bogus", "user-1")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("StatusCode = %d, ожидался 400", rec.Code)
	}
}
