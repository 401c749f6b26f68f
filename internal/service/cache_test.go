package service

import (
	"testing"
	"time"

	"github.com/bigkaa/godrive/file-module/internal/domain/model"
)

// TestCacheService_GetSet проверяет базовые операции Get/Set.
func TestCacheService_GetSet(t *testing.T) {
	cache := NewCacheService(100, 5*time.Minute)

	record := &model.FileRecord{
		ID:     "file-1",
		UserID: "user-1",
		Name:   "test.txt",
		Size:   1024,
	}

	// Cache miss
	_, ok := cache.Get("user-1", "file-1")
	if ok {
		t.Fatal("ожидался cache miss для нового ключа")
	}

	// Set + cache hit
	cache.Set(record)
	got, ok := cache.Get("user-1", "file-1")
	if !ok {
		t.Fatal("ожидался cache hit после Set")
	}
	if got.ID != "file-1" {
		t.Errorf("ID = %q, ожидался %q", got.ID, "file-1")
	}
	if got.Name != "test.txt" {
		t.Errorf("Name = %q, ожидался %q", got.Name, "test.txt")
	}
}

// TestCacheService_UserIsolation проверяет изоляцию по владельцу:
// запись одного пользователя недоступна по id из сессии другого.
func TestCacheService_UserIsolation(t *testing.T) {
	cache := NewCacheService(100, 5*time.Minute)

	record := &model.FileRecord{
		ID:     "shared-id",
		UserID: "user-1",
		Name:   "private.txt",
	}

	cache.Set(record)

	if _, ok := cache.Get("user-2", "shared-id"); ok {
		t.Fatal("запись user-1 не должна быть доступна для user-2")
	}
	if _, ok := cache.Get("user-1", "shared-id"); !ok {
		t.Fatal("ожидался cache hit для владельца")
	}
}

// TestCacheService_Delete проверяет удаление из кэша (инвалидация).
func TestCacheService_Delete(t *testing.T) {
	cache := NewCacheService(100, 5*time.Minute)

	record := &model.FileRecord{
		ID:     "delete-me",
		UserID: "user-1",
	}

	cache.Set(record)

	// Проверяем что запись есть
	_, ok := cache.Get("user-1", "delete-me")
	if !ok {
		t.Fatal("ожидался cache hit перед удалением")
	}

	// Удаляем
	cache.Delete("user-1", "delete-me")

	// Проверяем что записи больше нет
	_, ok = cache.Get("user-1", "delete-me")
	if ok {
		t.Fatal("ожидался cache miss после Delete")
	}
}

// TestCacheService_TTLExpiration проверяет автоматическое истечение TTL.
func TestCacheService_TTLExpiration(t *testing.T) {
	// Короткий TTL = 50ms для теста
	cache := NewCacheService(100, 50*time.Millisecond)

	record := &model.FileRecord{
		ID:     "ttl-test",
		UserID: "user-1",
	}

	cache.Set(record)

	// Сразу после Set — должен быть hit
	_, ok := cache.Get("user-1", "ttl-test")
	if !ok {
		t.Fatal("ожидался cache hit сразу после Set")
	}

	// Ждём истечения TTL
	time.Sleep(100 * time.Millisecond)

	// После истечения TTL — должен быть miss
	_, ok = cache.Get("user-1", "ttl-test")
	if ok {
		t.Fatal("ожидался cache miss после истечения TTL")
	}
}

// TestCacheService_Update проверяет обновление записи в кэше.
func TestCacheService_Update(t *testing.T) {
	cache := NewCacheService(100, 5*time.Minute)

	record1 := &model.FileRecord{
		ID:     "update-test",
		UserID: "user-1",
		Name:   "old.txt",
	}
	record2 := &model.FileRecord{
		ID:     "update-test",
		UserID: "user-1",
		Name:   "new.txt",
	}

	cache.Set(record1)
	cache.Set(record2)

	got, ok := cache.Get("user-1", "update-test")
	if !ok {
		t.Fatal("ожидался cache hit после обновления")
	}
	if got.Name != "new.txt" {
		t.Errorf("Name = %q, ожидался %q", got.Name, "new.txt")
	}
}
