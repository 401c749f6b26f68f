// Пакет service — бизнес-логика File Module.
// CacheService — LRU-кэш метаданных файлов с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/godrive/file-module/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fm_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш метаданных.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fm_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша метаданных.",
	})
)

// CacheService — LRU-кэш метаданных файлов с автоматическим TTL.
// Каждый экземпляр File Module имеет собственный in-memory кэш
// (per-instance, stateless архитектура). Ключ включает владельца:
// запись одного пользователя недоступна по id из сессии другого.
type CacheService struct {
	cache *expirable.LRU[string, *model.FileRecord]
}

// NewCacheService создаёт LRU-кэш с указанным максимальным размером и TTL.
func NewCacheService(maxSize int, ttl time.Duration) *CacheService {
	cache := expirable.NewLRU[string, *model.FileRecord](maxSize, nil, ttl)
	return &CacheService{cache: cache}
}

// Get возвращает FileRecord из кэша по (userID, fileID).
// Возвращает (запись, true) при hit или (nil, false) при miss.
func (c *CacheService) Get(userID, fileID string) (*model.FileRecord, bool) {
	val, ok := c.cache.Get(cacheKey(userID, fileID))
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись в кэше.
func (c *CacheService) Set(record *model.FileRecord) {
	c.cache.Add(cacheKey(record.UserID, record.ID), record)
}

// Delete удаляет запись из кэша (инвалидация при удалении или смене флагов).
func (c *CacheService) Delete(userID, fileID string) {
	c.cache.Remove(cacheKey(userID, fileID))
}

// cacheKey строит ключ кэша из (userID, fileID).
// UUID не содержит '/', разделитель однозначен.
func cacheKey(userID, fileID string) string {
	return userID + "/" + fileID
}
