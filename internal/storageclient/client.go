// Пакет storageclient — HTTP-клиент внешнего media storage (объектное
// хранилище файлов). Поддерживает TLS с кастомным CA (FM_STORAGE_CA_CERT_PATH).
//
// Провайдер best-effort: поиск и удаление объектов могут отказывать
// (сеть, rate limit) — решение о том, прерывать ли операцию, принимает
// вызывающий код, клиент только возвращает ошибку.
package storageclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ObjectTypeFile — тип объекта "файл" в ответе провайдера.
// Провайдер может возвращать и другие типы (например, папки-коллекции).
const ObjectTypeFile = "file"

// StorageObject — объект в media storage (из API провайдера).
type StorageObject struct {
	// FileID — идентификатор объекта, назначенный провайдером
	FileID string `json:"fileId"`
	// Name — имя объекта
	Name string `json:"name"`
	// Type — тип объекта ("file", "folder", ...)
	Type string `json:"type"`
	// URL — публичный URL объекта
	URL string `json:"url,omitempty"`
}

// Client — HTTP-клиент media storage.
type Client struct {
	httpClient *http.Client
	baseURL    string
	privateKey string //nolint:gosec // G101: поле структуры, не содержит секрет напрямую
	logger     *slog.Logger
}

// New создаёт клиент media storage.
// baseURL — базовый URL API провайдера (например, https://api.media.example.com).
// privateKey — приватный ключ API (Basic auth, username без пароля).
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
// timeout — таймаут HTTP-запросов (из конфигурации FM_STORAGE_TIMEOUT).
func New(baseURL, privateKey, caCertPath string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: timeout}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата media storage: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат media storage добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		privateKey: privateKey,
		logger:     logger.With(slog.String("component", "storage_client")),
	}, nil
}

// ListFiles ищет объекты по точному имени.
// GET /v1/files?name={name}&limit={limit}
// limit ограничивает количество результатов на стороне провайдера.
func (c *Client) ListFiles(ctx context.Context, name string, limit int) ([]StorageObject, error) {
	q := url.Values{
		"name":  {name},
		"limit": {strconv.Itoa(limit)},
	}
	reqURL := fmt.Sprintf("%s/v1/files?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("создание запроса ListFiles: %w", err)
	}
	req.SetBasicAuth(c.privateKey, "")

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	if err != nil {
		return nil, fmt.Errorf("запрос ListFiles к %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("media storage вернул статус %d для ListFiles %q: %s",
			resp.StatusCode, name, string(body))
	}

	var objects []StorageObject
	if err := json.NewDecoder(resp.Body).Decode(&objects); err != nil {
		return nil, fmt.Errorf("декодирование ответа ListFiles: %w", err)
	}

	return objects, nil
}

// DeleteFile удаляет объект по идентификатору провайдера.
// DELETE /v1/files/{fileId}
// 404 от провайдера — тоже успех: объекта уже нет.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	reqURL := fmt.Sprintf("%s/v1/files/%s", c.baseURL, url.PathEscape(fileID))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("создание запроса DeleteFile: %w", err)
	}
	req.SetBasicAuth(c.privateKey, "")

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	if err != nil {
		return fmt.Errorf("запрос DeleteFile к %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("media storage вернул статус %d для DeleteFile %s: %s",
			resp.StatusCode, fileID, string(body))
	}
}

// CheckReady проверяет доступность media storage API.
// Реализует интерфейс handlers.ReadinessChecker.
func (c *Client) CheckReady() (status, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// Лёгкий запрос: lookup по заведомо отсутствующему имени с limit=1
	_, err := c.ListFiles(ctx, "readiness-probe", 1)
	if err != nil {
		return "fail", fmt.Sprintf("media storage недоступен: %v", err)
	}
	return "ok", "media storage доступен"
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA-сертификатом.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}
