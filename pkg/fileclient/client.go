// Package fileclient — Go-клиент HTTP API файлового сервиса.
package fileclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/sir_venger/omnifileserve/pkg/fileproto"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrBadRequest = errors.New("bad request")
)

// APIError — ответ сервиса со статусом ошибки.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Detail)
}

// Is позволяет проверять статус через errors.Is(err, fileclient.ErrNotFound).
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrBadRequest:
		return e.Status == http.StatusBadRequest
	}
	return false
}

// Client ходит в файловый сервис по baseURL.
type Client struct {
	base       string
	c          *http.Client
	progress   io.Writer
	attempts   uint
	retryDelay time.Duration
}

type Option func(*Client)

// WithHTTPClient подменяет http.Client, например для таймаутов.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.c = c
	}
}

// WithProgress включает индикатор передачи, который рисуется в w.
func WithProgress(w io.Writer) Option {
	return func(cl *Client) {
		cl.progress = w
	}
}

// WithRetry повторяет GET-запросы (read, list, health) при сетевых ошибках и 5xx.
// Запись, удаление и pull не повторяются.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(cl *Client) {
		cl.attempts = attempts
		cl.retryDelay = delay
	}
}

// New создаёт клиент для сервиса по адресу baseURL.
func New(baseURL string, opts ...Option) *Client {
	cl := &Client{
		base:     strings.TrimRight(baseURL, "/"),
		c:        &http.Client{},
		attempts: 1,
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// Upload создаёт новый файл. name может содержать подкаталоги; dir — необязательный
// каталог назначения. size используется только для индикатора (-1, если неизвестен).
func (cl *Client) Upload(ctx context.Context, r io.Reader, size int64, name, dir string) (fileproto.MessageResponse, error) {
	body, contentType := multipartStream(r, name, map[string]string{fileproto.FormFieldPath: dir})
	bar := cl.newBar("push "+name, size)
	defer bar.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cl.base+fileproto.FilesPath, bar.reader(body))
	if err != nil {
		return fileproto.MessageResponse{}, err
	}
	req.Header.Set("Content-Type", contentType)

	var out fileproto.MessageResponse
	if err = cl.doJSON(req, &out); err != nil {
		return fileproto.MessageResponse{}, err
	}
	bar.Finish()
	return out, nil
}

// Replace перезаписывает (или создаёт) файл по удалённому пути сырым телом.
func (cl *Client) Replace(ctx context.Context, remote string, r io.Reader, size int64) (fileproto.MessageResponse, error) {
	bar := cl.newBar("put "+remote, size)
	defer bar.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, cl.fileURL(fileproto.FilesPath, remote), bar.reader(r))
	if err != nil {
		return fileproto.MessageResponse{}, err
	}
	if size >= 0 {
		req.ContentLength = size
	}
	req.Header.Set("Content-Type", fileproto.ContentTypeOctetStream)

	var out fileproto.MessageResponse
	if err = cl.doJSON(req, &out); err != nil {
		return fileproto.MessageResponse{}, err
	}
	bar.Finish()
	return out, nil
}

// Read возвращает содержимое текстового файла.
func (cl *Client) Read(ctx context.Context, remote string) (fileproto.ReadResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cl.fileURL(fileproto.FilesPath, remote), nil)
	if err != nil {
		return fileproto.ReadResponse{}, err
	}

	var out fileproto.ReadResponse
	return out, cl.doJSON(req, &out)
}

// Delete удаляет файл.
func (cl *Client) Delete(ctx context.Context, remote string) (fileproto.MessageResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, cl.fileURL(fileproto.FilesPath, remote), nil)
	if err != nil {
		return fileproto.MessageResponse{}, err
	}

	var out fileproto.MessageResponse
	return out, cl.doJSON(req, &out)
}

// List возвращает файлы под удалённым каталогом dir ("" — весь корень).
func (cl *Client) List(ctx context.Context, dir string) ([]string, error) {
	u := cl.base + fileproto.ListPath
	if dir != "" {
		u += "?" + url.Values{fileproto.QueryPath: {dir}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var out fileproto.ListResponse
	if err = cl.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// Pull скачивает файл в w и возвращает имя, предложенное сервером.
func (cl *Client) Pull(ctx context.Context, remote string, w io.Writer) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cl.fileURL(fileproto.PullPath, remote), nil)
	if err != nil {
		return "", err
	}

	resp, err := cl.c.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}

	name := path.Base(remote)
	if _, params, perr := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); perr == nil && params["filename"] != "" {
		name = params["filename"]
	}

	bar := cl.newBar("pull "+name, resp.ContentLength)
	defer bar.Close()

	if _, err = io.Copy(bar.writer(w), resp.Body); err != nil {
		return "", err
	}
	bar.Finish()
	return name, nil
}

// Health запрашивает статистику хранилища.
func (cl *Client) Health(ctx context.Context) (fileproto.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cl.base+fileproto.HealthPath, nil)
	if err != nil {
		return fileproto.HealthResponse{}, err
	}

	var out fileproto.HealthResponse
	return out, cl.doJSON(req, &out)
}

// fileURL экранирует каждый сегмент пути, сохраняя разделители.
func (cl *Client) fileURL(prefix, remote string) string {
	segments := strings.Split(strings.TrimLeft(remote, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return cl.base + prefix + strings.Join(segments, "/")
}

func (cl *Client) doJSON(req *http.Request, out any) error {
	if req.Method != http.MethodGet || cl.attempts <= 1 {
		return cl.doJSONOnce(req, out)
	}

	return retry.Do(
		func() error { return cl.doJSONOnce(req, out) },
		retry.Attempts(cl.attempts),
		retry.Delay(cl.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.Context(req.Context()),
	)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return true
}

func (cl *Client) doJSONOnce(req *http.Request, out any) error {
	resp, err := cl.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body fileproto.ErrorResponse
	if err := json.Unmarshal(b, &body); err != nil || body.Detail == "" {
		body.Detail = strings.TrimSpace(string(b))
	}
	return &APIError{Status: resp.StatusCode, Detail: body.Detail}
}

// multipartStream отдаёт multipart-тело потоком через pipe, не буферизуя файл целиком.
func multipartStream(r io.Reader, name string, fields map[string]string) (io.Reader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeMultipart(mw, r, name, fields)
		_ = pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func writeMultipart(mw *multipart.Writer, r io.Reader, name string, fields map[string]string) error {
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}

	// имя пишем сами: CreateFormFile не даёт передать подкаталоги без искажений
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     fileproto.FormFieldFile,
		"filename": name,
	}))
	h.Set("Content-Type", fileproto.ContentTypeOctetStream)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err = io.Copy(part, r); err != nil {
		return err
	}

	return mw.Close()
}
