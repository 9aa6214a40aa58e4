package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/maauso/mediaconvert-api/internal/catalog"
	"github.com/maauso/mediaconvert-api/internal/convert"
	"github.com/maauso/mediaconvert-api/internal/metrics"
	"github.com/maauso/mediaconvert-api/internal/storage"
	"github.com/maauso/mediaconvert-api/internal/transcode"
)

// DefaultMaxUploadBytes caps the request body of POST /convert.
const DefaultMaxUploadBytes = 200 << 20

// multipartMemory is the part of a multipart form kept in memory; the rest
// spills to temporary files.
const multipartMemory = 32 << 20

// CategoryOther is used when neither the catalog nor the file type names a category.
const CategoryOther convert.CategoryID = "other"

// StatusClientClosedRequest reports a conversion abandoned by the client.
const StatusClientClosedRequest = 499

// Converter runs a conversion.
type Converter interface {
	Convert(ctx context.Context, file convert.InputFile, tool convert.ToolID, category convert.CategoryID, opts convert.Options) (*convert.Result, error)
}

// VideoEngine exposes the video runtime lifecycle.
type VideoEngine interface {
	State() transcode.State
	Version() string
	Slots() int
	Load(ctx context.Context) error
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	converter      Converter
	engine         VideoEngine
	publisher      storage.Publisher
	validator      *validator.Validate
	logger         *slog.Logger
	maxUploadBytes int64
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithPublisher enables ?publish=true on POST /convert.
func WithPublisher(p storage.Publisher) HandlerOption {
	return func(h *Handlers) {
		h.publisher = p
	}
}

// WithMaxUploadBytes sets the request body limit of POST /convert.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(converter Converter, engine VideoEngine, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		converter:      converter,
		engine:         engine,
		validator:      validator.New(),
		logger:         logger,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Tools handles GET /tools requests. ?category= filters the list.
func (h *Handlers) Tools(w http.ResponseWriter, r *http.Request) {
	tools := catalog.All()
	if c := r.URL.Query().Get("category"); c != "" {
		tools = catalog.ByCategory(convert.CategoryID(c))
	}
	if tools == nil {
		tools = []catalog.Tool{}
	}
	writeJSON(w, http.StatusOK, ToolsResponse{
		Categories: catalog.Categories(),
		Tools:      tools,
	})
}

// Engine handles GET /engine requests.
func (h *Handlers) Engine(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		writeJSON(w, http.StatusOK, EngineResponse{State: string(transcode.StateUnloaded)})
		return
	}
	writeJSON(w, http.StatusOK, h.engineResponse())
}

// LoadEngine handles POST /engine/load requests. It blocks until the
// runtime is ready or the load failed. The load attempt is shared with
// other callers, so it is detached from this client's cancellation.
func (h *Handlers) LoadEngine(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		writeError(w, http.StatusServiceUnavailable, "video engine is not configured", "ENGINE_NOT_READY")
		return
	}

	if err := h.engine.Load(context.WithoutCancel(r.Context())); err != nil {
		h.logger.Error("video engine load failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusServiceUnavailable, "video engine failed to load", "ENGINE_LOAD_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, h.engineResponse())
}

func (h *Handlers) engineResponse() EngineResponse {
	return EngineResponse{
		State:   string(h.engine.State()),
		Version: h.engine.Version(),
		Slots:   h.engine.Slots(),
	}
}

// Convert handles POST /convert requests.
// The multipart form carries file, tool, category and options (JSON).
func (h *Handlers) Convert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file exceeds the %d byte limit", tooLarge.Limit), "FILE_TOO_LARGE")
			return
		}
		h.logger.Warn("failed to parse multipart form",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid multipart form", "VALIDATION_ERROR")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	form := convertForm{
		Tool:     r.FormValue("tool"),
		Category: r.FormValue("category"),
	}
	if err := h.validator.Struct(form); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	opts, err := convert.ParseOptions([]byte(r.FormValue("options")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "options must be a JSON object", "VALIDATION_ERROR")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required", "VALIDATION_ERROR")
		return
	}
	defer file.Close()

	input := convert.InputFile{
		Name:     header.Filename,
		MimeType: declaredType(header.Header.Get("Content-Type")),
		Size:     header.Size,
		Body:     file,
	}

	tool := convert.ToolID(form.Tool)
	category := convert.CategoryID(form.Category)
	if category == "" {
		category = resolveCategory(tool, input.MimeType)
	}

	result, err := h.converter.Convert(r.Context(), input, tool, category, opts)
	if err != nil {
		status, code := errorStatus(err)
		writeError(w, status, convert.UserMessage(err), code)
		return
	}

	if publish, _ := strconv.ParseBool(r.URL.Query().Get("publish")); publish {
		h.publish(w, r, result)
		return
	}

	writeResult(w, result)
}

// publish uploads result and answers with its URL.
func (h *Handlers) publish(w http.ResponseWriter, r *http.Request, result *convert.Result) {
	if h.publisher == nil {
		writeError(w, http.StatusNotImplemented, "no publishing sink is configured", "PUBLISH_NOT_CONFIGURED")
		return
	}

	key := path.Join(uuid.NewString(), result.Name)
	url, err := h.publisher.Publish(r.Context(), key, result.Type, bytes.NewReader(result.Blob))
	if err != nil {
		metrics.PublishTotal.WithLabelValues(metrics.OutcomeError).Inc()
		if errors.Is(err, storage.ErrPublishNotConfigured) {
			writeError(w, http.StatusNotImplemented, "no publishing sink is configured", "PUBLISH_NOT_CONFIGURED")
			return
		}
		h.logger.Error("failed to publish result",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to upload result", "PUBLISH_FAILED")
		return
	}
	metrics.PublishTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()

	h.logger.Info("result published",
		slog.String("key", key),
		slog.String("url", url),
	)

	writeJSON(w, http.StatusOK, PublishResponse{
		Name:         result.Name,
		Type:         result.Type,
		Size:         result.Size,
		URL:          url,
		OriginalName: result.OriginalName,
		OriginalSize: result.OriginalSize,
		Message:      result.Message,
		Placeholder:  result.Placeholder,
	})
}

// writeResult streams the blob with its metadata in headers.
func writeResult(w http.ResponseWriter, result *convert.Result) {
	hdr := w.Header()
	hdr.Set("Content-Type", result.Type)
	hdr.Set("Content-Length", strconv.FormatInt(result.Size, 10))
	hdr.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Name}))
	hdr.Set("X-Original-Name", mime.QEncoding.Encode("utf-8", result.OriginalName))
	hdr.Set("X-Original-Size", strconv.FormatInt(result.OriginalSize, 10))
	hdr.Set("X-Placeholder", strconv.FormatBool(result.Placeholder))
	if result.Message != "" {
		hdr.Set("X-Message", mime.QEncoding.Encode("utf-8", result.Message))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Blob); err != nil {
		slog.Error("failed to write result", slog.String("error", err.Error()))
	}
}

// errorStatus maps a conversion error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, convert.ErrUnsupportedTool):
		return http.StatusUnprocessableEntity, "UNSUPPORTED_TOOL"
	case errors.Is(err, convert.ErrEngineNotReady):
		return http.StatusServiceUnavailable, "ENGINE_NOT_READY"
	case errors.Is(err, convert.ErrUnsupportedCodec):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_CODEC"
	case errors.Is(err, convert.ErrDecode):
		return http.StatusUnsupportedMediaType, "DECODE_ERROR"
	case errors.Is(err, convert.ErrIO):
		return http.StatusBadRequest, "IO_ERROR"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "CANCELLED"
	default:
		return http.StatusInternalServerError, "TRANSCODE_ERROR"
	}
}

// declaredType drops the generic binary type browsers send for unknown
// files so the dispatcher sniffs the content instead.
func declaredType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType == convert.MIMEBinary {
		return ""
	}
	return mediaType
}

// resolveCategory picks the catalog category of tool, preferring the one
// whose accepted MIME class matches the file.
func resolveCategory(tool convert.ToolID, mimeType string) convert.CategoryID {
	var first convert.CategoryID
	for _, t := range catalog.All() {
		if t.ID != tool {
			continue
		}
		if t.Accept != "" && convert.HasClass(mimeType, t.Accept) {
			return t.Category
		}
		if first == "" {
			first = t.Category
		}
	}
	if first != "" {
		return first
	}
	return CategoryOther
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
