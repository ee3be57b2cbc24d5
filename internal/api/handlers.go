package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"comentsia-go/internal/config"
	"comentsia-go/internal/database"
	"comentsia-go/internal/models"
	"comentsia-go/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler holds all handlers and dependencies
type Handler struct {
	cfg      *config.Config
	uploads  *services.UploadService
	importer *services.ImportService
	log      *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(cfg *config.Config, uploads *services.UploadService, importer *services.ImportService, log *zap.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		uploads:  uploads,
		importer: importer,
		log:      log,
	}
}

// uploadSummary is the JSON shape of one upload-log row in listings.
type uploadSummary struct {
	ID         uint       `json:"id"`
	Filename   string     `json:"filename"`
	Filesize   int64      `json:"filesize"`
	Status     string     `json:"status"`
	Inserted   int        `json:"inserted"`
	Duplicates int        `json:"duplicates"`
	Skipped    int        `json:"skipped"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Errors     []string   `json:"errors"`
}

// HealthCheck handles health check endpoint
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadyCheck handles readiness check endpoint
func (h *Handler) ReadyCheck(c *gin.Context) {
	sqlDB, err := database.DB.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "database_connection_failed",
		})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "database_ping_failed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// BookingForm serves the minimal upload page. The CSRF token from the
// session is embedded so the page's fetch call can send it back as a header.
func (h *Handler) BookingForm(c *gin.Context) {
	page := fmt.Sprintf(bookingFormHTML, c.GetString(ctxCSRF))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// UploadCSV accepts the multipart upload, persists it to scratch and queues
// the background import. The response never waits on processing.
func (h *Handler) UploadCSV(c *gin.Context) {
	if c.Request.ContentLength > h.cfg.Upload.MaxFileBytes {
		h.errorResponse(c, http.StatusRequestEntityTooLarge, "Arquivo muito grande.", nil)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Arquivo não enviado.", err)
		return
	}

	src, err := file.Open()
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Falha ao ler o arquivo.", err)
		return
	}
	defer src.Close()

	userID := c.GetString(ctxUserID)
	contentType := file.Header.Get("Content-Type")

	upload, scratchPath, err := h.uploads.Receive(userID, file.Filename, contentType, src, file.Size)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadExtension):
			h.errorResponse(c, http.StatusBadRequest, "Extensão não suportada (use .csv).", err)
		case errors.Is(err, services.ErrFileTooLarge):
			h.errorResponse(c, http.StatusRequestEntityTooLarge, "Arquivo muito grande.", err)
		default:
			h.errorResponse(c, http.StatusBadRequest, "Falha ao ler o arquivo.", err)
		}
		return
	}

	h.importer.Schedule(upload.ID, userID, scratchPath)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"status":    models.UploadStatusQueued,
		"upload_id": upload.ID,
	})
}

// ListUploads returns the caller's recent booking uploads, newest first.
func (h *Handler) ListUploads(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	uploads, err := h.uploads.ListUploads(userID)
	if err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "Falha ao listar uploads.", err)
		return
	}

	summaries := make([]uploadSummary, 0, len(uploads))
	for _, u := range uploads {
		summaries = append(summaries, summarize(u))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"uploads": summaries,
	})
}

// DeleteUpload hard-deletes one of the caller's upload logs.
func (h *Handler) DeleteUpload(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Identificador inválido.", err)
		return
	}

	userID := c.GetString(ctxUserID)
	if err := h.uploads.DeleteUpload(userID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.errorResponse(c, http.StatusNotFound, "Upload não encontrado.", nil)
			return
		}
		h.errorResponse(c, http.StatusInternalServerError, "Falha ao excluir upload.", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CountReviews returns the caller's imported booking review count.
func (h *Handler) CountReviews(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	count, err := h.uploads.CountReviews(userID)
	if err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "Falha ao contar avaliações.", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   count,
	})
}

// errorResponse sends the standard error envelope and logs the cause.
func (h *Handler) errorResponse(c *gin.Context, status int, message string, err error) {
	if err != nil {
		h.log.Error("Request error",
			zap.Int("status", status),
			zap.String("message", message),
			zap.Error(err),
			zap.String("request_id", c.GetString(ctxRequestID)),
		)
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}

func summarize(u models.UploadLog) uploadSummary {
	errs := []string{}
	if u.ErrorsJSON != "" {
		// Stored errors are already HTML-escaped; a broken blob reads as none.
		_ = json.Unmarshal([]byte(u.ErrorsJSON), &errs)
	}
	return uploadSummary{
		ID:         u.ID,
		Filename:   u.Filename,
		Filesize:   u.Filesize,
		Status:     u.Status,
		Inserted:   u.Inserted,
		Duplicates: u.Duplicates,
		Skipped:    u.Skipped,
		StartedAt:  u.StartedAt,
		FinishedAt: u.FinishedAt,
		Errors:     errs,
	}
}

const bookingFormHTML = `<!doctype html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>Importar avaliações Booking</title></head>
<body>
<h1>Importar avaliações do Booking.com</h1>
<p>Envie o arquivo CSV exportado do Booking (máx. 2 MB).</p>
<input type="file" id="file" accept=".csv">
<button id="send">Enviar</button>
<pre id="out"></pre>
<script>
document.getElementById('send').addEventListener('click', async function () {
  var input = document.getElementById('file');
  if (!input.files.length) { return; }
  var data = new FormData();
  data.append('file', input.files[0]);
  var resp = await fetch('/booking/upload', {
    method: 'POST',
    headers: {'X-CSRF-Token': '%s'},
    body: data
  });
  document.getElementById('out').textContent = await resp.text();
});
</script>
</body>
</html>`
