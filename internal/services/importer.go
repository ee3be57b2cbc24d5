package services

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"comentsia-go/internal/config"
	"comentsia-go/internal/csvio"
	"comentsia-go/internal/database"
	"comentsia-go/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// User-facing messages recorded on the UploadLog (rendered to pt-BR users,
// matching the rest of the product).
const (
	msgNoHeaders    = "CSV sem cabeçalhos."
	msgNoExternalID = "Coluna de número da reserva não encontrada."
	msgReadFailure  = "Falha ao ler o arquivo."
	msgSaveFailure  = "Falha ao salvar."
	msgInvalidID    = "número de reserva inválido"
)

// ImportService runs the background CSV import: streaming read, field
// mapping, row normalization, dedup against the reservation index and
// batched writes, updating the UploadLog after every batch. Job identity is
// keyed by upload id, so re-scheduling an in-flight upload never runs it
// twice; distinct uploads run concurrently.
type ImportService struct {
	cfg   *config.Config
	log   *zap.Logger
	group singleflight.Group
	wg    sync.WaitGroup
}

// NewImportService creates a new import service
func NewImportService(cfg *config.Config, log *zap.Logger) *ImportService {
	return &ImportService{cfg: cfg, log: log}
}

// Schedule dispatches the import job for an upload. It returns immediately;
// progress is observable only through the persisted UploadLog.
func (s *ImportService) Schedule(uploadID uint, userID, scratchPath string) {
	key := strconv.FormatUint(uint64(uploadID), 10)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, err, _ := s.group.Do(key, func() (interface{}, error) {
			return nil, s.Run(uploadID, userID, scratchPath)
		})
		if err != nil {
			s.log.Error("Import job failed",
				zap.Uint("upload_id", uploadID),
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}()
}

// Wait blocks until all in-flight import jobs have finished. There is no
// cancellation: once scheduled, a job runs to completion or failure.
func (s *ImportService) Wait() {
	s.wg.Wait()
}

// reviewRow is one validated, normalized CSV row buffered for batch insert.
type reviewRow struct {
	externalID   string
	reviewerName string
	title        string
	text         string
	rating       *float64
	origRating   *float64
	date         time.Time
	fingerprint  string
}

func (r reviewRow) review(userID string, uploadID uint) models.Review {
	logID := uploadID
	return models.Review{
		UserID:         userID,
		Source:         models.SourceBooking,
		ExternalID:     r.externalID,
		ReviewerName:   r.reviewerName,
		Title:          r.title,
		Text:           r.text,
		Rating:         r.rating,
		OriginalRating: r.origRating,
		OriginalScale:  "0-10",
		Date:           r.date,
		Fingerprint:    r.fingerprint,
		UploadLogID:    &logID,
	}
}

// importState carries the running counters and the capped error list.
type importState struct {
	inserted   int
	duplicates int
	skipped    int
	errs       []string
}

// addError records a row error, HTML-escaped, up to the storage cap. Rows
// past the cap still count as skipped, they just drop out of the report.
func (st *importState) addError(msg string) {
	if len(st.errs) < models.MaxStoredErrors {
		st.errs = append(st.errs, html.EscapeString(msg))
	}
}

func (st *importState) errorsJSON() string {
	if len(st.errs) == 0 {
		return ""
	}
	out, err := json.Marshal(st.errs)
	if err != nil {
		return ""
	}
	return string(out)
}

// Run executes one import job to completion. The scratch file is removed in
// every outcome.
func (s *ImportService) Run(uploadID uint, userID, scratchPath string) error {
	defer func() {
		if err := os.Remove(scratchPath); err != nil && !os.IsNotExist(err) {
			s.log.Warn("Failed to remove scratch file",
				zap.String("path", scratchPath), zap.Error(err))
		}
	}()

	var upload models.UploadLog
	if err := database.DB.First(&upload, uploadID).Error; err != nil {
		return fmt.Errorf("upload log %d not found: %w", uploadID, err)
	}

	upload.Status = models.UploadStatusProcessing
	if err := database.DB.Save(&upload).Error; err != nil {
		return fmt.Errorf("failed to mark upload processing: %w", err)
	}

	st := &importState{}

	f, err := os.Open(scratchPath)
	if err != nil {
		return s.fail(&upload, st, msgReadFailure, err)
	}
	defer f.Close()

	scanner := csvio.NewLineScannerSize(f, s.cfg.Import.ReadChunkSize)

	var headerLine string
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			headerLine = scanner.Text()
			break
		}
	}
	if headerLine == "" {
		return s.fail(&upload, st, msgNoHeaders, scanner.Err())
	}

	delim := csvio.DetectDelimiter(headerLine)
	headers := csvio.SplitRecord(headerLine, delim)
	fields := csvio.DetectFields(headers)
	if fields.ExternalID == "" {
		return s.fail(&upload, st, msgNoExternalID, nil)
	}

	colIndex := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, ok := colIndex[h]; !ok {
			colIndex[h] = i
		}
	}
	get := func(record []string, column string) string {
		if column == "" {
			return ""
		}
		i, ok := colIndex[column]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	seen := make(map[string]struct{})
	batch := make([]reviewRow, 0, s.cfg.Import.BatchSize)
	rowNum := 0

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rowNum++

		record := csvio.SplitRecord(line, delim)
		externalID := get(record, fields.ExternalID)
		if !csvio.ValidExternalID(externalID) {
			st.skipped++
			st.addError(fmt.Sprintf("Linha %d: %s", rowNum, msgInvalidID))
			continue
		}

		// In-file duplicate, scoped to this upload only.
		if _, dup := seen[externalID]; dup {
			st.duplicates++
			continue
		}
		seen[externalID] = struct{}{}

		batch = append(batch, s.buildRow(userID, externalID, record, fields, get))
		if len(batch) >= s.cfg.Import.BatchSize {
			if err := s.flushBatch(&upload, userID, batch, st); err != nil {
				return s.fail(&upload, st, msgSaveFailure, err)
			}
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return s.fail(&upload, st, msgReadFailure, err)
	}

	if err := s.flushBatch(&upload, userID, batch, st); err != nil {
		return s.fail(&upload, st, msgSaveFailure, err)
	}

	now := time.Now().UTC()
	upload.Status = models.UploadStatusSuccess
	upload.FinishedAt = &now
	upload.Inserted = st.inserted
	upload.Duplicates = st.duplicates
	upload.Skipped = st.skipped
	upload.ErrorsJSON = st.errorsJSON()
	if err := database.DB.Save(&upload).Error; err != nil {
		return fmt.Errorf("failed to finalize upload log: %w", err)
	}

	s.log.Info("Import completed",
		zap.Uint("upload_id", uploadID),
		zap.String("user_id", userID),
		zap.Int("inserted", st.inserted),
		zap.Int("duplicates", st.duplicates),
		zap.Int("skipped", st.skipped),
	)
	return nil
}

// buildRow normalizes one validated record into a buffered review row. It
// never fails: unparseable fields degrade to empty/null values.
func (s *ImportService) buildRow(userID, externalID string, record []string, fields csvio.FieldMap, get func([]string, string) string) reviewRow {
	name := get(record, fields.Name)
	title := get(record, fields.Title)
	pos := get(record, fields.TextPos)
	neg := get(record, fields.TextNeg)

	text := csvio.NeutralizeFormula(csvio.StripAccents(csvio.MergeText(pos, neg)))
	cleanTitle := csvio.NeutralizeFormula(csvio.StripAccents(title))

	original := csvio.ParseFloat(get(record, fields.Rating))
	rating := csvio.FiveScale(original)

	date, ok := csvio.ParseDate(get(record, fields.Date))
	if !ok {
		date = csvio.NowBRT()
	}

	return reviewRow{
		externalID:   externalID,
		reviewerName: csvio.SanitizeGuestName(name, title, pos, neg),
		title:        cleanTitle,
		text:         text,
		rating:       rating,
		origRating:   original,
		date:         date,
		fingerprint:  fingerprint(userID, models.SourceBooking, externalID, name, title, date, text),
	}
}

// flushBatch deduplicates the buffered rows against the reservation index
// and inserts the remainder in one transaction, committing before the
// counters are persisted. Each row's reservation insert runs inside its own
// savepoint: a uniqueness race with a concurrent upload rolls back that row
// only and counts it as a duplicate.
func (s *ImportService) flushBatch(upload *models.UploadLog, userID string, batch []reviewRow, st *importState) error {
	if len(batch) == 0 {
		return nil
	}

	ids := make([]string, 0, len(batch))
	for _, row := range batch {
		ids = append(ids, row.externalID)
	}
	existing, err := s.lookupExisting(userID, ids)
	if err != nil {
		return err
	}

	var inserted, duplicates int
	err = database.RetryWithBackoff(3, 100*time.Millisecond, func() error {
		inserted, duplicates = 0, 0
		return database.DB.Transaction(func(tx *gorm.DB) error {
			for _, row := range batch {
				if _, known := existing[row.externalID]; known {
					duplicates++
					continue
				}
				rowErr := tx.Transaction(func(sp *gorm.DB) error {
					reservation := models.ReservationIndex{
						UserID:     userID,
						Source:     models.SourceBooking,
						ExternalID: row.externalID,
					}
					if err := sp.Create(&reservation).Error; err != nil {
						return err
					}
					review := row.review(userID, upload.ID)
					return sp.Create(&review).Error
				})
				if rowErr != nil {
					if database.IsDuplicateKey(rowErr) {
						duplicates++
						continue
					}
					return rowErr
				}
				inserted++
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	st.inserted += inserted
	st.duplicates += duplicates

	updates := map[string]interface{}{
		"inserted":    st.inserted,
		"duplicates":  st.duplicates,
		"skipped":     st.skipped,
		"errors_json": st.errorsJSON(),
	}
	if err := database.DB.Model(upload).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to persist upload counters: %w", err)
	}

	// Yield to other tenants' requests on the shared process.
	time.Sleep(s.cfg.Import.InterBatchSleep)
	return nil
}

// lookupExisting bulk-checks candidate external ids against the reservation
// index in chunks small enough for query parameter limits. If the index
// query itself fails, it falls back to a direct lookup on the review table.
func (s *ImportService) lookupExisting(userID string, ids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	chunk := s.cfg.Import.LookupChunkSize

	for start := 0; start < len(ids); start += chunk {
		end := start + chunk
		if end > len(ids) {
			end = len(ids)
		}

		var found []string
		err := database.DB.Model(&models.ReservationIndex{}).
			Where("user_id = ? AND source = ? AND external_id IN ?",
				userID, models.SourceBooking, ids[start:end]).
			Pluck("external_id", &found).Error
		if err != nil {
			s.log.Warn("Reservation index lookup failed, falling back to review table",
				zap.Error(err))
			found = found[:0]
			err = database.DB.Model(&models.Review{}).
				Where("user_id = ? AND source = ? AND external_id IN ?",
					userID, models.SourceBooking, ids[start:end]).
				Pluck("external_id", &found).Error
			if err != nil {
				return nil, fmt.Errorf("duplicate lookup failed: %w", err)
			}
		}
		for _, id := range found {
			existing[id] = struct{}{}
		}
	}
	return existing, nil
}

// fail finalizes the upload log with status=error, preserving counters from
// batches already committed.
func (s *ImportService) fail(upload *models.UploadLog, st *importState, msg string, cause error) error {
	st.addError(msg)

	now := time.Now().UTC()
	upload.Status = models.UploadStatusError
	upload.FinishedAt = &now
	upload.Inserted = st.inserted
	upload.Duplicates = st.duplicates
	upload.Skipped = st.skipped
	upload.ErrorsJSON = st.errorsJSON()
	if err := database.DB.Save(upload).Error; err != nil {
		s.log.Error("Failed to persist failed upload log",
			zap.Uint("upload_id", upload.ID), zap.Error(err))
	}

	if cause != nil {
		return fmt.Errorf("%s: %w", msg, cause)
	}
	return fmt.Errorf("%s", msg)
}
