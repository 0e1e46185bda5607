package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/avelichko/studycheck/internal/analyzer"
	"github.com/avelichko/studycheck/internal/extract"
	"github.com/avelichko/studycheck/internal/storage"
)

const (
	statusEmptyFile         = "empty_file"
	statusUnsupportedFormat = "unsupported_format"
	statusNoTextInImage     = "no_text_in_image"
)

func placeholderResult(filename, status, fileType string, errs, warnings, recommendations []string) analyzer.AnalysisResult {
	if warnings == nil {
		warnings = []string{}
	}
	return analyzer.AnalysisResult{
		FileName:        filename,
		FileType:        fileType,
		WorkType:        "Не определен",
		DetectedType:    "unknown",
		IsValid:         false,
		Score:           0,
		SectionsFound:   []analyzer.SectionFinding{},
		SectionsMissing: []string{},
		Errors:          errs,
		Warnings:        warnings,
		Recommendations: recommendations,
		StructureDetails: analyzer.StructureDetails{
			DetectionConfidence: "low",
		},
		Status: status,
	}
}

func emptyFileResult(filename string) analyzer.AnalysisResult {
	return placeholderResult(filename, statusEmptyFile, "empty",
		[]string{"Не удалось извлечь текст из файла"},
		nil,
		[]string{"Файл должен содержать текст"},
	)
}

func unsupportedFormatResult(filename string) analyzer.AnalysisResult {
	return placeholderResult(filename, statusUnsupportedFormat, "unsupported",
		[]string{"Формат файла не поддерживается"},
		nil,
		[]string{"Загрузите PDF, DOCX, TXT или изображения (JPG, PNG, etc.)"},
	)
}

func noTextInImageResult(filename string) analyzer.AnalysisResult {
	return placeholderResult(filename, statusNoTextInImage, "image",
		[]string{"Не удалось распознать текст на изображении"},
		[]string{
			"Убедитесь, что изображение четкое",
			"Текст должен быть хорошо виден",
			"Попробуйте сделать фото при хорошем освещении",
		},
		[]string{
			"Используйте скриншоты вместо фото документов",
			"Убедитесь что текст не размыт",
			"Попробуйте увеличить контрастность изображения",
		},
	)
}

// extractText pulls plain text out of an uploaded file, routing images
// through OCR. ok is false when the format has no extractor at all.
func (s *Server) extractText(ctx context.Context, filename string, data []byte) (text string, ok bool, err error) {
	if extract.IsImage(filename) {
		if s.ocr == nil {
			return "", true, fmt.Errorf("ocr service is not configured")
		}
		start := time.Now()
		text, err = s.ocr.Recognize(ctx, data, contentTypeFor(filename))
		switch {
		case err != nil:
			s.metrics.RecordOCR("error", time.Since(start).Seconds())
		case strings.TrimSpace(text) == "":
			s.metrics.RecordOCR("empty", time.Since(start).Seconds())
		default:
			s.metrics.RecordOCR("success", time.Since(start).Seconds())
		}
		return text, true, err
	}

	extractor, ferr := extract.ForFile(filename)
	if ferr != nil {
		return "", false, nil
	}
	if pdfEx, ok := extractor.(*extract.PDFExtractor); ok {
		pdfEx.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}
	fileType := fileTypeOf(filename)
	text, err = extractor.Extract(bytes.NewReader(data), filename)
	if err != nil {
		s.metrics.RecordExtraction(fileType, "error")
		return "", true, err
	}
	s.metrics.RecordExtraction(fileType, "success")
	return text, true, nil
}

// saveAnalysis persists a result and returns the stored record ID.
func (s *Server) saveAnalysis(ctx context.Context, userID int64, filename string, res analyzer.AnalysisResult, objectName string) (int64, error) {
	raw, err := json.Marshal(res)
	if err != nil {
		return 0, fmt.Errorf("marshal result: %w", err)
	}
	rec := &storage.Analysis{
		UserID:         userID,
		Filename:       filename,
		Score:          res.Score,
		FileObjectName: objectName,
		FullResult:     raw,
	}
	if err := s.store.InsertAnalysis(ctx, rec); err != nil {
		return 0, err
	}
	return rec.ID, nil
}

// uploadReport renders the PDF report and stores it under
// reports/<userID>/<uuid>.pdf. Failures only cost the stored report,
// never the analysis itself.
func (s *Server) uploadReport(ctx context.Context, userID int64, userFullName string, res analyzer.AnalysisResult) string {
	if s.objects == nil {
		return ""
	}
	pdfBytes, err := s.renderer.Render(res, userFullName)
	if err != nil {
		s.log.Warn("report render failed", "file", res.FileName, "error", err)
		s.metrics.RecordReportUpload("error")
		return ""
	}
	objectName := fmt.Sprintf("reports/%d/%s.pdf", userID, uuid.New())
	if err := s.objects.Upload(ctx, objectName, pdfBytes, "application/pdf"); err != nil {
		s.log.Warn("report upload failed", "object", objectName, "error", err)
		s.metrics.RecordReportUpload("error")
		return ""
	}
	s.metrics.RecordReportUpload("success")
	return objectName
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "Некорректная multipart-форма: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "Файл не указан", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if filename == "unnamed" {
		jsonError(w, "Имя файла не указано", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "Не удалось прочитать файл", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("Файл превышает максимальный размер (%d байт)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	start := time.Now()
	result := s.analyzeOne(r.Context(), claims.UserID, userFullName(r.Context(), s, claims.UserID), filename, data, r.FormValue("work_type"), true)
	s.metrics.RecordAnalysisDuration(fileTypeOf(filename), time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, result)
}

// analyzeOne runs the full pipeline for a single file: extraction,
// structure analysis, report upload and persistence. withReport controls
// whether a PDF report is generated and stored.
func (s *Server) analyzeOne(ctx context.Context, userID int64, fullName, filename string, data []byte, forcedType string, withReport bool) analyzer.AnalysisResult {
	isImage := extract.IsImage(filename)

	text, supported, err := s.extractText(ctx, filename, data)
	if !supported {
		result := unsupportedFormatResult(filename)
		s.recordPlaceholder(ctx, userID, filename, result)
		return result
	}
	if err != nil {
		s.log.Warn("extraction failed", "file", filename, "error", err)
		var result analyzer.AnalysisResult
		if isImage {
			result = noTextInImageResult(filename)
		} else {
			result = emptyFileResult(filename)
		}
		s.recordPlaceholder(ctx, userID, filename, result)
		return result
	}
	if strings.TrimSpace(text) == "" {
		var result analyzer.AnalysisResult
		if isImage {
			result = noTextInImageResult(filename)
		} else {
			result = emptyFileResult(filename)
		}
		s.recordPlaceholder(ctx, userID, filename, result)
		return result
	}

	result := analyzer.Analyze(text, filename, forcedType)

	objectName := ""
	if withReport {
		objectName = s.uploadReport(ctx, userID, fullName, result)
	}
	if _, err := s.saveAnalysis(ctx, userID, filename, result, objectName); err != nil {
		s.log.Error("save analysis", "file", filename, "error", err)
	}
	s.metrics.RecordAnalysis(string(result.DetectedType), "ok", result.Score)
	return result
}

func (s *Server) recordPlaceholder(ctx context.Context, userID int64, filename string, result analyzer.AnalysisResult) {
	if _, err := s.saveAnalysis(ctx, userID, filename, result, ""); err != nil {
		s.log.Error("save analysis", "file", filename, "error", err)
	}
	s.metrics.RecordAnalysis("unknown", result.Status, 0)
}

func (s *Server) handleAnalyzeMultiple(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*int64(s.cfg.MaxBatchFiles)+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "Некорректная multipart-форма: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "Файлы не указаны", http.StatusBadRequest)
		return
	}
	if len(files) > s.cfg.MaxBatchFiles {
		jsonError(w, fmt.Sprintf("Слишком много файлов, максимум %d", s.cfg.MaxBatchFiles), http.StatusBadRequest)
		return
	}

	forcedType := r.FormValue("work_type")
	fullName := userFullName(r.Context(), s, claims.UserID)

	type slot struct {
		result analyzer.AnalysisResult
		filled bool
	}
	slots := make([]slot, len(files))

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(s.cfg.MaxConcurrentAnalyses)
	for i, fh := range files {
		g.Go(func() error {
			filename := sanitizeFilename(fh.Filename)
			if !extract.IsSupportedExtension(filename) && !extract.IsImage(filename) {
				return nil
			}
			data, err := readMultipartFile(fh, s.cfg.MaxUploadBytes)
			if err != nil {
				s.log.Warn("batch: read file", "file", filename, "error", err)
				return nil
			}
			slots[i] = slot{result: s.analyzeOne(ctx, claims.UserID, fullName, filename, data, forcedType, false), filled: true}
			return nil
		})
	}
	// Workers never return errors, they degrade to skipped slots.
	_ = g.Wait()

	results := make([]analyzer.AnalysisResult, 0, len(files))
	for _, sl := range slots {
		if sl.filled {
			results = append(results, sl.result)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"totalFiles":     len(files),
		"processedFiles": len(results),
		"results":        results,
	})
}

func (s *Server) handleAnalyzeScreenshots(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*int64(s.cfg.MaxBatchFiles)+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "Некорректная multipart-форма: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "Скриншоты не указаны", http.StatusBadRequest)
		return
	}

	var combined strings.Builder
	var validFiles, invalidFiles []string

	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !extract.IsImage(filename) {
			invalidFiles = append(invalidFiles, filename)
			continue
		}
		data, err := readMultipartFile(fh, s.cfg.MaxUploadBytes)
		if err != nil {
			s.log.Warn("screenshots: read file", "file", filename, "error", err)
			invalidFiles = append(invalidFiles, filename)
			continue
		}
		text, _, err := s.extractText(r.Context(), filename, data)
		if err != nil || strings.TrimSpace(text) == "" {
			if err != nil {
				s.log.Warn("screenshots: ocr failed", "file", filename, "error", err)
			}
			invalidFiles = append(invalidFiles, filename)
			continue
		}
		combined.WriteString("\n\n")
		combined.WriteString(text)
		validFiles = append(validFiles, filename)
	}

	combinedText := combined.String()
	if strings.TrimSpace(combinedText) == "" {
		jsonError(w, "Не удалось распознать текст ни на одном из скриншотов. Убедитесь, что скриншоты содержат четкий текст.", http.StatusBadRequest)
		return
	}

	mainFilename := "combined_screenshots"
	if len(validFiles) > 0 {
		mainFilename = validFiles[0]
	}

	result := analyzer.Analyze(combinedText, mainFilename, r.FormValue("work_type"))
	result.FileDetails = &analyzer.ScreenshotDetails{
		TotalScreenshots:   len(files),
		ValidScreenshots:   len(validFiles),
		InvalidScreenshots: len(invalidFiles),
		ValidFiles:         validFiles,
		InvalidFiles:       invalidFiles,
		CombinedTextLength: len([]rune(combinedText)),
	}

	recordName := fmt.Sprintf("combined_screenshots_%d_files", len(files))
	if _, err := s.saveAnalysis(r.Context(), claims.UserID, recordName, result, ""); err != nil {
		s.log.Error("save analysis", "file", recordName, "error", err)
	}
	s.metrics.RecordAnalysis(string(result.DetectedType), "ok", result.Score)

	writeJSON(w, http.StatusOK, result)
}

func userFullName(ctx context.Context, s *Server, userID int64) string {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return ""
	}
	return user.FirstName + " " + user.LastName
}

func readMultipartFile(fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("file exceeds max size (%d bytes)", maxBytes)
	}
	return data, nil
}

func fileTypeOf(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
