package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avelichko/studycheck/internal/storage"
)

func formatCreatedAt(ts int64) string {
	if ts == 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

// queryIntPtr returns nil when the parameter is absent or malformed, so
// the storage layer treats it as "no filter".
func queryIntPtr(r *http.Request, key string) *int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

// sanitizeSort clamps sort parameters to the columns an endpoint exposes.
// Unknown columns fall back to created_at, unknown orders to desc. The
// sanitized values are both queried with and echoed back to the caller.
func sanitizeSort(sortBy, sortOrder string, allowed map[string]bool) (string, string) {
	if !allowed[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}
	return sortBy, sortOrder
}

func listResponse(items any, total, page, limit int, filters map[string]any) map[string]any {
	return map[string]any{
		"items":       items,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": (total + limit - 1) / limit,
		"filters":     filters,
	}
}

func (s *Server) handleMyUploads(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 6)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 6
	}
	minScore := queryIntPtr(r, "min_score")
	maxScore := queryIntPtr(r, "max_score")
	if minScore != nil && *minScore < 0 {
		jsonError(w, "min_score должен быть >= 0", http.StatusBadRequest)
		return
	}
	if maxScore != nil && *maxScore < 0 {
		jsonError(w, "max_score должен быть >= 0", http.StatusBadRequest)
		return
	}
	if minScore != nil && maxScore != nil && *minScore > *maxScore {
		jsonError(w, "min_score не может быть больше max_score", http.StatusBadRequest)
		return
	}

	sortBy, sortOrder := sanitizeSort(r.URL.Query().Get("sort_by"), r.URL.Query().Get("sort_order"),
		map[string]bool{"created_at": true, "score": true, "filename": true})

	opts := storage.ListOptions{
		Page:      page,
		Limit:     limit,
		Search:    r.URL.Query().Get("search"),
		MinScore:  minScore,
		MaxScore:  maxScore,
		UserID:    &claims.UserID,
		SortBy:    sortBy,
		SortOrder: sortOrder,
	}

	analyses, total, err := s.store.ListAnalyses(r.Context(), opts)
	if err != nil {
		s.log.Error("my-uploads: list", "error", err)
		jsonError(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	items := make([]map[string]any, 0, len(analyses))
	for _, a := range analyses {
		items = append(items, map[string]any{
			"id":         a.ID,
			"filename":   a.Filename,
			"score":      a.Score,
			"created_at": formatCreatedAt(a.CreatedAt),
			"has_file":   a.FileObjectName != "",
		})
	}

	writeJSON(w, http.StatusOK, listResponse(items, total, page, limit, map[string]any{
		"search":     opts.Search,
		"min_score":  minScore,
		"max_score":  maxScore,
		"sort_by":    opts.SortBy,
		"sort_order": opts.SortOrder,
	}))
}

// uploadForRequest loads an analysis record and enforces the ownership
// rule: students see only their own records, admins see everything.
func (s *Server) uploadForRequest(w http.ResponseWriter, r *http.Request, accessDenied string) *storage.Analysis {
	claims, _ := ClaimsFromContext(r.Context())

	uploadID, err := strconv.ParseInt(chi.URLParam(r, "uploadID"), 10, 64)
	if err != nil {
		jsonError(w, "Некорректный идентификатор записи", http.StatusBadRequest)
		return nil
	}
	upload, err := s.store.AnalysisByID(r.Context(), uploadID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			jsonError(w, "Запись не найдена", http.StatusNotFound)
			return nil
		}
		s.log.Error("upload: load", "id", uploadID, "error", err)
		jsonError(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return nil
	}
	if claims.Role != storage.RoleAdmin && upload.UserID != claims.UserID {
		jsonError(w, accessDenied, http.StatusForbidden)
		return nil
	}
	return upload
}

func (s *Server) handleUploadDetails(w http.ResponseWriter, r *http.Request) {
	upload := s.uploadForRequest(w, r, "У вас нет доступа к этому анализу")
	if upload == nil {
		return
	}
	if len(upload.FullResult) == 0 {
		jsonError(w, "Детали анализа не найдены", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(upload.FullResult)
}

func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	upload := s.uploadForRequest(w, r, "У вас нет прав на удаление этого анализа")
	if upload == nil {
		return
	}

	if upload.FileObjectName != "" && s.objects != nil {
		if err := s.objects.Delete(r.Context(), upload.FileObjectName); err != nil {
			s.log.Warn("delete report object", "object", upload.FileObjectName, "error", err)
		}
	}
	if err := s.store.DeleteAnalysis(r.Context(), upload.ID); err != nil {
		s.log.Error("delete analysis", "id", upload.ID, "error", err)
		jsonError(w, "Ошибка при удалении записи", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Запись успешно удалена"})
}

func (s *Server) handleDownloadURL(w http.ResponseWriter, r *http.Request) {
	upload := s.uploadForRequest(w, r, "У вас нет доступа к этому файлу")
	if upload == nil {
		return
	}
	if upload.FileObjectName == "" {
		jsonError(w, "Файл не был сохранён в хранилище", http.StatusNotFound)
		return
	}
	if s.objects == nil {
		jsonError(w, "Сервис хранилища недоступен", http.StatusServiceUnavailable)
		return
	}

	url, err := s.objects.PresignGet(r.Context(), upload.FileObjectName, time.Hour)
	if err != nil {
		s.log.Error("presign download", "object", upload.FileObjectName, "error", err)
		jsonError(w, "Ошибка при получении ссылки для скачивания", http.StatusInternalServerError)
		return
	}

	baseName := upload.Filename
	if i := strings.LastIndex(baseName, "."); i > 0 {
		baseName = baseName[:i]
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"download_url": url,
		"filename":     "report_" + baseName + ".pdf",
	})
}

func (s *Server) handleAllAnalyses(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	var userID *int64
	if v := r.URL.Query().Get("user_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			userID = &id
		}
	}

	sortBy, sortOrder := sanitizeSort(r.URL.Query().Get("sort_by"), r.URL.Query().Get("sort_order"),
		map[string]bool{"created_at": true, "score": true, "filename": true, "user_id": true})

	opts := storage.ListOptions{
		Page:      page,
		Limit:     limit,
		Search:    r.URL.Query().Get("search"),
		MinScore:  queryIntPtr(r, "min_score"),
		MaxScore:  queryIntPtr(r, "max_score"),
		UserID:    userID,
		SortBy:    sortBy,
		SortOrder: sortOrder,
	}

	analyses, total, err := s.store.ListAnalyses(r.Context(), opts)
	if err != nil {
		s.log.Error("all-analyses: list", "error", err)
		jsonError(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	items := make([]map[string]any, 0, len(analyses))
	for _, a := range analyses {
		items = append(items, map[string]any{
			"id":         a.ID,
			"user_id":    a.UserID,
			"filename":   a.Filename,
			"score":      a.Score,
			"created_at": formatCreatedAt(a.CreatedAt),
		})
	}

	writeJSON(w, http.StatusOK, listResponse(items, total, page, limit, map[string]any{
		"search":     opts.Search,
		"min_score":  opts.MinScore,
		"max_score":  opts.MaxScore,
		"user_id":    userID,
		"sort_by":    opts.SortBy,
		"sort_order": opts.SortOrder,
	}))
}
