package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/avelichko/studycheck/internal/analyzer"
)

func analyze(t *testing.T, s *Server, token string, files []uploadFile, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := multipartRequest(t, "/api/analyze", token, "file", files, fields)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func TestAnalyze_RequiresAuth(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	req := multipartRequest(t, "/api/analyze", "", "file", []uploadFile{{"a.txt", []byte("x")}}, nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAnalyze_TextDocument(t *testing.T) {
	objects := newFakeObjects()
	s, _ := newTestServer(t, objects, nil)
	user := registerUser(t, s, "a@example.com")

	w := analyze(t, s, user.AccessToken, []uploadFile{{"lab1.txt", []byte(labReportText)}}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var res analyzer.AnalysisResult
	decodeBody(t, w, &res)
	if res.FileName != "lab1.txt" {
		t.Errorf("fileName = %q", res.FileName)
	}
	if res.DetectedType != analyzer.LabReport {
		t.Errorf("detectedType = %q, want lab_report", res.DetectedType)
	}
	if res.Score <= 0 {
		t.Errorf("score = %d, want > 0", res.Score)
	}
	if res.Status != "" {
		t.Errorf("status = %q, want empty on a real analysis", res.Status)
	}

	// A PDF report must have been rendered and uploaded.
	if len(objects.uploads) != 1 {
		t.Fatalf("len(uploads) = %d, want 1", len(objects.uploads))
	}
	for key := range objects.uploads {
		if !strings.HasPrefix(key, "reports/") || !strings.HasSuffix(key, ".pdf") {
			t.Errorf("unexpected object key %q", key)
		}
	}
}

func TestAnalyze_ForcedWorkType(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	user := registerUser(t, s, "forced@example.com")

	w := analyze(t, s, user.AccessToken, []uploadFile{{"lab1.txt", []byte(labReportText)}}, map[string]string{
		"work_type": "thesis",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res analyzer.AnalysisResult
	decodeBody(t, w, &res)
	if res.WorkType != "Дипломная работа" {
		t.Errorf("workType = %q, want Дипломная работа", res.WorkType)
	}
	if res.StructureDetails.DetectionConfidence != "medium" {
		t.Errorf("detectionConfidence = %q, want medium", res.StructureDetails.DetectionConfidence)
	}
}

func TestAnalyze_UnsupportedFormat(t *testing.T) {
	s, store := newTestServer(t, nil, nil)
	user := registerUser(t, s, "zip@example.com")

	w := analyze(t, s, user.AccessToken, []uploadFile{{"archive.zip", []byte("PK")}}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res analyzer.AnalysisResult
	decodeBody(t, w, &res)
	if res.Status != statusUnsupportedFormat {
		t.Errorf("status = %q, want %q", res.Status, statusUnsupportedFormat)
	}
	if res.Score != 0 || res.IsValid {
		t.Errorf("placeholder must be invalid with zero score: %+v", res)
	}

	// Placeholder results are persisted too.
	_, total, err := store.ListAnalyses(t.Context(), listOptsFor(user.User.ID))
	if err != nil {
		t.Fatalf("list analyses: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestAnalyze_EmptyFile(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	user := registerUser(t, s, "empty@example.com")

	w := analyze(t, s, user.AccessToken, []uploadFile{{"blank.txt", []byte("   \n  ")}}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res analyzer.AnalysisResult
	decodeBody(t, w, &res)
	if res.Status != statusEmptyFile {
		t.Errorf("status = %q, want %q", res.Status, statusEmptyFile)
	}
	if res.FileType != "empty" {
		t.Errorf("fileType = %q, want empty", res.FileType)
	}
}

func TestAnalyze_ImageWithoutText(t *testing.T) {
	s, _ := newTestServer(t, nil, &fakeOCR{text: ""})
	user := registerUser(t, s, "img@example.com")

	w := analyze(t, s, user.AccessToken, []uploadFile{{"scan.png", []byte("fake-image")}}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res analyzer.AnalysisResult
	decodeBody(t, w, &res)
	if res.Status != statusNoTextInImage {
		t.Errorf("status = %q, want %q", res.Status, statusNoTextInImage)
	}
	if len(res.Warnings) != 3 {
		t.Errorf("len(warnings) = %d, want 3", len(res.Warnings))
	}
}

func TestAnalyze_ImageWithoutOCR(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	user := registerUser(t, s, "noocr@example.com")

	w := analyze(t, s, user.AccessToken, []uploadFile{{"scan.png", []byte("fake-image")}}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res analyzer.AnalysisResult
	decodeBody(t, w, &res)
	if res.Status != statusNoTextInImage {
		t.Errorf("status = %q, want %q", res.Status, statusNoTextInImage)
	}
	if res.FileType != "image" {
		t.Errorf("fileType = %q, want %q", res.FileType, "image")
	}
}

func TestAnalyze_ImageOCRFailure(t *testing.T) {
	s, _ := newTestServer(t, nil, &fakeOCR{err: errors.New("ocr unavailable")})
	user := registerUser(t, s, "ocrdown@example.com")

	w := analyze(t, s, user.AccessToken, []uploadFile{{"scan.png", []byte("fake-image")}}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res analyzer.AnalysisResult
	decodeBody(t, w, &res)
	if res.Status != statusNoTextInImage {
		t.Errorf("status = %q, want %q", res.Status, statusNoTextInImage)
	}
	if res.FileType != "image" {
		t.Errorf("fileType = %q, want %q", res.FileType, "image")
	}
}

func TestAnalyze_ImageWithText(t *testing.T) {
	s, _ := newTestServer(t, nil, &fakeOCR{text: labReportText})
	user := registerUser(t, s, "ocr@example.com")

	w := analyze(t, s, user.AccessToken, []uploadFile{{"photo.jpg", []byte("fake-image")}}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res analyzer.AnalysisResult
	decodeBody(t, w, &res)
	if res.Status != "" {
		t.Errorf("status = %q, want a full analysis", res.Status)
	}
	if res.Score <= 0 {
		t.Errorf("score = %d, want > 0", res.Score)
	}
}

func TestAnalyzeMultiple(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	user := registerUser(t, s, "multi@example.com")

	files := []uploadFile{
		{"lab1.txt", []byte(labReportText)},
		{"broken.xyz", []byte("???")},
		{"blank.txt", []byte("")},
	}
	req := multipartRequest(t, "/api/analyze-multiple", user.AccessToken, "files", files, nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		TotalFiles     int                       `json:"totalFiles"`
		ProcessedFiles int                       `json:"processedFiles"`
		Results        []analyzer.AnalysisResult `json:"results"`
	}
	decodeBody(t, w, &resp)
	if resp.TotalFiles != 3 {
		t.Errorf("totalFiles = %d, want 3", resp.TotalFiles)
	}
	// The unknown extension is skipped entirely, the empty file yields a
	// placeholder result.
	if resp.ProcessedFiles != 2 {
		t.Errorf("processedFiles = %d, want 2", resp.ProcessedFiles)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(resp.Results))
	}
	if resp.Results[0].FileName != "lab1.txt" || resp.Results[0].Score <= 0 {
		t.Errorf("first result unexpected: %+v", resp.Results[0])
	}
	if resp.Results[1].Status != statusEmptyFile {
		t.Errorf("second result status = %q, want %q", resp.Results[1].Status, statusEmptyFile)
	}
}

func TestAnalyzeMultiple_NoFiles(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	user := registerUser(t, s, "none@example.com")

	req := multipartRequest(t, "/api/analyze-multiple", user.AccessToken, "files", nil, map[string]string{"work_type": "essay"})
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAnalyzeScreenshots(t *testing.T) {
	ocrClient := &fakeOCR{byContent: map[string]string{
		"img-1": "Лабораторная работа. Цель работы: проверка.",
		"img-2": "Задание и ход работы. Вывод: готово.",
		"img-3": "",
	}}
	s, _ := newTestServer(t, nil, ocrClient)
	user := registerUser(t, s, "shots@example.com")

	files := []uploadFile{
		{"shot1.png", []byte("img-1")},
		{"shot2.png", []byte("img-2")},
		{"shot3.png", []byte("img-3")},
		{"notes.txt", []byte("not an image")},
	}
	req := multipartRequest(t, "/api/analyze-screenshots", user.AccessToken, "files", files, nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var res analyzer.AnalysisResult
	decodeBody(t, w, &res)
	if res.FileDetails == nil {
		t.Fatal("fileDetails missing")
	}
	if res.FileDetails.TotalScreenshots != 4 {
		t.Errorf("totalScreenshots = %d, want 4", res.FileDetails.TotalScreenshots)
	}
	if res.FileDetails.ValidScreenshots != 2 {
		t.Errorf("validScreenshots = %d, want 2", res.FileDetails.ValidScreenshots)
	}
	if res.FileDetails.InvalidScreenshots != 2 {
		t.Errorf("invalidScreenshots = %d, want 2", res.FileDetails.InvalidScreenshots)
	}
	if res.FileName != "shot1.png" {
		t.Errorf("fileName = %q, want first valid screenshot", res.FileName)
	}
}

func TestAnalyzeScreenshots_AllUnreadable(t *testing.T) {
	s, _ := newTestServer(t, nil, &fakeOCR{text: ""})
	user := registerUser(t, s, "blurry@example.com")

	files := []uploadFile{{"shot.png", []byte("img")}}
	req := multipartRequest(t, "/api/analyze-screenshots", user.AccessToken, "files", files, nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
