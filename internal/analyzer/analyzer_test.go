package analyzer

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

const labReportText = "Лабораторная работа\nЦель работы: изучить...\nЗадание: выполнить...\nХод работы: 1. Подготовка\nВывод: получен результат"

func TestAnalyze_CompleteLabReport(t *testing.T) {
	res := Analyze(labReportText, "lab1.pdf", "")

	if res.DetectedType != LabReport {
		t.Fatalf("detected %s, want %s", res.DetectedType, LabReport)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.Score < 80 {
		t.Errorf("score %d, want >= 80", res.Score)
	}
	if !res.IsValid {
		t.Error("expected a complete lab report to be valid")
	}
	if res.StructureDetails.RequiredSectionsFound != 5 {
		t.Errorf("required found %d, want 5", res.StructureDetails.RequiredSectionsFound)
	}
	if res.StructureDetails.DetectionConfidence != "high" {
		t.Errorf("confidence %q, want high", res.StructureDetails.DetectionConfidence)
	}
}

func TestAnalyze_MissingConclusionScoresBelowThreshold(t *testing.T) {
	// Four of five lab report sections present, terminal section absent.
	text := "Лабораторная работа\nЦель работы: изучить...\nЗадание: выполнить...\nХод работы: шаги"
	res := Analyze(text, "lab1.pdf", "")

	if want := []string{"Вывод"}; !reflect.DeepEqual(res.SectionsMissing, want) {
		t.Fatalf("sectionsMissing = %v, want %v", res.SectionsMissing, want)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", res.Errors)
	}
	// round(4/5*80) - 5 = 59
	if res.Score != 59 {
		t.Errorf("score %d, want 59", res.Score)
	}
	if res.IsValid {
		t.Error("expected result below threshold to be invalid")
	}
}

func TestAnalyze_ShortThesisGetsTwoErrors(t *testing.T) {
	// 10k runes, one chapter marker: insufficient volume + too few chapters.
	text := "Дипломная работа\nГлава 1\n" + strings.Repeat("т", 10000)
	res := Analyze(text, "diploma.pdf", "")

	if res.DetectedType != Thesis {
		t.Fatalf("detected %s, want %s", res.DetectedType, Thesis)
	}
	volumeErr, chapterErr := false, false
	for _, e := range res.Errors {
		if strings.Contains(e, "Объем дипломной работы") {
			volumeErr = true
		}
		if strings.Contains(e, "не менее 2 глав") {
			chapterErr = true
		}
	}
	if !volumeErr || !chapterErr {
		t.Errorf("errors = %v, want both volume and chapter errors", res.Errors)
	}
	if res.IsValid {
		t.Error("thesis with errors must be invalid")
	}
}

func TestAnalyze_EmptyText(t *testing.T) {
	res := Analyze("", "file.pdf", "")

	if res.DetectedType != LabReport {
		t.Errorf("detected %s, want %s via length fallback", res.DetectedType, LabReport)
	}
	if res.StructureDetails.TotalSectionsChecked != 0 || res.StructureDetails.ContentLength != 0 {
		t.Errorf("details = %+v, want zero counts", res.StructureDetails)
	}
	if res.Score != 0 || res.IsValid {
		t.Errorf("score=%d valid=%v, want 0/false", res.Score, res.IsValid)
	}
}

func TestAnalyze_RequiredSectionCounts(t *testing.T) {
	counts := map[WorkType]int{
		LabReport:  5,
		CourseWork: 7,
		Essay:      4,
		Thesis:     7,
	}
	for wt, want := range counts {
		res := Analyze("произвольный текст", "doc.pdf", string(wt))
		if got := res.StructureDetails.TotalRequiredSections; got != want {
			t.Errorf("%s: totalRequiredSections = %d, want %d", wt, got, want)
		}
		if got := len(res.SectionsFound); got != want+len(TemplateFor(wt).Optional) {
			t.Errorf("%s: sectionsFound length = %d, want required+optional = %d",
				wt, got, want+len(TemplateFor(wt).Optional))
		}
	}
}

func TestAnalyze_ScoreAlwaysInRange(t *testing.T) {
	texts := []string{
		"",
		"пустой",
		labReportText,
		strings.Repeat("Глава 1. Глава 2. рис. 1 стр. 5 таблица 1.1 ", 3000),
		strings.Repeat("ничего похожего на разделы ", 2000),
	}
	for _, wt := range []string{"", "lab_report", "course_work", "essay", "thesis", "bogus"} {
		for i, text := range texts {
			res := Analyze(text, "doc.pdf", wt)
			if res.Score < 0 || res.Score > 100 {
				t.Errorf("text %d, type %q: score %d out of range", i, wt, res.Score)
			}
			if res.IsValid != (len(res.Errors) == 0 && res.Score >= 70) {
				t.Errorf("text %d, type %q: isValid inconsistent with errors/score", i, wt)
			}
		}
	}
}

func TestAnalyze_MissingRequiredSectionsMirrorErrors(t *testing.T) {
	res := Analyze("текст без каких-либо разделов", "doc.pdf", "essay")
	missingFindings := 0
	for _, f := range res.SectionsFound {
		if !f.Optional && !f.Found {
			missingFindings++
		}
	}
	if len(res.SectionsMissing) != missingFindings {
		t.Errorf("sectionsMissing %d entries, %d unfound required findings",
			len(res.SectionsMissing), missingFindings)
	}
	if len(res.Errors) < missingFindings {
		t.Errorf("errors %d, want at least one per missing section (%d)",
			len(res.Errors), missingFindings)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	a := Analyze(labReportText, "lab1.pdf", "lab_report")
	b := Analyze(labReportText, "lab1.pdf", "lab_report")
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced different results")
	}
}

func TestAnalyze_ForcedTypeDisagreementLowersConfidence(t *testing.T) {
	// Text detects as lab report; forcing thesis must mark confidence medium
	// while detectedType reports the organic detection.
	res := Analyze(labReportText, "lab1.pdf", "thesis")
	if res.DetectedType != LabReport {
		t.Errorf("detectedType %s, want %s", res.DetectedType, LabReport)
	}
	if res.WorkType != "Дипломная работа" {
		t.Errorf("workType %q, want thesis display name", res.WorkType)
	}
	if res.StructureDetails.DetectionConfidence != "medium" {
		t.Errorf("confidence %q, want medium", res.StructureDetails.DetectionConfidence)
	}
}

func TestAnalyze_UnknownForcedTypeFallsBackToLabReport(t *testing.T) {
	res := Analyze("произвольный текст", "doc.pdf", "dissertation")
	if res.WorkType != "Лабораторная работа" {
		t.Errorf("workType %q, want lab report fallback", res.WorkType)
	}
	if res.StructureDetails.TotalRequiredSections != 5 {
		t.Errorf("totalRequiredSections %d, want 5", res.StructureDetails.TotalRequiredSections)
	}
}

func TestAnalyze_JSONFieldNames(t *testing.T) {
	res := Analyze(labReportText, "lab1.pdf", "")
	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{
		"fileName", "fileType", "workType", "detectedType", "isValid", "score",
		"sectionsFound", "sectionsMissing", "errors", "warnings",
		"recommendations", "structureDetails",
	} {
		if _, ok := m[field]; !ok {
			t.Errorf("missing field %q in serialized result", field)
		}
	}
	if _, ok := m["status"]; ok {
		t.Error("status must be omitted on engine results")
	}
}

func TestAnalyze_OptionalFlagOnlyOnOptionalEntries(t *testing.T) {
	res := Analyze(labReportText, "lab1.pdf", "")
	raw, _ := json.Marshal(res.SectionsFound)
	var entries []map[string]any
	if err := json.Unmarshal(raw, &entries); err != nil {
		t.Fatal(err)
	}
	for i, e := range entries {
		_, hasOptional := e["optional"]
		if i < 5 && hasOptional {
			t.Errorf("entry %d: required section carries optional flag", i)
		}
		if i >= 5 && !hasOptional {
			t.Errorf("entry %d: optional section missing optional flag", i)
		}
	}
}
