package analyzer

import (
	"strings"
	"unicode/utf8"
)

// WorkType is the category of academic document being checked.
type WorkType string

const (
	LabReport  WorkType = "lab_report"
	CourseWork WorkType = "course_work"
	Essay      WorkType = "essay"
	Thesis     WorkType = "thesis"
)

// ParseWorkType maps a caller-supplied selector string to a WorkType.
func ParseWorkType(s string) (WorkType, bool) {
	switch WorkType(strings.ToLower(strings.TrimSpace(s))) {
	case LabReport:
		return LabReport, true
	case CourseWork:
		return CourseWork, true
	case Essay:
		return Essay, true
	case Thesis:
		return Thesis, true
	}
	return "", false
}

// detectOrder fixes the priority of keyword detection. Keyword sets overlap
// (a filename may mention both a course work and a lab report), so the order
// must not change: course_work wins over lab_report.
var detectOrder = []WorkType{CourseWork, LabReport, Essay, Thesis}

var detectKeywords = map[WorkType][]string{
	CourseWork: {"курсовая", "coursework", "course_work"},
	LabReport:  {"лабораторная", "lab", "отчет", "laboratory"},
	Essay:      {"реферат", "эссе", "essay"},
	Thesis:     {"диплом", "thesis", "вкр", "дипломная"},
}

// Detect infers the work type from the filename and document text.
// It never fails: if no keyword matches, a length heuristic decides.
func Detect(filename, text string) WorkType {
	filenameLower := strings.ToLower(filename)
	textLower := strings.ToLower(text)

	for _, wt := range detectOrder {
		for _, kw := range detectKeywords[wt] {
			if strings.Contains(filenameLower, kw) || strings.Contains(textLower, kw) {
				return wt
			}
		}
	}

	switch length := utf8.RuneCountInString(text); {
	case length > 30000:
		return Thesis
	case length > 15000:
		return CourseWork
	case length > 5000:
		return Essay
	default:
		return LabReport
	}
}
