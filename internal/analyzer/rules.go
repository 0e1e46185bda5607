package analyzer

import (
	"regexp"
	"strings"
)

var (
	numberedStepsRe = regexp.MustCompile(`\d+\.\s+|\n\s*\d+\)`)
	bracketCiteRe   = regexp.MustCompile(`\[\d+\]`)
	authorYearRe    = regexp.MustCompile(`\([А-Яа-я]+\s*,\s*\d{4}\)`)
	chapterRe       = regexp.MustCompile(`глава\s+[1-4]`)

	// Word-boundary assertions are ASCII-only in Go regexp, so the Cyrillic
	// page markers are anchored on a preceding non-letter instead.
	pageRefRe    = regexp.MustCompile(`(?:^|[^\p{L}])(?:стр|с)\.\s*\d+|\bpage\s*\d+`)
	figureRefRe  = regexp.MustCompile(`рис\.|рисунок|таблица|table|figure`)
	subsectionRe = regexp.MustCompile(`\d+\.\d+|[a-zA-Z]\.\d+`)
)

var experimentKeywords = []string{"эксперимент", "опыт", "исследование", "результат"}

// diagnostics accumulates the per-analysis message lists before the final
// result is assembled.
type diagnostics struct {
	errors          []string
	warnings        []string
	recommendations []string
}

// applyRules appends the supplementary per-work-type heuristics. contentLen
// is the rune length of text, shared with the scorer.
func applyRules(text string, contentLen int, wt WorkType, d *diagnostics) {
	textLower := strings.ToLower(text)

	switch wt {
	case LabReport:
		if !numberedStepsRe.MatchString(text) {
			d.warnings = append(d.warnings, "Рекомендуется оформить ход работы в виде нумерованных шагов")
		}
		hasExperiment := false
		for _, kw := range experimentKeywords {
			if strings.Contains(textLower, kw) {
				hasExperiment = true
				break
			}
		}
		if !hasExperiment {
			d.warnings = append(d.warnings, "Рекомендуется добавить описание эксперимента или исследований")
		}

	case CourseWork:
		if contentLen < 8000 {
			d.warnings = append(d.warnings, "Объем курсовой работы может быть недостаточным (рекомендуется 10-30 страниц)")
		}
		if !bracketCiteRe.MatchString(text) && !authorYearRe.MatchString(text) {
			d.recommendations = append(d.recommendations, "Рекомендуется добавить ссылки на литературу в тексте")
		}

	case Thesis:
		if contentLen < 20000 {
			d.errors = append(d.errors, "Объем дипломной работы недостаточен (рекомендуется 40-80 страниц)")
		}
		if len(chapterRe.FindAllString(textLower, -1)) < 2 {
			d.errors = append(d.errors, "Дипломная работа должна содержать не менее 2 глав")
		}
	}
	// Essay has no extra rules beyond section matching.
}

// computeBonus awards additive points for formatting and citation signals.
// Each check is independent; the theoretical maximum is 25.
func computeBonus(text string, contentLen int, wt WorkType) int {
	bonus := 0
	textLower := strings.ToLower(text)

	if pageRefRe.MatchString(textLower) {
		bonus += 5
	}
	if figureRefRe.MatchString(textLower) {
		bonus += 5
	}
	if subsectionRe.MatchString(text) {
		bonus += 10
	}
	if wt == Thesis && contentLen > 40000 {
		bonus += 5
	} else if wt == CourseWork && contentLen > 15000 {
		bonus += 5
	}
	return bonus
}
