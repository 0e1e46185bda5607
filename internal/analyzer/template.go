package analyzer

import "regexp"

// SectionSpec is one structural section of a template. Patterns are
// case-insensitive regular expressions OR-combined during matching.
type SectionSpec struct {
	ID       string
	Name     string
	Patterns []string

	compiled []*regexp.Regexp
}

// Template declares the required and optional sections of one work type.
type Template struct {
	WorkType WorkType
	Name     string
	Required []SectionSpec
	Optional []SectionSpec
}

func section(id, name string, patterns ...string) SectionSpec {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile("(?i)" + p)
	}
	return SectionSpec{ID: id, Name: name, Patterns: patterns, compiled: compiled}
}

// matches reports whether any of the section's patterns occurs in text.
func (s SectionSpec) matches(text string) bool {
	for _, re := range s.compiled {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// templates is the fixed catalog, one entry per work type. Built once at
// process start and never modified; safe for concurrent reads.
var templates = map[WorkType]*Template{
	LabReport: {
		WorkType: LabReport,
		Name:     "Лабораторная работа",
		Required: []SectionSpec{
			section("title", "Титульный лист/Название",
				`лабораторная\s+работа`, `отчет\s+по\s+лабораторной`, `lab\s+report`, `title\s+page`),
			section("purpose", "Цель работы",
				`цель`, `цель\s+работы`, `objective`, `aim`),
			section("task", "Задание",
				`задание`, `задача`, `задачи`, `задания`, `task`, `experiment\s+task`),
			section("procedure", "Ход работы",
				`ход\s+работы`, `ход\s+выполнения`, `методика`, `процедура`, `procedure`, `methods`, `experimental\s+steps`),
			section("conclusion", "Вывод",
				`вывод`, `заключение`, `conclusion`, `results`),
		},
		Optional: []SectionSpec{
			section("theory", "Теоретическая часть",
				`теория`, `теоретическая`, `theory`, `background`),
			section("calculations", "Расчеты",
				`расчет`, `вычислен`, `calculations`, `computations`),
		},
	},

	CourseWork: {
		WorkType: CourseWork,
		Name:     "Курсовая работа",
		Required: []SectionSpec{
			section("title", "Титульный лист",
				`курсовая\s+работа`, `курсовой\s+проект`, `course\s+work`, `title\s+page`),
			section("contents", "Содержание",
				`содержание`, `оглавление`, `table\s+of\s+contents`, `index`),
			section("introduction", "Введение",
				`введение`, `introduction`),
			section("theory", "Теоретическая часть",
				`теоретическая\s+часть`, `глава\s+1`, `theoretical\s+part`, `chapter\s+1`),
			section("practice", "Практическая часть",
				`практическая\s+часть`, `глава\s+2`, `исследование`, `practical\s+part`, `experiment`, `research`),
			section("conclusion", "Заключение",
				`заключение`, `выводы`, `conclusion`, `results`),
			section("bibliography", "Список литературы",
				`список\s+литературы`, `библиография`, `references`, `bibliography`),
		},
		Optional: []SectionSpec{
			section("appendix", "Приложения",
				`приложение`, `appendix`, `annex`),
		},
	},

	Essay: {
		WorkType: Essay,
		Name:     "Реферат/Эссе",
		Required: []SectionSpec{
			section("title", "Титульный лист",
				`реферат`, `эссе`, `essay`, `title\s+page`),
			section("introduction", "Введение",
				`введение`, `introduction`),
			section("main_part", "Основная часть",
				`основная\s+часть`, `main\s+part`, `body`),
			section("conclusion", "Заключение",
				`заключение`, `conclusion`, `results`),
		},
		Optional: []SectionSpec{
			section("bibliography", "Список литературы",
				`список\s+литературы`, `bibliography`, `references`),
		},
	},

	Thesis: {
		WorkType: Thesis,
		Name:     "Дипломная работа",
		Required: []SectionSpec{
			section("title", "Титульный лист",
				`дипломная\s+работа`, `выпускная\s+квалификационная`, `thesis`, `title\s+page`),
			section("abstract", "Аннотация",
				`аннотация`, `реферат`, `abstract`, `summary`),
			section("contents", "Содержание",
				`содержание`, `table\s+of\s+contents`, `оглавление`),
			section("introduction", "Введение",
				`введение`, `introduction`),
			section("chapters", "Главы (3-4)",
				`глава\s+[1-4]`, `chapter\s+[1-4]`),
			section("conclusion", "Заключение",
				`заключение`, `выводы`, `conclusion`),
			section("bibliography", "Список литературы",
				`список\s+литературы`, `библиография`, `references`, `bibliography`),
		},
		Optional: []SectionSpec{
			section("appendix", "Приложения",
				`приложение`, `appendix`, `annex`),
		},
	},
}

// TemplateFor returns the template for a work type, defaulting to the
// lab report template for anything outside the catalog.
func TemplateFor(wt WorkType) *Template {
	if t, ok := templates[wt]; ok {
		return t
	}
	return templates[LabReport]
}
