package extract

import (
	"strings"
	"testing"
)

func TestForFile_KnownExtensions(t *testing.T) {
	for _, filename := range []string{
		"report.txt", "report.md", "report.html", "report.pdf",
		"report.docx", "REPORT.DOCX",
	} {
		if _, err := ForFile(filename); err != nil {
			t.Errorf("ForFile(%q): unexpected error %v", filename, err)
		}
	}
	if _, err := ForFile("archive.zip"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestIsSupportedExtension(t *testing.T) {
	if !IsSupportedExtension("отчет.PDF") {
		t.Error("expected .PDF to be supported case-insensitively")
	}
	if IsSupportedExtension("photo.png") {
		t.Error("images are not directly extractable")
	}
}

func TestIsImage(t *testing.T) {
	for _, name := range []string{"scan.jpg", "scan.JPEG", "page.png", "page.tiff"} {
		if !IsImage(name) {
			t.Errorf("expected %q to be detected as image", name)
		}
	}
	if IsImage("report.pdf") {
		t.Error("pdf must not be routed to OCR")
	}
}

func TestTextExtractor_UTF8(t *testing.T) {
	var p TextExtractor
	got, err := p.Extract(strings.NewReader("Цель работы: проверка"), "a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Цель работы: проверка" {
		t.Errorf("got %q", got)
	}
}

func TestTextExtractor_Windows1251Fallback(t *testing.T) {
	// "Цель" encoded as windows-1251.
	raw := []byte{0xD6, 0xE5, 0xEB, 0xFC}
	var p TextExtractor
	got, err := p.Extract(strings.NewReader(string(raw)), "a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Цель" {
		t.Errorf("got %q, want %q", got, "Цель")
	}
}

func TestMarkdownExtractor_FlattensHeadingsAndText(t *testing.T) {
	src := "# Введение\n\nТекст введения.\n\n## Выводы\n\nИтог."
	var p MarkdownExtractor
	got, err := p.Extract(strings.NewReader(src), "a.md")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Введение", "Текст введения.", "Выводы", "Итог."} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %q", want, got)
		}
	}
}

func TestHTMLExtractor_SkipsScriptsAndChrome(t *testing.T) {
	src := `<html><head><title>t</title><style>p{}</style></head>
<body><nav>меню</nav><h1>Введение</h1><p>Основная часть.</p>
<script>var x;</script></body></html>`
	var p HTMLExtractor
	got, err := p.Extract(strings.NewReader(src), "a.html")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "Введение") || !strings.Contains(got, "Основная часть.") {
		t.Errorf("output missing content: %q", got)
	}
	if strings.Contains(got, "меню") || strings.Contains(got, "var x") {
		t.Errorf("output contains skipped elements: %q", got)
	}
}
