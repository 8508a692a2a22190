// Package extractor turns source documents into per-page plain text. It sits
// in front of the chunker: pages with no printable text are dropped here and
// never reach the rest of the pipeline.
package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"

	"docqa/internal/models"
)

// ExtractPages reads the file and returns one Page per extractable unit:
// PDF pages, spreadsheet sheets, or the whole file for flat formats.
// Whitespace-only pages are filtered out.
func ExtractPages(filePath string) ([]models.Page, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return extractPDF(filePath)
	case ".docx":
		return extractDOCX(filePath)
	case ".xlsx":
		return extractXLSX(filePath)
	case ".md":
		return extractMarkdown(filePath)
	case ".txt":
		return extractText(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func extractPDF(filePath string) ([]models.Page, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var pages []models.Page
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		pages = appendPage(pages, i, text)
	}
	return pages, nil
}

func extractDOCX(filePath string) ([]models.Page, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	// DOCX carries no page boundaries; the document becomes one page.
	content := r.Editable().GetContent()
	var text strings.Builder
	for _, p := range strings.Split(content, "\n") {
		if strings.TrimSpace(p) == "" {
			continue
		}
		text.WriteString(p)
		text.WriteString("\n")
	}
	return appendPage(nil, 1, text.String()), nil
}

func extractXLSX(filePath string) ([]models.Page, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// One page per sheet, sheet order preserved.
	var pages []models.Page
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
		pages = appendPage(pages, sheetNum+1, text.String())
	}
	return pages, nil
}

func extractMarkdown(filePath string) ([]models.Page, error) {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	doc := goldmark.New().Parser().Parse(gtext.NewReader(source))

	var text strings.Builder
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch n.(type) {
			case *ast.Paragraph, *ast.Heading, *ast.ListItem:
				text.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			text.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				text.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return appendPage(nil, 1, text.String()), nil
}

func extractText(filePath string) ([]models.Page, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return appendPage(nil, 1, string(data)), nil
}

// appendPage adds a page unless its text is whitespace-only.
func appendPage(pages []models.Page, number int, text string) []models.Page {
	if strings.TrimSpace(text) == "" {
		return pages
	}
	return append(pages, models.Page{PageNumber: number, Text: text})
}
