package parser

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"research-assistant/internal/models"
)

// ErrUnsupportedFormat is returned for file extensions with no extractor
var ErrUnsupportedFormat = errors.New("unsupported file format")

const defaultPageNumber = 1

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// ExtractPages pulls the text out of an uploaded document, one Page per PDF
// page, slide or sheet, in document order. The format is picked from the
// file extension.
func ExtractPages(filename string, data []byte) ([]models.Page, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	log.Debug().Str("file", filename).Int("bytes", len(data)).Msg("Extracting document text")

	switch ext {
	case ".pdf":
		return parsePDF(data)
	case ".docx":
		return parseDOCX(data)
	case ".pptx":
		return parsePPTX(data)
	case ".xlsx":
		return parseXLSX(data)
	case ".xlsm":
		return parseXLSM(data)
	case ".txt", ".md":
		return parseText(data), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// JoinPages concatenates page text in page order
func JoinPages(pages []models.Page) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if s := strings.TrimSpace(p.Content); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func parsePDF(data []byte) ([]models.Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}

	var pages []models.Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("reading pdf page %d: %w", i, err)
		}
		pages = append(pages, models.Page{Content: pageText, PageNumber: i})
	}
	return pages, nil
}

func parseDOCX(data []byte) ([]models.Page, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading docx: %w", err)
	}
	defer r.Close()

	content := stripXMLTags(r.Editable().GetContent())
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	// DOCX has no page numbers
	return []models.Page{{Content: content, PageNumber: defaultPageNumber}}, nil
}

func parsePPTX(data []byte) ([]models.Page, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading pptx: %w", err)
	}

	var pages []models.Page
	for _, file := range zr.File {
		m := slideNameRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slideText := extractTextFromXML(string(raw))
		if strings.TrimSpace(slideText) == "" {
			continue
		}
		slideNum, _ := strconv.Atoi(m[1])
		pages = append(pages, models.Page{Content: slideText, PageNumber: slideNum})
	}
	// zip order is not slide order
	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })
	return pages, nil
}

func parseXLSX(data []byte) ([]models.Page, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("reading xlsx: %w", err)
	}

	var pages []models.Page
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		pages = append(pages, models.Page{Content: text.String(), PageNumber: sheetNum + 1})
	}
	return pages, nil
}

func parseXLSM(data []byte) ([]models.Page, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading workbook: %w", err)
	}
	defer f.Close()

	var pages []models.Page
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheetName))
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
		pages = append(pages, models.Page{Content: text.String(), PageNumber: sheetNum + 1})
	}
	return pages, nil
}

func parseText(data []byte) []models.Page {
	if strings.TrimSpace(string(data)) == "" {
		return nil
	}
	return []models.Page{{Content: string(data), PageNumber: defaultPageNumber}}
}

func extractTextFromXML(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		endIdx := strings.Index(part, "</a:t>")
		if endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return strings.TrimSpace(text.String())
}

var xmlTagRe = regexp.MustCompile(`<[^>]+>`)

// stripXMLTags turns raw document.xml into plain text, one paragraph per line
func stripXMLTags(s string) string {
	s = strings.ReplaceAll(s, "</w:p>", "\n")
	s = xmlTagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
