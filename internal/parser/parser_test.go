package parser

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"research-assistant/internal/models"
)

func buildPPTX(t *testing.T, slides map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range slides {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractPages_Text(t *testing.T) {
	pages, err := ExtractPages("notes.TXT", []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, []models.Page{{Content: "hello world", PageNumber: 1}}, pages)

	pages, err = ExtractPages("blank.txt", []byte("  \n "))
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestExtractPages_Unsupported(t *testing.T) {
	_, err := ExtractPages("image.png", []byte{0x89})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ExtractPages("noext", nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractPages_InvalidPDF(t *testing.T) {
	_, err := ExtractPages("broken.pdf", []byte("not a pdf"))
	assert.Error(t, err)
}

func TestExtractPages_PDFPageOrder(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "two_pages.pdf"))
	require.NoError(t, err)

	pages, err := ExtractPages("report.PDF", data)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].PageNumber)
	assert.Contains(t, pages[0].Content, "First page says hello")
	assert.Equal(t, 2, pages[1].PageNumber)
	assert.Contains(t, pages[1].Content, "Second page says goodbye")

	assert.Equal(t, "First page says hello\n\nSecond page says goodbye", JoinPages(pages))
}

func TestExtractPages_DOCX(t *testing.T) {
	data := buildPPTX(t, map[string]string{
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			`<w:p><w:r><w:t>KNN is a lazy learner.</w:t></w:r></w:p>` +
			`<w:p><w:r><w:t>It stores </w:t></w:r><w:r><w:t>every sample.</w:t></w:r></w:p>` +
			`</w:body></w:document>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	})

	pages, err := ExtractPages("notes.docx", data)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].PageNumber)
	assert.Equal(t, "KNN is a lazy learner.\nIt stores every sample.", pages[0].Content)
}

func TestExtractPages_XLSX(t *testing.T) {
	f := xlsx.NewFile()
	for _, name := range []string{"Metrics", "Notes"} {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		row := sheet.AddRow()
		row.AddCell().SetString(name + "-a1")
		row.AddCell().SetString(name + "-b1")
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	pages, err := ExtractPages("book.xlsx", buf.Bytes())
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].PageNumber)
	assert.Contains(t, pages[0].Content, "## Sheet: Metrics\n")
	assert.Contains(t, pages[0].Content, "Metrics-a1\tMetrics-b1")
	assert.Equal(t, 2, pages[1].PageNumber)
	assert.Contains(t, pages[1].Content, "## Sheet: Notes\n")
	assert.Contains(t, pages[1].Content, "Notes-a1\tNotes-b1")
}

func TestExtractPages_PPTXSlideOrder(t *testing.T) {
	data := buildPPTX(t, map[string]string{
		"ppt/slides/slide10.xml":           `<p:sld><a:t>Ten</a:t></p:sld>`,
		"ppt/slides/slide2.xml":            `<p:sld><a:t>Two</a:t><a:t>again</a:t></p:sld>`,
		"ppt/slides/_rels/slide2.xml.rels": `<Relationships/>`,
		"ppt/slides/slide3.xml":            `<p:sld></p:sld>`,
	})

	pages, err := ExtractPages("deck.pptx", data)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, models.Page{Content: "Two again", PageNumber: 2}, pages[0])
	assert.Equal(t, models.Page{Content: "Ten", PageNumber: 10}, pages[1])
}

func TestExtractPages_XLSM(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "name"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "score"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "go"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 10))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	pages, err := ExtractPages("book.xlsm", buf.Bytes())
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].PageNumber)
	assert.Contains(t, pages[0].Content, "## Sheet: Sheet1")
	assert.Contains(t, pages[0].Content, "name\tscore")
	assert.Contains(t, pages[0].Content, "go\t10")
}

func TestJoinPages(t *testing.T) {
	got := JoinPages([]models.Page{
		{Content: " first ", PageNumber: 1},
		{Content: "   ", PageNumber: 2},
		{Content: "third", PageNumber: 3},
	})
	assert.Equal(t, "first\n\nthird", got)
	assert.Empty(t, JoinPages(nil))
}

func TestStripXMLTags(t *testing.T) {
	got := stripXMLTags(`<w:body><w:p><w:r><w:t>Hello</w:t></w:r></w:p><w:p><w:t>World</w:t></w:p></w:body>`)
	assert.Equal(t, "Hello\nWorld", got)
}
