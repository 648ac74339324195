// Package htmltable turns HTML <table> elements into RawTables and picks the
// one holding salary data.
package htmltable

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"salary-trends/models"
)

// Policy picks one table out of the tables of a document, in document order.
type Policy func(tables []*models.RawTable) (*models.RawTable, bool)

// FirstSalaryTable returns the first table whose header names a salary
// column. Later tables are never inspected, even if they match too.
func FirstSalaryTable(tables []*models.RawTable) (*models.RawTable, bool) {
	for _, t := range tables {
		if len(t.SalaryColumns()) > 0 {
			return t, true
		}
	}
	return nil, false
}

// Extractor parses payroll pages and selects the salary table.
type Extractor struct {
	policy Policy
}

// NewExtractor creates an Extractor using the FirstSalaryTable policy.
func NewExtractor() *Extractor {
	return &Extractor{policy: FirstSalaryTable}
}

// NewExtractorWithPolicy creates an Extractor with a custom selection policy.
func NewExtractorWithPolicy(p Policy) *Extractor {
	return &Extractor{policy: p}
}

// Extract parses html and returns the selected salary table.
func (e *Extractor) Extract(html string) (*models.RawTable, error) {
	tables, err := Parse(html)
	if err != nil {
		return nil, err
	}

	t, ok := e.policy(tables)
	if !ok {
		headers := make([]string, 0, len(tables))
		for _, t := range tables {
			headers = append(headers, "["+strings.Join(t.Columns, ", ")+"]")
		}
		return nil, models.NewPipelineError(models.StageExtract, models.KindNoSalaryTable,
			fmt.Sprintf("%d tables, none with a salary column: %s", len(tables), strings.Join(headers, " ")), nil)
	}
	return t, nil
}

// Parse returns every table in the document that has a header or at least
// one data row. Rows in <tfoot> are totals, not players, and are skipped.
func Parse(html string) ([]*models.RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, models.NewPipelineError(models.StageExtract, models.KindNoTables, "parse html", err)
	}

	var tables []*models.RawTable
	doc.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		if t := parseTable(tbl); t != nil {
			tables = append(tables, t)
		}
	})

	if len(tables) == 0 {
		return nil, models.NewPipelineError(models.StageExtract, models.KindNoTables,
			"document contains no readable tables", nil)
	}
	return tables, nil
}

func parseTable(tbl *goquery.Selection) *models.RawTable {
	// Only rows owned by this table; nested tables are parsed on their own.
	rows := tbl.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(tbl) && !tr.Parent().Is("tfoot")
	})

	var header []string
	var body [][]string

	headRows := rows.FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Parent().Is("thead")
	})
	if headRows.Length() > 0 {
		header = rowCells(headRows.Last())
	}

	rows.Each(func(i int, tr *goquery.Selection) {
		if tr.Parent().Is("thead") {
			return
		}
		if header == nil && i == 0 && tr.Children().Not("th").Length() == 0 && tr.Children().Length() > 0 {
			header = rowCells(tr)
			return
		}
		if cells := rowCells(tr); len(cells) > 0 {
			body = append(body, cells)
		}
	})

	if len(header) == 0 && len(body) == 0 {
		return nil
	}

	width := len(header)
	for _, r := range body {
		if len(r) > width {
			width = len(r)
		}
	}

	columns := columnNames(header, width)
	t := &models.RawTable{Columns: columns, Rows: make([]map[string]string, 0, len(body))}
	for _, r := range body {
		row := make(map[string]string, width)
		for i, col := range columns {
			if i < len(r) {
				row[col] = r[i]
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// maxColspan is the largest colspan browsers honour; larger values are clamped.
const maxColspan = 1000

// rowCells returns the text of each th/td in tr, repeating cells that span
// several columns.
func rowCells(tr *goquery.Selection) []string {
	var cells []string
	tr.Children().Filter("th, td").Each(func(_ int, c *goquery.Selection) {
		text := normaliseText(c.Text())
		span := 1
		if v, ok := c.Attr("colspan"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 1 {
				span = min(n, maxColspan)
			}
		}
		for i := 0; i < span; i++ {
			cells = append(cells, text)
		}
	})
	return cells
}

// columnNames pads header to width, names blank headers "Unnamed: i" and
// suffixes duplicates with the first free ".1", ".2", ...
func columnNames(header []string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = header[i]
		}
		if name == "" {
			if len(header) == 0 {
				name = strconv.Itoa(i)
			} else {
				name = fmt.Sprintf("Unnamed: %d", i)
			}
		}
		if n, dup := seen[name]; dup {
			base := name
			for {
				n++
				name = fmt.Sprintf("%s.%d", base, n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[name] = 0
		names[i] = name
	}
	return names
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
