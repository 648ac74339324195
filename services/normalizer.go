package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"salary-trends/models"
	"salary-trends/utils"
)

// currencyReplacer drops the dollar sign and thousands separators.
var currencyReplacer = strings.NewReplacer("$", "", ",", "")

// Normalizer turns a selected salary table into SalaryRecords.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize cleans every salary-like column of table and tags each row with
// team and year. It returns exactly one record per table row. Cells that do
// not parse as numbers become nil salaries; a column where no cell parses is
// logged as unparseable but still produces records.
func (n *Normalizer) Normalize(table *models.RawTable, team string, year int) []*models.SalaryRecord {
	salaryCols := table.SalaryColumns()
	parsed := make(map[string]int, len(salaryCols))

	records := make([]*models.SalaryRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		values := make(map[string]string, len(table.Columns))
		for _, col := range table.Columns {
			values[col] = row[col]
		}

		salaries := make(map[string]*float64, len(salaryCols))
		for _, col := range salaryCols {
			if v, ok := ParseSalary(row[col]); ok {
				salaries[col] = &v
				parsed[col]++
			} else {
				salaries[col] = nil
			}
		}

		records = append(records, &models.SalaryRecord{
			Team:     team,
			Year:     year,
			Columns:  append([]string(nil), table.Columns...),
			Values:   values,
			Salaries: salaries,
		})
	}

	if len(table.Rows) > 0 {
		for _, col := range salaryCols {
			if parsed[col] > 0 {
				continue
			}
			err := models.NewPipelineError(models.StageNormalize, models.KindUnparseableColumn,
				fmt.Sprintf("no parseable value in column %q (%d rows)", col, len(table.Rows)), nil)
			n.logger.Failure("salary column unparseable", err, "team", team, "year", year)
		}
	}

	n.logger.Debug("normalized table",
		"team", team, "year", year,
		"rows", len(records), "salary_columns", salaryCols)
	return records
}

// ParseSalary converts a currency cell such as "$1,234,567" to a number.
// It reports false for anything that is not a finite number.
func ParseSalary(raw string) (float64, bool) {
	s := strings.TrimSpace(currencyReplacer.Replace(raw))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
