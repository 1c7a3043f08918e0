// Package batch validates an uploaded tabular file before anything else
// happens: no campaign row, no network call until the file is known good.
package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/asah-capstone-a25/leadscore-backend/internal/apperrors"
	"github.com/asah-capstone-a25/leadscore-backend/internal/model"
)

// RequiredColumns is the fixed header set of the bank marketing batch
// format. Matching is exact and order-independent.
var RequiredColumns = []string{
	"age", "job", "marital", "education", "default",
	"balance", "housing", "loan", "contact", "day",
	"month", "campaign", "pdays", "previous", "poutcome",
}

var acceptedContentTypes = map[string]bool{
	"text/csv": true,
	// Some browsers tag .csv uploads with the legacy Excel type.
	"application/vnd.ms-excel": true,
}

// columnByField maps LeadInput struct fields back to CSV column names
// for error messages.
var columnByField = map[string]string{
	"Age": "age", "Job": "job", "Marital": "marital", "Education": "education",
	"CreditDefault": "default", "Balance": "balance", "Housing": "housing",
	"Loan": "loan", "Contact": "contact", "Day": "day", "Month": "month",
	"CampaignContacts": "campaign", "PDays": "pdays", "Previous": "previous",
	"POutcome": "poutcome",
}

// Table is the validated, strongly-typed batch. Rows keep source-file
// order; row N of the file is Rows[N-1] (header excluded).
type Table struct {
	SourceFile string
	Rows       []model.LeadInput
}

type Validator struct {
	MaxFileBytes int64
	MaxRows      int
	validate     *validator.Validate
}

func NewValidator(maxFileBytes int64, maxRows int) *Validator {
	return &Validator{
		MaxFileBytes: maxFileBytes,
		MaxRows:      maxRows,
		validate:     validator.New(),
	}
}

// Validate checks the upload structurally and semantically and parses it
// into typed rows. Any defect fails the whole file with a ValidationError.
// No network or persistence side effects.
func (v *Validator) Validate(r io.Reader, filename, contentType string, size int64) (*Table, error) {
	if mt := mediaType(contentType); !acceptedContentTypes[mt] {
		return nil, apperrors.NewFileValidationError(
			fmt.Sprintf("unsupported content type %q, expected text/csv", contentType))
	}
	if size > v.MaxFileBytes {
		return nil, apperrors.NewFileValidationError(
			fmt.Sprintf("file size %d bytes exceeds the %d byte limit", size, v.MaxFileBytes))
	}

	reader := csv.NewReader(io.LimitReader(r, v.MaxFileBytes+1))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.NewFileValidationError("file is empty")
	}
	if err != nil {
		return nil, apperrors.NewFileValidationError(fmt.Sprintf("cannot parse CSV header: %v", err))
	}

	colIndex, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	table := &Table{SourceFile: filename}
	rowNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			return nil, apperrors.NewRowValidationError(rowNum, "", fmt.Sprintf("cannot parse CSV row: %v", err))
		}
		if rowNum > v.MaxRows {
			return nil, apperrors.NewFileValidationError(
				fmt.Sprintf("row count exceeds the %d row limit", v.MaxRows))
		}

		row, err := v.parseRow(rowNum, record, colIndex)
		if err != nil {
			return nil, err
		}
		table.Rows = append(table.Rows, row)
	}

	if len(table.Rows) == 0 {
		return nil, apperrors.NewFileValidationError("file contains a header but no data rows")
	}
	return table, nil
}

func mediaType(contentType string) string {
	mt, _, found := strings.Cut(contentType, ";")
	if !found {
		mt = contentType
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

func indexColumns(header []string) (map[string]int, error) {
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewFileValidationError(
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")))
	}
	if len(colIndex) > len(RequiredColumns) {
		var extra []string
		required := make(map[string]bool, len(RequiredColumns))
		for _, col := range RequiredColumns {
			required[col] = true
		}
		for name := range colIndex {
			if !required[name] {
				extra = append(extra, name)
			}
		}
		return nil, apperrors.NewFileValidationError(
			fmt.Sprintf("unexpected columns: %s", strings.Join(extra, ", ")))
	}
	return colIndex, nil
}

func (v *Validator) parseRow(rowNum int, record []string, colIndex map[string]int) (model.LeadInput, error) {
	var row model.LeadInput

	cell := func(col string) (string, error) {
		idx := colIndex[col]
		if idx >= len(record) {
			return "", apperrors.NewRowValidationError(rowNum, col, "value is missing")
		}
		return strings.TrimSpace(record[idx]), nil
	}

	ints := map[string]*int{
		"age": &row.Age, "balance": &row.Balance, "day": &row.Day,
		"campaign": &row.CampaignContacts, "pdays": &row.PDays, "previous": &row.Previous,
	}
	for col, dst := range ints {
		raw, err := cell(col)
		if err != nil {
			return row, err
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return row, apperrors.NewRowValidationError(rowNum, col,
				fmt.Sprintf("%q is not an integer", raw))
		}
		*dst = n
	}

	strs := map[string]*string{
		"job": &row.Job, "marital": &row.Marital, "education": &row.Education,
		"default": &row.CreditDefault, "housing": &row.Housing, "loan": &row.Loan,
		"contact": &row.Contact, "month": &row.Month, "poutcome": &row.POutcome,
	}
	for col, dst := range strs {
		raw, err := cell(col)
		if err != nil {
			return row, err
		}
		*dst = raw
	}

	if err := v.validate.Struct(row); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			col := columnByField[fe.StructField()]
			return row, apperrors.NewRowValidationError(rowNum, col,
				fmt.Sprintf("value %v fails constraint %q", fe.Value(), constraintText(fe)))
		}
		return row, apperrors.NewRowValidationError(rowNum, "", err.Error())
	}

	return row, nil
}

func constraintText(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fe.Tag() + "=" + fe.Param()
	}
	return fe.Tag()
}
