package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	CSVPreviewRows              = 5
	HospitalizationTemplateName = "template_prediction_hospitalisation.csv"
)

// HospitalizationCSVHeaders are the columns a hospitalization upload must carry.
var HospitalizationCSVHeaders = []string{"nbNouveauCas", "nbDeces", "nbGueri", "populationTotale"}

// ParseError reports a file that could not be read as a dataset. Missing
// lists every required column that was absent.
type ParseError struct {
	Line    int
	Missing []string
	Message string
}

func (e *ParseError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	default:
		return e.Message
	}
}

type CSVPreview struct {
	Filename string              `json:"filename"`
	Headers  []string            `json:"headers"`
	Rows     []map[string]string `json:"rows"`
	Total    int                 `json:"totalRows"`
}

func HospitalizationTemplate() []byte {
	return []byte(strings.Join(HospitalizationCSVHeaders, ",") + "\n1000,50,800,67000000\n")
}

// PreviewCSV checks the file name and header of an upload and returns its
// first CSVPreviewRows data rows.
func PreviewCSV(filename string, content []byte, required []string) (CSVPreview, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return CSVPreview{}, &ParseError{Message: "Please select a CSV file"}
	}

	rows, err := readCSV(content)
	if err != nil {
		return CSVPreview{}, err
	}
	if len(rows) == 0 {
		return CSVPreview{}, &ParseError{Message: "The file is empty"}
	}

	headers := rows[0]
	if missing := missingColumns(headers, required); len(missing) > 0 {
		return CSVPreview{}, &ParseError{Line: 1, Missing: missing}
	}

	data := rows[1:]
	preview := CSVPreview{
		Filename: filename,
		Headers:  headers,
		Rows:     make([]map[string]string, 0, CSVPreviewRows),
		Total:    len(data),
	}
	for i, row := range data {
		if i == CSVPreviewRows {
			break
		}
		preview.Rows = append(preview.Rows, rowMap(headers, row))
	}
	return preview, nil
}

// readCSV returns the non-blank records with trimmed cells. Rows may be
// shorter or longer than the header.
func readCSV(content []byte) ([][]string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &ParseError{Line: perr.Line, Message: perr.Err.Error()}
			}
			return nil, &ParseError{Message: err.Error()}
		}
		blank := true
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
			if record[i] != "" {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, record)
		}
	}
	return rows, nil
}

func missingColumns(headers, required []string) []string {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}
	var missing []string
	for _, col := range required {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

func rowMap(headers, row []string) map[string]string {
	m := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(row) {
			m[h] = row[i]
		} else {
			m[h] = ""
		}
	}
	return m
}
