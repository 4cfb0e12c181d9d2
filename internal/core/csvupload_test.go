package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewCSVListsMissingColumns(t *testing.T) {
	content := []byte("nbNouveauCas,nbGueri\n10,5\n")
	_, err := PreviewCSV("data.csv", content, HospitalizationCSVHeaders)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, []string{"nbDeces", "populationTotale"}, perr.Missing)
	assert.Contains(t, err.Error(), "nbDeces")
}

func TestPreviewCSVRejectsOtherExtensions(t *testing.T) {
	_, err := PreviewCSV("data.xlsx", HospitalizationTemplate(), HospitalizationCSVHeaders)
	var perr *ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestPreviewCSVKeepsFirstFiveRows(t *testing.T) {
	var b strings.Builder
	b.WriteString("nbNouveauCas,nbDeces,nbGueri,populationTotale\n")
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&b, "%d,1,2,1000\n\n", i)
	}

	preview, err := PreviewCSV("rows.CSV", []byte(b.String()), HospitalizationCSVHeaders)
	require.NoError(t, err)
	assert.Equal(t, 8, preview.Total)
	require.Len(t, preview.Rows, CSVPreviewRows)
	assert.Equal(t, "0", preview.Rows[0]["nbNouveauCas"])
	assert.Equal(t, "4", preview.Rows[4]["nbNouveauCas"])
}

func TestPreviewCSVShortFile(t *testing.T) {
	preview, err := PreviewCSV("t.csv", HospitalizationTemplate(), HospitalizationCSVHeaders)
	require.NoError(t, err)
	require.Len(t, preview.Rows, 1)
	assert.Equal(t, "67000000", preview.Rows[0]["populationTotale"])
}

func TestPreviewCSVEmpty(t *testing.T) {
	_, err := PreviewCSV("empty.csv", []byte("\n\n"), HospitalizationCSVHeaders)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "The file is empty", perr.Message)
}
