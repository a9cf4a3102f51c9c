package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_QuotesStringsOnly(t *testing.T) {
	doc, err := Document(
		[]string{"Item Code", "Current Stock", "Total Value"},
		[][]any{
			{"CEM001", 75.0, 637.5},
			{"STL001", 50, int64(4250)},
		},
	)

	require.NoError(t, err)
	assert.Equal(t, "Item Code,Current Stock,Total Value\r\n\"CEM001\",75,637.5\r\n\"STL001\",50,4250\r\n", doc)
}

func TestDocument_EscapesEmbeddedQuotesAndCommas(t *testing.T) {
	doc, err := Document([]string{"Remarks"}, [][]any{{`Wall "B", north side`}})

	require.NoError(t, err)
	assert.Equal(t, "Remarks\r\n\"Wall \"\"B\"\", north side\"\r\n", doc)
}

func TestDocument_FormatsTimesAndNil(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	var missing *time.Time

	doc, err := Document([]string{"Created", "Updated", "Note"}, [][]any{{at, missing, nil}})

	require.NoError(t, err)
	assert.Equal(t, "Created,Updated,Note\r\n2024-01-15T10:30:00Z,,\r\n", doc)
}

func TestDocument_RejectsRaggedRows(t *testing.T) {
	_, err := Document([]string{"A", "B"}, [][]any{{"only one"}})
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	at := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "Stock_Valuation_Report_2024-03-09.csv", Filename("Stock_Valuation_Report", at))
}
