package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundsim/internal/domain"
	"github.com/aristath/fundsim/internal/modules/generator"
)

func TestWriteDatasetCSV(t *testing.T) {
	ds := domain.Dataset{
		Segments: []string{"Domestic", "Foreign"},
		Records: []domain.InvestorRecord{
			{ID: 1, Segment: "Domestic", Holding: 1000},
			{ID: 2, Segment: "Domestic", Holding: 0.125},
			{ID: 3, Segment: "Foreign", Holding: 123456.789},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDatasetCSV(&buf, ds))

	want := "investor_id,investor_type,holding_amount\n" +
		"1,Domestic,1000\n" +
		"2,Domestic,0.125\n" +
		"3,Foreign,123456.789\n"
	assert.Equal(t, want, buf.String())
}

func TestDatasetCSV_RoundTripIsExact(t *testing.T) {
	a, err := generator.Generate(500, 1e6, 25e12, "Domestic", 42)
	require.NoError(t, err)
	b, err := generator.Generate(50, 2e6, 144e12, "Foreign", 43)
	require.NoError(t, err)
	ds := generator.Merge(a, b)

	var buf bytes.Buffer
	require.NoError(t, WriteDatasetCSV(&buf, ds))

	got, err := ReadDatasetCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, ds, got)
}

func TestReadDatasetCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"wrong header", "id,type,amount\n1,A,1\n"},
		{"bad id", "investor_id,investor_type,holding_amount\nx,A,1\n"},
		{"bad amount", "investor_id,investor_type,holding_amount\n1,A,lots\n"},
		{"missing column", "investor_id,investor_type,holding_amount\n1,A\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDatasetCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}
