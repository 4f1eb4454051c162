package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sidecar/internal"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadData_CSV(t *testing.T) {
	path := writeFile(t, "abc.csv", "\ufeffDate,Open,Close\n2023-01-02,1,100\n\n2023-01-03,2, 110 \n")

	data, err := NewDataReader(path, internal.NopLogger()).ReadData()
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Open", "Close"}, data.Headers)
	require.Len(t, data.Rows, 2, "blank rows are skipped")
	assert.Equal(t, "110", data.Rows[1]["Close"])
	assert.True(t, data.HasHeader("Date"))
	assert.False(t, data.HasHeader("Volume"))
}

func TestReadData_CSVRaggedRows(t *testing.T) {
	path := writeFile(t, "abc.csv", "Date,Close\n2023-01-02,100,extra\n2023-01-03\n")

	data, err := NewDataReader(path, nil).ReadData()
	require.NoError(t, err)
	require.Len(t, data.Rows, 2)
	assert.NotContains(t, data.Rows[0], "extra")
	assert.Equal(t, "", data.Rows[1]["Close"])
}

func TestReadData_HeaderOnly(t *testing.T) {
	path := writeFile(t, "abc.csv", "Date,Close\n")
	_, err := NewDataReader(path, nil).ReadData()
	assert.Error(t, err)
}

func TestReadData_Missing(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "nope.csv"), nil).ReadData()
	assert.ErrorContains(t, err, "not found")
}

func TestReadData_Excel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Date", "Close"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"2023-01-02", 100.5}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"2023-01-03", 101.25}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	data, err := NewDataReader(path, internal.NopLogger()).ReadData()
	require.NoError(t, err)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "100.5", data.Rows[0]["Close"])
	assert.Equal(t, "2023-01-03", data.Rows[1]["Date"])
}
