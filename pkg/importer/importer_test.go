package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseTSV(t *testing.T) {
	input := "code\tname\tqty\tbuy\tsell\n" +
		"LCD-A50\tLCD Samsung A50\t4\t150000\t250000\n" +
		"\n" +
		"BAT-01\tBattery BN46\t\t\t90,000.50\n" +
		"X\t\tnope\n" +
		"CBL\tCable\t-1\t1\t2\n"

	res, err := ParseTSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	assert.Equal(t, Row{Line: 2, Code: "LCD-A50", Name: "LCD Samsung A50", Quantity: 4, PurchasePrice: 15000000, SellPrice: 25000000}, res.Rows[0])
	assert.Equal(t, 0, res.Rows[1].Quantity, "missing numbers default to zero")
	assert.Equal(t, int64(0), res.Rows[1].PurchasePrice)
	assert.Equal(t, int64(9000050), res.Rows[1].SellPrice)

	require.Len(t, res.Errors, 2)
	assert.Equal(t, 5, res.Errors[0].Line)
	assert.Equal(t, "name is required", res.Errors[0].Message)
	assert.Equal(t, 6, res.Errors[1].Line)
}

func TestParseTSVEmptyCellKeepsColumns(t *testing.T) {
	res, err := ParseTSV(strings.NewReader("LCD\tLCD A50\t\t150000\t250000\n" +
		"GLS\t  Glass  \t 2 \t\t\n"))
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Len(t, res.Rows, 2)

	assert.Zero(t, res.Rows[0].Quantity)
	assert.Equal(t, int64(15000000), res.Rows[0].PurchasePrice)
	assert.Equal(t, int64(25000000), res.Rows[0].SellPrice)

	assert.Equal(t, "Glass", res.Rows[1].Name)
	assert.Equal(t, 2, res.Rows[1].Quantity)
	assert.Zero(t, res.Rows[1].SellPrice)
}

func TestParseTSVEmpty(t *testing.T) {
	_, err := ParseTSV(strings.NewReader("\n\n"))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Code", "Name", "Qty", "Purchase", "Sell"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"GLS-11", "Tempered Glass iPhone 11", 20, 5000, 25000}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"", "Charger 20W", "abc"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	res, err := ParseXLSX(&buf)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Tempered Glass iPhone 11", res.Rows[0].Name)
	assert.Equal(t, 20, res.Rows[0].Quantity)
	assert.Equal(t, int64(2500000), res.Rows[0].SellPrice)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Line)
}
