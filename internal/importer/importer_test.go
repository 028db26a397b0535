package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/pocket/internal/model"
)

const chaseHeaderLine = "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n"

func TestChaseParser_Fixture(t *testing.T) {
	rows := chaseRows(t)
	require.Len(t, rows, 6)

	tests := []struct {
		desc   string
		amount string
		kind   string
		day    int
		ref    string
	}{
		{"GITHUB *PRO SUBSCRIPTION", "-4.00", "ACH_DEBIT", 3, "chase_20250103_GITHUBPROS"},
		{"UBER *TRIP HELP.UBER.COM", "-23.45", "DEBIT_CARD", 6, "chase_20250106_UBERTRIPHE"},
		{"WHOLE FOODS MARKET #123", "-87.12", "DEBIT_CARD", 9, "chase_20250109_WHOLEFOODS"},
		{"ACME CONSULTING INVOICE 1042", "3500.00", "ACH_CREDIT", 15, "chase_20250115_ACMECONSUL"},
		{"CON EDISON ELECTRIC BILL", "-112.30", "ACH_DEBIT", 18, "chase_20250118_CONEDISONE"},
		{"AMAZON MKTPLACE PMTS", "-45.99", "DEBIT_CARD", 22, "chase_20250122_AMAZONMKTP"},
	}
	for i, tt := range tests {
		row := rows[i]
		assert.Equal(t, tt.desc, row.Description)
		assert.Equal(t, tt.amount, row.Amount.StringFixed(2), tt.desc)
		assert.Equal(t, tt.kind, row.Type, tt.desc)
		assert.Equal(t, time.Date(2025, time.January, tt.day, 0, 0, 0, 0, time.UTC), row.Date, tt.desc)
		assert.Equal(t, tt.ref, row.Reference, tt.desc)
	}
}

func TestChaseParser_ColumnsByName(t *testing.T) {
	data := "Amount,Description,Posting Date\n-9.99,NETFLIX SUBSCRIPTION,02/14/2025\n"
	rows, err := (&ChaseParser{}).Parse(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "NETFLIX SUBSCRIPTION", rows[0].Description)
	assert.Equal(t, "-9.99", rows[0].Amount.StringFixed(2))
	assert.Equal(t, 14, rows[0].Date.Day())
	assert.Empty(t, rows[0].Type)
}

func TestChaseParser_Empty(t *testing.T) {
	for _, data := range []string{"", chaseHeaderLine} {
		rows, err := (&ChaseParser{}).Parse(strings.NewReader(data))
		require.NoError(t, err)
		assert.Nil(t, rows)
	}
}

func TestChaseParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"bad date", chaseHeaderLine + "DEBIT,NOTADATE,desc,-4.00,ACH_DEBIT,100.00,\n", "row 2: parsing date"},
		{"bad amount", chaseHeaderLine + "DEBIT,01/03/2025,desc,NOTANUMBER,ACH_DEBIT,100.00,\n", "row 2: parsing amount"},
		{"debit paid in", chaseHeaderLine + "DEBIT,01/03/2025,desc,4.00,ACH_DEBIT,100.00,\n", "DEBIT row with amount 4"},
		{"credit paid out", chaseHeaderLine + "CREDIT,01/03/2025,ok,1,ACH_CREDIT,1,\nCREDIT,01/04/2025,desc,-4.00,ACH_CREDIT,100.00,\n", "row 3: CREDIT row"},
		{"missing amount column", "Details,Posting Date,Description\nDEBIT,01/03/2025,desc\n", "need Posting Date, Description and Amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&ChaseParser{}).Parse(strings.NewReader(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestChaseParser_CheckNumberReference(t *testing.T) {
	data := chaseHeaderLine + "CHECK,02/01/2025,CHECK 1187,-250.00,CHECK_PAID,900.00,1187\n"
	rows, err := (&ChaseParser{}).Parse(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "chase_20250201_CHK1187", rows[0].Reference)
	assert.True(t, rows[0].Amount.IsNegative())
}

func TestChaseParser_RepeatedReferences(t *testing.T) {
	data := chaseHeaderLine +
		"DEBIT,02/03/2025,BLUE BOTTLE COFFEE,-4.50,DEBIT_CARD,10.00,\n" +
		"DEBIT,02/03/2025,BLUE BOTTLE COFFEE,-4.50,DEBIT_CARD,5.50,\n" +
		"DEBIT,02/03/2025,BLUE BOTTLE COFFEE,-4.50,DEBIT_CARD,1.00,\n"
	rows, err := (&ChaseParser{}).Parse(strings.NewReader(data))
	require.NoError(t, err)
	refs := make([]string, len(rows))
	for i, r := range rows {
		refs[i] = r.Reference
	}
	assert.Equal(t, []string{
		"chase_20250203_BLUEBOTTLE",
		"chase_20250203_BLUEBOTTLE_2",
		"chase_20250203_BLUEBOTTLE_3",
	}, refs)

	// All three survive an import and a second import adds nothing.
	l := newLedger()
	res, err := Import(l, rows, importOpts())
	require.NoError(t, err)
	assert.Len(t, res.Created, 3)
	res, err = Import(l, rows, importOpts())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Skipped)
}

func TestChaseImport_CategoriesAndDirection(t *testing.T) {
	data := chaseHeaderLine +
		"DEBIT,03/02/2025,LYFT RIDE FRI 9PM,-18.20,DEBIT_CARD,980.00,\n" +
		"DEBIT,03/03/2025,corner market,-31.05,DEBIT_CARD,948.95,\n" +
		"CREDIT,03/04/2025,AMAZON REFUND,12.00,ACH_CREDIT,960.95,\n" +
		"CREDIT,03/05/2025,PAYROLL ACME INC,2100.00,ACH_CREDIT,3060.95,\n" +
		"DEBIT,03/06/2025,CITY WATER BILL PAY,-60.00,ACH_DEBIT,3000.95,\n" +
		"DEBIT,03/07/2025,HARDWARE STORE,-44.10,DEBIT_CARD,2956.85,\n"
	rows, err := (&ChaseParser{}).Parse(strings.NewReader(data))
	require.NoError(t, err)

	l := newLedger()
	_, err = Import(l, rows, importOpts())
	require.NoError(t, err)

	type want struct {
		typ      model.TxType
		category string
	}
	got := map[string]want{}
	income, spent := decimal.Zero, decimal.Zero
	for _, tx := range l.All() {
		got[tx.Title] = want{tx.Type, tx.Category}
		if tx.Type == model.TxIncome {
			income = income.Add(tx.Amount)
		} else {
			spent = spent.Add(tx.Amount)
		}
		assert.True(t, tx.Amount.IsPositive(), tx.Title)
	}
	assert.Equal(t, map[string]want{
		"LYFT RIDE FRI 9PM":   {model.TxExpense, "Transport"},
		"corner market":       {model.TxExpense, "Food"},
		"AMAZON REFUND":       {model.TxIncome, "Shopping"},
		"PAYROLL ACME INC":    {model.TxIncome, "Others"},
		"CITY WATER BILL PAY": {model.TxExpense, "Bills"},
		"HARDWARE STORE":      {model.TxExpense, "Others"},
	}, got)
	assert.Equal(t, "2112.00", income.StringFixed(2))
	assert.Equal(t, "153.35", spent.StringFixed(2))
}

func TestGenericParser(t *testing.T) {
	data := "Date,Description,Amount\n2026-03-01,Coffee,-3.50\n2026-03-02, Refund ,12\n"
	p := &GenericParser{}
	rows, err := p.Parse(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Coffee", rows[0].Description)
	assert.Equal(t, "-3.50", rows[0].Amount.StringFixed(2))
	assert.Equal(t, "Refund", rows[1].Description)
	assert.Equal(t, "csv_20260302_Refund", rows[1].Reference)
}

func TestGenericParser_MissingColumns(t *testing.T) {
	p := &GenericParser{}
	_, err := p.Parse(strings.NewReader("when,what\n2026-03-01,x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need date")
}

func TestGenericParser_CustomLayout(t *testing.T) {
	p := &GenericParser{DateLayout: "02/01/2006"}
	rows, err := p.Parse(strings.NewReader("payee,value,transaction date\nBakery,-2,15/03/2026\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 15, rows[0].Date.Day())
	assert.Equal(t, 3, int(rows[0].Date.Month()))
}

func TestGenericParser_Empty(t *testing.T) {
	rows, err := (&GenericParser{}).Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	p := r.Get("chase")
	require.NotNil(t, p)
	assert.Equal(t, "chase", p.Format())
	assert.Panics(t, func() { r.Register(&ChaseParser{}) })
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	assert.NotNil(t, r.Get("Chase"))
	assert.NotNil(t, r.Get("CHASE"))
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get("chase"))
	assert.NotNil(t, r.Get("generic"))
	assert.ElementsMatch(t, []string{"chase", "generic"}, r.Formats())
}

func TestScan_FindsCSVs(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(importDir, "bank.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "other.txt"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "bank.csv", files[0].Name)
}

func TestScan_IgnoresProcessedDir(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	processedDir := filepath.Join(importDir, "processed")
	require.NoError(t, os.MkdirAll(processedDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(importDir, "new.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(processedDir, "old.csv"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "new.csv", files[0].Name)
}

func TestScan_EmptyDir(t *testing.T) {
	dir := t.TempDir()
	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "bank.csv"), []byte("data"), 0o644))

	err := MarkProcessed(dir, "bank.csv")
	require.NoError(t, err)

	// Source gone.
	_, err = os.Stat(filepath.Join(importDir, "bank.csv"))
	assert.True(t, os.IsNotExist(err))

	// Destination exists.
	_, err = os.Stat(filepath.Join(dir, "import", "processed", "bank.csv"))
	assert.NoError(t, err)
}

func TestMarkProcessed_CreatesDir(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "a.csv"), []byte("data"), 0o644))

	err := MarkProcessed(dir, "a.csv")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "import", "processed"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
