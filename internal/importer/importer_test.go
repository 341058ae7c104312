package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
)

func parseChaseFile(t *testing.T) []model.BankTransaction {
	t.Helper()
	f, err := os.Open("testdata/chase_checking.csv")
	require.NoError(t, err)
	defer f.Close()

	txns, err := (&ChaseParser{}).Parse(f)
	require.NoError(t, err)
	return txns
}

func TestChaseParser_Parse(t *testing.T) {
	txns := parseChaseFile(t)
	require.Len(t, txns, 7)

	tests := []struct {
		i      int
		desc   string
		amount string
		typ    string
		date   string
		ref    string
	}{
		{0, "GITHUB *PRO SUBSCRIPTION", "-4.00", "ACH_DEBIT", "2025-01-03", "chase_20250103_GITHUBPROS"},
		{3, "ACME CONSULTING INVOICE 1042", "3500.00", "ACH_CREDIT", "2025-01-15", "chase_20250115_ACMECONSUL"},
		{5, "GOOGLE *WORKSPACE", "-14.00", "ACH_DEBIT", "2025-01-22", "chase_20250122_GOOGLEWORK"},
		{6, "CHECK 1001", "-250.00", "CHECK_PAID", "2025-01-24", "chase_chk_1001"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := txns[tt.i]
			assert.Equal(t, tt.desc, got.Description)
			assert.Equal(t, tt.amount, got.Amount.StringFixed(2))
			assert.Equal(t, tt.typ, got.Type)
			assert.Equal(t, tt.date, got.Date.Format(model.DateFormat))
			assert.Equal(t, tt.ref, got.Reference)
		})
	}
}

func TestChaseParser_OnlyDepositsArePositive(t *testing.T) {
	for _, txn := range parseChaseFile(t) {
		assert.Equal(t, txn.Type == "ACH_CREDIT", txn.Amount.IsPositive(), txn.Description)
	}
}

func TestChaseParser_HeaderOnly(t *testing.T) {
	for _, in := range []string{"", "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n"} {
		txns, err := (&ChaseParser{}).Parse(strings.NewReader(in))
		require.NoError(t, err)
		assert.Nil(t, txns)
	}
}

func TestChaseParser_Errors(t *testing.T) {
	const header = "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n"
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"bad date", "DEBIT,NOTADATE,desc,-4.00,ACH_DEBIT,100.00,\n", "row 2: parsing date"},
		{"bad amount", "DEBIT,01/03/2025,desc,NOTANUMBER,ACH_DEBIT,100.00,\n", "row 2: parsing amount"},
		{"short row", "DEBIT,01/03/2025,desc,-4.00\n", "wrong number of fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&ChaseParser{}).Parse(strings.NewReader(header + tt.row))
			assert.ErrorContains(t, err, tt.want)
		})
	}
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
	assert.NotNil(t, r.Get("csv"))
	assert.ElementsMatch(t, []string{"chase", "csv"}, r.Formats())
}

func TestChaseParser_RepeatedReferenceSuffixed(t *testing.T) {
	in := "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n" +
		"DEBIT,01/03/2025,COFFEE,-4.00,DEBIT_CARD,10.00,\n" +
		"DEBIT,01/03/2025,COFFEE,-4.00,DEBIT_CARD,6.00,\n"
	txns, err := (&ChaseParser{}).Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "chase_20250103_COFFEE", txns[0].Reference)
	assert.Equal(t, "chase_20250103_COFFEE_2", txns[1].Reference)
}

func TestGenericParser_Parse(t *testing.T) {
	f, err := os.Open("testdata/generic.csv")
	require.NoError(t, err)
	defer f.Close()

	txns, err := (&GenericParser{}).Parse(f)
	require.NoError(t, err)
	require.Len(t, txns, 3)

	assert.Equal(t, "DEP-1", txns[0].Reference)
	assert.Equal(t, "800.00", txns[0].Amount.StringFixed(2))
	assert.Equal(t, "csv_20250203_150.00_Clientpaym", txns[1].Reference)
	assert.True(t, txns[2].Amount.IsNegative())
	assert.Equal(t, 5, txns[2].Date.Day())
}

func TestGenericParser_Errors(t *testing.T) {
	_, err := (&GenericParser{}).Parse(strings.NewReader("when,what\n2025-01-01,x\n"))
	assert.ErrorContains(t, err, "missing \"date\" column")

	_, err = (&GenericParser{}).Parse(strings.NewReader("date,description,amount\n01/02/2025,x,1\n"))
	assert.ErrorContains(t, err, "row 2: parsing date")

	_, err = (&GenericParser{}).Parse(strings.NewReader("date,description,amount\n2025-01-02,x,abc\n"))
	assert.ErrorContains(t, err, "parsing amount")
}

func TestScan_FindsCSVs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "bank.csv", files[0].Name)
}

func TestScan_IgnoresProcessedDir(t *testing.T) {
	dir := t.TempDir()
	processed := filepath.Join(dir, "processed")
	require.NoError(t, os.MkdirAll(processed, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(processed, "old.csv"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "new.csv", files[0].Name)
}

func TestScan_MissingDir(t *testing.T) {
	files, err := Scan(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank.csv"), []byte("data"), 0o644))

	require.NoError(t, MarkProcessed(dir, "bank.csv"))

	_, err := os.Stat(filepath.Join(dir, "bank.csv"))
	assert.True(t, os.IsNotExist(err))

	info, err := os.Stat(filepath.Join(dir, "processed", "bank.csv"))
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}
