package payments

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(id, day, balance string) model.OpenItem {
	d, _ := time.Parse(model.DateFormat, day)
	return model.OpenItem{TransactionID: id, Number: id, Date: d, Total: dec(balance), Balance: dec(balance), Status: model.OpenItemOpen}
}

func TestPlanAuto_OldestFirst(t *testing.T) {
	open := []model.OpenItem{item("feb", "2025-02-01", "80"), item("jan", "2025-01-01", "50")}

	apps := PlanAuto(dec("100"), open)
	require.Len(t, apps, 2)
	assert.Equal(t, "jan", apps[0].TargetID)
	assert.True(t, apps[0].Amount.Equal(dec("50")))
	assert.Equal(t, "feb", apps[1].TargetID)
	assert.True(t, apps[1].Amount.Equal(dec("50")))

	assert.Equal(t, "feb", open[0].TransactionID, "input order untouched")
}

func TestPlanAuto_TieBreaksOnID(t *testing.T) {
	open := []model.OpenItem{item("b", "2025-01-01", "10"), item("a", "2025-01-01", "10")}
	apps := PlanAuto(dec("15"), open)
	require.Len(t, apps, 2)
	assert.Equal(t, "a", apps[0].TargetID)
	assert.True(t, apps[1].Amount.Equal(dec("5")))
}

func TestPlanAuto_Deterministic(t *testing.T) {
	open := []model.OpenItem{
		item("c", "2025-03-01", "30"), item("a", "2025-01-01", "20"),
		item("b", "2025-01-01", "25"), item("d", "2025-02-15", "12.34"),
	}
	first := PlanAuto(dec("60"), open)
	for range 20 {
		reordered := []model.OpenItem{open[3], open[1], open[0], open[2]}
		assert.Equal(t, first, PlanAuto(dec("60"), reordered))
	}
}

func TestPlanAuto_StopsWhenExhausted(t *testing.T) {
	apps := PlanAuto(dec("5"), []model.OpenItem{item("a", "2025-01-01", "10"), item("b", "2025-01-02", "10")})
	require.Len(t, apps, 1)
	assert.True(t, apps[0].Amount.Equal(dec("5")))

	assert.Empty(t, PlanAuto(dec("10"), nil))
	assert.Empty(t, PlanAuto(decimal.Zero, []model.OpenItem{item("a", "2025-01-01", "10")}))
}

func TestCheckManual(t *testing.T) {
	open := map[string]model.OpenItem{
		"jan": item("jan", "2025-01-01", "50"),
		"feb": item("feb", "2025-02-01", "80"),
	}

	assert.NoError(t, CheckManual(dec("100"), []model.Application{
		{TargetID: "jan", Amount: dec("50")}, {TargetID: "feb", Amount: dec("50")},
	}, open))

	err := CheckManual(dec("100"), []model.Application{{TargetID: "jan", Amount: dec("60")}}, open)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindOverApplication, e.Kind)
	assert.Equal(t, "jan", e.ID)

	err = CheckManual(dec("100"), []model.Application{
		{TargetID: "jan", Amount: dec("30")}, {TargetID: "jan", Amount: dec("30")},
	}, open)
	assert.True(t, apperr.Is(err, apperr.KindOverApplication), "repeated targets are summed")

	err = CheckManual(dec("100"), []model.Application{
		{TargetID: "jan", Amount: dec("50")}, {TargetID: "feb", Amount: dec("60")},
	}, open)
	e, _ = apperr.As(err)
	require.NotNil(t, e)
	assert.Equal(t, apperr.KindOverApplication, e.Kind)
	assert.True(t, e.Delta.Equal(dec("-10")))

	err = CheckManual(dec("100"), []model.Application{{TargetID: "paid", Amount: dec("1")}}, open)
	assert.True(t, apperr.Is(err, apperr.KindOverApplication))

	err = CheckManual(dec("100"), []model.Application{{TargetID: "jan", Amount: dec("0")}}, open)
	assert.True(t, apperr.Is(err, apperr.KindInvalidAmount))
}
