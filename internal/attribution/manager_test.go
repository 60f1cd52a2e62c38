package attribution

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestManagerRecordAndTotal(t *testing.T) {
	m := NewManager()
	m.Record("incomeSalaries", "Salary (job)", decimal.NewFromInt(50000))
	m.Record("incomeSalaries", "Salary (job)", decimal.NewFromInt(1000))
	m.Record("incomeSalaries", "Salary (partner)", decimal.NewFromInt(20000))
	m.Record("expenses", "Rent", decimal.Zero)

	assert.True(t, m.Total("incomeSalaries").Equal(decimal.NewFromInt(71000)))
	lines := m.Lines("incomeSalaries")
	assert.Len(t, lines, 2)
	assert.Equal(t, "Salary (job)", lines[0].Source)
	assert.True(t, lines[0].Amount.Equal(decimal.NewFromInt(51000)))
	assert.Empty(t, m.Lines("expenses"))
}

func TestManagerSnapshotIsIndependent(t *testing.T) {
	m := NewManager()
	m.Record("tax", "Income tax", decimal.NewFromInt(100))

	snap := m.Snapshot()
	clone := m.Clone()
	m.Record("tax", "Income tax", decimal.NewFromInt(5))

	assert.True(t, snap["tax"]["Income tax"].Equal(decimal.NewFromInt(100)))
	assert.True(t, clone.Total("tax").Equal(decimal.NewFromInt(100)))

	m.Reset()
	assert.Nil(t, m.Snapshot())
}
