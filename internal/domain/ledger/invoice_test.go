package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceDelta(t *testing.T) {
	i := &Invoice{Amount: "1,000.00", Credit: "250.00"}
	assert.Equal(t, "750.00", FormatAmount(i.Delta()))

	i = &Invoice{Amount: "", Credit: "100.00"}
	assert.Equal(t, "-100.00", FormatAmount(i.Delta()))

	i = &Invoice{}
	assert.True(t, i.Delta().IsZero())
}

func TestInvoiceNormalize(t *testing.T) {
	i := &Invoice{Amount: "", Credit: ""}
	i.Normalize()
	assert.Equal(t, "0.00", i.Amount)
	assert.Equal(t, "", i.Credit)

	i = &Invoice{Amount: "1250.5", Credit: "1.234,56"}
	i.Normalize()
	assert.Equal(t, "1,250.50", i.Amount)
	assert.Equal(t, "1,234.56", i.Credit)
}
