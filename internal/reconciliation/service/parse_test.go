package service

import (
	"testing"

	"github.com/smallbiznis/nel3/internal/reconciliation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeedSeparators(t *testing.T) {
	res := ParseFeed("REF001,100.50\n\nREF002,100,50\r\nREF003;1.234,56\nREF004\t99.99\n", domain.ParseOptions{BankCode: "341"})

	require.Len(t, res.Items, 4)
	assert.Empty(t, res.Quarantined)
	assert.Equal(t, "REF001", res.Items[0].ReferenceID)
	assert.Equal(t, "100.5", res.Items[0].Amount.String())
	assert.Equal(t, "100.5", res.Items[1].Amount.String())
	assert.Equal(t, "1234.56", res.Items[2].Amount.String())
	assert.Equal(t, "99.99", res.Items[3].Amount.String())
	assert.Equal(t, "341", res.Items[3].BankCode)
}

func TestParseFeedModes(t *testing.T) {
	text := "REF001,abc\nREF002\n,10.00\nREF003,5"

	tolerant := ParseFeed(text, domain.ParseOptions{})
	require.Len(t, tolerant.Items, 3)
	assert.True(t, tolerant.Items[0].Amount.IsZero())
	assert.True(t, tolerant.Items[1].Amount.IsZero())
	require.Len(t, tolerant.Quarantined, 1)
	assert.Equal(t, 3, tolerant.Quarantined[0].Line)
	assert.Equal(t, "missing_reference", tolerant.Quarantined[0].Reason)

	strict := ParseFeed(text, domain.ParseOptions{Mode: domain.ParseStrict})
	require.Len(t, strict.Items, 1)
	assert.Equal(t, "REF003", strict.Items[0].ReferenceID)
	require.Len(t, strict.Quarantined, 3)
	assert.Equal(t, "invalid_amount", strict.Quarantined[0].Reason)
	assert.Equal(t, "missing_amount", strict.Quarantined[1].Reason)
}
