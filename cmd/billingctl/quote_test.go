package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestQuotePrice(t *testing.T) {
	out, err := run(t, "quote", "price", "--unit", "100", "--quantity", "3", "--discount-type", "percentage", "--discount", "50")
	require.NoError(t, err)
	assert.Equal(t, "Total: 150.00\n", out)

	out, err = run(t, "quote", "price", "--unit", "10", "--quantity", "2", "--discount-type", "fixed", "--discount", "50")
	require.NoError(t, err)
	assert.Equal(t, "Total: 0.00\n", out)

	_, err = run(t, "quote", "price", "--unit", "10", "--quantity=-1")
	assert.Error(t, err)

	_, err = run(t, "quote", "price", "--unit", "10", "--discount-type", "percentage", "--discount", "120")
	assert.Error(t, err)
}

func TestQuoteScouting(t *testing.T) {
	out, err := run(t, "quote", "scouting", "--role", "Investor", "--amount", "100000")
	require.NoError(t, err)
	assert.Contains(t, out, "Fee: 1500.00")

	out, err = run(t, "quote", "scouting", "--role", "Startup", "--amount", "2000000")
	require.NoError(t, err)
	assert.Contains(t, out, "unbounded")
	assert.Contains(t, out, "Fee: 6000.00")

	_, err = run(t, "quote", "scouting", "--role", "Advisor", "--amount", "10")
	assert.Error(t, err)
}

func TestQuoteAdvisor(t *testing.T) {
	out, err := run(t, "quote", "advisor", "--fee", "1000", "--investor-in-network")
	require.NoError(t, err)
	assert.Equal(t, "Fee: 300.00\n", out)

	out, err = run(t, "quote", "advisor", "--fee", "1000", "--investor-in-network", "--startup-in-network")
	require.NoError(t, err)
	assert.Equal(t, "Fee: 0.00\n", out)
}
