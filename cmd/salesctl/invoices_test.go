package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp-sales/internal/core"
)

func TestSweepActor(t *testing.T) {
	actor, err := sweepActor(3, 7)
	require.NoError(t, err)
	assert.Equal(t, core.Actor{CompanyID: 3, UserID: 7}, actor)

	_, err = sweepActor(3, 0)
	assert.Error(t, err)
	_, err = sweepActor(0, 7)
	assert.Error(t, err)
	_, err = sweepActor(3, -1)
	assert.Error(t, err)
}

func TestSweepOverdueRejectsZeroUser(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"invoices", "sweep-overdue", "--company", "1", "--user", "0"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}
