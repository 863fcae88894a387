package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceStatusTransitions(t *testing.T) {
	cases := []struct {
		from    InvoiceStatus
		to      InvoiceStatus
		allowed bool
	}{
		{StatusDraft, StatusSubmitted, true},
		{StatusDraft, StatusPosted, false},
		{StatusDraft, StatusError, false},
		{StatusSubmitted, StatusPosted, true},
		{StatusSubmitted, StatusError, true},
		{StatusSubmitted, StatusDraft, false},
		{StatusPosted, StatusDraft, false},
		{StatusPosted, StatusSubmitted, false},
		{StatusError, StatusDraft, false},
		{StatusError, StatusSubmitted, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestInvoiceStatusLocked(t *testing.T) {
	assert.False(t, StatusDraft.Locked())
	assert.True(t, StatusSubmitted.Locked())
	assert.True(t, StatusPosted.Locked())
	assert.True(t, StatusError.Locked())
}

func TestInvoiceStatusValid(t *testing.T) {
	assert.True(t, StatusDraft.Valid())
	assert.True(t, StatusSubmitted.Valid())
	assert.True(t, StatusPosted.Valid())
	assert.True(t, StatusError.Valid())
	assert.False(t, InvoiceStatus("archived").Valid())
	assert.False(t, InvoiceStatus("").Valid())
}
