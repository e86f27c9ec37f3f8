package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("OWNER")
	assert.Error(t, err)
}

func TestParseCustomerStatus(t *testing.T) {
	st, err := ParseCustomerStatus("suspended")
	require.NoError(t, err)
	assert.Equal(t, CustomerSuspended, st)

	_, err = ParseCustomerStatus("gone")
	assert.Error(t, err)
}

func TestCustomerPageTotalPages(t *testing.T) {
	assert.Equal(t, 3, CustomerPage{Size: 10, TotalItems: 21}.TotalPages())
	assert.Equal(t, 0, CustomerPage{Size: 10, TotalItems: 0}.TotalPages())
	assert.Equal(t, 0, CustomerPage{Size: 0, TotalItems: 5}.TotalPages())
}
