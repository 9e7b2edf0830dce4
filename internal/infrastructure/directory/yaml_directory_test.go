package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dms/internal/domain/entity"
	"dms/pkg/errors"
)

const sample = `
holders:
  - name: Sub Distributor Alpha
    tier: sub-distributor
  - name: Operator One
    tier: operator
    parent: Sub Distributor Alpha
users:
  - id: u-admin
    name: Admin
    email: Admin@Example.com
    role: admin
    active: true
  - id: u-op
    name: Op
    email: op@example.com
    role: operator
    holder: Operator One
    passwordHash: "$2a$10$abc"
    active: true
`

func TestParseDirectory(t *testing.T) {
	d, err := Parse([]byte(sample))
	require.NoError(t, err)

	main, err := d.Holder(entity.MainDistribution)
	require.NoError(t, err)
	assert.Equal(t, entity.LocationMainDistribution, main.Tier)

	op, err := d.Holder("Operator One")
	require.NoError(t, err)
	assert.Equal(t, "Sub Distributor Alpha", op.Parent)

	assert.Len(t, d.Holders(), 3)

	users := d.Users()
	require.Len(t, users, 2)
	assert.Equal(t, "u-admin", users[0].ID)
	assert.Equal(t, "u-op", users[1].ID)

	admin, err := d.UserByEmail("admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, entity.MainDistribution, admin.Holder)

	u, err := d.UserByID("u-op")
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$abc", u.PasswordHash)
}

func TestDirectoryLookupsReturnNotFound(t *testing.T) {
	d, err := New(nil, nil)
	require.NoError(t, err)

	_, err = d.Holder("Nobody")
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	_, err = d.UserByEmail("x@example.com")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestParseRejectsBadEntries(t *testing.T) {
	cases := map[string]string{
		"bad tier":       "holders:\n  - name: X\n    tier: warehouse\n",
		"unknown parent": "holders:\n  - name: X\n    tier: operator\n    parent: Y\n",
		"bad role":       "users:\n  - id: a\n    email: a@b.c\n    role: root\n",
		"unknown holder": "users:\n  - id: a\n    email: a@b.c\n    role: operator\n    holder: Nowhere\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.Error(t, err)
		})
	}
}
