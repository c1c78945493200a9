package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validInventory = `
targets:
  - name: dc1
    role: controller
    address: 10.0.0.10
    user: provisioner
    credential_ref: env:LAB
  - name: member1
    role: member
    address: 10.0.0.11
    port: 2222
    credential_ref: env:LAB
`

func TestParseValid(t *testing.T) {
	t.Parallel()
	targets, err := Parse([]byte(validInventory))
	require.NoError(t, err)
	require.Len(t, targets, 2)

	assert.Equal(t, "dc1", targets[0].Name)
	assert.Equal(t, Controller, targets[0].Role)
	assert.Equal(t, 22, targets[0].Port, "default port applied")
	assert.Equal(t, 2222, targets[1].Port, "explicit port preserved")
}

func TestParseFailures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty inventory",
			yaml:    "targets: []",
			wantErr: "no targets",
		},
		{
			name: "unknown role",
			yaml: `
targets:
  - name: dc1
    role: overlord
    address: 10.0.0.10
    credential_ref: env:LAB
`,
			wantErr: "unknown role",
		},
		{
			name: "missing address",
			yaml: `
targets:
  - name: dc1
    role: controller
    credential_ref: env:LAB
`,
			wantErr: "address is required",
		},
		{
			name: "missing credential ref",
			yaml: `
targets:
  - name: dc1
    role: controller
    address: 10.0.0.10
`,
			wantErr: "credential_ref is required",
		},
		{
			name: "duplicate target",
			yaml: `
targets:
  - name: dc1
    role: controller
    address: 10.0.0.10
    credential_ref: env:LAB
  - name: dc1
    role: member
    address: 10.0.0.11
    credential_ref: env:LAB
`,
			wantErr: "twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
