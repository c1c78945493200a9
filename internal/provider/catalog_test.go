package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCommand(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		action  string
		params  map[string]string
		want    string
		wantErr bool
	}{
		{
			name:   "no params",
			action: ActionProbe,
			want:   "provost-apply probe",
		},
		{
			name:   "params sorted for determinism",
			action: ActionJoinDomain,
			params: map[string]string{"ou": "Servers", "domain": "lab.local"},
			want:   "provost-apply join-domain domain=lab.local ou=Servers",
		},
		{
			name:   "params with spaces quoted",
			action: ActionCreateUser,
			params: map[string]string{"name": "Jo Admin"},
			want:   `provost-apply create-user 'name=Jo Admin'`,
		},
		{
			name:    "unknown action rejected",
			action:  "format-disk",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := renderCommand(tt.action, tt.params)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOutput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		output string
		want   Result
	}{
		{
			name:   "clean unchanged",
			output: "",
			want:   Result{},
		},
		{
			name:   "changed with reboot",
			output: "changed\nreboot-required\nfeature installed\n",
			want:   Result{Changed: true, RebootRequired: true, Diagnostic: "feature installed"},
		},
		{
			name:   "diagnostic only",
			output: "already joined to lab.local\n",
			want:   Result{Diagnostic: "already joined to lab.local"},
		},
		{
			name:   "multiple diagnostics joined",
			output: "line one\nchanged\nline two\n",
			want:   Result{Changed: true, Diagnostic: "line one; line two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseOutput(tt.output))
		})
	}
}

func TestInCatalog(t *testing.T) {
	t.Parallel()
	assert.True(t, InCatalog(ActionReboot))
	assert.False(t, InCatalog("format-disk"))
}
