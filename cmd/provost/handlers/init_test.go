package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provost-dev/provost/internal/wizard"
)

func injectWizard(t *testing.T, result *wizard.Result, err error) {
	t.Helper()
	orig := runWizard
	t.Cleanup(func() { runWizard = orig })
	runWizard = func(context.Context) (*wizard.Result, error) {
		return result, err
	}
}

func TestInitWritesFiles(t *testing.T) {
	injectWizard(t, &wizard.Result{
		Domain:            "lab.local",
		ControllerName:    "dc1",
		ControllerAddress: "10.0.0.10",
		MemberAddresses:   []string{"10.0.0.11"},
		SSHUser:           "provisioner",
		CredentialRef:     "env:LAB",
	}, nil)

	dir := t.TempDir()
	invPath := filepath.Join(dir, "inventory.yaml")
	cfgPath := filepath.Join(dir, "provost.yaml")

	require.NoError(t, Init(context.Background(), invPath, cfgPath))

	for _, path := range []string{invPath, cfgPath} {
		_, err := os.Stat(path)
		assert.NoError(t, err)
	}
}

func TestInitWizardAborted(t *testing.T) {
	injectWizard(t, nil, errors.New("user aborted"))

	err := Init(context.Background(), "inventory.yaml", "provost.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wizard aborted")
}
