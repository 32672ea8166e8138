package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInstanceState_IsValid verifies that only the predefined states
// are accepted as valid.
func TestInstanceState_IsValid(t *testing.T) {
	testCases := []struct {
		state InstanceState
		valid bool
	}{
		{StateRunning, true},
		{StateStopped, true},
		{StateMissing, true},
		{InstanceState("paused"), false},
		{InstanceState(""), false},
		{InstanceState("RUNNING"), false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.state), func(t *testing.T) {
			assert.Equal(t, tc.valid, tc.state.IsValid())
		})
	}
}

// TestValidateName verifies container name validation against
// Docker-compatible naming rules.
func TestValidateName(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple name", "nomic-embed-api", false},
		{"with underscore", "embed_api", false},
		{"with dots", "embed.api.v1", false},
		{"single char", "a", false},
		{"empty", "", true},
		{"leading hyphen", "-embed", true},
		{"leading dot", ".embed", true},
		{"spaces", "embed api", true},
		{"slash", "embed/api", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateName(tc.input)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestValidatePort verifies port range validation.
func TestValidatePort(t *testing.T) {
	testCases := []struct {
		port    int
		wantErr bool
	}{
		{5000, false},
		{1, false},
		{65535, false},
		{0, true},
		{-1, true},
		{65536, true},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("port_%d", tc.port), func(t *testing.T) {
			err := ValidatePort(tc.port)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestCLIError_Error verifies the error message formatting with and
// without an underlying error.
func TestCLIError_Error(t *testing.T) {
	plain := NewCLIError(ExitBuildFailed, "image build failed")
	assert.Equal(t, "image build failed", plain.Error())

	underlying := errors.New("exit status 1")
	wrapped := WrapCLIError(ExitBuildFailed, "image build failed", underlying)
	assert.Equal(t, "image build failed: exit status 1", wrapped.Error())
}

// TestCLIError_Unwrap verifies that errors.Is sees through the wrapper,
// which the CLI layer relies on for exit code translation.
func TestCLIError_Unwrap(t *testing.T) {
	underlying := errors.New("connection refused")
	wrapped := WrapCLIError(ExitDockerNotRunning, "Docker daemon is not responding", underlying)

	assert.True(t, errors.Is(wrapped, underlying))

	var cliErr *CLIError
	require.True(t, errors.As(wrapped, &cliErr))
	assert.Equal(t, ExitDockerNotRunning, cliErr.Code)
}

// TestExitCodes_Distinct guards against accidental exit code collisions
// between the fatal deployment steps.
func TestExitCodes_Distinct(t *testing.T) {
	codes := []ExitCode{
		ExitSuccess,
		ExitGeneralError,
		ExitMissingPrereqs,
		ExitDockerNotRunning,
		ExitBuildFailed,
		ExitLaunchFailed,
		ExitPortConflict,
		ExitReadinessTimeout,
		ExitInstanceNotFound,
	}

	seen := make(map[ExitCode]bool)
	for _, c := range codes {
		assert.False(t, seen[c], "duplicate exit code %d", c)
		seen[c] = true
	}
}
