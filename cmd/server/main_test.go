package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_back_end/internal/auth"
)

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "migrate", "reindex", "make-admin", "dev-token"} {
		assert.Contains(t, names, want)
	}
}

func TestDevTokenVerifies(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-test-secret")
	t.Setenv("STORE_SETTINGS", "")
	id := uuid.New()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"dev-token", id.String(), "--email", "dev@example.com"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })
	require.NoError(t, rootCmd.Execute())

	claims, err := auth.NewVerifier("cli-test-secret").Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Equal(t, "dev@example.com", claims.Email)
}

func TestMakeAdminRejectsBadID(t *testing.T) {
	t.Setenv("STORE_SETTINGS", "")
	rootCmd.SetArgs([]string{"make-admin", "not-a-uuid"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid user id")
}
