package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regie/internal/domain/auth"
	"regie/internal/domain/charges"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCalcCommand(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	out, err := execute(t, "calc", "--project", "proj1", "--period", "2024-01", "--amount", "1000", "--amount", "500")
	require.NoError(t, err)

	var result charges.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "proj1", result.ProjectID)
	assert.Equal(t, "642", result.TotalCharges.String())
	assert.Equal(t, "1275", result.TotalNet.String())
}

func TestCalcCommandWithRatesFile(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	path := filepath.Join(t.TempDir(), "rates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
schedules:
  - effective_from: "2024-01"
    employee_rate: 10
    employer:
      - type: flat
        rate: 20
`), 0o600))

	out, err := execute(t, "calc", "--project", "p", "--period", "2024-06", "--amount", "100", "--rates", path)
	require.NoError(t, err)
	var result charges.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "30", result.TotalCharges.String())
}

func TestCalcCommandRejectsBadInput(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	_, err := execute(t, "calc", "--project", "p", "--period", "2024-01", "--amount", "ten")
	assert.Error(t, err)

	_, err = execute(t, "calc", "--project", "p", "--period", "2024-01", "--amount=-5")
	assert.Error(t, err)

	_, err = execute(t, "calc", "--project", "p", "--amount", "5")
	assert.ErrorIs(t, err, charges.ErrMissingInput)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_SECRET", "cli-secret")

	out, err := execute(t, "token", "--tenant", "t1", "--user", "u1", "--role", "Producer")
	require.NoError(t, err)

	claims, err := auth.ParseToken("cli-secret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "t1", claims.TenantID)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, auth.RoleProducer, claims.RoleName)

	_, err = execute(t, "token", "--tenant", "t1", "--user", "u1", "--role", "intern")
	assert.Error(t, err)
}

func TestTokenCommandDisabledInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "cli-secret")
	_, err := execute(t, "token", "--tenant", "t1", "--user", "u1")
	assert.Error(t, err)
}
