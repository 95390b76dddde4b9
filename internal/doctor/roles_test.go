package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/commoncode/vhdeploy/internal/gitutil/gittest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRoles(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRolesFileCheck(t *testing.T) {
	path := writeRoles(t, "vhosts:\n  staging:\n    hosts: [\"10.0.0.1\"]\n  prod:\n    inventory: ./hosts\n")

	r := (&RolesFileCheck{Explicit: path}).Run(context.Background())
	assert.Equal(t, StatusPass, r.Status)
	assert.Equal(t, "roles.yaml: prod, staging", r.Message)
}

func TestRolesFileCheck_Missing(t *testing.T) {
	r := (&RolesFileCheck{Explicit: "/nonexistent/roles.yaml"}).Run(context.Background())
	assert.Equal(t, StatusFail, r.Status)
	assert.Contains(t, r.Message, "Specified roles file not found")
	assert.NotContains(t, r.Message, "✗")
}

func TestRolesFileCheck_Invalid(t *testing.T) {
	path := writeRoles(t, "vhosts:\n  staging:\n    meteor: false\n")

	r := (&RolesFileCheck{Explicit: path}).Run(context.Background())
	assert.Equal(t, StatusFail, r.Status)
	assert.Contains(t, r.Message, "no hosts and no inventory")
}

func TestRolesFileCheck_Empty(t *testing.T) {
	path := writeRoles(t, "vhosts: {}\n")

	r := (&RolesFileCheck{Explicit: path}).Run(context.Background())
	assert.Equal(t, StatusWarn, r.Status)
}

func TestRepoCheck(t *testing.T) {
	t.Setenv("GIT_REFSPEC", "")
	t.Setenv("GIT_COMMIT", "")
	dir := gittest.InitRepo(t)

	r := (&RepoCheck{Dir: dir}).Run(context.Background())
	assert.Equal(t, StatusPass, r.Status)
	assert.Contains(t, r.Message, "refs/heads/main")
	assert.Contains(t, r.Message, "initial commit")

	r = (&RepoCheck{Dir: t.TempDir()}).Run(context.Background())
	assert.Equal(t, StatusFail, r.Status)
}
