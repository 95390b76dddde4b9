package testing

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient_UnknownCommandSucceeds(t *testing.T) {
	client := NewMockClient("testhost")

	stdout, stderr, code, err := client.Exec("supervisorctl restart staging_meteor")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestMockClient_CustomResponse(t *testing.T) {
	client := NewMockClient("testhost")

	client.SetCommandResponse("custom-cmd", CommandResponse{
		Stdout:   []byte("custom output"),
		ExitCode: 42,
	})

	stdout, _, code, err := client.Exec("custom-cmd")
	require.NoError(t, err)
	assert.Equal(t, 42, code)
	assert.Equal(t, "custom output", string(stdout))
}

func TestMockClient_RegexPattern(t *testing.T) {
	client := NewMockClient("testhost")

	client.SetCommandResponse("mrt bundle .*", CommandResponse{
		Stderr:   []byte("bash: mrt: command not found"),
		ExitCode: 127,
	})

	_, stderr, code, err := client.Exec("cd '/home/vhosts/x/code/app' && mrt bundle /tmp/bundle_x.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, 127, code)
	assert.Contains(t, string(stderr), "not found")
}

func TestMockClient_ExactBeatsPattern(t *testing.T) {
	client := NewMockClient("testhost")

	client.SetCommandResponse("echo .*", CommandResponse{Stdout: []byte("pattern")})
	client.SetCommandResponse("echo hi", CommandResponse{Stdout: []byte("exact")})

	stdout, _, _, _ := client.Exec("echo hi")
	assert.Equal(t, "exact", string(stdout))

	stdout, _, _, _ = client.Exec("echo there")
	assert.Equal(t, "pattern", string(stdout))
}

func TestMockClient_CustomError(t *testing.T) {
	client := NewMockClient("testhost")

	client.SetCommandResponse("fail-cmd", CommandResponse{
		Error: assert.AnError,
	})

	_, _, _, err := client.Exec("fail-cmd")
	assert.Error(t, err)
}

func TestMockClient_History(t *testing.T) {
	client := NewMockClient("testhost")

	_, _, _, _ = client.Exec("sudo -n chown -R www-data:staff /a")
	_, _, _, _ = client.Exec("git fetch origin refs/heads/main")
	_, _, _, _ = client.Exec("sudo -n chown -R www-data:staff /b")

	assert.Equal(t, []string{
		"sudo -n chown -R www-data:staff /a",
		"git fetch origin refs/heads/main",
		"sudo -n chown -R www-data:staff /b",
	}, client.History())
	assert.Equal(t, 2, client.CountMatching("chown"))
}

func TestMockClient_Close(t *testing.T) {
	client := NewMockClient("testhost")

	require.NoError(t, client.Close())
	assert.True(t, client.Closed())

	_, _, code, err := client.Exec("echo test")
	assert.Error(t, err)
	assert.Equal(t, -1, code)

	_, err = client.NewSession()
	assert.Error(t, err)
}

func TestMockClient_GetHostAndAddress(t *testing.T) {
	client := NewMockClient("10.0.0.1")
	assert.Equal(t, "10.0.0.1", client.GetHost())
	assert.Equal(t, "10.0.0.1:22", client.GetAddress())
}

func TestMockClient_ExecStream(t *testing.T) {
	client := NewMockClient("testhost")
	client.SetCommandResponse("git log", CommandResponse{
		Stdout: []byte("abc123 fix\n"),
		Stderr: []byte("warning\n"),
	})

	var stdout, stderr bytes.Buffer
	code, err := client.ExecStream("git log", &stdout, &stderr)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "abc123 fix\n", stdout.String())
	assert.Equal(t, "warning\n", stderr.String())
}

func TestMockClient_ExecStreamCancelled(t *testing.T) {
	client := NewMockClient("testhost")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, err := client.ExecStreamContext(ctx, "echo hi", nil, nil)
	assert.Error(t, err)
	assert.Equal(t, 130, code)
	assert.Empty(t, client.History())
}

func TestMockDialer(t *testing.T) {
	d := NewMockDialer()
	d.FailDial("10.0.0.9", errors.New("connection refused"))

	c, err := d.Dial(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	_, _, _, _ = c.Exec("uptime")

	_, err = d.Dial(context.Background(), "10.0.0.9")
	assert.Error(t, err)

	assert.Equal(t, []string{"10.0.0.1", "10.0.0.9"}, d.Dialed())
	assert.Equal(t, []string{"uptime"}, d.Client("10.0.0.1").History())
}
