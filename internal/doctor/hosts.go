package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/commoncode/vhdeploy/internal/errors"
	"github.com/commoncode/vhdeploy/internal/host"
	"github.com/commoncode/vhdeploy/internal/registry"
)

// HostCheck dials one deployment host, opens a session and hangs up.
type HostCheck struct {
	Entry  registry.HostEntry
	Dialer host.Dialer
}

func (c *HostCheck) Name() string     { return "host_" + c.Entry.Address }
func (c *HostCheck) Category() string { return "HOSTS" }

func (c *HostCheck) Run(ctx context.Context) CheckResult {
	start := time.Now()
	client, err := c.Dialer.Dial(ctx, c.Entry.Address)
	if err != nil {
		suggestion := "Check you can reach it by hand: ssh " + c.Entry.Address
		var probeErr *host.ProbeError
		if errors.As(err, &probeErr) {
			switch probeErr.Reason {
			case host.ProbeFailRefused:
				suggestion = "SSH server may not be running on the host"
			case host.ProbeFailAuth:
				suggestion = "Check SSH key configuration: ssh-add -l"
			case host.ProbeFailTimeout, host.ProbeFailUnreachable:
				suggestion = "Host may be offline or blocked by firewall. Check your VPN."
			case host.ProbeFailHostKey:
				suggestion = "Connect once by hand to verify the host key"
			}
		}
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s: %s", c.Entry.Label(), firstLine(err)),
			Suggestion: suggestion,
		}
	}
	defer client.Close()

	// Some hosts accept the connection but refuse sessions (MaxSessions,
	// forced commands); deploy would fail on its first step.
	session, err := client.NewSession()
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s: connected but couldn't open a session: %v", c.Entry.Label(), err),
			Suggestion: "Check sshd's MaxSessions and any forced command for your key",
		}
	}
	session.Close()

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s (%s)", c.Entry.Label(), time.Since(start).Round(time.Millisecond)),
	}
}

// NewHostChecks creates connectivity checks for every host in entries.
func NewHostChecks(entries []registry.HostEntry, dialer host.Dialer) []Check {
	checks := make([]Check, 0, len(entries))
	for _, e := range entries {
		checks = append(checks, &HostCheck{Entry: e, Dialer: dialer})
	}
	return checks
}
