// Package lock keeps two operators from deploying to the same vhost at once.
// The lock is a directory on the deployment host; mkdir is the atomic
// primitive, so it works the same with any shell and any user.
package lock

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/commoncode/vhdeploy/internal/config"
	"github.com/commoncode/vhdeploy/internal/errors"
	"github.com/commoncode/vhdeploy/internal/util"
	"github.com/commoncode/vhdeploy/pkg/sshutil"
)

// PollInterval is how long Acquire waits between attempts on a held lock.
var PollInterval = 2 * time.Second

// Lock is an acquired vhost lock on one host.
type Lock struct {
	Dir  string
	Info *LockInfo

	client sshutil.SSHClient
}

// Dir returns the lock directory for vhost under cfg.Dir.
func Dir(cfg config.LockConfig, vhost string) string {
	base := cfg.Dir
	if base == "" {
		base = config.DefaultLockDir
	}
	return path.Join(base, "vhdeploy-"+vhost+".lock")
}

// Acquire takes the lock for vhost on client's host. A held lock is retried
// until cfg.Timeout has passed; a zero timeout tries once. A lock whose
// holder started more than cfg.Stale ago is removed, at most once per call.
func Acquire(ctx context.Context, client sshutil.SSHClient, cfg config.LockConfig, vhost, command string) (*Lock, error) {
	if client == nil {
		return nil, errors.New(errors.ErrLock,
			"Cannot acquire lock: no connection",
			"Establish an SSH connection first")
	}

	lockDir := Dir(cfg, vhost)
	infoFile := path.Join(lockDir, "info.json")
	info := NewLockInfo(command)
	start := time.Now()
	clearedStale := false

	for {
		_, _, exitCode, err := client.Exec("mkdir " + util.ShellArg(lockDir) + " 2>/dev/null")
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrLock,
				fmt.Sprintf("Couldn't create %s on %s", lockDir, client.GetHost()),
				"Check the SSH connection")
		}

		if exitCode == 0 {
			if err := writeInfo(client, infoFile, info); err != nil {
				_ = forceRemove(client, lockDir)
				return nil, err
			}
			return &Lock{Dir: lockDir, Info: info, client: client}, nil
		}

		holder, held := readHolder(client, infoFile)
		if held != nil && cfg.Stale > 0 && held.Age() > cfg.Stale && !clearedStale {
			clearedStale = true
			if err := forceRemove(client, lockDir); err == nil {
				continue
			}
		}

		if time.Since(start) >= cfg.Timeout {
			return nil, errors.New(errors.ErrLock,
				fmt.Sprintf("%s on %s is locked by %s", vhost, client.GetHost(), holder),
				fmt.Sprintf("Wait for that run to finish, or run 'vhdeploy unlock' if it was abandoned (removes %s).", lockDir))
		}

		select {
		case <-ctx.Done():
			return nil, errors.WrapWithCode(ctx.Err(), errors.ErrAborted,
				fmt.Sprintf("Gave up waiting for the lock on %s", client.GetHost()),
				"")
		case <-time.After(PollInterval):
		}
	}
}

// Release removes the lock directory.
func (l *Lock) Release() error {
	if l == nil || l.client == nil {
		return nil
	}
	return forceRemove(l.client, l.Dir)
}

// ForceRelease removes a lock directory regardless of who holds it, and
// returns a description of the holder it removed ("" if none).
func ForceRelease(client sshutil.SSHClient, lockDir string) (string, error) {
	if client == nil {
		return "", errors.New(errors.ErrLock,
			"Cannot release lock: no connection",
			"Establish an SSH connection first")
	}
	holder, held := readHolder(client, path.Join(lockDir, "info.json"))
	if held == nil && holder == "unknown" {
		holder = ""
	}
	return holder, forceRemove(client, lockDir)
}

func writeInfo(client sshutil.SSHClient, infoFile string, info *LockInfo) error {
	data, err := info.Marshal()
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrLock, "Failed to serialize lock info", "")
	}
	cmd := fmt.Sprintf("printf '%%s\\n' %s > %s", util.ShellQuote(string(data)), util.ShellArg(infoFile))
	_, _, exitCode, err := client.Exec(cmd)
	if err != nil || exitCode != 0 {
		return errors.New(errors.ErrLock,
			fmt.Sprintf("Failed to write %s on %s", infoFile, client.GetHost()),
			"Check disk space and permissions on the host")
	}
	return nil
}

// readHolder describes the lock holder. The parsed info is nil when the file
// is missing or unreadable.
func readHolder(client sshutil.SSHClient, infoFile string) (string, *LockInfo) {
	stdout, _, exitCode, err := client.Exec("cat " + util.ShellArg(infoFile) + " 2>/dev/null")
	if err != nil || exitCode != 0 {
		return "unknown", nil
	}
	info, err := ParseLockInfo(stdout)
	if err != nil {
		if raw := strings.TrimSpace(string(stdout)); raw != "" {
			return raw, nil
		}
		return "unknown", nil
	}
	return info.String(), info
}

func forceRemove(client sshutil.SSHClient, dir string) error {
	_, stderr, exitCode, err := client.Exec("rm -rf " + util.ShellArg(dir))
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrLock,
			fmt.Sprintf("Failed to remove lock directory: %s", dir),
			"Check SSH connection")
	}
	if exitCode != 0 {
		return errors.New(errors.ErrLock,
			fmt.Sprintf("Failed to remove lock directory: %s", dir),
			fmt.Sprintf("Error: %s", strings.TrimSpace(string(stderr))))
	}
	return nil
}
