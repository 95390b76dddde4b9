package host

import (
	"fmt"
	"strings"
)

// ProbeError is a failed connection attempt with a categorized reason.
type ProbeError struct {
	Address string
	Reason  ProbeFailReason
	Cause   error
}

// ProbeFailReason categorizes why a connection attempt failed.
type ProbeFailReason int

const (
	ProbeFailUnknown ProbeFailReason = iota
	ProbeFailTimeout
	ProbeFailRefused
	ProbeFailUnreachable
	ProbeFailAuth
	ProbeFailHostKey
)

// String returns a human-readable description of the failure reason.
func (r ProbeFailReason) String() string {
	switch r {
	case ProbeFailTimeout:
		return "connection timed out"
	case ProbeFailRefused:
		return "connection refused"
	case ProbeFailUnreachable:
		return "host unreachable"
	case ProbeFailAuth:
		return "authentication failed"
	case ProbeFailHostKey:
		return "host key verification failed"
	default:
		return "unknown error"
	}
}

func (e *ProbeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("connecting to %s failed: %s (%v)", e.Address, e.Reason, e.Cause)
	}
	return fmt.Sprintf("connecting to %s failed: %s", e.Address, e.Reason)
}

func (e *ProbeError) Unwrap() error {
	return e.Cause
}

// categorizeProbeError converts a dial error into a ProbeError. Returns nil
// for a nil error.
func categorizeProbeError(address string, err error) *ProbeError {
	if err == nil {
		return nil
	}

	probeErr := &ProbeError{
		Address: address,
		Reason:  ProbeFailUnknown,
		Cause:   err,
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "timeout"):
		probeErr.Reason = ProbeFailTimeout
	case strings.Contains(errStr, "connection refused"):
		probeErr.Reason = ProbeFailRefused
	case strings.Contains(errStr, "no route to host"),
		strings.Contains(errStr, "network is unreachable"),
		strings.Contains(errStr, "host is down"):
		probeErr.Reason = ProbeFailUnreachable
	case strings.Contains(errStr, "unable to authenticate"),
		strings.Contains(errStr, "no supported methods"),
		strings.Contains(errStr, "permission denied"),
		strings.Contains(errStr, "authentication failed"),
		strings.Contains(errStr, "no ssh auth methods"):
		probeErr.Reason = ProbeFailAuth
	case strings.Contains(errStr, "host key"):
		probeErr.Reason = ProbeFailHostKey
	}

	return probeErr
}
