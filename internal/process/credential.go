package process

import (
	"log/slog"
	"os/user"
	"strconv"
	"syscall"
)

// ResolveCredential resolves a configured login name to a syscall.Credential.
// An empty name means "run as the daemon's own user" (nil credential, no
// syscall attr change). If the name does not resolve to a known user, the
// daemon's own uid/gid is used instead and a warning is logged: per the
// spawn recipe in §4.1, a resolution failure degrades rather than aborts
// the spawn.
func ResolveCredential(name string, logger *slog.Logger) *syscall.Credential {
	if name == "" {
		return nil
	}

	u, err := user.Lookup(name)
	if err != nil {
		// Also accept a bare numeric uid, since configs sometimes specify
		// one directly instead of a login name.
		if uid, convErr := strconv.ParseUint(name, 10, 32); convErr == nil {
			return &syscall.Credential{Uid: uint32(uid), Gid: uint32(uid)}
		}
		if logger != nil {
			logger.Warn("cannot resolve user, falling back to daemon uid",
				"user", name, "error", err)
		}
		return nil
	}

	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		if logger != nil {
			logger.Warn("user has non-numeric uid, falling back to daemon uid",
				"user", name, "uid", u.Uid)
		}
		return nil
	}
	gid, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		gid = uid
	}

	return &syscall.Credential{Uid: uint32(uid), Gid: uint32(gid)}
}

// BuildSysProcAttr builds the SysProcAttr for a spawned child: process
// group isolation plus an optional credential switch.
func BuildSysProcAttr(user string, logger *slog.Logger) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{Setpgid: true}
	if cred := ResolveCredential(user, logger); cred != nil {
		attr.Credential = cred
	}
	return attr
}
