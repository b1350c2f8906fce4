package rules

import (
	"errors"
	"io/fs"
	"strings"
)

// Profile selects a built-in group of audit rules.
type Profile string

// Built-in audit profiles covering common Linux security baselines.
const (
	ProfileUser    Profile = "user"
	ProfileSystem  Profile = "sys"
	ProfileNetwork Profile = "net"
	ProfileLog     Profile = "log"
	ProfileAll     Profile = "all"
)

// ErrUnknownProfile reports a profile name outside the built-in set.
var ErrUnknownProfile = errors.New("unknown audit profile")

// ParseProfile normalizes a textual profile name.
func ParseProfile(raw string) (Profile, error) {
	normalized := Profile(strings.ToLower(strings.TrimSpace(raw)))
	switch normalized {
	case ProfileUser, ProfileSystem, ProfileNetwork, ProfileLog, ProfileAll:
		return normalized, nil
	default:
		return "", ErrUnknownProfile
	}
}

func modeRule(path string, mode fs.FileMode, importance Importance, recursive bool) Rule {
	return Rule{
		Path:         path,
		ExpectedMode: ModePointer(mode),
		Importance:   importance,
		Recursive:    recursive,
	}
}

// treeRule audits a directory subtree whose files and directories carry
// different expected modes, the common 644-file/755-directory layout.
func treeRule(path string, fileMode fs.FileMode, directoryMode fs.FileMode, importance Importance) Rule {
	return Rule{
		Path:          path,
		ExpectedMode:  ModePointer(fileMode),
		DirectoryMode: ModePointer(directoryMode),
		Importance:    importance,
		Recursive:     true,
	}
}

// UserRules audits user-management and authentication files.
func UserRules() []Rule {
	return []Rule{
		modeRule("/etc/passwd", 0o644, ImportanceMedium, false),
		modeRule("/etc/shadow", 0o600, ImportanceHigh, false),
		modeRule("/etc/group", 0o644, ImportanceMedium, false),
		modeRule("/etc/gshadow", 0o600, ImportanceHigh, false),
		modeRule("/etc/sudoers", 0o440, ImportanceHigh, false),
		treeRule("/etc/pam.d", 0o644, 0o755, ImportanceHigh),
	}
}

// SystemRules audits boot and system configuration files.
func SystemRules() []Rule {
	return []Rule{
		modeRule("/boot/grub/grub.cfg", 0o640, ImportanceHigh, false),
		modeRule("/etc/fstab", 0o644, ImportanceMedium, false),
		modeRule("/etc/sysctl.conf", 0o644, ImportanceMedium, false),
		treeRule("/etc/systemd", 0o644, 0o755, ImportanceHigh),
	}
}

// NetworkRules audits network configuration files.
func NetworkRules() []Rule {
	return []Rule{
		modeRule("/etc/hosts", 0o644, ImportanceLow, false),
		modeRule("/etc/resolv.conf", 0o644, ImportanceLow, false),
		modeRule("/etc/network/interfaces", 0o644, ImportanceMedium, false),
	}
}

// LogRules audits login accounting files.
func LogRules() []Rule {
	return []Rule{
		modeRule("/var/log/wtmp", 0o664, ImportanceHigh, false),
		modeRule("/var/log/btmp", 0o664, ImportanceHigh, false),
	}
}

// ProfileRules resolves the rule set for a built-in profile.
func ProfileRules(profile Profile) ([]Rule, error) {
	switch profile {
	case ProfileUser:
		return UserRules(), nil
	case ProfileSystem:
		return SystemRules(), nil
	case ProfileNetwork:
		return NetworkRules(), nil
	case ProfileLog:
		return LogRules(), nil
	case ProfileAll:
		combined := UserRules()
		combined = append(combined, SystemRules()...)
		combined = append(combined, NetworkRules()...)
		combined = append(combined, LogRules()...)
		return combined, nil
	default:
		return nil, ErrUnknownProfile
	}
}
