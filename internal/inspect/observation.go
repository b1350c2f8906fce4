package inspect

import (
	"errors"
	"io/fs"

	"github.com/temirov/fsaudit/internal/rules"
)

// Kind classifies the on-disk object type of an observed path.
type Kind string

// Observed path kinds.
const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
	KindSymlink   Kind = "symlink"
	KindMissing   Kind = "missing"
	KindOther     Kind = "other"
)

// AccessErrorKind classifies why a path could not be observed.
type AccessErrorKind string

// Access failure classifications.
const (
	AccessErrorPermissionDenied AccessErrorKind = "permission-denied"
	AccessErrorNotFound         AccessErrorKind = "not-found"
	AccessErrorOther            AccessErrorKind = "other"
)

// AccessFailure records a classified failure to observe a path.
type AccessFailure struct {
	Kind    AccessErrorKind `json:"kind" yaml:"kind"`
	Message string          `json:"message" yaml:"message"`
}

// Observation captures the measured state of one path at audit time. It is
// transient: recomputed on every run and never cached, because the filesystem
// is the source of truth and may change between runs.
type Observation struct {
	Path        string           `json:"path" yaml:"path"`
	Kind        Kind             `json:"kind" yaml:"kind"`
	Mode        *fs.FileMode     `json:"mode,omitempty" yaml:"mode,omitempty"`
	Owner       *rules.Ownership `json:"owner,omitempty" yaml:"owner,omitempty"`
	LinkTarget  string           `json:"link_target,omitempty" yaml:"link_target,omitempty"`
	Target      *Observation     `json:"target,omitempty" yaml:"target,omitempty"`
	AccessError *AccessFailure   `json:"access_error,omitempty" yaml:"access_error,omitempty"`
}

// Accessible reports whether the path was observed without an access failure.
func (observation Observation) Accessible() bool {
	return observation.AccessError == nil
}

// PermissionBits returns the permission bits of the observed node, or zero
// when no mode was observed.
func (observation Observation) PermissionBits() fs.FileMode {
	if observation.Mode == nil {
		return 0
	}
	return *observation.Mode & fs.ModePerm
}

func classifyAccessError(accessError error) *AccessFailure {
	if accessError == nil {
		return nil
	}

	failure := AccessFailure{Kind: AccessErrorOther, Message: accessError.Error()}
	switch {
	case errors.Is(accessError, fs.ErrNotExist):
		failure.Kind = AccessErrorNotFound
	case errors.Is(accessError, fs.ErrPermission):
		failure.Kind = AccessErrorPermissionDenied
	}
	return &failure
}
