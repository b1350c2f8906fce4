package inspect

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Inspector resolves path observations against the live filesystem.
type Inspector struct{}

// NewInspector constructs a filesystem-backed inspector.
func NewInspector() *Inspector {
	return &Inspector{}
}

// Inspect observes the path itself without following symlinks. For symlinks
// the link target string is recorded and the resolved target is observed one
// level deep, since policy may apply to either side of the link.
func (inspector *Inspector) Inspect(path string) Observation {
	observation := Observation{Path: path}

	fileInformation, statError := os.Lstat(path)
	if statError != nil {
		observation.AccessError = classifyAccessError(statError)
		if observation.AccessError.Kind == AccessErrorNotFound {
			observation.Kind = KindMissing
		} else {
			observation.Kind = KindOther
		}
		return observation
	}

	observation.Kind = kindFromFileMode(fileInformation.Mode())
	permissionBits := fileInformation.Mode() & fs.ModePerm
	observation.Mode = &permissionBits
	observation.Owner = ownershipFromFileInfo(fileInformation)

	if observation.Kind == KindSymlink {
		linkTarget, readLinkError := os.Readlink(path)
		if readLinkError != nil {
			observation.AccessError = classifyAccessError(readLinkError)
			return observation
		}
		observation.LinkTarget = linkTarget

		targetObservation := inspector.inspectResolved(path)
		observation.Target = &targetObservation
	}

	return observation
}

// inspectResolved observes a path with symlinks fully resolved. Dangling or
// looping links surface as access failures on the target observation.
func (inspector *Inspector) inspectResolved(path string) Observation {
	observation := Observation{Path: path}

	fileInformation, statError := os.Stat(path)
	if statError != nil {
		observation.AccessError = classifyAccessError(statError)
		if observation.AccessError.Kind == AccessErrorNotFound {
			observation.Kind = KindMissing
		} else {
			observation.Kind = KindOther
		}
		return observation
	}

	observation.Kind = kindFromFileMode(fileInformation.Mode())
	permissionBits := fileInformation.Mode() & fs.ModePerm
	observation.Mode = &permissionBits
	observation.Owner = ownershipFromFileInfo(fileInformation)
	return observation
}

// Canonicalize resolves a path to its absolute, symlink-free form used for
// cycle detection during traversal.
func (inspector *Inspector) Canonicalize(path string) (string, error) {
	absolutePath, absoluteError := filepath.Abs(path)
	if absoluteError != nil {
		return "", absoluteError
	}
	canonicalPath, resolveError := filepath.EvalSymlinks(absolutePath)
	if resolveError != nil {
		return "", resolveError
	}
	return canonicalPath, nil
}

func kindFromFileMode(mode fs.FileMode) Kind {
	switch {
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	case mode.IsDir():
		return KindDirectory
	case mode.IsRegular():
		return KindFile
	default:
		return KindOther
	}
}
