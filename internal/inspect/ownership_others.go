//go:build !unix

package inspect

import (
	"io/fs"

	"github.com/temirov/fsaudit/internal/rules"
)

func ownershipFromFileInfo(fileInformation fs.FileInfo) *rules.Ownership {
	return nil
}
