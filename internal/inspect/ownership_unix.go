//go:build unix

package inspect

import (
	"io/fs"
	"syscall"

	"github.com/temirov/fsaudit/internal/rules"
)

func ownershipFromFileInfo(fileInformation fs.FileInfo) *rules.Ownership {
	statValue, supported := fileInformation.Sys().(*syscall.Stat_t)
	if !supported {
		return nil
	}
	return &rules.Ownership{UserID: statValue.Uid, GroupID: statValue.Gid}
}
