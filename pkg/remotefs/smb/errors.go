package smb

import (
	"context"
	"errors"
	"io/fs"

	"github.com/hirochachacha/go-smb2"

	"github.com/marmos91/sharegate/pkg/remotefs"
)

// NT status codes that change how a failure is reported.
const (
	statusNoSuchFile         uint32 = 0xC000000F
	statusAccessDenied       uint32 = 0xC0000022
	statusObjectNameInvalid  uint32 = 0xC0000033
	statusObjectNameNotFound uint32 = 0xC0000034
	statusObjectPathNotFound uint32 = 0xC000003A
	statusLogonFailure       uint32 = 0xC000006D
	statusAccountRestriction uint32 = 0xC000006E
	statusPasswordExpired    uint32 = 0xC0000071
	statusAccountDisabled    uint32 = 0xC0000072
	statusBadNetworkName     uint32 = 0xC00000CC
)

func statusOf(err error) (uint32, bool) {
	var rerr *smb2.ResponseError
	if errors.As(err, &rerr) {
		return rerr.Code, true
	}
	return 0, false
}

// translateError maps an SMB failure onto the remotefs taxonomy. Context
// errors are returned unchanged.
func translateError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if errors.Is(err, errLogonRefused) {
		return remotefs.NewError(remotefs.ErrCodeAuthRequired, op, path, err)
	}
	if code, ok := statusOf(err); ok {
		switch code {
		case statusAccessDenied, statusLogonFailure, statusAccountRestriction,
			statusPasswordExpired, statusAccountDisabled:
			return remotefs.NewError(remotefs.ErrCodeAuthRequired, op, path, err)
		case statusObjectNameNotFound, statusObjectPathNotFound, statusObjectNameInvalid,
			statusBadNetworkName, statusNoSuchFile:
			return remotefs.NewError(remotefs.ErrCodeNotFound, op, path, err)
		}
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return remotefs.NewError(remotefs.ErrCodeNotFound, op, path, err)
	case errors.Is(err, fs.ErrPermission):
		return remotefs.NewError(remotefs.ErrCodeAuthRequired, op, path, err)
	}
	return remotefs.NewError(remotefs.ErrCodeIO, op, path, err)
}
