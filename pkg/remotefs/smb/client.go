package smb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"strconv"
	"strings"

	"github.com/hirochachacha/go-smb2"

	"github.com/marmos91/sharegate/pkg/remotefs"
)

// conn is an authenticated connection to one server.
type conn interface {
	ListSharenames(ctx context.Context) ([]string, error)
	Mount(ctx context.Context, share string) (mount, error)
	Close() error
}

// mount is one mounted share. Names are relative to the share root and use
// "/" separators; "." is the root.
type mount interface {
	Stat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.FileInfo, error)
	Open(name string) (io.ReadSeekCloser, error)
	Umount() error
}

// GuestUser is the account used when no user name is supplied.
const GuestUser = "guest"

// errLogonRefused marks session setup failures caused by the account rather
// than the transport.
var errLogonRefused = errors.New("logon refused")

// dialFunc opens a conn to host with creds.
type dialFunc func(ctx context.Context, host string, creds remotefs.Credentials) (conn, error)

// dialer builds the production dialFunc over TCP port.
func dialer(port int) dialFunc {
	return func(ctx context.Context, host string, creds remotefs.Credentials) (conn, error) {
		addr := host
		if _, _, err := net.SplitHostPort(host); err != nil {
			addr = net.JoinHostPort(host, strconv.Itoa(port))
		}

		var nd net.Dialer
		tcp, err := nd.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}

		d := &smb2.Dialer{Initiator: initiator(creds)}
		s, err := d.DialContext(ctx, tcp)
		if err != nil {
			_ = tcp.Close()
			if accountError(err) {
				return nil, fmt.Errorf("%w: %w", errLogonRefused, err)
			}
			return nil, err
		}
		return &smbConn{session: s, tcp: tcp}, nil
	}
}

// initiator builds the NTLM initiator for creds. go-smb2 cannot log on
// anonymously, so an empty user becomes the guest account.
func initiator(creds remotefs.Credentials) *smb2.NTLMInitiator {
	user := creds.User
	if user == "" {
		user = GuestUser
	}
	return &smb2.NTLMInitiator{
		User:     user,
		Password: creds.Password,
		Domain:   creds.Domain,
	}
}

// accountError reports whether a session setup failure was raised by the
// client about the account in use, e.g. a guest logon the server wants
// signed. NT status refusals are classified by translateError.
func accountError(err error) bool {
	var ierr *smb2.InternalError
	var rerr *smb2.InvalidResponseError
	switch {
	case errors.As(err, &ierr):
		return strings.Contains(ierr.Error(), "account")
	case errors.As(err, &rerr):
		return strings.Contains(rerr.Error(), "account")
	}
	return false
}

type smbConn struct {
	session *smb2.Session
	tcp     net.Conn
}

func (c *smbConn) ListSharenames(ctx context.Context) ([]string, error) {
	return c.session.WithContext(ctx).ListSharenames()
}

func (c *smbConn) Mount(ctx context.Context, share string) (mount, error) {
	sh, err := c.session.WithContext(ctx).Mount(share)
	if err != nil {
		return nil, err
	}
	return &smbMount{share: sh.WithContext(ctx)}, nil
}

func (c *smbConn) Close() error {
	_ = c.session.Logoff()
	return c.tcp.Close()
}

type smbMount struct {
	share *smb2.Share
}

func (m *smbMount) Stat(name string) (fs.FileInfo, error)      { return m.share.Stat(smbPath(name)) }
func (m *smbMount) ReadDir(name string) ([]fs.FileInfo, error) { return m.share.ReadDir(smbPath(name)) }
func (m *smbMount) Umount() error                              { return m.share.Umount() }

func (m *smbMount) Open(name string) (io.ReadSeekCloser, error) {
	return m.share.Open(smbPath(name))
}

// smbPath converts a share-relative slash path to the form go-smb2 expects.
func smbPath(name string) string {
	if name == "." {
		return ""
	}
	return strings.ReplaceAll(name, "/", `\`)
}
