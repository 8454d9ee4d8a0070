package remote

import (
	"context"
	"fmt"
	"path"

	"github.com/melbahja/goph"
	"github.com/pkg/sftp"

	"github.com/kjk/pseudofs/config"
)

// SFTP keeps the container as a file on a server reachable over ssh.
// The server must be in ~/.ssh/known_hosts.
type SFTP struct {
	Host       string
	User       string
	Key        string
	Passphrase string
	Path       string
}

var _ Remote = &SFTP{}

func NewSFTP(c *config.Remote) (*SFTP, error) {
	err := missingFields("sftp", "host", c.Host, "user", c.User, "key", c.Key, "path", c.Path)
	if err != nil {
		return nil, err
	}
	return &SFTP{
		Host:       c.Host,
		User:       c.User,
		Key:        c.Key,
		Passphrase: c.Passphrase,
		Path:       c.Path,
	}, nil
}

func (r *SFTP) String() string {
	return fmt.Sprintf("sftp://%s@%s%s", r.User, r.Host, r.Path)
}

func (r *SFTP) connect(ctx context.Context) (*goph.Client, *sftp.Client, error) {
	// goph doesn't take a context, best we can do is not start
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	auth, err := goph.Key(r.Key, r.Passphrase)
	if err != nil {
		return nil, nil, fmt.Errorf("goph.Key() failed with '%w'", err)
	}
	client, err := goph.New(r.User, r.Host, auth)
	if err != nil {
		return nil, nil, fmt.Errorf("goph.New() failed with '%w'", err)
	}
	sc, err := client.NewSftp()
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("client.NewSftp() failed with '%w'", err)
	}
	return client, sc, nil
}

func (r *SFTP) Push(ctx context.Context, localPath string) error {
	client, sc, err := r.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	defer sc.Close()

	if err = sc.MkdirAll(path.Dir(r.Path)); err != nil {
		return fmt.Errorf("sftp.MkdirAll('%s') failed with '%w'", path.Dir(r.Path), err)
	}
	if err = client.Upload(localPath, r.Path); err != nil {
		return fmt.Errorf("client.Upload() failed with '%w'", err)
	}
	return nil
}

func (r *SFTP) Pull(ctx context.Context, localPath string) error {
	client, sc, err := r.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	defer sc.Close()

	f, err := sc.Open(r.Path)
	if err != nil {
		return fmt.Errorf("sftp.Open('%s') failed with '%w'", r.Path, err)
	}
	defer f.Close()
	return downloadAtomically(localPath, f)
}
