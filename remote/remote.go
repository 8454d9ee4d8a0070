// Package remote copies the whole container file to and from another
// machine: an S3-compatible bucket, an sftp server or an http endpoint.
//
// Push uploads the local container as-is. Pull replaces the local
// container atomically, so a failed download leaves it untouched.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kjk/pseudofs/atomicfile"
	"github.com/kjk/pseudofs/config"
	"github.com/kjk/pseudofs/u"
)

// ErrNotConfigured is returned by New when remote kind is not set
var ErrNotConfigured = errors.New("remote is not configured")

type Remote interface {
	// Push uploads the file at localPath
	Push(ctx context.Context, localPath string) error
	// Pull downloads the remote copy over localPath
	Pull(ctx context.Context, localPath string) error
	String() string
}

// New creates a Remote for c.Kind.
// Missing settings are reported before connecting to anything.
func New(ctx context.Context, c *config.Remote) (Remote, error) {
	if c == nil {
		return nil, ErrNotConfigured
	}
	switch strings.ToLower(c.Kind) {
	case "":
		return nil, ErrNotConfigured
	case "s3":
		return NewS3(ctx, c)
	case "sftp":
		return NewSFTP(c)
	case "http", "https":
		return NewHTTP(c)
	}
	return nil, fmt.Errorf("unknown remote kind '%s', must be s3, sftp or http", c.Kind)
}

func missingFields(kind string, kv ...string) error {
	var missing []string
	for i := 0; i < len(kv); i += 2 {
		if kv[i+1] == "" {
			missing = append(missing, kv[i])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%s remote: must provide %s", kind, strings.Join(missing, ", "))
}

// downloadAtomically replaces localPath with content of r
func downloadAtomically(localPath string, r io.Reader) error {
	if err := u.CreateDirForFile(localPath); err != nil {
		return err
	}
	return atomicfile.WriteFile(localPath, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
}
