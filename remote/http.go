package remote

import (
	"context"
	"io"
	"os"

	"github.com/carlmjohnson/requests"

	"github.com/kjk/pseudofs/atomicfile"
	"github.com/kjk/pseudofs/config"
	"github.com/kjk/pseudofs/u"
)

// HTTP keeps the container at a URL that accepts PUT and GET,
// e.g. a WebDAV share
type HTTP struct {
	URL string
	// optional, sent as "Authorization: Bearer <token>"
	Token string
}

var _ Remote = &HTTP{}

func NewHTTP(c *config.Remote) (*HTTP, error) {
	if err := missingFields("http", "url", c.URL); err != nil {
		return nil, err
	}
	return &HTTP{
		URL:   c.URL,
		Token: c.Token,
	}, nil
}

func (r *HTTP) String() string {
	return r.URL
}

func (r *HTTP) request() *requests.Builder {
	rb := requests.URL(r.URL)
	if r.Token != "" {
		rb = rb.Bearer(r.Token)
	}
	return rb
}

func (r *HTTP) Push(ctx context.Context, localPath string) error {
	d, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	return r.request().
		Put().
		BodyBytes(d).
		ContentType("text/plain; charset=utf-8").
		Fetch(ctx)
}

func (r *HTTP) Pull(ctx context.Context, localPath string) error {
	if err := u.CreateDirForFile(localPath); err != nil {
		return err
	}
	// non-2xx response is an error and cancels the write
	return atomicfile.WriteFile(localPath, func(w io.Writer) error {
		return r.request().ToWriter(w).Fetch(ctx)
	})
}
