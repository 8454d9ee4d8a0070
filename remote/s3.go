package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/andybalholm/brotli"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kjk/pseudofs/config"
	"github.com/kjk/pseudofs/u"
)

// S3 keeps the container as a single object in an S3-compatible bucket
type S3 struct {
	Client   *minio.Client
	Bucket   string
	Object   string
	Compress bool
}

var _ Remote = &S3{}

func NewS3(ctx context.Context, c *config.Remote) (*S3, error) {
	err := missingFields("s3", "endpoint", c.Endpoint, "bucket", c.Bucket, "access", c.Access, "secret", c.Secret, "path", c.Path)
	if err != nil {
		return nil, err
	}
	mc, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Access, c.Secret, ""),
		Region: c.Region,
		Secure: !c.Insecure,
	})
	if err != nil {
		return nil, err
	}
	found, err := mc.BucketExists(ctx, c.Bucket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bucket '%s' doesn't exist", c.Bucket)
	}
	return &S3{
		Client:   mc,
		Bucket:   c.Bucket,
		Object:   c.Path,
		Compress: c.Compress,
	}, nil
}

// objectName is Object with .br added if compressed
func (r *S3) objectName() string {
	if r.Compress {
		return r.Object + ".br"
	}
	return r.Object
}

func (r *S3) String() string {
	return fmt.Sprintf("s3://%s/%s", r.Bucket, r.objectName())
}

func (r *S3) Push(ctx context.Context, localPath string) error {
	opts := minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	}
	if !r.Compress {
		_, err := r.Client.FPutObject(ctx, r.Bucket, r.Object, localPath, opts)
		return err
	}
	// TODO: use io.Pipe() to do compression more efficiently
	d, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	d, err = u.BrCompressDataBest(d)
	if err != nil {
		return err
	}
	opts.ContentType = "application/octet-stream"
	_, err = r.Client.PutObject(ctx, r.Bucket, r.objectName(), bytes.NewReader(d), int64(len(d)), opts)
	return err
}

func (r *S3) Pull(ctx context.Context, localPath string) error {
	obj, err := r.Client.GetObject(ctx, r.Bucket, r.objectName(), minio.GetObjectOptions{})
	if err != nil {
		return err
	}
	defer obj.Close()
	var rd io.Reader = obj
	if r.Compress {
		rd = brotli.NewReader(obj)
	}
	return downloadAtomically(localPath, rd)
}
