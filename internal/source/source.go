// Package source opens raw catalogue files for the parser.
//
// A source reference is either a path (relative paths resolve against the
// data directory) or an s3://bucket/key URI. Whatever the origin, Open
// returns a UTF-8 byte stream: gzip is detected by its magic bytes and
// decompressed, and byte-order marks are removed (UTF-16 input is
// transcoded). Per-line legacy encodings are handled by the parser.
package source

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// S3Getter is the subset of the S3 client the opener needs.
type S3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ErrNoS3Client is returned when an s3:// reference is opened without a client.
var ErrNoS3Client = errors.New("s3 source requested but no S3 client configured")

// Opener resolves and opens source references.
type Opener struct {
	DataDir string
	S3      S3Getter
}

// Open returns a decoded UTF-8 stream for ref. A missing local file
// yields an error wrapping fs.ErrNotExist.
func (o *Opener) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	raw, err := o.openRaw(ctx, ref)
	if err != nil {
		return nil, err
	}

	rc, err := Decode(raw)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("open %s: %w", ref, err)
	}
	return rc, nil
}

// Resolve returns the local path for a relative reference.
func (o *Opener) Resolve(ref string) string {
	if IsS3(ref) || filepath.IsAbs(ref) || o.DataDir == "" {
		return ref
	}
	return filepath.Join(o.DataDir, ref)
}

// Glob lists local files matching pattern, resolved against the data
// directory, in lexical order.
func (o *Opener) Glob(pattern string) ([]string, error) {
	if IsS3(pattern) {
		return nil, fmt.Errorf("glob %s: patterns are only supported for local files", pattern)
	}
	matches, err := filepath.Glob(o.Resolve(pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func (o *Opener) openRaw(ctx context.Context, ref string) (io.ReadCloser, error) {
	if IsS3(ref) {
		bucket, key, err := splitS3(ref)
		if err != nil {
			return nil, err
		}
		if o.S3 == nil {
			return nil, fmt.Errorf("open %s: %w", ref, ErrNoS3Client)
		}
		out, err := o.S3.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", ref, err)
		}
		return out.Body, nil
	}

	f, err := os.Open(o.Resolve(ref))
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	return f, nil
}

// IsS3 reports whether ref is an s3:// URI.
func IsS3(ref string) bool {
	return strings.HasPrefix(ref, "s3://")
}

func splitS3(ref string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(ref, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 reference %q: want s3://bucket/key", ref)
	}
	return bucket, key, nil
}

// Decode wraps raw so that reads yield decompressed, BOM-free UTF-8.
// Closing the result closes raw.
func Decode(raw io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(raw)
	var r io.Reader = br

	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("peek: %w", err)
	}
	var gz *gzip.Reader
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err = gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		r = gz
	}

	r = transform.NewReader(r, unicode.BOMOverride(transform.Nop))
	return &decoded{Reader: r, gz: gz, raw: raw}, nil
}

type decoded struct {
	io.Reader
	gz  *gzip.Reader
	raw io.Closer
}

func (d *decoded) Close() error {
	var gzErr error
	if d.gz != nil {
		gzErr = d.gz.Close()
	}
	return errors.Join(gzErr, d.raw.Close())
}
