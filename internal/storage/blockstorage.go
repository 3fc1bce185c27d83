package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/iquiquesec/ciberseguridad/config"
)

// BlockStorage keeps exported report documents.
type BlockStorage interface {
	GetFile(ctx context.Context, fileName string) ([]byte, error)
	SaveFile(ctx context.Context, fileName string, content []byte) error
	Exist(ctx context.Context, fileName string) (bool, error)
}

type S3BlockStorage struct {
	cfg      config.BlockStorageConfig
	s3Client *s3.S3
	logger   *logrus.Entry
}

var _ BlockStorage = (*S3BlockStorage)(nil)

func NewS3BlockStorage(cfg config.BlockStorageConfig) (*S3BlockStorage, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(cfg.Region),
		Endpoint:         aws.String(cfg.Host),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 session: %w", err)
	}
	return &S3BlockStorage{
		cfg:      cfg,
		s3Client: s3.New(sess),
		logger:   logrus.WithField("module", "block_storage"),
	}, nil
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound"
	}
	return false
}

func (bs *S3BlockStorage) Exist(ctx context.Context, fileName string) (bool, error) {
	_, err := bs.s3Client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bs.cfg.Bucket),
		Key:    aws.String(fileName),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check if file exists: %w", err)
	}
	return true, nil
}

// SaveFile uploads content, retrying up to three times.
func (bs *S3BlockStorage) SaveFile(ctx context.Context, fileName string, content []byte) error {
	var err error
	for i := 0; i < 3; i++ {
		if err = bs.upload(ctx, fileName, content); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		bs.logger.WithError(err).WithField("attempt", i+1).Warn("upload failed")
	}
	return err
}

func (bs *S3BlockStorage) upload(ctx context.Context, fileName string, content []byte) error {
	output, err := bs.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bs.cfg.Bucket),
		Key:           aws.String(fileName),
		Body:          aws.ReadSeekCloser(bytes.NewReader(content)),
		ContentLength: aws.Int64(int64(len(content))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", fileName, err)
	}
	bs.logger.WithFields(logrus.Fields{
		"file":       fileName,
		"bucket":     bs.cfg.Bucket,
		"version_id": aws.StringValue(output.VersionId),
	}).Info("file uploaded")
	return nil
}

func (bs *S3BlockStorage) GetFile(ctx context.Context, fileName string) ([]byte, error) {
	output, err := bs.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bs.cfg.Bucket),
		Key:    aws.String(fileName),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", fileName, err)
	}
	defer func() {
		if err := output.Body.Close(); err != nil {
			bs.logger.Error(err)
		}
	}()
	return io.ReadAll(output.Body)
}

// LocalBlockStorage keeps files under a directory. It is used when no bucket
// is configured.
type LocalBlockStorage struct {
	dir string
}

var _ BlockStorage = (*LocalBlockStorage)(nil)

func NewLocalBlockStorage(dir string) (*LocalBlockStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &LocalBlockStorage{dir: dir}, nil
}

func (l *LocalBlockStorage) path(fileName string) (string, error) {
	clean := filepath.Clean("/" + fileName)
	if clean == "/" || strings.Contains(fileName, "..") {
		return "", fmt.Errorf("invalid file name %q", fileName)
	}
	return filepath.Join(l.dir, clean), nil
}

func (l *LocalBlockStorage) GetFile(ctx context.Context, fileName string) ([]byte, error) {
	p, err := l.path(fileName)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", fileName, err)
	}
	return content, nil
}

func (l *LocalBlockStorage) SaveFile(ctx context.Context, fileName string, content []byte) error {
	p, err := l.path(fileName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", fileName, err)
	}
	if err := os.WriteFile(p, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", fileName, err)
	}
	return nil
}

func (l *LocalBlockStorage) Exist(ctx context.Context, fileName string) (bool, error) {
	p, err := l.path(fileName)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", fileName, err)
	}
	return true, nil
}

// NewBlockStorage returns S3 storage when a bucket is configured and local
// storage under cfg.LocalPath otherwise.
func NewBlockStorage(cfg config.BlockStorageConfig) (BlockStorage, error) {
	if cfg.Enabled() {
		return NewS3BlockStorage(cfg)
	}
	dir := cfg.LocalPath
	if dir == "" {
		dir = "data/reports"
	}
	return NewLocalBlockStorage(dir)
}
