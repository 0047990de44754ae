package output

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/uyuni-project/masked-dump/config"
)

func newS3Uploader(cfg config.S3) (s3manageriface.UploaderAPI, error) {
	ses, err := session.NewSession()
	if err != nil {
		return nil, fmt.Errorf("cannot establish session: %w", err)
	}

	awsCfg := aws.NewConfig()
	awsCfg.WithS3ForcePathStyle(cfg.ForcePathStyle)
	if cfg.Endpoint != "" {
		awsCfg.WithEndpoint(cfg.Endpoint)
	}
	if cfg.Region != "" {
		awsCfg.WithRegion(cfg.Region)
	}

	service := s3.New(ses, awsCfg)
	log.Debug().Str("bucket", cfg.Bucket).Str("key", cfg.Key).Msg("s3 output")
	return s3manager.NewUploaderWithClient(service), nil
}

// s3Sink streams the script into a multipart upload while it is being written
type s3Sink struct {
	writer *io.PipeWriter
	group  *errgroup.Group
}

func NewS3Sink(ctx context.Context, uploader s3manageriface.UploaderAPI, bucket string, key string) Sink {
	reader, writer := io.Pipe()
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		_, err := uploader.UploadWithContext(gctx, &s3manager.UploadInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   reader,
		})
		if err != nil {
			err = fmt.Errorf("s3 object uploading error: %w", err)
		}
		// unblocks the writer when the upload stops early
		reader.CloseWithError(err)
		return err
	})
	return &s3Sink{writer: writer, group: group}
}

func (s *s3Sink) Write(p []byte) (int, error) {
	return s.writer.Write(p)
}

// Commit ends the stream and waits for the upload to complete
func (s *s3Sink) Commit() error {
	s.writer.Close()
	return s.group.Wait()
}

// Abort fails the stream, so that the uploader discards the parts already sent
func (s *s3Sink) Abort() error {
	s.writer.CloseWithError(errAborted)
	s.group.Wait()
	return nil
}
