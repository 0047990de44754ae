// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package output provides the destinations a dump script is written to.
// A destination only exposes the script once it is committed.
package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/rs/zerolog/log"

	"github.com/uyuni-project/masked-dump/config"
	"github.com/uyuni-project/masked-dump/utils"
)

const partialSuffix = ".partial"

var errAborted = errors.New("dump aborted")

// Sink receives the script. Exactly one of Commit or Abort must be called.
type Sink interface {
	io.Writer
	Commit() error
	Abort() error
}

// Open returns the sink described by the configuration
func Open(ctx context.Context, cfg config.Output) (Sink, error) {
	var (
		sink Sink
		name string
		err  error
	)
	switch {
	case cfg.S3.Enabled():
		name = cfg.S3.Key
		uploader, uerr := newS3Uploader(cfg.S3)
		if uerr != nil {
			return nil, uerr
		}
		sink = NewS3Sink(ctx, uploader, cfg.S3.Bucket, cfg.S3.Key)
	case cfg.Path == config.StdoutPath:
		name = cfg.Path
		sink = NewWriterSink(os.Stdout)
	default:
		name = cfg.Path
		if sink, err = NewFileSink(cfg.Path); err != nil {
			return nil, err
		}
	}

	if cfg.Gzip || strings.HasSuffix(name, ".gz") {
		sink = NewGzipSink(sink)
	}
	log.Debug().Str("output", name).Bool("gzip", cfg.Gzip).Msg("output opened")
	return sink, nil
}

// fileSink writes next to the destination and renames on commit,
// so that the destination never holds an incomplete script
type fileSink struct {
	file    *os.File
	path    string
	partial string
}

func NewFileSink(path string) (Sink, error) {
	path = utils.GetAbsPath(path)
	if err := utils.FolderExists(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("output folder: %w", err)
	}
	partial := path + partialSuffix
	file, err := os.Create(partial)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return &fileSink{file: file, path: path, partial: partial}, nil
}

func (s *fileSink) Write(p []byte) (int, error) {
	return s.file.Write(p)
}

func (s *fileSink) Commit() error {
	if err := s.file.Close(); err != nil {
		os.Remove(s.partial)
		return fmt.Errorf("close output file: %w", err)
	}
	if err := os.Rename(s.partial, s.path); err != nil {
		return fmt.Errorf("move output file in place: %w", err)
	}
	return nil
}

func (s *fileSink) Abort() error {
	s.file.Close()
	if err := os.Remove(s.partial); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove partial output: %w", err)
	}
	return nil
}

// writerSink forwards to a plain writer; committing and aborting are no-ops
type writerSink struct {
	io.Writer
}

func NewWriterSink(w io.Writer) Sink {
	return &writerSink{Writer: w}
}

func (s *writerSink) Commit() error {
	return nil
}

func (s *writerSink) Abort() error {
	return nil
}

// gzipSink compresses with parallel gzip before handing data to the inner sink
type gzipSink struct {
	gz    *pgzip.Writer
	inner Sink
}

func NewGzipSink(inner Sink) Sink {
	return &gzipSink{gz: pgzip.NewWriter(inner), inner: inner}
}

func (s *gzipSink) Write(p []byte) (int, error) {
	return s.gz.Write(p)
}

func (s *gzipSink) Commit() error {
	if err := s.gz.Close(); err != nil {
		s.inner.Abort()
		return fmt.Errorf("close gzip stream: %w", err)
	}
	return s.inner.Commit()
}

func (s *gzipSink) Abort() error {
	s.gz.Close()
	return s.inner.Abort()
}
