package discover

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	getter "github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/teranos/declgen/errors"
	"github.com/teranos/declgen/logger"
)

// IsRemote reports whether src names something go-getter must download
// rather than a local file.
func IsRemote(src string) bool {
	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}
	detected, err := getter.Detect(src, pwd, getter.Detectors)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(detected, "file://")
}

// Fetch downloads a single remote file into a temp directory. The returned
// cleanup removes it and must be called when the caller is done.
//
// Supports whatever go-getter detects: https URLs, git::, s3::, gcs:: and
// GitHub shorthand with a //subpath.
func Fetch(ctx context.Context, src string, l *zap.SugaredLogger) (string, func(), error) {
	l = logger.OrNop(l)

	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}
	detected, err := getter.Detect(src, pwd, getter.Detectors)
	if err != nil {
		return "", nil, errors.Wrapf(err, "failed to detect source type of %s", src)
	}

	tempDir, err := os.MkdirTemp("", "declgen-fetch-*")
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to create temp directory")
	}
	cleanup := func() {
		if err := os.RemoveAll(tempDir); err != nil {
			l.Warnw("Failed to remove fetched manifest", logger.FieldPath, tempDir, logger.FieldError, err)
		}
	}

	dst := filepath.Join(tempDir, "manifest")
	l.Infow("Fetching manifest",
		logger.FieldSource, src,
		"detected", detected,
	)

	client := &getter.Client{
		Ctx:     ctx,
		Src:     detected,
		Dst:     dst,
		Pwd:     pwd,
		Mode:    getter.ClientModeFile,
		Getters: getter.Getters,
	}
	if err := client.Get(); err != nil {
		cleanup()
		return "", nil, errors.WithHint(
			errors.Wrapf(err, "failed to fetch %s", src),
			"check the URL and network access, or download the manifest and point discover.path at it",
		)
	}

	return dst, cleanup, nil
}
