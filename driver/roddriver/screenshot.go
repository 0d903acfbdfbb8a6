package roddriver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/domfind/idgen"
)

// ScreenshotCapture stores exhaustion diagnostics as a PNG of the page
// next to the rendered description. It satisfies the Finder's capture
// contract, so a session can keep visual evidence of what the page
// looked like when a chain died.
type ScreenshotCapture struct {
	page   *rod.Page
	dir    string
	newID  idgen.Generator
	logger *slog.Logger
}

// NewScreenshotCapture creates the capture directory if needed. A nil
// logger means slog.Default.
func NewScreenshotCapture(page *rod.Page, dir string, logger *slog.Logger) (*ScreenshotCapture, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("roddriver: capture dir: %w", err)
	}
	return &ScreenshotCapture{
		page:   page,
		dir:    dir,
		newID:  idgen.Prefixed("shot_", idgen.UUIDv7()),
		logger: logger,
	}, nil
}

// CaptureFailure writes <ref>.png and <ref>.txt under the capture
// directory and returns the ref.
func (c *ScreenshotCapture) CaptureFailure(ctx context.Context, description string) (string, error) {
	ref := c.newID()

	img, err := c.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return "", fmt.Errorf("roddriver: screenshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, ref+".png"), img, 0o644); err != nil {
		return "", fmt.Errorf("roddriver: write screenshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, ref+".txt"), []byte(description), 0o644); err != nil {
		return "", fmt.Errorf("roddriver: write description: %w", err)
	}

	c.logger.Info("roddriver: failure captured", "ref", ref, "dir", c.dir)
	return ref, nil
}
