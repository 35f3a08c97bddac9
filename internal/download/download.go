// Package download saves a generated image to disk through the backend's
// image proxy, falling back to opening the image in a browser.
package download

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/wethinkt/go-yesand/internal/tuilog"
)

// FileName is the name the backend suggests for downloaded images.
const FileName = "yesand.png"

const maxSuffix = 1000

// Source fetches images. *api.Client implements it.
type Source interface {
	ProxyDownloadURL(imageURL string) string
	FetchImage(ctx context.Context, rawURL string) ([]byte, string, error)
}

// Saver writes images into a directory.
type Saver struct {
	src  Source
	dir  string
	open func(rawURL string) error
}

// Option configures a Saver.
type Option func(*Saver)

// WithOpener replaces the browser launcher used as the fallback.
func WithOpener(open func(rawURL string) error) Option {
	return func(s *Saver) { s.open = open }
}

// NewSaver returns a Saver that writes into dir.
func NewSaver(src Source, dir string, opts ...Option) *Saver {
	s := &Saver{src: src, dir: dir, open: OpenBrowser}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the download directory.
func (s *Saver) Dir() string { return s.dir }

// Save downloads imageURL through the proxy and writes it to the first free
// name among yesand.png, yesand-1.png, yesand-2.png and so on. If that
// fails the original URL is opened in a browser instead; the returned error
// reports the download failure together with any fallback failure.
func (s *Saver) Save(ctx context.Context, imageURL string) (string, error) {
	path, err := s.save(ctx, imageURL)
	if err == nil {
		tuilog.Log.Info("image downloaded", "path", path)
		return path, nil
	}
	tuilog.Log.Warn("image download failed, opening in browser", "error", err)
	if openErr := s.open(imageURL); openErr != nil {
		return "", errors.Join(err, fmt.Errorf("open browser: %w", openErr))
	}
	return "", err
}

func (s *Saver) save(ctx context.Context, imageURL string) (string, error) {
	data, _, err := s.src.FetchImage(ctx, s.src.ProxyDownloadURL(imageURL))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	f, path, err := createFree(s.dir)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// createFree exclusively creates the first unused download name in dir.
func createFree(dir string) (*os.File, string, error) {
	ext := filepath.Ext(FileName)
	stem := FileName[:len(FileName)-len(ext)]
	for i := 0; i < maxSuffix; i++ {
		name := FileName
		if i > 0 {
			name = stem + "-" + strconv.Itoa(i) + ext
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("create %s: %w", path, err)
		}
		return f, path, nil
	}
	return nil, "", fmt.Errorf("no free file name in %s", dir)
}

// OpenBrowser opens rawURL with the platform's default handler.
func OpenBrowser(rawURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command("xdg-open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return fmt.Errorf("no browser launcher for %s", runtime.GOOS)
	}
	return cmd.Start()
}
