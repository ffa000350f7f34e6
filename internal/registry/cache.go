package registry

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"nodekit/internal/apperr"
	"nodekit/internal/fsutil"
)

// DefaultMaxAge applies when the response carries neither Expires nor
// Cache-Control max-age.
const DefaultMaxAge = 4 * time.Hour

const (
	indexFile   = "index.json"
	expirySfx   = ".expires"
	cacheSubdir = "node"
)

// IndexCache keeps the last fetched Node index and its expiry as two sibling
// files under Dir. A record is trusted only while now is strictly before the
// stored expiry and both files are readable.
type IndexCache struct {
	Dir    string
	Client *Client
	Now    func() time.Time
	Logger *log.Logger
}

func NewIndexCache(cacheDir string, client *Client, logger *log.Logger) *IndexCache {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &IndexCache{
		Dir:    filepath.Join(cacheDir, cacheSubdir),
		Client: client,
		Now:    time.Now,
		Logger: logger,
	}
}

func (c *IndexCache) payloadPath() string { return filepath.Join(c.Dir, indexFile) }

func (c *IndexCache) expiryPath() string { return c.payloadPath() + expirySfx }

func (c *IndexCache) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// NodeIndex returns the Node index, from cache when valid and from url
// otherwise.
func (c *IndexCache) NodeIndex(ctx context.Context, url string) (NodeIndex, error) {
	if idx, ok := c.readCached(); ok {
		c.Logger.Debug("node index cache hit", "path", c.payloadPath())
		return idx, nil
	}
	c.Logger.Debug("node index cache miss", "url", url)
	return c.fetch(ctx, url)
}

// readCached never fails; anything unreadable counts as a miss.
func (c *IndexCache) readCached() (NodeIndex, bool) {
	raw, ok, err := fsutil.ReadFileOpt(c.expiryPath())
	if err != nil || !ok {
		return NodeIndex{}, false
	}
	expiry, err := http.ParseTime(strings.TrimSpace(string(raw)))
	if err != nil {
		c.Logger.Debug("ignoring malformed cache expiry", "path", c.expiryPath(), "err", err)
		return NodeIndex{}, false
	}
	// HTTP dates carry whole seconds; equality counts as expired.
	if !c.now().Truncate(time.Second).Before(expiry) {
		return NodeIndex{}, false
	}
	payload, ok, err := fsutil.ReadFileOpt(c.payloadPath())
	if err != nil || !ok {
		return NodeIndex{}, false
	}
	idx, err := ParseNodeIndex(payload)
	if err != nil {
		c.Logger.Debug("ignoring malformed cached index", "path", c.payloadPath(), "err", err)
		return NodeIndex{}, false
	}
	return idx, true
}

func (c *IndexCache) fetch(ctx context.Context, url string) (NodeIndex, error) {
	resp, err := c.Client.Get(ctx, "Node", url)
	if err != nil {
		return NodeIndex{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NodeIndex{}, &FetchError{Tool: "Node", URL: url, Err: err}
	}

	if err := c.persist(c.payloadPath(), body); err != nil {
		return NodeIndex{}, err
	}
	expiry := expiryFor(resp.Header, c.now())
	if err := c.persist(c.expiryPath(), []byte(expiry)); err != nil {
		return NodeIndex{}, err
	}
	return ParseNodeIndex(body)
}

func (c *IndexCache) persist(path string, data []byte) error {
	if err := fsutil.EnsureContainingDir(path); err != nil {
		return err
	}
	if err := fsutil.AtomicWrite(path, data, 0o644); err != nil {
		return apperr.Wrap(apperr.CodeCacheWrite, err, "could not write %s", path)
	}
	return nil
}

// Clear removes the cached record.
func (c *IndexCache) Clear() error {
	return fsutil.RemoveDirIfExists(c.Dir)
}

// expiryFor returns the Expires header verbatim when present, otherwise now
// plus max-age (or DefaultMaxAge) as an HTTP date.
func expiryFor(h http.Header, now time.Time) string {
	if expires := strings.TrimSpace(h.Get("Expires")); expires != "" {
		return expires
	}
	return now.Add(maxAge(h)).UTC().Format(http.TimeFormat)
}

func maxAge(h http.Header) time.Duration {
	for _, directive := range strings.Split(h.Get("Cache-Control"), ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(directive), "=")
		if !ok || !strings.EqualFold(name, "max-age") {
			continue
		}
		secs, err := strconv.ParseInt(strings.Trim(value, `"`), 10, 64)
		if err != nil || secs < 0 {
			continue
		}
		return time.Duration(secs) * time.Second
	}
	return DefaultMaxAge
}
