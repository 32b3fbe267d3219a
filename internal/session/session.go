// Package session holds the state shared by every stage of one
// compilation: the configuration, the logger and the issuers of unique
// names.
package session

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/packc/internal/config"
)

// Session is passed explicitly to every stage; nothing in the pipeline
// reads global state.
type Session struct {
	Config config.Config
	Logger *slog.Logger
	Tags   *TagIssuer

	// Resources is where include statements read from.
	Resources fs.FS

	// NewID returns the build identifier recorded in the generated marker.
	NewID func() string
}

// New creates a session. A nil logger discards everything.
func New(cfg config.Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		Config: cfg,
		Logger: logger,
		Tags:   NewTagIssuer(cfg.Namespace),
		NewID:  uuid.NewString,

		Resources: os.DirFS(cfg.IncludeDir),
	}
}

// TagIssuer hands out entity tag names of the form <ns>.t<n>_<hint>.
type TagIssuer struct {
	ns     string
	next   int
	issued []string
}

// NewTagIssuer creates an issuer for namespace ns.
func NewTagIssuer(ns string) *TagIssuer { return &TagIssuer{ns: ns} }

var unsafeTag = regexp.MustCompile(`[^a-z0-9_]+`)

// Issue returns a fresh tag name. hint only makes the name readable.
func (t *TagIssuer) Issue(hint string) string {
	hint = unsafeTag.ReplaceAllString(strings.ToLower(hint), "_")
	name := fmt.Sprintf("%s.t%d", t.ns, t.next)
	if hint != "" && hint != "_" {
		name += "_" + hint
	}
	t.next++
	t.issued = append(t.issued, name)
	return name
}

// Issued returns every tag handed out so far, in issue order.
func (t *TagIssuer) Issued() []string { return append([]string(nil), t.issued...) }
