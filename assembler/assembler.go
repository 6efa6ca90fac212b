// Package assembler reads methods written as text.
//
// A listing holds one instruction per line, written the way
// bytecode.Instruction.String prints it except that jump targets are labels:
//
//	.class demo/Counter
//	.method public static count(I)I
//	.limit stack 1
//	.limit locals 2
//	    iconst_0
//	    istore 1
//	loop:
//	    iload 0
//	    ifle done
//	    iinc 1 1
//	    iinc 0 -1
//	    goto loop
//	done:
//	    iload 1
//	    ireturn
//	.end method
//
// Exception handlers are declared with ".catch <type|all> from <label> to
// <label> using <label>". A '#' starts a comment.
//
// LoadClass reads the same method bodies from a YAML class document.
package assembler

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/deepnoodle-ai/stackmap/bytecode"
)

// DefaultOwner is the class of methods declared before any .class
// directive.
const DefaultOwner = "Main"

type config struct {
	filename   string
	owner      string
	lineOffset int
}

// Option configures parsing.
type Option func(*config)

// WithFilename sets the file name used in error locations.
func WithFilename(name string) Option {
	return func(c *config) {
		c.filename = name
	}
}

// WithOwner sets the class of methods declared before any .class
// directive.
func WithOwner(owner string) Option {
	return func(c *config) {
		c.owner = owner
	}
}

// withLineOffset shifts reported line numbers, for bodies embedded in a
// larger document.
func withLineOffset(n int) Option {
	return func(c *config) {
		c.lineOffset = n
	}
}

func newConfig(opts []Option) config {
	cfg := config{owner: DefaultOwner}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Load reads the methods in the file at path. Files ending in .yaml or .yml
// are class documents; anything else is a listing.
func Load(path string) ([]*bytecode.Method, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadClass(data, WithFilename(path))
	default:
		return Parse(string(data), WithFilename(path))
	}
}
