package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fetchgraph/sketch/internal/catalog"
	"github.com/fetchgraph/sketch/internal/config"
)

// readSketchInput reads sketch text from the named file, or from stdin
// when the argument is "-".
func readSketchInput(arg string, stdin io.Reader) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// loadSpec builds the DSL spec from the --spec flag plus environment
// overrides.
func loadSpec(opts *RootOptions) (*config.Spec, error) {
	spec, err := config.Load(opts.SpecFile)
	if err != nil {
		return nil, err
	}
	return spec, nil
}

// loadCatalog loads an entity catalog, choosing the loader by file
// extension: YAML, CUE, or SQLite introspection.
func loadCatalog(path string, spec *config.Spec) (*catalog.Catalog, error) {
	var opts []catalog.Option
	if spec.Policy.TieBreak == config.TieBreakDeclared {
		opts = append(opts, catalog.WithDeclaredTieBreak())
	}

	ext := strings.ToLower(filepath.Ext(path))
	logrus.WithFields(logrus.Fields{"path": path, "format": ext}).Debug("loading catalog")

	switch ext {
	case ".yaml", ".yml":
		return catalog.LoadYAML(path, opts...)
	case ".cue":
		return catalog.LoadCUE(path, opts...)
	case ".db", ".sqlite", ".sqlite3":
		return catalog.FromSQLite(path, opts...)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q (want .yaml, .cue, or .db)", ext)
	}
}
