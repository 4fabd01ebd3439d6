// Package registry implements a file-backed token registry. The document
// is re-read on every authorization check so edits take effect without a
// restart; a missing or unparseable file behaves as an empty registry.
package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukerupert/angelia"
	"gopkg.in/yaml.v3"
)

// Compile-time interface check
var _ angelia.TokenRegistry = (*FileRegistry)(nil)

// document is the on-disk shape: a map of opaque token to recipient list.
type document struct {
	Tokens map[string][]string `json:"tokens" yaml:"tokens"`
}

// FileRegistry reads token-to-recipients mappings from a JSON or YAML file.
type FileRegistry struct {
	path   string
	logger *slog.Logger
}

// NewFileRegistry creates a registry backed by the document at path.
// The file does not need to exist at construction time.
func NewFileRegistry(path string, logger *slog.Logger) *FileRegistry {
	return &FileRegistry{
		path:   path,
		logger: logger,
	}
}

// Authorize resolves a bearer token to its recipient list. Unknown tokens
// and tokens mapped to an empty list produce the identical forbidden error
// so callers cannot enumerate configured tokens.
func (r *FileRegistry) Authorize(ctx context.Context, token string) ([]string, error) {
	doc := r.load(ctx)

	recipients, ok := doc.Tokens[token]
	if !ok || len(recipients) == 0 {
		return nil, angelia.Forbidden("Invalid token or unauthorized access")
	}
	return recipients, nil
}

// Count returns the number of configured tokens from a fresh load.
func (r *FileRegistry) Count(ctx context.Context) int {
	return len(r.load(ctx).Tokens)
}

// load reads the document fresh. Read or parse failures are logged at
// warning level and yield an empty registry, never an error to the caller.
func (r *FileRegistry) load(ctx context.Context) document {
	doc := document{Tokens: map[string][]string{}}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.WarnContext(ctx, "token config not found, using empty registry",
				slog.String("path", r.path))
		} else {
			r.logger.WarnContext(ctx, "failed to read token config",
				slog.String("path", r.path),
				slog.String("error", err.Error()))
		}
		return doc
	}

	if err := unmarshal(r.path, data, &doc); err != nil {
		r.logger.WarnContext(ctx, "failed to parse token config",
			slog.String("path", r.path),
			slog.String("error", err.Error()))
		return document{Tokens: map[string][]string{}}
	}
	if doc.Tokens == nil {
		doc.Tokens = map[string][]string{}
	}
	return doc
}

// unmarshal picks the codec by file extension: .yaml/.yml documents are
// parsed as YAML, everything else as JSON.
func unmarshal(path string, data []byte, doc *document) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, doc)
	default:
		return json.Unmarshal(data, doc)
	}
}
