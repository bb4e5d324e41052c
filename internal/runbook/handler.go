package runbook

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/vegasq/pal/internal/cast"
)

//go:embed definitions/*.json
var definitionFiles embed.FS

// Handler names the kind of source file a runbook is written for. Handlers
// differ only in the default column type definitions they carry.
type Handler string

const (
	HandlerGeneric Handler = "Generic"
	HandlerAwsCur  Handler = "AwsCur"
)

var handlers = map[string]Handler{
	"generic": HandlerGeneric,
	"awscur":  HandlerAwsCur,
}

// definitionFile maps a handler onto its embedded column definitions
var definitionFile = map[Handler]string{
	HandlerGeneric: "definitions/generic.json",
	HandlerAwsCur:  "definitions/aws_cur.json",
}

// ParseHandler resolves a metadata.handler value, ignoring case
func ParseHandler(name string) (Handler, error) {
	h, ok := handlers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: unknown handler %q, valid handlers are [%s %s]",
			ErrInvalidRunbook, name, HandlerAwsCur, HandlerGeneric)
	}
	return h, nil
}

// Definitions returns the handler's default column definitions. A handler
// without an embedded definition file has none.
func (h Handler) Definitions() (cast.Definitions, error) {
	data, err := definitionFiles.ReadFile(definitionFile[h])
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cast.Definitions{}, nil
		}
		return nil, err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("handler %s definitions: %w", h, err)
	}
	return cast.ParseDefinitions(raw)
}
