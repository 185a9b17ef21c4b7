package internal

import (
	"context"
	"io"
)

// Renderer is the view collaborator. The core hands it a template name and
// a data map and streams the result into the buffered response; template
// engine internals stay outside the core.
type Renderer interface {
	Render(ctx context.Context, w io.Writer, template string, data map[string]any) error
}

// Component is the interface for self-rendering views, for applications
// that compose typed view values instead of template-name lookups.
type Component interface {
	Render(ctx context.Context, w io.Writer) error
}
