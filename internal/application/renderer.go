package application

import (
	"context"
	"time"
)

// renderTimeout bounds one asynchronous render attempt.
const renderTimeout = 30 * time.Second

// RenderRequest asks the renderer to produce the artifact file for a
// registered document.
type RenderRequest struct {
	OwnerRef     string `json:"ownerRef"`
	DocumentType string `json:"documentType"`
	Filename     string `json:"filename"`
}

// DocumentRenderer produces artifact files for registered documents. The
// registry record is authoritative; rendering is best-effort and retryable
// through regeneration.
type DocumentRenderer interface {
	Render(ctx context.Context, req RenderRequest) error
}
