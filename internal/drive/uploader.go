// Package drive pushes finished video files into a shared Drive folder
// and hands back a public view link.
package drive

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/shortssprint/shortssprint/internal/api"
	"github.com/shortssprint/shortssprint/internal/gclient"
)

// Upload holds the Drive-side identity of an uploaded file.
type Upload struct {
	FileID   string `json:"file_id"`
	ViewLink string `json:"view_link"`
}

// Uploader owns the target folder and the pooled Drive handle.
type Uploader struct {
	pool     *gclient.Pool
	folderID string
	log      zerolog.Logger
}

func NewUploader(pool *gclient.Pool, folderID string, log zerolog.Logger) *Uploader {
	return &Uploader{pool: pool, folderID: folderID, log: log}
}

// Enabled reports whether uploads have a destination folder configured.
func (u *Uploader) Enabled() bool {
	return u.folderID != ""
}

// Upload streams content into the configured folder and makes the file
// readable by anyone with the link. A failed permission grant is logged
// but does not fail the upload; the owner can still share manually.
func (u *Uploader) Upload(ctx context.Context, name, mimeType string, content io.Reader) (*Upload, error) {
	if u.folderID == "" {
		return nil, api.E(api.KindServiceUnavailable, "drive uploads not configured; set GOOGLE_DRIVE_FOLDER_ID")
	}
	svc := u.pool.Drive(ctx)
	if svc == nil {
		return nil, api.E(api.KindServiceUnavailable, "drive access not configured")
	}

	meta := &driveapi.File{
		Name:    name,
		Parents: []string{u.folderID},
	}
	created, err := svc.Files.Create(meta).
		Media(content, googleapi.ContentType(mimeType)).
		SupportsAllDrives(true).
		Fields("id, webViewLink").
		Context(ctx).Do()
	if err != nil {
		u.log.Error().Err(err).Str("name", name).Msg("drive upload failed")
		return nil, api.Errorf(api.KindUpstreamFailure, "drive upload: %v", err)
	}

	perm := &driveapi.Permission{Type: "anyone", Role: "reader"}
	if _, err := svc.Permissions.Create(created.Id, perm).
		SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		u.log.Warn().Err(err).Str("file_id", created.Id).Msg("could not make file public")
	}

	link := created.WebViewLink
	if link == "" {
		link = fmt.Sprintf("https://drive.google.com/file/d/%s/view", created.Id)
	}
	u.log.Info().Str("file_id", created.Id).Str("name", name).Msg("uploaded to drive")
	return &Upload{FileID: created.Id, ViewLink: link}, nil
}
