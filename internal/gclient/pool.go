// Package gclient maintains shared, lazily constructed Google API
// clients so the cost of authenticating is amortized across requests.
//
// A single Sheets handle and a single Drive handle are cached for the
// process lifetime. In validate mode a cached handle is checked with a
// cheap round-trip before reuse and rebuilt if the check fails; in
// trust mode (constrained cold-start deployments) a cached handle is
// returned as-is. All construction failures are absorbed: callers get a
// nil handle, never an error escape.
package gclient

import (
	"context"
	"encoding/base64"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// Options configures a Pool.
type Options struct {
	// SheetID is used for the validation round-trip.
	SheetID string

	// CredentialsBase64 is the primary credential source; a decode
	// failure falls through to CredentialsFile.
	CredentialsBase64 string
	CredentialsFile   string

	// Trust skips handle validation on reuse.
	Trust bool
}

// Pool owns the cached handles. The mutex serializes the
// check-then-create sequence so concurrent callers never build
// duplicate clients.
type Pool struct {
	opts Options
	log  zerolog.Logger

	mu     sync.Mutex
	creds  []byte
	sheets *sheets.Service
	drive  *drive.Service
}

// NewPool resolves credential material once up front. A pool with no
// usable credentials still works; its getters return nil.
func NewPool(opts Options, log zerolog.Logger) *Pool {
	p := &Pool{opts: opts, log: log}
	p.creds = p.resolveCredentials()
	return p
}

func (p *Pool) resolveCredentials() []byte {
	if p.opts.CredentialsBase64 != "" {
		raw, err := base64.StdEncoding.DecodeString(p.opts.CredentialsBase64)
		if err != nil {
			p.log.Error().Err(err).Msg("decode base64 credentials")
		} else if p.validKey(raw) {
			return raw
		}
	}
	if p.opts.CredentialsFile != "" {
		raw, err := os.ReadFile(p.opts.CredentialsFile)
		if err == nil && p.validKey(raw) {
			return raw
		}
	}
	p.log.Warn().Msg("no service account credentials available; authenticated sheet writes and drive uploads disabled")
	return nil
}

// validKey checks the blob parses as a service-account key before it is
// trusted for lazy client construction.
func (p *Pool) validKey(raw []byte) bool {
	conf, err := google.JWTConfigFromJSON(raw, sheets.SpreadsheetsScope)
	if err != nil {
		p.log.Error().Err(err).Msg("invalid service account key")
		return false
	}
	p.log.Info().Str("client_email", conf.Email).Msg("service account credentials loaded")
	return true
}

// Sheets returns the shared Sheets handle, creating it on first use.
// Returns nil when no credential source is available or construction
// fails; callers must treat nil as service unavailable.
func (p *Pool) Sheets(ctx context.Context) *sheets.Service {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sheets != nil {
		if p.opts.Trust {
			return p.sheets
		}
		_, err := p.sheets.Spreadsheets.Get(p.opts.SheetID).
			Fields("spreadsheetId").Context(ctx).Do()
		if err == nil {
			return p.sheets
		}
		p.log.Warn().Err(err).Msg("cached sheets client invalid, recreating")
		p.sheets = nil
	}

	if p.creds == nil {
		return nil
	}
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(p.creds),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		p.log.Error().Err(err).Msg("create sheets client")
		return nil
	}
	p.sheets = svc
	p.log.Info().Msg("created new sheets client (pooled)")
	return p.sheets
}

// Drive returns the shared Drive handle, creating it on first use.
// Drive handles are never validated; the upload call itself surfaces a
// stale handle. Returns nil when unavailable.
func (p *Pool) Drive(ctx context.Context) *drive.Service {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.drive != nil {
		return p.drive
	}
	if p.creds == nil {
		return nil
	}
	svc, err := drive.NewService(ctx,
		option.WithCredentialsJSON(p.creds),
		option.WithScopes(drive.DriveFileScope, drive.DriveScope),
	)
	if err != nil {
		p.log.Error().Err(err).Msg("create drive client")
		return nil
	}
	p.drive = svc
	p.log.Info().Msg("created new drive client (pooled)")
	return p.drive
}
