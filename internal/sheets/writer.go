package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/shortssprint/shortssprint/internal/api"
	"github.com/shortssprint/shortssprint/internal/gclient"
)

// backend is the narrow slice of the Sheets API the writer needs.
// Production wraps *sheets.Service; tests substitute a fake.
type backend interface {
	TabTitle(ctx context.Context, gid int64) (string, error)
	HeaderRow(ctx context.Context, title string) ([]string, error)
	Append(ctx context.Context, title string, row []any) error
	Update(ctx context.Context, title string, rowIndex int64, row []any) error
	DeleteRow(ctx context.Context, gid int64, rowIndex int64) error
}

// WriterOptions configures a Writer.
type WriterOptions struct {
	SheetID        string
	MainGID        int64
	CredentialsGID int64
	TicketsGID     int64
	ReeditGID      int64
	Retries        int
}

// Ticket is one support ticket appended to the tickets tab. Field
// order matches the tab's columns.
type Ticket struct {
	ID        string `json:"Ticket ID"`
	Vertical  string `json:"Vertical"`
	ExamName  string `json:"Exam Name"`
	Subject   string `json:"Subject"`
	IssueType string `json:"Issue Type"`
	Status    string `json:"Status"`
	IssueText string `json:"Issue Text"`
}

// Writer performs mutations against the spreadsheet through the pooled
// authenticated client. Every write retries with linear backoff and, on
// success, invalidates the affected caches before returning.
type Writer struct {
	opts  WriterOptions
	log   zerolog.Logger
	sleep func(time.Duration)

	// backendFor resolves a backend per call so a stale pooled client
	// is re-resolved rather than pinned.
	backendFor func(ctx context.Context) (backend, *api.Error)

	invalidateData        func()
	invalidateCredentials func()

	mu     sync.Mutex
	titles map[int64]string // gid -> tab title, resolved once
}

// NewWriter wires the writer to the client pool and the reader's
// caches.
func NewWriter(opts WriterOptions, pool *gclient.Pool, reader *Reader, log zerolog.Logger) *Writer {
	w := &Writer{
		opts:                  opts,
		log:                   log,
		sleep:                 time.Sleep,
		invalidateData:        reader.InvalidateData,
		invalidateCredentials: reader.InvalidateCredentials,
		titles:                make(map[int64]string),
	}
	w.backendFor = func(ctx context.Context) (backend, *api.Error) {
		svc := pool.Sheets(ctx)
		if svc == nil {
			return nil, api.E(api.KindServiceUnavailable,
				"sheets access not configured; set GOOGLE_CREDENTIALS_BASE64 or provide a credentials file")
		}
		return &apiBackend{svc: svc, sheetID: opts.SheetID}, nil
	}
	return w
}

// AppendRecord appends fields as a new row, mapping them positionally
// onto the target tab's header row. Entries marked re-edit go to the
// re-edit tab, everything else to the main tab.
func (w *Writer) AppendRecord(ctx context.Context, fields Record) error {
	gid := w.opts.MainGID
	if isReedit(fields) {
		gid = w.opts.ReeditGID
	}

	err := w.withRetry(ctx, "append row", func(b backend) error {
		title, err := w.tabTitle(ctx, b, gid)
		if err != nil {
			return err
		}
		headers, err := b.HeaderRow(ctx, title)
		if err != nil {
			return err
		}
		return b.Append(ctx, title, rowFor(headers, fields))
	})
	if err != nil {
		return err
	}

	w.invalidateData()
	w.log.Info().Int64("gid", gid).Msg("appended row and cleared sheet cache")
	return nil
}

// UpdateRecord rewrites the row at the given zero-based data index on
// the main tab. The sheet row is index+2: one for the header row, one
// for 1-based addressing.
func (w *Writer) UpdateRecord(ctx context.Context, rowIndex int64, fields Record) error {
	err := w.withRetry(ctx, "update row", func(b backend) error {
		title, err := w.tabTitle(ctx, b, w.opts.MainGID)
		if err != nil {
			return err
		}
		headers, err := b.HeaderRow(ctx, title)
		if err != nil {
			return err
		}
		return b.Update(ctx, title, rowIndex+2, rowFor(headers, fields))
	})
	if err != nil {
		return err
	}

	w.invalidateData()
	w.log.Info().Int64("row", rowIndex).Msg("updated row and cleared sheet cache")
	return nil
}

// DeleteRecord removes the row at the given zero-based data index from
// the main tab.
func (w *Writer) DeleteRecord(ctx context.Context, rowIndex int64) error {
	err := w.withRetry(ctx, "delete row", func(b backend) error {
		return b.DeleteRow(ctx, w.opts.MainGID, rowIndex+2)
	})
	if err != nil {
		return err
	}

	w.invalidateData()
	w.log.Info().Int64("row", rowIndex).Msg("deleted row and cleared sheet cache")
	return nil
}

// AppendTicket appends a ticket to the tickets tab. Tickets are not
// cached, so no invalidation happens.
func (w *Writer) AppendTicket(ctx context.Context, t Ticket) error {
	row := []any{t.ID, t.Vertical, t.ExamName, t.Subject, t.IssueType, t.Status, t.IssueText}
	err := w.withRetry(ctx, "append ticket", func(b backend) error {
		title, err := w.tabTitle(ctx, b, w.opts.TicketsGID)
		if err != nil {
			return err
		}
		return b.Append(ctx, title, row)
	})
	if err != nil {
		return err
	}
	w.log.Info().Str("ticket_id", t.ID).Msg("ticket created")
	return nil
}

// AppendUser appends new credentials to the credentials tab. The hash
// is written twice to match the tab's password/confirm columns.
func (w *Writer) AppendUser(ctx context.Context, username, email, passwordHash string) error {
	row := []any{username, email, passwordHash, passwordHash}
	err := w.withRetry(ctx, "append user", func(b backend) error {
		title, err := w.tabTitle(ctx, b, w.opts.CredentialsGID)
		if err != nil {
			return err
		}
		return b.Append(ctx, title, row)
	})
	if err != nil {
		return err
	}

	w.invalidateCredentials()
	w.log.Info().Str("username", username).Msg("added user and cleared credentials cache")
	return nil
}

// withRetry runs op up to the configured attempt count with linearly
// increasing backoff (attempt * 1s). A ServiceUnavailable from handle
// resolution is returned immediately; anything else exhausting the
// attempts surfaces as a structured UpstreamFailure.
func (w *Writer) withRetry(ctx context.Context, opName string, op func(backend) error) error {
	attempts := w.opts.Retries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		b, aerr := w.backendFor(ctx)
		if aerr != nil {
			return aerr
		}
		if lastErr = op(b); lastErr == nil {
			return nil
		}
		if attempt < attempts {
			w.log.Warn().Err(lastErr).
				Str("op", opName).
				Int("attempt", attempt).
				Int("max", attempts).
				Msg("sheet write failed, retrying")
			w.sleep(time.Duration(attempt) * time.Second)
		}
	}

	w.log.Error().Err(lastErr).Str("op", opName).Int("attempts", attempts).Msg("sheet write exhausted retries")
	return api.Errorf(api.KindUpstreamFailure, "%s failed after %d attempts: %v", opName, attempts, lastErr)
}

func (w *Writer) tabTitle(ctx context.Context, b backend, gid int64) (string, error) {
	w.mu.Lock()
	if title, ok := w.titles[gid]; ok {
		w.mu.Unlock()
		return title, nil
	}
	w.mu.Unlock()

	title, err := b.TabTitle(ctx, gid)
	if err != nil {
		return "", err
	}

	w.mu.Lock()
	w.titles[gid] = title
	w.mu.Unlock()
	return title, nil
}

func isReedit(fields Record) bool {
	return strings.EqualFold(fields["Edit"], "re-edit")
}

// rowFor maps fields positionally onto the tab's header order; missing
// fields become empty cells.
func rowFor(headers []string, fields Record) []any {
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = fields[h]
	}
	return row
}

// apiBackend adapts *sheets.Service to the backend interface.
type apiBackend struct {
	svc     *sheetsapi.Service
	sheetID string
}

func (a *apiBackend) TabTitle(ctx context.Context, gid int64) (string, error) {
	ss, err := a.svc.Spreadsheets.Get(a.sheetID).
		Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.SheetId == gid {
			return sh.Properties.Title, nil
		}
	}
	return "", fmt.Errorf("worksheet with gid %d not found", gid)
}

func (a *apiBackend) HeaderRow(ctx context.Context, title string) ([]string, error) {
	resp, err := a.svc.Spreadsheets.Values.
		Get(a.sheetID, fmt.Sprintf("%s!1:1", title)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get header row: %w", err)
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("tab %q has no header row", title)
	}
	headers := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		headers[i] = fmt.Sprint(v)
	}
	return headers, nil
}

func (a *apiBackend) Append(ctx context.Context, title string, row []any) error {
	vr := &sheetsapi.ValueRange{Values: [][]any{row}}
	_, err := a.svc.Spreadsheets.Values.
		Append(a.sheetID, title, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

func (a *apiBackend) Update(ctx context.Context, title string, rowIndex int64, row []any) error {
	vr := &sheetsapi.ValueRange{Values: [][]any{row}}
	_, err := a.svc.Spreadsheets.Values.
		Update(a.sheetID, fmt.Sprintf("%s!A%d", title, rowIndex), vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update row: %w", err)
	}
	return nil
}

func (a *apiBackend) DeleteRow(ctx context.Context, gid int64, rowIndex int64) error {
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    gid,
					Dimension:  "ROWS",
					StartIndex: rowIndex - 1,
					EndIndex:   rowIndex,
				},
			},
		}},
	}
	_, err := a.svc.Spreadsheets.BatchUpdate(a.sheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete row: %w", err)
	}
	return nil
}
