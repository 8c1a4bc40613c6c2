// Package sheets brokers reads and writes against the backing
// spreadsheet. Reads go through the public gviz "query as JSON"
// endpoint with a TTL cache in front; writes go through the
// authenticated client pool with retry and cache invalidation.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/shortssprint/shortssprint/internal/api"
	"github.com/shortssprint/shortssprint/internal/cache"
)

const defaultGvizBase = "https://docs.google.com"

// The gviz endpoint wraps its JSON in a JS callback that has to be
// stripped before parsing.
var gvizWrapper = regexp.MustCompile(`(?s)google\.visualization\.Query\.setResponse\((.*)\);`)

// Record is one sheet row keyed by header label.
type Record map[string]string

// User is one row of the credentials tab.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"` // bcrypt hash
}

// Filters holds the unique values the frontend filters on, derived from
// the main tab.
type Filters struct {
	Types         []string `json:"types"`
	Subcategories []string `json:"subcategories"`
	Subjects      []string `json:"subjects"`
}

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	SheetID        string
	MainGID        int64
	CredentialsGID int64
	SheetTTL       time.Duration
	CredentialsTTL time.Duration
	FiltersTTL     time.Duration

	// BaseURL overrides the gviz host. Empty means docs.google.com.
	BaseURL string
}

// Reader fetches tab contents through the public gviz endpoint,
// caching each dataset under its own TTL. Concurrent cache misses for
// the same tab are coalesced into one upstream fetch.
type Reader struct {
	opts    ReaderOptions
	client  *http.Client
	baseURL string
	log     zerolog.Logger

	dataCache  *cache.Cache[[]Record]
	credsCache *cache.Cache[[]User]
	filters    *cache.Cache[Filters]
	group      singleflight.Group
}

// NewReader builds a Reader with its three caches.
func NewReader(opts ReaderOptions, log zerolog.Logger) *Reader {
	base := opts.BaseURL
	if base == "" {
		base = defaultGvizBase
	}
	return &Reader{
		opts:       opts,
		client:     &http.Client{Timeout: 10 * time.Second},
		baseURL:    base,
		log:        log,
		dataCache:  cache.New[[]Record](opts.SheetTTL),
		credsCache: cache.New[[]User](opts.CredentialsTTL),
		filters:    cache.New[Filters](opts.FiltersTTL),
	}
}

func (r *Reader) dataKey() string {
	return fmt.Sprintf("sheet_data_%s", r.opts.SheetID)
}

func (r *Reader) credsKey() string {
	return fmt.Sprintf("credentials_data_%s_%d", r.opts.SheetID, r.opts.CredentialsGID)
}

// Data returns the main tab as records, served from cache when fresh.
func (r *Reader) Data(ctx context.Context) ([]Record, error) {
	key := r.dataKey()
	if cached, ok := r.dataCache.Get(key); ok {
		return cached, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		records, err := r.fetchRecords(ctx, r.opts.MainGID)
		if err != nil {
			return nil, err
		}
		r.dataCache.Set(key, records)
		r.log.Debug().Int("records", len(records)).Msg("cached sheet data")
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Record), nil
}

// Credentials returns the credentials tab as users, served from cache
// when fresh.
func (r *Reader) Credentials(ctx context.Context) ([]User, error) {
	key := r.credsKey()
	if cached, ok := r.credsCache.Get(key); ok {
		return cached, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		records, err := r.fetchRecords(ctx, r.opts.CredentialsGID)
		if err != nil {
			return nil, err
		}
		users := make([]User, 0, len(records))
		for _, rec := range records {
			u := User{
				Username: rec["Username"],
				Email:    rec["Email"],
				Password: rec["Password"],
			}
			if u.Username != "" {
				users = append(users, u)
			}
		}
		r.credsCache.Set(key, users)
		r.log.Debug().Int("users", len(users)).Msg("cached credentials data")
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]User), nil
}

// Filters returns the unique filter values of the main tab, excluding
// re-edit entries.
func (r *Reader) Filters(ctx context.Context) (Filters, error) {
	if cached, ok := r.filters.Get("filters"); ok {
		return cached, nil
	}

	records, err := r.Data(ctx)
	if err != nil {
		return Filters{}, err
	}

	types := map[string]struct{}{}
	subcats := map[string]struct{}{}
	subjects := map[string]struct{}{}
	for _, rec := range records {
		if strings.EqualFold(rec["Edit"], "re-edit") {
			continue
		}
		if v := rec["Content Type"]; v != "" {
			types[v] = struct{}{}
		}
		if v := rec["Sub category"]; v != "" {
			subcats[v] = struct{}{}
		}
		if v := rec["Subject"]; v != "" {
			subjects[v] = struct{}{}
		}
	}

	f := Filters{
		Types:         sortedKeys(types),
		Subcategories: sortedKeys(subcats),
		Subjects:      sortedKeys(subjects),
	}
	r.filters.Set("filters", f)
	return f, nil
}

// InvalidateData drops the cached main tab and the derived filter
// index. Called by the writer after a successful mutation.
func (r *Reader) InvalidateData() {
	r.dataCache.Delete(r.dataKey())
	r.filters.Clear()
}

// InvalidateCredentials drops the cached credentials tab.
func (r *Reader) InvalidateCredentials() {
	r.credsCache.Delete(r.credsKey())
}

// ClearCaches empties all three caches. Admin use.
func (r *Reader) ClearCaches() {
	r.dataCache.Clear()
	r.credsCache.Clear()
	r.filters.Clear()
}

// Healthy reports whether the main tab is currently reachable.
func (r *Reader) Healthy(ctx context.Context) bool {
	_, err := r.Data(ctx)
	return err == nil
}

func (r *Reader) fetchRecords(ctx context.Context, gid int64) ([]Record, error) {
	url := fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?tqx=out:json&gid=%d", r.baseURL, r.opts.SheetID, gid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, api.Errorf(api.KindUpstreamFailure, "build sheet request: %v", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, api.Errorf(api.KindUpstreamFailure, "fetch sheet: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, api.Errorf(api.KindUpstreamFailure, "sheet fetch status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, api.Errorf(api.KindUpstreamFailure, "read sheet response: %v", err)
	}
	return parseGviz(body)
}

// gviz response shape; row cells may be null.
type gvizCell struct {
	V any `json:"v"`
}

type gvizResponse struct {
	Status string `json:"status"`
	Table  struct {
		Cols []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"cols"`
		Rows []struct {
			C []*gvizCell `json:"c"`
		} `json:"rows"`
	} `json:"table"`
}

// parseGviz unwraps the JS callback and flattens the table into header
// keyed records. The first data row doubles as the header row in some
// tabs, so it is promoted when it matches the column labels or carries
// the serial-number marker.
func parseGviz(body []byte) ([]Record, error) {
	m := gvizWrapper.FindSubmatch(body)
	if m == nil {
		return nil, api.E(api.KindUpstreamFailure, "could not parse gviz response wrapper")
	}

	var payload gvizResponse
	if err := json.Unmarshal(m[1], &payload); err != nil {
		return nil, api.Errorf(api.KindUpstreamFailure, "unmarshal gviz payload: %v", err)
	}
	if payload.Status != "ok" {
		return nil, api.Errorf(api.KindUpstreamFailure, "gviz status %q", payload.Status)
	}

	headers := make([]string, len(payload.Table.Cols))
	for i, col := range payload.Table.Cols {
		headers[i] = col.Label
		if headers[i] == "" {
			headers[i] = col.ID
		}
	}

	rows := payload.Table.Rows
	if len(rows) > 0 {
		first := cellValues(rows[0].C, len(headers))
		if equalStrings(first, headers) || contains(first, "Sr no.") {
			headers = first
			rows = rows[1:]
		}
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		values := cellValues(row.C, len(headers))
		rec := make(Record, len(headers))
		for i, h := range headers {
			rec[h] = values[i]
		}
		// Serial numbers are sometimes stored with a leading quote to
		// force text formatting.
		if v, ok := rec["Sr no."]; ok {
			rec["Sr no."] = strings.TrimPrefix(v, "'")
		}
		records = append(records, rec)
	}
	return records, nil
}

func cellValues(cells []*gvizCell, width int) []string {
	values := make([]string, width)
	for i := 0; i < width && i < len(cells); i++ {
		if cells[i] == nil || cells[i].V == nil {
			continue
		}
		values[i] = cellString(cells[i].V)
	}
	return values
}

func cellString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
