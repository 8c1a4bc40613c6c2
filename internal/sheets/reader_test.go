package sheets

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortssprint/shortssprint/internal/api"
)

func gvizBody(payload string) string {
	return fmt.Sprintf("/*O_o*/\ngoogle.visualization.Query.setResponse(%s);", payload)
}

const mainTabPayload = `{
	"status": "ok",
	"table": {
		"cols": [
			{"id": "A", "label": "Sr no."},
			{"id": "B", "label": "Title"},
			{"id": "C", "label": "Content Type"},
			{"id": "D", "label": "Sub category"},
			{"id": "E", "label": "Subject"},
			{"id": "F", "label": "Edit"}
		],
		"rows": [
			{"c": [{"v": "'1"}, {"v": "Percentages"}, {"v": "Concept"}, {"v": "Arithmetic"}, {"v": "Maths"}, {"v": null}]},
			{"c": [{"v": 2}, {"v": "Vocabulary"}, {"v": "Revision"}, {"v": "Words"}, {"v": "English"}, {"v": "re-edit"}]},
			{"c": [{"v": "'3"}, {"v": "Polity"}, {"v": "Concept"}, {"v": "Constitution"}, {"v": "GK"}, null]}
		]
	}
}`

func newTestReader(t *testing.T, handler http.HandlerFunc) (*Reader, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	r := NewReader(ReaderOptions{
		SheetID:        "sheet",
		MainGID:        0,
		CredentialsGID: 1,
		SheetTTL:       5 * time.Minute,
		CredentialsTTL: 10 * time.Minute,
		FiltersTTL:     5 * time.Minute,
	}, zerolog.Nop())
	r.baseURL = srv.URL
	return r, srv
}

func TestDataParsesGviz(t *testing.T) {
	r, _ := newTestReader(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/spreadsheets/d/sheet/gviz/tq", req.URL.Path)
		assert.Equal(t, "0", req.URL.Query().Get("gid"))
		fmt.Fprint(w, gvizBody(mainTabPayload))
	})

	records, err := r.Data(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Leading quote on the serial number is stripped, numeric cells are
	// stringified, null cells come back empty.
	assert.Equal(t, "1", records[0]["Sr no."])
	assert.Equal(t, "2", records[1]["Sr no."])
	assert.Equal(t, "", records[0]["Edit"])
	assert.Equal(t, "re-edit", records[1]["Edit"])
	assert.Equal(t, "Polity", records[2]["Title"])
}

func TestDataHeaderRowPromotion(t *testing.T) {
	// Some tabs carry their real headers as the first data row while the
	// gviz column labels are empty.
	payload := `{
		"status": "ok",
		"table": {
			"cols": [{"id": "A", "label": ""}, {"id": "B", "label": ""}],
			"rows": [
				{"c": [{"v": "Sr no."}, {"v": "Title"}]},
				{"c": [{"v": "1"}, {"v": "Algebra"}]}
			]
		}
	}`
	r, _ := newTestReader(t, func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, gvizBody(payload))
	})

	records, err := r.Data(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Algebra", records[0]["Title"])
	assert.Equal(t, "1", records[0]["Sr no."])
}

func TestDataServedFromCache(t *testing.T) {
	var fetches atomic.Int64
	r, _ := newTestReader(t, func(w http.ResponseWriter, req *http.Request) {
		fetches.Add(1)
		fmt.Fprint(w, gvizBody(mainTabPayload))
	})

	_, err := r.Data(context.Background())
	require.NoError(t, err)
	_, err = r.Data(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), fetches.Load(), "second read must hit the cache")

	r.InvalidateData()
	_, err = r.Data(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), fetches.Load(), "invalidation must force a refetch")
}

func TestDataUpstreamFailure(t *testing.T) {
	r, _ := newTestReader(t, func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})

	_, err := r.Data(context.Background())
	require.Error(t, err)
	assert.Equal(t, api.KindUpstreamFailure, api.KindOf(err))
}

func TestDataBadWrapper(t *testing.T) {
	r, _ := newTestReader(t, func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, "<html>sign in required</html>")
	})

	_, err := r.Data(context.Background())
	require.Error(t, err)
	assert.Equal(t, api.KindUpstreamFailure, api.KindOf(err))
}

func TestFiltersExcludeReedit(t *testing.T) {
	r, _ := newTestReader(t, func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, gvizBody(mainTabPayload))
	})

	f, err := r.Filters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Concept"}, f.Types, "re-edit rows must not contribute filter values")
	assert.Equal(t, []string{"Arithmetic", "Constitution"}, f.Subcategories)
	assert.Equal(t, []string{"GK", "Maths"}, f.Subjects)
}

func TestCredentials(t *testing.T) {
	payload := `{
		"status": "ok",
		"table": {
			"cols": [
				{"id": "A", "label": "Username"},
				{"id": "B", "label": "Email"},
				{"id": "C", "label": "Password"}
			],
			"rows": [
				{"c": [{"v": "alice"}, {"v": "alice@adda247.com"}, {"v": "$2a$10$hash"}]},
				{"c": [{"v": null}, {"v": null}, {"v": null}]}
			]
		}
	}`
	r, _ := newTestReader(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "1", req.URL.Query().Get("gid"))
		fmt.Fprint(w, gvizBody(payload))
	})

	users, err := r.Credentials(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1, "rows without a username are skipped")
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "alice@adda247.com", users[0].Email)
}

func TestClearCaches(t *testing.T) {
	var fetches atomic.Int64
	r, _ := newTestReader(t, func(w http.ResponseWriter, req *http.Request) {
		fetches.Add(1)
		fmt.Fprint(w, gvizBody(mainTabPayload))
	})

	_, err := r.Data(context.Background())
	require.NoError(t, err)
	r.ClearCaches()
	_, err = r.Data(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), fetches.Load())
}
