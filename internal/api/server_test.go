package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kike-0203/watchy-solver-clean/internal/api"
	"github.com/kike-0203/watchy-solver-clean/internal/api/handler/v1handler"
	"github.com/kike-0203/watchy-solver-clean/internal/solver"
	"github.com/kike-0203/watchy-solver-clean/pkg/logger"
	"github.com/kike-0203/watchy-solver-clean/pkg/storage/fsstore"

	"github.com/stretchr/testify/require"
)

// stubVision returns a scripted answer, with optional panic injection.
type stubVision struct {
	text      string
	panicOnce bool
}

func (s *stubVision) Solve(ctx context.Context, image []byte) (string, error) {
	if s.panicOnce {
		s.panicOnce = false
		panic("vision client blew up")
	}

	return s.text, nil
}

// newTestServer spins up the fully wired HTTP stack on a random port.
func newTestServer(t *testing.T, v *stubVision) (*httptest.Server, *fsstore.Store) {
	t.Helper()
	logger.Setup(logger.DevelopmentEnvironment)

	store, err := fsstore.New(fsstore.Options{Root: t.TempDir()})
	require.NoError(t, err)

	s := solver.New(v, store, solver.Options{ReuseStored: true})
	server := api.NewServer(
		api.Deps{Deps: v1handler.Deps{Solver: s, Store: store}},
		api.Options{
			HandlerOptions: v1handler.Options{MaxUploadBytes: 1 << 20},
			RequestTimeout: 10 * time.Second,
			MetricsPath:    "/metrics",
		},
	)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, store
}

func uploadImage(t *testing.T, url string, image []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "problem.png")
	require.NoError(t, err)
	_, err = fw.Write(image)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	res, err := http.Post(url+"/solve_image", w.FormDataContentType(), &buf)
	require.NoError(t, err)

	return res
}

func TestServer_SolveAndFetchPageFlow(t *testing.T) {
	ts, _ := newTestServer(t, &stubVision{text: "x^{2} = 4 \\implies x = \\pm 2"})

	res := uploadImage(t, ts.URL, []byte("fake photo"))
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var sol struct {
		Token string `json:"token"`
		Pages int    `json:"pages"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&sol))
	require.Len(t, sol.Token, 12)
	require.Equal(t, 1, sol.Pages)

	pageRes, err := http.Get(fmt.Sprintf("%s/pbm/%s/0", ts.URL, sol.Token))
	require.NoError(t, err)
	defer func() { _ = pageRes.Body.Close() }()
	require.Equal(t, http.StatusOK, pageRes.StatusCode)
	require.Equal(t, "image/x-portable-bitmap", pageRes.Header.Get("Content-Type"))

	page, err := io.ReadAll(pageRes.Body)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(page, []byte("P4\n200 200\n")))

	missingRes, err := http.Get(fmt.Sprintf("%s/pbm/%s/%d", ts.URL, sol.Token, sol.Pages))
	require.NoError(t, err)
	defer func() { _ = missingRes.Body.Close() }()
	require.Equal(t, http.StatusNotFound, missingRes.StatusCode)
}

func TestServer_PanicIsIsolatedPerRequest(t *testing.T) {
	ts, _ := newTestServer(t, &stubVision{text: "y = 1", panicOnce: true})

	// first request trips the injected panic
	res := uploadImage(t, ts.URL, []byte("photo-1"))
	_ = res.Body.Close()
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)

	// the process keeps serving: an unrelated request succeeds
	res = uploadImage(t, ts.URL, []byte("photo-2"))
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestServer_Healthz(t *testing.T) {
	ts, _ := newTestServer(t, &stubVision{text: "ok"})

	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, &stubVision{text: "ok"})

	res, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "go_goroutines")
}

func TestServer_SpecFileServed(t *testing.T) {
	ts, _ := newTestServer(t, &stubVision{text: "ok"})

	res, err := http.Get(ts.URL + "/specs/v1.yaml")
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/yaml", res.Header.Get("Content-Type"))

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "Watchy Solver API")
}

func TestServer_CORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, &stubVision{text: "ok"})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/solve_image", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()

	require.Equal(t, http.StatusNoContent, res.StatusCode)
	require.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_ReuploadReusesStoredSolution(t *testing.T) {
	v := &stubVision{text: "first answer"}
	ts, _ := newTestServer(t, v)

	res := uploadImage(t, ts.URL, []byte("same photo"))
	var first struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&first))
	_ = res.Body.Close()

	firstPage := fetchPage(t, ts.URL, first.Token, 0)

	// even though the model would now answer differently, the stored pages win
	v.text = "a completely different answer"
	res = uploadImage(t, ts.URL, []byte("same photo"))
	var second struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&second))
	_ = res.Body.Close()

	require.Equal(t, first.Token, second.Token)
	require.Equal(t, firstPage, fetchPage(t, ts.URL, second.Token, 0),
		"reused pages must come from the first render")
}

func fetchPage(t *testing.T, base, token string, page int) []byte {
	t.Helper()
	res, err := http.Get(fmt.Sprintf("%s/pbm/%s/%d", base, token, page))
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)

	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	return b
}
