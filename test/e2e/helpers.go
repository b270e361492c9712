//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/vantor-labs/repliq/internal/api/handlers"
	"github.com/vantor-labs/repliq/internal/cache"
	"github.com/vantor-labs/repliq/internal/history"
	"github.com/vantor-labs/repliq/internal/knowledge"
	"github.com/vantor-labs/repliq/internal/server"
	"github.com/vantor-labs/repliq/internal/service"
	"github.com/vantor-labs/repliq/internal/storage"
	"github.com/vantor-labs/repliq/internal/testutil"
)

const (
	knowledgeBucket = "repliq-knowledge"
	knowledgeKey    = "knowledge.json"
)

// knowledgeDoc is the document every test environment starts from. The
// two-dimensional embeddings line up with the stub embedder's directions
// so each kind of query has an unambiguous nearest item.
const knowledgeDoc = `{"items":[
	{"question":"How do I reset my password?","answer":"Open the sign-in page, choose Forgot password and follow the link we email you.","category":"accounts","subCategory":"passwords","metadata":{"keywords":["password","reset"],"intent":"account_recovery","priority":"high"},"embedding":[1.0,0.0]},
	{"question":"How do I enable two-factor authentication?","answer":"Open Security settings and scan the QR code with an authenticator app.","category":"accounts","subCategory":"passwords","metadata":{"keywords":["two-factor","authentication"],"intent":"account_security"},"embedding":[0.6,0.8]},
	{"question":"How do I cancel my subscription?","answer":"Go to Billing, choose Cancel plan and confirm before your next cycle starts.","category":"billing","subCategory":"plans","metadata":{"keywords":["cancel","subscription"],"intent":"cancel_service","priority":"high"},"embedding":[0.0,1.0]},
	{"question":"Where is my order?","answer":"Track your parcel from the Orders page using the tracking number in your confirmation email.","category":"shipping","subCategory":"tracking","metadata":{"keywords":["track","order"],"intent":"shipping_status","priority":"medium"},"embedding":[0.7071,0.7071]}
]}`

// E2ETestEnv holds all resources needed for end-to-end tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	RustFSC      *testutil.RustFSContainer
	S3Client     *storage.S3Client
	ServerURL    string
	ServerCloser func()
	HTTPClient   *http.Client
}

// SetupE2EEnv starts a RustFS container, seeds the knowledge document and
// boots the API server against it
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	s3C := testutil.NewRustFSContainer(ctx, t)

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          knowledgeBucket,
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}

	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	if err := s3Client.Upload(ctx, knowledgeKey, []byte(knowledgeDoc), "application/json"); err != nil {
		t.Fatalf("failed to upload knowledge document: %v", err)
	}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, s3Client, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		RustFSC:      s3C,
		S3Client:     s3Client,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
}

// ResetKnowledge overwrites the stored document and reloads the server's
// knowledge base from it
func (e *E2ETestEnv) ResetKnowledge(doc string) {
	if err := e.S3Client.Upload(e.Ctx, knowledgeKey, []byte(doc), "application/json"); err != nil {
		e.T.Fatalf("failed to overwrite knowledge document: %v", err)
	}
	if _, err := e.Post("/api/v1/knowledge/reload", nil); err != nil {
		e.T.Fatalf("failed to reload knowledge: %v", err)
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// startServer loads the knowledge base from S3 and starts the HTTP server
// with the full answer pipeline behind stub providers
func startServer(t *testing.T, s3Client *storage.S3Client, port int) (string, func()) {
	store := knowledge.NewStore()
	source := knowledge.NewS3Source(s3Client, knowledgeKey)
	if report := store.Load(context.Background(), source); !report.Loaded {
		t.Fatalf("initial knowledge load failed: %s", report.Error)
	}

	svc := service.NewAnswerServiceWithHistory(
		store,
		cache.NewResponseCache(time.Minute),
		history.NewStore(20, 30*time.Minute),
		stubEmbedder{},
		stubGenerator{},
		service.DefaultAnswerServiceConfig(),
	)

	cfg := server.RouterConfig{
		AnswerHandler:    handlers.NewAnswerHandler(svc, 1000),
		SearchHandler:    handlers.NewSearchHandler(svc, 1000),
		KnowledgeHandler: handlers.NewKnowledgeHandler(store, source),
		HistoryHandler:   handlers.NewHistoryHandler(svc),
		MaxBodyBytes:     1 << 20,
		RateLimitRPS:     100,
		RateLimitBurst:   100,
	}

	router := server.NewRouter(cfg)
	addr := fmt.Sprintf(":%d", port)

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// stubEmbedder maps query text onto fixed two-dimensional directions.
// Password queries land on one axis, cancellation queries on the other,
// everything else on the diagonal.
type stubEmbedder struct{}

func (stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "password"):
		return []float64{1, 0}, nil
	case strings.Contains(lower, "cancel"):
		return []float64{0, 1}, nil
	default:
		return []float64{0.7071, 0.7071}, nil
	}
}

// stubGenerator echoes the top ranked answer so tests can assert the exact
// text handed back to the caller
type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, req service.GenerationRequest) (string, error) {
	return req.TopAnswer, nil
}
