package integration

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// reservePort returns address on a free TCP port and closes it.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// fakeFirebase is a token endpoint and FCM API recording delivered pushes.
type fakeFirebase struct {
	server *httptest.Server

	mu     sync.Mutex
	pushes []map[string]any
}

// startFakeFirebase serves the fake API and writes a matching service account key.
// It returns the fake and the path of the key file.
func startFakeFirebase(t *testing.T) (*fakeFirebase, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	f := new(fakeFirebase)

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"integration-token","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/projects/family/messages:send", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Message map[string]any `json:"message"`
		}

		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.pushes = append(f.pushes, body.Message)
		f.mu.Unlock()

		_, _ = w.Write([]byte(`{"name":"projects/family/messages/1"}`))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	account, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "family",
		"private_key_id": "integration",
		"private_key":    string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})),
		"client_email":   "tagguard@family.iam.gserviceaccount.com",
		"token_uri":      f.server.URL + "/token",
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "service-account.json")
	require.NoError(t, os.WriteFile(path, account, 0o600))

	return f, path
}

// delivered returns a copy of the received push messages.
func (f *fakeFirebase) delivered() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]map[string]any(nil), f.pushes...)
}
