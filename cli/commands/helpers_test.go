package commands

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/sse"

	"github.com/petal-labs/anthropic/cli/config"
	"github.com/petal-labs/anthropic/cli/keystore"
	"github.com/petal-labs/anthropic/core"
)

// memKeystore is an in-memory Keystore.
type memKeystore struct {
	mu   sync.Mutex
	keys map[string]core.Secret
}

func newMemKeystore() *memKeystore {
	return &memKeystore{keys: make(map[string]core.Secret)}
}

func (m *memKeystore) Set(profile string, key core.Secret) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[profile] = key
	return nil
}

func (m *memKeystore) Get(profile string) (core.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.keys[profile]
	if !ok {
		return core.Secret{}, keystoreNotFound(profile)
	}
	return k, nil
}

func (m *memKeystore) Delete(profile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[profile]; !ok {
		return keystoreNotFound(profile)
	}
	delete(m.keys, profile)
	return nil
}

func (m *memKeystore) List() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.keys))
	for k := range m.keys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

func keystoreNotFound(profile string) error {
	return fmt.Errorf("%w: %s", keystore.ErrKeyNotFound, profile)
}

type testApp struct {
	*App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	ks     *memKeystore
}

type testAppOptions struct {
	baseURL string
	env     map[string]string
	stdin   string
	tty     bool
}

// newTestApp wires an App to in-memory I/O, a memory keystore and a config
// pointing at baseURL with a fast retry policy.
func newTestApp(t *testing.T, o testAppOptions) *testApp {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", t.TempDir())

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	ks := newMemKeystore()

	cfg := &config.Config{
		BaseURL: o.baseURL,
		Retry: config.RetryConfig{
			InitialInterval: time.Millisecond,
			Multiplier:      1.0,
			MaxElapsedTime:  20 * time.Millisecond,
		},
	}

	app := NewApp(
		WithConfigLoader(func(string) (*config.Config, error) { return cfg, nil }),
		WithKeystoreFactory(func() (keystore.Keystore, error) { return ks, nil }),
		WithEnv(func(k string) string { return o.env[k] }),
		WithIO(strings.NewReader(o.stdin), stdout, stderr, func() bool { return o.tty }),
	)
	return &testApp{App: app, stdout: stdout, stderr: stderr, ks: ks}
}

func (a *testApp) run(args ...string) error {
	a.SetArgs(append([]string{"--env-file", ""}, args...))
	return a.Execute()
}

func exitCodeOf(t *testing.T, err error) int {
	t.Helper()
	ee, ok := err.(*exitError)
	if !ok {
		t.Fatalf("error %v (%T) is not *exitError", err, err)
	}
	return ee.ExitCode()
}

func writeSSE(t *testing.T, w http.ResponseWriter, event, data string) {
	t.Helper()
	if err := sse.Encode(w, sse.Event{Event: event, Data: data}); err != nil {
		t.Errorf("sse.Encode: %v", err)
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

var textStream = []struct{ event, data string }{
	{"message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[],"usage":{"input_tokens":5,"output_tokens":1}}}`},
	{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
	{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hi"}}`},
	{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" there"}}`},
	{"content_block_stop", `{"type":"content_block_stop","index":0}`},
	{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":3}}`},
	{"message_stop", `{"type":"message_stop"}`},
}

func secret(s string) core.Secret {
	return core.NewSecret(s)
}
