package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dc5v/tictacdb/internal/engine"
	"github.com/dc5v/tictacdb/pkg/epochtime"
	"github.com/dc5v/tictacdb/pkg/logger"
	"github.com/dc5v/tictacdb/pkg/options"
)

type testInstance struct {
	engine  *engine.Engine
	addr    string
	logsDir string
}

func startInstance(t *testing.T) *testInstance {
	t.Helper()

	opts := options.NewDefaultOptions()
	opts.Port = 0 // ephemeral
	opts.DataDir = filepath.Join(t.TempDir(), "data")
	opts.LogsDir = filepath.Join(t.TempDir(), "logs")
	opts.StatsWorkers = 2
	opts.StatsQueueDepth = 4

	eng, err := engine.New(&engine.Config{Options: &opts, Logger: logger.NewNop()})
	require.NoError(t, err)

	go func() { _ = eng.Serve() }()
	t.Cleanup(func() { _ = eng.Close() })

	deadline := time.Now().Add(5 * time.Second)
	for eng.Addr() == nil {
		require.True(t, time.Now().Before(deadline), "server did not come up")
		time.Sleep(5 * time.Millisecond)
	}

	return &testInstance{engine: eng, addr: eng.Addr().String(), logsDir: opts.LogsDir}
}

// roundTrip sends one raw request and returns the full reply; the server
// closes the connection after the terminal response.
func (ti *testInstance) roundTrip(t *testing.T, request string) []byte {
	t.Helper()

	conn, err := net.Dial("tcp", ti.addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(request))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	reply, err := io.ReadAll(conn)
	require.NoError(t, err)
	return reply
}

type envelopeReply struct {
	Error   *int   `json:"error"`
	Message string `json:"message"`
}

func decodeEnvelope(t *testing.T, raw []byte) envelopeReply {
	t.Helper()
	var env envelopeReply
	require.NoError(t, json.Unmarshal(raw, &env))
	require.NotNil(t, env.Error, "reply %s is not an error envelope", raw)
	return env
}

type searchReply struct {
	UID       string    `json:"uid"`
	Timestamp int64     `json:"timestamp"`
	Data      []float64 `json:"data"`
}

func decodeSearch(t *testing.T, raw []byte) []searchReply {
	t.Helper()

	decoder := json.NewDecoder(bytes.NewReader(raw))
	var all []searchReply
	for decoder.More() {
		var chunk []searchReply
		require.NoError(t, decoder.Decode(&chunk))
		all = append(all, chunk...)
	}
	return all
}

func pushOne(t *testing.T, ti *testInstance, request string) string {
	t.Helper()

	var reply struct {
		UID string `json:"uid"`
	}
	require.NoError(t, json.Unmarshal(ti.roundTrip(t, request), &reply))
	require.Len(t, reply.UID, 12)
	return reply.UID
}

func TestPushSearchRoundTrip(t *testing.T) {
	ti := startInstance(t)

	uid := pushOne(t, ti, `{"query":"push","tags":["fan"],"data":[1.0,2.0,3.0]}`)

	records := decodeSearch(t, ti.roundTrip(t, `{"query":"search","tags":["fan"]}`))
	require.Len(t, records, 1)
	assert.Equal(t, uid, records[0].UID)
	assert.Equal(t, []float64{1, 2, 3}, records[0].Data)
	assert.LessOrEqual(t, records[0].Timestamp, epochtime.NowMS())
}

func TestAndDeduplicationEndToEnd(t *testing.T) {
	ti := startInstance(t)

	uid := pushOne(t, ti, `{"query":"push","tags":["a","b"],"data":[10]}`)

	records := decodeSearch(t, ti.roundTrip(t, `{"query":"search","tags":["a","b"],"condition":"and"}`))
	require.Len(t, records, 1, "the record lives in two shards but must be returned once")
	assert.Equal(t, uid, records[0].UID)
}

func TestNorExclusionEndToEnd(t *testing.T) {
	ti := startInstance(t)

	pushOne(t, ti, `{"query":"push","tags":["x"],"data":[1]}`)
	other := pushOne(t, ti, `{"query":"push","tags":["y"],"data":[2]}`)

	records := decodeSearch(t, ti.roundTrip(t, `{"query":"search","tags":["x"],"condition":"nor"}`))
	require.Len(t, records, 1)
	assert.Equal(t, other, records[0].UID)
}

func TestEvaluateEndToEnd(t *testing.T) {
	ti := startInstance(t)

	pushOne(t, ti, `{"query":"push","tags":["ev"],"data":[1,2,3,4,5]}`)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(ti.roundTrip(t, `{"query":"evaluate","tags":["ev"]}`), &decoded))

	assert.Equal(t, float64(5), decoded["length"])
	assert.Equal(t, float64(100), decoded["limit"])
	assert.Equal(t, 3.0, decoded["mean"])
	assert.Equal(t, 3.0, decoded["median"])
	assert.Equal(t, 2.0, decoded["variance"])
}

func TestEvaluateNoMatches(t *testing.T) {
	ti := startInstance(t)

	reply := ti.roundTrip(t, `{"query":"evaluate","tags":["ghost"]}`)
	assert.Equal(t, `{"length":0,"limit":100}`, string(reply))
}

func TestErrorEnvelopes(t *testing.T) {
	ti := startInstance(t)

	tests := []struct {
		name     string
		request  string
		wireCode int
	}{
		{name: "broken JSON", request: `{"query":`, wireCode: 0},
		{name: "missing query", request: `{"tags":["a"]}`, wireCode: 10},
		{name: "unknown query", request: `{"query":"drop"}`, wireCode: 11},
		{name: "search without tags", request: `{"query":"search"}`, wireCode: 20},
		{name: "bad condition", request: `{"query":"search","tags":["a"],"condition":"xor"}`, wireCode: 30},
		{name: "negative start", request: `{"query":"search","tags":["a"],"startTime":-1}`, wireCode: 41},
		{name: "inverted window", request: `{"query":"search","tags":["a"],"startTime":2000,"endTime":1000}`, wireCode: 43},
		{name: "push without data", request: `{"query":"push","tags":["a"]}`, wireCode: 50},
		{name: "push without tags", request: `{"query":"push","data":[1]}`, wireCode: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := decodeEnvelope(t, ti.roundTrip(t, tt.request))
			assert.Equal(t, tt.wireCode, *env.Error)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestConcurrentClients(t *testing.T) {
	ti := startInstance(t)

	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			conn, err := net.Dial("tcp", ti.addr)
			if err != nil {
				results <- err
				return
			}
			defer conn.Close()

			if _, err := conn.Write([]byte(`{"query":"push","tags":["load"],"data":[1,2]}`)); err != nil {
				results <- err
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			_, err = io.ReadAll(conn)
			results <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-results)
	}

	records := decodeSearch(t, ti.roundTrip(t, `{"query":"search","tags":["load"]}`))
	assert.Len(t, records, 8)
}

func TestRequestsAreAudited(t *testing.T) {
	ti := startInstance(t)

	pushOne(t, ti, `{"query":"push","tags":["fan"],"data":[1]}`)

	path := filepath.Join(ti.logsDir, epochtime.FormatDay(epochtime.NowMS())+".log")
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "push | tags: fan")
}
