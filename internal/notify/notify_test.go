package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/commoncode/vhdeploy/internal/config"
	"github.com/commoncode/vhdeploy/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// chatServer records every frame it receives along with the auth header.
type chatServer struct {
	*httptest.Server
	mu     sync.Mutex
	frames []Frame
	auth   string
	got    chan struct{}
}

func newChatServer(t *testing.T) *chatServer {
	t.Helper()
	s := &chatServer{got: make(chan struct{}, 16)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.auth = r.Header.Get("Authorization")
		s.mu.Unlock()

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		for {
			var f Frame
			if err := wsjson.Read(r.Context(), conn, &f); err != nil {
				return
			}
			s.mu.Lock()
			s.frames = append(s.frames, f)
			s.mu.Unlock()
			s.got <- struct{}{}
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *chatServer) wait(t *testing.T, n int) []Frame {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-s.got:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for frame %d", i+1)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Frame(nil), s.frames...)
}

func TestNew_NoURLIsNoop(t *testing.T) {
	n := New(config.NotifyConfig{}, nil)
	assert.IsType(t, Noop{}, n)

	n.Announce(context.Background(), "ignored")
	assert.NoError(t, n.Close())
}

func TestChat_JoinsThenSpeaks(t *testing.T) {
	srv := newChatServer(t)

	chat := NewChat(config.NotifyConfig{URL: srv.URL, Room: "Mentorloop", Token: "s3cret"}, nil)
	chat.Announce(context.Background(), "alice deploying refs/heads/main (abc123 fix) to [staging]")
	chat.Announce(context.Background(), "alice deployed refs/heads/main (abc123 fix) to [staging]")

	frames := srv.wait(t, 3)
	require.Len(t, frames, 3)
	assert.Equal(t, Frame{Type: FrameJoin, Room: "Mentorloop"}, frames[0])
	assert.Equal(t, FrameSpeak, frames[1].Type)
	assert.Equal(t, "Mentorloop", frames[1].Room)
	assert.Contains(t, frames[1].Body, "deploying")
	assert.Contains(t, frames[2].Body, "deployed")

	srv.mu.Lock()
	assert.Equal(t, "Bearer s3cret", srv.auth)
	srv.mu.Unlock()

	assert.False(t, chat.Disabled())
	assert.NoError(t, chat.Close())
}

func TestChat_DialFailureDisablesOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	log := logger.NewBufferLogger()
	chat := NewChat(config.NotifyConfig{URL: srv.URL, Room: "ops", Timeout: time.Second}, log)

	chat.Announce(context.Background(), "first")
	chat.Announce(context.Background(), "second")

	assert.True(t, chat.Disabled())
	assert.Equal(t, int32(1), hits.Load())
	assert.True(t, log.HasLevel("warn"))
	assert.NoError(t, chat.Close())
}

func TestChat_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	chat := NewChat(config.NotifyConfig{URL: url, Room: "ops", Timeout: 500 * time.Millisecond}, nil)

	done := make(chan struct{})
	go func() {
		chat.Announce(context.Background(), "hello")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Announce blocked on an unreachable server")
	}
	assert.True(t, chat.Disabled())
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "bob deploying refs/heads/main (1a2b3c4 Fix login) to [prod]",
		Deploying("bob", "refs/heads/main", "1a2b3c4 Fix login", "prod"))
	assert.Equal(t, "bob deployed refs/heads/main (1a2b3c4 Fix login) to [prod]",
		Deployed("bob", "refs/heads/main", "1a2b3c4 Fix login", "prod"))
}
