package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/timeshop/internal/gateway"
	"github.com/mcdev12/timeshop/internal/models"
)

func TestSignupLoginAndSync(t *testing.T) {
	var syncedState models.State
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signup", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(map[string]any{
			"username": body.Username,
			"state":    models.NewState(),
		})
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		st := models.NewState()
		st.TotalSeconds = 42
		json.NewEncoder(w).Encode(map[string]any{"username": "alice", "state": st})
	})
	mux.HandleFunc("POST /api/state", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			State models.State `json:"state"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		syncedState = body.State
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	api := New(srv.URL)
	ctx := context.Background()

	st, err := api.Signup(ctx, "alice", "hunter2")
	require.NoError(t, err)
	require.Equal(t, 0, st.TotalSeconds)

	st, err = api.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)
	require.Equal(t, 42, st.TotalSeconds)

	syncer := NewStateSyncer(api, "alice", "hunter2")
	st.TotalSeconds = 50
	require.NoError(t, syncer.Sync(ctx, st))
	require.Equal(t, 50, syncedState.TotalSeconds)
}

func TestServerErrorSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Username already exists."})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Signup(context.Background(), "alice", "hunter2")
	require.ErrorContains(t, err, "Username already exists.")
	require.ErrorContains(t, err, "400")
}

func TestPresenceReportAndListen(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var (
		mu       sync.Mutex
		received []models.Presence
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		frame, err := json.Marshal(gateway.Message{Type: gateway.MessageTypeTotalTime, Data: json.RawMessage("123")})
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg gateway.Message
			require.NoError(t, json.Unmarshal(data, &msg))
			require.Equal(t, gateway.MessageTypePresenceUpdate, msg.Type)
			var p models.Presence
			require.NoError(t, json.Unmarshal(msg.Data, &p))
			mu.Lock()
			received = append(received, p)
			mu.Unlock()
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := DialPresence(ctx, WSBaseURL(srv.URL))
	require.NoError(t, err)
	defer conn.Close()

	totals := make(chan int, 1)
	conn.OnTotalTime = func(total int) { totals <- total }
	go conn.Listen(ctx)

	select {
	case total := <-totals:
		require.Equal(t, 123, total)
	case <-time.After(2 * time.Second):
		t.Fatal("no totalTime frame received")
	}

	require.NoError(t, conn.Report(ctx, models.Presence{Username: "alice", TotalSeconds: 7}))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1 && received[0].Username == "alice"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWSBaseURL(t *testing.T) {
	require.Equal(t, "ws://localhost:6020/ws", WSBaseURL("http://localhost:6020"))
	require.Equal(t, "wss://shop.example.com/ws", WSBaseURL("https://shop.example.com"))
}
