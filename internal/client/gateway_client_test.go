package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/npcgate/internal/config"
	"github.com/kazz187/npcgate/internal/gateway"
	"github.com/kazz187/npcgate/internal/identity"
	"github.com/kazz187/npcgate/internal/interaction"
	"github.com/kazz187/npcgate/internal/interaction/repositoryimpl"
	"github.com/kazz187/npcgate/internal/upstream"
	"github.com/kazz187/npcgate/pkg/cerr"
)

// newStack starts a fake backend and a gateway in front of it.
func newStack(t *testing.T, backend http.HandlerFunc) string {
	t.Helper()
	be := httptest.NewServer(backend)
	t.Cleanup(be.Close)

	env := &config.Env{
		BackendEnv: config.BackendEnv{
			GameTaskURL:     be.URL + "/task?code=a",
			GraderURL:       be.URL + "/grade?code=b",
			PassTaskURL:     be.URL + "/pass?code=c",
			RegistrationURL: be.URL + "/register?code=d",
		},
		TimeoutEnv: config.TimeoutEnv{
			TaskTimeout:     time.Second,
			GradeTimeout:    time.Second,
			PassTimeout:     time.Second,
			RegisterTimeout: time.Second,
		},
	}
	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	gateway.NewHandler(gateway.NewOperations(env), upstream.NewCaller(nil), identity.NewResolver(nil)).Mount(r)

	gw := httptest.NewServer(r)
	t.Cleanup(gw.Close)
	return gw.URL
}

func TestGatewayClientDrivesMachine(t *testing.T) {
	var taskCalls, gradeCalls atomic.Int32
	base := newStack(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/task":
			taskCalls.Add(1)
			fmt.Fprint(w, `{"status":"OK","nextGamePhrase":"TASK_ASSIGNED","taskName":"Deploy a VM","message":"Deploy a VM please"}`)
		case "/grade":
			gradeCalls.Add(1)
			fmt.Fprint(w, `{"status":"OK","next_phase":"READY_FOR_NEXT","task_completed":true,"score":10,"completed_tasks":1}`)
		}
	})

	ctx := context.Background()
	m := interaction.NewMachine(repositoryimpl.NewMemoryRepository(), NewGatewayClient(base, "alice@example.com"))

	for i := 0; i < 2; i++ {
		res, err := m.Interact(ctx, "bob")
		require.NoError(t, err)
		require.NoError(t, res.Err)
		assert.Equal(t, interaction.OperationTask, res.Operation)
	}
	st, err := m.State(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "Deploy a VM", st.TaskName)
	assert.Equal(t, 1, st.ConsecutiveInteractions)

	res, err := m.Interact(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, interaction.OperationGrade, res.Operation)
	assert.Contains(t, res.Output.Lines, "🎉 Congratulations! Task completed! 🎉")

	st, err = m.State(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, st.HasActiveTask)
	assert.EqualValues(t, 2, taskCalls.Load())
	assert.EqualValues(t, 1, gradeCalls.Load())
}

func TestGatewayClientUnauthenticated(t *testing.T) {
	base := newStack(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend must not be called")
	})

	_, err := NewGatewayClient(base, "").Task(context.Background(), "g", "n")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.UpstreamRejected))

	var cErr *cerr.Error
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, http.StatusUnauthorized, cErr.HTTPStatus())
}

func TestGatewayClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewGatewayClient(base, "alice@example.com").Grade(context.Background(), "g", "n")
	assert.True(t, cerr.IsCode(err, cerr.Unreachable))
}

func TestGatewayClientPassAndRegister(t *testing.T) {
	base := newStack(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pass":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"passed":true,"email":%q}`, r.URL.Query().Get("email"))
		case "/register":
			_ = r.ParseForm()
			fmt.Fprintf(w, "<p>%s %s</p>", r.PostForm.Get("name"), r.PostForm.Get("email"))
		}
	})
	c := NewGatewayClient(base, "alice@example.com")

	doc, err := c.Pass(context.Background())
	require.NoError(t, err)
	assert.True(t, doc.Get("passed").Bool())
	assert.Equal(t, "alice@example.com", doc.Get("email").String())

	page, err := c.Register(context.Background(), url.Values{"name": {"Alice"}})
	require.NoError(t, err)
	assert.Equal(t, "<p>Alice alice@example.com</p>", page)
}
