// Package gateway implements the edge endpoints that authenticate the caller,
// forward one bounded call to the backend function and normalize its reply.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/npcgate/internal/identity"
	"github.com/kazz187/npcgate/internal/upstream"
	"github.com/kazz187/npcgate/pkg/cerr"
	"github.com/kazz187/npcgate/pkg/clog"
	"github.com/kazz187/npcgate/pkg/panicerr"
)

const maxFormMemory = 10 << 20

type Handler struct {
	ops      Operations
	caller   *upstream.Caller
	resolver *identity.Resolver
}

func NewHandler(ops Operations, caller *upstream.Caller, resolver *identity.Resolver) *Handler {
	return &Handler{
		ops:      ops,
		caller:   caller,
		resolver: resolver,
	}
}

// Mount registers the endpoints under their function names and the short
// aliases. r must carry cerr.NewJSONResponseChiMiddleware.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/game-task", h.Task)
	r.Get("/api/grader", h.Grade)
	r.Get("/api/pass-task", h.Pass)
	r.Post("/api/registration", h.Register)

	r.Get("/task", h.Task)
	r.Get("/grade", h.Grade)
	r.Get("/pass", h.Pass)
	r.Post("/register", h.Register)
}

func (h *Handler) Task(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.ops.Task, h.normalized)
}

func (h *Handler) Grade(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.ops.Grade, h.normalized)
}

func (h *Handler) Pass(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.ops.Pass, h.passThrough)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.ops.Register, h.register)
}

type operationFunc func(ctx context.Context, w http.ResponseWriter, r *http.Request, op *Operation, id identity.Identity) error

// serve resolves the caller, checks the configuration and runs fn. Every
// failure, panics included, ends up as a structured error response.
func (h *Handler) serve(w http.ResponseWriter, r *http.Request, op *Operation, fn operationFunc) {
	ctx := r.Context()
	clog.AddAttribute(ctx, "operation", op.Name)

	err := panicerr.SafeContext(func(ctx context.Context) error {
		id := h.resolver.Resolve(r)
		clog.AddAttribute(ctx, "email", id.Email)
		if !id.Authenticated() {
			if op == h.ops.Register {
				return writeLoginRequired(w)
			}
			return cerr.NewError(cerr.Unauthenticated,
				fmt.Sprintf("Authentication required. Please login to access the %s service.", op.Service), nil)
		}
		if op.Target == "" {
			return cerr.NewError(cerr.Misconfigured,
				fmt.Sprintf("%s environment variable is not set.", op.TargetKey), nil)
		}
		return fn(ctx, w, r, op, id)
	})(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
	}
}

func (h *Handler) normalized(ctx context.Context, _ http.ResponseWriter, r *http.Request, op *Operation, id identity.Identity) error {
	game, npc := queryOr(r, "game"), queryOr(r, "npc")
	clog.AddAttributes(ctx, map[string]any{"game": game, "npc": npc})

	res := h.caller.Get(ctx, op.Target, op.params(game, npc, id.Email), op.Deadline)
	if err := h.classify(ctx, op, res); err != nil {
		return err
	}
	resp := Normalize(res.Payload, op.defaults(game, npc))
	slog.DebugContext(ctx, "upstream call completed", "next_phase", resp.NextPhase, "task_name", resp.TaskName)
	cerr.SetJSONResponse(ctx, resp)
	return nil
}

// passThrough forwards the email only and returns the backend JSON as is.
func (h *Handler) passThrough(ctx context.Context, _ http.ResponseWriter, _ *http.Request, op *Operation, id identity.Identity) error {
	res := h.caller.Get(ctx, op.Target, url.Values{"email": {id.Email}}, op.Deadline)
	if err := h.classify(ctx, op, res); err != nil {
		return err
	}
	cerr.SetJSONResponse(ctx, json.RawMessage(res.Payload))
	return nil
}

func (h *Handler) register(ctx context.Context, w http.ResponseWriter, r *http.Request, op *Operation, id identity.Identity) error {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return cerr.NewError(cerr.InvalidArgument, "Invalid registration form", err)
	}
	form := url.Values{}
	for k, vs := range r.PostForm {
		form[k] = append([]string(nil), vs...)
	}
	form.Set("email", id.Email)

	res := h.caller.PostForm(ctx, op.Target, form, op.Deadline)
	if err := h.classify(ctx, op, res); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Payload); err != nil {
		clog.AddError(ctx, err)
	}
	return nil
}

// classify maps a failed upstream result onto the error taxonomy.
func (h *Handler) classify(ctx context.Context, op *Operation, res upstream.Result) error {
	clog.AddAttributes(ctx, map[string]any{
		"outcome":         res.Kind.String(),
		"upstream_status": res.StatusCode,
	})
	switch res.Kind {
	case upstream.Success:
		return nil
	case upstream.HTTPError:
		return cerr.NewErrorWithStatus(cerr.UpstreamRejected, res.StatusCode,
			fmt.Sprintf("Failed to call %s: %s", op.TargetKey, res.StatusText), res.Err())
	default:
		return cerr.NewError(cerr.Unreachable,
			fmt.Sprintf("Failed to connect to %s service", op.Service), res.Err())
	}
}

func queryOr(r *http.Request, key string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return identity.Unknown
}
