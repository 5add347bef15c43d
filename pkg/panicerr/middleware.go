package panicerr

import (
	"net/http"

	"github.com/sourcegraph/conc/panics"

	"github.com/kazz187/npcgate/pkg/cerr"
)

// RecoverChiMiddleware answers a panicking handler with a structured 500
// body. http.ErrAbortHandler is re-raised so net/http can abort the
// connection.
func RecoverChiMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var catcher panics.Catcher
			catcher.Try(func() {
				next.ServeHTTP(w, r)
			})
			rec := catcher.Recovered()
			if rec == nil {
				return
			}
			if rec.Value == http.ErrAbortHandler {
				panic(rec.Value)
			}
			cerr.WriteJSONError(r.Context(), w, cerr.NewError(cerr.Internal, "Internal server error occurred", rec.AsError()))
		})
	}
}
