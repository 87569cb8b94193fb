package handlers

import (
	"context"
	"net/http"
	"runtime/debug"

	"github.com/Brownie44l1/oral-api/internal/inference"
	"github.com/cyclopcam/logs"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

const msgMethodNotAllowed = "Method not allowed"

type requestIDKey struct{}

// RequestID returns the id assigned to the request, or an empty string.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// NewRouter wires the public endpoints. Unknown routes, wrong methods and panics
// all produce a JSON {"error": ...} body.
func NewRouter(log logs.Log, h *Handler) http.Handler {
	router := httprouter.New()
	router.GET("/", h.Health)
	router.POST("/cnn-predict-mouth", h.Predict)

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, StatusCode(inference.KindNotFound), inference.MsgNotFound)
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, rec any) {
		log.Errorf("[%v] Panic %v: %v", RequestID(r.Context()), r.URL.Path, rec)
		log.Errorf("Stack Trace: %v", string(debug.Stack()))
		sendError(w, StatusCode(inference.KindInternal), inference.MsgInternal)
	}

	return withRequestID(enableCORS(router))
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
