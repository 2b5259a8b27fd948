package httpserver

import "net/http"

// Routes groups handlers. Nil entries are skipped so optional surfaces (the
// gate callbacks, metrics) can be left unwired.
type Routes struct {
	Register       http.HandlerFunc
	Login          http.HandlerFunc
	Enter          http.HandlerFunc
	Exit           http.HandlerFunc
	CurrentSession http.HandlerFunc
	History        http.HandlerFunc
	Reconcile      http.HandlerFunc
	LotSpaces      http.HandlerFunc
	LotWatch       http.HandlerFunc
	HistoryWatch   http.HandlerFunc
	PlateSeen      http.HandlerFunc
	Unregistered   http.HandlerFunc
	Metrics        http.Handler
	Health         http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Register != nil {
		mux.Handle("/accounts/register", method(http.MethodPost, routes.Register))
	}
	if routes.Login != nil {
		mux.Handle("/auth/login", method(http.MethodPost, routes.Login))
	}
	if routes.Enter != nil {
		mux.Handle("/parking/enter", method(http.MethodPost, routes.Enter))
	}
	if routes.Exit != nil {
		mux.Handle("/parking/exit", method(http.MethodPost, routes.Exit))
	}
	if routes.CurrentSession != nil {
		mux.Handle("/parking/session", method(http.MethodGet, routes.CurrentSession))
	}
	if routes.History != nil {
		mux.Handle("/parking/history", method(http.MethodGet, routes.History))
	}
	if routes.Reconcile != nil {
		mux.Handle("/parking/reconcile", method(http.MethodPost, routes.Reconcile))
	}
	if routes.LotSpaces != nil {
		mux.Handle("/lots/spaces", method(http.MethodGet, routes.LotSpaces))
	}
	if routes.LotWatch != nil {
		mux.Handle("/ws/lots", method(http.MethodGet, routes.LotWatch))
	}
	if routes.HistoryWatch != nil {
		mux.Handle("/ws/history", method(http.MethodGet, routes.HistoryWatch))
	}
	if routes.PlateSeen != nil {
		mux.Handle("/internal/anpr/plate-seen", method(http.MethodPost, routes.PlateSeen))
	}
	if routes.Unregistered != nil {
		mux.Handle("/internal/anpr/unregistered", method(http.MethodGet, routes.Unregistered))
	}
	if routes.Metrics != nil {
		mux.Handle("/metrics", routes.Metrics)
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
