package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (a *API) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(correlationMiddleware, loggingMiddleware, recoverMiddleware)

	r.HandleFunc("/google-login/validate", a.Validate()).
		Methods(http.MethodGet, http.MethodPost)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/user", a.CreateUser()).Methods(http.MethodPost)
	v1.HandleFunc("/user", a.LoadUser()).Methods(http.MethodGet)
	v1.HandleFunc("/user", a.UpdateUser()).Methods(http.MethodPatch)
	v1.HandleFunc("/user", a.BlockUser()).Methods(http.MethodDelete)
	v1.HandleFunc("/session", a.Session()).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})).
		Methods(http.MethodGet)
	r.HandleFunc("/healthz", a.Health()).
		Methods(http.MethodGet)

	return r
}
