// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package service

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/airpartners/ade/internal/metrics"
	"github.com/airpartners/ade/quantaq"
	"github.com/airpartners/ade/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router serves the HTTP trigger, the stored graphs and the metrics:
//
//	POST /devices/{sn}/update   run an update, optionally with an UpdateRequest
//	GET  /devices/{sn}/graph    the stored graph
//	GET  /metrics               Prometheus metrics
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/devices/{sn}", func(r chi.Router) {
		r.Post("/update", s.handleUpdate)
		r.Get("/graph", s.handleGraph)
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

func (s *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sn := chi.URLParam(r, "sn")

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil &&
		!errors.Is(err, io.EOF) {
		http.Error(w, "invalid update request", http.StatusBadRequest)
		return
	}

	res, err := s.trigger(ctx, sn, req)
	if err != nil {
		s.log.Err(ctx, "update request failed", err,
			slog.String("sn", sn),
			slog.String("request", middleware.GetReqID(ctx)),
		)
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	s.writeJSON(w, r, res)
}

func (s *Service) handleGraph(w http.ResponseWriter, r *http.Request) {
	sn := chi.URLParam(r, "sn")

	g, ok, err := s.Graph(r.Context(), sn)
	switch {
	case err != nil:
		http.Error(w, err.Error(), statusOf(err))
	case !ok:
		http.Error(w, "no graph for "+sn, http.StatusNotFound)
	default:
		s.writeJSON(w, r, g)
	}
}

func (s *Service) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Err(r.Context(), "failed to write response", err)
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrNoDevice):
		return http.StatusBadRequest
	case errors.Is(err, quantaq.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
