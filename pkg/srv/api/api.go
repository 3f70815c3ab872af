/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// go-stemlab API
//
// # RESTful API to read and write the registers of a StemLab device
//
// Schemes: http
// Host: localhost:8000
// BasePath: /api
// Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-openapi/loads"
	"github.com/go-openapi/runtime/middleware"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"jinr.ru/greenlab/go-stemlab/pkg/config"
	"jinr.ru/greenlab/go-stemlab/pkg/log"
	"jinr.ru/greenlab/go-stemlab/pkg/srv/api/ifc"
)

const (
	ApiPrefix     = "/api"
	SessionHeader = "X-Session-Id"
)

//go:embed swagger.json
var swaggerJSON []byte

// SessionInfo describes the session served by the API
type SessionInfo struct {
	ID     string `json:"id"`
	Device string `json:"device"`
	Schema string `json:"schema"`
}

// RegValue is the value of one register
type RegValue struct {
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
	State string      `json:"state,omitempty"`
}

// SetRequest is the body of a register write
type SetRequest struct {
	Value interface{} `json:"value"`
}

type SaveResponse struct {
	Entries int `json:"entries"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	Info    SessionInfo
	session ifc.Session
	handler http.Handler
}

var _ ifc.ApiServer = &ApiServer{}

// NewApiServer validates the embedded API document and configures the routes
func NewApiServer(ctx context.Context, cfg *config.Config, info SessionInfo, session ifc.Session) (*ApiServer, error) {
	log.Info("Initializing API server with address: %s", cfg.ApiAddress())
	doc, err := loads.Analyzed(json.RawMessage(swaggerJSON), "2.0")
	if err != nil {
		return nil, fmt.Errorf("API document: %w", err)
	}
	s := &ApiServer{
		Context: ctx,
		Config:  cfg,
		Info:    info,
		session: session,
	}
	s.configureRouter()

	var h http.Handler = s.Router
	h = middleware.Redoc(middleware.RedocOpts{
		BasePath: ApiPrefix,
		Path:     "docs",
		SpecURL:  ApiPrefix + "/swagger.json",
		Title:    doc.Spec().Info.Title,
	}, h)
	h = middleware.Spec(ApiPrefix, doc.Raw(), h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}), handlers.PrintRecoveryStack(true))(h)
	s.handler = handlers.LoggingHandler(log.Writer(), h)
	return s, nil
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	log.Error("API handler panic: %s", fmt.Sprint(v...))
}

// Handler returns the router wrapped into the documentation, recovery and logging middleware
func (s *ApiServer) Handler() http.Handler {
	return s.handler
}

// Run serves the API until the server fails or the context is done
func (s *ApiServer) Run() error {
	log.Info("Starting API server: address: %s", s.ApiAddress())
	httpServer := &http.Server{
		Handler: s.handler,
		Addr:    s.ApiAddress(),
	}
	go func() {
		<-s.Context.Done()
		httpServer.Close()
	}()
	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix(ApiPrefix).Subrouter()
	subRouter.Use(s.sessionHeader)
	subRouter.HandleFunc("/session", s.handleSession()).Methods("GET")
	subRouter.HandleFunc("/paths", s.handlePaths()).Methods("GET")
	subRouter.HandleFunc("/reg/{path}", s.handleRegGet()).Methods("GET")
	subRouter.HandleFunc("/reg/{path}", s.handleRegSet()).Methods("POST")
	subRouter.HandleFunc("/snapshot", s.handleSnapshot()).Methods("GET")
	subRouter.HandleFunc("/config/save", s.handleSave()).Methods("POST")
	subRouter.HandleFunc("/config/reconcile", s.handleReconcile()).Methods("POST")
}

func (s *ApiServer) sessionHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(SessionHeader, s.Info.ID)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response: %s", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusOf(err)
	log.Debug("API error %d: %s", code, err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(&ErrorResponse{Code: code, Error: err.Error()})
}

// decodeValue keeps integers exact, JSON numbers would otherwise all become float64
func decodeValue(v interface{}) interface{} {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return u
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func (s *ApiServer) handleSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.Info)
	}
}

func (s *ApiServer) handlePaths() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.session.Root().Paths())
	}
}

func (s *ApiServer) handleRegGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := mux.Vars(r)["path"]
		log.Debug("Handling reg get request: path: %s", path)
		value, err := s.session.Get(r.Context(), path)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, &RegValue{Path: path, Value: value, State: s.session.Policy().State(path).String()})
	}
}

func (s *ApiServer) handleRegSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := mux.Vars(r)["path"]
		req := &SetRequest{}
		decoder := json.NewDecoder(r.Body)
		decoder.UseNumber()
		if err := decoder.Decode(req); err != nil {
			writeError(w, ErrBadRequest{What: err.Error()})
			return
		}
		if req.Value == nil {
			writeError(w, ErrBadRequest{What: "missing value"})
			return
		}
		value := decodeValue(req.Value)
		log.Debug("Handling reg set request: path: %s value: %v", path, value)
		confirmed, err := s.session.Set(r.Context(), path, value)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, &RegValue{Path: path, Value: confirmed, State: s.session.Policy().State(path).String()})
	}
}

func (s *ApiServer) handleSnapshot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		root := r.URL.Query().Get("root")
		log.Debug("Handling snapshot request: root: %q", root)
		values, err := s.session.Snapshot(r.Context(), root)
		if err != nil {
			writeError(w, err)
			return
		}
		result := make([]RegValue, 0, len(values))
		for _, v := range values {
			result = append(result, RegValue{Path: v.Path, Value: v.Value})
		}
		writeJSON(w, result)
	}
}

func (s *ApiServer) handleSave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := s.session.Save(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, &SaveResponse{Entries: n})
	}
}

func (s *ApiServer) handleReconcile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := s.session.Reconcile(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, report)
	}
}
