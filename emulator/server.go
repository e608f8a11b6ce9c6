package emulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goliatone/go-datastore/convert"
	"github.com/goliatone/go-datastore/core"
	"github.com/goliatone/go-datastore/wire"
	"github.com/goliatone/go-logger/glog"
)

const maxRequestBodyBytes = 10 << 20

var errInvalidArgument = errors.New("emulator: invalid argument")

// Server answers commit and lookup calls on /v1/projects/{project}:{method}.
// Mutations in a commit apply in order; a failing mutation stops the batch
// without undoing earlier ones.
type Server struct {
	router chi.Router
	store  Store
	logger core.Logger
}

type ServerOption func(*Server)

func WithLogger(logger core.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewServer(store Store, opts ...ServerOption) *Server {
	s := &Server{store: store}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = glog.Ensure(s.logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.Recoverer)
	router.Post("/v1/projects/{target}", s.handleProject)
	s.router = router
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	project, method, ok := wire.SplitProjectTarget(chi.URLParam(r, "target"))
	if !ok || strings.TrimSpace(project) == "" {
		writeError(w, http.StatusNotFound, wire.StatusNotFound, "unknown route")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	switch method {
	case wire.MethodCommit:
		s.handleCommit(w, r, project)
	case wire.MethodLookup:
		s.handleLookup(w, r, project)
	default:
		writeError(w, http.StatusNotFound, wire.StatusNotFound, fmt.Sprintf("unknown method %q", method))
	}
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request, project string) {
	var req wire.CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, wire.StatusInvalidArgument, "invalid commit body: "+err.Error())
		return
	}

	res := wire.CommitResponse{MutationResults: make([]wire.MutationResult, 0, len(req.Mutations))}
	for i, mutation := range req.Mutations {
		version, err := s.applyMutation(r, project, mutation)
		if err != nil {
			s.logger.Warn("emulator commit rejected",
				"project_id", project,
				"mutation", i,
				"operation", mutation.Operation(),
				"error", err.Error(),
			)
			s.writeStoreError(w, err)
			return
		}
		res.MutationResults = append(res.MutationResults, wire.MutationResult{
			Version: strconv.FormatInt(version, 10),
		})
		res.IndexUpdates++
	}
	s.logger.Debug("emulator commit applied", "project_id", project, "mutations", len(req.Mutations))
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) applyMutation(r *http.Request, project string, mutation wire.Mutation) (int64, error) {
	ctx := r.Context()
	var (
		entity *wire.Entity
		mode   PutMode
	)
	switch mutation.Operation() {
	case "insert":
		entity, mode = mutation.Insert, PutInsert
	case "upsert":
		entity, mode = mutation.Upsert, PutUpsert
	case "update":
		entity, mode = mutation.Update, PutUpdate
	case "delete":
		kind, name, err := resolveKey(project, mutation.Delete)
		if err != nil {
			return 0, err
		}
		return s.store.Delete(ctx, kind, name)
	default:
		return 0, fmt.Errorf("%w: mutation must carry exactly one operation", errInvalidArgument)
	}

	if _, err := convert.EntityFromWire(entity); err != nil {
		return 0, fmt.Errorf("%w: %s", errInvalidArgument, err.Error())
	}
	kind, name, err := resolveKey(project, entity.Key)
	if err != nil {
		return 0, err
	}
	payload, err := wire.MarshalProperties(entity.Properties)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", errInvalidArgument, err.Error())
	}
	stored, err := s.store.Put(ctx, Record{Kind: kind, Name: name, Payload: payload}, mode)
	if err != nil {
		return 0, err
	}
	return stored.Version, nil
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request, project string) {
	var req wire.LookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, wire.StatusInvalidArgument, "invalid lookup body: "+err.Error())
		return
	}

	var res wire.LookupResponse
	for i := range req.Keys {
		key := req.Keys[i]
		kind, name, err := resolveKey(project, &key)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		record, err := s.store.Get(r.Context(), kind, name)
		if errors.Is(err, ErrNotFound) {
			res.Missing = append(res.Missing, wire.EntityResult{Entity: wire.Entity{Key: &key}})
			continue
		}
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		properties, err := wire.UnmarshalProperties(record.Payload)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		res.Found = append(res.Found, wire.EntityResult{
			Entity:  wire.Entity{Key: &key, Properties: properties},
			Version: strconv.FormatInt(record.Version, 10),
		})
	}
	s.logger.Debug("emulator lookup served",
		"project_id", project,
		"found", len(res.Found),
		"missing", len(res.Missing),
	)
	writeJSON(w, http.StatusOK, res)
}

// resolveKey returns the kind and name of the leaf path element. Numeric ids
// stand in for names.
func resolveKey(project string, key *wire.Key) (string, string, error) {
	parsed, err := convert.KeyFromWire(key)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", errInvalidArgument, err.Error())
	}
	if parsed == nil || len(parsed.Path) == 0 {
		return "", "", fmt.Errorf("%w: key path is required", errInvalidArgument)
	}
	if parsed.ProjectID != "" && parsed.ProjectID != project {
		return "", "", fmt.Errorf("%w: key project %q does not match %q", errInvalidArgument, parsed.ProjectID, project)
	}
	leaf := parsed.Path[len(parsed.Path)-1]
	name := leaf.Name
	if name == "" {
		name = leaf.ID
	}
	if strings.TrimSpace(name) == "" {
		return "", "", fmt.Errorf("%w: key requires a name or id", errInvalidArgument)
	}
	return leaf.Kind, name, nil
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAlreadyExists):
		writeError(w, http.StatusConflict, wire.StatusAlreadyExists, "entity already exists")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, wire.StatusNotFound, "no entity to update")
	case errors.Is(err, errInvalidArgument):
		writeError(w, http.StatusBadRequest, wire.StatusInvalidArgument, err.Error())
	default:
		s.logger.Error("emulator store failure", "error", err.Error())
		writeError(w, http.StatusInternalServerError, wire.StatusInternal, err.Error())
	}
}

func writeError(w http.ResponseWriter, code int, status string, message string) {
	writeJSON(w, code, wire.NewErrorEnvelope(code, status, message))
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
