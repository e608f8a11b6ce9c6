package wire

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	ModeNonTransactional = "NON_TRANSACTIONAL"

	MethodCommit = "commit"
	MethodLookup = "lookup"

	StatusAlreadyExists   = "ALREADY_EXISTS"
	StatusNotFound        = "NOT_FOUND"
	StatusInvalidArgument = "INVALID_ARGUMENT"
	StatusInternal        = "INTERNAL"
)

type Mutation struct {
	Insert *Entity `json:"insert,omitempty"`
	Upsert *Entity `json:"upsert,omitempty"`
	Update *Entity `json:"update,omitempty"`
	Delete *Key    `json:"delete,omitempty"`
}

// Operation names the single populated operation, or "" when the mutation
// is empty or ambiguous.
func (m Mutation) Operation() string {
	ops := make([]string, 0, 1)
	if m.Insert != nil {
		ops = append(ops, "insert")
	}
	if m.Upsert != nil {
		ops = append(ops, "upsert")
	}
	if m.Update != nil {
		ops = append(ops, "update")
	}
	if m.Delete != nil {
		ops = append(ops, "delete")
	}
	if len(ops) != 1 {
		return ""
	}
	return ops[0]
}

type CommitRequest struct {
	Mode      string     `json:"mode"`
	Mutations []Mutation `json:"mutations"`
}

type MutationResult struct {
	Key              *Key   `json:"key,omitempty"`
	Version          string `json:"version,omitempty"`
	ConflictDetected bool   `json:"conflictDetected,omitempty"`
}

type CommitResponse struct {
	MutationResults []MutationResult `json:"mutationResults"`
	IndexUpdates    int              `json:"indexUpdates,omitempty"`
}

type LookupRequest struct {
	Keys []Key `json:"keys"`
}

type EntityResult struct {
	Entity  Entity `json:"entity"`
	Version string `json:"version,omitempty"`
}

type LookupResponse struct {
	Found    []EntityResult `json:"found,omitempty"`
	Missing  []EntityResult `json:"missing,omitempty"`
	Deferred []Key          `json:"deferred,omitempty"`
}

// APIError is the error body returned by the store for non-2xx responses.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("datastore api error %d (%s): %s", e.Code, e.Status, e.Message)
}

type ErrorEnvelope struct {
	Error *APIError `json:"error"`
}

// ParseAPIError reads an error envelope from body, falling back to the
// HTTP status and raw body text when the envelope is absent.
func ParseAPIError(statusCode int, body []byte) *APIError {
	var envelope ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		if envelope.Error.Code == 0 {
			envelope.Error.Code = statusCode
		}
		return envelope.Error
	}
	return &APIError{
		Code:    statusCode,
		Message: strings.TrimSpace(string(body)),
		Status:  strings.ToUpper(strings.ReplaceAll(http.StatusText(statusCode), " ", "_")),
	}
}

// NewErrorEnvelope builds the error body for the given status.
func NewErrorEnvelope(code int, status string, message string) ErrorEnvelope {
	return ErrorEnvelope{Error: &APIError{Code: code, Message: message, Status: status}}
}

// ProjectPath renders the REST path for a project scoped method. The
// project id is escaped as a single path segment.
func ProjectPath(projectID string, method string) string {
	return "/v1/projects/" + url.PathEscape(projectID) + ":" + method
}

// SplitProjectTarget splits an escaped "{project}:{method}" segment. The
// method follows the last colon, so domain scoped ids like
// "example.com:demo" keep theirs.
func SplitProjectTarget(target string) (projectID string, method string, ok bool) {
	unescaped, err := url.PathUnescape(target)
	if err != nil {
		return "", "", false
	}
	i := strings.LastIndex(unescaped, ":")
	if i < 0 {
		return "", "", false
	}
	return unescaped[:i], unescaped[i+1:], true
}
