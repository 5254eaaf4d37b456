package service

import (
	"net/http"

	"github.com/organix-app/integration-api/internal/graph"
)

// Machine-readable error codes surfaced to callers.
const (
	CodeTenantIDRequired       = "tenant_id_required"
	CodeUnitIDRequired         = "unit_id_required"
	CodeMediaIDRequired        = "media_id_required"
	CodeMissingRequiredFields  = "missing_required_fields"
	CodeAccountNotFound        = "instagram_account_not_found"
	CodeAccountInactive        = "instagram_account_inactive"
	CodeCredentialNotFound     = "instagram_credential_not_found"
	CodeCredentialUnreadable   = "credential_unreadable"
	CodeMissingEncryptionKey   = "missing_encryption_key"
	CodeMissingScopePublish    = "missing_scope_publish"
	CodeMediaCreationIDMissing = "media_creation_id_missing"
	CodeUpstreamError          = "upstream_error"
)

// Error is the structured failure every operation returns: an HTTP-equivalent
// status, a stable code, and an optional human message (for upstream errors,
// the platform's own message verbatim).
type Error struct {
	Code    string
	Status  int
	Message string
	// Scopes is populated on missing_scope_publish so callers can see what
	// the credential actually granted.
	Scopes []string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func errValidation(code string) *Error {
	return &Error{Code: code, Status: http.StatusBadRequest}
}

func errNotFound(code string) *Error {
	return &Error{Code: code, Status: http.StatusNotFound}
}

func errInternal(code string) *Error {
	return &Error{Code: code, Status: http.StatusInternalServerError}
}

// errUpstream forwards a remote platform failure. Non-graph errors (transport
// faults) are reported with the same code and their error text.
func errUpstream(err error) *Error {
	if ge, ok := err.(*graph.Error); ok {
		return &Error{Code: CodeUpstreamError, Status: http.StatusBadGateway, Message: ge.Message}
	}
	return &Error{Code: CodeUpstreamError, Status: http.StatusBadGateway, Message: err.Error()}
}
