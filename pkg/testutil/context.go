package testutil

import (
	"context"
	"net/http"

	id "conforma/pkg/domain"
	"conforma/pkg/requestcontext"
)

// WithUserID adds a user ID to the request context.
// This simulates part of what the auth middleware does for authenticated requests.
// If the userID is not a valid UUID, it will not be added to the context.
func WithUserID(req *http.Request, userID string) *http.Request {
	if parsedUserID, err := id.ParseUserID(userID); err == nil {
		return req.WithContext(requestcontext.WithUserID(req.Context(), parsedUserID))
	}
	return req
}

// WithCompanyID adds a company ID to the request context.
// If the companyID is not a valid UUID, it will not be added to the context.
func WithCompanyID(req *http.Request, companyID string) *http.Request {
	if parsedCompanyID, err := id.ParseCompanyID(companyID); err == nil {
		return req.WithContext(requestcontext.WithCompanyID(req.Context(), parsedCompanyID))
	}
	return req
}

// WithActor adds user ID, company ID and role to the request context.
// This is the typical state for an authenticated request.
// Invalid values are silently ignored.
func WithActor(req *http.Request, userID, companyID string, role id.Role) *http.Request {
	ctx := req.Context()
	if userID != "" {
		if parsedUserID, err := id.ParseUserID(userID); err == nil {
			ctx = requestcontext.WithUserID(ctx, parsedUserID)
		}
	}
	if companyID != "" {
		if parsedCompanyID, err := id.ParseCompanyID(companyID); err == nil {
			ctx = requestcontext.WithCompanyID(ctx, parsedCompanyID)
		}
	}
	if role.IsValid() {
		ctx = requestcontext.WithRole(ctx, role)
	}
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), key, value))
}
