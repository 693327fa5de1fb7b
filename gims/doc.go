// Package gims is an HTTP client for the GIMS Automation API.
//
// The client owns one credential pair (access + refresh token) for the
// process lifetime. Requests carry the access token as a bearer credential;
// when the server answers 401 the client exchanges the refresh token for a
// new access token through the fixed refresh endpoint and retries the
// original request exactly once. A rejected refresh token is unrecoverable
// and surfaces as [AuthError]; no further retries happen.
//
// Error responses are classified into sentinels ([ErrAuthFailed],
// [ErrPermissionDenied], [ErrNotFound]) wrapped in [APIError], with response
// details sanitized: JSON error bodies contribute their detail field, HTML
// error pages are reduced to the page title or a tag-stripped snippet. A 2xx
// response that is not JSON is itself an error; raw non-JSON bytes never
// reach callers.
//
// Beyond request/response, [Client.StreamEvents] consumes server-sent-event
// log streams with bounded per-read timeouts and transparent reconnects
// until the caller's deadline elapses.
package gims
