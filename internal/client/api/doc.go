// Package api is the REST transport client of the media server.
//
// It covers the folder API (create/list/search) and the upload-session API
// (create, mark complete, poll state). Credential expiry (401/403) is handled
// transparently: the shared token cell is refreshed and the request is
// resubmitted, with a hard cap on consecutive refreshes so that a permanently
// invalid credential surfaces as shared.ErrorAuthRefreshExhausted instead of
// an infinite loop.
package api
