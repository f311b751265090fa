package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// SessionState is the server-side state of an upload session. It only ever
// advances; the client observes it via polling and never mutates it directly.
type SessionState int

const (
	StateUploading SessionState = iota
	StateUploadComplete
	StateUploadCancelled
	StateProcessing
	StateComplete
	StateProcessingError
	StateDeletingFiles
	StateDeleted
	StateDeletingError
)

var stateNames = map[SessionState]string{
	StateUploading:       "Uploading",
	StateUploadComplete:  "UploadComplete",
	StateUploadCancelled: "UploadCancelled",
	StateProcessing:      "Processing",
	StateComplete:        "Complete",
	StateProcessingError: "ProcessingError",
	StateDeletingFiles:   "DeletingFiles",
	StateDeleted:         "Deleted",
	StateDeletingError:   "DeletingError",
}

func (s SessionState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// Failed reports whether the state is one the session can never advance from
// except by completing successfully.
func (s SessionState) Failed() bool {
	switch s {
	case StateUploadCancelled, StateProcessingError, StateDeleted, StateDeletingError:
		return true
	}
	return false
}

// UploadSession is a server-side handle representing one file's in-progress
// upload. UploadTarget encodes the blob store location as
// "endpoint/bucket/prefix".
type UploadSession struct {
	ID           string       `json:"ID"`
	FolderID     string       `json:"FolderId"`
	UploadTarget string       `json:"UploadTarget"`
	State        SessionState `json:"State"`
}

// CreateUploadSession opens an upload session targeting folderID.
func (c *Client) CreateUploadSession(ctx context.Context, folderID string) (*UploadSession, error) {
	payload := map[string]any{"FolderId": folderID}

	var session UploadSession
	if err := c.do(ctx, http.MethodPost, "/PublicAPI/REST/sessionUpload", nil, payload, &session); err != nil {
		return nil, fmt.Errorf("create upload session for folder %s: %w", folderID, err)
	}
	return &session, nil
}

// MarkUploadComplete signals the server that all bytes of the session have
// been uploaded (State = UploadComplete), which starts remote processing.
func (c *Client) MarkUploadComplete(ctx context.Context, session *UploadSession) error {
	payload := *session
	payload.State = StateUploadComplete

	path := "/PublicAPI/REST/sessionUpload/" + url.PathEscape(session.ID)
	if err := c.do(ctx, http.MethodPut, path, nil, payload, nil); err != nil {
		return fmt.Errorf("finish upload session %s: %w", session.ID, err)
	}
	return nil
}

// GetUploadSession fetches the current state of an upload session.
func (c *Client) GetUploadSession(ctx context.Context, id string) (*UploadSession, error) {
	var session UploadSession
	path := "/PublicAPI/REST/sessionUpload/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &session); err != nil {
		return nil, fmt.Errorf("get upload session %s: %w", id, err)
	}
	return &session, nil
}
