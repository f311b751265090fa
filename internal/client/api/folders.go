package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/panoclone/internal/shared"
)

// Folder is a remote folder of the media server. IDs are opaque and stable
// once the folder is created.
type Folder struct {
	ID          string `json:"Id"`
	Name        string `json:"Name"`
	Description string `json:"Description,omitempty"`
	ParentID    string `json:"Parent,omitempty"`
}

// CreateFolder creates a folder under parentID and returns it.
// An empty parentID creates the folder at the account root.
func (c *Client) CreateFolder(ctx context.Context, name, description, parentID string) (*Folder, error) {
	payload := map[string]any{
		"Name":        name,
		"Description": description,
		"Parent":      parentID,
	}

	var folder Folder
	if err := c.do(ctx, http.MethodPost, "/api/v1/folders", nil, payload, &folder); err != nil {
		return nil, fmt.Errorf("create folder %q: %w", name, err)
	}

	c.log.Info(ctx, "created remote folder", "name", folder.Name, "id", folder.ID, "parent", parentID)
	return &folder, nil
}

// GetFolder fetches one folder by ID. A missing or inaccessible folder
// surfaces as shared.ErrorFolderNotFound.
func (c *Client) GetFolder(ctx context.Context, folderID string) (*Folder, error) {
	var folder Folder
	path := fmt.Sprintf("/api/v1/folders/%s", url.PathEscape(folderID))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &folder); err != nil {
		if errors.Is(err, shared.ErrorNotFound) {
			return nil, fmt.Errorf("folder %s: %w", folderID, shared.ErrorFolderNotFound)
		}
		return nil, fmt.Errorf("get folder %s: %w", folderID, err)
	}
	return &folder, nil
}

// GetChildFolders lists one page of the child folders of folderID.
func (c *Client) GetChildFolders(ctx context.Context, folderID string, page int, sortField, sortOrder string) ([]Folder, error) {
	query := url.Values{}
	query.Set("sortField", sortField)
	query.Set("sortOrder", sortOrder)
	query.Set("pageNumber", strconv.Itoa(page))

	var folders []Folder
	path := fmt.Sprintf("/api/v1/folders/%s/children", url.PathEscape(folderID))
	if err := c.do(ctx, http.MethodGet, path, query, nil, &folders); err != nil {
		return nil, fmt.Errorf("list child folders of %s: %w", folderID, err)
	}
	return folders, nil
}

// SearchFolders returns the folders matching the given query string.
func (c *Client) SearchFolders(ctx context.Context, searchQuery string) ([]Folder, error) {
	query := url.Values{}
	query.Set("searchQuery", searchQuery)

	var folders []Folder
	if err := c.do(ctx, http.MethodGet, "/api/v1/folders/search", query, nil, &folders); err != nil {
		return nil, fmt.Errorf("search folders %q: %w", searchQuery, err)
	}
	return folders, nil
}
