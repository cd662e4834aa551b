package catalog

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveClient reads catalogue spreadsheets from a Google Drive folder.
type DriveClient struct {
	srv *drive.Service
}

// NewDriveClient authenticates with a service account key.
func NewDriveClient(ctx context.Context, credentialsJSON []byte) (*DriveClient, error) {
	config, err := google.JWTConfigFromJSON(credentialsJSON, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse drive credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive client: %w", err)
	}

	return &DriveClient{srv: srv}, nil
}

type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
}

func (c *DriveClient) ListFiles(ctx context.Context, folderID string) ([]File, error) {
	if folderID == "" {
		folderID = "root"
	}

	result, err := c.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed=false", folderID)).
		Fields("files(id, name, mimeType, modifiedTime)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list drive folder %s: %w", folderID, err)
	}

	files := make([]File, 0, len(result.Files))
	for _, f := range result.Files {
		files = append(files, File{ID: f.Id, Name: f.Name, MimeType: f.MimeType, ModifiedTime: f.ModifiedTime})
	}
	return files, nil
}

func (c *DriveClient) Download(ctx context.Context, fileID string, w io.Writer) error {
	resp, err := c.srv.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("unable to download drive file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

// latestSpreadsheet picks the most recently modified .xlsx or .csv file.
func latestSpreadsheet(files []File) (File, bool) {
	candidates := make([]File, 0, len(files))
	for _, f := range files {
		if isSpreadsheet(f.Name) {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return File{}, false
	}

	// RFC 3339 timestamps sort lexically.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ModifiedTime > candidates[j].ModifiedTime
	})
	return candidates[0], true
}

func isSpreadsheet(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".csv":
		return true
	}
	return false
}
