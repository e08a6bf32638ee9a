package client

import (
	"errors"
	"fmt"

	"github.com/groundedweb/groundedweb-go/models"
)

// ErrEmptyDataset is returned by dataset creation when no photo paths were
// supplied for either label.
var ErrEmptyDataset = errors.New("cannot create an empty dataset")

// MissingFileError reports a photo path that does not name an existing
// regular file. It is raised during task planning, before any network call.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("photo file %s not found", e.Path)
}

// MalformedResponseError reports an API response that was missing a field
// the client depends on.
type MalformedResponseError struct {
	Endpoint string
	Missing  string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("response from %s is missing %s", e.Endpoint, e.Missing)
}

// APIError is a non-2xx response that is neither an authorization failure
// nor a server error.
type APIError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d received for %s: %s", e.StatusCode, e.URL, e.Body)
}

// NetworkError is a transport-level failure that persisted through the
// attempt budget, or a 5xx response from the API.
type NetworkError struct {
	URL        string
	StatusCode int // 0 for transport failures
	Attempts   int // 0 for 5xx responses
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("server error (%d) for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("network failure after %d attempts for %s: %v", e.Attempts, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// PermissionError is a 401/403 response, or a login rejected by the API.
type PermissionError struct {
	URL        string
	StatusCode int
	Reason     string
}

func (e *PermissionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("access denied (%d) for %s: %s", e.StatusCode, e.URL, e.Reason)
	}
	return fmt.Sprintf("access denied (%d) for %s", e.StatusCode, e.URL)
}

// UploadStage identifies the pipeline step at which a photo upload failed.
type UploadStage string

const (
	StageRegister UploadStage = "register"
	StageUpload   UploadStage = "upload"
	StageConfirm  UploadStage = "confirm"
)

// TaskFailure describes one photo that could not be uploaded.
type TaskFailure struct {
	Path  string
	Label models.PhotoType
	Stage UploadStage
	Err   error
}

// UploadError aggregates per-photo failures from a dataset creation batch.
// The dataset identified by DatasetID was created but never confirmed
// server-side; unless cleanup was requested it is left orphaned there.
type UploadError struct {
	DatasetID int
	Failed    int
	Total     int
	Tasks     []TaskFailure
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed for %d of %d photos; dataset %d was not confirmed",
		e.Failed, e.Total, e.DatasetID)
}
