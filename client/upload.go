package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/groundedweb/groundedweb-go/models"
)

// uploadMaxAttempts is the total number of attempts for a single photo
// file upload, including the first.
const uploadMaxAttempts = 3

type uploadTask struct {
	path  string
	label models.PhotoType
}

// planTasks validates every photo path up front and returns the ordered
// task list: all "before" photos, then all "after" photos. Nothing touches
// the network until the whole plan is valid.
func planTasks(before, after []string) ([]uploadTask, error) {
	if len(before) == 0 && len(after) == 0 {
		return nil, ErrEmptyDataset
	}

	tasks := make([]uploadTask, 0, len(before)+len(after))
	add := func(paths []string, label models.PhotoType) error {
		for _, path := range paths {
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				return &MissingFileError{Path: path}
			}
			tasks = append(tasks, uploadTask{path: path, label: label})
		}
		return nil
	}
	if err := add(before, models.PhotoBefore); err != nil {
		return nil, err
	}
	if err := add(after, models.PhotoAfter); err != nil {
		return nil, err
	}
	return tasks, nil
}

// uploadTarget is the presigned storage destination returned when a photo
// is registered.
type uploadTarget struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

type createPhotoResponse struct {
	resourceID
	UploadRequest *uploadTarget `json:"upload_request"`
}

type photoUpload struct {
	photoID     int
	target      *uploadTarget
	contentType string
}

// registerPhoto declares a photo on the dataset and obtains its upload
// destination. A failed registration is not retried; the photo simply
// counts as failed.
func (s *DatasetService) registerPhoto(ctx context.Context, datasetID int, task uploadTask) (*photoUpload, error) {
	info, err := os.Stat(task.path)
	if err != nil {
		return nil, &MissingFileError{Path: task.path}
	}
	contentType := contentTypeForPath(task.path)

	payload := map[string]any{
		"type": task.label,
		"file_data": map[string]any{
			"filename":     filepath.Base(task.path),
			"content_type": contentType,
			"size":         info.Size(),
		},
		"dataset_id": datasetID,
	}

	var resp createPhotoResponse
	err = s.c.do(ctx, http.MethodPost, s.c.endpointURL("datasetphotos"), payload, &resp, reqOpts{maxAttempts: 1, allowRefresh: true})
	if err != nil {
		return nil, err
	}
	photoID := resp.value()
	if photoID == 0 {
		return nil, &MalformedResponseError{Endpoint: "datasetphotos", Missing: "photo id"}
	}
	if resp.UploadRequest == nil || resp.UploadRequest.URL == "" {
		return nil, &MalformedResponseError{Endpoint: "datasetphotos", Missing: "upload_request"}
	}
	return &photoUpload{photoID: photoID, target: resp.UploadRequest, contentType: contentType}, nil
}

func contentTypeForPath(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// uploadPhotoFile sends the file bytes to the presigned destination,
// retrying transport errors and non-2xx responses alike. Returns whether
// the upload ultimately succeeded.
func (s *DatasetService) uploadPhotoFile(ctx context.Context, path string, up *photoUpload) bool {
	var lastErr error
	for attempt := 1; attempt <= uploadMaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepFunc(ctx, backoffDelay(attempt-1)); err != nil {
				s.c.logger.Error("photo upload abandoned",
					slog.String("path", path),
					slog.Int("attempts", attempt-1),
					slog.String("error", err.Error()),
					slog.String("last_error", lastErr.Error()))
				return false
			}
		}
		err := s.postMultipart(ctx, path, up)
		if err == nil {
			return true
		}
		lastErr = err
		s.c.logger.Warn("photo upload attempt failed",
			slog.String("path", path),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
	}
	s.c.logger.Error("photo upload failed after all attempts",
		slog.String("path", path),
		slog.Int("attempts", uploadMaxAttempts),
		slog.String("error", lastErr.Error()))
	return false
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// postMultipart performs one multipart POST of the storage fields plus the
// file contents. The file is opened fresh per call so a retry re-reads it
// from the start.
func (s *DatasetService) postMultipart(ctx context.Context, path string, up *photoUpload) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := func() error {
			for key, value := range up.target.Fields {
				if err := mw.WriteField(key, value); err != nil {
					return err
				}
			}
			hdr := make(textproto.MIMEHeader)
			hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`,
				quoteEscaper.Replace(filepath.Base(path))))
			hdr.Set("Content-Type", up.contentType)
			part, err := mw.CreatePart(hdr)
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, f); err != nil {
				return err
			}
			return mw.Close()
		}()
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, up.target.URL, pr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("storage rejected upload: status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// confirmPhoto marks a single photo as uploaded. Returns whether the
// confirmation succeeded.
func (s *DatasetService) confirmPhoto(ctx context.Context, photoID int) bool {
	err := s.c.post(ctx, fmt.Sprintf("datasetphotos/%d/confirm-upload", photoID), nil, nil)
	if err != nil {
		s.c.logger.Error("photo confirmation failed",
			slog.Int("photo_id", photoID),
			slog.String("error", err.Error()))
		return false
	}
	return true
}

// processPhoto runs the full register/upload/confirm pipeline for one
// photo. Returns nil on success, or a TaskFailure naming the stage that
// broke.
func (s *DatasetService) processPhoto(ctx context.Context, datasetID int, task uploadTask) *TaskFailure {
	up, err := s.registerPhoto(ctx, datasetID, task)
	if err != nil {
		return &TaskFailure{Path: task.path, Label: task.label, Stage: StageRegister, Err: err}
	}
	if !s.uploadPhotoFile(ctx, task.path, up) {
		return &TaskFailure{Path: task.path, Label: task.label, Stage: StageUpload,
			Err: fmt.Errorf("upload to storage failed after %d attempts", uploadMaxAttempts)}
	}
	if !s.confirmPhoto(ctx, up.photoID) {
		return &TaskFailure{Path: task.path, Label: task.label, Stage: StageConfirm,
			Err: fmt.Errorf("confirmation of photo %d failed", up.photoID)}
	}
	return nil
}

// runTask wraps processPhoto so that a panicking task counts as a failed
// photo instead of tearing down the batch.
func (s *DatasetService) runTask(ctx context.Context, datasetID int, task uploadTask) (failure *TaskFailure) {
	defer func() {
		if r := recover(); r != nil {
			s.c.logger.Error("photo task panicked",
				slog.String("path", task.path),
				slog.Any("panic", r))
			failure = &TaskFailure{Path: task.path, Label: task.label, Stage: StageUpload,
				Err: fmt.Errorf("photo task panicked: %v", r)}
		}
	}()
	return s.processPhoto(ctx, datasetID, task)
}

// uploadAll runs every photo task through a bounded worker pool. All tasks
// run to completion; if any failed, the combined *UploadError is returned.
func (s *DatasetService) uploadAll(ctx context.Context, datasetID int, tasks []uploadTask, params CreateDatasetParams) error {
	workers := params.MaxWorkers
	if workers <= 0 {
		workers = defaultMaxWorkers
	}
	total := len(tasks)

	// Progress callbacks are user code; a panic there must not abort
	// the batch.
	notify := func(completed int) {
		if params.Progress == nil {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				s.c.logger.Warn("progress callback panicked", slog.Any("panic", r))
			}
		}()
		params.Progress(completed, total)
	}

	notify(0)

	var (
		mu       sync.Mutex
		done     int
		failures []TaskFailure
	)

	var g errgroup.Group
	g.SetLimit(workers)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			failure := s.runTask(ctx, datasetID, task)

			mu.Lock()
			defer mu.Unlock()
			done++
			if failure != nil {
				failures = append(failures, *failure)
			}
			notify(done)
			return nil
		})
	}
	g.Wait()

	if len(failures) > 0 {
		return &UploadError{DatasetID: datasetID, Failed: len(failures), Total: total, Tasks: failures}
	}
	return nil
}
