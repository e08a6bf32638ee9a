package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundedweb/groundedweb-go/models"
)

// resourceServer echoes resource payloads back with a pk, recording the
// request it saw.
type resourceServer struct {
	t          *testing.T
	method     string
	path       string
	body       json.RawMessage
	response   any
	statusCode int
}

func (rs *resourceServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/schema" {
		writeJSON(w, map[string]any{"info": map[string]string{"title": "Grounded Web API"}})
		return
	}
	rs.method = r.Method
	rs.path = r.URL.Path
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err == nil {
		rs.body = raw
	}
	if rs.statusCode != 0 {
		w.WriteHeader(rs.statusCode)
	}
	if rs.response != nil {
		writeJSON(w, rs.response)
	}
}

func newResourceClient(t *testing.T) (*resourceServer, *Client) {
	t.Helper()
	rs := &resourceServer{t: t}
	server := httptest.NewServer(rs)
	t.Cleanup(server.Close)

	c, err := New(context.Background(), server.URL, WithLogger(quietLogger()))
	require.NoError(t, err)
	return rs, c
}

func TestConfigurationService_Create(t *testing.T) {
	rs, c := newResourceClient(t)
	rs.response = map[string]any{"pk": 9, "name": "default"}

	created, err := c.Configurations().Create(context.Background(), models.Configuration{
		Name: "default",
		SFM:  models.MicMac{DistortionModel: models.RadialExtended, ZoomFinal: models.ZoomMicMac},
	})
	require.NoError(t, err)
	assert.Equal(t, 9, created.ID)

	assert.Equal(t, http.MethodPost, rs.method)
	assert.Equal(t, "/api/configurations/", rs.path)

	var sent map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rs.body, &sent))
	assert.JSONEq(t, `{"resource_type":"CCTag"}`, string(sent["detector"]))
}

func TestConfigurationService_List(t *testing.T) {
	rs, c := newResourceClient(t)
	rs.response = []map[string]any{
		{"pk": 1, "name": "fast"},
		{"pk": 2, "name": "precise"},
	}

	configs, err := c.Configurations().List(context.Background())
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "precise", configs[1].Name)
	assert.Equal(t, "/api/configurations/", rs.path)
}

func TestConfigurationService_UpdateAndDelete(t *testing.T) {
	rs, c := newResourceClient(t)
	rs.response = map[string]any{"pk": 9, "name": "renamed"}

	name := "renamed"
	updated, err := c.Configurations().Update(context.Background(), 9, models.ConfigurationUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, http.MethodPatch, rs.method)
	assert.Equal(t, "/api/configurations/9/", rs.path)
	assert.JSONEq(t, `{"name":"renamed"}`, string(rs.body), "unset fields must not be sent")

	rs.response = nil
	rs.statusCode = http.StatusNoContent
	require.NoError(t, c.Configurations().Delete(context.Background(), 9))
	assert.Equal(t, http.MethodDelete, rs.method)
	assert.Equal(t, "/api/configurations/9/", rs.path)
}

func TestAnalysisService_Create(t *testing.T) {
	rs, c := newResourceClient(t)
	rs.response = map[string]any{"pk": 7, "name": "run 1", "date": "2026-08-26T10:00:00Z", "status": "PENDING"}

	analysis, err := c.Analyses().Create(context.Background(), CreateAnalysisParams{
		Name: "run 1",
		Configuration: models.Configuration{
			ID:   9,
			Name: "precise",
			SFM:  models.MicMac{DistortionModel: models.Fraser, ZoomFinal: models.ZoomBigMac},
		},
		DatasetID:     42,
		PhotoIDs:      []int{101, 102},
		NotifyByEmail: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, analysis.ID)
	assert.Equal(t, models.AnalysisPending, analysis.Status)
	assert.Equal(t, "/api/analyzes/", rs.path)

	var sent struct {
		Name      string `json:"name"`
		Selection struct {
			DatasetID int   `json:"dataset_id"`
			PhotosIDs []int `json:"photos_ids"`
		} `json:"selection"`
		Configuration map[string]json.RawMessage `json:"configuration"`
		NotifyByEmail bool                       `json:"notify_by_email"`
	}
	require.NoError(t, json.Unmarshal(rs.body, &sent))
	assert.Equal(t, 42, sent.Selection.DatasetID)
	assert.Equal(t, []int{101, 102}, sent.Selection.PhotosIDs)
	assert.True(t, sent.NotifyByEmail)

	// The configuration travels whole, tool discriminators included.
	assert.JSONEq(t, `"precise"`, string(sent.Configuration["name"]))
	assert.JSONEq(t, `{"resource_type":"CCTag"}`, string(sent.Configuration["detector"]))
	assert.JSONEq(t, `{"resource_type":"CloudCompare"}`, string(sent.Configuration["cloud_processor"]))
	var sfm map[string]any
	require.NoError(t, json.Unmarshal(sent.Configuration["sfm"], &sfm))
	assert.Equal(t, "MicMac", sfm["resource_type"])
	assert.Equal(t, "Fraser", sfm["distortion_model"])
}

func TestAnalysisService_CreatePhotoSelection(t *testing.T) {
	rs, c := newResourceClient(t)
	rs.response = map[string]any{"pk": 7, "name": "run 1", "date": "2026-08-26T10:00:00Z"}

	selectionOf := func(photoIDs []int) map[string]json.RawMessage {
		_, err := c.Analyses().Create(context.Background(), CreateAnalysisParams{
			Name:      "run 1",
			DatasetID: 42,
			PhotoIDs:  photoIDs,
		})
		require.NoError(t, err)

		var sent map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rs.body, &sent))
		var selection map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(sent["selection"], &selection))
		return selection
	}

	assert.NotContains(t, selectionOf(nil), "photos_ids", "nil means all photos")
	assert.JSONEq(t, `[]`, string(selectionOf([]int{})["photos_ids"]), "an explicit empty selection is sent")
	assert.JSONEq(t, `[101]`, string(selectionOf([]int{101})["photos_ids"]))
}

func TestAnalysisService_CreateRequiresDataset(t *testing.T) {
	_, c := newResourceClient(t)

	_, err := c.Analyses().Create(context.Background(), CreateAnalysisParams{Name: "run 1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset")
}

func TestDatasetService_Update(t *testing.T) {
	rs, c := newResourceClient(t)
	rs.response = map[string]any{"pk": 42, "name": "renamed", "date": "2026-08-26", "user": "ada"}

	name := "renamed"
	ds, err := c.Datasets().Update(context.Background(), 42, models.DatasetUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", ds.Name)
	assert.Equal(t, http.MethodPatch, rs.method)
	assert.Equal(t, "/api/datasets/42/", rs.path)
}
