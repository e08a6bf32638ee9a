package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundedweb/groundedweb-go/models"
)

func TestDate_DecodesBothWireForms(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"bare date", `"2026-08-26"`},
		{"rfc3339 timestamp", `"2026-08-26T14:03:09Z"`},
		{"naive timestamp", `"2026-08-26T14:03:09"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var d models.Date
			require.NoError(t, json.Unmarshal([]byte(tc.in), &d))
			assert.Equal(t, models.NewDate(2026, time.August, 26), d)
			assert.Equal(t, "2026-08-26", d.String())
		})
	}

	var d models.Date
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &d))
}

func TestDate_MarshalsAsBareDate(t *testing.T) {
	b, err := json.Marshal(models.NewDate(2026, time.August, 26))
	require.NoError(t, err)
	assert.Equal(t, `"2026-08-26"`, string(b))
}

func TestUserRef_DecodesBothWireForms(t *testing.T) {
	var asName models.UserRef
	require.NoError(t, json.Unmarshal([]byte(`"ada"`), &asName))
	assert.Equal(t, "ada", asName.String())
	assert.Nil(t, asName.User)

	var asObject models.UserRef
	require.NoError(t, json.Unmarshal([]byte(`{"first_name":"Ada","last_name":"Surveyor","email":"ada@example.com"}`), &asObject))
	require.NotNil(t, asObject.User)
	assert.Equal(t, "Ada Surveyor", asObject.String())
}

func TestUser_StringFallsBackToEmail(t *testing.T) {
	u := models.User{Email: "ada@example.com"}
	assert.Equal(t, "ada@example.com", u.String())
}

func TestConfiguration_ToolDiscriminators(t *testing.T) {
	cfg := models.Configuration{
		Name: "default",
		ScaleBars: []models.ScaleBar{
			{Start: 1, End: 2, Length: 0.5},
		},
		SFM: models.MicMac{
			DistortionModel:   models.Fraser,
			ZoomFinal:         models.ZoomBigMac,
			TapiocaMode:       models.TapiocaMulScale,
			TapiocaResolution: 1500,
		},
	}
	b, err := json.Marshal(cfg)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.JSONEq(t, `{"resource_type":"CCTag"}`, string(raw["detector"]))
	assert.JSONEq(t, `{"resource_type":"CloudCompare"}`, string(raw["cloud_processor"]))

	var sfm map[string]any
	require.NoError(t, json.Unmarshal(raw["sfm"], &sfm))
	assert.Equal(t, "MicMac", sfm["resource_type"])
	assert.Equal(t, "Fraser", sfm["distortion_model"])
	assert.Equal(t, "BigMac", sfm["zoom_final"])
}

func TestUpdates_OmitUnsetFields(t *testing.T) {
	b, err := json.Marshal(models.DatasetUpdate{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(b))

	name := "renamed"
	b, err = json.Marshal(models.DatasetUpdate{Name: &name})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"renamed"}`, string(b))

	notify := false
	b, err = json.Marshal(models.AnalysisUpdate{NotifyByEmail: &notify})
	require.NoError(t, err)
	assert.JSONEq(t, `{"notify_by_email":false}`, string(b), "an explicit false must survive")
}

func TestDataset_Decode(t *testing.T) {
	payload := `{
		"pk": 42,
		"name": "site 7",
		"date": "2026-08-26",
		"user": {"first_name":"Ada","last_name":"Surveyor","email":"ada@example.com"},
		"photos": [
			{"pk": 101, "name": "b1.jpg", "type": "before", "thumb": "https://cdn/th/101"},
			{"pk": 102, "name": "a1.jpg", "type": "after"}
		]
	}`
	var ds models.Dataset
	require.NoError(t, json.Unmarshal([]byte(payload), &ds))

	assert.Equal(t, 42, ds.ID)
	assert.Equal(t, "Ada Surveyor", ds.User.String())
	require.Len(t, ds.Photos, 2)
	assert.Equal(t, models.PhotoBefore, ds.Photos[0].Type)
	assert.Equal(t, models.PhotoAfter, ds.Photos[1].Type)
	assert.Equal(t, "https://cdn/th/101", ds.Photos[0].Thumb)
}

func TestAnalysis_Decode(t *testing.T) {
	payload := `{
		"pk": 7,
		"name": "run 1",
		"date": "2026-08-26T10:00:00Z",
		"user": "ada",
		"status": "COMPLETED",
		"selection": {"dataset": {"pk": 42, "name": "site 7", "date": "2026-08-26", "user": "ada"}},
		"holes": [{"number": 1, "volume": 0.042}]
	}`
	var a models.Analysis
	require.NoError(t, json.Unmarshal([]byte(payload), &a))

	assert.Equal(t, models.AnalysisCompleted, a.Status)
	assert.Equal(t, 42, a.Selection.Dataset.ID)
	require.Len(t, a.Holes, 1)
	assert.InDelta(t, 0.042, a.Holes[0].Volume, 1e-9)
}
