package models

import "encoding/json"

// DistortionModel is the optical distortion model MicMac solves for.
type DistortionModel string

const (
	RadialExtended DistortionModel = "RadialExtended"
	RadialBasic    DistortionModel = "RadialBasic"
	Fraser         DistortionModel = "Fraser"
	FraserBasic    DistortionModel = "FraserBasic"
	FishEyeEqui    DistortionModel = "FishEyeEqui"
	HemiEqui       DistortionModel = "HemiEqui"
	AutoCal        DistortionModel = "AutoCal"
	Figee          DistortionModel = "Figee"
)

// ZoomFinal is the final zoom level of the MicMac dense matching step.
type ZoomFinal string

const (
	ZoomQuickMac ZoomFinal = "QuickMac"
	ZoomMicMac   ZoomFinal = "MicMac"
	ZoomBigMac   ZoomFinal = "BigMac"
)

// TapiocaMode selects the MicMac tie-point search strategy.
type TapiocaMode string

const (
	TapiocaAll      TapiocaMode = "All"
	TapiocaMulScale TapiocaMode = "MulScale"
)

// ScaleBar is a physical reference of known length between two coded
// targets, used to scale the reconstruction.
type ScaleBar struct {
	Start  int     `json:"start"`
	End    int     `json:"end"`
	Length float64 `json:"length"`
}

// CCTag configures the CCTag coded-target detector. The API discriminates
// tool configurations by a resource_type field, emitted on serialization.
type CCTag struct{}

func (CCTag) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"resource_type": "CCTag"})
}

// CloudCompare configures CloudCompare as the point-cloud post-processor.
type CloudCompare struct{}

func (CloudCompare) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"resource_type": "CloudCompare"})
}

// MicMac configures the MicMac structure-from-motion pipeline.
type MicMac struct {
	DistortionModel         DistortionModel `json:"distortion_model"`
	ZoomFinal               ZoomFinal       `json:"zoom_final"`
	TapiocaMode             TapiocaMode     `json:"tapioca_mode"`
	TapiocaResolution       int             `json:"tapioca_resolution"`
	TapiocaSecondResolution int             `json:"tapioca_second_resolution"`
}

func (m MicMac) MarshalJSON() ([]byte, error) {
	type plain MicMac
	return json.Marshal(struct {
		ResourceType string `json:"resource_type"`
		plain
	}{ResourceType: "MicMac", plain: plain(m)})
}

// Configuration is a complete parameter set for launching an analysis.
type Configuration struct {
	ID             int          `json:"pk,omitempty"`
	Name           string       `json:"name,omitempty"`
	ScaleBars      []ScaleBar   `json:"scale_bars"`
	Detector       CCTag        `json:"detector"`
	CloudProcessor CloudCompare `json:"cloud_processor"`
	SFM            MicMac       `json:"sfm"`
	DisplayPadding *bool        `json:"display_padding,omitempty"`
}

// ConfigurationUpdate holds the server-declared mutable fields of a
// configuration. Nil fields are left unchanged.
type ConfigurationUpdate struct {
	Name           *string       `json:"name,omitempty"`
	ScaleBars      []ScaleBar    `json:"scale_bars,omitempty"`
	Detector       *CCTag        `json:"detector,omitempty"`
	CloudProcessor *CloudCompare `json:"cloud_processor,omitempty"`
	SFM            *MicMac       `json:"sfm,omitempty"`
	DisplayPadding *bool         `json:"display_padding,omitempty"`
}
