package models

// ImageRole declares what an uploaded image depicts.
type ImageRole string

const (
	ImageRoleSelfie   ImageRole = "selfie"
	ImageRoleClothing ImageRole = "clothing"
)

// UploadedImage is one image received with a generation request. The
// filename doubles as the de-duplication key within a request; Description
// is either supplied by the client (already-seen items) or filled in by the
// describe phase.
type UploadedImage struct {
	Filename    string
	MimeType    string
	Data        []byte
	Role        ImageRole
	Description string
}

// WeatherContext is the ambient weather captured at request time. It is
// supplied by the client; this service does not look weather up itself.
type WeatherContext struct {
	TemperatureC float64 `json:"temperature_c" bson:"temperature_c"`
	Condition    string  `json:"condition" bson:"condition"`
	Location     string  `json:"location" bson:"location"`
}

// OutfitCombination is one candidate outfit chosen by the stylist agent.
// The reasoning fields are populated at selection time; exactly one of
// ImageURL or Error is filled in by the generation phase and the struct is
// never mutated afterwards.
type OutfitCombination struct {
	OutfitNumber        int      `json:"outfit_number" bson:"outfit_number"`
	ItemFilenames       []string `json:"item_filenames" bson:"item_filenames"`
	Reasoning           string   `json:"reasoning" bson:"reasoning"`
	WearingInstructions string   `json:"wearing_instructions" bson:"wearing_instructions"`
	FashionAdvice       string   `json:"fashion_advice,omitempty" bson:"fashion_advice,omitempty"`
	ImageURL            string   `json:"image_url,omitempty" bson:"-"`
	ImageKey            string   `json:"-" bson:"image_key,omitempty"`
	Error               string   `json:"error,omitempty" bson:"error,omitempty"`
}

// GenerationRequest is the decoded inbound request handed to the pipeline
// coordinator. Raw image bytes do not outlive the request; only textual
// summaries are persisted into session history.
type GenerationRequest struct {
	SessionID      string
	ConnectionID   string
	Query          string
	ClothingImages []UploadedImage
	Selfies        []UploadedImage
	Weather        WeatherContext
	// KnownDescriptions maps a clothing filename to a description the
	// client already has, so the vision model is not billed twice for
	// the same item.
	KnownDescriptions map[string]string
}

// GenerationResponse is the assembled result of one pipeline run. Outfits
// are always in combination-number order regardless of the order their
// images finished generating in.
type GenerationResponse struct {
	SessionID     string              `json:"session_id"`
	IsNewSession  bool                `json:"is_new_session"`
	QueryResponse string              `json:"query_response,omitempty"`
	Outfits       []OutfitCombination `json:"outfits"`
}
