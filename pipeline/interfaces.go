package pipeline

import (
	"context"

	"github.com/fitly/fashion-ai/models"
	"github.com/fitly/fashion-ai/progress"
)

// Describer turns an image into a short textual description: clothing
// attributes for wardrobe items, appearance attributes for selfies.
type Describer interface {
	DescribeClothingItem(ctx context.Context, img models.UploadedImage) (string, error)
	DescribePersonAppearance(ctx context.Context, img models.UploadedImage) (string, error)
}

// QueryResult is the classifier's verdict on a free-text query. A question
// yields a direct Answer with no effect on outfit generation; an
// instruction yields styling guidance folded into the selection call. Both
// may be present.
type QueryResult struct {
	IsQuestion  bool
	Answer      string
	Instruction string
}

// Classifier decides whether free text is a question to answer or a
// styling instruction for the selector.
type Classifier interface {
	ClassifyQuery(ctx context.Context, query string, wardrobe []WardrobeItem, personDesc string, history []models.Turn) (*QueryResult, error)
}

// WardrobeItem is one de-duplicated clothing item offered to the selector.
// Index is 1-based and stable for the duration of the request.
type WardrobeItem struct {
	Index       int
	Filename    string
	Description string
}

// SelectionInput aggregates everything the stylist agent needs to pick
// outfit combinations.
type SelectionInput struct {
	PersonDescription string
	Wardrobe          []WardrobeItem
	Weather           models.WeatherContext
	Instruction       string
	History           []models.Turn
}

// Selector returns 1 to 12 outfit combinations with reasoning and wearing
// instructions populated and no image attached yet. Implementations must
// validate the upstream response shape before returning it.
type Selector interface {
	SelectOutfits(ctx context.Context, in SelectionInput) ([]models.OutfitCombination, error)
}

// Generator renders one combination into a composite image.
type Generator interface {
	GenerateOutfitImage(ctx context.Context, selfies, clothing []models.UploadedImage, guidance string) ([]byte, error)
}

// ImageStore persists one generated image and returns a client-facing URL
// plus the durable storage key.
type ImageStore interface {
	SaveOutfitImage(ctx context.Context, sessionID string, outfitNumber int, data []byte) (url, key string, err error)
}

// Sender pushes progress events to a client connection. Implementations
// must be fire-and-forget; a dead connection must never fail the request.
type Sender interface {
	Send(connectionID string, ev progress.Event)
}

// SessionStore is the conversation-history side of the pipeline.
type SessionStore interface {
	GetOrCreate(id string) (*models.Session, bool)
	AppendTurn(id string, turn models.Turn)
	Touch(id string)
}
