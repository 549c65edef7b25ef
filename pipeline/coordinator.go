package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fitly/fashion-ai/models"
	"github.com/fitly/fashion-ai/progress"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxClothingImages caps the wardrobe size accepted per request.
	MaxClothingImages = 30
	// MaxSelfies is the number of selfies kept; extras are silently
	// truncated.
	MaxSelfies = 3
	// MaxOutfits caps how many combinations the selector may return.
	MaxOutfits = 12

	defaultDescribeBatchSize = 3
	defaultGenerationTimeout = 5 * time.Minute

	// historyWindow is how many recent turns are forwarded to the
	// classifier and selector for conversational continuity.
	historyWindow = 6
)

// Progress percent checkpoints. Describe progress scales from zero up to
// pctDescribed; later phases use fixed marks so the stream stays
// monotonic.
const (
	pctDescribed  = 40
	pctSelecting  = 45
	pctGenerating = 60
)

// Coordinator runs the outfit generation pipeline: describe uploaded
// images, classify the query, select combinations, fan out image
// generation, and stream each result to the client as it lands. One
// Coordinator serves all requests; per-request state lives in the request
// itself and the session store.
type Coordinator struct {
	describer  Describer
	classifier Classifier
	selector   Selector
	generator  Generator
	images     ImageStore
	events     Sender
	sessions   SessionStore

	describeBatchSize int
	generationTimeout time.Duration
}

// Config wires the coordinator's collaborators. Events may be nil when no
// streaming is wanted (e.g. CLI usage); everything else is required.
type Config struct {
	Describer  Describer
	Classifier Classifier
	Selector   Selector
	Generator  Generator
	Images     ImageStore
	Events     Sender
	Sessions   SessionStore

	DescribeBatchSize int
	GenerationTimeout time.Duration
}

func New(cfg Config) *Coordinator {
	if cfg.DescribeBatchSize <= 0 {
		cfg.DescribeBatchSize = defaultDescribeBatchSize
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = defaultGenerationTimeout
	}
	return &Coordinator{
		describer:         cfg.Describer,
		classifier:        cfg.Classifier,
		selector:          cfg.Selector,
		generator:         cfg.Generator,
		images:            cfg.Images,
		events:            cfg.Events,
		sessions:          cfg.Sessions,
		describeBatchSize: cfg.DescribeBatchSize,
		generationTimeout: cfg.GenerationTimeout,
	}
}

// Generate runs one full pipeline pass. Validation failures return a
// *ValidationError before any AI call; a describe/classify/select failure
// returns an *UpstreamError and emits a terminal error event; a single
// combination's generation failure is recorded on that combination only.
func (c *Coordinator) Generate(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResponse, error) {
	query := strings.TrimSpace(req.Query)

	if len(req.ClothingImages) == 0 && query == "" {
		return nil, validationErrorf("nothing to act on: provide clothing images or a query")
	}
	if len(req.ClothingImages) > MaxClothingImages {
		return nil, validationErrorf("too many clothing images: maximum %d, got %d", MaxClothingImages, len(req.ClothingImages))
	}

	clothing := dedupeByFilename(req.ClothingImages)
	selfies := req.Selfies
	if len(selfies) > MaxSelfies {
		selfies = selfies[:MaxSelfies]
	}

	sess, isNew := c.sessions.GetOrCreate(req.SessionID)
	history := recentTurns(sess.Turns, historyWindow)

	if err := c.describePhase(ctx, req, clothing, selfies); err != nil {
		c.emit(req.ConnectionID, progress.Error(err.Error()))
		return nil, err
	}
	personDesc := joinDescriptions(selfies)
	wardrobe := buildWardrobe(clothing)

	var queryResponse, instruction string
	if query != "" {
		result, err := c.classifier.ClassifyQuery(ctx, query, wardrobe, personDesc, history)
		if err != nil {
			upErr := &UpstreamError{Phase: "classify", Err: err}
			c.emit(req.ConnectionID, progress.Error(upErr.Error()))
			return nil, upErr
		}
		if result.IsQuestion {
			queryResponse = result.Answer
		}
		instruction = result.Instruction
	}

	resp := &models.GenerationResponse{
		SessionID:     sess.ID,
		IsNewSession:  isNew,
		QueryResponse: queryResponse,
		Outfits:       []models.OutfitCombination{},
	}

	// A query-only request (no wardrobe) ends after classification; there
	// is nothing to style.
	if len(clothing) > 0 {
		combos, err := c.selectPhase(ctx, req.ConnectionID, SelectionInput{
			PersonDescription: personDesc,
			Wardrobe:          wardrobe,
			Weather:           req.Weather,
			Instruction:       instruction,
			History:           history,
		})
		if err != nil {
			c.emit(req.ConnectionID, progress.Error(err.Error()))
			return nil, err
		}

		c.generatePhase(ctx, req, sess.ID, selfies, clothing, combos)
		resp.Outfits = combos
	}

	c.recordTurns(sess.ID, query, resp)
	c.sessions.Touch(sess.ID)

	c.emit(req.ConnectionID, progress.Complete())
	return resp, nil
}

// describePhase fills in missing descriptions, first from the client's
// precomputed map, then from the vision model in concurrent batches. It is
// a synchronization barrier: the selector needs every description.
func (c *Coordinator) describePhase(ctx context.Context, req *models.GenerationRequest, clothing, selfies []models.UploadedImage) error {
	for i := range clothing {
		if clothing[i].Description == "" {
			if desc, ok := req.KnownDescriptions[clothing[i].Filename]; ok && desc != "" {
				clothing[i].Description = desc
			}
		}
	}

	var pending []*models.UploadedImage
	for i := range selfies {
		if selfies[i].Description == "" {
			pending = append(pending, &selfies[i])
		}
	}
	for i := range clothing {
		if clothing[i].Description == "" {
			pending = append(pending, &clothing[i])
		}
	}
	if len(pending) == 0 {
		return nil
	}

	total := len(pending)
	done := 0
	for start := 0; start < total; start += c.describeBatchSize {
		end := start + c.describeBatchSize
		if end > total {
			end = total
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, img := range pending[start:end] {
			img := img
			g.Go(func() error {
				return c.describeOne(gctx, img)
			})
		}
		if err := g.Wait(); err != nil {
			return &UpstreamError{Phase: "describe", Err: err}
		}

		done = end
		pct := done * pctDescribed / total
		c.emit(req.ConnectionID, progress.Describing(done, total, pct))
	}
	return nil
}

// describeOne fills one image's description in place. A clothing item that
// fails to describe falls back to a filename-derived description so one
// flaky vision call does not sink the request; a selfie failure is fatal
// because the whole pipeline personalizes around it.
func (c *Coordinator) describeOne(ctx context.Context, img *models.UploadedImage) error {
	if img.Role == models.ImageRoleSelfie {
		desc, err := c.describer.DescribePersonAppearance(ctx, *img)
		if err != nil {
			return fmt.Errorf("describing selfie %s: %w", img.Filename, err)
		}
		img.Description = desc
		return nil
	}

	desc, err := c.describer.DescribeClothingItem(ctx, *img)
	if err != nil {
		img.Description = "clothing item from " + img.Filename
		return nil
	}
	img.Description = desc
	return nil
}

func (c *Coordinator) selectPhase(ctx context.Context, connID string, in SelectionInput) ([]models.OutfitCombination, error) {
	c.emit(connID, progress.Selecting(pctSelecting))

	combos, err := c.selector.SelectOutfits(ctx, in)
	if err != nil {
		return nil, &UpstreamError{Phase: "select", Err: err}
	}
	if len(combos) == 0 {
		return nil, &UpstreamError{Phase: "select", Err: fmt.Errorf("selector returned no outfit combinations")}
	}
	if len(combos) > MaxOutfits {
		combos = combos[:MaxOutfits]
	}

	c.emit(connID, progress.GeneratingImages(len(combos), pctGenerating))
	return combos, nil
}

// generatePhase fans out one generation call per combination, fully in
// parallel. Each call, as it completes, writes its own result slot and
// pushes an outfit_ready event before the overall request returns; a
// single failure is recorded on that combination and never aborts its
// siblings.
func (c *Coordinator) generatePhase(ctx context.Context, req *models.GenerationRequest, sessionID string, selfies, clothing []models.UploadedImage, combos []models.OutfitCombination) {
	byFilename := make(map[string]models.UploadedImage, len(clothing))
	for _, img := range clothing {
		byFilename[img.Filename] = img
	}

	total := len(combos)
	var g errgroup.Group
	for i := range combos {
		i := i
		g.Go(func() error {
			combo := &combos[i]

			var items []models.UploadedImage
			for _, name := range combo.ItemFilenames {
				if img, ok := byFilename[name]; ok {
					items = append(items, img)
				}
			}
			if len(items) == 0 {
				combo.Error = "no wardrobe items resolved for this outfit"
				return nil
			}

			genCtx, cancel := context.WithTimeout(ctx, c.generationTimeout)
			defer cancel()

			data, err := c.generator.GenerateOutfitImage(genCtx, selfies, items, combo.Reasoning)
			if err != nil {
				combo.Error = err.Error()
				return nil
			}

			url, key, err := c.images.SaveOutfitImage(ctx, sessionID, combo.OutfitNumber, data)
			if err != nil {
				combo.Error = fmt.Sprintf("storing generated image: %v", err)
				return nil
			}
			combo.ImageURL = url
			combo.ImageKey = key

			c.emit(req.ConnectionID, progress.OutfitReady(combo.OutfitNumber, url, total))
			return nil
		})
	}
	g.Wait()
}

// recordTurns appends the exchange to session history. Only textual
// summaries persist; raw image bytes never outlive the request.
func (c *Coordinator) recordTurns(sessionID, query string, resp *models.GenerationResponse) {
	if query != "" {
		c.sessions.AppendTurn(sessionID, models.Turn{Role: models.RoleUser, Content: query})
	}

	var b strings.Builder
	if resp.QueryResponse != "" {
		b.WriteString(resp.QueryResponse)
	}
	for _, combo := range resp.Outfits {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Outfit %d: %s", combo.OutfitNumber, combo.Reasoning)
		if combo.WearingInstructions != "" {
			fmt.Fprintf(&b, " (wear: %s)", combo.WearingInstructions)
		}
		if combo.Error != "" {
			fmt.Fprintf(&b, " [generation failed: %s]", combo.Error)
		}
	}
	if b.Len() == 0 {
		return
	}
	c.sessions.AppendTurn(sessionID, models.Turn{Role: models.RoleAssistant, Content: b.String()})
}

func (c *Coordinator) emit(connectionID string, ev progress.Event) {
	if c.events == nil || connectionID == "" {
		return
	}
	c.events.Send(connectionID, ev)
}

// dedupeByFilename keeps the first upload for each filename so duplicate
// items are neither billed twice nor offered to the selector twice.
func dedupeByFilename(images []models.UploadedImage) []models.UploadedImage {
	seen := make(map[string]bool, len(images))
	out := make([]models.UploadedImage, 0, len(images))
	for _, img := range images {
		if seen[img.Filename] {
			continue
		}
		seen[img.Filename] = true
		out = append(out, img)
	}
	return out
}

func buildWardrobe(clothing []models.UploadedImage) []WardrobeItem {
	items := make([]WardrobeItem, 0, len(clothing))
	for i, img := range clothing {
		items = append(items, WardrobeItem{
			Index:       i + 1,
			Filename:    img.Filename,
			Description: img.Description,
		})
	}
	return items
}

func joinDescriptions(selfies []models.UploadedImage) string {
	var parts []string
	for _, s := range selfies {
		if s.Description != "" {
			parts = append(parts, s.Description)
		}
	}
	return strings.Join(parts, "; ")
}

func recentTurns(turns []models.Turn, n int) []models.Turn {
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}
