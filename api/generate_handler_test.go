package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fitly/fashion-ai/models"
	"github.com/fitly/fashion-ai/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	resp    *models.GenerationResponse
	err     error
	lastReq *models.GenerationRequest
}

func (s *stubRunner) Generate(_ context.Context, req *models.GenerationRequest) (*models.GenerationResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type formFile struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, fields map[string]string, files []formFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/generate", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestGenerateHandlerRejectsGet(t *testing.T) {
	handler := GenerateHandler(&stubRunner{})
	rec := httptest.NewRecorder()

	handler(rec, httptest.NewRequest(http.MethodGet, "/generate", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGenerateHandlerHappyPath(t *testing.T) {
	runner := &stubRunner{resp: &models.GenerationResponse{
		SessionID:    "sess-1",
		IsNewSession: true,
		Outfits: []models.OutfitCombination{
			{OutfitNumber: 1, ItemFilenames: []string{"top.png"}, Reasoning: "easy layering", ImageURL: "https://cdn/img1.jpg"},
		},
	}}
	handler := GenerateHandler(runner)

	req := multipartRequest(t,
		map[string]string{
			"query":             "something for brunch",
			"connection_id":     "conn-9",
			"weather_temp":      "21.5",
			"weather_condition": "sunny",
			"weather_location":  "Lisbon",
		},
		[]formFile{
			{field: "clothing_images", name: "top.png", data: pngBytes(t)},
			{field: "selfies", name: "me.png", data: pngBytes(t)},
		},
	)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.GenerationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.True(t, resp.IsNewSession)
	require.Len(t, resp.Outfits, 1)
	assert.Equal(t, "https://cdn/img1.jpg", resp.Outfits[0].ImageURL)

	require.NotNil(t, runner.lastReq)
	assert.Equal(t, "something for brunch", runner.lastReq.Query)
	assert.Equal(t, "conn-9", runner.lastReq.ConnectionID)
	assert.InDelta(t, 21.5, runner.lastReq.Weather.TemperatureC, 0.001)
	assert.Equal(t, "Lisbon", runner.lastReq.Weather.Location)
	require.Len(t, runner.lastReq.ClothingImages, 1)
	assert.Equal(t, models.ImageRoleClothing, runner.lastReq.ClothingImages[0].Role)
	require.Len(t, runner.lastReq.Selfies, 1)
	assert.Equal(t, models.ImageRoleSelfie, runner.lastReq.Selfies[0].Role)
}

func TestGenerateHandlerParsesDescriptionCache(t *testing.T) {
	runner := &stubRunner{resp: &models.GenerationResponse{SessionID: "s"}}
	handler := GenerateHandler(runner)

	req := multipartRequest(t,
		map[string]string{"descriptions": `{"top.png": "white linen shirt"}`},
		[]formFile{{field: "clothing_images", name: "top.png", data: pngBytes(t)}},
	)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "white linen shirt", runner.lastReq.KnownDescriptions["top.png"])
}

func TestGenerateHandlerRejectsBadDescriptionsJSON(t *testing.T) {
	handler := GenerateHandler(&stubRunner{})

	req := multipartRequest(t,
		map[string]string{"descriptions": "not json"},
		[]formFile{{field: "clothing_images", name: "top.png", data: pngBytes(t)}},
	)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateHandlerRejectsUnsupportedExtension(t *testing.T) {
	runner := &stubRunner{}
	handler := GenerateHandler(runner)

	req := multipartRequest(t, nil,
		[]formFile{{field: "clothing_images", name: "notes.txt", data: []byte("plain text")}},
	)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, runner.lastReq, "pipeline must not run for invalid uploads")
}

func TestGenerateHandlerMapsValidationError(t *testing.T) {
	runner := &stubRunner{err: &pipeline.ValidationError{Reason: "provide at least one clothing image or a query"}}
	handler := GenerateHandler(runner)

	req := multipartRequest(t, nil,
		[]formFile{{field: "clothing_images", name: "top.png", data: pngBytes(t)}},
	)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least one clothing image")
}

func TestGenerateHandlerMapsUpstreamError(t *testing.T) {
	runner := &stubRunner{err: &pipeline.UpstreamError{Phase: "select", Err: assert.AnError}}
	handler := GenerateHandler(runner)

	req := multipartRequest(t, nil,
		[]formFile{{field: "clothing_images", name: "top.png", data: pngBytes(t)}},
	)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
