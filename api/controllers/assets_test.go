package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/adforgehq/adforge-backend/internal/assets"
	"github.com/adforgehq/adforge-backend/pkg/enums"
	"github.com/adforgehq/adforge-backend/pkg/pagination"
)

type stubAssetService struct {
	uploaded   *assets.UploadInput
	lastFilter assets.ListFilter
	lastParams pagination.Params
	dto        *assets.AssetDTO
	err        error
	deleted    []uuid.UUID
}

func (s *stubAssetService) Upload(_ context.Context, _ uuid.UUID, input assets.UploadInput) (*assets.AssetDTO, error) {
	s.uploaded = &input
	if s.err != nil {
		return nil, s.err
	}
	return s.dto, nil
}

func (s *stubAssetService) Get(context.Context, uuid.UUID, uuid.UUID) (*assets.AssetDTO, error) {
	return s.dto, s.err
}

func (s *stubAssetService) List(_ context.Context, _ uuid.UUID, filter assets.ListFilter, params pagination.Params) (*assets.AssetListResult, error) {
	s.lastFilter = filter
	s.lastParams = params
	if s.err != nil {
		return nil, s.err
	}
	return &assets.AssetListResult{}, nil
}

func (s *stubAssetService) Delete(_ context.Context, _, assetID uuid.UUID) error {
	s.deleted = append(s.deleted, assetID)
	return s.err
}

func multipartUpload(t *testing.T, fields map[string]string, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create file part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestAssetUploadParsesMultipart(t *testing.T) {
	t.Parallel()

	categoryID := uuid.New()
	svc := &stubAssetService{dto: &assets.AssetDTO{ID: uuid.New(), Kind: enums.AssetKindProductImage}}
	handler := AssetUpload(svc, testLogger(), 1<<20)

	body, contentType := multipartUpload(t, map[string]string{
		"kind":        "product_image",
		"category_id": categoryID.String(),
		"is_primary":  "true",
	}, "lime.png", []byte("png-bytes"))

	req := authedRequest(http.MethodPost, "/api/v1/assets", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if svc.uploaded == nil {
		t.Fatal("expected upload call")
	}
	if svc.uploaded.Kind != enums.AssetKindProductImage {
		t.Fatalf("kind = %v", svc.uploaded.Kind)
	}
	if svc.uploaded.CategoryID != categoryID {
		t.Fatalf("category = %v", svc.uploaded.CategoryID)
	}
	if svc.uploaded.FileName != "lime.png" {
		t.Fatalf("file name = %q", svc.uploaded.FileName)
	}
	if !svc.uploaded.IsPrimary {
		t.Fatal("expected is_primary to be set")
	}
	if svc.uploaded.SizeBytes != int64(len("png-bytes")) {
		t.Fatalf("size = %d", svc.uploaded.SizeBytes)
	}
	data, err := io.ReadAll(svc.uploaded.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("body = %q", data)
	}
}

func TestAssetUploadRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	handler := AssetUpload(&stubAssetService{}, testLogger(), 1<<20)

	body, contentType := multipartUpload(t, map[string]string{
		"kind":        "hologram",
		"category_id": uuid.NewString(),
	}, "x.bin", []byte("data"))

	req := authedRequest(http.MethodPost, "/api/v1/assets", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAssetUploadRequiresFilePart(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	_ = writer.WriteField("kind", "product_image")
	_ = writer.WriteField("category_id", uuid.NewString())
	_ = writer.Close()

	handler := AssetUpload(&stubAssetService{}, testLogger(), 1<<20)
	req := authedRequest(http.MethodPost, "/api/v1/assets", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAssetListBuildsFilter(t *testing.T) {
	t.Parallel()

	svc := &stubAssetService{}
	handler := AssetList(svc, testLogger())

	categoryID := uuid.New()
	req := authedRequest(http.MethodGet, "/api/v1/assets?category_id="+categoryID.String()+"&kind=background&limit=10&cursor=abc", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if svc.lastFilter.CategoryID == nil || *svc.lastFilter.CategoryID != categoryID {
		t.Fatalf("filter category = %v", svc.lastFilter.CategoryID)
	}
	if svc.lastFilter.Kind == nil || *svc.lastFilter.Kind != enums.AssetKindBackground {
		t.Fatalf("filter kind = %v", svc.lastFilter.Kind)
	}
	if svc.lastParams.Limit != 10 || svc.lastParams.Cursor != "abc" {
		t.Fatalf("params = %+v", svc.lastParams)
	}
}

func TestAssetDeleteCallsService(t *testing.T) {
	t.Parallel()

	svc := &stubAssetService{}
	handler := AssetDelete(svc, testLogger())

	assetID := uuid.New()
	req := authedRequest(http.MethodDelete, "/api/v1/assets/"+assetID.String(), nil)
	req = withURLParam(req, "assetId", assetID.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != assetID {
		t.Fatalf("deleted = %v", svc.deleted)
	}
}
