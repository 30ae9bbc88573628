package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/adforgehq/adforge-backend/api/responses"
	"github.com/adforgehq/adforge-backend/api/validators"
	"github.com/adforgehq/adforge-backend/internal/assets"
	"github.com/adforgehq/adforge-backend/pkg/enums"
	pkgerrors "github.com/adforgehq/adforge-backend/pkg/errors"
	"github.com/adforgehq/adforge-backend/pkg/logger"
	"github.com/adforgehq/adforge-backend/pkg/pagination"
)

// multipartMemoryLimit bounds how much of the form is buffered in memory;
// larger files spill to temp disk.
const multipartMemoryLimit = 8 << 20

// AssetUpload handles POST /api/v1/assets. The body is multipart form data
// with a "file" part plus kind/category_id/product_id fields.
func AssetUpload(svc assets.Service, logg *logger.Logger, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+multipartMemoryLimit)
		if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}
		defer func() {
			_ = r.MultipartForm.RemoveAll()
		}()

		kind, err := enums.ParseAssetKind(strings.TrimSpace(r.FormValue("kind")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
			return
		}

		categoryID, err := uuid.Parse(strings.TrimSpace(r.FormValue("category_id")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category_id"))
			return
		}

		var productID *uuid.UUID
		if raw := strings.TrimSpace(r.FormValue("product_id")); raw != "" {
			parsed, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid product_id"))
				return
			}
			productID = &parsed
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file part is required"))
			return
		}
		defer file.Close()

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		dto, err := svc.Upload(r.Context(), userID, assets.UploadInput{
			Kind:       kind,
			CategoryID: categoryID,
			ProductID:  productID,
			FileName:   header.Filename,
			MimeType:   mimeType,
			SizeBytes:  header.Size,
			Body:       file,
			IsPrimary:  strings.EqualFold(strings.TrimSpace(r.FormValue("is_primary")), "true"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// AssetList handles GET /api/v1/assets with optional category_id,
// product_id, and kind filters plus cursor pagination.
func AssetList(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := assets.ListFilter{UserID: userID}
		query := r.URL.Query()

		if raw := strings.TrimSpace(query.Get("category_id")); raw != "" {
			parsed, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid category_id"))
				return
			}
			filter.CategoryID = &parsed
		}
		if raw := strings.TrimSpace(query.Get("product_id")); raw != "" {
			parsed, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid product_id"))
				return
			}
			filter.ProductID = &parsed
		}
		if raw := strings.TrimSpace(query.Get("kind")); raw != "" {
			kind, parseErr := enums.ParseAssetKind(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid kind"))
				return
			}
			filter.Kind = &kind
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), userID, filter, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(query.Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AssetGet handles GET /api/v1/assets/{assetId}.
func AssetGet(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assetID, err := pathUUID(r, "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), userID, assetID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// AssetDelete handles DELETE /api/v1/assets/{assetId}. The metadata row
// is removed and physical cleanup is queued in the same transaction.
func AssetDelete(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assetID, err := pathUUID(r, "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), userID, assetID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
