package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/adforgehq/adforge-backend/api/responses"
	"github.com/adforgehq/adforge-backend/api/validators"
	"github.com/adforgehq/adforge-backend/internal/generation"
	"github.com/adforgehq/adforge-backend/pkg/enums"
	pkgerrors "github.com/adforgehq/adforge-backend/pkg/errors"
	"github.com/adforgehq/adforge-backend/pkg/logger"
)

type generateRequest struct {
	Kind        string   `json:"kind" validate:"required"`
	CategoryID  string   `json:"category_id" validate:"required,uuid4"`
	ProductID   *string  `json:"product_id" validate:"omitempty,uuid4"`
	ProductName string   `json:"product_name" validate:"required,min=2,max=200"`
	Category    string   `json:"category" validate:"max=200"`
	Tone        string   `json:"tone" validate:"max=40"`
	Highlights  []string `json:"highlights" validate:"max=10,dive,max=200"`
}

// GenerateAsset handles POST /api/v1/generate. The produced artifact goes
// through the same upload pipeline as user uploads.
func GenerateAsset(svc *generation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload generateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParseAssetKind(strings.TrimSpace(payload.Kind))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
			return
		}

		categoryID, err := uuid.Parse(payload.CategoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category_id"))
			return
		}

		input := generation.GenerateInput{
			Kind:       kind,
			CategoryID: categoryID,
			Request: generation.Request{
				Kind:        kind,
				ProductName: validators.SanitizeString(payload.ProductName, 200),
				Category:    validators.SanitizeString(payload.Category, 200),
				Tone:        strings.ToLower(validators.SanitizeString(payload.Tone, 40)),
				Highlights:  payload.Highlights,
			},
		}
		if payload.ProductID != nil {
			parsed, parseErr := uuid.Parse(*payload.ProductID)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid product_id"))
				return
			}
			input.ProductID = &parsed
		}

		dto, err := svc.Generate(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}
