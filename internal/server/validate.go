package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/auri-app/auri/pkg/errors"
)

// maxBodyBytes bounds request bodies; a full-length entry is well under it.
const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

type createEntryRequest struct {
	Text    string `json:"text" validate:"required,max=10000"`
	Analyze bool   `json:"analyze"`
}

type analyzeRequest struct {
	Text string `json:"text" validate:"required,max=10000"`
}

type layoutBubble struct {
	Label     string `json:"label" validate:"required,max=40"`
	Frequency int    `json:"frequency" validate:"gte=0"`
}

type layoutRequest struct {
	Bubbles       []layoutBubble `json:"bubbles" validate:"required,max=500,dive"`
	Width         float64        `json:"width" validate:"gte=0"`
	Height        float64        `json:"height" validate:"gte=0"`
	MaxRadius     float64        `json:"max_radius" validate:"gte=0"`
	Palette       string         `json:"palette"`
	Format        string         `json:"format" validate:"omitempty,oneof=json svg"`
	MaxIterations int            `json:"max_iterations" validate:"gte=0"`
	BestEffort    bool           `json:"best_effort"`
}

// decode reads a JSON body into v and validates its struct tags.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.New(apperrors.ErrCodeInvalidInput, "request body is empty")
		}
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "malformed JSON body")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError reports the first failed rule in a readable form.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid request")
	}

	e := verrs[0]
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return apperrors.New(apperrors.ErrCodeInvalidInput, "%s: field is required", field)
	case "max":
		return apperrors.New(apperrors.ErrCodeInvalidInput, "%s: must not exceed %s", field, e.Param())
	case "gte":
		return apperrors.New(apperrors.ErrCodeInvalidInput, "%s: must be at least %s", field, e.Param())
	case "oneof":
		return apperrors.New(apperrors.ErrCodeInvalidInput, "%s: must be one of %s", field, e.Param())
	default:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "%s: validation failed (%s)", field, e.Tag())
	}
}
