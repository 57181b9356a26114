package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"siret-api/internal/company/models"
	dErrors "siret-api/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

// CreateCompanyRequest is the POST / body: identity plus every attribute.
// Absent or null attributes decode as empty strings.
type CreateCompanyRequest struct {
	Siret *int64 `json:"siret"`
	Siren *int64 `json:"siren"`
	Nic   *int64 `json:"nic"`
	models.Attributes
}

// Validate checks that the identity is present and non-negative. Consistency
// between the three numbers is a domain rule left to the service.
func (r *CreateCompanyRequest) Validate() error {
	for _, f := range []struct {
		name string
		v    *int64
	}{
		{models.FieldSiret, r.Siret},
		{models.FieldSiren, r.Siren},
		{models.FieldNic, r.Nic},
	} {
		if f.v == nil {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("field required: %s", f.name))
		}
		if *f.v < 0 {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("%s must be a non-negative integer", f.name))
		}
	}
	return nil
}

// ToModel converts a validated request.
func (r *CreateCompanyRequest) ToModel() *models.Establishment {
	return &models.Establishment{
		Siret:      *r.Siret,
		Siren:      *r.Siren,
		Nic:        *r.Nic,
		Attributes: r.Attributes,
	}
}

// UpdateCompanyRequest is the PUT /{siret} body. Identity fields in the body
// are ignored; omitted attributes are cleared.
type UpdateCompanyRequest struct {
	models.Attributes
}

func decodeJSON(body io.Reader, v any) error {
	raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes+1))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "could not read request body")
	}
	if len(raw) > maxBodyBytes {
		return dErrors.New(dErrors.CodeBadRequest, "request body too large")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("invalid value for field %s", typeErr.Field))
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body")
	}
	return nil
}

// parseSiret reads a path or query identifier.
func parseSiret(name, raw string) (int64, error) {
	if raw == "" {
		return 0, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("field required: %s", name))
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return v, nil
}
