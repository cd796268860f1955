package enrich

import (
	"strings"

	"repowiki/internal/errors"
	"repowiki/internal/model"
)

// Normalize fills every optional field of raw with its documented default.
// A record without url and name cannot be identified and is rejected with a
// MISSING_IDENTITY error.
func Normalize(raw model.RawRecord) (model.Record, error) {
	url := strings.TrimSpace(raw.URL)
	name := strings.TrimSpace(raw.Name)
	if url == "" && name == "" {
		return model.Record{}, errors.New(errors.MissingIdentity, "record has neither url nor name", nil)
	}

	rec := model.Record{
		URL:         url,
		Name:        name,
		Description: strings.TrimSpace(raw.Description),
		Language:    orUnknown(raw.Language),
		License:     orUnknown(raw.License),
		LastUpdated: orUnknown(raw.LastUpdated),
		Forks:       raw.Forks,
		Original:    strings.TrimSpace(raw.Original),
		Tags:        []string{},
	}
	if rec.LastUpdated == model.Unknown {
		rec.LastUpdated = orUnknown(raw.LegacyLastUpdated)
	}
	if raw.Stars != nil {
		rec.Stars = *raw.Stars
	}
	return rec, nil
}

// NormalizeBatch normalizes raws in order. Records without identity are
// dropped; their errors are returned alongside the surviving records.
func NormalizeBatch(raws []model.RawRecord) ([]model.Record, []error) {
	out := make([]model.Record, 0, len(raws))
	var dropped []error
	for _, raw := range raws {
		rec, err := Normalize(raw)
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		out = append(out, rec)
	}
	return out, dropped
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Unknown
	}
	return s
}
