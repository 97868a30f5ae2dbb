package adapter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobpulse/internal/model"
)

// Field aliases seen across providers, in lookup order.
var (
	idKeys          = []string{"id", "jobId", "job_id", "jobPostingId"}
	titleKeys       = []string{"title", "jobTitle", "job_title", "position", "text"}
	companyKeys     = []string{"company", "companyName", "company_name", "employer_name", "employer"}
	locationKeys    = []string{"location", "jobLocation", "job_location", "formattedLocation", "candidate_required_location"}
	descriptionKeys = []string{"description", "descriptionPlain", "jobDescription", "job_description", "content", "snippet"}
	postedKeys      = []string{"postedAt", "posted_at", "postedDate", "datePosted", "date_posted", "publishedAt", "first_published", "createdAt", "created_at", "updated_at", "listedAt"}
	logoKeys        = []string{"logoUrl", "logo_url", "companyLogo", "company_logo", "employer_logo", "logo"}
	applyKeys       = []string{"applyUrl", "apply_url", "applyLink", "job_apply_link", "applicationUrl"}
	sourceURLKeys   = []string{"sourceUrl", "url", "jobUrl", "job_url", "link", "hostedUrl", "absolute_url"}

	// keys tried inside nested objects such as {"location": {"name": "Remote"}}
	nestedKeys = []string{"name", "display_name", "text"}
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize maps a raw provider record onto a Posting, substituting
// placeholders for missing fields. now stamps records without a usable
// timestamp.
func Normalize(rec model.Record, source string, now time.Time) model.Posting {
	p := model.Posting{
		ID:          stringField(rec, idKeys),
		Title:       stringField(rec, titleKeys),
		Company:     stringField(rec, companyKeys),
		Location:    stringField(rec, locationKeys),
		Description: extractText(stringField(rec, descriptionKeys)),
		LogoURL:     stringField(rec, logoKeys),
		ApplyURL:    stringField(rec, applyKeys),
		SourceURL:   stringField(rec, sourceURLKeys),
		Source:      source,
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Title == "" {
		p.Title = model.DefaultTitle
	}
	if p.Company == "" {
		p.Company = model.DefaultCompany
	}
	if p.Location == "" {
		p.Location = model.DefaultLocation
	}
	if p.Description == "" {
		p.Description = model.DefaultDescription
	}
	if p.LogoURL == "" {
		p.LogoURL = model.AvatarURL(p.Company, model.RandomColor())
	}
	if p.ApplyURL == "" {
		p.ApplyURL = model.DefaultApplyURL
	}

	if t, ok := timeField(rec, postedKeys); ok {
		p.PostedAt = t
	} else {
		p.PostedAt = now
	}

	return p
}

// NormalizeAll normalizes every record in recs.
func NormalizeAll(recs []model.Record, source string, now time.Time) []model.Posting {
	postings := make([]model.Posting, 0, len(recs))
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		postings = append(postings, Normalize(rec, source, now))
	}
	return postings
}

// stringField returns the first non-empty value among keys, converted to text.
func stringField(rec map[string]any, keys []string) string {
	for _, k := range keys {
		if s := toString(rec[k]); s != "" {
			return s
		}
	}
	return ""
}

func toString(v any) string {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case map[string]any:
		return stringField(v, nestedKeys)
	case []any:
		var parts []string
		for _, item := range v {
			if s := toString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

func timeField(rec map[string]any, keys []string) (time.Time, bool) {
	for _, k := range keys {
		if t, ok := toTime(rec[k]); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func toTime(v any) (time.Time, bool) {
	switch v := v.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromEpoch(n)
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return fromEpoch(n)
		}
		if f, err := v.Float64(); err == nil {
			return fromEpoch(int64(f))
		}
	case float64:
		return fromEpoch(int64(v))
	case int64:
		return fromEpoch(v)
	}
	return time.Time{}, false
}

// fromEpoch treats values above 1e12 as Unix milliseconds, the rest as seconds.
func fromEpoch(n int64) (time.Time, bool) {
	if n <= 0 {
		return time.Time{}, false
	}
	if n > 1e12 {
		return time.UnixMilli(n), true
	}
	return time.Unix(n, 0), true
}

// decodeRecords accepts either a JSON array of records or an object holding
// the array under one of the common envelope keys.
func decodeRecords(raw json.RawMessage) ([]model.Record, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var recs []model.Record
	if trimmed[0] == '[' {
		if err := unmarshalNumbers(raw, &recs); err != nil {
			return nil, fmt.Errorf("decoding record array: %w: %w", model.ErrMalformedResponse, err)
		}
		return recs, nil
	}

	var envelope map[string]json.RawMessage
	if err := unmarshalNumbers(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decoding payload: %w: %w", model.ErrMalformedResponse, err)
	}
	for _, key := range []string{"data", "jobs", "results", "items"} {
		inner, ok := envelope[key]
		if !ok {
			continue
		}
		if s := strings.TrimSpace(string(inner)); s == "" || s[0] != '[' {
			continue
		}
		if err := unmarshalNumbers(inner, &recs); err != nil {
			return nil, fmt.Errorf("decoding %s: %w: %w", key, model.ErrMalformedResponse, err)
		}
		return recs, nil
	}
	return nil, fmt.Errorf("payload has no job array: %w", model.ErrMalformedResponse)
}

func unmarshalNumbers(raw []byte, out any) error {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	return dec.Decode(out)
}
