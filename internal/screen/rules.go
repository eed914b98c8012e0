package screen

import (
	"html"
	"strings"

	"cmsadmin/internal/form"
	"cmsadmin/internal/model"

	"github.com/microcosm-cc/bluemonday"
)

const (
	defaultAuthor = "Admin"
	excerptLength = 150
	MaxBenefits   = 4
)

var stripTags = bluemonday.StrictPolicy()

// Excerpt strips markup from content and keeps the first 150 characters
func Excerpt(content string) string {
	text := []rune(html.UnescapeString(stripTags.Sanitize(content)))
	if len(text) > excerptLength {
		text = text[:excerptLength]
	}
	return string(text) + "..."
}

func labelOf(value string) string {
	words := strings.Fields(strings.ReplaceAll(value, "_", " "))
	for i, w := range words {
		w = strings.ToLower(w)
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func setIfMissing(s form.State, key string, v any) form.State {
	if cur, ok := s.Get(key); ok && !form.Empty(cur) {
		return s
	}
	return s.With(key, v)
}

func articleDefaults(s form.State) form.State {
	s = setIfMissing(s, "author", defaultAuthor)
	s = setIfMissing(s, "status", string(model.ArticleDraft))
	s = setIfMissing(s, "meta_title", "")
	s = setIfMissing(s, "meta_description", "")
	if content := s.String("content"); content != "" {
		s = setIfMissing(s, "excerpt", Excerpt(content))
	}
	return s
}

// zero salaries and vacancies are not sent
func careerDefaults(s form.State) form.State {
	for _, key := range []string{"salary_min", "salary_max", "vacancies"} {
		if v, ok := s.Get(key); ok && v == 0 {
			s = s.Without(key)
		}
	}
	return setIfMissing(s, "status", string(model.CareerDraft))
}

func linkDefault(s form.State) form.State {
	return setIfMissing(s, "link", "")
}

func scheduleDefaults(s form.State) form.State {
	if _, ok := s.Get("is_assestment"); !ok {
		s = s.With("is_assestment", false)
	}
	return s
}

func intValue(s form.State, key string) (int, bool) {
	v, ok := s.Get(key)
	n, isInt := v.(int)
	return n, ok && isInt
}

func salaryRange(s form.State, _ Mode) *form.FieldError {
	lo, hasLo := intValue(s, "salary_min")
	hi, hasHi := intValue(s, "salary_max")
	if hasLo && lo < 0 {
		return &form.FieldError{Key: "salary_min", Message: "Minimum salary cannot be less than 0"}
	}
	if hasHi && hi < 0 {
		return &form.FieldError{Key: "salary_max", Message: "Maximum salary cannot be less than 0"}
	}
	if hasLo && hasHi && hi < lo {
		return &form.FieldError{Key: "salary_max", Message: "Maximum salary must be greater than minimum salary"}
	}
	return nil
}

func maxBenefits(s form.State, _ Mode) *form.FieldError {
	if len(s.Strings("benefits")) > MaxBenefits {
		return &form.FieldError{Key: "benefits", Message: "Maximum 4 benefits allowed"}
	}
	return nil
}

// password is optional on update but must match its retype when given
func passwordsMatch(s form.State, mode Mode) *form.FieldError {
	pw := s.String("password")
	if mode == Update && pw == "" {
		return nil
	}
	if pw != s.String("retype_password") {
		return &form.FieldError{Key: "retype_password", Message: "Passwords do not match"}
	}
	return nil
}

func encodeUser(s form.State, mode Mode) any {
	out := map[string]any{
		"display_name": s.String("display_name"),
		"username":     s.String("username"),
	}
	if pw := s.String("password"); pw != "" || mode == Create {
		out["password"] = pw
	}
	return out
}

func fileURL(s form.State, key string) string {
	v, _ := s.Get(key)
	switch f := v.(type) {
	case form.FileValue:
		return f.URL
	case *form.FileValue:
		if f != nil {
			return f.URL
		}
	}
	return ""
}

func anyAssetFile(s form.State, _ Mode) *form.FieldError {
	if fileURL(s, "main_file") == "" && fileURL(s, "fallback_file") == "" {
		return &form.FieldError{Key: "main_file", Message: "Please select at least one file to upload"}
	}
	return nil
}

func encodeAsset(s form.State, _ Mode) any {
	out := map[string]any{}
	if u := fileURL(s, "main_file"); u != "" {
		out["url"] = u
	}
	if u := fileURL(s, "fallback_file"); u != "" {
		out["fallback_url"] = u
	}
	return out
}

func encodeMetadata(s form.State, _ Mode) any {
	keywords := s.Strings("meta_keywords")
	if keywords == nil {
		keywords = []string{}
	}
	return map[string]any{
		"page":             s.String("page"),
		"meta_title":       s.String("meta_title"),
		"meta_description": s.String("meta_description"),
		"meta_keywords":    keywords,
	}
}
