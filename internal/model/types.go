package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Role represents a dashboard account role
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
)

// ScheduleStatus represents seat availability of a schedule
type ScheduleStatus string

const (
	ScheduleOpenSeat   ScheduleStatus = "OPEN_SEAT"
	ScheduleFullBooked ScheduleStatus = "FULL_BOOKED"
)

// ParseScheduleStatus normalizes free text ("full booked", "Open Seat") to a
// known status. Unknown values fall back to ScheduleOpenSeat.
func ParseScheduleStatus(s string) ScheduleStatus {
	norm := strings.Join(strings.Fields(strings.ToUpper(s)), "_")
	switch ScheduleStatus(norm) {
	case ScheduleOpenSeat, ScheduleFullBooked:
		return ScheduleStatus(norm)
	}
	return ScheduleOpenSeat
}

// SkillLevel represents the audience level of a product
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "BEGINNER"
	SkillIntermediate SkillLevel = "INTERMEDIATE"
	SkillExpert       SkillLevel = "EXPERT"
	SkillAllLevel     SkillLevel = "ALL_LEVEL"
)

// Language represents the delivery language of a product
type Language string

const (
	LanguageIndonesia Language = "INDONESIA"
	LanguageInggris   Language = "INGGRIS"
)

// JobType represents the contract type of a career posting
type JobType string

const (
	JobFullTime   JobType = "FULL_TIME"
	JobPartTime   JobType = "PART_TIME"
	JobContract   JobType = "CONTRACT"
	JobInternship JobType = "INTERNSHIP"
	JobFreelance  JobType = "FREELANCE"
)

// ExperienceLevel represents the seniority of a career posting
type ExperienceLevel string

const (
	ExperienceEntry     ExperienceLevel = "ENTRY"
	ExperienceMid       ExperienceLevel = "MID"
	ExperienceSenior    ExperienceLevel = "SENIOR"
	ExperienceLead      ExperienceLevel = "LEAD"
	ExperienceExecutive ExperienceLevel = "EXECUTIVE"
)

// CareerStatus represents the publication state of a career posting
type CareerStatus string

const (
	CareerDraft     CareerStatus = "DRAFT"
	CareerPublished CareerStatus = "PUBLISHED"
	CareerClosed    CareerStatus = "CLOSED"
	CareerArchived  CareerStatus = "ARCHIVED"
)

// ApplicantStatus represents the review state of a job applicant
type ApplicantStatus string

const (
	ApplicantPending     ApplicantStatus = "PENDING"
	ApplicantUnderReview ApplicantStatus = "UNDER_REVIEW"
	ApplicantShortlisted ApplicantStatus = "SHORTLISTED"
	ApplicantInterview   ApplicantStatus = "INTERVIEW"
	ApplicantRejected    ApplicantStatus = "REJECTED"
	ApplicantHired       ApplicantStatus = "HIRED"
)

// Valid reports whether s is one of the known applicant states
func (s ApplicantStatus) Valid() bool {
	switch s {
	case ApplicantPending, ApplicantUnderReview, ApplicantShortlisted,
		ApplicantInterview, ApplicantRejected, ApplicantHired:
		return true
	}
	return false
}

// ArticleStatus represents the publication state of an article
type ArticleStatus string

const (
	ArticleDraft     ArticleStatus = "DRAFT"
	ArticlePublished ArticleStatus = "PUBLISHED"
)

// Media is a persisted file reference as the backend stores it
type Media struct {
	URL      string `json:"url,omitempty"`
	PublicID string `json:"public_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Type     string `json:"type,omitempty"`
}

// Article represents a blog article
type Article struct {
	ID              string        `json:"_id"`
	Title           string        `json:"title"`
	Slug            string        `json:"slug,omitempty"`
	Author          string        `json:"author,omitempty"`
	Content         string        `json:"content,omitempty"`
	Excerpt         string        `json:"excerpt,omitempty"`
	Tags            []string      `json:"tags,omitempty"`
	MetaTitle       string        `json:"meta_title,omitempty"`
	MetaDescription string        `json:"meta_description,omitempty"`
	MetaKeywords    []string      `json:"meta_keywords,omitempty"`
	FeaturedImage   *Media        `json:"featured_image,omitempty"`
	Status          ArticleStatus `json:"status,omitempty"`
	CreatedAt       string        `json:"createdAt,omitempty"`
	UpdatedAt       string        `json:"updatedAt,omitempty"`
}

// Career represents a job posting
type Career struct {
	ID                    string          `json:"_id"`
	Title                 string          `json:"title"`
	Department            string          `json:"department,omitempty"`
	Location              string          `json:"location,omitempty"`
	JobType               JobType         `json:"job_type,omitempty"`
	ExperienceLevel       ExperienceLevel `json:"experience_level,omitempty"`
	Description           []string        `json:"description,omitempty"`
	Requirements          []string        `json:"requirements,omitempty"`
	ExperienceRequirement []string        `json:"experiance_requirement,omitempty"`
	ApplicantQuestion     []string        `json:"applicant_question,omitempty"`
	SalaryMin             int             `json:"salary_min,omitempty"`
	SalaryMax             int             `json:"salary_max,omitempty"`
	Vacancies             int             `json:"vacancies,omitempty"`
	Status                CareerStatus    `json:"status,omitempty"`
	CreatedAt             string          `json:"createdAt,omitempty"`
}

// Applicant represents a job application
type Applicant struct {
	ID        string            `json:"_id"`
	CareerID  string            `json:"career_id,omitempty"`
	FullName  string            `json:"full_name,omitempty"`
	Email     string            `json:"email,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	Resume    *Media            `json:"resume,omitempty"`
	Answers   []json.RawMessage `json:"answers,omitempty"`
	Status    ApplicantStatus   `json:"status,omitempty"`
	CreatedAt string            `json:"createdAt,omitempty"`
}

// Product represents a training product
type Product struct {
	ID                 string     `json:"_id"`
	ProductName        string     `json:"product_name"`
	ProductDescription string     `json:"product_description,omitempty"`
	ProductCategory    string     `json:"product_category,omitempty"`
	Link               string     `json:"link,omitempty"`
	Benefits           []string   `json:"benefits,omitempty"`
	SkillLevel         SkillLevel `json:"skill_level,omitempty"`
	Language           Language   `json:"language,omitempty"`
	MaxParticipant     int        `json:"max_participant,omitempty"`
	Duration           int        `json:"duration,omitempty"`
	Banner             *Media     `json:"banner,omitempty"`
}

// Schedule represents one scheduled session of a product
type Schedule struct {
	ID                            string         `json:"_id"`
	ProductID                     string         `json:"product_id,omitempty"`
	ScheduleName                  string         `json:"schedule_name"`
	ScheduleDescription           string         `json:"schedule_description,omitempty"`
	ScheduleDate                  string         `json:"schedule_date,omitempty"`
	ScheduleCloseRegistrationDate string         `json:"schedule_close_registration_date,omitempty"`
	ScheduleStart                 string         `json:"schedule_start,omitempty"`
	ScheduleEnd                   string         `json:"schedule_end,omitempty"`
	Location                      string         `json:"location,omitempty"`
	Quota                         int            `json:"quota,omitempty"`
	Duration                      int            `json:"duration,omitempty"`
	IsAssessment                  bool           `json:"is_assestment"`
	Status                        ScheduleStatus `json:"status,omitempty"`
}

// Promotion represents a time-boxed promotional banner
type Promotion struct {
	ID               string `json:"_id"`
	PromoName        string `json:"promo_name"`
	PromoDescription string `json:"promo_description,omitempty"`
	Link             string `json:"link,omitempty"`
	EndDate          string `json:"end_date,omitempty"`
	Percentage       int    `json:"percentage,omitempty"`
	IsActive         bool   `json:"is_active"`
	Banner           *Media `json:"banner,omitempty"`
}

// User represents a dashboard account
type User struct {
	ID          string `json:"_id"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
	Role        Role   `json:"role,omitempty"`
}

// SocialLink represents a social media entry in the site footer
type SocialLink struct {
	ID         string `json:"_id"`
	SocmedName string `json:"socmed_name"`
	SocmedLink string `json:"socmed_link"`
	Logo       *Media `json:"logo,omitempty"`
}

// Asset represents a replaceable site asset slot
type Asset struct {
	ID          string `json:"_id"`
	Name        string `json:"name,omitempty"`
	Type        string `json:"type,omitempty"`
	URL         string `json:"url,omitempty"`
	FallbackURL string `json:"fallback_url,omitempty"`
}

// Metadata represents SEO metadata for a site page
type Metadata struct {
	ID              string   `json:"_id"`
	Page            string   `json:"page"`
	MetaTitle       string   `json:"meta_title,omitempty"`
	MetaDescription string   `json:"meta_description,omitempty"`
	MetaKeywords    []string `json:"meta_keywords,omitempty"`
	Published       bool     `json:"is_published"`
}

// CellDate is a spreadsheet date cell: a calendar date when one of the known
// layouts matched, otherwise the raw cell text.
type CellDate struct {
	Time time.Time
	Raw  string
}

const dateLayout = "2006-01-02"

// Parsed reports whether the cell held a recognised date
func (d CellDate) Parsed() bool {
	return !d.Time.IsZero()
}

func (d CellDate) String() string {
	if d.Parsed() {
		return d.Time.Format(dateLayout)
	}
	return d.Raw
}

func (d CellDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *CellDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		*d = CellDate{Time: t}
		return nil
	}
	*d = CellDate{Raw: s}
	return nil
}

// ScheduleImport is one spreadsheet row ready for bulk creation. Nil fields
// were empty in the sheet and are left out of the payload.
type ScheduleImport struct {
	ScheduleName                  *string         `json:"schedule_name,omitempty"`
	ScheduleDescription           *string         `json:"schedule_description,omitempty"`
	ScheduleDate                  *CellDate       `json:"schedule_date,omitempty"`
	ScheduleCloseRegistrationDate *CellDate       `json:"schedule_close_registration_date,omitempty"`
	ScheduleStart                 *string         `json:"schedule_start,omitempty"`
	ScheduleEnd                   *string         `json:"schedule_end,omitempty"`
	Location                      *string         `json:"location,omitempty"`
	Quota                         *int            `json:"quota,omitempty"`
	Duration                      *int            `json:"duration,omitempty"`
	Link                          *string         `json:"link,omitempty"`
	IsAssessment                  *bool           `json:"is_assestment,omitempty"`
	Benefits                      []string        `json:"benefits,omitempty"`
	SkillLevel                    *string         `json:"skill_level,omitempty"`
	Language                      *string         `json:"language,omitempty"`
	Status                        *ScheduleStatus `json:"status,omitempty"`
}
