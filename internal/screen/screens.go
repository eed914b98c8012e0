package screen

import (
	"cmsadmin/internal/backend"
	"cmsadmin/internal/form"
	"cmsadmin/internal/menu"
	"cmsadmin/internal/model"
)

func opts(values ...string) []form.Option {
	out := make([]form.Option, len(values))
	for i, v := range values {
		out[i] = form.Option{Label: labelOf(v), Value: v}
	}
	return out
}

func d(key, label string, required bool) form.Descriptor {
	return form.Descriptor{Key: key, Label: label, Required: required}
}

var imageFile = form.File{AcceptTypes: "image/*"}

func image(key, label string, required bool) form.File {
	f := imageFile
	f.Descriptor = d(key, label, required)
	return f
}

var Article = register(&Screen{
	Name:     "article",
	Title:    "Article",
	Resource: backend.Articles,
	Perm:     menu.ManageContent,
	Fields: []form.Field{
		form.Text{Descriptor: d("title", "Title", true)},
		form.TextArea{Descriptor: d("content", "Content", true), Rows: 12},
		form.TextArea{Descriptor: d("excerpt", "Excerpt", false), Rows: 3},
		form.Text{Descriptor: form.Descriptor{Key: "author", Label: "Author", Placeholder: defaultAuthor}},
		form.Select{Descriptor: d("tags", "Tags", false), Multiple: true},
		form.Radio{Descriptor: d("status", "Status", false), Options: opts(
			string(model.ArticleDraft), string(model.ArticlePublished))},
		form.Text{Descriptor: d("meta_title", "Meta Title", false)},
		form.TextArea{Descriptor: d("meta_description", "Meta Description", false), Rows: 3},
		form.Select{Descriptor: d("meta_keywords", "Meta Keywords", false), Multiple: true},
		image("featured_image", "Featured Image", false),
	},
	Defaults: articleDefaults,
})

var Career = register(&Screen{
	Name:     "career",
	Title:    "Career",
	Resource: backend.Careers,
	Perm:     menu.ManageCareers,
	Fields: []form.Field{
		form.Text{Descriptor: d("title", "Job Title", true)},
		form.Select{Descriptor: d("description", "Description", true), Multiple: true},
		form.Select{Descriptor: d("requirements", "Requirements", false), Multiple: true},
		form.Select{Descriptor: d("experiance_requirement", "Experience", false), Multiple: true},
		form.Select{Descriptor: d("applicant_question", "Applicant Questions", false), Multiple: true},
		form.Text{Descriptor: d("location", "Location", true)},
		form.Select{Descriptor: d("job_type", "Job Type", true), Options: opts(
			string(model.JobFullTime), string(model.JobPartTime), string(model.JobContract),
			string(model.JobInternship), string(model.JobFreelance))},
		form.Select{Descriptor: d("experience_level", "Experience Level", true), Options: opts(
			string(model.ExperienceEntry), string(model.ExperienceMid), string(model.ExperienceSenior),
			string(model.ExperienceLead), string(model.ExperienceExecutive))},
		form.Numeric{Descriptor: d("salary_min", "Minimum Salary", false)},
		form.Numeric{Descriptor: d("salary_max", "Maximum Salary", false)},
		form.Numeric{Descriptor: d("vacancies", "Vacancies", false)},
		form.Radio{Descriptor: d("status", "Status", false), Options: opts(
			string(model.CareerDraft), string(model.CareerPublished),
			string(model.CareerClosed), string(model.CareerArchived))},
	},
	Rules:    []Rule{salaryRange},
	Defaults: careerDefaults,
})

var Product = register(&Screen{
	Name:     "product",
	Title:    "Product",
	Resource: backend.Products,
	Perm:     menu.ManageCatalog,
	Fields: []form.Field{
		form.Text{Descriptor: d("product_name", "Product Name", true)},
		form.TextArea{Descriptor: d("product_description", "Description", true), Rows: 4},
		form.Text{Descriptor: d("product_category", "Category", true)},
		form.Text{Descriptor: d("link", "Link", false)},
		form.Select{Descriptor: d("benefits", "Benefits", false), Multiple: true},
		form.Select{Descriptor: d("skill_level", "Skill Level", true), Options: opts(
			string(model.SkillBeginner), string(model.SkillIntermediate),
			string(model.SkillExpert), string(model.SkillAllLevel))},
		form.Select{Descriptor: d("language", "Language", true), Options: opts(
			string(model.LanguageIndonesia), string(model.LanguageInggris))},
		form.Numeric{Descriptor: d("max_participant", "Max Participant", true)},
		form.Numeric{Descriptor: d("duration", "Duration", true)},
		image("banner", "Banner", false),
	},
	Rules:    []Rule{maxBenefits},
	Defaults: linkDefault,
})

// ScheduleStatusOptions are the labels the schedule editor offers
var ScheduleStatusOptions = []form.Option{
	{Label: "Full Booked", Value: string(model.ScheduleFullBooked)},
	{Label: "Open Seat", Value: string(model.ScheduleOpenSeat)},
}

var Schedule = register(&Screen{
	Name:     "schedule",
	Title:    "Schedule",
	Resource: backend.Schedules,
	Perm:     menu.ManageCatalog,
	Fields: []form.Field{
		form.Select{Descriptor: d("product_id", "Product", true)},
		form.Text{Descriptor: d("schedule_name", "Schedule Name", true)},
		form.Text{Descriptor: d("location", "Location", true)},
		form.Date{Descriptor: d("schedule_date", "Schedule Date", true)},
		form.Date{Descriptor: d("schedule_close_registration_date", "Close Registration", true)},
		form.Time{Descriptor: d("schedule_start", "Start", true)},
		form.Time{Descriptor: d("schedule_end", "End", true)},
		form.TextArea{Descriptor: d("schedule_description", "Description", false), Rows: 4},
		form.Numeric{Descriptor: d("quota", "Quota", true)},
		form.Numeric{Descriptor: d("duration", "Duration", true)},
		form.Select{Descriptor: d("status", "Status", true), Options: ScheduleStatusOptions},
		form.Toggle{Descriptor: d("is_assestment", "Assessment", false)},
	},
	Defaults: scheduleDefaults,
})

var Promotion = register(&Screen{
	Name:     "promotion",
	Title:    "Promotion",
	Resource: backend.Promotions,
	Perm:     menu.ManageCatalog,
	Fields: []form.Field{
		form.Text{Descriptor: d("promo_name", "Promotion Name", true)},
		form.TextArea{Descriptor: d("promo_description", "Description", true), Rows: 3},
		form.Text{Descriptor: d("link", "Link", false)},
		form.DateTime{Descriptor: d("end_date", "End Date", true)},
		form.Numeric{Descriptor: d("percentage", "Percentage", true)},
		image("banner", "Banner", false),
	},
	Defaults: linkDefault,
})

var User = register(&Screen{
	Name:     "user",
	Title:    "Access",
	Resource: backend.Users,
	Perm:     menu.ManageUsers,
	Fields: []form.Field{
		form.Text{Descriptor: d("display_name", "Display Name", true)},
		form.Text{Descriptor: d("username", "Username", true)},
		form.Password{Descriptor: form.Descriptor{Key: "password", Label: "Password", Placeholder: "Enter password", Required: true}},
		form.Password{Descriptor: form.Descriptor{Key: "retype_password", Label: "Retype Password", Placeholder: "Retype password", Required: true}},
	},
	Optional: []string{"password", "retype_password"},
	Rules:    []Rule{passwordsMatch},
	Encode:   encodeUser,
})

var Social = register(&Screen{
	Name:     "socmed",
	Title:    "Social Media",
	Resource: backend.Socials,
	Perm:     menu.ManageContent,
	Fields: []form.Field{
		form.Text{Descriptor: d("socmed_name", "Name", true)},
		form.Text{Descriptor: d("socmed_link", "Link", true)},
		image("logo", "Logo", false),
	},
})

const AssetFolder = "cms/assets"

var Asset = register(&Screen{
	Name:       "asset",
	Title:      "Assets",
	Resource:   backend.Assets,
	Perm:       menu.ManageContent,
	UpdateOnly: true,
	Fields: []form.Field{
		form.CloudFile{Descriptor: d("main_file", "Main File", false), AcceptTypes: "image/*,video/*", Folder: AssetFolder},
		form.CloudFile{Descriptor: d("fallback_file", "Fallback File", false), AcceptTypes: "image/*", Folder: AssetFolder},
	},
	Rules:  []Rule{anyAssetFile},
	Encode: encodeAsset,
})

var Metadata = register(&Screen{
	Name:     "metadata",
	Title:    "Metadata",
	Resource: backend.Metadatas,
	Perm:     menu.ManageMetadata,
	Fields: []form.Field{
		form.Text{Descriptor: d("page", "Page", true)},
		form.Text{Descriptor: d("meta_title", "Meta Title", true)},
		form.TextArea{Descriptor: d("meta_description", "Meta Description", true), Rows: 3},
		form.Select{Descriptor: d("meta_keywords", "Keywords", false), Multiple: true},
	},
	Encode: encodeMetadata,
})
