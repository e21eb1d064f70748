// Package formfiller implements the generic, heuristic application-form
// filler shared by every external-ATS apply flow. It never submits a form -
// it only fills fields and returns a summary of what it wrote to its caller.
package formfiller

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/patrykgolabek/jobapply/internal/models"
)

// atsDomains are hosts whose forms are commonly embedded in an iframe on the
// job board's own page. When one of these appears in a frame's URL, the
// filler scopes its element search to that frame instead of the top page.
var atsDomains = []string{
	"boards.greenhouse.io",
	"jobs.lever.co",
	"jobs.ashbyhq.com",
	"app.bamboohr.com",
	"workday",
}

// fieldKeywords maps a field kind to the substrings that identify it in an
// element's name/id/placeholder/aria-label/associated-label text.
var fieldKeywords = map[string][]string{
	"first_name":       {"first name", "firstname", "fname", "given name"},
	"last_name":        {"last name", "lastname", "lname", "surname", "family name"},
	"email":            {"email", "e-mail"},
	"phone":            {"phone", "telephone", "mobile", "cell"},
	"location":         {"city", "location", "address"},
	"github":           {"github", "portfolio", "code repository"},
	"website":          {"website", "personal site", "blog", "url"},
	"experience":       {"years of experience", "years experience", "how many years"},
	"current_title":    {"current title", "current role", "job title"},
	"current_company":  {"current company", "current employer", "company name"},
	"salary":           {"desired salary", "salary expectation", "expected compensation"},
	"start_date":       {"start date", "available", "notice period", "availability"},
	"education":        {"education", "degree", "university", "school"},
	"authorization":    {"authorized to work", "work authorization", "visa", "legally authorized"},
	"relocate":         {"willing to relocate", "relocation", "open to relocation"},
	"hear_about":       {"how did you hear", "where did you find", "referral source"},
	"cover_letter":     {"cover letter", "cover_letter", "coverletter", "additional document"},
	"linkedin":         {"linkedin", "linked in"},
}

// fieldKeywordOrder fixes iteration order so the first matching kind is
// deterministic (Go map iteration order is random).
var fieldKeywordOrder = []string{
	"first_name", "last_name", "email", "phone", "location", "github", "website",
	"experience", "current_title", "current_company", "salary", "start_date",
	"education", "authorization", "relocate", "hear_about", "cover_letter", "linkedin",
}

// Filler fills application forms by matching field labels to candidate data.
// It never auto-submits.
type Filler struct {
	profile models.CandidateProfile
}

// New creates a Filler bound to the given candidate profile.
func New(profile models.CandidateProfile) *Filler {
	return &Filler{profile: profile}
}

// Page is the narrow surface of *rod.Page/*rod.Frame this package queries.
// Fill itself takes a *rod.Page; nothing in this package accepts a Page.
type Page interface {
	Elements(selector string) (rod.Elements, error)
}

// Fill scans context (the ATS iframe if one was detected on page, else the
// page itself) and fills every recognized field. Returns a map of field
// kind/upload marker to the value written. A file input whose name, id or
// aria-label carries a cover-letter keyword never receives the resume.
func (f *Filler) Fill(page *rod.Page, resumePath, coverLetterPath string) (map[string]string, error) {
	filled := make(map[string]string)

	target := f.detectATSFrame(page)

	inputs, err := queryInputs(target)
	if err != nil {
		return filled, err
	}

	for _, elem := range inputs {
		fieldType, _ := elem.Attribute("type")
		typ := ""
		if fieldType != nil {
			typ = *fieldType
		}
		if typ == "hidden" || typ == "submit" || typ == "button" || typ == "image" {
			continue
		}

		if typ == "file" && resumePath != "" {
			clues := strings.ToLower(attrOrEmpty(elem, "name") + " " + attrOrEmpty(elem, "id") + " " + attrOrEmpty(elem, "aria-label"))
			if !containsAny(clues, fieldKeywords["cover_letter"]) {
				if err := elem.SetFiles([]string{resumePath}); err == nil {
					filled["resume_upload"] = resumePath
				}
			}
			continue
		}

		key := f.identify(elem)
		if key == "" {
			continue
		}

		value := f.valueFor(key)
		if value == "" {
			continue
		}

		tag := strings.ToLower(elem.MustProperty("tagName").String())
		switch {
		case tag == "select":
			_ = elem.Select([]string{value}, true, rod.SelectorTypeText)
		case typ == "checkbox":
			truthy := value == "yes" || value == "true" || value == "1"
			cur, _ := elem.Property("checked")
			checked := cur != nil && cur.Bool()
			if truthy != checked {
				_ = elem.Click(proto.InputMouseButtonLeft, 1)
			}
		case typ == "radio":
			elemVal, _ := elem.Attribute("value")
			if elemVal != nil && strings.Contains(strings.ToLower(value), strings.ToLower(*elemVal)) {
				_ = elem.Click(proto.InputMouseButtonLeft, 1)
			}
		default:
			_ = elem.Input(value)
		}

		filled[key] = value
	}

	if coverLetterPath != "" {
		fileInputs, err := queryInputs(target, `input[type='file']`)
		if err == nil {
			for _, fi := range fileInputs {
				name := attrOrEmpty(fi, "name")
				id := attrOrEmpty(fi, "id")
				label := attrOrEmpty(fi, "aria-label")
				combined := strings.ToLower(name + " " + id + " " + label)
				if containsAny(combined, fieldKeywords["cover_letter"]) {
					if err := fi.SetFiles([]string{coverLetterPath}); err == nil {
						filled["cover_letter_upload"] = coverLetterPath
					}
					break
				}
			}
		}
	}

	return filled, nil
}

// detectATSFrame checks every frame on the page for a known ATS domain and
// returns the matching frame (as a *rod.Page frame handle), or page itself
// if none match.
func (f *Filler) detectATSFrame(page *rod.Page) *rod.Page {
	pages, err := page.Pages()
	if err != nil {
		return page
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		lowerURL := strings.ToLower(info.URL)
		for _, domain := range atsDomains {
			if strings.Contains(lowerURL, domain) {
				return p
			}
		}
	}
	return page
}

func queryInputs(page *rod.Page, selector ...string) (rod.Elements, error) {
	sel := "input, textarea, select"
	if len(selector) > 0 {
		sel = selector[0]
	}
	return page.Elements(sel)
}

func (f *Filler) identify(elem *rod.Element) string {
	var clues []string
	for _, attr := range []string{"name", "id", "placeholder", "aria-label"} {
		if v, _ := elem.Attribute(attr); v != nil && *v != "" {
			clues = append(clues, strings.ToLower(*v))
		}
	}

	if id, _ := elem.Attribute("id"); id != nil && *id != "" {
		if label, err := elem.Page().Eval(
			`(id) => { const l = document.querySelector('label[for="' + id + '"]'); return l ? l.innerText : ''; }`,
			*id,
		); err == nil && label != nil {
			if txt := label.Value.Str(); txt != "" {
				clues = append(clues, strings.ToLower(txt))
			}
		}
	}

	combined := strings.Join(clues, " ")
	for _, key := range fieldKeywordOrder {
		if containsAny(combined, fieldKeywords[key]) {
			return key
		}
	}
	return ""
}

func (f *Filler) valueFor(key string) string {
	p := f.profile
	switch key {
	case "first_name":
		return p.FirstName
	case "last_name":
		return p.LastName
	case "email":
		return p.Email
	case "phone":
		return p.Phone
	case "location":
		return p.Location
	case "github":
		return p.GitHub
	case "website":
		return p.Website
	case "experience":
		return p.YearsExperience
	case "current_title":
		return p.CurrentTitle
	case "current_company":
		return p.CurrentCompany
	case "salary":
		return p.DesiredSalary
	case "start_date":
		return p.StartDate
	case "education":
		return p.Education
	case "authorization":
		return p.WorkAuthorization
	case "relocate":
		return p.WillingToRelocate
	case "hear_about":
		return "Job board"
	case "cover_letter":
		return "" // handled via file upload, not text input
	case "linkedin":
		return p.LinkedIn
	default:
		return ""
	}
}

func attrOrEmpty(elem *rod.Element, name string) string {
	v, _ := elem.Attribute(name)
	if v == nil {
		return ""
	}
	return *v
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
