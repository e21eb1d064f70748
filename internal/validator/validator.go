// Package validator detects fabricated companies, skills, and metrics that a
// tailoring LLM may have introduced into a resume or cover letter that are
// not present anywhere in the candidate's original resume.
package validator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Result is the outcome of comparing a tailored document's entities against the original.
type Result struct {
	IsValid      bool     `json:"is_valid"`
	NewCompanies []string `json:"new_companies"`
	NewSkills    []string `json:"new_skills"`
	NewMetrics   []string `json:"new_metrics"`
	Warnings     []string `json:"warnings"`
}

var techKeywords = map[string]bool{
	"kubernetes": true, "k8s": true, "docker": true, "aws": true, "gcp": true, "azure": true,
	"terraform": true, "terragrunt": true, "atlantis": true, "helm": true, "devspace": true,
	"calico": true, "linkerd": true, "gke": true, "eks": true, "aks": true, "lambda": true,
	"sqs": true, "ec2": true, "s3": true, "cloudformation": true, "pulumi": true, "vagrant": true,
	"ansible": true, "chef": true, "puppet": true,
	"langraph": true, "langchain": true, "langflow": true, "openai": true, "anthropic": true,
	"gemini": true, "ollama": true, "crawl4ai": true, "tensorflow": true, "keras": true,
	"pytorch": true, "scikit-learn": true, "huggingface": true, "rag": true, "llm": true,
	"cnn": true, "lstm": true, "bert": true, "gpt": true,
	"airflow": true, "postgresql": true, "postgres": true, "redis": true, "elasticsearch": true,
	"kafka": true, "mongodb": true, "mysql": true, "sqlite": true, "cassandra": true,
	"dynamodb": true, "bigquery": true, "snowflake": true, "spark": true, "hadoop": true, "flink": true,
	"python": true, "fastapi": true, "flask": true, "django": true, "celery": true,
	"sqlalchemy": true, "java": true, "spring": true, "go": true, "golang": true,
	"typescript": true, "javascript": true, "node": true, "express": true, "rust": true,
	"ruby": true, "rails": true, "php": true, "laravel": true, "scala": true,
	"gitops": true, "github": true, "gitlab": true, "jenkins": true, "circleci": true,
	"prometheus": true, "grafana": true, "loki": true, "falco": true, "vault": true,
	"keycloak": true, "datadog": true, "newrelic": true, "splunk": true, "pagerduty": true,
	"bats": true, "pytest": true, "testcontainers": true,
	"react": true, "nextjs": true, "angular": true, "vue": true, "svelte": true,
	"tailwindcss": true, "webpack": true, "vite": true, "storybook": true,
	"graphql": true, "grpc": true, "rest": true, "oauth": true, "saml": true, "sso": true,
	"ci/cd": true, "microservices": true, "etl": true, "iot": true, "blockchain": true,
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true, "in": true,
	"on": true, "at": true, "to": true, "for": true, "of": true, "with": true, "by": true,
	"from": true, "as": true, "is": true, "was": true, "are": true, "were": true, "be": true,
	"been": true, "being": true, "have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "shall": true, "should": true, "may": true,
	"might": true, "can": true, "could": true, "i": true, "my": true, "me": true, "we": true,
	"our": true, "you": true, "your": true, "he": true, "she": true, "it": true, "they": true,
	"them": true, "their": true, "this": true, "that": true, "these": true, "those": true,
	"using": true, "including": true, "such": true, "also": true, "each": true, "every": true,
	"all": true, "both": true, "any": true, "some": true, "no": true, "not": true, "only": true,
	"into": true, "about": true, "after": true, "before": true, "between": true, "through": true,
	"during": true, "under": true, "above": true, "led": true, "built": true, "managed": true,
	"developed": true, "created": true, "designed": true, "implemented": true, "achieved": true,
	"delivered": true, "established": true, "maintained": true, "supported": true, "worked": true,
	"focused": true, "responsible": true,
}

var (
	companyPattern = regexp.MustCompile(`\b([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)+)\b`)
	atForPattern   = regexp.MustCompile(`(?i:at|for)\s+([A-Z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*)*)`)
	camelPattern   = regexp.MustCompile(`\b([A-Z][a-z]+(?:[A-Z][a-z]+)+)\b`)
	capsPattern    = regexp.MustCompile(`\b([A-Z]{2,})\b`)
	percentPattern = regexp.MustCompile(`\d+(?:\.\d+)?%`)
	dollarPattern  = regexp.MustCompile(`\$[\d,]+(?:\.\d+)?[MmKkBb]?`)
	usdPattern     = regexp.MustCompile(`(?i)USD\s*[\d,]+(?:\.\d+)?`)
	multPattern    = regexp.MustCompile(`(?i)\b\d+x\b`)
	bigNumPattern  = regexp.MustCompile(`\b(\d{3,}(?:,\d{3})*)\b`)
)

type entitySet struct {
	companies map[string]bool
	skills    map[string]bool
	metrics   map[string]bool
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isStopWord(word string) bool {
	return stopWords[strings.ToLower(word)]
}

func extractEntities(text string) entitySet {
	lowerText := strings.ToLower(text)
	es := entitySet{
		companies: make(map[string]bool),
		skills:    make(map[string]bool),
		metrics:   make(map[string]bool),
	}

	for _, m := range companyPattern.FindAllString(text, -1) {
		words := strings.Fields(m)
		if len(words) > 0 && !isStopWord(words[0]) {
			es.companies[normalize(m)] = true
		}
	}

	for _, m := range atForPattern.FindAllStringSubmatch(text, -1) {
		captured := strings.TrimSpace(m[1])
		if captured != "" {
			words := strings.Fields(captured)
			if len(words) > 0 && !isStopWord(words[0]) {
				es.companies[normalize(captured)] = true
			}
		}
	}

	for keyword := range techKeywords {
		pattern := `\b` + regexp.QuoteMeta(keyword) + `\b`
		if ok, _ := regexp.MatchString(pattern, lowerText); ok {
			es.skills[keyword] = true
		}
	}

	for _, m := range camelPattern.FindAllString(text, -1) {
		es.skills[normalize(m)] = true
	}

	for _, m := range capsPattern.FindAllString(text, -1) {
		es.skills[normalize(m)] = true
	}

	for _, m := range percentPattern.FindAllString(text, -1) {
		es.metrics[m] = true
	}
	for _, m := range dollarPattern.FindAllString(text, -1) {
		es.metrics[normalize(m)] = true
	}
	for _, m := range usdPattern.FindAllString(text, -1) {
		es.metrics[normalize(m)] = true
	}
	for _, m := range multPattern.FindAllString(text, -1) {
		es.metrics[normalize(m)] = true
	}
	for _, m := range bigNumPattern.FindAllString(text, -1) {
		es.metrics[strings.ReplaceAll(m, ",", "")] = true
	}

	return es
}

func setDiff(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// ValidateNoFabrication compares entities in tailoredText against originalText.
func ValidateNoFabrication(originalText, tailoredText string) Result {
	original := extractEntities(originalText)
	tailored := extractEntities(tailoredText)

	newCompanies := setDiff(tailored.companies, original.companies)
	newSkills := setDiff(tailored.skills, original.skills)
	newMetrics := setDiff(tailored.metrics, original.metrics)

	var warnings []string
	for _, c := range newCompanies {
		warnings = append(warnings, fmt.Sprintf("New company detected: '%s' not found in original resume", c))
	}
	for _, s := range newSkills {
		warnings = append(warnings, fmt.Sprintf("New skill/technology detected: '%s' not found in original resume", s))
	}
	for _, m := range newMetrics {
		warnings = append(warnings, fmt.Sprintf("New metric detected: '%s' not found in original resume", m))
	}

	return Result{
		IsValid:      len(newCompanies) == 0 && len(newSkills) == 0 && len(newMetrics) == 0,
		NewCompanies: newCompanies,
		NewSkills:    newSkills,
		NewMetrics:   newMetrics,
		Warnings:     warnings,
	}
}
