package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateNoFabrication_NoNewEntities(t *testing.T) {
	original := "Led platform engineering at Acme Corp, cutting deploy time 50% using Kubernetes and Go."
	tailored := "Led platform engineering at Acme Corp using Kubernetes and Go, cutting deploy time 50%."

	result := ValidateNoFabrication(original, tailored)

	require.True(t, result.IsValid)
	assert.Empty(t, result.NewCompanies)
	assert.Empty(t, result.NewSkills)
	assert.Empty(t, result.NewMetrics)
	assert.Empty(t, result.Warnings)
}

func TestValidateNoFabrication_DetectsFabricatedCompany(t *testing.T) {
	original := "Backend engineer at Acme Corp."
	tailored := "Backend engineer at Acme Corp with prior work at Globex Industries."

	result := ValidateNoFabrication(original, tailored)

	require.False(t, result.IsValid)
	assert.Contains(t, result.NewCompanies, "globex industries")
	assert.NotEmpty(t, result.Warnings)
}

func TestValidateNoFabrication_DetectsFabricatedSkillAndMetric(t *testing.T) {
	original := "Built services in Python."
	tailored := "Built services in Python and Kubernetes, improving throughput by 300%."

	result := ValidateNoFabrication(original, tailored)

	require.False(t, result.IsValid)
	assert.Contains(t, result.NewSkills, "kubernetes")
	assert.Contains(t, result.NewMetrics, "300%")
}

func TestValidateNoFabrication_ReorderingIsNotFabrication(t *testing.T) {
	original := "Scaled the payments pipeline at Stripe, processing $1.2M daily."
	tailored := "At Stripe, scaled the payments pipeline, processing $1.2M daily."

	result := ValidateNoFabrication(original, tailored)

	assert.True(t, result.IsValid)
}
