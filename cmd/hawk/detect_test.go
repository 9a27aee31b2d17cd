package main

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildClassifiers(t *testing.T) {
	viper.Set("detect.contamination", 0.001)
	defer viper.Reset()

	classifiers, err := buildClassifiers()
	require.NoError(t, err)
	require.Len(t, classifiers, 6)

	names := make([]string, len(classifiers))
	for i, c := range classifiers {
		names[i] = c.Name()
	}
	assert.Equal(t, []string{
		"meal_price_outlier",
		"traveled_speeds",
		"monthly_subquota_limit",
		"invalid_cnpj_cpf",
		"election_expenses",
		"irregular_companies",
	}, names)
}

func TestBuildClassifiers_InvalidContamination(t *testing.T) {
	viper.Set("detect.contamination", 1.0)
	defer viper.Reset()

	_, err := buildClassifiers()
	assert.Error(t, err)
}
