package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestParseAssetClass(t *testing.T) {
	tests := []struct {
		name string
		want domain.AssetClass
	}{
		{"styles", domain.Styles},
		{"CSS", domain.Styles},
		{"scripts", domain.Scripts},
		{"js", domain.Scripts},
		{"markup", domain.Markup},
		{"html", domain.Markup},
		{"images", domain.Images},
		{" assets ", domain.Images},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseAssetClass(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := domain.ParseAssetClass("fonts")
	require.ErrorContains(t, err, domain.ErrUnknownAssetClass.Error())
}

func TestParseAssetClasses(t *testing.T) {
	all, err := domain.ParseAssetClasses(nil)
	require.NoError(t, err)
	assert.Equal(t, domain.AllAssetClasses(), all)

	some, err := domain.ParseAssetClasses([]string{"js", "scripts", "images"})
	require.NoError(t, err)
	assert.Equal(t, []domain.AssetClass{domain.Scripts, domain.Images}, some)

	_, err = domain.ParseAssetClasses([]string{"styles", "bogus"})
	require.ErrorContains(t, err, domain.ErrUnknownAssetClass.Error())
}

func TestAssetClass_String(t *testing.T) {
	assert.Equal(t, "styles", domain.Styles.String())
	assert.Equal(t, "images", domain.Images.String())
	assert.Equal(t, "unknown", domain.AssetClass(42).String())
	assert.False(t, domain.AssetClass(42).Valid())
}

func TestChangeKind_String(t *testing.T) {
	assert.Equal(t, "modified", domain.Modified.String())
	assert.Equal(t, "added", domain.Added.String())
	assert.Equal(t, "removed", domain.Removed.String())
}
