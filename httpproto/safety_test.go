package httpproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafetyDefaultsApplyWhenUnset(t *testing.T) {
	s := NewSafety()
	assert.True(t, s.CheckBodySize(DefaultMaxBodySize))
	assert.False(t, s.CheckBodySize(DefaultMaxBodySize+1))
	assert.True(t, s.CheckHeaderCount(DefaultMaxHeaders))
}

func TestSafetyWithMaxBodySizeOverridesDefault(t *testing.T) {
	s := NewSafety().WithMaxBodySize(10)
	assert.True(t, s.CheckBodySize(10))
	assert.False(t, s.CheckBodySize(11))
}

func TestSafetyAllowedMethodsDefaultAllowsEverything(t *testing.T) {
	s := NewSafety()
	assert.True(t, s.CheckMethod("TRACE"))
}

func TestSafetyAllowedMethodsRestricts(t *testing.T) {
	s := NewSafety().WithAllowedMethods("GET", "POST")
	assert.True(t, s.CheckMethod("GET"))
	assert.False(t, s.CheckMethod("DELETE"))
}

func TestSafetyCheckContentTypeIgnoresParameters(t *testing.T) {
	s := NewSafety().WithAllowedContentTypes("application/json")
	assert.True(t, s.CheckContentType("application/json; charset=utf-8"))
	assert.False(t, s.CheckContentType("text/plain"))
}

func TestSafetyUpdateOverlaysExplicitFieldsOnly(t *testing.T) {
	base := NewSafety().WithMaxBodySize(100).WithMaxHeaders(5)
	patch := NewSafety().WithMaxBodySize(50)

	base.Update(patch)

	assert.True(t, base.CheckBodySize(50))
	assert.False(t, base.CheckBodySize(51))
	assert.True(t, base.CheckHeaderCount(5))
}

func TestSafetyMergeTakesMostRestrictive(t *testing.T) {
	a := NewSafety().WithMaxBodySize(100).WithAllowedMethods("GET", "POST")
	b := NewSafety().WithMaxBodySize(50).WithAllowedMethods("POST", "DELETE")

	a.Merge(b)

	assert.True(t, a.CheckBodySize(50))
	assert.False(t, a.CheckBodySize(51))
	assert.True(t, a.CheckMethod("POST"))
	assert.False(t, a.CheckMethod("GET"))
	assert.False(t, a.CheckMethod("DELETE"))
}

func TestSafetyMergeWithUnsetAllowListKeepsOtherSide(t *testing.T) {
	a := NewSafety()
	b := NewSafety().WithAllowedMethods("GET")

	a.Merge(b)

	assert.True(t, a.CheckMethod("GET"))
	assert.False(t, a.CheckMethod("POST"))
}
