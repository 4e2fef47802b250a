package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderKind_Valid(t *testing.T) {
	assert.True(t, KindManual.Valid())
	assert.True(t, KindCloudflare.Valid())
	assert.True(t, KindDigitalOcean.Valid())
	assert.True(t, KindRoute53.Valid())
	assert.False(t, ProviderKind("gandalf").Valid())
}

func TestProviderKind_Automated(t *testing.T) {
	assert.False(t, KindManual.Automated())
	assert.True(t, KindCloudflare.Automated())
	assert.False(t, ProviderKind("gandalf").Automated())
}

func TestSuffixMatches(t *testing.T) {
	t.Run("BareSuffix", func(t *testing.T) {
		assert.True(t, SuffixMatches("example.com", "example.com"))
		assert.True(t, SuffixMatches("example.com", "a.example.com"))
		assert.True(t, SuffixMatches("example.com", "deep.a.example.com"))
		assert.False(t, SuffixMatches("example.com", "notexample.com"))
		assert.False(t, SuffixMatches("example.com", "example.org"))
	})

	t.Run("WildcardSuffix", func(t *testing.T) {
		assert.True(t, SuffixMatches("*.example.com", "a.example.com"))
		assert.True(t, SuffixMatches("*.example.com", "deep.a.example.com"))
		assert.False(t, SuffixMatches("*.example.com", "example.com"))
		assert.False(t, SuffixMatches("*.example.com", "notexample.com"))
	})
}

func TestSecretRefs(t *testing.T) {
	token := &DNSProvider{TokenRef: "sec_t"}
	assert.Equal(t, []string{"sec_t"}, token.SecretRefs())

	iam := &DNSProvider{AccessKeyRef: "sec_a", SecretKeyRef: "sec_s"}
	assert.Equal(t, []string{"sec_a", "sec_s"}, iam.SecretRefs())

	manual := &DNSProvider{}
	assert.Empty(t, manual.SecretRefs())
}

func TestCategorize(t *testing.T) {
	err := NewAdapterError(KindCloudflare, CategoryRateLimited, "slow down", nil)
	assert.Equal(t, CategoryRateLimited, Categorize(err))

	wrapped := errors.Join(errors.New("outer"), err)
	assert.Equal(t, CategoryRateLimited, Categorize(wrapped))

	assert.Equal(t, CategoryUnknown, Categorize(errors.New("mystery")))
}
