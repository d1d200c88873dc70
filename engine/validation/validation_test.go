package validation

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foofork/riptidecrawler-sub009/engine/models"
)

func mustParse(t *testing.T, raw string) *url.URL {
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestNormalizeURLStripsFragmentAndCosmeticParams(t *testing.T) {
	u := mustParse(t, "https://example.com/page?theme=dark&utm_source=newsletter&id=7#section")
	assert.Equal(t, "https://example.com/page?id=7", NormalizeURL(u))
}

func TestNormalizeURLDropsEmptyQuery(t *testing.T) {
	u := mustParse(t, "https://example.com/page?theme=dark")
	assert.Equal(t, "https://example.com/page", NormalizeURL(u))
}

func TestIsAllowedDomain(t *testing.T) {
	u := mustParse(t, "https://blog.example.com/post")
	assert.True(t, IsAllowedDomain(u, []string{"example.com"}))
	assert.False(t, IsAllowedDomain(u, []string{"other.com"}))
}

func TestValidateCrawlRequest(t *testing.T) {
	req := models.CrawlRequest{URL: mustParse(t, "https://example.com/a"), Depth: 1}
	assert.NoError(t, ValidateCrawlRequest(req, []string{"example.com"}))

	bad := models.CrawlRequest{URL: mustParse(t, "https://other.com/a"), Depth: 1}
	assert.Error(t, ValidateCrawlRequest(bad, []string{"example.com"}))

	negDepth := models.CrawlRequest{URL: mustParse(t, "https://example.com/a"), Depth: -1}
	assert.Error(t, ValidateCrawlRequest(negDepth, nil))
}

func TestValidateSeedsCollectsErrorsWithoutFailingBatch(t *testing.T) {
	valid, errs := ValidateSeeds([]string{"https://a.com", "not a url", "https://b.com"})
	require.Len(t, valid, 2)
	require.Len(t, errs, 1)
}
