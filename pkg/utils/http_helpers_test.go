package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFilterFromQueryDefaults(t *testing.T) {
	filter := ParseFilterFromQuery(url.Values{})

	assert.Equal(t, DefaultLimit, filter.Limit)
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, 0, filter.Offset)
	assert.True(t, filter.WithPagination)
}

func TestParseFilterFromQueryLimitClamped(t *testing.T) {
	values := url.Values{}
	values.Set("limit", "9999")

	filter := ParseFilterFromQuery(values)
	assert.Equal(t, MaxLimit, filter.Limit)
}

func TestParseFilterFromQueryPageOffset(t *testing.T) {
	values := url.Values{}
	values.Set("limit", "50")
	values.Set("page", "3")

	filter := ParseFilterFromQuery(values)
	assert.Equal(t, 50, filter.Limit)
	assert.Equal(t, 3, filter.Page)
	assert.Equal(t, 100, filter.Offset)
}

func TestParseFilterFromQueryFilterAndSort(t *testing.T) {
	values := url.Values{}
	values.Set("search", "PO-2026")
	values.Set("filter[status]", "Open")
	values.Set("sort[code]", "desc")
	values.Set("sort[bad]", "sideways")

	filter := ParseFilterFromQuery(values)
	assert.Equal(t, "PO-2026", filter.Search)
	assert.Equal(t, "Open", filter.Filter["status"])
	assert.Equal(t, "desc", filter.Sort["code"])
	assert.NotContains(t, filter.Sort, "bad")
}

func TestParseUint64Slice(t *testing.T) {
	ids, err := ParseUint64Slice([]string{"1", " 2 ", "", "3"})
	assert.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids)

	_, err = ParseUint64Slice([]string{"abc"})
	assert.Error(t, err)
}

func TestHashAndComparePasswords(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	assert.NoError(t, err)

	assert.NoError(t, ComparePasswords(hash, "correct horse battery staple"))
	assert.Error(t, ComparePasswords(hash, "wrong password"))
}
