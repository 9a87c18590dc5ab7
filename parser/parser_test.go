package parser

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/sample_feed.xml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func TestParse_Fixture(t *testing.T) {
	records, err := Parse(loadFixture(t))

	assert.NoError(t, err)
	assert.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, int64(1001), first.ID)
	assert.Equal(t, "TS-1001", first.ProductCode)
	assert.Equal(t, "Basic Tisort", first.Name)
	assert.Equal(t, "Giyim", first.MainCategory)
	assert.Equal(t, "<p>Pamuklu basic tisort</p>", first.Description)
	assert.Equal(t, 149.90, first.Price)
	assert.NotNil(t, first.ListPrice)
	assert.Equal(t, 199.90, *first.ListPrice)
	assert.NotNil(t, first.CategoryID)
	assert.Equal(t, 42, *first.CategoryID)
	assert.Equal(t, 25, first.Quantity)
	assert.True(t, first.Active)
	assert.True(t, first.Domestic)
	assert.True(t, first.ShowHome)
	assert.False(t, first.InDiscount)
	assert.Equal(t, "https://cdn.example.com/p/1001-2.jpg", first.Images[1])
	assert.Len(t, first.Variants, 2)
	assert.Equal(t, "Beden", first.Variants[0].Name1)
	assert.Equal(t, "Siyah", first.Variants[0].Value2)
	assert.Equal(t, 15, first.Variants[1].Quantity)
}

func TestParse_UnparseableScalarsNormalize(t *testing.T) {
	records, err := Parse(loadFixture(t))
	assert.NoError(t, err)

	// Second fixture product carries price="abc", quantity="n/a",
	// active="yes" and an empty listPrice.
	second := records[1]
	assert.Equal(t, int64(1002), second.ID)
	assert.Equal(t, float64(0), second.Price)
	assert.Equal(t, 0, second.Quantity)
	assert.Nil(t, second.ListPrice)
	assert.Nil(t, second.Tax)
	assert.False(t, second.Active)
	assert.Equal(t, "TRY", second.Currency)
}

func TestParse_SingleProductIsSequence(t *testing.T) {
	raw := []byte(`<products><product><id>5</id><name>Tek Urun</name><price>10</price></product></products>`)

	records, err := Parse(raw)

	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int64(5), records[0].ID)
}

func TestParse_SingleVariantIsSequence(t *testing.T) {
	raw := []byte(`<products><product><id>5</id><name>X</name>
		<variants><variant><name1>Beden</name1><value1>S</value1><quantity>1</quantity></variant></variants>
	</product></products>`)

	records, err := Parse(raw)

	assert.NoError(t, err)
	assert.Len(t, records[0].Variants, 1)
	assert.Equal(t, "S", records[0].Variants[0].Value1)
}

func TestParse_WrappedRoot(t *testing.T) {
	raw := []byte(`<catalog><generated>today</generated><products><product><id>9</id><name>Y</name></product></products></catalog>`)

	records, err := Parse(raw)

	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int64(9), records[0].ID)
}

func TestParse_MissingProductsCollection(t *testing.T) {
	for _, raw := range []string{
		`<items><item><id>1</id></item></items>`,
		`<products></products>`,
		`not xml at all`,
		``,
	} {
		records, err := Parse([]byte(raw))
		assert.Nil(t, records, "input: %s", raw)
		assert.ErrorIs(t, err, ErrMalformedFeed, "input: %s", raw)
	}
}

func TestParse_NonNumericIDKeepsSiblings(t *testing.T) {
	raw := []byte(`<products>
		<product><id>abc</id><name>Bozuk</name></product>
		<product><id>2</id><name>Saglam</name></product>
	</products>`)

	records, err := Parse(raw)

	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int64(0), records[0].ID)
	assert.Equal(t, int64(2), records[1].ID)
}

func TestNormalizeHelpers(t *testing.T) {
	assert.Equal(t, 7, atoi(" 7 ", 0))
	assert.Equal(t, 0, atoi("x", 0))
	assert.Equal(t, int64(12), atoi64("12", 0))
	assert.Nil(t, atoiPtr(""))
	assert.Equal(t, 3, *atoiPtr("3"))
	assert.Equal(t, 1.5, atof("1.5", 0))
	assert.Equal(t, float64(0), atof("abc", 0))
	assert.Nil(t, atofPtr("abc"))
	assert.Equal(t, 2.25, *atofPtr("2.25"))
	assert.True(t, atob("1"))
	assert.True(t, atob("true"))
	assert.False(t, atob("yes"))
	assert.False(t, atob(""))
	assert.Equal(t, "TRY", textDefault("  ", "TRY"))
	assert.Equal(t, "USD", textDefault("USD", "TRY"))
}
