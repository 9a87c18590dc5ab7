// Package parser decodes product feed XML into normalized records.
package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"

	"catalog-feed-service/models"
)

// ErrMalformedFeed is returned when the document has no products collection.
var ErrMalformedFeed = errors.New("feed is not in the expected format")

// xmlVariant mirrors one <variant> element. All fields are read as raw text
// and normalized afterwards.
type xmlVariant struct {
	Name1    string `xml:"name1"`
	Value1   string `xml:"value1"`
	Name2    string `xml:"name2"`
	Value2   string `xml:"value2"`
	Quantity string `xml:"quantity"`
	Barcode  string `xml:"barcode"`
}

// xmlProduct mirrors one <product> element. encoding/xml collects character
// data including CDATA sections, so wrapped text unwraps for free; element
// attributes are ignored.
type xmlProduct struct {
	ID           string       `xml:"id"`
	ProductCode  string       `xml:"productCode"`
	Barcode      string       `xml:"barcode"`
	MainCategory string       `xml:"main_category"`
	TopCategory  string       `xml:"top_category"`
	SubCategory  string       `xml:"sub_category"`
	CategoryID   string       `xml:"categoryID"`
	Category     string       `xml:"category"`
	Active       string       `xml:"active"`
	BrandID      string       `xml:"brandID"`
	Brand        string       `xml:"brand"`
	Name         string       `xml:"name"`
	Description  string       `xml:"description"`
	Detail       string       `xml:"detail"`
	Image1       string       `xml:"image1"`
	Image2       string       `xml:"image2"`
	Image3       string       `xml:"image3"`
	Image4       string       `xml:"image4"`
	Image5       string       `xml:"image5"`
	Image6       string       `xml:"image6"`
	Image7       string       `xml:"image7"`
	Image8       string       `xml:"image8"`
	Image9       string       `xml:"image9"`
	ListPrice    string       `xml:"listPrice"`
	Price        string       `xml:"price"`
	Tax          string       `xml:"tax"`
	Currency     string       `xml:"currency"`
	Desi         string       `xml:"desi"`
	Quantity     string       `xml:"quantity"`
	Domestic     string       `xml:"domestic"`
	ShowHome     string       `xml:"show_home"`
	InDiscount   string       `xml:"in_discount"`
	Variants     []xmlVariant `xml:"variants>variant"`
}

// Parse decodes a feed document into normalized product records.
//
// The document must contain a <products> collection of <product> elements;
// the collection may itself be the root or sit anywhere under it. A single
// <product> child yields a one-element sequence. Feeds declaring non-UTF-8
// charsets are transcoded while decoding.
func Parse(raw []byte) ([]models.ProductRecord, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = false

	var (
		records    []models.ProductRecord
		inProducts bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case el.Name.Local == "products":
				inProducts = true
			case inProducts && el.Name.Local == "product":
				var xp xmlProduct
				if err := dec.DecodeElement(&xp, &el); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
				}
				records = append(records, normalizeProduct(xp))
			}
		case xml.EndElement:
			if el.Name.Local == "products" {
				inProducts = false
			}
		}
	}

	if records == nil {
		return nil, ErrMalformedFeed
	}
	return records, nil
}

func normalizeProduct(xp xmlProduct) models.ProductRecord {
	rec := models.ProductRecord{
		ID:           atoi64(xp.ID, 0),
		ProductCode:  text(xp.ProductCode),
		Barcode:      text(xp.Barcode),
		MainCategory: text(xp.MainCategory),
		TopCategory:  text(xp.TopCategory),
		SubCategory:  text(xp.SubCategory),
		CategoryID:   atoiPtr(xp.CategoryID),
		Category:     text(xp.Category),
		BrandID:      atoiPtr(xp.BrandID),
		Brand:        text(xp.Brand),
		Name:         text(xp.Name),
		Description:  text(xp.Description),
		Detail:       text(xp.Detail),
		ListPrice:    atofPtr(xp.ListPrice),
		Price:        atof(xp.Price, 0),
		Tax:          atofPtr(xp.Tax),
		Currency:     textDefault(xp.Currency, "TRY"),
		Desi:         atofPtr(xp.Desi),
		Quantity:     atoi(xp.Quantity, 0),
		Active:       atob(xp.Active),
		Domestic:     atob(xp.Domestic),
		ShowHome:     atob(xp.ShowHome),
		InDiscount:   atob(xp.InDiscount),
	}
	for i, img := range []string{
		xp.Image1, xp.Image2, xp.Image3, xp.Image4, xp.Image5,
		xp.Image6, xp.Image7, xp.Image8, xp.Image9,
	} {
		rec.Images[i] = text(img)
	}
	for _, xv := range xp.Variants {
		rec.Variants = append(rec.Variants, models.VariantRecord{
			Name1:    text(xv.Name1),
			Value1:   text(xv.Value1),
			Name2:    text(xv.Name2),
			Value2:   text(xv.Value2),
			Quantity: atoi(xv.Quantity, 0),
			Barcode:  text(xv.Barcode),
		})
	}
	return rec
}
