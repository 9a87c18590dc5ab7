package models

// ProductRecord is one normalized product as it appears in a feed document,
// before it is written to the catalog. Optional numeric fields are nil when
// the feed value was absent or unparseable.
type ProductRecord struct {
	ID           int64
	ProductCode  string
	Barcode      string
	MainCategory string
	TopCategory  string
	SubCategory  string
	CategoryID   *int
	Category     string
	BrandID      *int
	Brand        string
	Name         string
	Description  string
	Detail       string
	Images       [9]string
	ListPrice    *float64
	Price        float64
	Tax          *float64
	Currency     string
	Desi         *float64
	Quantity     int
	Active       bool
	Domestic     bool
	ShowHome     bool
	InDiscount   bool
	Variants     []VariantRecord
}

// VariantRecord is a normalized variant child of a ProductRecord.
type VariantRecord struct {
	Name1    string
	Value1   string
	Name2    string
	Value2   string
	Quantity int
	Barcode  string
}

// Product converts the record into the persisted catalog row. sourceID is nil
// for file uploads, which are not tied to a registered feed source.
func (r *ProductRecord) Product(sourceID *uint) *Product {
	return &Product{
		ID:           r.ID,
		ProductCode:  r.ProductCode,
		Barcode:      r.Barcode,
		MainCategory: r.MainCategory,
		TopCategory:  r.TopCategory,
		SubCategory:  r.SubCategory,
		CategoryID:   r.CategoryID,
		Category:     r.Category,
		BrandID:      r.BrandID,
		Brand:        r.Brand,
		Name:         r.Name,
		Description:  r.Description,
		Detail:       r.Detail,
		Image1:       r.Images[0],
		Image2:       r.Images[1],
		Image3:       r.Images[2],
		Image4:       r.Images[3],
		Image5:       r.Images[4],
		Image6:       r.Images[5],
		Image7:       r.Images[6],
		Image8:       r.Images[7],
		Image9:       r.Images[8],
		ListPrice:    r.ListPrice,
		Price:        r.Price,
		Tax:          r.Tax,
		Currency:     r.Currency,
		Desi:         r.Desi,
		Quantity:     r.Quantity,
		Active:       r.Active,
		Domestic:     r.Domestic,
		ShowHome:     r.ShowHome,
		InDiscount:   r.InDiscount,
		XMLURLID:     sourceID,
	}
}

// VariantRows converts the record's variant set into persisted rows for the
// given product id.
func (r *ProductRecord) VariantRows() []Variant {
	rows := make([]Variant, 0, len(r.Variants))
	for _, v := range r.Variants {
		rows = append(rows, Variant{
			ProductID: r.ID,
			Name1:     v.Name1,
			Value1:    v.Value1,
			Name2:     v.Name2,
			Value2:    v.Value2,
			Quantity:  v.Quantity,
			Barcode:   v.Barcode,
		})
	}
	return rows
}
