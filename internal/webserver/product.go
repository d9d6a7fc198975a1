package webserver

// productView carries one product's fields into the templates. Rows
// arrive from the API as positional tuples: id, name, price,
// description, stock.
type productView struct {
	ID          int64
	Name        string
	Price       int64
	Description string
	Stock       int64
}

// productFromRow converts an API row into a view. Rows that are too
// short or carry unexpected types are skipped.
func productFromRow(row []any) (productView, bool) {
	if len(row) < 5 {
		return productView{}, false
	}

	id, ok := asInt64(row[0])
	if !ok {
		return productView{}, false
	}
	name, ok := row[1].(string)
	if !ok {
		return productView{}, false
	}
	price, ok := asInt64(row[2])
	if !ok {
		return productView{}, false
	}
	// description is nullable
	description, _ := row[3].(string)
	stock, ok := asInt64(row[4])
	if !ok {
		return productView{}, false
	}

	return productView{
		ID:          id,
		Name:        name,
		Price:       price,
		Description: description,
		Stock:       stock,
	}, true
}

// asInt64 accepts the numeric shapes JSON decoding produces.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
