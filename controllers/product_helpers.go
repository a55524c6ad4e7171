package controllers

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	apperrors "catalog-service/common/errors"
	"catalog-service/services"
)

// productForm reads product fields from a multipart form. List fields accept
// repeated values, a comma-separated value or a JSON array.
type productForm struct {
	values map[string][]string
	err    *apperrors.Error
}

func newProductForm(form *multipart.Form) *productForm {
	values := map[string][]string{}
	if form != nil {
		values = form.Value
	}
	return &productForm{values: values}
}

func (f *productForm) has(key string) bool {
	_, ok := f.values[key]
	return ok
}

func (f *productForm) str(key string) string {
	if v := f.values[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func (f *productForm) list(key string) []string {
	raw := f.values[key]
	if len(raw) == 1 {
		v := strings.TrimSpace(raw[0])
		if strings.HasPrefix(v, "[") {
			var decoded []string
			if err := json.Unmarshal([]byte(v), &decoded); err == nil {
				return decoded
			}
		}
		if v == "" {
			return []string{}
		}
		return strings.Split(v, ",")
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

func (f *productForm) float(key string) float64 {
	raw := f.str(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil && f.err == nil {
		f.err = apperrors.Validation(fmt.Sprintf("Invalid %s value", key))
	}
	return v
}

func (f *productForm) boolean(key string) bool {
	raw := f.str(key)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil && f.err == nil {
		f.err = apperrors.Validation(fmt.Sprintf("Invalid boolean value for '%s'", key))
	}
	return v
}

func (f *productForm) optionalID(key string) services.OptionalID {
	if !f.has(key) {
		return services.OptionalID{}
	}
	v := f.str(key)
	if v == "" || v == "null" {
		return services.OptionalID{Set: true}
	}
	return services.OptionalID{Set: true, Value: &v}
}

func (f *productForm) input() (services.ProductInput, *apperrors.Error) {
	in := services.ProductInput{
		Name:                 f.str("name"),
		ModelCode:            f.str("modelCode"),
		Description:          f.str("description"),
		Features:             f.list("features"),
		Images:               f.list("images"),
		SpecSheets:           f.list("specSheets"),
		Category:             f.str("category"),
		Brand:                f.str("brand"),
		Tags:                 f.list("tags"),
		Sizes:                f.list("sizes"),
		Colors:               f.list("colors"),
		Shapes:               f.list("shapes"),
		Price:                f.float("price"),
		MRP:                  f.float("mrp"),
		RedistributionPrice:  f.float("redistributionPrice"),
		SpecialPrice:         f.float("specialPrice"),
		IsSpecialPriceActive: f.boolean("isSpecialPriceActive"),
		ActivePriceType:      f.str("activePriceType"),
	}
	return in, f.err
}

// patch sets only the fields present in the form.
func (f *productForm) patch() (services.ProductPatch, *apperrors.Error) {
	var p services.ProductPatch
	strField := func(key string) *string {
		if !f.has(key) {
			return nil
		}
		v := f.str(key)
		return &v
	}
	listField := func(key string) *[]string {
		if !f.has(key) {
			return nil
		}
		v := f.list(key)
		return &v
	}
	floatField := func(key string) *float64 {
		if !f.has(key) {
			return nil
		}
		v := f.float(key)
		return &v
	}

	p.Name = strField("name")
	p.ModelCode = strField("modelCode")
	p.Description = strField("description")
	p.Features = listField("features")
	p.Images = listField("images")
	p.SpecSheets = listField("specSheets")
	p.Category = f.optionalID("category")
	p.Brand = f.optionalID("brand")
	p.Tags = listField("tags")
	p.Sizes = listField("sizes")
	p.Colors = listField("colors")
	p.Shapes = listField("shapes")
	p.Price = floatField("price")
	p.MRP = floatField("mrp")
	p.RedistributionPrice = floatField("redistributionPrice")
	p.SpecialPrice = floatField("specialPrice")
	if f.has("isSpecialPriceActive") {
		v := f.boolean("isSpecialPriceActive")
		p.IsSpecialPriceActive = &v
	}
	p.ActivePriceType = strField("activePriceType")
	return p, f.err
}
