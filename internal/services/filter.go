package services

import "retail-dashboard/internal/models"

// Options lists the distinct values of every filterable field in the order
// they first appear in the dataset.
func Options(ds *models.Dataset) models.FilterOptions {
	var opts models.FilterOptions
	if ds == nil {
		return opts
	}

	seen := [5]map[string]struct{}{{}, {}, {}, {}, {}}
	add := func(i int, dst *[]string, v string) {
		if _, ok := seen[i][v]; ok {
			return
		}
		seen[i][v] = struct{}{}
		*dst = append(*dst, v)
	}

	for _, r := range ds.Records {
		add(0, &opts.Branch, r.Branch)
		add(1, &opts.CustomerType, r.CustomerType)
		add(2, &opts.City, r.City)
		add(3, &opts.Gender, r.Gender)
		add(4, &opts.ProductLine, r.ProductLine)
	}
	return opts
}

// DefaultSelection allows every value present in the dataset.
func DefaultSelection(ds *models.Dataset) models.FilterSelection {
	opts := Options(ds)
	return models.FilterSelection{
		Branch:       models.NewSet(opts.Branch...),
		CustomerType: models.NewSet(opts.CustomerType...),
		City:         models.NewSet(opts.City...),
		Gender:       models.NewSet(opts.Gender...),
		ProductLine:  models.NewSet(opts.ProductLine...),
	}
}

// Resolve replaces every unspecified (nil) set with the dataset default.
// Empty sets are kept as they are.
func Resolve(sel models.FilterSelection, ds *models.Dataset) models.FilterSelection {
	def := DefaultSelection(ds)
	if sel.Branch == nil {
		sel.Branch = def.Branch
	}
	if sel.CustomerType == nil {
		sel.CustomerType = def.CustomerType
	}
	if sel.City == nil {
		sel.City = def.City
	}
	if sel.Gender == nil {
		sel.Gender = def.Gender
	}
	if sel.ProductLine == nil {
		sel.ProductLine = def.ProductLine
	}
	return sel
}

// Apply returns the dataset rows passing every membership predicate, in
// dataset order. The result never shares backing storage with ds.
func Apply(ds *models.Dataset, sel models.FilterSelection) []models.Record {
	if ds == nil {
		return []models.Record{}
	}
	sel = Resolve(sel, ds)

	view := make([]models.Record, 0, len(ds.Records))
	for _, r := range ds.Records {
		if sel.Allows(r) {
			view = append(view, r)
		}
	}
	return view
}
