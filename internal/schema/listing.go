// Package schema defines the accepted listing fields, their semantic types,
// and which are required. It is the single source of truth for the column
// set shared by the dataset loader, the transformation pipeline, and the
// inference request validator.
package schema

import (
	"math"
	"time"

	"github.com/JanKosminski/HousingPricesInPoland/internal/dataset"
	"github.com/JanKosminski/HousingPricesInPoland/internal/pkg/errors"
)

// DateLayout is the accepted format of the listing date.
const DateLayout = "2006-01-02"

// DateColumn names the raw date column consumed by feature derivation.
const DateColumn = "date"

// PriceColumn names the raw price column, present only in training data.
const PriceColumn = "price"

// FieldKind classifies a schema field for the pipeline.
type FieldKind int

const (
	// Numeric fields are float-valued.
	Numeric FieldKind = iota
	// Categorical fields hold free text collapsed to a finite domain.
	Categorical
	// BooleanLike fields hold yes/no-style text coerced to {1,0}.
	BooleanLike
	// Date fields hold a DateLayout-formatted date.
	Date
)

// Field describes one accepted input column.
type Field struct {
	Name     string
	Kind     FieldKind
	Required bool
}

// fields is the canonical field table, in schema order. Feature columns keep
// this order downstream so the trained model always sees the same layout.
var fields = []Field{
	{"city", Categorical, true},
	{"type", Categorical, true},
	{"squareMeters", Numeric, true},
	{"rooms", Numeric, true},
	{"floor", Numeric, false},
	{"floorCount", Numeric, false},
	{"buildYear", Numeric, false},
	{"latitude", Numeric, true},
	{"longitude", Numeric, true},
	{"centreDistance", Numeric, true},
	{"poiCount", Numeric, true},
	{"schoolDistance", Numeric, false},
	{"clinicDistance", Numeric, false},
	{"postOfficeDistance", Numeric, false},
	{"kindergartenDistance", Numeric, false},
	{"restaurantDistance", Numeric, false},
	{"collegeDistance", Numeric, false},
	{"pharmacyDistance", Numeric, false},
	{"ownership", Categorical, true},
	{"buildingMaterial", Categorical, false},
	{"condition", Categorical, false},
	{"hasParkingSpace", BooleanLike, true},
	{"hasBalcony", BooleanLike, true},
	{"hasElevator", BooleanLike, false},
	{"hasSecurity", BooleanLike, true},
	{"hasStorageRoom", BooleanLike, true},
	{DateColumn, Date, true},
}

// Fields returns the canonical field table in schema order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// BooleanColumns returns the names of the boolean-like amenity columns.
func BooleanColumns() []string {
	var out []string
	for _, f := range fields {
		if f.Kind == BooleanLike {
			out = append(out, f.Name)
		}
	}
	return out
}

// DatasetKinds returns the column-kind map for the CSV loader. Boolean-like
// and date fields arrive as text; price and id appear only in source files.
func DatasetKinds() map[string]dataset.Kind {
	kinds := map[string]dataset.Kind{
		"id":        dataset.Categorical,
		PriceColumn: dataset.Numeric,
	}
	for _, f := range fields {
		switch f.Kind {
		case Numeric:
			kinds[f.Name] = dataset.Numeric
		default:
			kinds[f.Name] = dataset.Categorical
		}
	}
	return kinds
}

// ListingRecord is one inference request body. Every field is a pointer so a
// zero value is distinguishable from an absent one; optional fields stay nil
// and flow through the pipeline as missing values.
type ListingRecord struct {
	City                 *string  `json:"city"`
	Type                 *string  `json:"type"`
	SquareMeters         *float64 `json:"squareMeters"`
	Rooms                *float64 `json:"rooms"`
	Floor                *float64 `json:"floor,omitempty"`
	FloorCount           *float64 `json:"floorCount,omitempty"`
	BuildYear            *float64 `json:"buildYear,omitempty"`
	Latitude             *float64 `json:"latitude"`
	Longitude            *float64 `json:"longitude"`
	CentreDistance       *float64 `json:"centreDistance"`
	PoiCount             *float64 `json:"poiCount"`
	SchoolDistance       *float64 `json:"schoolDistance,omitempty"`
	ClinicDistance       *float64 `json:"clinicDistance,omitempty"`
	PostOfficeDistance   *float64 `json:"postOfficeDistance,omitempty"`
	KindergartenDistance *float64 `json:"kindergartenDistance,omitempty"`
	RestaurantDistance   *float64 `json:"restaurantDistance,omitempty"`
	CollegeDistance      *float64 `json:"collegeDistance,omitempty"`
	PharmacyDistance     *float64 `json:"pharmacyDistance,omitempty"`
	Ownership            *string  `json:"ownership"`
	BuildingMaterial     *string  `json:"buildingMaterial,omitempty"`
	Condition            *string  `json:"condition,omitempty"`
	HasParkingSpace      *string  `json:"hasParkingSpace"`
	HasBalcony           *string  `json:"hasBalcony"`
	HasElevator          *string  `json:"hasElevator,omitempty"`
	HasSecurity          *string  `json:"hasSecurity"`
	HasStorageRoom       *string  `json:"hasStorageRoom"`
	Date                 *string  `json:"date"`
}

func (r *ListingRecord) numeric(name string) *float64 {
	switch name {
	case "squareMeters":
		return r.SquareMeters
	case "rooms":
		return r.Rooms
	case "floor":
		return r.Floor
	case "floorCount":
		return r.FloorCount
	case "buildYear":
		return r.BuildYear
	case "latitude":
		return r.Latitude
	case "longitude":
		return r.Longitude
	case "centreDistance":
		return r.CentreDistance
	case "poiCount":
		return r.PoiCount
	case "schoolDistance":
		return r.SchoolDistance
	case "clinicDistance":
		return r.ClinicDistance
	case "postOfficeDistance":
		return r.PostOfficeDistance
	case "kindergartenDistance":
		return r.KindergartenDistance
	case "restaurantDistance":
		return r.RestaurantDistance
	case "collegeDistance":
		return r.CollegeDistance
	case "pharmacyDistance":
		return r.PharmacyDistance
	}
	return nil
}

func (r *ListingRecord) text(name string) *string {
	switch name {
	case "city":
		return r.City
	case "type":
		return r.Type
	case "ownership":
		return r.Ownership
	case "buildingMaterial":
		return r.BuildingMaterial
	case "condition":
		return r.Condition
	case "hasParkingSpace":
		return r.HasParkingSpace
	case "hasBalcony":
		return r.HasBalcony
	case "hasElevator":
		return r.HasElevator
	case "hasSecurity":
		return r.HasSecurity
	case "hasStorageRoom":
		return r.HasStorageRoom
	case DateColumn:
		return r.Date
	}
	return nil
}

// Validate checks that every required field is present and well-formed.
// Failures are collected into a single ValidationError naming each offending
// field; a valid record returns nil.
func (r *ListingRecord) Validate() error {
	var bad []string
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if f.Kind == Numeric {
			if r.numeric(f.Name) == nil {
				bad = append(bad, f.Name+" is required")
			}
			continue
		}
		if r.text(f.Name) == nil {
			bad = append(bad, f.Name+" is required")
		}
	}
	if r.SquareMeters != nil && (*r.SquareMeters <= 0 || math.IsNaN(*r.SquareMeters) || math.IsInf(*r.SquareMeters, 0)) {
		bad = append(bad, "squareMeters must be a positive number")
	}
	if r.Date != nil {
		if _, err := time.Parse(DateLayout, *r.Date); err != nil {
			bad = append(bad, "date must be formatted as YYYY-MM-DD")
		}
	}
	if len(bad) > 0 {
		return errors.NewValidationError(bad...)
	}
	return nil
}

// Frame converts the record into a one-row table with the schema's column
// set. Absent optional fields become missing cells the imputer fills later.
func (r *ListingRecord) Frame() *dataset.Frame {
	f := dataset.NewFrame(1)
	for _, field := range fields {
		if field.Kind == Numeric {
			v := math.NaN()
			if p := r.numeric(field.Name); p != nil {
				v = *p
			}
			_ = f.AddNumeric(field.Name, []float64{v})
			continue
		}
		v := ""
		if p := r.text(field.Name); p != nil {
			v = *p
		}
		_ = f.AddCategorical(field.Name, []string{v})
	}
	return f
}
