package domain

import (
	"errors"
	"fmt"
)

// ProductKind discriminates the three reviewable listing kinds.
type ProductKind string

const (
	KindClinic      ProductKind = "clinic"
	KindService     ProductKind = "service"
	KindPetFriendly ProductKind = "petfriendly"
)

// ErrUnknownProductType is returned for a kind outside Kinds().
var ErrUnknownProductType = errors.New("request parameter must be 'clinic' or 'service' or 'petfriendly'")

// ErrInvalidProductRef is returned when the id fields of a request do not
// name exactly one listing of the declared kind.
var ErrInvalidProductRef = errors.New("exactly one listing id matching productType is required")

// listing tables keyed by kind; never build table names from input.
var kindTables = map[ProductKind]string{
	KindClinic:      "clinics",
	KindService:     "services",
	KindPetFriendly: "pet_friendlies",
}

// Kinds returns every reviewable kind.
func Kinds() []ProductKind {
	return []ProductKind{KindClinic, KindService, KindPetFriendly}
}

// ParseProductKind validates s as a ProductKind.
func ParseProductKind(s string) (ProductKind, error) {
	k := ProductKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: got %q", ErrUnknownProductType, s)
	}
	return k, nil
}

// Valid reports whether k is one of the known kinds.
func (k ProductKind) Valid() bool {
	_, ok := kindTables[k]
	return ok
}

// Table returns the table holding listings of kind k, or "" if k is unknown.
func (k ProductKind) Table() string {
	return kindTables[k]
}

func (k ProductKind) String() string { return string(k) }

// ProductRef points at one listing. It replaces the three nullable
// clinicID/serviceID/petFriendlyID columns of the wire format.
type ProductRef struct {
	Kind ProductKind `json:"productType"`
	ID   string      `json:"productID"`
}

// RefFromFields builds a ProductRef from the wire fields. Exactly one id
// must be set and it must belong to productType.
func RefFromFields(productType, clinicID, serviceID, petFriendlyID string) (ProductRef, error) {
	kind, err := ParseProductKind(productType)
	if err != nil {
		return ProductRef{}, err
	}

	ids := map[ProductKind]string{
		KindClinic:      clinicID,
		KindService:     serviceID,
		KindPetFriendly: petFriendlyID,
	}
	set := 0
	for _, id := range ids {
		if id != "" {
			set++
		}
	}
	if set != 1 || ids[kind] == "" {
		return ProductRef{}, ErrInvalidProductRef
	}
	return ProductRef{Kind: kind, ID: ids[kind]}, nil
}

// Fields is the inverse of RefFromFields.
func (r ProductRef) Fields() (clinicID, serviceID, petFriendlyID string) {
	switch r.Kind {
	case KindClinic:
		clinicID = r.ID
	case KindService:
		serviceID = r.ID
	case KindPetFriendly:
		petFriendlyID = r.ID
	}
	return clinicID, serviceID, petFriendlyID
}

func (r ProductRef) String() string {
	return string(r.Kind) + "/" + r.ID
}
