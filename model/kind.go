package model

import (
	"strings"
)

// Kind classifies the type of a property.
type Kind int

const (
	KindUnknown Kind = iota
	KindInt
	KindDouble
	KindFloat
	KindBool
	KindString
	KindID
	KindAny
	KindDate
	KindDateTime
	KindBuffer
	KindReference
	KindMultiReference
	KindExtendedReference
	KindMultiExtendedReference
	KindCodedValue
	KindCustomType
)

var kindNames = [...]string{
	KindUnknown:                "unknown",
	KindInt:                    "int",
	KindDouble:                 "double",
	KindFloat:                  "float",
	KindBool:                   "bool",
	KindString:                 "string",
	KindID:                     "id",
	KindAny:                    "any",
	KindDate:                   "date",
	KindDateTime:               "datetime",
	KindBuffer:                 "buffer",
	KindReference:              "reference",
	KindMultiReference:         "multi-reference",
	KindExtendedReference:      "extended-reference",
	KindMultiExtendedReference: "multi-extended-reference",
	KindCodedValue:             "coded-value",
	KindCustomType:             "custom-type",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}

	return kindNames[k]
}

// IsReference reports whether k refers to another entity.
func (k Kind) IsReference() bool {
	switch k {
	case KindReference, KindMultiReference,
		KindExtendedReference, KindMultiExtendedReference:
		return true
	}

	return false
}

var scalarKinds = map[string]Kind{
	"int":        KindInt,
	"integer":    KindInt,
	"number":     KindInt,
	"double":     KindDouble,
	"float":      KindFloat,
	"bool":       KindBool,
	"boolean":    KindBool,
	"string":     KindString,
	"id":         KindID,
	"any":        KindAny,
	"date":       KindDate,
	"datetime":   KindDateTime,
	"buffer":     KindBuffer,
	"codedvalue": KindCodedValue,
}

// Type is the declared type of a property.
type Type struct {
	Kind Kind
	// Name is the target entity of a reference, or the declared name of a
	// custom type.
	Name string
}

// ParseType parses a type token such as "String", "Reference@Customer" or
// "Address". isArray selects the multi variant of reference kinds.
func ParseType(tok string, isArray bool) Type {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return Type{Kind: KindUnknown}
	}

	if base, target, ok := strings.Cut(tok, "@"); ok {
		switch strings.ToLower(base) {
		case "reference", "ref":
			if isArray {
				return Type{Kind: KindMultiReference, Name: target}
			}

			return Type{Kind: KindReference, Name: target}

		case "extendedreference", "extended-reference":
			if isArray {
				return Type{Kind: KindMultiExtendedReference, Name: target}
			}

			return Type{Kind: KindExtendedReference, Name: target}
		}

		return Type{Kind: KindUnknown, Name: tok}
	}

	key := strings.ToLower(strings.ReplaceAll(tok, "-", ""))
	if k, ok := scalarKinds[key]; ok {
		return Type{Kind: k}
	}

	return Type{Kind: KindCustomType, Name: tok}
}

// String returns the declared form of the type without array marker.
func (t Type) String() string {
	switch t.Kind {
	case KindReference, KindMultiReference:
		return "Reference@" + t.Name
	case KindExtendedReference, KindMultiExtendedReference:
		return "ExtendedReference@" + t.Name
	case KindCustomType:
		return t.Name
	case KindID:
		return "Id"
	case KindDateTime:
		return "DateTime"
	case KindCodedValue:
		return "CodedValue"
	case KindUnknown:
		return ""
	}

	s := t.Kind.String()

	return strings.ToUpper(s[:1]) + s[1:]
}

// Requirement is the presence marker of a property.
type Requirement int

const (
	Required    Requirement = iota // *
	Optional                       // -
	Conditional                    // _
)

func (r Requirement) String() string {
	switch r {
	case Required:
		return "required"
	case Optional:
		return "optional"
	default:
		return "conditional"
	}
}

// RequirementOf maps a line marker to its requirement.
func RequirementOf(marker string) (Requirement, bool) {
	switch marker {
	case "*":
		return Required, true
	case "-":
		return Optional, true
	case "_":
		return Conditional, true
	}

	return 0, false
}

// APIType is the operation an API exposes.
type APIType int

const (
	APICreate APIType = iota
	APIUpdate
	APIDelete
	APIGetByID
	APIList
	APIListBy
	APICustom
)

var apiNames = [...]string{
	APICreate:  "create",
	APIUpdate:  "update",
	APIDelete:  "delete",
	APIGetByID: "get-by-id",
	APIList:    "list",
	APIListBy:  "list-by",
	APICustom:  "custom",
}

func (a APIType) String() string { return apiNames[a] }

// ParseAPIType parses an API operation keyword.
func ParseAPIType(s string) (APIType, bool) {
	s = strings.ToLower(s)
	if s == "getbyid" || s == "get" {
		return APIGetByID, true
	}

	for i, name := range apiNames {
		if name == s {
			return APIType(i), true
		}
	}

	return 0, false
}

// HTTPMethod returns the conventional HTTP method of the operation.
func (a APIType) HTTPMethod() string {
	switch a {
	case APICreate:
		return "POST"
	case APIUpdate:
		return "PUT"
	case APIDelete:
		return "DELETE"
	default:
		return "GET"
	}
}
