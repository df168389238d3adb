package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/modelhike/modelhike-sub001/log"
)

const shop = `
=== Shop API ===
+ Orders

Customer (table=customers) #aggregate
========
* id     : Id
* name   : String (max=80)
- email  : String
- tags   : String[] = [] #indexed
~ create
~ get-by-id
~ list-by (name, email)

Order
=====
* id       : Id
* customer : Reference@Customer
- items    : Reference@Customer[]
_ note     : Note          // free text
- total    : Double = 0.0
~ custom approve /orders/{id}/approve

OrderView
---------
* code : Int
`

func parseShop(t *testing.T) *Model {
	t.Helper()

	m, err := ParseString(t.Context(), "shop.modelhike", shop, nil, log.Logger{})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if err := m.Hydrate(); err != nil {
		t.Fatalf("hydrate error: %v", err)
	}

	return m
}

func TestParse_Structure(t *testing.T) {
	m := parseShop(t)

	c, ok := m.Container("Shop API")
	if !ok {
		t.Fatal("expected container Shop API")
	}

	if len(c.Modules) != 1 || c.Modules[0].Name != "Orders" {
		t.Fatalf("unexpected modules %+v", c.Modules)
	}

	entities := c.Entities()
	if len(entities) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(entities))
	}

	if entities[2].Kind != EntityDTO {
		t.Error("expected dashed underline to declare a dto")
	}
}

func TestParse_Properties(t *testing.T) {
	m := parseShop(t)

	customer, _ := m.Entity("Customer")
	order, _ := m.Entity("Order")

	tests := []struct {
		entity  *Entity
		name    string
		kind    Kind
		req     Requirement
		isArray bool
		def     string
	}{
		{customer, "id", KindID, Required, false, ""},
		{customer, "email", KindString, Optional, false, ""},
		{customer, "tags", KindString, Optional, true, "[]"},
		{order, "customer", KindReference, Required, false, ""},
		{order, "items", KindMultiReference, Optional, true, ""},
		{order, "note", KindCustomType, Conditional, false, ""},
		{order, "total", KindDouble, Optional, false, "0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := tt.entity.Property(tt.name)
			if !ok {
				t.Fatalf("missing property %s", tt.name)
			}

			if p.Type.Kind != tt.kind || p.Requirement != tt.req ||
				p.IsArray != tt.isArray || p.Default != tt.def {
				t.Errorf("unexpected property %+v", p)
			}
		})
	}

	name, _ := customer.Property("name")
	if name.Attribs["max"] != "80" {
		t.Errorf("expected max attribute, got %v", name.Attribs)
	}

	tags, _ := customer.Property("tags")
	if len(tags.Tags) != 1 || tags.Tags[0].Name != "indexed" {
		t.Errorf("expected indexed tag, got %v", tags.Tags)
	}
}

func TestParse_APIs(t *testing.T) {
	m := parseShop(t)

	customer, _ := m.Entity("Customer")
	if len(customer.APIs) != 3 {
		t.Fatalf("expected 3 apis, got %d", len(customer.APIs))
	}

	listBy := customer.APIs[2]
	if listBy.Type != APIListBy || strings.Join(listBy.Params, ",") != "name,email" {
		t.Errorf("unexpected list-by api %+v", listBy)
	}

	if customer.APIs[1].Path != "/customer/{id}" {
		t.Errorf("unexpected default path %q", customer.APIs[1].Path)
	}

	order, _ := m.Entity("Order")
	approve := order.APIs[0]

	if approve.Type != APICustom || approve.Name != "approve" || approve.Path != "/orders/{id}/approve" {
		t.Errorf("unexpected custom api %+v", approve)
	}
}

func TestHydrate_ResolvesReferences(t *testing.T) {
	m := parseShop(t)

	order, _ := m.Entity("Order")
	ref, _ := order.Property("customer")

	if ref.Ref == nil || ref.Ref.Name != "Customer" {
		t.Errorf("expected reference to Customer, got %v", ref.Ref)
	}
}

func TestHydrate_Unresolved(t *testing.T) {
	m, err := ParseString(t.Context(), "x", "A\n===\n* b : Reference@Missing\n", nil, log.Logger{})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if err := m.Hydrate(); !errors.Is(err, ErrUnresolvedReference) {
		t.Errorf("expected unresolved reference, got %v", err)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"property without entity", "* a : Int", ErrNoEntity},
		{"garbage line", "A\n===\n? what", ErrInvalidModelLine},
		{"bad property", "A\n===\n* : Int", ErrInvalidModelLine},
		{"duplicate entity", "A\n===\nA\n===", ErrDuplicateEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(t.Context(), "x", tt.src, nil, log.Logger{})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGetProperty(t *testing.T) {
	m := parseShop(t)
	customer, _ := m.Entity("Customer")

	tests := []struct {
		name string
		want any
	}{
		{"name", "Customer"},
		{"has-apis", true},
		{"is-dto", false},
		{"table", "customers"},
		{"aggregate", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := customer.GetProperty(tt.name)
			if err != nil {
				t.Fatalf("get property: %v", err)
			}

			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if _, err := customer.GetProperty("nope"); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("expected unknown property, got %v", err)
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		tok   string
		array bool
		want  Type
		str   string
	}{
		{"Int", false, Type{Kind: KindInt}, "Int"},
		{"DateTime", false, Type{Kind: KindDateTime}, "DateTime"},
		{"Reference@User", false, Type{Kind: KindReference, Name: "User"}, "Reference@User"},
		{"ExtendedReference@User", true, Type{Kind: KindMultiExtendedReference, Name: "User"}, "ExtendedReference@User"},
		{"Money", false, Type{Kind: KindCustomType, Name: "Money"}, "Money"},
		{"", false, Type{Kind: KindUnknown}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			got := ParseType(tt.tok, tt.array)
			if got != tt.want || got.String() != tt.str {
				t.Errorf("expected %+v (%q), got %+v (%q)", tt.want, tt.str, got, got.String())
			}
		})
	}
}

func TestParseYAML(t *testing.T) {
	const doc = `
containers:
  - name: Billing
    modules:
      - name: Invoices
        entities:
          - name: Invoice
            tags: [aggregate]
            properties:
              - "* id : Id"
              - "- lines : Reference@Line[]"
            apis:
              - create
          - name: Line
            dto: true
            properties:
              - "* amount : Double"
`

	m, err := ParseYAML(t.Context(), "billing.yaml", strings.NewReader(doc), nil, log.Logger{})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if err := m.Hydrate(); err != nil {
		t.Fatalf("hydrate error: %v", err)
	}

	inv, ok := m.Entity("Invoice")
	if !ok || len(inv.Properties) != 2 || len(inv.APIs) != 1 {
		t.Fatalf("unexpected invoice %+v", inv)
	}

	lines, _ := inv.Property("lines")
	if lines.Type.Kind != KindMultiReference || lines.Ref == nil {
		t.Errorf("expected hydrated multi reference, got %+v", lines)
	}

	line, _ := m.Entity("Line")
	if line.Kind != EntityDTO {
		t.Error("expected dto")
	}
}
