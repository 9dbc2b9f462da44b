// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package synthetic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/samber/lo"

	"github.com/hashicorp/pii-transform/pii"
)

// Operation produces one fake value from a faker instance.
type Operation func(f *gofakeit.Faker) string

// Provider tells how to generate values for one category. Exactly one field should be set: a single operation name,
// a locale -> operation name map, or a custom function.
type Provider struct {
	Op       string
	ByLocale map[string]string
	Func     Operation
}

// ProviderTable maps a category to its Provider.
type ProviderTable map[pii.Category]Provider

// operations are the named fake-data operations that providers may reference.
var operations = map[string]Operation{
	"name":               func(f *gofakeit.Faker) string { return f.Name() },
	"first_name":         func(f *gofakeit.Faker) string { return f.FirstName() },
	"last_name":          func(f *gofakeit.Faker) string { return f.LastName() },
	"email":              func(f *gofakeit.Faker) string { return strings.ToLower(f.Email()) },
	"city":               func(f *gofakeit.Faker) string { return f.City() },
	"street_address":     func(f *gofakeit.Faker) string { return f.Street() },
	"phone_number":       func(f *gofakeit.Faker) string { return f.PhoneFormatted() },
	"mobile_number":      func(f *gofakeit.Faker) string { return f.Numerify("+63 9## ### ####") },
	"uk_phone_number":    func(f *gofakeit.Faker) string { return f.Numerify("+44 7### ######") },
	"es_phone_number":    func(f *gofakeit.Faker) string { return f.Numerify("+34 6## ### ###") },
	"ar_phone_number":    func(f *gofakeit.Faker) string { return f.Numerify("+54 11 ####-####") },
	"ssn":                func(f *gofakeit.Faker) string { return f.Numerify("###-##-####") },
	"nino":               nino,
	"nif":                nif,
	"curp":               curp,
	"person_rut":         rut,
	"credit_card_number": func(f *gofakeit.Faker) string { return f.CreditCardNumber(nil) },
	"bban":               func(f *gofakeit.Faker) string { return strings.ToUpper(f.Lexify("????")) + f.Numerify("##############") },
	"ipv4":               func(f *gofakeit.Faker) string { return f.IPv4Address() },
	"ipv4_private":       privateIPv4,
}

// OperationNames lists, sorted, the operations a Provider can reference by name.
func OperationNames() []string {
	names := lo.Keys(operations)
	sort.Strings(names)
	return names
}

// DefaultProviders returns the built-in provider table.
func DefaultProviders() ProviderTable {
	return ProviderTable{
		pii.EmailAddress: {Op: "email"},
		pii.Person:       {Op: "name"},
		pii.Location:     {Op: "city"},
		pii.BankAccount:  {Op: "bban"},
		pii.CreditCard:   {Op: "credit_card_number"},
		pii.PhoneNumber: {ByLocale: map[string]string{
			"en_US": "phone_number",
			"en_CA": "phone_number",
			"en_AU": "phone_number",
			"en_IN": "phone_number",
			"en_NZ": "phone_number",
			"en_GB": "uk_phone_number",
			"en_PH": "mobile_number",
			"es_AR": "ar_phone_number",
			"es_ES": "es_phone_number",
		}},
		pii.GovID: {ByLocale: map[string]string{
			"en_US": "ssn",
			"en_CA": "ssn",
			"en_GB": "nino",
			"es_MX": "curp",
			"es_ES": "nif",
			"es_CL": "person_rut",
		}},
		pii.IPAddress: {Func: privateIPv4},
	}
}

func (p Provider) validate(c pii.Category) error {
	set := 0
	if p.Op != "" {
		set++
		if _, ok := operations[p.Op]; !ok {
			return fmt.Errorf("synthetic provider for %s: unknown operation '%s'", c, p.Op)
		}
	}
	if len(p.ByLocale) > 0 {
		set++
		for loc, op := range p.ByLocale {
			if _, ok := operations[op]; !ok {
				return fmt.Errorf("synthetic provider for %s, locale %s: unknown operation '%s'", c, loc, op)
			}
		}
	}
	if p.Func != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("synthetic provider for %s must set exactly one of an operation, a locale map or a function", c)
	}
	return nil
}

func nino(f *gofakeit.Faker) string {
	return f.Numerify("ZZ ## ## ## ") + string("ABCD"[f.Number(0, 3)])
}

func nif(f *gofakeit.Faker) string {
	const letters = "TRWAGMYFPDXBNJZSQVHLCKE"
	n := f.Number(0, 99999999)
	return fmt.Sprintf("%08d%c", n, letters[n%23])
}

func curp(f *gofakeit.Faker) string {
	return strings.ToUpper(f.Lexify("????")) + f.Numerify("######") +
		string("HM"[f.Number(0, 1)]) + strings.ToUpper(f.Lexify("?????")) + f.Numerify("##")
}

// rut is a Chilean RUT with its modulo-11 check digit.
func rut(f *gofakeit.Faker) string {
	n := f.Number(1000000, 25000000)
	sum, mul := 0, 2
	for r := n; r > 0; r /= 10 {
		sum += (r % 10) * mul
		mul++
		if mul > 7 {
			mul = 2
		}
	}
	check := 11 - sum%11
	dv := fmt.Sprint(check)
	switch check {
	case 11:
		dv = "0"
	case 10:
		dv = "K"
	}
	return fmt.Sprintf("%d-%s", n, dv)
}

func privateIPv4(f *gofakeit.Faker) string {
	switch f.Number(0, 2) {
	case 0:
		return fmt.Sprintf("10.%d.%d.%d", f.Number(0, 255), f.Number(0, 255), f.Number(1, 254))
	case 1:
		return fmt.Sprintf("172.%d.%d.%d", f.Number(16, 31), f.Number(0, 255), f.Number(1, 254))
	default:
		return fmt.Sprintf("192.168.%d.%d", f.Number(0, 255), f.Number(1, 254))
	}
}
