// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package pii

import (
	"fmt"
	"sort"
	"strings"
)

// Category identifies the kind of personal data an Entity holds, e.g. PERSON or EMAIL_ADDRESS.
type Category string

const (
	Person            Category = "PERSON"
	Location          Category = "LOCATION"
	Organization      Category = "ORGANIZATION"
	EmailAddress      Category = "EMAIL_ADDRESS"
	PhoneNumber       Category = "PHONE_NUMBER"
	StreetAddress     Category = "STREET_ADDRESS"
	CreditCard        Category = "CREDIT_CARD"
	BankAccount       Category = "BANK_ACCOUNT"
	GovID             Category = "GOV_ID"
	IPAddress         Category = "IP_ADDRESS"
	BlockchainAddress Category = "BLOCKCHAIN_ADDRESS"
	Age               Category = "AGE"
	Date              Category = "DATE"
	Medical           Category = "MEDICAL"
	Username          Category = "USERNAME"
	Password          Category = "PASSWORD"
	URL               Category = "URL"
	LicensePlate      Category = "LICENSE_PLATE"
	Other             Category = "OTHER"
)

var categories = map[Category]struct{}{
	Person:            {},
	Location:          {},
	Organization:      {},
	EmailAddress:      {},
	PhoneNumber:       {},
	StreetAddress:     {},
	CreditCard:        {},
	BankAccount:       {},
	GovID:             {},
	IPAddress:         {},
	BlockchainAddress: {},
	Age:               {},
	Date:              {},
	Medical:           {},
	Username:          {},
	Password:          {},
	URL:               {},
	LicensePlate:      {},
	Other:             {},
}

// ParseCategory returns the known Category matching s, ignoring case.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := categories[c]; !ok {
		return "", fmt.Errorf("unknown pii category '%s'", s)
	}
	return c, nil
}

// Categories lists every known Category in lexical order.
func Categories() []Category {
	out := make([]Category, 0, len(categories))
	for c := range categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c Category) String() string {
	return string(c)
}
