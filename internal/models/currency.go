package models

import (
	"sort"
	"strings"
)

// Currency is an ISO 4217 code such as "EUR".
type Currency string

// CurrencySet is the closed set of currency codes the ledger accepts.
type CurrencySet map[Currency]struct{}

// NewCurrencySet builds a set from codes, normalizing them to upper case.
func NewCurrencySet(codes ...string) CurrencySet {
	set := make(CurrencySet, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" {
			set[Currency(c)] = struct{}{}
		}
	}
	return set
}

// Contains reports whether code is an accepted currency.
func (s CurrencySet) Contains(code Currency) bool {
	_, ok := s[code]
	return ok
}

// Codes returns the accepted codes in sorted order.
func (s CurrencySet) Codes() []string {
	codes := make([]string, 0, len(s))
	for c := range s {
		codes = append(codes, string(c))
	}
	sort.Strings(codes)
	return codes
}
