// Package currency defines currency metadata, the registry collaborator
// interface, and a Rounder that rounds monetary amounts to a currency's
// fraction-digit precision.
package currency

import (
	"context"
	"fmt"
	"sort"
)

// Currency describes a registered ISO 4217 currency.
type Currency struct {
	Code           string
	NumericCode    string
	Symbol         string
	FractionDigits int32
}

// UnknownCurrencyError indicates a currency code is not present in the
// registry.
type UnknownCurrencyError struct {
	Code string
}

func (e *UnknownCurrencyError) Error() string {
	return fmt.Sprintf("unknown currency %q", e.Code)
}

// Registry resolves currency definitions by code.
type Registry interface {
	Get(ctx context.Context, code string) (*Currency, error)
}

// StaticRegistry is an in-memory Registry backed by a fixed currency table.
type StaticRegistry struct {
	currencies map[string]Currency
}

// NewStaticRegistry creates a registry holding the given currencies. When
// none are given, a default table of common currencies is used.
func NewStaticRegistry(currencies ...Currency) *StaticRegistry {
	if len(currencies) == 0 {
		currencies = defaultCurrencies
	}
	m := make(map[string]Currency, len(currencies))
	for _, c := range currencies {
		m[c.Code] = c
	}
	return &StaticRegistry{currencies: m}
}

// Get returns the currency with the given code, or UnknownCurrencyError.
func (r *StaticRegistry) Get(_ context.Context, code string) (*Currency, error) {
	c, ok := r.currencies[code]
	if !ok {
		return nil, &UnknownCurrencyError{Code: code}
	}
	return &c, nil
}

// Codes returns the registered currency codes in lexical order.
func (r *StaticRegistry) Codes() []string {
	codes := make([]string, 0, len(r.currencies))
	for code := range r.currencies {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

var defaultCurrencies = []Currency{
	{Code: "AUD", NumericCode: "036", Symbol: "$", FractionDigits: 2},
	{Code: "BHD", NumericCode: "048", Symbol: ".د.ب", FractionDigits: 3},
	{Code: "CAD", NumericCode: "124", Symbol: "$", FractionDigits: 2},
	{Code: "CHF", NumericCode: "756", Symbol: "CHF", FractionDigits: 2},
	{Code: "EUR", NumericCode: "978", Symbol: "€", FractionDigits: 2},
	{Code: "GBP", NumericCode: "826", Symbol: "£", FractionDigits: 2},
	{Code: "JPY", NumericCode: "392", Symbol: "¥", FractionDigits: 0},
	{Code: "KWD", NumericCode: "414", Symbol: "د.ك", FractionDigits: 3},
	{Code: "NZD", NumericCode: "554", Symbol: "$", FractionDigits: 2},
	{Code: "USD", NumericCode: "840", Symbol: "$", FractionDigits: 2},
}
