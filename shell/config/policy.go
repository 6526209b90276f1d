package config

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/AntonStoeckl/library-loan-ledger/core"
)

// ErrLoadingPolicyFailed is returned when a policy file can't be read or parsed.
var ErrLoadingPolicyFailed = errors.New("loading lending policy failed")

// policyFile mirrors the YAML layout. Absent keys keep the defaults of core.DefaultPolicy.
type policyFile struct {
	LoanDays    *int    `yaml:"loan_days"`
	MaxRenewals *int    `yaml:"max_renewals"`
	RenewalDays *int    `yaml:"renewal_days"`
	FinePerDay  *string `yaml:"fine_per_day"`
}

// LoadPolicy reads a lending policy from a YAML file.
func LoadPolicy(path string) (core.Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return core.Policy{}, errors.Join(ErrLoadingPolicyFailed, err)
	}

	return ParsePolicy(raw)
}

// ParsePolicy parses a lending policy, e.g.
//
//	loan_days: 14
//	max_renewals: 2
//	renewal_days: 7
//	fine_per_day: "10.00"
func ParsePolicy(raw []byte) (core.Policy, error) {
	var file policyFile

	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)

	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return core.Policy{}, errors.Join(ErrLoadingPolicyFailed, err)
	}

	policy := core.DefaultPolicy()

	if file.LoanDays != nil {
		policy.LoanDays = *file.LoanDays
	}

	if file.MaxRenewals != nil {
		policy.MaxRenewals = *file.MaxRenewals
	}

	if file.RenewalDays != nil {
		policy.RenewalDays = *file.RenewalDays
	}

	if file.FinePerDay != nil {
		finePerDay, err := decimal.NewFromString(*file.FinePerDay)
		if err != nil {
			return core.Policy{}, errors.Join(ErrLoadingPolicyFailed, err)
		}

		policy.FinePerDay = finePerDay
	}

	if err := policy.Validate(); err != nil {
		return core.Policy{}, errors.Join(ErrLoadingPolicyFailed, err)
	}

	return policy, nil
}
